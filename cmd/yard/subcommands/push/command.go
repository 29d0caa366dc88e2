package push

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	pb "github.com/cheggaaa/pb/v3"
	krst "github.com/modelyard/modelyard/cmd/yard/rest"
	"github.com/modelyard/modelyard/cmd/yard/subcommands/common"
	"github.com/modelyard/modelyard/cmd/yard/yardenv"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Name string `flag:"name" alias:"n" metavar:"NAME" help:"name of the pushed Artifact. Available only with a single SOURCE."`
}

type Option struct {
	progressOut io.Writer
	output      io.Writer
}

func WithProgressOut(w io.Writer) func(*Option) *Option {
	return func(o *Option) *Option {
		o.progressOut = w
		return o
	}
}

func WithOutput(w io.Writer) func(*Option) *Option {
	return func(o *Option) *Option {
		o.output = w
		return o
	}
}

const (
	ARG_RUN_ID = "RUN_ID"
	ARG_SOURCE = "SOURCE"
)

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		progressOut: os.Stderr,
		output:      os.Stdout,
	}
	for _, o := range options {
		option = o(option)
	}

	return flarc.NewCommand(
		"Push (register) Artifacts produced by a Run.",
		Flags{},
		flarc.Args{
			{
				Name: ARG_RUN_ID, Required: true,
				Help: "Id of the Run which produced the Artifacts.",
			},
			{
				Name: ARG_SOURCE, Required: true, Repeatable: true,
				Help: "File or directory to be pushed to modelyard.",
			},
		},
		common.NewTask(Task(option)),
		flarc.WithDescription(`
Push files or directories as Artifacts of a Run.

Each SOURCE is archived into tar.gz, sent to the server and stored by
the sha256 digest of the archive. The server answers with the Artifact
reference (digest, name and size), which this command prints.

The name of the Artifact defaults to the base name of SOURCE.
Pass --name to override it when pushing a single SOURCE.

Example
-------

To push directory "./out/model" as an Artifact of Run "run-1":

	{{ .Command }} run-1 ./out/model

To push it under the name "encoder":

	{{ .Command }} --name encoder run-1 ./out/model

To push several Artifacts at once:

	{{ .Command }} run-1 ./out/model ./out/metrics.json
`),
	)
}

func Task(option *Option) common.Task[Flags] {
	return func(
		ctx context.Context,
		l *log.Logger,
		yenv yardenv.YardEnv,
		client krst.YardClient,
		cl flarc.Commandline[Flags],
		params []any,
	) error {
		runId := cl.Args()[ARG_RUN_ID][0]
		sources := cl.Args()[ARG_SOURCE]
		flags := cl.Flags()

		if flags.Name != "" && len(sources) != 1 {
			return fmt.Errorf(
				"%w: --name is available only when pushing a single SOURCE", flarc.ErrUsage,
			)
		}

		total := len(sources)
		for n, s := range sources {
			if _, err := os.Stat(s); err != nil {
				l.Printf("%s: %s -- skipped", err, s)
				continue
			}

			name := flags.Name
			if name == "" {
				name = filepath.Base(s)
			}

			prog := client.PushArtifact(ctx, runId, s, name)

			bar := pb.New64(prog.EstimatedTotalSize())
			bar.Set(pb.Bytes, true)
			bar.SetWriter(option.progressOut)
			if err := bar.Err(); err != nil {
				return err
			}

			bar.Start()
			l.Printf("[[%d/%d]] sending... %s\n", n+1, total, s)
			for {
				select {
				case <-time.NewTimer(1 * time.Second).C:
					bar.SetTotal(prog.EstimatedTotalSize())
					bar.SetCurrent(prog.ProgressedSize())
					bar.Set("prefix", ellipsis(prog.ProgressingFile(), 60)+":")
					continue
				case <-prog.Sent():
					bar.SetTotal(prog.EstimatedTotalSize())
					bar.SetCurrent(prog.ProgressedSize())
					bar.Set("prefix", "")
				}
				break
			}
			bar.Finish()
			select {
			case <-time.NewTimer(1 * time.Second).C:
				l.Println("waiting server...")
			case <-prog.Done():
			}
			<-prog.Done()
			if err := prog.Error(); err != nil {
				return err
			}

			ref, ok := prog.Result()
			if !ok {
				return fmt.Errorf("[ERROR] failed to push %s", s)
			}

			buf, err := json.MarshalIndent(ref, "", "    ")
			if err != nil {
				return err
			}
			l.Printf(
				"[[%d/%d]] [OK] done: %s -> %s",
				n+1, total, s, ref.Digest,
			)
			option.output.Write(buf)
		}

		return nil
	}
}

func ellipsis(s string, length int) string {
	if len(s) <= length {
		return s
	}
	l := len(s)
	return "[...]" + s[l-length+5:]
}
