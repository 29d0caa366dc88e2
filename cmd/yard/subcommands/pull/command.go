package pull

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/cheggaaa/pb/v3"
	apiartifacts "github.com/modelyard/modelyard-api-types/artifacts"
	krst "github.com/modelyard/modelyard/cmd/yard/rest"
	"github.com/modelyard/modelyard/cmd/yard/subcommands/common"
	"github.com/modelyard/modelyard/cmd/yard/yardenv"
	kpath "github.com/modelyard/modelyard/pkg/utils/path"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Extract bool `flag:"extract" alias:"x" help:"extract files from tar.gz archive"`
}

type Option struct {
	progressOutput io.Writer
	defaultOutput  io.Writer
}

func WithProgressOutput(w io.Writer) func(*Option) *Option {
	return func(o *Option) *Option {
		o.progressOutput = w
		return o
	}
}

func WithOutput(w io.Writer) func(*Option) *Option {
	return func(o *Option) *Option {
		o.defaultOutput = w
		return o
	}
}

const (
	ARG_DIGEST = "DIGEST"
	ARG_DEST   = "DEST"
)

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		progressOutput: os.Stderr,
		defaultOutput:  os.Stdout,
	}
	for _, o := range options {
		option = o(option)
	}

	return flarc.NewCommand(
		"Download an Artifact from modelyard to your local filesystem.",
		Flags{},
		flarc.Args{
			{
				Name: ARG_DIGEST, Required: true,
				Help: `Artifact digest, like "sha256:...".`,
			},
			{
				Name: ARG_DEST, Required: false,
				Help: `
directory where the downloaded Artifact will be located at.
If the directory does not exist, it will be created.
If you set "-", the Artifact will be written to stdout (not applicable with -x).
Default: current directory ".".
`,
			},
		},
		common.NewTask(Task(option)),
		flarc.WithDescription(`
Download an Artifact and verify it against its digest.

The downloaded stream is hashed while writing. When the hash does not
match DIGEST, the file is kept but a warning is raised, since it may
be corrupted.

Example
-------

Pull Artifact "sha256:abcd..." as "./abcd....tar.gz":

	{{ .Command }} sha256:abcd...

Pull it into "./abcd..." directory, and extract it:

	{{ .Command }} -x sha256:abcd...

Pull it into "/somewhere/abcd..." directory, and extract it:

	{{ .Command }} -x sha256:abcd... /somewhere

Pull Artifact to stdout (-x is not allowed):

	{{ .Command }} sha256:abcd... -
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
		digest := cl.Args()[ARG_DIGEST][0]
		if _, err := apiartifacts.ParseDigest(digest); err != nil {
			return fmt.Errorf("%w: %s", flarc.ErrUsage, err)
		}

		dest := "."
		if 0 < len(cl.Args()[ARG_DEST]) {
			dest = cl.Args()[ARG_DEST][0]
		}

		writeDefault := false
		if dest == "-" {
			writeDefault = true
		}

		dest, err := kpath.Resolve(dest)
		if err != nil {
			return fmt.Errorf("path resolving error for '%s': %w", dest, err)
		}
		dest = filepath.Clean(dest)
		// the "sha256:" prefix does not fit in a file name.
		dest = filepath.Join(dest, strings.TrimPrefix(digest, apiartifacts.DigestPrefix))

		flags := cl.Flags()
		if !flags.Extract {
			dest = dest + ".tar.gz"
			err = client.PullArtifact(ctx, digest, func(r io.Reader) error {
				if writeDefault {
					_, err := io.Copy(option.defaultOutput, r)
					return err
				}

				d := filepath.Dir(dest)
				if err := os.MkdirAll(d, os.FileMode(0777)); err != nil {
					return err
				}
				f, err := os.OpenFile(dest, os.O_CREATE|os.O_RDWR|os.O_TRUNC, os.FileMode(0666))
				if err != nil {
					return err
				}
				defer f.Close()

				bar := noBar.New(-1)
				bar.SetWriter(option.progressOutput)
				bar.Set("prefix", fmt.Sprintf("Downloading to %s:", ellipsis(dest, 60)))
				bar.Start()
				w := bar.NewProxyWriter(f)
				defer w.Close()
				if _, err := io.Copy(w, r); err != nil {
					return err
				}
				return nil
			})
		} else if writeDefault {
			return fmt.Errorf("%w: cannot extract Artifact to stdout (-)", flarc.ErrUsage)
		} else {
			bar := noBar.New(-1)
			bar.SetWriter(option.progressOutput)
			bar.Start()

			err = client.ExtractArtifact(ctx, digest, func(fe krst.FileEntry) error {
				fdest := filepath.Join(dest, fe.Header.Name)
				d := filepath.Dir(fdest)
				if err := os.MkdirAll(d, os.FileMode(0777)); err != nil {
					return err
				}
				if fe.Header.Typeflag == tar.TypeSymlink {
					return os.Symlink(fe.Header.Linkname, fdest)
				}

				f, err := os.OpenFile(fdest, os.O_CREATE|os.O_RDWR|os.O_TRUNC, fe.Header.FileInfo().Mode())
				if err != nil {
					return err
				}
				defer f.Close()
				bar.Set("prefix", fmt.Sprintf("extracting: %s into %s: ", ellipsis(fe.Header.Name, 20), ellipsis(dest, 60)))

				w := bar.NewProxyWriter(f) // do not close. won't Finish the bar here.
				if _, err := io.Copy(w, fe.Body); err != nil {
					return err
				}

				return nil
			})
			bar.Set("prefix", "done.: ")
			bar.Finish()
		}

		if errors.Is(err, krst.ErrChecksumUnmatch) {
			return errors.New("[WARN] checksum unmatch: Your Artifact is saved, but it may be corrupted")
		}

		return err
	}
}

const noBar pb.ProgressBarTemplate = `{{with string . "prefix"}}{{.}} {{end}}{{counters . }} {{with string . "suffix"}} {{.}}{{end}}`

func ellipsis(s string, length int) string {
	if len(s) <= length {
		return s
	}

	l := len(s)
	return "[...]" + s[l-length+5:]
}
