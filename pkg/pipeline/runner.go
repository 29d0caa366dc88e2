// Package pipeline runs file-based repro pipelines.
//
// A pipeline is declared in pipeline.yaml as stages with commands, deps
// and outs. Repro executes stages producers first, skipping stages whose
// fingerprint matches both the lock file and the local state database.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/modelyard/modelyard/pkg/utils"
)

// Tracker records stage executions on a tracking server.
//
// The CLI wires this to its rest client. Repro without a Tracker runs
// untracked.
type Tracker interface {
	// StartRun opens a run recording one stage execution.
	//
	// Args:
	//
	// - ctx
	//
	// - stage: stage name.
	//
	// - params: rendered param values the execution selects.
	//
	// Returns:
	//
	// - string: id of the opened run.
	//
	// - error
	StartRun(ctx context.Context, stage string, params map[string]string) (string, error)

	// PushArtifact stores the file at path and attaches it to the run.
	PushArtifact(ctx context.Context, runId string, path string) error

	// FinishRun settles the run with its terminal status and metrics.
	//
	// Args:
	//
	// - ctx
	//
	// - runId: id of the run to settle.
	//
	// - success: true when the stage command exited with 0.
	//
	// - metrics: metric values from the stage's metrics files. Can be nil.
	//
	// Returns:
	//
	// - error
	FinishRun(ctx context.Context, runId string, success bool, metrics map[string]float64) error
}

// Action is what Repro did, or would do, for a stage.
type Action string

const (
	ActionRun      Action = "run"
	ActionCached   Action = "cached"
	ActionWouldRun Action = "would run"
)

// Result reports what Repro did for one stage.
type Result struct {
	Stage  string
	Action Action

	// Reason tells why the stage was, or would be, executed.
	Reason string

	// RunId is the tracking run recording the execution, when tracked.
	RunId string
}

type reproOption struct {
	force   bool
	dryRun  bool
	target  string
	tracker Tracker
	stdout  io.Writer
	stderr  io.Writer
	logger  *log.Logger
}

type ReproOption func(*reproOption) *reproOption

// Force executes every visited stage, cached or not.
func Force() ReproOption {
	return func(o *reproOption) *reproOption {
		o.force = true
		return o
	}
}

// DryRun reports what would be executed, without executing anything.
func DryRun() ReproOption {
	return func(o *reproOption) *reproOption {
		o.dryRun = true
		return o
	}
}

// Target limits Repro to a stage and the stages it depends on.
func Target(stage string) ReproOption {
	return func(o *reproOption) *reproOption {
		o.target = stage
		return o
	}
}

// WithTracker records each executed stage as a run on a tracking server.
func WithTracker(t Tracker) ReproOption {
	return func(o *reproOption) *reproOption {
		o.tracker = t
		return o
	}
}

// WithOutput redirects stage commands' stdout and stderr.
func WithOutput(stdout io.Writer, stderr io.Writer) ReproOption {
	return func(o *reproOption) *reproOption {
		o.stdout = stdout
		o.stderr = stderr
		return o
	}
}

// WithLogger sets the logger telling which stage is running.
func WithLogger(l *log.Logger) ReproOption {
	return func(o *reproOption) *reproOption {
		o.logger = l
		return o
	}
}

// Repro brings the pipeline under root up to date.
//
// Stages run producers first. A stage is skipped when its fingerprint
// matches the lock file and the state database and its outs are on disk.
//
// Args:
//
// - ctx: cancelling it interrupts the running stage command.
//
// - root: directory holding pipeline.yaml.
//
// - options
//
// Returns:
//
// - []Result: one per visited stage, in execution order. On error, the
// results of the stages settled so far.
//
// - error
func Repro(ctx context.Context, root string, options ...ReproOption) ([]Result, error) {
	opt := &reproOption{
		stdout: os.Stdout,
		stderr: os.Stderr,
		logger: log.New(io.Discard, "", 0),
	}
	for _, o := range options {
		opt = o(opt)
	}

	man, err := LoadManifest(filepath.Join(root, PipelineFile))
	if err != nil {
		return nil, err
	}
	params, err := LoadParams(filepath.Join(root, ParamsFile))
	if err != nil {
		return nil, err
	}
	graph, err := NewGraph(man)
	if err != nil {
		return nil, err
	}

	order := graph.TopoOrder()
	if opt.target != "" {
		if order, err = graph.AncestorClosure(opt.target); err != nil {
			return nil, err
		}
	}

	state, err := OpenState(root)
	if err != nil {
		return nil, err
	}
	defer state.Close()

	lock, err := LoadLock(filepath.Join(root, LockFile))
	if err != nil {
		return nil, err
	}

	r := &runner{root: root, graph: graph, params: params, state: state, lock: lock, opt: opt}

	results := []Result{}
	stale := map[string]bool{}
	for _, name := range order {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		st, _ := graph.Stage(name)

		paramVals, err := params.Select(st.Params)
		if err != nil {
			return results, fmt.Errorf("stage %s: %w", name, err)
		}

		if opt.dryRun {
			res, err := r.plan(ctx, name, st, paramVals, stale)
			if err != nil {
				return results, err
			}
			results = append(results, res)
			continue
		}

		depHashes, err := r.depHashes(ctx, name, st)
		if err != nil {
			return results, err
		}
		fp := Fingerprint(st, depHashes, paramVals)

		reason := "forced"
		if !opt.force {
			if reason, err = r.staleReason(ctx, name, fp, st); err != nil {
				return results, err
			}
		}
		if reason == "" {
			opt.logger.Printf("stage %s: cached", name)
			results = append(results, Result{Stage: name, Action: ActionCached})
			continue
		}

		res, err := r.execute(ctx, name, st, paramVals, fp)
		if err != nil {
			return results, err
		}
		res.Reason = reason
		results = append(results, res)
	}

	return results, nil
}

type runner struct {
	root   string
	graph  *Graph
	params Params
	state  *StateDB
	lock   Lock
	opt    *reproOption
}

// depHashes hashes each dep of a stage, keyed by the path as declared.
func (r *runner) depHashes(ctx context.Context, name string, st Stage) (map[string]string, error) {
	hashes := map[string]string{}
	for _, dep := range st.Deps {
		hash, err := r.state.FileHash(ctx, filepath.Join(r.root, dep))
		if errors.Is(err, fs.ErrNotExist) {
			if producer, ok := r.graph.Producer(dep); ok {
				return nil, fmt.Errorf(
					"dep %s of stage %s is missing though stage %s declares it as out",
					dep, name, producer,
				)
			}
			return nil, fmt.Errorf(
				"dep %s of stage %s is neither a file nor an out of another stage",
				dep, name,
			)
		}
		if err != nil {
			return nil, err
		}
		hashes[dep] = hash
	}
	return hashes, nil
}

// staleReason tells why a stage needs executing. Empty means up to date.
func (r *runner) staleReason(ctx context.Context, name string, fp string, st Stage) (string, error) {
	entry, inLock := r.lock[name]
	if !inLock {
		return "not in lock", nil
	}
	if entry.Fingerprint != fp {
		return "inputs changed", nil
	}

	last, inState, err := r.state.LastFingerprint(ctx, name)
	if err != nil {
		return "", err
	}
	if !inState {
		return "not in state db", nil
	}
	if last != fp {
		return "inputs changed", nil
	}

	for _, out := range st.Outs {
		if _, err := os.Stat(filepath.Join(r.root, out)); errors.Is(err, fs.ErrNotExist) {
			return fmt.Sprintf("out %s is missing", out), nil
		} else if err != nil {
			return "", err
		}
	}
	return "", nil
}

// plan is the dry run counterpart of execute.
//
// When an upstream stage would run, its outs are not trustworthy, so the
// stage is reported stale without fingerprinting.
func (r *runner) plan(ctx context.Context, name string, st Stage, paramVals map[string]string, stale map[string]bool) (Result, error) {
	if r.opt.force {
		stale[name] = true
		return Result{Stage: name, Action: ActionWouldRun, Reason: "forced"}, nil
	}
	for _, up := range r.graph.Upstream(name) {
		if stale[up] {
			stale[name] = true
			return Result{
				Stage:  name,
				Action: ActionWouldRun,
				Reason: fmt.Sprintf("stage %s would run first", up),
			}, nil
		}
	}

	depHashes, err := r.depHashes(ctx, name, st)
	if err != nil {
		return Result{}, err
	}
	fp := Fingerprint(st, depHashes, paramVals)
	reason, err := r.staleReason(ctx, name, fp, st)
	if err != nil {
		return Result{}, err
	}
	if reason == "" {
		return Result{Stage: name, Action: ActionCached}, nil
	}
	stale[name] = true
	return Result{Stage: name, Action: ActionWouldRun, Reason: reason}, nil
}

func (r *runner) execute(ctx context.Context, name string, st Stage, paramVals map[string]string, fp string) (Result, error) {
	r.opt.logger.Printf("stage %s: running: %s", name, strings.TrimSpace(st.Cmd))

	runId := ""
	if r.opt.tracker != nil {
		var err error
		if runId, err = r.opt.tracker.StartRun(ctx, name, paramVals); err != nil {
			return Result{}, fmt.Errorf("track stage %s: %w", name, err)
		}
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", st.Cmd)
	cmd.Dir = r.root
	cmd.Stdout = r.opt.stdout
	cmd.Stderr = r.opt.stderr
	cmd.Env = os.Environ()
	if err := cmd.Run(); err != nil {
		r.reportFailure(ctx, runId)
		return Result{}, fmt.Errorf("stage %s: %w", name, err)
	}

	outDigests := map[string]string{}
	for _, out := range st.Outs {
		hash, err := r.state.FileHash(ctx, filepath.Join(r.root, out))
		if errors.Is(err, fs.ErrNotExist) {
			r.reportFailure(ctx, runId)
			return Result{}, fmt.Errorf("stage %s did not write out %s", name, out)
		}
		if err != nil {
			return Result{}, err
		}
		outDigests[out] = "sha256:" + hash
	}

	metrics, err := r.readMetrics(st.Metrics)
	if err != nil {
		r.reportFailure(ctx, runId)
		return Result{}, fmt.Errorf("stage %s: %w", name, err)
	}

	if r.opt.tracker != nil {
		outs := utils.KeysOf(outDigests)
		sort.Strings(outs)
		for _, out := range outs {
			if err := r.opt.tracker.PushArtifact(ctx, runId, filepath.Join(r.root, out)); err != nil {
				return Result{}, fmt.Errorf("track stage %s: %w", name, err)
			}
		}
		if err := r.opt.tracker.FinishRun(ctx, runId, true, metrics); err != nil {
			return Result{}, fmt.Errorf("track stage %s: %w", name, err)
		}
	}

	if err := r.state.RecordStageRun(ctx, name, fp); err != nil {
		return Result{}, err
	}
	r.lock[name] = LockEntry{Fingerprint: fp, Outs: outDigests}
	if err := r.lock.Save(filepath.Join(r.root, LockFile)); err != nil {
		return Result{}, err
	}

	return Result{Stage: name, Action: ActionRun, RunId: runId}, nil
}

// reportFailure settles the tracking run as failed.
//
// It keeps working after ctx is cancelled, so that interrupted stages
// are not left running on the server.
func (r *runner) reportFailure(ctx context.Context, runId string) {
	if r.opt.tracker == nil || runId == "" {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if err := r.opt.tracker.FinishRun(ctx, runId, false, nil); err != nil {
		r.opt.logger.Printf("failed to report run %s as failed: %s", runId, err)
	}
}

func (r *runner) readMetrics(files []string) (map[string]float64, error) {
	metrics := map[string]float64{}
	for _, file := range files {
		content, err := os.ReadFile(filepath.Join(r.root, file))
		if err != nil {
			return nil, fmt.Errorf("metrics file %s: %w", file, err)
		}
		point := map[string]float64{}
		if err := json.Unmarshal(content, &point); err != nil {
			return nil, fmt.Errorf("metrics file %s should be a flat JSON object of numbers: %w", file, err)
		}
		for key, value := range point {
			metrics[key] = value
		}
	}
	return metrics, nil
}
