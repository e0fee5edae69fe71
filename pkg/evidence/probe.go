package evidence

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/chainkeeper/pkg/skill"
)

// Result is what a Prober returns for a single artifact check.
type Result struct {
	Satisfied bool
	Path      string // the file/marker path that satisfied the check, if any
	Detail    string
}

// Prober is the external-collaborator interface spec.md §9 calls for:
// "probes are an external collaborator implementing a simple interface
// probe(spec) -> Result". The core never calls a Prober directly; only
// surrounding glue (e.g. cmd/chainctl satisfy) does, and feeds the result
// into SessionStore.SatisfyCapability as a CapabilityEvidence.
type Prober interface {
	Probe(ctx context.Context, spec skill.ArtifactSpec) (Result, error)
}

// FileExistsProber checks that a spec's "path" key names an existing file.
type FileExistsProber struct{ Root string }

func (p FileExistsProber) Probe(_ context.Context, spec skill.ArtifactSpec) (Result, error) {
	path, _ := spec.Spec["path"].(string)
	if path == "" {
		return Result{}, fmt.Errorf("file_exists artifact missing \"path\"")
	}
	full := path
	if p.Root != "" && !strings.HasPrefix(path, "/") {
		full = p.Root + "/" + path
	}
	if _, err := os.Stat(full); err != nil {
		return Result{Satisfied: false, Path: full, Detail: err.Error()}, nil
	}
	return Result{Satisfied: true, Path: full}, nil
}

// MarkerFoundProber checks that a spec's "path" file contains a "marker" string.
type MarkerFoundProber struct{ Root string }

func (p MarkerFoundProber) Probe(_ context.Context, spec skill.ArtifactSpec) (Result, error) {
	path, _ := spec.Spec["path"].(string)
	marker, _ := spec.Spec["marker"].(string)
	if path == "" || marker == "" {
		return Result{}, fmt.Errorf("marker_found artifact requires \"path\" and \"marker\"")
	}
	full := path
	if p.Root != "" && !strings.HasPrefix(path, "/") {
		full = p.Root + "/" + path
	}
	f, err := os.Open(full)
	if err != nil {
		return Result{Satisfied: false, Path: full, Detail: err.Error()}, nil
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), marker) {
			return Result{Satisfied: true, Path: full}, nil
		}
	}
	return Result{Satisfied: false, Path: full, Detail: "marker not found"}, nil
}

// CommandSuccessProber runs a spec's "command" via the shell and reports
// success as a zero exit code.
type CommandSuccessProber struct{ Dir string }

func (p CommandSuccessProber) Probe(ctx context.Context, spec skill.ArtifactSpec) (Result, error) {
	command, _ := spec.Spec["command"].(string)
	if command == "" {
		return Result{}, fmt.Errorf("command_success artifact missing \"command\"")
	}
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = p.Dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return Result{Satisfied: false, Detail: string(out)}, nil
	}
	return Result{Satisfied: true, Detail: string(out)}, nil
}

// Registry dispatches an ArtifactSpec to the Prober registered for its Type.
type Registry struct {
	probers map[Type]Prober
}

// NewRegistry builds a Registry with the standard file/marker/command probers
// rooted at root (used for relative paths) and dir (used as the command
// working directory).
func NewRegistry(root string) *Registry {
	return &Registry{
		probers: map[Type]Prober{
			TypeFileExists:     FileExistsProber{Root: root},
			TypeMarkerFound:    MarkerFoundProber{Root: root},
			TypeCommandSuccess: CommandSuccessProber{Dir: root},
		},
	}
}

// Register adds or overrides the Prober for a given evidence type.
func (r *Registry) Register(t Type, p Prober) {
	r.probers[t] = p
}

// Probe dispatches spec to the registered prober for its Type.
func (r *Registry) Probe(ctx context.Context, spec skill.ArtifactSpec) (Result, error) {
	p, ok := r.probers[spec.Type]
	if !ok {
		return Result{}, fmt.Errorf("no prober registered for artifact type %q", spec.Type)
	}
	return p.Probe(ctx, spec)
}

// ProbeAll runs Probe over every spec concurrently, in the same
// errgroup-per-item, isolated-failure style as
// pkg/workspace.AggregateLoader.loadReposParallel: one artifact's error
// does not abort the others.
func (r *Registry) ProbeAll(ctx context.Context, specs []skill.ArtifactSpec) ([]Result, []error) {
	results := make([]Result, len(specs))
	errs := make([]error, len(specs))

	g, ctx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			res, err := r.Probe(ctx, spec)
			results[i] = res
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait()
	return results, errs
}
