package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vanderheijden86/chainkeeper/pkg/catalog"
	"github.com/vanderheijden86/chainkeeper/pkg/gate"
	"github.com/vanderheijden86/chainkeeper/pkg/session"
	"github.com/vanderheijden86/chainkeeper/pkg/sessionindex"
	"github.com/vanderheijden86/chainkeeper/pkg/telemetry"
)

// defaultSkillsPath, defaultProfilesPath, and defaultStateDir mirror
// spec.md §3's workspace-rooted layout: everything lives under the
// current directory's .claude/, the way the teacher roots its own
// project-local state under .bv/.
const (
	defaultSkillsPath   = ".claude/skills.yaml"
	defaultProfilesPath = ".claude/profiles.yaml"
	defaultStateDir     = ".claude/chain_state"
	defaultTelemetryLog = ".chain-usage.jsonl"
)

// commonFlags bundles the catalog/state-path flags every subcommand
// accepts, so each command's FlagSet declares them identically.
type commonFlags struct {
	skillsPath   string
	profilesPath string
	stateDir     string
	jsonOutput   bool
}

func registerCommonFlags(fs *flag.FlagSet) *commonFlags {
	cf := &commonFlags{}
	fs.StringVar(&cf.skillsPath, "skills", defaultSkillsPath, "skills.yaml path")
	fs.StringVar(&cf.profilesPath, "profiles", defaultProfilesPath, "profiles.yaml path")
	fs.StringVar(&cf.stateDir, "state", defaultStateDir, "session state directory")
	fs.BoolVar(&cf.jsonOutput, "json", false, "emit machine-readable JSON")
	return cf
}

// loadCatalog loads and validates both catalog files, surfacing a
// ConfigInvalid fault (spec.md §7) as a plain error the caller prints and
// exits 1 on.
func (cf *commonFlags) loadCatalog() (*catalog.Catalog, error) {
	cat, err := catalog.Load(cf.skillsPath, cf.profilesPath)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	return cat, nil
}

// sessionIndexPath is the session-listing cache database under the state
// directory (pkg/sessionindex).
func (cf *commonFlags) sessionIndexPath() string {
	return filepath.Join(cf.stateDir, "index.db")
}

// newGate wires a Store+Catalog into a Gate, the same composition root
// every subcommand needs. It also attaches a session index and a resolve
// cache to the Gate; the returned func closes the index handle and must
// be deferred by the caller.
func (cf *commonFlags) newGate() (*gate.Gate, *catalog.Catalog, func(), error) {
	cat, err := cf.loadCatalog()
	if err != nil {
		return nil, nil, func() {}, err
	}
	store := session.New(cf.stateDir)
	g := gate.New(store, cat, nil)
	g.ResolveCache = catalog.NewResolveCache()

	closer := func() {}
	if err := os.MkdirAll(cf.stateDir, 0o755); err == nil {
		if idx, err := sessionindex.Open(cf.sessionIndexPath()); err == nil {
			g.Index = idx
			closer = func() { idx.Close() }
		}
	}
	return g, cat, closer, nil
}

// telemetrySink opens the interop JSONL sink at the spec's documented path.
func telemetrySink() *telemetry.Sink {
	return telemetry.NewSink(defaultTelemetryLog)
}

func recordTelemetry(kind telemetry.EventKind, sessionID string, detail map[string]any) {
	_ = telemetrySink().Record(telemetry.Event{
		Type:      kind,
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
		Detail:    detail,
	})
}

func fatalf(format string, args ...any) int {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	return 1
}

// ensureParent creates the parent directory of path if missing, used
// before writing any workspace-rooted file.
func ensureParent(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
