package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/vanderheijden86/chainkeeper/pkg/evidence"
	"github.com/vanderheijden86/chainkeeper/pkg/resolver"
	"github.com/vanderheijden86/chainkeeper/pkg/skill"
)

// SessionIDEnvVar overrides the current-session pointer when set
// (spec.md §4.3/§6: CLAUDE_SESSION_ID).
const SessionIDEnvVar = "CLAUDE_SESSION_ID"

// currentSessionFile is the indirection file holding the active session's
// UUID (spec.md §4.3).
const currentSessionFile = "current_session"

// Store owns the on-disk session directory. It is the sole owner of
// session files (spec.md §3 "Ownership"): no other component in this
// module writes to dir.
type Store struct {
	dir string
}

// New returns a Store rooted at dir (e.g. "<cwd>/.claude/chain_state").
func New(dir string) *Store {
	return &Store{dir: dir}
}

func (st *Store) pathFor(id string) string {
	return filepath.Join(st.dir, id+".json")
}

func (st *Store) currentSessionPath() string {
	return filepath.Join(st.dir, currentSessionFile)
}

// Create persists a brand-new session state and sets it as current.
func (st *Store) Create(s *State) error {
	if err := os.MkdirAll(st.dir, 0o755); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	if err := st.writeAtomic(st.pathFor(s.SessionID), s); err != nil {
		return err
	}
	return st.setCurrent(s.SessionID)
}

// Save overwrites an existing session's persisted state.
func (st *Store) Save(s *State) error {
	if err := os.MkdirAll(st.dir, 0o755); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	return st.writeAtomic(st.pathFor(s.SessionID), s)
}

// writeAtomic implements the same temp-file-then-rename discipline as
// pkg/loader.SaveSprintsToFile in the teacher codebase, so load() never
// observes a partially written file (spec.md §4.3 "Atomicity").
func (st *Store) writeAtomic(path string, s *State) (retErr error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp session file: %w", err)
	}
	tmpName := tmp.Name()
	closed := false
	cleanup := func() {
		if !closed {
			_ = tmp.Close()
			closed = true
		}
		_ = os.Remove(tmpName)
	}

	enc := gojson.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		cleanup()
		return fmt.Errorf("encoding session state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("closing temp session file: %w", err)
	}
	closed = true

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("renaming temp session file: %w", err)
	}
	return nil
}

// Load reads and validates session id. Per spec.md §7 SessionCorrupt: any
// read/parse/validation failure is treated as absent, returning (nil, nil)
// rather than an error.
func (st *Store) Load(id string) (*State, error) {
	data, err := os.ReadFile(st.pathFor(id))
	if err != nil {
		// Absent session: not a caller-visible error (spec.md §7 SessionCorrupt).
		return nil, nil
	}
	var s State
	if err := gojson.Unmarshal(data, &s); err != nil {
		return nil, nil
	}
	if err := validateState(&s); err != nil {
		return nil, nil
	}
	return &s, nil
}

func validateState(s *State) error {
	if s.SessionID == "" {
		return fmt.Errorf("session missing session_id")
	}
	if s.Chain == nil {
		s.Chain = []string{}
	}
	if s.BlockedIntents == nil {
		s.BlockedIntents = map[string]resolver.BlockedIntent{}
	}
	return nil
}

// CurrentSessionID resolves the active session id: CLAUDE_SESSION_ID wins
// over the current_session pointer file when set (spec.md §4.3/§6).
func (st *Store) CurrentSessionID() (string, error) {
	if v := os.Getenv(SessionIDEnvVar); v != "" {
		return v, nil
	}
	data, err := os.ReadFile(st.currentSessionPath())
	if err != nil {
		return "", nil
	}
	return strings.TrimSpace(string(data)), nil
}

// LoadCurrent loads the currently active session, or (nil, nil) if none.
func (st *Store) LoadCurrent() (*State, error) {
	id, err := st.CurrentSessionID()
	if err != nil || id == "" {
		return nil, err
	}
	return st.Load(id)
}

func (st *Store) setCurrent(id string) error {
	if err := os.MkdirAll(st.dir, 0o755); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	return os.WriteFile(st.currentSessionPath(), []byte(id), 0o644)
}

// Clear removes a session's file. Returns false if it did not exist.
func (st *Store) Clear(id string) (bool, error) {
	err := os.Remove(st.pathFor(id))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("clearing session %s: %w", id, err)
	}
	return true, nil
}

// ClearCurrent removes the current-session pointer file. Returns false if
// there was none.
func (st *Store) ClearCurrent() (bool, error) {
	err := os.Remove(st.currentSessionPath())
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("clearing current session pointer: %w", err)
	}
	return true, nil
}

// List returns all known session IDs, sorted for determinism.
func (st *Store) List() ([]string, error) {
	entries, err := os.ReadDir(st.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing session directory: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".json") {
			ids = append(ids, strings.TrimSuffix(name, ".json"))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// SatisfyCapability loads session id, records ev (idempotently), and saves
// it back. Returns false if the session does not exist.
func (st *Store) SatisfyCapability(id string, ev evidence.CapabilityEvidence, skillsByName map[string]*skill.Skill) (bool, error) {
	s, err := st.Load(id)
	if err != nil {
		return false, err
	}
	if s == nil {
		return false, nil
	}
	s.Satisfy(ev, skillsByName)
	if err := st.Save(s); err != nil {
		return false, err
	}
	return true, nil
}

// IsCapabilitySatisfied reports whether session id has recorded capability
// as satisfied.
func (st *Store) IsCapabilitySatisfied(id, capability string) (bool, error) {
	s, err := st.Load(id)
	if err != nil || s == nil {
		return false, err
	}
	return s.IsSatisfied(capability), nil
}

// GetUnsatisfiedCapabilities returns session id's outstanding
// capabilities_required entries, in declared order.
func (st *Store) GetUnsatisfiedCapabilities(id string) ([]string, error) {
	s, err := st.Load(id)
	if err != nil || s == nil {
		return nil, err
	}
	return s.UnsatisfiedCapabilities(), nil
}

// GetCurrentSkill returns session id's current skill and the capability it
// is expected to provide, or (nil, false) if the session is complete or
// absent.
func (st *Store) GetCurrentSkill(id string, skillsByName map[string]*skill.Skill) (*skill.Skill, string, bool, error) {
	s, err := st.Load(id)
	if err != nil || s == nil {
		return nil, "", false, err
	}
	sk, cap, ok := s.CurrentSkill(skillsByName)
	return sk, cap, ok, nil
}
