package gate

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/vanderheijden86/chainkeeper/pkg/catalog"
	"github.com/vanderheijden86/chainkeeper/pkg/evidence"
	"github.com/vanderheijden86/chainkeeper/pkg/profile"
	"github.com/vanderheijden86/chainkeeper/pkg/sessionindex"
)

func TestActivateAndSatisfyUpsertIntoIndex(t *testing.T) {
	g := newTestGate(t, profile.StrictnessStrict)

	idx, err := sessionindex.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("sessionindex.Open: %v", err)
	}
	defer idx.Close()
	g.Index = idx
	g.Now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	activation, err := g.Activate("req-1", "ship-feature")
	if err != nil || activation.Error != "" {
		t.Fatalf("Activate: %v %+v", err, activation)
	}

	list, err := idx.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].SessionID != activation.SessionID {
		t.Fatalf("expected index to contain the new session, got %+v", list)
	}
	if list[0].Complete {
		t.Fatalf("expected fresh session to be incomplete in the index")
	}

	changed, err := g.SatisfyCapability(activation.SessionID, evidence.CapabilityEvidence{
		Capability:   "tests_passing",
		SatisfiedBy:  "write-tests",
		EvidenceType: evidence.TypeManual,
	})
	if err != nil || !changed {
		t.Fatalf("SatisfyCapability: changed=%v err=%v", changed, err)
	}

	list, err = idx.List()
	if err != nil {
		t.Fatalf("List after satisfy: %v", err)
	}
	if len(list) != 1 || !list[0].Complete {
		t.Fatalf("expected the index row to reflect completion, got %+v", list)
	}
}

func TestActivateUsesResolveCache(t *testing.T) {
	g := newTestGate(t, profile.StrictnessStrict)
	g.ResolveCache = catalog.NewResolveCache()

	if _, err := g.Activate("req-1", "ship-feature"); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if _, err := g.Activate("req-2", "ship-feature"); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if n := g.ResolveCache.Len(); n != 1 {
		t.Fatalf("expected a single memoized resolve entry for one profile, got %d", n)
	}
}
