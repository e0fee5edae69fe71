package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vanderheijden86/chainkeeper/pkg/evidence"
	"github.com/vanderheijden86/chainkeeper/pkg/session"
)

// cmdSatisfy implements `chainctl satisfy <capability>`: records evidence
// that a capability has been fulfilled against the current session. By
// default it records manual evidence (the operator's word); --probe runs
// the current skill's declared artifact probes instead and only records
// evidence if one of them succeeds.
func cmdSatisfy(args []string) int {
	fs := flag.NewFlagSet("satisfy", flag.ContinueOnError)
	cf := registerCommonFlags(fs)
	probe := fs.Bool("probe", false, "verify via the current skill's declared artifact probes instead of recording manual evidence")
	by := fs.String("by", "", "who/what is satisfying this capability (default: $USER)")
	if err := fs.Parse(args); err != nil {
		return fatalf("satisfy: %v", err)
	}

	capability := fs.Arg(0)
	if capability == "" {
		return fatalf("satisfy: a capability name is required")
	}

	g, cat, closeGate, err := cf.newGate()
	if err != nil {
		return fatalf("satisfy: %v", err)
	}
	defer closeGate()

	store := session.New(cf.stateDir)
	current, err := store.LoadCurrent()
	if err != nil {
		return fatalf("satisfy: %v", err)
	}
	if current == nil {
		return fatalf("satisfy: no active session")
	}

	satisfiedBy := *by
	if satisfiedBy == "" {
		satisfiedBy = os.Getenv("USER")
	}

	ev := evidence.CapabilityEvidence{
		Capability:   capability,
		SatisfiedAt:  time.Now().UTC(),
		SatisfiedBy:  satisfiedBy,
		EvidenceType: evidence.TypeManual,
	}

	if *probe {
		sk, _, ok := current.CurrentSkill(indexSkills(cat.Skills))
		if !ok {
			return fatalf("satisfy: no current skill to probe")
		}
		if len(sk.Artifacts) == 0 {
			return fatalf("satisfy: skill %q declares no artifacts to probe", sk.Name)
		}
		reg := evidence.NewRegistry(".")
		results, errs := reg.ProbeAll(context.Background(), sk.Artifacts)
		satisfied := false
		for i, r := range results {
			if errs[i] != nil {
				continue
			}
			if r.Satisfied {
				satisfied = true
				ev.EvidenceType = evidence.Type(sk.Artifacts[i].Type)
				ev.EvidencePath = r.Path
				break
			}
		}
		if !satisfied {
			return fatalf("satisfy: no declared artifact for %q is satisfied yet", sk.Name)
		}
	}

	alreadySatisfied := current.IsSatisfied(capability)
	recorded, err := g.SatisfyCapability(current.SessionID, ev)
	if err != nil {
		return fatalf("satisfy: %v", err)
	}
	changed := recorded && !alreadySatisfied

	recordTelemetry("satisfy", current.SessionID, map[string]any{
		"capability": capability,
		"changed":    changed,
	})

	if cf.jsonOutput {
		return printJSON(map[string]any{"capability": capability, "changed": changed})
	}

	if changed {
		fmt.Printf("Recorded evidence for %q\n", capability)
	} else {
		fmt.Printf("%q was already satisfied\n", capability)
	}
	return 0
}
