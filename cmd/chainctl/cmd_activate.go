package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"

	"github.com/vanderheijden86/chainkeeper/pkg/profile"
)

// cmdActivate implements `chainctl activate [<profile>]`. With no profile
// argument, and more than one profile on the catalog, it falls back to an
// interactive huh picker — the same guided-flow shape as the teacher's
// pkg/export/wizard.go deployment wizard.
func cmdActivate(args []string) int {
	fs := flag.NewFlagSet("activate", flag.ContinueOnError)
	cf := registerCommonFlags(fs)
	requestID := fs.String("request-id", "", "idempotency key for this activation (default: a fresh UUID)")
	if err := fs.Parse(args); err != nil {
		return fatalf("activate: %v", err)
	}

	g, cat, closeGate, err := cf.newGate()
	if err != nil {
		return fatalf("activate: %v", err)
	}
	defer closeGate()

	profileName := fs.Arg(0)
	if profileName == "" {
		chosen, err := pickProfile(cat.Profiles)
		if err != nil {
			return fatalf("activate: %v", err)
		}
		profileName = chosen
	}
	if profileName == "" {
		return fatalf("activate: no profile specified and none selected")
	}

	reqID := *requestID
	if reqID == "" {
		reqID = uuid.NewString()
	}

	result, err := g.Activate(reqID, profileName)
	if err != nil {
		return fatalf("activate: %v", err)
	}
	if result.Error != "" {
		return fatalf("activate: %s", result.Error)
	}

	recordTelemetry("activation", result.SessionID, map[string]any{
		"profile":    profileName,
		"is_new":     result.IsNew,
		"idempotent": result.Idempotent,
	})

	if cf.jsonOutput {
		return printJSON(result)
	}

	status := "activated"
	if result.Idempotent {
		status = "replayed (idempotent)"
	}
	fmt.Printf("Session %s %s for profile %q\n", result.SessionID, status, profileName)
	return 0
}

// pickProfile prompts with huh.NewSelect when more than one profile is
// available, and returns the sole profile's name without prompting when
// there is exactly one. An empty catalog returns an error.
func pickProfile(profiles []*profile.Profile) (string, error) {
	switch len(profiles) {
	case 0:
		return "", fmt.Errorf("no profiles in catalog")
	case 1:
		return profiles[0].Name, nil
	}

	options := make([]huh.Option[string], len(profiles))
	for i, p := range profiles {
		label := p.Name
		if p.Description != "" {
			label = fmt.Sprintf("%s — %s", p.Name, p.Description)
		}
		options[i] = huh.NewOption(label, p.Name)
	}

	var selected string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which profile do you want to activate?").
				Options(options...).
				Value(&selected),
		),
	).WithTheme(huh.ThemeDracula())

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("profile picker: %w", err)
	}
	return selected, nil
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fatalf("encoding JSON: %v", err)
	}
	return 0
}
