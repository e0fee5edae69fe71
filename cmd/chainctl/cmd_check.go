package main

import (
	"flag"
	"fmt"

	"github.com/vanderheijden86/chainkeeper/pkg/gate"
	"github.com/vanderheijden86/chainkeeper/pkg/intent"
	"github.com/vanderheijden86/chainkeeper/pkg/telemetry"
)

// cmdCheck implements `chainctl check`: arbitrates a single tool
// invocation against the active session, for wiring into an editor's or
// agent runtime's pre-tool-call hook. Exits 0 when allowed, 2 when
// denied, matching the distinct "blocked" exit code a hook script can
// branch on.
func cmdCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	cf := registerCommonFlags(fs)
	tool := fs.String("tool", "", "tool name being invoked")
	path := fs.String("path", "", "target file path, for file-oriented tools")
	command := fs.String("command", "", "shell command line, for shell-like tools")
	prompt := fs.String("prompt", "", "user-facing request text, consulted for auto-activation")
	noAutoSelect := fs.Bool("no-auto-select", false, "disable auto-activation when no session is active")
	if err := fs.Parse(args); err != nil {
		return fatalf("check: %v", err)
	}
	if *tool == "" {
		return fatalf("check: --tool is required")
	}

	g, _, closeGate, err := cf.newGate()
	if err != nil {
		return fatalf("check: %v", err)
	}
	defer closeGate()

	inv := intent.Invocation{Tool: *tool, Path: *path, Command: *command}
	opts := gate.DefaultCheckOptions()
	opts.Prompt = *prompt
	opts.AutoSelect = !*noAutoSelect

	result, err := g.Check(inv, opts)
	if err != nil {
		return fatalf("check: %v", err)
	}

	recordTelemetry(telemetry.EventDecision, result.SessionID, map[string]any{
		"tool":    *tool,
		"allowed": result.Allowed,
	})

	if cf.jsonOutput {
		printJSON(result)
	} else if result.Message != "" {
		fmt.Println(result.Message)
	}

	if !result.Allowed {
		return 2
	}
	return 0
}
