// Command chainctl is the CLI surface for the workflow-enforcement engine
// (spec.md §6): activate, status, resolve, explain, mermaid, satisfy, and
// check.
//
// Subcommand dispatch follows cmd/bw/main.go's flag-based convention
// (flag.Bool/flag.String declarations, --help/--version handling,
// os.Exit discipline) generalized from a single-command tool to a
// subcommand router: the first positional argument selects the
// subcommand, and each subcommand owns its own flag.FlagSet.
package main

import (
	"fmt"
	"os"

	"github.com/vanderheijden86/chainkeeper/pkg/version"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 1
	}

	switch args[0] {
	case "-h", "--help", "help":
		printUsage()
		return 0
	case "-v", "--version", "version":
		fmt.Printf("chainctl %s\n", version.Version)
		return 0
	case "activate":
		return cmdActivate(args[1:])
	case "status":
		return cmdStatus(args[1:])
	case "resolve":
		return cmdResolve(args[1:])
	case "explain":
		return cmdExplain(args[1:])
	case "mermaid":
		return cmdMermaid(args[1:])
	case "satisfy":
		return cmdSatisfy(args[1:])
	case "check":
		return cmdCheck(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "chainctl: unknown command %q\n\n", args[0])
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Println(`Usage: chainctl <command> [flags]

Commands:
  activate <profile>        Resolve and activate a profile as the current session
  status                    Show the current session's chain progress
  resolve <profile>         Resolve a profile to a chain without activating it
  explain <profile>         Render the resolution explanation as markdown
  mermaid <profile>         Render the resolved chain as a Mermaid flowchart
  satisfy <capability>      Record evidence satisfying a capability
  check                     Arbitrate a single tool invocation (for hook wiring)
  version                   Print the chainctl version
  help                      Show this message

Global flags (most subcommands):
  --skills <path>     skills.yaml path (default ".claude/skills.yaml")
  --profiles <path>   profiles.yaml path (default ".claude/profiles.yaml")
  --state <dir>       session state directory (default ".claude/chain_state")
  --json              emit machine-readable JSON instead of text`)
}
