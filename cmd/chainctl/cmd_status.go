package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/chainkeeper/pkg/session"
	"github.com/vanderheijden86/chainkeeper/pkg/sessionindex"
)

var (
	statusDoneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	statusCurrentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	statusPendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusHeaderStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

// cmdStatus implements `chainctl status`: renders the current session's
// chain progress, styling each step by whether it has been passed,
// is the current skill, or is still pending — the same traffic-light
// styling convention as the teacher's pkg/ui/board.go column rendering.
func cmdStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	cf := registerCommonFlags(fs)
	watch := fs.Bool("watch", false, "open a live-updating view that refreshes as the session advances")
	all := fs.Bool("all", false, "list every known session instead of just the current one")
	if err := fs.Parse(args); err != nil {
		return fatalf("status: %v", err)
	}

	store := session.New(cf.stateDir)

	if *watch {
		return runStatusWatch(cf)
	}

	if *all {
		return cmdStatusAll(cf)
	}

	s, err := store.LoadCurrent()
	if err != nil {
		return fatalf("status: %v", err)
	}
	if s == nil {
		fmt.Println("No active session.")
		return 0
	}

	if cf.jsonOutput {
		return printJSON(s)
	}

	fmt.Print(renderStatusText(s))
	return 0
}

// renderStatusText renders a session's chain progress as styled plain text,
// shared between the one-shot `status` output and the bubbletea watch view.
func renderStatusText(s *session.State) string {
	var b strings.Builder
	fmt.Fprintln(&b, statusHeaderStyle.Render(fmt.Sprintf("Session %s (profile %q)", s.SessionID, s.ProfileID)))
	fmt.Fprintf(&b, "Progress: %d/%d (%d%%)\n\n", len(s.CapabilitiesSatisfied), len(s.CapabilitiesRequired), s.PercentComplete())

	for i, name := range s.Chain {
		switch {
		case i < s.CurrentSkillIndex:
			fmt.Fprintln(&b, statusDoneStyle.Render(fmt.Sprintf("  [x] %s", name)))
		case i == s.CurrentSkillIndex && !s.IsComplete():
			fmt.Fprintln(&b, statusCurrentStyle.Render(fmt.Sprintf("  -> %s", name)))
		default:
			fmt.Fprintln(&b, statusPendingStyle.Render(fmt.Sprintf("  [ ] %s", name)))
		}
	}

	if s.IsComplete() {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, statusDoneStyle.Render("Chain complete."))
	}
	return b.String()
}

// cmdStatusAll implements `chainctl status --all`: lists every session
// known to the session index, most recently activated first, rather than
// walking the state directory (pkg/sessionindex is exactly the read cache
// that makes this answer sub-second on a workspace with many sessions).
func cmdStatusAll(cf *commonFlags) int {
	idx, err := sessionindex.Open(cf.sessionIndexPath())
	if err != nil {
		return fatalf("status --all: %v", err)
	}
	defer idx.Close()

	summaries, err := idx.List()
	if err != nil {
		return fatalf("status --all: %v", err)
	}

	if cf.jsonOutput {
		return printJSON(summaries)
	}

	if len(summaries) == 0 {
		fmt.Println("No sessions recorded.")
		return 0
	}

	for _, s := range summaries {
		style := statusPendingStyle
		mark := "[ ]"
		if s.Complete {
			style = statusDoneStyle
			mark = "[x]"
		}
		fmt.Println(style.Render(fmt.Sprintf("%s %s  profile=%q  %d%%  activated=%s",
			mark, s.SessionID, s.ProfileID, s.PercentDone, s.ActivatedAt.Format("2006-01-02 15:04:05"))))
	}
	return 0
}
