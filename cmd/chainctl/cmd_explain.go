package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/vanderheijden86/chainkeeper/pkg/resolver"
)

// cmdExplain implements `chainctl explain <profile>`: resolves the
// profile and renders the per-skill rationale as glamour-rendered
// markdown, the same terminal-markdown pattern as the teacher's
// pkg/ui/board.go detail pane.
func cmdExplain(args []string) int {
	fs := flag.NewFlagSet("explain", flag.ContinueOnError)
	cf := registerCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return fatalf("explain: %v", err)
	}

	profileName := fs.Arg(0)
	if profileName == "" {
		return fatalf("explain: a profile name is required")
	}

	cat, err := cf.loadCatalog()
	if err != nil {
		return fatalf("explain: %v", err)
	}
	p := cat.FindProfile(profileName)
	if p == nil {
		return fatalf("explain: profile %q not found", profileName)
	}

	result, err := resolver.Resolve(p, cat.Skills, resolver.DefaultOptions())
	if err != nil {
		return fatalf("explain: %v", err)
	}

	if cf.jsonOutput {
		return printJSON(result)
	}

	md := renderExplanationMarkdown(profileName, result)
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	var out string
	if err == nil {
		out, err = renderer.Render(md)
	}
	if err != nil {
		// fall back to plain markdown if the renderer can't load a style
		fmt.Println(md)
		return 0
	}
	fmt.Print(out)
	return 0
}

func renderExplanationMarkdown(profileName string, result *resolver.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Resolution for `%s`\n\n", profileName)
	for i, ex := range result.Explanations {
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, ex.Skill)
		fmt.Fprintf(&b, "%s\n\n", ex.Reason)
		if len(ex.Requires) > 0 {
			fmt.Fprintf(&b, "- **requires:** %s\n", strings.Join(ex.Requires, ", "))
		}
		if len(ex.Provides) > 0 {
			fmt.Fprintf(&b, "- **provides:** %s\n", strings.Join(ex.Provides, ", "))
		}
		b.WriteString("\n")
	}
	if len(result.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range result.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}
