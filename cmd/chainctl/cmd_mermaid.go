package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/vanderheijden86/chainkeeper/pkg/mermaidexport"
	"github.com/vanderheijden86/chainkeeper/pkg/resolver"
	"github.com/vanderheijden86/chainkeeper/pkg/skill"
)

// cmdMermaid implements `chainctl mermaid <profile>`: resolves the
// profile and renders the chain as a Mermaid flowchart, written to
// --out or stdout.
func cmdMermaid(args []string) int {
	fs := flag.NewFlagSet("mermaid", flag.ContinueOnError)
	cf := registerCommonFlags(fs)
	showCapabilities := fs.Bool("capabilities", false, "insert a dashed capability node between consecutive chain skills")
	outPath := fs.String("out", "", "write the diagram to this path instead of stdout")
	if err := fs.Parse(args); err != nil {
		return fatalf("mermaid: %v", err)
	}

	profileName := fs.Arg(0)
	if profileName == "" {
		return fatalf("mermaid: a profile name is required")
	}

	cat, err := cf.loadCatalog()
	if err != nil {
		return fatalf("mermaid: %v", err)
	}
	p := cat.FindProfile(profileName)
	if p == nil {
		return fatalf("mermaid: profile %q not found", profileName)
	}

	result, err := resolver.Resolve(p, cat.Skills, resolver.DefaultOptions())
	if err != nil {
		return fatalf("mermaid: %v", err)
	}

	diagram := mermaidexport.Generate(result, indexSkills(cat.Skills), mermaidexport.Config{ShowCapabilities: *showCapabilities})

	if *outPath == "" {
		fmt.Print(diagram)
		return 0
	}
	if err := ensureParent(*outPath); err != nil {
		return fatalf("mermaid: %v", err)
	}
	if err := os.WriteFile(*outPath, []byte(diagram), 0o644); err != nil {
		return fatalf("mermaid: %v", err)
	}
	fmt.Printf("wrote %s\n", *outPath)
	return 0
}

// indexSkills builds the name-keyed lookup mermaidexport.Generate and
// session state recomputation both need from the catalog's flat skill list.
func indexSkills(skills []*skill.Skill) map[string]*skill.Skill {
	m := make(map[string]*skill.Skill, len(skills))
	for _, s := range skills {
		m[s.Name] = s
	}
	return m
}
