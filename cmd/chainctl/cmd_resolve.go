package main

import (
	"flag"
	"fmt"

	"github.com/vanderheijden86/chainkeeper/pkg/resolver"
)

// cmdResolve implements `chainctl resolve <profile>`: runs the Resolver
// against the catalog without creating or touching any session state,
// the read-only preview counterpart to activate.
func cmdResolve(args []string) int {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	cf := registerCommonFlags(fs)
	failFast := fs.Bool("fail-fast", true, "abort on the first skill conflict instead of skipping with a warning")
	if err := fs.Parse(args); err != nil {
		return fatalf("resolve: %v", err)
	}

	profileName := fs.Arg(0)
	if profileName == "" {
		return fatalf("resolve: a profile name is required")
	}

	cat, err := cf.loadCatalog()
	if err != nil {
		return fatalf("resolve: %v", err)
	}

	p := cat.FindProfile(profileName)
	if p == nil {
		return fatalf("resolve: profile %q not found", profileName)
	}

	result, err := resolver.Resolve(p, cat.Skills, resolver.Options{FailFast: *failFast})
	if err != nil {
		return fatalf("resolve: %v", err)
	}

	if cf.jsonOutput {
		return printJSON(result)
	}

	fmt.Printf("Chain for %q (%d skills):\n", profileName, len(result.Chain))
	for i, name := range result.Chain {
		fmt.Printf("  %d. %s\n", i+1, name)
	}
	if len(result.Warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range result.Warnings {
			fmt.Printf("  - %s\n", w)
		}
		return 1
	}
	return 0
}
