// Package mermaidexport renders a resolved chain as a Mermaid flowchart,
// for the `chainctl mermaid` command (spec.md §6).
//
// Grounded closely on pkg/export.GenerateMermaidGraph from the teacher:
// deterministic sort before emission, collision-free sanitized node IDs,
// classDef-based styling, dashed vs. bold edges for different
// relationship kinds.
package mermaidexport

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"unicode"

	"github.com/vanderheijden86/chainkeeper/pkg/resolver"
	"github.com/vanderheijden86/chainkeeper/pkg/skill"
)

// Config tunes the rendered graph.
type Config struct {
	// ShowCapabilities adds a dashed capability node between each pair of
	// consecutive chain entries, labelled with the capabilities the first
	// provides and the second requires (empty when they share none),
	// rather than drawing skill-to-skill edges directly.
	ShowCapabilities bool
}

// Generate renders result's chain (in chain order) as a Mermaid flowchart.
// skillsByName supplies each chain entry's Provides/Requires/Tier for
// styling; entries missing from the catalog are rendered bare.
func Generate(result *resolver.Result, skillsByName map[string]*skill.Skill, cfg Config) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString("    classDef hard fill:#FF5555,stroke:#333,color:#000\n")
	sb.WriteString("    classDef soft fill:#F1FA8C,stroke:#333,color:#000\n")
	sb.WriteString("    classDef none fill:#50FA7B,stroke:#333,color:#000\n")
	sb.WriteString("\n")

	chain := append([]string{}, result.Chain...)
	sort.Strings(chain) // node declarations are order-independent; keep deterministic

	safeIDMap := make(map[string]string)
	usedSafe := make(map[string]bool)
	getSafeID := func(orig string) string {
		if safe, ok := safeIDMap[orig]; ok {
			return safe
		}
		base := sanitizeMermaidID(orig)
		if base == "" {
			base = "node"
		}
		safe := base
		if usedSafe[safe] {
			h := fnv.New32a()
			_, _ = h.Write([]byte(orig))
			safe = fmt.Sprintf("%s_%x", base, h.Sum32())
		}
		usedSafe[safe] = true
		safeIDMap[orig] = safe
		return safe
	}
	for _, name := range chain {
		getSafeID(name)
	}

	for _, name := range chain {
		safeID := getSafeID(name)
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", safeID, sanitizeMermaidText(name)))
		tier := skill.TierHard
		if sk := skillsByName[name]; sk != nil {
			tier = sk.Tier
		}
		sb.WriteString(fmt.Sprintf("    class %s %s\n", safeID, string(tier)))
	}

	sb.WriteString("\n")

	// Edges follow the original (resolution-order) chain, not the
	// re-sorted node declarations above, so the diagram reads top to
	// bottom in execution order.
	for i := 0; i+1 < len(result.Chain); i++ {
		from := getSafeID(result.Chain[i])
		to := getSafeID(result.Chain[i+1])
		if cfg.ShowCapabilities {
			capNode := fmt.Sprintf("cap_%x", fnvHash(result.Chain[i]+"->"+result.Chain[i+1]))
			capLabel := strings.Join(intersect(provides(skillsByName, result.Chain[i]), requires(skillsByName, result.Chain[i+1])), ", ")
			sb.WriteString(fmt.Sprintf("    %s(\"%s\")\n", capNode, sanitizeMermaidText(capLabel)))
			sb.WriteString(fmt.Sprintf("    %s -.-> %s\n", from, capNode))
			sb.WriteString(fmt.Sprintf("    %s -.-> %s\n", capNode, to))
			continue
		}
		sb.WriteString(fmt.Sprintf("    %s ==> %s\n", from, to))
	}

	return sb.String()
}

func provides(byName map[string]*skill.Skill, name string) []string {
	if s := byName[name]; s != nil {
		return s.Provides
	}
	return nil
}

func requires(byName map[string]*skill.Skill, name string) []string {
	if s := byName[name]; s != nil {
		return s.Requires
	}
	return nil
}

func intersect(a, b []string) []string {
	set := make(map[string]bool, len(a))
	for _, x := range a {
		set[x] = true
	}
	var out []string
	for _, y := range b {
		if set[y] {
			out = append(out, y)
		}
	}
	return out
}

func fnvHash(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

// sanitizeMermaidID strips everything but letters, digits, - and _, so the
// result is always a safe Mermaid node identifier.
func sanitizeMermaidID(id string) string {
	var sb strings.Builder
	for _, r := range id {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			sb.WriteRune(r)
		}
	}
	result := sb.String()
	if result == "" {
		return "node"
	}
	return result
}

// sanitizeMermaidText escapes characters that break Mermaid node label
// syntax.
func sanitizeMermaidText(text string) string {
	replacer := strings.NewReplacer(
		"\"", "'",
		"[", "(",
		"]", ")",
		"{", "(",
		"}", ")",
		"<", "&lt;",
		">", "&gt;",
		"|", "/",
		"`", "'",
		"\n", " ",
		"\r", "",
	)
	result := replacer.Replace(text)
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, result)
}
