// Package graph implements the capability-dependency graph (spec.md §4.1,
// C1): skill nodes, requires/provides edges, deterministic topological
// sort, cycle detection, and subgraph extraction.
//
// Construction follows the teacher's arena+index pattern from
// pkg/analysis/graph.go's NewAnalyzer: skills live in one canonical slice,
// and the graph itself only ever holds gonum node IDs plus name<->ID maps,
// to avoid object-identity traps across goroutines or reloads.
package graph

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"

	"github.com/vanderheijden86/chainkeeper/pkg/skill"
)

// Graph is the capability-dependency graph over a fixed set of skills.
// An edge A -> B exists when skill A provides a capability skill B requires.
// There is one edge per ordered pair of skills, however many capabilities
// link them, and edges do not record which capability that is.
type Graph struct {
	skills    []*skill.Skill
	byName    map[string]*skill.Skill
	g         *simple.DirectedGraph
	idOf      map[string]int64
	nameOf    map[int64]string
	providers map[string][]*skill.Skill // capability -> providing skills, insertion order
}

// New builds a Graph from skills. The edge relation is A -> B whenever
// A.Provides ∩ B.Requires ≠ ∅ and A != B.
func New(skills []*skill.Skill) *Graph {
	g := &Graph{
		skills:    skills,
		byName:    make(map[string]*skill.Skill, len(skills)),
		g:         simple.NewDirectedGraph(),
		idOf:      make(map[string]int64, len(skills)),
		nameOf:    make(map[int64]string, len(skills)),
		providers: make(map[string][]*skill.Skill),
	}

	for _, s := range skills {
		g.byName[s.Name] = s
		n := g.g.NewNode()
		g.g.AddNode(n)
		g.idOf[s.Name] = n.ID()
		g.nameOf[n.ID()] = s.Name
		for _, cap := range s.Provides {
			g.providers[cap] = append(g.providers[cap], s)
		}
	}

	for _, b := range skills {
		required := make(map[string]bool, len(b.Requires))
		for _, r := range b.Requires {
			required[r] = true
		}
		if len(required) == 0 {
			continue
		}
		seen := make(map[string]bool)
		for _, a := range skills {
			if a.Name == b.Name || seen[a.Name] {
				continue
			}
			for _, cap := range a.Provides {
				if required[cap] {
					u, v := g.idOf[a.Name], g.idOf[b.Name]
					g.g.SetEdge(simple.Edge{F: simple.Node(u), T: simple.Node(v)})
					seen[a.Name] = true
					break
				}
			}
		}
	}

	return g
}

// Skills returns the graph's skills in input order.
func (gr *Graph) Skills() []*skill.Skill {
	return gr.skills
}

// Providers returns the skills that provide capability, in the order they
// appeared in the input skill list (spec.md §4.1).
func (gr *Graph) Providers(capability string) []*skill.Skill {
	return gr.providers[capability]
}

// Dependents returns the direct successors of a skill: skills that require
// a capability this skill provides.
func (gr *Graph) Dependents(name string) []*skill.Skill {
	id, ok := gr.idOf[name]
	if !ok {
		return nil
	}
	var out []*skill.Skill
	to := gr.g.From(id)
	for to.Next() {
		out = append(out, gr.byName[gr.nameOf[to.Node().ID()]])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Dependencies returns the direct predecessors of a skill: skills that
// provide a capability this skill requires.
func (gr *Graph) Dependencies(name string) []*skill.Skill {
	id, ok := gr.idOf[name]
	if !ok {
		return nil
	}
	var out []*skill.Skill
	from := gr.g.To(id)
	for from.Next() {
		out = append(out, gr.byName[gr.nameOf[from.Node().ID()]])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
