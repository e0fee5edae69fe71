// Package chaintest provides deterministic fixture generators for skill
// catalogs of various dependency topologies, for use in unit and
// property-based tests of pkg/graph, pkg/resolver, and pkg/session.
//
// Grounded on pkg/testutil.Generator's graph-topology generators (Chain,
// Star, Diamond, Cycle, Tree, RandomDAG), retargeted from model.Issue
// dependency graphs to skill.Skill provides/requires graphs: a fixture
// edge [i, j] here means "node i requires a capability that node j
// provides", which is the same dependency direction the teacher's
// generator encodes for issues.
package chaintest

import (
	"fmt"
	"math/rand"

	"github.com/vanderheijden86/chainkeeper/pkg/profile"
	"github.com/vanderheijden86/chainkeeper/pkg/skill"
)

// GraphFixture is an abstract node/edge graph, independent of the domain
// type it will be converted into.
type GraphFixture struct {
	Description string
	Nodes       []string
	Edges       [][2]int // [from_idx, to_idx]: from requires what to provides
	HasCycles   bool
}

// Config controls catalog generation.
type Config struct {
	Seed             int64
	CapabilityPrefix string
	SkillPrefix      string
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() Config {
	return Config{Seed: 42, CapabilityPrefix: "cap", SkillPrefix: "skill"}
}

// Generator builds skill catalogs from GraphFixtures.
type Generator struct {
	cfg Config
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg Config) *Generator {
	seed := cfg.Seed
	if cfg.CapabilityPrefix == "" {
		cfg.CapabilityPrefix = "cap"
	}
	if cfg.SkillPrefix == "" {
		cfg.SkillPrefix = "skill"
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

// NewDefault creates a Generator with DefaultConfig.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// Chain builds a linear dependency chain: node i requires what node i-1
// provides.
func (g *Generator) Chain(size int) GraphFixture {
	nodes := make([]string, size)
	var edges [][2]int
	for i := 0; i < size; i++ {
		nodes[i] = fmt.Sprintf("n%d", i)
		if i > 0 {
			edges = append(edges, [2]int{i, i - 1})
		}
	}
	return GraphFixture{
		Description: fmt.Sprintf("linear chain of %d skills", size),
		Nodes:       nodes,
		Edges:       edges,
	}
}

// Star builds spokes that all require the hub's capability.
func (g *Generator) Star(spokes int) GraphFixture {
	size := spokes + 1
	nodes := make([]string, size)
	edges := make([][2]int, spokes)
	nodes[0] = "hub"
	for i := 1; i < size; i++ {
		nodes[i] = fmt.Sprintf("spoke%d", i)
		edges[i-1] = [2]int{i, 0}
	}
	return GraphFixture{Description: fmt.Sprintf("star with %d spokes depending on hub", spokes), Nodes: nodes, Edges: edges}
}

// Diamond builds top -> (mid1..midN) -> bottom.
func (g *Generator) Diamond(width int) GraphFixture {
	if width < 1 {
		width = 1
	}
	size := width + 2
	nodes := make([]string, size)
	var edges [][2]int
	nodes[0] = "top"
	nodes[size-1] = "bottom"
	for i := 1; i <= width; i++ {
		nodes[i] = fmt.Sprintf("mid%d", i)
		edges = append(edges, [2]int{0, i})
		edges = append(edges, [2]int{i, size - 1})
	}
	return GraphFixture{Description: fmt.Sprintf("diamond with %d middle skills", width), Nodes: nodes, Edges: edges}
}

// Cycle builds a circular requires chain (invalid for a catalog without
// cycle handling; used to exercise DetectCycle).
func (g *Generator) Cycle(size int) GraphFixture {
	nodes := make([]string, size)
	edges := make([][2]int, size)
	for i := 0; i < size; i++ {
		nodes[i] = fmt.Sprintf("n%d", i)
		edges[i] = [2]int{i, (i + 1) % size}
	}
	return GraphFixture{Description: fmt.Sprintf("cycle of %d skills", size), Nodes: nodes, Edges: edges, HasCycles: true}
}

// Tree builds a tree of given depth and branching factor; a child
// requires its parent's capability.
func (g *Generator) Tree(depth, breadth int) GraphFixture {
	if depth < 1 {
		depth = 1
	}
	if breadth < 1 {
		breadth = 1
	}
	var nodes []string
	var edges [][2]int
	nodeID := 0
	nodes = append(nodes, fmt.Sprintf("n%d", nodeID))
	nodeID++
	currentLevel := []int{0}
	for d := 0; d < depth; d++ {
		var nextLevel []int
		for _, parent := range currentLevel {
			for b := 0; b < breadth; b++ {
				child := nodeID
				nodes = append(nodes, fmt.Sprintf("n%d", child))
				edges = append(edges, [2]int{child, parent})
				nextLevel = append(nextLevel, child)
				nodeID++
			}
		}
		currentLevel = nextLevel
	}
	return GraphFixture{Description: fmt.Sprintf("tree depth=%d breadth=%d", depth, breadth), Nodes: nodes, Edges: edges}
}

// RandomDAG builds a random acyclic dependency graph: edges only run from
// a lower index to a higher index's capability, guaranteeing a DAG.
func (g *Generator) RandomDAG(size int, density float64) GraphFixture {
	if density < 0 {
		density = 0
	}
	if density > 1 {
		density = 1
	}
	nodes := make([]string, size)
	var edges [][2]int
	for i := 0; i < size; i++ {
		nodes[i] = fmt.Sprintf("n%d", i)
	}
	for i := 0; i < size; i++ {
		for j := i + 1; j < size; j++ {
			if g.rng.Float64() < density {
				edges = append(edges, [2]int{i, j})
			}
		}
	}
	return GraphFixture{Description: fmt.Sprintf("random DAG, %d skills, density %.2f", size, density), Nodes: nodes, Edges: edges}
}

// ToSkills converts a GraphFixture into a skill catalog: each node
// becomes a skill providing one capability named after it, requiring the
// capabilities of whatever it points to.
func (g *Generator) ToSkills(gf GraphFixture) []*skill.Skill {
	capFor := func(node string) string {
		return fmt.Sprintf("%s_%s", g.cfg.CapabilityPrefix, node)
	}
	requires := make(map[int][]string)
	for _, e := range gf.Edges {
		requires[e[0]] = append(requires[e[0]], capFor(gf.Nodes[e[1]]))
	}

	skills := make([]*skill.Skill, len(gf.Nodes))
	for i, node := range gf.Nodes {
		s := &skill.Skill{
			Name:     fmt.Sprintf("%s-%s", g.cfg.SkillPrefix, node),
			Provides: []string{capFor(node)},
			Requires: requires[i],
		}
		s.ApplyDefaults()
		skills[i] = s
	}
	return skills
}

// ProfileRequiring builds a minimal profile requiring the given
// capabilities, in order.
func ProfileRequiring(name string, capabilities []string) *profile.Profile {
	p := &profile.Profile{Name: name, CapabilitiesRequired: capabilities}
	p.ApplyDefaults()
	return p
}

// AllCapabilities returns every capability skills collectively provide,
// in catalog order, useful for building a profile that demands the whole
// fixture.
func AllCapabilities(skills []*skill.Skill) []string {
	var out []string
	for _, s := range skills {
		out = append(out, s.Provides...)
	}
	return out
}

// QuickChain builds a chain-topology skill catalog with default settings.
func QuickChain(size int) []*skill.Skill {
	g := NewDefault()
	return g.ToSkills(g.Chain(size))
}

// QuickDiamond builds a diamond-topology skill catalog with default
// settings.
func QuickDiamond(width int) []*skill.Skill {
	g := NewDefault()
	return g.ToSkills(g.Diamond(width))
}

// QuickCycle builds a cyclic skill catalog with default settings.
func QuickCycle(size int) []*skill.Skill {
	g := NewDefault()
	return g.ToSkills(g.Cycle(size))
}

// QuickRandomDAG builds a random acyclic skill catalog with default
// settings.
func QuickRandomDAG(size int, density float64) []*skill.Skill {
	g := NewDefault()
	return g.ToSkills(g.RandomDAG(size, density))
}
