package graph

import (
	"github.com/vanderheijden86/chainkeeper/pkg/skill"
)

// TopologicalSort implements spec.md §4.1's Kahn's-algorithm requirement:
// the ready queue is always kept sorted by skill.Compare, re-sorted after
// each insertion. Returns nil iff the graph has a cycle.
func (gr *Graph) TopologicalSort() []*skill.Skill {
	inDegree := make(map[string]int, len(gr.skills))
	for _, s := range gr.skills {
		inDegree[s.Name] = len(gr.Dependencies(s.Name))
	}

	var ready []*skill.Skill
	for _, s := range gr.skills {
		if inDegree[s.Name] == 0 {
			ready = append(ready, s)
		}
	}
	skill.SortSkills(ready)

	var order []*skill.Skill
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)

		for _, dep := range gr.Dependents(n.Name) {
			inDegree[dep.Name]--
			if inDegree[dep.Name] == 0 {
				ready = append(ready, dep)
				skill.SortSkills(ready)
			}
		}
	}

	if len(order) != len(gr.skills) {
		return nil // cycle: some nodes never reached in-degree 0
	}
	return order
}

// DetectCycle runs a deterministic DFS (start nodes in input order,
// successors in name order) with
// a recursion stack. On finding a back-edge it emits the cycle from the
// revisited node through the current stack top, matching spec.md §4.1's
// "emit the cycle from the revisit point through the stack top".
func (gr *Graph) DetectCycle() (hasCycle bool, cycle []string) {
	names := make([]string, len(gr.skills))
	for i, s := range gr.skills {
		names[i] = s.Name
	}
	// Deterministic starting order: input order is already the catalog's
	// declared order, which is what the resolver and topo sort use
	// elsewhere; DFS start order only affects which cycle is reported when
	// several exist, not whether one is found.

	const (
		unvisited = 0
		onStack   = 1
		done      = 2
	)
	state := make(map[string]int, len(names))
	stack := make([]string, 0, len(names))

	var dfs func(name string) []string
	dfs = func(name string) []string {
		state[name] = onStack
		stack = append(stack, name)

		for _, dep := range gr.Dependents(name) {
			switch state[dep.Name] {
			case unvisited:
				if found := dfs(dep.Name); found != nil {
					return found
				}
			case onStack:
				// Back-edge: emit from the revisit point through the stack top.
				start := 0
				for i, s := range stack {
					if s == dep.Name {
						start = i
						break
					}
				}
				path := append([]string{}, stack[start:]...)
				path = append(path, dep.Name)
				return path
			}
		}

		stack = stack[:len(stack)-1]
		state[name] = done
		return nil
	}

	for _, name := range names {
		if state[name] == unvisited {
			if found := dfs(name); found != nil {
				return true, found
			}
		}
	}
	return false, nil
}

// Subgraph returns the transitive closure of providers needed to satisfy
// capabilities, walked via BFS on requires (spec.md §4.1).
func (gr *Graph) Subgraph(capabilities []string) *Graph {
	included := make(map[string]bool)
	var queue []*skill.Skill

	for _, cap := range capabilities {
		for _, p := range gr.Providers(cap) {
			if !included[p.Name] {
				included[p.Name] = true
				queue = append(queue, p)
			}
		}
	}

	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, req := range s.Requires {
			for _, p := range gr.Providers(req) {
				if !included[p.Name] {
					included[p.Name] = true
					queue = append(queue, p)
				}
			}
		}
	}

	var subset []*skill.Skill
	for _, s := range gr.skills {
		if included[s.Name] {
			subset = append(subset, s)
		}
	}
	return New(subset)
}
