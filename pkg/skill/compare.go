package skill

import "sort"

// Compare implements the resolver's strict total order over skills
// (spec.md §4.1 compareSkills): risk, then cost, then name, ascending.
func Compare(a, b *Skill) int {
	if d := a.Risk.Order() - b.Risk.Order(); d != 0 {
		return d
	}
	if d := a.Cost.Order() - b.Cost.Order(); d != 0 {
		return d
	}
	switch {
	case a.Name < b.Name:
		return -1
	case a.Name > b.Name:
		return 1
	default:
		return 0
	}
}

// Less reports whether a sorts strictly before b under Compare.
func Less(a, b *Skill) bool {
	return Compare(a, b) < 0
}

// SortSkills sorts skills in place under Compare. The sort is stable so
// that equal-(risk,cost,name) entries — which cannot occur given Compare's
// strict total order unless names collide — retain input order.
func SortSkills(skills []*Skill) {
	sort.SliceStable(skills, func(i, j int) bool {
		return Less(skills[i], skills[j])
	})
}
