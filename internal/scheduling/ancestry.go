package scheduling

// Ancestry is a per-job, per-institution map from a group id to the ordered
// list of its ancestor ids, parent first up to the root. It is built once
// per job and discarded on completion (spec.md §5, "shared-resource
// policy") — never kept as a pointer graph, to avoid ownership cycles
// (spec.md §9 design notes).
type Ancestry struct {
	ancestors   map[string][]string
	descendants map[string]map[string]bool
}

// ResolveAncestry walks parent_group_id chains for every group and returns
// the resulting Ancestry. Detects cycles (a group that is its own ancestor)
// and fails with InvalidGraph.
func ResolveAncestry(groups []Group) (*Ancestry, error) {
	byID := make(map[string]Group, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}

	ancestors := make(map[string][]string, len(groups))
	for _, g := range groups {
		chain, err := walkAncestors(g.ID, byID)
		if err != nil {
			return nil, err
		}
		ancestors[g.ID] = chain
	}

	descendants := make(map[string]map[string]bool, len(groups))
	for id, chain := range ancestors {
		for _, a := range chain {
			if descendants[a] == nil {
				descendants[a] = make(map[string]bool)
			}
			descendants[a][id] = true
		}
	}

	return &Ancestry{ancestors: ancestors, descendants: descendants}, nil
}

func walkAncestors(start string, byID map[string]Group) ([]string, error) {
	var chain []string
	seen := map[string]bool{start: true}
	cur := byID[start]
	for cur.ParentGroupID != "" {
		parent := cur.ParentGroupID
		if seen[parent] {
			return nil, invalidGraph("cycle at group " + parent)
		}
		seen[parent] = true
		chain = append(chain, parent)
		next, ok := byID[parent]
		if !ok {
			// A parent reference to a group outside the loaded set is a
			// data-integrity bug the gatherer should have caught; treat it
			// the same as a cycle since it can never resolve.
			return nil, invalidGraph("dangling parent " + parent)
		}
		cur = next
	}
	return chain, nil
}

// Ancestors returns group's ancestor ids, parent first.
func (a *Ancestry) Ancestors(group string) []string {
	return a.ancestors[group]
}

// Conflicts returns the set of group ids that conflict with group: itself,
// every ancestor, and every descendant (spec.md §4.5 "group conflict set").
func (a *Ancestry) Conflicts(group string) []string {
	set := map[string]bool{group: true}
	for _, anc := range a.ancestors[group] {
		set[anc] = true
	}
	for d := range a.descendants[group] {
		set[d] = true
	}
	out := make([]string, 0, len(set))
	for g := range set {
		out = append(out, g)
	}
	return out
}
