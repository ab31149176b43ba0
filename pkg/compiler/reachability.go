package compiler

import "sort"

// Report summarises how a runtime view can be walked from its start node.
type Report struct {
	// MissingStart is set when no entry is flagged as start.
	MissingStart bool `json:"missing_start"`
	// Unreachable lists entries that no path from the start node visits.
	Unreachable []int `json:"unreachable"`
	// DeadEnds lists reachable entries without any next node; playback ends there.
	DeadEnds []int `json:"dead_ends"`
}

// OK reports whether every entry can be reached from a start node.
func (r Report) OK() bool {
	return !r.MissingStart && len(r.Unreachable) == 0
}

// Reachability crawls the view breadth-first from the start node.
func Reachability(v *View) Report {
	var rep Report
	if !v.HasStart() {
		rep.MissingStart = true
		for _, e := range v.Entries {
			rep.Unreachable = append(rep.Unreachable, e.NodeID)
		}
		return rep
	}

	visited := make(map[int]bool, v.Len())
	queue := []int{v.StartNodeID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true

		e, ok := v.Entry(id)
		if !ok {
			continue
		}
		if len(e.NextNodeIDs) == 0 {
			rep.DeadEnds = append(rep.DeadEnds, id)
		}
		for _, next := range e.NextNodeIDs {
			if !visited[next] {
				queue = append(queue, next)
			}
		}
	}

	for _, e := range v.Entries {
		if !visited[e.NodeID] {
			rep.Unreachable = append(rep.Unreachable, e.NodeID)
		}
	}
	sort.Ints(rep.DeadEnds)
	return rep
}
