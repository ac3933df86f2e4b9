package graph

import (
	"fmt"

	"github.com/joshharrison/pertloom/internal/input"
)

// FromRaw normalizes raw records and builds the adjacency in one step.
func FromRaw(raw []input.RawActivity, mode Mode) (*Network, error) {
	n, err := Normalize(raw, mode)
	if err != nil {
		return nil, err
	}
	if err := Build(n); err != nil {
		return nil, err
	}
	return n, nil
}

// Build derives every activity's successors from the declared predecessors
// and records roots and leaves. Successor lists are rebuilt from scratch, so
// calling Build twice yields the same network.
func Build(n *Network) error {
	for _, id := range n.Order {
		n.Activities[id].Successors = []string{}
	}

	for _, id := range n.Order {
		for _, predID := range n.Activities[id].Predecessors {
			pred, ok := n.Activities[predID]
			if !ok {
				return &InvalidReferenceError{ActivityID: id, MissingID: predID}
			}
			pred.Successors = append(pred.Successors, id)
		}
	}

	n.Roots = n.Roots[:0]
	n.Leaves = n.Leaves[:0]
	for _, id := range n.Order {
		a := n.Activities[id]
		if len(a.Predecessors) == 0 {
			n.Roots = append(n.Roots, id)
		}
		if len(a.Successors) == 0 {
			n.Leaves = append(n.Leaves, id)
		}
	}

	return nil
}

// DetectCycle returns the cycle path if one exists, or nil if the network is acyclic.
// Uses DFS with coloring: white (unvisited), gray (in progress), black (done).
// The returned path starts and ends with the same id.
func (n *Network) DetectCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int, len(n.Order))
	parent := make(map[string]string)

	var dfs func(node string) []string
	dfs = func(node string) []string {
		color[node] = gray
		for _, next := range n.Activities[node].Successors {
			if color[next] == gray {
				// Walk parents back from node to next, then reverse
				cycle := []string{next, node}
				cur := node
				for cur != next {
					cur = parent[cur]
					cycle = append(cycle, cur)
				}
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return cycle
			}
			if color[next] == white {
				parent[next] = node
				if cycle := dfs(next); cycle != nil {
					return cycle
				}
			}
		}
		color[node] = black
		return nil
	}

	for _, id := range n.Order {
		if color[id] == white {
			if cycle := dfs(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// Dependencies returns a copy of the id -> predecessor ids relation.
func (n *Network) Dependencies() map[string][]string {
	deps := make(map[string][]string, len(n.Order))
	for _, id := range n.Order {
		preds := n.Activities[id].Predecessors
		deps[id] = append(make([]string, 0, len(preds)), preds...)
	}
	return deps
}

// String is a short description used in log lines.
func (n *Network) String() string {
	edges := 0
	for _, id := range n.Order {
		edges += len(n.Activities[id].Predecessors)
	}
	return fmt.Sprintf("%s network: %d activities, %d edges", n.Mode, n.Len(), edges)
}
