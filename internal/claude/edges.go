package claude

import (
	"fmt"
	"strings"

	"github.com/joshharrison/pertloom/internal/graph"
	"github.com/joshharrison/pertloom/internal/input"
)

// Rejection records an inferred edge that was dropped and why.
type Rejection struct {
	Edge   DepEdge
	Reason string
}

// Summaries builds the prompt payload from raw activity records.
func Summaries(raw []input.RawActivity) []ActivitySummary {
	out := make([]ActivitySummary, len(raw))
	for i, ra := range raw {
		out[i] = ActivitySummary{
			ID:           ra.ID,
			Description:  ra.Description,
			Predecessors: ra.Predecessors,
			Duration:     ra.Duration,
		}
	}
	return out
}

// FilterEdges validates inferred edges against the activity set. Edges naming
// unknown ids, self-dependencies and already-declared predecessors are
// dropped. The rest are added greedily in order and any edge that would close
// a cycle is rejected. The returned activities are copies with the accepted
// predecessors appended; raw is not modified.
func FilterEdges(raw []input.RawActivity, edges []DepEdge) ([]input.RawActivity, []DepEdge, []Rejection) {
	work := make([]input.RawActivity, len(raw))
	index := make(map[string]int, len(raw))
	for i, ra := range raw {
		work[i] = ra
		work[i].Predecessors = append([]string{}, ra.Predecessors...)
		index[ra.ID] = i
	}

	var accepted []DepEdge
	var rejected []Rejection
	reject := func(e DepEdge, format string, args ...interface{}) {
		rejected = append(rejected, Rejection{Edge: e, Reason: fmt.Sprintf(format, args...)})
	}

	for _, e := range edges {
		i, ok := index[e.ActivityID]
		if !ok {
			reject(e, "unknown activity_id %s", e.ActivityID)
			continue
		}
		if _, ok := index[e.PredecessorID]; !ok {
			reject(e, "unknown predecessor_id %s", e.PredecessorID)
			continue
		}
		if e.ActivityID == e.PredecessorID {
			reject(e, "self-dependency %s", e.ActivityID)
			continue
		}
		if contains(work[i].Predecessors, e.PredecessorID) {
			reject(e, "already declared")
			continue
		}

		// Tentatively add the edge and drop it again if the network now has a cycle
		work[i].Predecessors = append(work[i].Predecessors, e.PredecessorID)
		n, err := graph.FromRaw(work, graph.ModeCPM)
		if err != nil {
			work[i].Predecessors = work[i].Predecessors[:len(work[i].Predecessors)-1]
			reject(e, "%v", err)
			continue
		}
		if cycle := n.DetectCycle(); cycle != nil {
			work[i].Predecessors = work[i].Predecessors[:len(work[i].Predecessors)-1]
			reject(e, "would create cycle %s", strings.Join(cycle, " -> "))
			continue
		}
		accepted = append(accepted, e)
	}

	return work, accepted, rejected
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
