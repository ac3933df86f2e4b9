package graph

import (
	"fmt"
	"math"

	"github.com/joshharrison/pertloom/internal/input"
)

// Normalize converts raw records into a Network keyed by id, computing the
// expected time and variance for the given mode. Successors are left empty
// until Build runs.
func Normalize(raw []input.RawActivity, mode Mode) (*Network, error) {
	n := &Network{
		Mode:       mode,
		Activities: make(map[string]*Activity, len(raw)),
		Order:      make([]string, 0, len(raw)),
	}

	for i := range raw {
		ra := &raw[i]
		if ra.ID == "" {
			return nil, fmt.Errorf("%w: activity at position %d has no id", ErrInvalidActivity, i)
		}
		if _, exists := n.Activities[ra.ID]; exists {
			return nil, &DuplicateActivityIDError{ID: ra.ID}
		}

		a := &Activity{
			ID:           ra.ID,
			Description:  ra.Description,
			Predecessors: uniqueIDs(ra.Predecessors),
			Successors:   []string{},
		}

		switch mode {
		case ModePERT:
			o, m, p := ra.Optimistic, ra.MostLikely, ra.Pessimistic
			a.Optimistic, a.MostLikely, a.Pessimistic = o, m, p
			a.ExpectedTime = (o + 4*m + p) / 6
			a.Variance = math.Pow((p-o)/6, 2)
		default:
			if ra.Duration < 0 {
				return nil, fmt.Errorf("%w: activity '%s' has negative duration %g", ErrInvalidActivity, ra.ID, ra.Duration)
			}
			a.Duration = ra.Duration
			a.ExpectedTime = ra.Duration
		}

		n.Activities[a.ID] = a
		n.Order = append(n.Order, a.ID)
	}

	return n, nil
}

// uniqueIDs copies ids, dropping repeats but keeping declared order.
func uniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
