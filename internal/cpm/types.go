package cpm

import (
	"log/slog"

	"github.com/joshharrison/pertloom/internal/graph"
)

// DefaultTolerance absorbs floating-point error from the PERT formulas when
// deciding whether an activity's slack is zero.
const DefaultTolerance = 0.01

// MaxCriticalChains caps the number of traced critical chains.
const MaxCriticalChains = 64

// Options tunes a computation. The zero value is ready to use.
type Options struct {
	Tolerance float64      // slack tolerance; <= 0 means DefaultTolerance
	Logger    *slog.Logger // nil discards engine logs
}

// Result holds the complete network analysis.
type Result struct {
	Mode       graph.Mode                 `json:"mode"`
	Activities map[string]*graph.Activity `json:"activities"`
	Order      []string                   `json:"order"` // activity ids in input order
	Analysis   NetworkAnalysis            `json:"networkAnalysis"`
	Table      *Table                     `json:"table"`
	Tolerance  float64                    `json:"tolerance"` // slack tolerance the analysis ran with
}

// NetworkAnalysis is the project-level summary.
type NetworkAnalysis struct {
	ProjectDuration float64 `json:"projectDuration"`
	// CriticalPath lists critical activities by ascending ES. With several
	// parallel critical paths they interleave; see CriticalChains.
	CriticalPath    []string            `json:"criticalPath"`
	CriticalChains  [][]string          `json:"criticalChains"`
	ChainsTruncated bool                `json:"chainsTruncated"` // more than MaxCriticalChains chains exist
	Dependencies    map[string][]string `json:"dependencies"`
	Levels          map[string]int      `json:"levels"` // longest path from a root, in edges
	TopoOrder       []string            `json:"topoOrder"`

	// PERT only: summed variance along the critical chain with the most variance.
	ProjectVariance float64 `json:"projectVariance"`
	ProjectStdDev   float64 `json:"projectStdDev"`
}

// Activity returns the scheduled activity with the given id, or nil.
func (r *Result) Activity(id string) *graph.Activity {
	return r.Activities[id]
}
