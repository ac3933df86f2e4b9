package cpm

import (
	"strconv"
	"strings"

	"github.com/joshharrison/pertloom/internal/graph"
)

// Column headers of the tabular projection.
const (
	ColActivity     = "Activity"
	ColPredecessors = "Immediate Predecessors"
	ColOptimistic   = "Optimistic"
	ColMostLikely   = "Most Likely"
	ColPessimistic  = "Pessimistic"
	ColDuration     = "Duration"
	ColExpected     = "Expected Time"
	ColVariance     = "Variance"
	ColES           = "ES"
	ColEF           = "EF"
	ColLS           = "LS"
	ColLF           = "LF"
	ColSlack        = "Slack"
)

// Table is a flat, one-row-per-activity view of a result for display.
type Table struct {
	Mode    graph.Mode `json:"mode"`
	Columns []string   `json:"columns"`
	Rows    []Row      `json:"rows"`
}

// Row holds the values of one activity. Only the duration fields matching
// the table's mode are rendered by Cells.
type Row struct {
	Activity     string   `json:"activity"`
	Predecessors []string `json:"predecessors"`
	Optimistic   float64  `json:"optimistic,omitempty"`
	MostLikely   float64  `json:"mostLikely,omitempty"`
	Pessimistic  float64  `json:"pessimistic,omitempty"`
	Duration     float64  `json:"duration,omitempty"`
	ExpectedTime float64  `json:"expectedTime"`
	Variance     float64  `json:"variance"`
	ES           float64  `json:"es"`
	EF           float64  `json:"ef"`
	LS           float64  `json:"ls"`
	LF           float64  `json:"lf"`
	Slack        float64  `json:"slack"`
	IsCritical   bool     `json:"isCritical"`
}

// Project builds the tabular projection of a result, rows in input order.
func Project(r *Result) *Table {
	t := &Table{
		Mode:    r.Mode,
		Columns: Columns(r.Mode),
		Rows:    make([]Row, 0, len(r.Order)),
	}
	for _, id := range r.Order {
		a := r.Activities[id]
		t.Rows = append(t.Rows, Row{
			Activity:     a.ID,
			Predecessors: a.Predecessors,
			Optimistic:   a.Optimistic,
			MostLikely:   a.MostLikely,
			Pessimistic:  a.Pessimistic,
			Duration:     a.Duration,
			ExpectedTime: a.ExpectedTime,
			Variance:     a.Variance,
			ES:           a.ES,
			EF:           a.EF,
			LS:           a.LS,
			LF:           a.LF,
			Slack:        a.Slack,
			IsCritical:   a.IsCritical,
		})
	}
	return t
}

// Columns returns the table headers for a mode.
func Columns(mode graph.Mode) []string {
	cols := []string{ColActivity, ColPredecessors}
	if mode == graph.ModePERT {
		cols = append(cols, ColOptimistic, ColMostLikely, ColPessimistic)
	} else {
		cols = append(cols, ColDuration)
	}
	return append(cols, ColExpected, ColVariance, ColES, ColEF, ColLS, ColLF, ColSlack)
}

// Cells renders the row in the column order of the given mode.
func (r Row) Cells(mode graph.Mode) []string {
	preds := "-"
	if len(r.Predecessors) > 0 {
		preds = strings.Join(r.Predecessors, ", ")
	}

	cells := []string{r.Activity, preds}
	if mode == graph.ModePERT {
		cells = append(cells, FormatNumber(r.Optimistic), FormatNumber(r.MostLikely), FormatNumber(r.Pessimistic))
	} else {
		cells = append(cells, FormatNumber(r.Duration))
	}
	return append(cells,
		FormatNumber(r.ExpectedTime),
		FormatNumber(r.Variance),
		FormatNumber(r.ES),
		FormatNumber(r.EF),
		FormatNumber(r.LS),
		FormatNumber(r.LF),
		FormatNumber(r.Slack),
	)
}

// Records returns the header row followed by every rendered row.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, t.Columns)
	for _, row := range t.Rows {
		out = append(out, row.Cells(t.Mode))
	}
	return out
}

// FormatNumber renders a value with at most two decimals and no trailing zeros.
func FormatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		s = "0"
	}
	return s
}
