package export

import (
	"github.com/joshharrison/pertloom/internal/cpm"
	"github.com/joshharrison/pertloom/internal/graph"
)

// --- Graph types (the layout schema consumed by renderers and the viewer) ---

type Node struct {
	ID           string   `json:"id"`
	Description  string   `json:"description"`
	Predecessors []string `json:"predecessors"`
	Successors   []string `json:"successors"`
	ExpectedTime float64  `json:"expectedTime"`
	ES           float64  `json:"es"`
	EF           float64  `json:"ef"`
	LS           float64  `json:"ls"`
	LF           float64  `json:"lf"`
	Slack        float64  `json:"slack"`
	IsCritical   bool     `json:"isCritical"`
	Level        int      `json:"level"`
}

type Edge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Critical bool   `json:"critical"`
}

type Metadata struct {
	Mode            graph.Mode `json:"mode"`
	ProjectDuration float64    `json:"projectDuration"`
	TotalActivities int        `json:"totalActivities"`
	MaxLevel        int        `json:"maxLevel"`
}

type Graph struct {
	Nodes          []Node              `json:"nodes"`
	Edges          []Edge              `json:"edges"`
	CriticalPath   []string            `json:"criticalPath"`
	CriticalChains [][]string          `json:"criticalChains"`
	Dependencies   map[string][]string `json:"dependencies"`
	Metadata       Metadata            `json:"metadata"`
}

// ToGraph converts an analysis result into the normalised Graph a layout
// renderer draws. Nodes follow input order and edges follow each node's
// successor order, so the output is deterministic.
func ToGraph(res *cpm.Result) *Graph {
	nodes := make([]Node, 0, len(res.Order))
	edges := make([]Edge, 0)
	maxLevel := 0

	for _, id := range res.Order {
		a := res.Activities[id]
		level := res.Analysis.Levels[id]
		if level > maxLevel {
			maxLevel = level
		}
		nodes = append(nodes, Node{
			ID:           a.ID,
			Description:  a.Description,
			Predecessors: append([]string{}, a.Predecessors...),
			Successors:   append([]string{}, a.Successors...),
			ExpectedTime: a.ExpectedTime,
			ES:           a.ES,
			EF:           a.EF,
			LS:           a.LS,
			LF:           a.LF,
			Slack:        a.Slack,
			IsCritical:   a.IsCritical,
			Level:        level,
		})

		for _, to := range a.Successors {
			edges = append(edges, Edge{
				From:     id,
				To:       to,
				Critical: CriticalEdge(res, id, to),
			})
		}
	}

	return &Graph{
		Nodes:          nodes,
		Edges:          edges,
		CriticalPath:   res.Analysis.CriticalPath,
		CriticalChains: res.Analysis.CriticalChains,
		Dependencies:   res.Analysis.Dependencies,
		Metadata: Metadata{
			Mode:            res.Mode,
			ProjectDuration: res.Analysis.ProjectDuration,
			TotalActivities: len(res.Order),
			MaxLevel:        maxLevel,
		},
	}
}

// CriticalEdge reports whether from -> to lies on a critical chain: both ends
// are critical and the successor starts exactly when the predecessor ends.
func CriticalEdge(res *cpm.Result, from, to string) bool {
	f, t := res.Activities[from], res.Activities[to]
	if f == nil || t == nil || !f.IsCritical || !t.IsCritical {
		return false
	}
	diff := t.ES - f.EF
	if diff < 0 {
		diff = -diff
	}
	tol := res.Tolerance
	if tol <= 0 {
		tol = cpm.DefaultTolerance
	}
	return diff < tol
}

// ByLevel groups activity ids by level, each group in input order.
func ByLevel(res *cpm.Result) [][]string {
	var levels [][]string
	for _, id := range res.Order {
		l := res.Analysis.Levels[id]
		for len(levels) <= l {
			levels = append(levels, nil)
		}
		levels[l] = append(levels[l], id)
	}
	return levels
}
