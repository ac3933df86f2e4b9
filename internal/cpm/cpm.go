package cpm

import (
	"io"
	"log/slog"
	"math"
	"sort"

	"github.com/joshharrison/pertloom/internal/graph"
)

// Analyze performs critical path analysis on a built network. It fills in
// ES/EF/LS/LF, slack and the critical flag of every activity and returns the
// project summary. The network must have been through graph.Build.
func Analyze(n *graph.Network, opts Options) (*Result, error) {
	tol := opts.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	for _, id := range n.Order {
		a := n.Activities[id]
		a.ES, a.EF, a.LS, a.LF, a.Slack, a.IsCritical = 0, 0, 0, 0, 0, false
	}

	order, levels, err := forwardPass(n)
	if err != nil {
		return nil, err
	}

	// Total project duration: latest finish among terminal activities
	duration := 0.0
	for _, id := range n.Leaves {
		duration = math.Max(duration, n.Activities[id].EF)
	}
	log.Debug("forward pass complete", "activities", n.Len(), "project_duration", duration)

	backwardPass(n, order, duration)

	critical := markCritical(n, tol)
	chains, truncated := criticalChains(n, tol)
	log.Debug("critical path extracted", "critical", len(critical), "chains", len(chains), "truncated", truncated)

	result := &Result{
		Mode:       n.Mode,
		Activities: n.Activities,
		Order:      n.Order,
		Tolerance:  tol,
		Analysis: NetworkAnalysis{
			ProjectDuration: duration,
			CriticalPath:    critical,
			CriticalChains:  chains,
			ChainsTruncated: truncated,
			Dependencies:    n.Dependencies(),
			Levels:          levels,
			TopoOrder:       order,
		},
	}
	if n.Mode == graph.ModePERT {
		result.Analysis.ProjectVariance = chainVariance(n, chains)
		result.Analysis.ProjectStdDev = math.Sqrt(result.Analysis.ProjectVariance)
	}
	result.Table = Project(result)

	return result, nil
}

// forwardPass runs Kahn's algorithm and computes ES/EF and the layering as
// each activity is dequeued. Every predecessor is dequeued before its
// successors, so their EF and level are final when read.
func forwardPass(n *graph.Network) ([]string, map[string]int, error) {
	inDegree := make(map[string]int, n.Len())
	for _, id := range n.Order {
		inDegree[id] = len(n.Activities[id].Predecessors)
	}

	// Seed with roots in input order
	queue := make([]string, 0, n.Len())
	for _, id := range n.Order {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	levels := make(map[string]int, n.Len())
	order := make([]string, 0, n.Len())
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		// ES = max(EF of all predecessors)
		a := n.Activities[id]
		es := 0.0
		level := 0
		for _, predID := range a.Predecessors {
			pred := n.Activities[predID]
			es = math.Max(es, pred.EF)
			level = max(level, levels[predID]+1)
		}
		a.ES = es
		a.EF = es + a.ExpectedTime
		levels[id] = level

		for _, succ := range a.Successors {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				queue = append(queue, succ)
			}
		}
	}

	if len(order) != n.Len() {
		var left []string
		for _, id := range n.Order {
			if inDegree[id] > 0 {
				left = append(left, id)
			}
		}
		return nil, nil, &graph.CyclicDependencyError{
			Unscheduled: left,
			Cycle:       n.DetectCycle(),
		}
	}

	return order, levels, nil
}

// backwardPass computes LS/LF in reverse topological order so every
// successor's LS is final before its predecessors read it.
func backwardPass(n *graph.Network, order []string, duration float64) {
	for i := len(order) - 1; i >= 0; i-- {
		a := n.Activities[order[i]]
		if len(a.Successors) == 0 {
			a.LF = duration
		} else {
			minLS := math.Inf(1)
			for _, succ := range a.Successors {
				minLS = math.Min(minLS, n.Activities[succ].LS)
			}
			a.LF = minLS
		}
		a.LS = a.LF - a.ExpectedTime
	}
}

// markCritical sets slack and the critical flag, returning critical ids
// ordered by ascending ES (input order among equal ES).
func markCritical(n *graph.Network, tol float64) []string {
	critical := []string{}
	for _, id := range n.Order {
		a := n.Activities[id]
		a.Slack = a.LS - a.ES
		if math.Abs(a.Slack) < tol {
			a.IsCritical = true
			critical = append(critical, id)
		}
	}

	sort.SliceStable(critical, func(i, j int) bool {
		return n.Activities[critical[i]].ES < n.Activities[critical[j]].ES
	})
	return critical
}

// criticalChains traces actual root-to-leaf paths through critical
// activities, walking back from every critical leaf along predecessors whose
// finish meets the successor's start. The walk shares one stack and copies it
// out only when it reaches a root. truncated reports that more than
// MaxCriticalChains chains exist.
func criticalChains(n *graph.Network, tol float64) (chains [][]string, truncated bool) {
	chains = [][]string{}
	stack := make([]string, 0, n.Len())

	var walk func(id string) bool
	walk = func(id string) bool {
		stack = append(stack, id)
		defer func() { stack = stack[:len(stack)-1] }()
		a := n.Activities[id]

		extended := false
		for _, predID := range a.Predecessors {
			pred := n.Activities[predID]
			if !pred.IsCritical || math.Abs(pred.EF-a.ES) >= tol {
				continue
			}
			extended = true
			if !walk(predID) {
				return false
			}
		}
		if extended {
			return true
		}

		if len(chains) == MaxCriticalChains {
			truncated = true
			return false
		}
		chain := make([]string, len(stack))
		for i, v := range stack {
			chain[len(stack)-1-i] = v
		}
		chains = append(chains, chain)
		return true
	}

	for _, id := range n.Leaves {
		if !n.Activities[id].IsCritical {
			continue
		}
		if !walk(id) {
			break
		}
	}
	return chains, truncated
}

// chainVariance returns the largest summed variance over the given chains.
func chainVariance(n *graph.Network, chains [][]string) float64 {
	best := 0.0
	for _, chain := range chains {
		sum := 0.0
		for _, id := range chain {
			sum += n.Activities[id].Variance
		}
		best = math.Max(best, sum)
	}
	return best
}
