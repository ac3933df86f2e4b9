package cpm

import (
	"github.com/joshharrison/pertloom/internal/graph"
	"github.com/joshharrison/pertloom/internal/input"
)

// Calculate is the single entry point of the engine: it normalizes the raw
// records for the given diagram type ("PERT" or anything else for fixed
// durations), builds the network and schedules it. Every call works on
// freshly built entities; on error no partial result is returned.
func Calculate(raw []input.RawActivity, diagramType string, opts Options) (*Result, error) {
	n, err := graph.FromRaw(raw, graph.ParseMode(diagramType))
	if err != nil {
		return nil, err
	}
	return Analyze(n, opts)
}

// CalculateDocument runs Calculate on a parsed activity document, letting an
// explicit diagram type override the one named in the document.
func CalculateDocument(doc *input.Document, diagramType string, opts Options) (*Result, error) {
	if diagramType == "" {
		diagramType = doc.DiagramType
	}
	return Calculate(doc.Activities, diagramType, opts)
}
