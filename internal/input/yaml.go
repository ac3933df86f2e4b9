package input

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

type yamlActivity struct {
	ID           string     `yaml:"id"`
	Description  string     `yaml:"description"`
	Predecessors yamlIDList `yaml:"predecessors"`
	Duration     float64    `yaml:"duration"`
	Optimistic   float64    `yaml:"optimistic"`
	MostLikely   float64    `yaml:"most_likely"`
	MostLikelyCC float64    `yaml:"mostLikely"`
	Pessimistic  float64    `yaml:"pessimistic"`
}

type yamlDocument struct {
	DiagramType   string         `yaml:"diagram_type"`
	DiagramTypeCC string         `yaml:"diagramType"`
	Mode          string         `yaml:"mode"`
	Activities    []yamlActivity `yaml:"activities"`
}

// yamlIDList accepts either a sequence of ids or a comma separated scalar.
type yamlIDList []string

func (l *yamlIDList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var ids []string
		if err := node.Decode(&ids); err != nil {
			return err
		}
		out := make([]string, 0, len(ids))
		for _, id := range ids {
			if id = strings.TrimSpace(id); id != "" {
				out = append(out, id)
			}
		}
		*l = out
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*l = []string{}
			return nil
		}
		*l = SplitPredecessors(node.Value)
	default:
		return fmt.Errorf("line %d: predecessors must be a list or a comma separated string", node.Line)
	}
	return nil
}

func parseYAML(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if len(root.Content) == 0 {
		return &Document{}, nil
	}

	var yd yamlDocument
	body := root.Content[0]
	switch body.Kind {
	case yaml.SequenceNode:
		if err := body.Decode(&yd.Activities); err != nil {
			return nil, fmt.Errorf("decode activities: %w", err)
		}
	case yaml.MappingNode:
		if err := body.Decode(&yd); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
	default:
		return nil, fmt.Errorf("line %d: expected a list of activities or a mapping", body.Line)
	}

	doc := &Document{DiagramType: yd.DiagramType}
	if doc.DiagramType == "" {
		doc.DiagramType = yd.DiagramTypeCC
	}
	if doc.DiagramType == "" {
		doc.DiagramType = yd.Mode
	}
	for _, ya := range yd.Activities {
		preds := []string(ya.Predecessors)
		if preds == nil {
			preds = []string{}
		}
		ml := ya.MostLikely
		if ml == 0 {
			ml = ya.MostLikelyCC
		}
		doc.Activities = append(doc.Activities, RawActivity{
			ID:           strings.TrimSpace(ya.ID),
			Description:  ya.Description,
			Predecessors: preds,
			Duration:     ya.Duration,
			Optimistic:   ya.Optimistic,
			MostLikely:   ml,
			Pessimistic:  ya.Pessimistic,
		})
	}
	return doc, nil
}
