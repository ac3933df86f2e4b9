package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/joshharrison/pertloom/internal/cpm"
	"github.com/joshharrison/pertloom/internal/ui"
)

// WriteJSON writes the layout graph as indented JSON.
func WriteJSON(w io.Writer, res *cpm.Result) error {
	data, err := json.MarshalIndent(ToGraph(res), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal graph: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// WriteDOT renders the network as a Graphviz digraph. Critical activities
// and edges on a critical chain are drawn in red.
func WriteDOT(w io.Writer, res *cpm.Result) error {
	var b strings.Builder

	b.WriteString("digraph pertloom {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=rounded];\n")
	b.WriteString("\n")

	for _, id := range res.Order {
		a := res.Activities[id]
		label := fmt.Sprintf("%s\\nES %s  EF %s\\nLS %s  LF %s\\nslack %s",
			escapeDOT(id),
			cpm.FormatNumber(a.ES), cpm.FormatNumber(a.EF),
			cpm.FormatNumber(a.LS), cpm.FormatNumber(a.LF),
			cpm.FormatNumber(a.Slack))
		attrs := fmt.Sprintf(`label="%s"`, label)
		if a.Description != "" {
			attrs += fmt.Sprintf(`, tooltip="%s"`, escapeDOT(a.Description))
		}
		if a.IsCritical {
			attrs += `, style="rounded,bold", color=red`
		}
		fmt.Fprintf(&b, "  %q [%s];\n", id, attrs)
	}

	b.WriteString("\n")

	for _, from := range res.Order {
		for _, to := range res.Activities[from].Successors {
			style := ""
			if CriticalEdge(res, from, to) {
				style = ` [color=red, penwidth=2]`
			}
			fmt.Fprintf(&b, "  %q -> %q%s;\n", from, to, style)
		}
	}

	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func escapeDOT(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// WriteASCII prints the network grouped by level with each activity's
// outgoing edges underneath it.
func WriteASCII(w io.Writer, res *cpm.Result) {
	fmt.Fprintf(w, "🔗 %s\n", ui.BoldCyan("Activity Network"))
	fmt.Fprintln(w, ui.Cyan("════════════════"))
	fmt.Fprintln(w)

	for level, ids := range ByLevel(res) {
		fmt.Fprintf(w, "%s Level %d %s\n", ui.Cyan("──"), level, ui.Cyan("──────────────────────────────"))
		for _, id := range ids {
			a := res.Activities[id]
			line := fmt.Sprintf("  %s %s %s", ui.CriticalMark(a.IsCritical), ui.ActivityPrefix(id),
				ui.Dim(fmt.Sprintf("%s → %s", cpm.FormatNumber(a.ES), cpm.FormatNumber(a.EF))))
			if a.Description != "" {
				line += " " + a.Description
			}
			fmt.Fprintln(w, line)

			for _, succ := range a.Successors {
				arrow := ui.Dim("└──→")
				if CriticalEdge(res, id, succ) {
					arrow = ui.BoldYellow("└──→")
				}
				fmt.Fprintf(w, "      %s %s\n", arrow, ui.Magenta(succ))
			}
		}
		fmt.Fprintln(w)
	}
}
