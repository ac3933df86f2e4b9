package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/joshharrison/pertloom/internal/cpm"
	"github.com/joshharrison/pertloom/internal/graph"
	"github.com/joshharrison/pertloom/internal/ui"
)

// Reporter renders an analysis result for the terminal.
type Reporter struct {
	Result *cpm.Result
	Source string // input file the result came from, shown in the header
}

// New creates a new Reporter.
func New(res *cpm.Result, source string) *Reporter {
	return &Reporter{Result: res, Source: source}
}

// PrintSummary writes the project header: duration, activity counts and the
// critical path.
func (r *Reporter) PrintSummary(w io.Writer) {
	res := r.Result
	an := res.Analysis

	fmt.Fprintf(w, "🎯 %s\n", ui.BoldCyan("Network Analysis"))
	fmt.Fprintln(w, ui.Cyan("════════════════"))
	if r.Source != "" {
		fmt.Fprintf(w, "Source:     %s\n", ui.Dim(r.Source))
	}
	fmt.Fprintf(w, "Mode:       %s\n", ui.Bold(string(res.Mode)))
	fmt.Fprintf(w, "Activities: %s (%d critical)\n", ui.Bold(len(res.Order)), len(an.CriticalPath))
	fmt.Fprintf(w, "Duration:   %s\n", ui.BoldGreen(cpm.FormatNumber(an.ProjectDuration)))
	if res.Mode == graph.ModePERT {
		fmt.Fprintf(w, "Variance:   %s (σ %s)\n",
			ui.Bold(cpm.FormatNumber(an.ProjectVariance)), cpm.FormatNumber(an.ProjectStdDev))
	}
	if len(an.CriticalPath) > 0 {
		fmt.Fprintf(w, "⚡ Critical: %s\n", ui.BoldYellow(strings.Join(an.CriticalPath, " → ")))
	}
	fmt.Fprintln(w)
}

// PrintTable writes the tabular projection, highlighting critical rows.
func (r *Reporter) PrintTable(w io.Writer) {
	t := r.Result.Table
	rows := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		cells := row.Cells(t.Mode)
		if row.IsCritical {
			cells[0] = ui.BoldYellow(cells[0])
			last := len(cells) - 1
			cells[last] = ui.Slack(cells[last], true)
		} else {
			cells[0] = ui.BoldMagenta(cells[0])
		}
		rows = append(rows, cells)
	}
	fmt.Fprint(w, ui.RenderTable(t.Columns, rows))
}

// PrintCritical lists critical activities by earliest start, then each traced
// chain with its summed duration (and variance under PERT).
func (r *Reporter) PrintCritical(w io.Writer) {
	res := r.Result
	an := res.Analysis

	if len(an.CriticalPath) == 0 {
		fmt.Fprintf(w, "%s No critical activities.\n", ui.Dim("⚡"))
		return
	}

	fmt.Fprintf(w, "⚡ %s (%d activities, duration %s)\n",
		ui.BoldYellow("Critical path"), len(an.CriticalPath), cpm.FormatNumber(an.ProjectDuration))
	for _, id := range an.CriticalPath {
		a := res.Activities[id]
		fmt.Fprintf(w, "  %s %s %s\n", ui.ActivityPrefix(id),
			ui.Dim(fmt.Sprintf("ES %s  EF %s", cpm.FormatNumber(a.ES), cpm.FormatNumber(a.EF))),
			a.Description)
	}

	if len(an.CriticalChains) > 1 {
		fmt.Fprintf(w, "\n%s %d parallel critical chains:\n", ui.Bold("Chains:"), len(an.CriticalChains))
	} else {
		fmt.Fprintf(w, "\n%s\n", ui.Bold("Chain:"))
	}
	for _, chain := range an.CriticalChains {
		dur, variance := 0.0, 0.0
		for _, id := range chain {
			dur += res.Activities[id].ExpectedTime
			variance += res.Activities[id].Variance
		}
		line := fmt.Sprintf("  %s %s  %s", ui.Cyan("→"), strings.Join(chain, " → "),
			ui.Dim("["+cpm.FormatNumber(dur)+"]"))
		if res.Mode == graph.ModePERT {
			line += " " + ui.Dim("σ² "+cpm.FormatNumber(variance))
		}
		fmt.Fprintln(w, line)
	}
	if an.ChainsTruncated {
		fmt.Fprintf(w, "  %s\n", ui.Yellow(fmt.Sprintf("(truncated at %d chains)", cpm.MaxCriticalChains)))
	}
}

// JSON returns the full machine-readable result.
func (r *Reporter) JSON() ([]byte, error) {
	return json.MarshalIndent(r.Result, "", "  ")
}

// Summary returns a one-line summary.
func (r *Reporter) Summary() string {
	an := r.Result.Analysis
	return fmt.Sprintf("%s: %d activities, duration %s, %d critical",
		r.Result.Mode, len(r.Result.Order), cpm.FormatNumber(an.ProjectDuration), len(an.CriticalPath))
}
