package reporter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/joshharrison/pertloom/internal/cpm"
	"github.com/joshharrison/pertloom/internal/input"
	"github.com/joshharrison/pertloom/internal/ui"
)

func makeResult(t *testing.T, mode string, raw []input.RawActivity) *cpm.Result {
	t.Helper()
	res, err := cpm.Calculate(raw, mode, cpm.Options{})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	return res
}

func diamond(t *testing.T) *cpm.Result {
	return makeResult(t, "CPM", []input.RawActivity{
		{ID: "A", Description: "Design", Duration: 5},
		{ID: "B", Duration: 5, Predecessors: []string{"A"}},
		{ID: "C", Duration: 3, Predecessors: []string{"A"}},
		{ID: "D", Duration: 5, Predecessors: []string{"B", "C"}},
	})
}

func TestPrintSummary(t *testing.T) {
	ui.SetColor(false)
	rpt := New(diamond(t), "plan.json")

	var buf bytes.Buffer
	rpt.PrintSummary(&buf)
	output := buf.String()

	if !strings.Contains(output, "Network Analysis") {
		t.Error("expected output to contain header")
	}
	if !strings.Contains(output, "plan.json") {
		t.Error("expected output to contain the source file")
	}
	if !strings.Contains(output, "Duration:   15") {
		t.Errorf("expected duration 15, got:\n%s", output)
	}
	if !strings.Contains(output, "A → B → D") {
		t.Error("expected output to contain the critical path")
	}
	if strings.Contains(output, "Variance") {
		t.Error("fixed-duration summary should not show variance")
	}
}

func TestPrintSummary_PERT(t *testing.T) {
	ui.SetColor(false)
	rpt := New(makeResult(t, "PERT", []input.RawActivity{
		{ID: "a", Optimistic: 2, MostLikely: 4, Pessimistic: 6},
	}), "")

	var buf bytes.Buffer
	rpt.PrintSummary(&buf)
	output := buf.String()

	if !strings.Contains(output, "Variance:   0.44") {
		t.Errorf("expected PERT variance, got:\n%s", output)
	}
	if strings.Contains(output, "Source:") {
		t.Error("expected no source line when source is empty")
	}
}

func TestPrintTable(t *testing.T) {
	ui.SetColor(false)
	rpt := New(diamond(t), "")

	var buf bytes.Buffer
	rpt.PrintTable(&buf)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	if len(lines) != 6 {
		t.Fatalf("expected header, separator and 4 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Activity") || !strings.Contains(lines[0], "Slack") {
		t.Errorf("unexpected header %q", lines[0])
	}
	fields := strings.Fields(lines[4])
	want := []string{"C", "A", "3", "3", "0", "5", "8", "7", "10", "2"}
	if strings.Join(fields, " ") != strings.Join(want, " ") {
		t.Errorf("expected row C %v, got %v", want, fields)
	}
}

func TestPrintCritical(t *testing.T) {
	ui.SetColor(false)
	rpt := New(diamond(t), "")

	var buf bytes.Buffer
	rpt.PrintCritical(&buf)
	output := buf.String()

	if !strings.Contains(output, "3 activities, duration 15") {
		t.Errorf("unexpected critical header:\n%s", output)
	}
	if !strings.Contains(output, "[A] ES 0  EF 5 Design") {
		t.Errorf("expected critical activity listing, got:\n%s", output)
	}
	if !strings.Contains(output, "A → B → D  [15]") {
		t.Errorf("expected chain with duration, got:\n%s", output)
	}
}

func TestPrintCritical_Empty(t *testing.T) {
	ui.SetColor(false)
	rpt := New(makeResult(t, "CPM", nil), "")

	var buf bytes.Buffer
	rpt.PrintCritical(&buf)
	if !strings.Contains(buf.String(), "No critical activities") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

// stackedDiamonds builds k diamonds in series, giving 2^k critical chains.
func stackedDiamonds(t *testing.T, k int) *cpm.Result {
	raw := []input.RawActivity{{ID: "s0", Duration: 1}}
	for i := 0; i < k; i++ {
		s, l, r := fmt.Sprintf("s%d", i), fmt.Sprintf("l%d", i), fmt.Sprintf("r%d", i)
		raw = append(raw,
			input.RawActivity{ID: l, Duration: 1, Predecessors: []string{s}},
			input.RawActivity{ID: r, Duration: 1, Predecessors: []string{s}},
			input.RawActivity{ID: fmt.Sprintf("s%d", i+1), Duration: 1, Predecessors: []string{l, r}},
		)
	}
	return makeResult(t, "CPM", raw)
}

func TestPrintCritical_Truncation(t *testing.T) {
	ui.SetColor(false)

	var buf bytes.Buffer
	New(stackedDiamonds(t, 6), "").PrintCritical(&buf)
	if strings.Contains(buf.String(), "truncated") {
		t.Errorf("64 chains fit under the cap, got:\n%s", buf.String())
	}

	buf.Reset()
	New(stackedDiamonds(t, 7), "").PrintCritical(&buf)
	if !strings.Contains(buf.String(), fmt.Sprintf("(truncated at %d chains)", cpm.MaxCriticalChains)) {
		t.Errorf("expected truncation notice, got:\n%s", buf.String())
	}
}

func TestJSON(t *testing.T) {
	rpt := New(diamond(t), "")

	data, err := rpt.JSON()
	if err != nil {
		t.Fatalf("json: %v", err)
	}

	var out struct {
		Mode     string `json:"mode"`
		Analysis struct {
			ProjectDuration float64  `json:"projectDuration"`
			CriticalPath    []string `json:"criticalPath"`
		} `json:"networkAnalysis"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Mode != "CPM" || out.Analysis.ProjectDuration != 15 {
		t.Errorf("unexpected JSON summary: %+v", out)
	}
	if len(out.Analysis.CriticalPath) != 3 {
		t.Errorf("expected 3 critical activities, got %v", out.Analysis.CriticalPath)
	}
}

func TestSummary(t *testing.T) {
	got := New(diamond(t), "").Summary()
	if got != "CPM: 4 activities, duration 15, 3 critical" {
		t.Errorf("unexpected summary %q", got)
	}
}
