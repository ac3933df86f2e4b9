package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joshharrison/pertloom/internal/claude"
	"github.com/joshharrison/pertloom/internal/config"
	"github.com/joshharrison/pertloom/internal/cpm"
	"github.com/joshharrison/pertloom/internal/export"
	"github.com/joshharrison/pertloom/internal/input"
	"github.com/joshharrison/pertloom/internal/logging"
	"github.com/joshharrison/pertloom/internal/reporter"
	"github.com/joshharrison/pertloom/internal/ui"
	"github.com/joshharrison/pertloom/internal/viewer"
)

var (
	flagFile      string
	flagMode      string
	flagTolerance float64
	flagConfig    string
	flagJSON      bool
	flagLogLevel  string
	flagNoColor   bool
	flagFormat    string
	flagOutput    string
)

// app carries what every command needs once flags and config are resolved.
type app struct {
	cfg    config.Config
	logger *logging.Logger
	out    io.Writer
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.BoldRed("Error:"), err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pertloom",
		Short: "Critical path and PERT analysis for activity networks",
		Long: `Pertloom reads an activity network (JSON or YAML), schedules it with the
critical path method or three-point PERT estimates, and reports earliest and
latest times, slack, the critical path and a level layering for drawing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flagFile, "file", "f", "", "Activity file (JSON or YAML, - for stdin)")
	rootCmd.PersistentFlags().StringVar(&flagMode, "mode", "", "Diagram type: CPM or PERT (default: from file, then config)")
	rootCmd.PersistentFlags().Float64Var(&flagTolerance, "tolerance", 0, "Slack tolerance for critical activities (default: config, 0.01)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: $PERTLOOM_CONFIG or "+config.DefaultConfigPath+")")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(tableCmd())
	rootCmd.AddCommand(criticalCmd())
	rootCmd.AddCommand(vizCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(inferDepsCmd())

	return rootCmd
}

// setup resolves config, flag overrides, color and logging.
func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Resolve(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flagLogLevel != "" {
		cfg.Logging.Level = flagLogLevel
	}
	if flagTolerance > 0 {
		cfg.Tolerance = flagTolerance
	}
	if flagJSON {
		cfg.Output.Format = "json"
	}

	switch {
	case flagNoColor:
		ui.SetColor(false)
	case cfg.Output.Color != nil:
		ui.SetColor(*cfg.Output.Color)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, out: cmd.OutOrStdout()}, nil
}

func (a *app) close() {
	a.logger.Close()
}

func (a *app) options() cpm.Options {
	return cpm.Options{Tolerance: a.cfg.Tolerance, Logger: a.logger.Logger}
}

func (a *app) jsonOutput() bool {
	return a.cfg.Output.Format == "json"
}

// loadDocument reads the --file document.
func loadDocument() (*input.Document, error) {
	if flagFile == "" {
		return nil, fmt.Errorf("no activity file given (use --file)")
	}
	return input.LoadFile(flagFile)
}

// diagramType picks the mode: --mode, then the file, then config.
func (a *app) diagramType(doc *input.Document) string {
	if flagMode != "" {
		return flagMode
	}
	if doc.DiagramType != "" {
		return doc.DiagramType
	}
	return a.cfg.Mode
}

// analyze is the shared load-and-schedule step for the reporting commands.
func (a *app) analyze() (*cpm.Result, error) {
	doc, err := loadDocument()
	if err != nil {
		return nil, err
	}

	res, err := cpm.CalculateDocument(doc, a.diagramType(doc), a.options())
	if err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}
	a.logger.Info("network analysed",
		"file", flagFile,
		"mode", res.Mode,
		"activities", len(res.Order),
		"project_duration", res.Analysis.ProjectDuration)
	return res, nil
}

// runWith wraps a command body with setup and teardown.
func runWith(fn func(a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.close()
		return fn(a, cmd, args)
	}
}

func analyzeCmd() *cobra.Command {
	var flagQuiet bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Schedule a network and print the summary and table",
		RunE: runWith(func(a *app, cmd *cobra.Command, args []string) error {
			res, err := a.analyze()
			if err != nil {
				return err
			}

			rpt := reporter.New(res, flagFile)
			switch {
			case a.jsonOutput():
				data, err := rpt.JSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, string(data))
			case flagQuiet:
				fmt.Fprintln(a.out, rpt.Summary())
			default:
				rpt.PrintSummary(a.out)
				rpt.PrintTable(a.out)
			}
			return nil
		}),
	}

	cmd.Flags().BoolVarP(&flagQuiet, "quiet", "q", false, "Print a one-line summary only")

	return cmd
}

func tableCmd() *cobra.Command {
	var flagCSV bool

	cmd := &cobra.Command{
		Use:   "table",
		Short: "Print the tabular projection only",
		RunE: runWith(func(a *app, cmd *cobra.Command, args []string) error {
			res, err := a.analyze()
			if err != nil {
				return err
			}

			switch {
			case a.jsonOutput():
				return outputJSON(a.out, res.Table)
			case flagCSV:
				w := csv.NewWriter(a.out)
				if err := w.WriteAll(res.Table.Records()); err != nil {
					return fmt.Errorf("write csv: %w", err)
				}
				return nil
			}
			reporter.New(res, flagFile).PrintTable(a.out)
			return nil
		}),
	}

	cmd.Flags().BoolVar(&flagCSV, "csv", false, "Write the table as CSV")

	return cmd
}

func criticalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "critical",
		Short: "List the critical path and critical chains",
		RunE: runWith(func(a *app, cmd *cobra.Command, args []string) error {
			res, err := a.analyze()
			if err != nil {
				return err
			}

			if a.jsonOutput() {
				an := res.Analysis
				return outputJSON(a.out, map[string]interface{}{
					"projectDuration": an.ProjectDuration,
					"criticalPath":    an.CriticalPath,
					"criticalChains":  an.CriticalChains,
					"projectVariance": an.ProjectVariance,
					"projectStdDev":   an.ProjectStdDev,
				})
			}
			reporter.New(res, flagFile).PrintCritical(a.out)
			return nil
		}),
	}
}

func vizCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viz",
		Short: "Print the network as an ASCII level diagram or Graphviz DOT",
		RunE: runWith(func(a *app, cmd *cobra.Command, args []string) error {
			res, err := a.analyze()
			if err != nil {
				return err
			}

			switch flagFormat {
			case "dot":
				return export.WriteDOT(a.out, res)
			case "ascii":
				export.WriteASCII(a.out, res)
				return nil
			default:
				return fmt.Errorf("unsupported format %q (use ascii or dot)", flagFormat)
			}
		}),
	}

	cmd.Flags().StringVar(&flagFormat, "format", "ascii", "Output format (ascii, dot)")

	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the layout graph (nodes, edges, levels) as JSON",
		RunE: runWith(func(a *app, cmd *cobra.Command, args []string) error {
			res, err := a.analyze()
			if err != nil {
				return err
			}

			if flagOutput == "" {
				return export.WriteJSON(a.out, res)
			}

			f, err := os.Create(flagOutput)
			if err != nil {
				return fmt.Errorf("create %s: %w", flagOutput, err)
			}
			if err := export.WriteJSON(f, res); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", flagOutput, err)
			}
			fmt.Fprintf(a.out, "%s Wrote %s activities to %s\n", ui.Green("✓"), ui.Bold(len(res.Order)), flagOutput)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Write to file instead of stdout")

	return cmd
}

func serveCmd() *cobra.Command {
	var flagPort int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP viewer (POST /graph, GET /graph, GET /healthz)",
		RunE: runWith(func(a *app, cmd *cobra.Command, args []string) error {
			port := a.cfg.Viewer.Port
			if flagPort > 0 {
				port = flagPort
			}

			if viewer.IsPortOpen(fmt.Sprintf("localhost:%d", port)) {
				return fmt.Errorf("port %d is already in use", port)
			}

			srv := viewer.New(a.options(), a.logger.Logger)
			if flagFile != "" {
				res, err := a.analyze()
				if err != nil {
					return err
				}
				srv.Load(res)
			}

			addr, err := srv.Start(port)
			if err != nil {
				return err
			}
			ui.PrintLogo(a.out)
			fmt.Fprintf(a.out, "🌐 Viewer listening on %s\n", ui.BoldCyan(addr))
			fmt.Fprintf(a.out, "%s\n", ui.Dim("POST an activity document to /graph; Ctrl-C to stop"))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			fmt.Fprintf(a.out, "\n%s Viewer stopped\n", ui.Dim("🛑"))
			return nil
		}),
	}

	cmd.Flags().IntVar(&flagPort, "port", 0, "Listen port (default: config, 7171)")

	return cmd
}

func inferDepsCmd() *cobra.Command {
	var (
		flagApply    bool
		flagModel    string
		flagFromFile string
	)

	cmd := &cobra.Command{
		Use:   "infer-deps",
		Short: "Use Claude to propose missing predecessors from activity descriptions",
		Long: `Sends the activities to Claude and infers predecessor edges that are not
declared yet. By default runs in dry-run mode; use --apply -o FILE to write
the updated activity document.`,
		RunE: runWith(func(a *app, cmd *cobra.Command, args []string) error {
			doc, err := loadDocument()
			if err != nil {
				return err
			}
			if len(doc.Activities) == 0 {
				return fmt.Errorf("no activities found")
			}
			mode := a.diagramType(doc)
			// The declared network must already be valid before edges are added to it
			if _, err := cpm.Calculate(doc.Activities, mode, a.options()); err != nil {
				return fmt.Errorf("analysis: %w", err)
			}
			if flagApply && flagOutput == "" {
				return fmt.Errorf("--apply needs --output")
			}

			var result *claude.InferDepsResult
			if flagFromFile != "" {
				data, err := os.ReadFile(flagFromFile)
				if err != nil {
					return fmt.Errorf("read from-file: %w", err)
				}
				result, err = claude.ParseResult(string(data))
				if err != nil {
					return fmt.Errorf("parse from-file: %w", err)
				}
				fmt.Fprintf(a.out, "📂 Loaded %s edges from %s\n", ui.Bold(len(result.Edges)), ui.Dim(flagFromFile))
			} else {
				model := a.cfg.Claude.Model
				if flagModel != "" {
					model = flagModel
				}
				client, err := claude.NewClient("", model)
				if err != nil {
					return err
				}

				fmt.Fprintf(a.out, "🔍 Sending %s activities to Claude for predecessor inference...\n", ui.Bold(len(doc.Activities)))
				result, err = client.InferPredecessors(cmd.Context(), claude.Summaries(doc.Activities))
				if err != nil {
					return fmt.Errorf("infer predecessors: %w", err)
				}
			}

			updated, accepted, rejected := claude.FilterEdges(doc.Activities, result.Edges)
			for _, r := range rejected {
				a.logger.Debug("edge rejected", "activity", r.Edge.ActivityID, "predecessor", r.Edge.PredecessorID, "reason", r.Reason)
				if !a.jsonOutput() {
					fmt.Fprintf(a.out, "  %s %s <- %s: %s\n", ui.Yellow("⏭️  SKIP:"), r.Edge.ActivityID, r.Edge.PredecessorID, r.Reason)
				}
			}

			if a.jsonOutput() && !flagApply {
				return outputJSON(a.out, struct {
					Edges   []claude.DepEdge `json:"edges"`
					Summary string           `json:"summary"`
				}{Edges: accepted, Summary: result.Summary})
			}

			if !a.jsonOutput() {
				fmt.Fprintf(a.out, "\n🔗 Inferred %s predecessors (%d proposed, %d after validation):\n\n",
					ui.Bold(len(accepted)), len(result.Edges), len(accepted))
				for _, e := range accepted {
					fmt.Fprintf(a.out, "  %s %s after %s  %s\n", ui.Cyan("→"), ui.ActivityPrefix(e.ActivityID), ui.ActivityPrefix(e.PredecessorID), ui.Dim(e.Reason))
				}
				if result.Summary != "" {
					fmt.Fprintf(a.out, "\n💡 %s %s\n", ui.BoldWhite("Summary:"), result.Summary)
				}
			}

			if !flagApply {
				fmt.Fprintf(a.out, "\n🎯 %s\n", ui.Yellow("Dry run: use --apply -o FILE to write the updated activities."))
				return nil
			}

			out := struct {
				DiagramType string              `json:"diagramType"`
				Activities  []input.RawActivity `json:"activities"`
			}{DiagramType: mode, Activities: updated}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(flagOutput, append(data, '\n'), 0644); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "\n🏁 Wrote %s activities with %s new predecessors to %s\n",
				ui.Bold(len(updated)), ui.BoldGreen(len(accepted)), flagOutput)
			return nil
		}),
	}

	cmd.Flags().BoolVar(&flagApply, "apply", false, "Write the updated activity document (default: dry-run)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Claude model to use (default: config, "+claude.DefaultModel+")")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output file for --apply")
	cmd.Flags().StringVar(&flagFromFile, "from-file", "", "Load inferred edges from a JSON file instead of calling Claude")

	return cmd
}

// --- Output helpers ---

func outputJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}
