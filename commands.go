package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"

	"lactate-lab/internal/export"
	"lactate-lab/internal/monitoring"
	"lactate-lab/internal/service"
	"lactate-lab/internal/stage"
	"lactate-lab/internal/threshold"
	"lactate-lab/internal/tui"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE...",
		Short: "Import test files (.json, .yaml)",
		Args:  cobra.MinimumNArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			out := cmd.OutOrStdout()
			for _, path := range args {
				sess, err := e.svc.ImportFile(cmd.Context(), path)
				if err != nil {
					return fmt.Errorf("importing %s: %w", path, err)
				}
				fmt.Fprintf(out, "%s  %s  %s\n", sess.ID, sess.Subject, sess.TestedAt.Format("2006-01-02"))
			}
			return nil
		}),
	}
}

func newSessionsCmd() *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List imported sessions",
		Args:  cobra.NoArgs,
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			sessions, err := e.svc.ListSessions(cmd.Context(), subject)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions. Import a test with: lactate import FILE")
				return nil
			}

			fmt.Fprintf(out, "%-10s %-20s %-10s %-6s %s\n", "ID", "SUBJECT", "DATE", "UNIT", "STAGES")
			for _, s := range sessions {
				fmt.Fprintf(out, "%-10s %-20s %-10s %-6s %d\n",
					shortID(s.ID), s.Subject, s.TestedAt.Format("2006-01-02"), s.Unit, s.StageCount)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Only list sessions of this subject")
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	var method string

	cmd := &cobra.Command{
		Use:   "analyze ID",
		Short: "Detect thresholds and training zones for a session",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			m, err := methodFlag(method)
			if err != nil {
				return err
			}
			id, err := e.svc.ResolveSessionID(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			a, err := e.svc.Analyze(cmd.Context(), id, m)
			if err != nil {
				return err
			}

			units := tui.NewUnits(e.cfg.Display).ForSession(a.Session.Unit)
			printAnalysis(cmd.OutOrStdout(), a, units)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&method, "method", "m", "", "Threshold method (default from config)")
	return cmd
}

func newCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare ID",
		Short: "Run every threshold method over a session",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			id, err := e.svc.ResolveSessionID(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			c, err := e.svc.CompareMethods(cmd.Context(), id)
			if err != nil {
				return err
			}

			units := tui.NewUnits(e.cfg.Display).ForSession(c.Session.Unit)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s\n\n", c.Session.Subject, c.Session.TestedAt.Format("2006-01-02"))
			fmt.Fprintf(out, "%-28s %-22s %-22s %s\n", "METHOD", "LT1", "LT2", "NOTES")
			for _, o := range c.Outcomes {
				fmt.Fprintf(out, "%-28s %-22s %-22s %s\n",
					o.Result.MethodName,
					formatPoint(o.Result.LT1, units),
					formatPoint(o.Result.LT2, units),
					o.Result.Notes)
			}
			return nil
		}),
	}
}

func newOverrideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override",
		Short: "Manually adjust thresholds and zone boundaries",
	}

	var lt1, lt2, zones string
	setCmd := &cobra.Command{
		Use:   "set ID",
		Short: "Set manual thresholds for a session",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			in, err := parseOverride(lt1, lt2, zones)
			if err != nil {
				return err
			}
			id, err := e.svc.ResolveSessionID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := e.svc.SetOverride(cmd.Context(), id, in); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Override stored for %s\n", shortID(id))
			return nil
		}),
	}
	setCmd.Flags().StringVar(&lt1, "lt1", "", "LT1 as LOAD or LOAD:LACTATE")
	setCmd.Flags().StringVar(&lt2, "lt2", "", "LT2 as LOAD or LOAD:LACTATE")
	setCmd.Flags().StringVar(&zones, "zones", "", "Upper bounds of zones 1-4, comma separated")

	clearCmd := &cobra.Command{
		Use:   "clear ID",
		Short: "Remove manual thresholds from a session",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			id, err := e.svc.ResolveSessionID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := e.svc.ClearOverride(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Override cleared for %s\n", shortID(id))
			return nil
		}),
	}

	cmd.AddCommand(setCmd, clearCmd)
	return cmd
}

func newViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view [ID]",
		Short: "Browse sessions and thresholds in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			var id string
			if len(args) == 1 {
				resolved, err := e.svc.ResolveSessionID(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				id = resolved
			}

			// log lines would tear the alt screen
			e.logger.SetOutput(io.Discard)

			app := tui.NewApp(e.svc, tui.NewUnits(e.cfg.Display), id)
			p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("running TUI: %w", err)
			}
			return nil
		}),
	}
}

func newPlotCmd() *cobra.Command {
	var (
		method        string
		output        string
		width, height float64
	)

	cmd := &cobra.Command{
		Use:   "plot ID",
		Short: "Render the lactate curve with thresholds and zones to PNG",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			m, err := methodFlag(method)
			if err != nil {
				return err
			}
			id, err := e.svc.ResolveSessionID(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			a, err := e.svc.Analyze(cmd.Context(), id, m)
			if err != nil {
				return err
			}

			units := tui.NewUnits(e.cfg.Display).ForSession(a.Session.Unit)
			curve := export.Curve{
				Title:  fmt.Sprintf("%s %s - %s", a.Session.Subject, a.Session.TestedAt.Format("2006-01-02"), a.Result.MethodName),
				Unit:   units.LoadLabel(),
				Points: a.Points,
				Result: a.Result,
				Zones:  a.Zones,
			}
			if err := curve.SavePNG(output, vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch); err != nil {
				return err
			}

			e.logger.WithField("path", output).Info("plot written")
			return nil
		}),
	}

	cmd.Flags().StringVarP(&method, "method", "m", "", "Threshold method (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "lactate.png", "Output PNG path")
	cmd.Flags().Float64Var(&width, "width", float64(export.DefaultWidth/vg.Inch), "Width in inches")
	cmd.Flags().Float64Var(&height, "height", float64(export.DefaultHeight/vg.Inch), "Height in inches")
	return cmd
}

func newCorrectCmd() *cobra.Command {
	var (
		actual, target    float64
		load, lactate, hr float64
		prev, prePrev     string
		final             bool
		priorLoads        []float64
	)

	cmd := &cobra.Command{
		Use:   "correct",
		Short: "Correct a single incomplete stage",
		Long: `Correct one stage that ended before its planned duration.

Intermediate stages are interpolated to full duration from the stages before
them (--prev, --pre-prev given as LOAD:LACTATE[:HR]). With --final the stage
is treated as the last one of the test and a fatigue-adjusted theoretical
load is extrapolated from --prior-loads instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := monitoring.New(cfg.Log.Level, cfg.Log.Format, nil)
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}

			out := cmd.OutOrStdout()
			if final {
				res := stage.ExtrapolateTheoreticalLoad(stage.FinalStage{
					CurrentLoad:    load,
					PriorLoads:     priorLoads,
					ActualDuration: actual,
					TargetDuration: target,
				}, stage.WithLogger(logger))
				fmt.Fprintf(out, "Completion:       %.0f%%\n", stage.CompletionRatio(actual, target)*100)
				printStageResult(out, "Theoretical load", res)
				return nil
			}

			in := stage.IncompleteStage{
				Current:        stage.Sample{Load: load, Lactate: lactate},
				ActualDuration: actual,
				TargetDuration: target,
			}
			if cmd.Flags().Changed("hr") {
				in.Current.HeartRate = &hr
			}
			if in.Previous, err = parseSample(prev); err != nil {
				return fmt.Errorf("--prev: %w", err)
			}
			if in.PrePrevious, err = parseSample(prePrev); err != nil {
				return fmt.Errorf("--pre-prev: %w", err)
			}

			res := stage.InterpolateIncompleteStage(in, stage.WithLogger(logger))
			fmt.Fprintf(out, "Completion:       %.0f%%\n", res.CompletionRatio*100)
			printStageResult(out, "Load", res.Load)
			printStageResult(out, "Lactate", res.Lactate)
			if res.HeartRate != nil {
				printStageResult(out, "Heart rate", *res.HeartRate)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&actual, "actual", 0, "Completed stage duration")
	cmd.Flags().Float64Var(&target, "target", service.DefaultStageDurationMinutes, "Planned stage duration")
	cmd.Flags().Float64Var(&load, "load", 0, "Stage load")
	cmd.Flags().Float64Var(&lactate, "lactate", 0, "Measured lactate (mmol/L)")
	cmd.Flags().Float64Var(&hr, "hr", 0, "Measured heart rate")
	cmd.Flags().StringVar(&prev, "prev", "", "Previous stage as LOAD:LACTATE[:HR]")
	cmd.Flags().StringVar(&prePrev, "pre-prev", "", "Stage before the previous one as LOAD:LACTATE[:HR]")
	cmd.Flags().BoolVar(&final, "final", false, "Treat the stage as the final stage of the test")
	cmd.Flags().Float64SliceVar(&priorLoads, "prior-loads", nil, "Loads of the completed stages before the final one, oldest first")
	cmd.MarkFlagRequired("actual")
	cmd.MarkFlagRequired("load")
	return cmd
}

func printAnalysis(w io.Writer, a *service.Analysis, units tui.Units) {
	fmt.Fprintf(w, "%s  %s  (%s)\n", a.Session.Subject, a.Session.TestedAt.Format("2006-01-02"), shortID(a.Session.ID))
	fmt.Fprintf(w, "Method: %s\n", a.Result.MethodName)
	if a.Result.Reference != "" {
		fmt.Fprintf(w, "        %s\n", a.Result.Reference)
	}
	if a.Adjusted {
		fmt.Fprintln(w, "Mode:   adjusted (manual override)")
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "LT1  %s\n", formatPoint(a.Result.LT1, units))
	fmt.Fprintf(w, "LT2  %s\n", formatPoint(a.Result.LT2, units))
	if a.Result.Notes != "" {
		fmt.Fprintf(w, "Notes: %s\n", a.Result.Notes)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Zones")
	for _, z := range a.Zones {
		fmt.Fprintf(w, "  Z%d %-18s %8s - %s\n", z.ID, z.Name,
			units.FormatLoadValue(z.Range[0]), units.FormatLoad(z.Range[1]))
	}

	if len(a.Corrections) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Corrected stages")
	for _, c := range a.Corrections {
		fmt.Fprintf(w, "  stage %d (%.0f%% complete)\n", c.Stage, c.CompletionRatio*100)
		if c.Final && c.TheoreticalLoad != nil {
			fmt.Fprintf(w, "    theoretical load %s -> %s (%s, confidence %.2f)\n",
				units.FormatLoadValue(c.MeasuredLoad), units.FormatLoad(c.TheoreticalLoad.Value),
				c.TheoreticalLoad.Method, c.TheoreticalLoad.Confidence)
			continue
		}
		if c.Lactate != nil {
			fmt.Fprintf(w, "    lactate %.2f -> %.2f mmol/L (%s, confidence %.2f)\n",
				c.MeasuredLactate, c.Lactate.Value, c.Lactate.Method, c.Lactate.Confidence)
		}
		if c.HeartRate != nil {
			fmt.Fprintf(w, "    heart rate -> %.0f bpm (%s)\n", c.HeartRate.Value, c.HeartRate.Method)
		}
	}
}

func printStageResult(w io.Writer, label string, r stage.Result) {
	fmt.Fprintf(w, "%-17s %.2f (%s, confidence %.2f)\n", label+":", r.Value, r.Method, r.Confidence)
	if r.Note != "" {
		fmt.Fprintf(w, "%-17s %s\n", "", r.Note)
	}
}

func formatPoint(p *threshold.Point, units tui.Units) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%s @ %.2f mmol/L", units.FormatLoad(p.Load), p.Lactate)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// parseSample parses LOAD:LACTATE[:HR]. An empty string means no stage.
func parseSample(s string) (*stage.Sample, error) {
	if s == "" {
		return nil, nil
	}
	vals, err := parseFloats(s, ":")
	if err != nil {
		return nil, err
	}
	if len(vals) < 2 || len(vals) > 3 {
		return nil, fmt.Errorf("expected LOAD:LACTATE[:HR], got %q", s)
	}

	sample := &stage.Sample{Load: vals[0], Lactate: vals[1]}
	if len(vals) == 3 {
		sample.HeartRate = &vals[2]
	}
	return sample, nil
}

// parsePoint parses LOAD or LOAD:LACTATE. An empty string means unset.
func parsePoint(s string) (*threshold.Point, error) {
	if s == "" {
		return nil, nil
	}
	vals, err := parseFloats(s, ":")
	if err != nil {
		return nil, err
	}
	switch len(vals) {
	case 1:
		return &threshold.Point{Load: vals[0]}, nil
	case 2:
		return &threshold.Point{Load: vals[0], Lactate: vals[1]}, nil
	}
	return nil, fmt.Errorf("expected LOAD or LOAD:LACTATE, got %q", s)
}

func parseOverride(lt1, lt2, zones string) (service.OverrideInput, error) {
	var in service.OverrideInput
	var err error

	if in.LT1, err = parsePoint(lt1); err != nil {
		return in, fmt.Errorf("--lt1: %w", err)
	}
	if in.LT2, err = parsePoint(lt2); err != nil {
		return in, fmt.Errorf("--lt2: %w", err)
	}
	if zones != "" {
		vals, err := parseFloats(zones, ",")
		if err != nil {
			return in, fmt.Errorf("--zones: %w", err)
		}
		if len(vals) != 4 {
			return in, fmt.Errorf("--zones: expected 4 boundaries, got %d", len(vals))
		}
		var b [4]float64
		copy(b[:], vals)
		in.Boundaries = &b
	}
	return in, nil
}

func parseFloats(s, sep string) ([]float64, error) {
	parts := strings.Split(s, sep)
	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", p)
		}
		vals[i] = v
	}
	return vals, nil
}
