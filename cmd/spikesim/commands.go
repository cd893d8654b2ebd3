package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/san-kum/spikesim/internal/analysis"
	"github.com/san-kum/spikesim/internal/compute"
	"github.com/san-kum/spikesim/internal/config"
	"github.com/san-kum/spikesim/internal/equiv"
	"github.com/san-kum/spikesim/internal/export"
	"github.com/san-kum/spikesim/internal/monitor"
	"github.com/san-kum/spikesim/internal/snn"
	"github.com/san-kum/spikesim/internal/storage"
	"github.com/san-kum/spikesim/internal/sweep"
	"github.com/san-kum/spikesim/internal/tui"
	"github.com/san-kum/spikesim/internal/viz"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func setupLogging(cmd *cobra.Command, args []string) error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	logrus.SetLevel(level)
	return nil
}

// loadConfig resolves preset, then config file, then flags that were set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("seconds") {
		cfg.Seconds = seconds
	}
	if flags.Changed("rate") {
		cfg.Stimulus.Rate = rate
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func selectBackend(cfg *config.Config) (compute.Backend, error) {
	name := backendName
	if name == "" {
		name = cfg.Backends[0]
	}
	return compute.Lookup(name, cfg.Workers)
}

func runMetadata(cfg *config.Config, out *equiv.RunOutput) storage.RunMetadata {
	return storage.RunMetadata{
		Name:       cfg.Name,
		Backend:    out.Backend,
		Seed:       cfg.Seed,
		Seconds:    cfg.Seconds,
		Rate:       cfg.Stimulus.Rate,
		ConfigYAML: cfg.YAML(),
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	b, err := selectBackend(cfg)
	if err != nil {
		return err
	}
	setup, err := cfg.Setup()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "simulating %s for %ds on %s\n\n", cfg.Name, cfg.Seconds, b.Name())
	out, err := equiv.Execute(setup, b)
	if err != nil {
		return err
	}
	if err := printTotals(cmd.OutOrStdout(), out, cfg.Seconds); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nelapsed %v\n", out.Result.Elapsed.Round(time.Microsecond))

	if analyze {
		if err := printAnalysis(cmd.OutOrStdout(), out, cfg.Seconds); err != nil {
			return err
		}
	}
	if rasterSVG != "" && len(out.Groups) > 0 {
		g := out.Groups[0]
		svg := export.RasterSVG(g.Raster.Events(), len(g.Spikes), cfg.Seconds*monitor.MsPerSecond, 800, 400)
		if err := os.WriteFile(rasterSVG, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s raster to %s\n", g.Ref.Name, rasterSVG)
	}

	if noSave {
		return nil
	}
	st, err := storage.Open(dataDir)
	if err != nil {
		return err
	}
	defer st.Close()
	id, err := st.SaveRun(cmd.Context(), runMetadata(cfg, out), out)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved run %d\n", id)
	return nil
}

func printTotals(w io.Writer, out *equiv.RunOutput, secs int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tN\tSPIKES\tRATE")
	for _, g := range out.Groups {
		hz := 0.0
		if len(g.Spikes) > 0 && secs > 0 {
			hz = float64(g.Total) / float64(len(g.Spikes)) / float64(secs)
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f Hz\n", g.Ref.Name, len(g.Spikes), g.Total, hz)
	}
	return tw.Flush()
}

const analysisBinMs = 5

func printAnalysis(w io.Writer, out *equiv.RunOutput, secs int) error {
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tISI MEAN\tISI CV\tOSCILLATION")
	for _, g := range out.Groups {
		events := g.Raster.Events()
		isi := analysis.ISIStats(events, len(g.Spikes))
		rate := analysis.PopulationRate(events, len(g.Spikes), analysisBinMs, secs*monitor.MsPerSecond)
		freq, _ := analysis.DominantFrequency(rate, analysisBinMs)
		fmt.Fprintf(tw, "%s\t%.1f ms\t%.3f\t%.1f Hz\n", g.Ref.Name, isi.MeanMs, isi.CV, freq)
	}
	return tw.Flush()
}

func compareBackends(cmd *cobra.Command, args []string) error {
	if len(args) == 2 {
		return compareStored(cmd, args)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	v, err := cfg.Validator()
	if err != nil {
		return err
	}
	report, outs, err := v.RunOutputs()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), viz.RenderReport(report))

	if !noSave {
		st, err := storage.Open(dataDir)
		if err != nil {
			return err
		}
		defer st.Close()
		var ids [2]int64
		for i, out := range outs {
			if ids[i], err = st.SaveRun(cmd.Context(), runMetadata(cfg, out), out); err != nil {
				return err
			}
		}
		rid, err := st.SaveReport(cmd.Context(), ids[0], ids[1], report)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved runs %d, %d and report %d\n", ids[0], ids[1], rid)
	}

	if !report.Equivalent() {
		return errDivergent
	}
	return nil
}

func compareStored(cmd *cobra.Command, args []string) error {
	idA, err := parseRunID(args[0])
	if err != nil {
		return err
	}
	idB, err := parseRunID(args[1])
	if err != nil {
		return err
	}

	st, err := storage.Open(dataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	a, err := st.LoadCounts(cmd.Context(), idA)
	if err != nil {
		return err
	}
	b, err := st.LoadCounts(cmd.Context(), idB)
	if err != nil {
		return err
	}
	report, err := equiv.Compare(a, b, equiv.Exact)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), viz.RenderReport(report))
	if !report.Equivalent() {
		return errDivergent
	}
	return nil
}

func parseRunID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid run id %q", s)
	}
	return id, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := storage.Open(dataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tBACKEND\tTIME\tDURATION\tRATE\tSPIKES\tELAPSED")
	for _, run := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%ds\t%.1f Hz\t%d\t%v\n",
			run.ID,
			run.Name,
			run.Backend,
			run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			run.Seconds,
			run.Rate,
			run.TotalSpikes(),
			run.Elapsed.Round(time.Microsecond),
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	id, err := parseRunID(args[0])
	if err != nil {
		return err
	}
	st, err := storage.Open(dataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.LoadRun(cmd.Context(), id)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, viz.Title.Render(fmt.Sprintf("run %d: %s", meta.ID, meta.Name)))
	fmt.Fprintln(out, viz.Metric("backend", meta.Backend))
	fmt.Fprintln(out, viz.Metric("created", meta.CreatedAt.Local().Format(time.RFC3339)))
	fmt.Fprintln(out, viz.Metric("duration", fmt.Sprintf("%ds", meta.Seconds)))
	fmt.Fprintln(out, viz.Metric("stimulus", fmt.Sprintf("%.1f Hz", meta.Rate)))
	fmt.Fprintln(out, viz.Metric("seed", strconv.FormatInt(meta.Seed, 10)))
	fmt.Fprintln(out, viz.Metric("elapsed", meta.Elapsed.String()))
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tID\tN\tSPIKES")
	for _, g := range meta.Groups {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", g.Name, g.ID, g.Size, g.Total)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if meta.ConfigYAML != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, viz.Subtle.Render(meta.ConfigYAML))
	}
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	id, err := parseRunID(args[0])
	if err != nil {
		return err
	}
	st, err := storage.Open(dataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.LoadCounts(cmd.Context(), id)
	if err != nil {
		return err
	}
	if groupName != "" {
		g, ok := run.Group(groupName)
		if !ok {
			return fmt.Errorf("run %d has no group %q", id, groupName)
		}
		fmt.Fprintln(cmd.OutOrStdout(), viz.PlotCounts(g.Ref.Name, g.Spikes))
		return nil
	}
	for _, g := range run.Groups {
		fmt.Fprintln(cmd.OutOrStdout(), viz.PlotCounts(g.Ref.Name, g.Spikes))
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	id, err := parseRunID(args[0])
	if err != nil {
		return err
	}
	st, err := storage.Open(dataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	w := cmd.OutOrStdout()
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return st.ExportCSV(cmd.Context(), id, w)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSECONDS\tRATE\tGROUPS\tNEURONS")
	for _, name := range config.ListPresets() {
		p := config.Presets[name]
		neurons := 0
		for _, g := range p.Groups {
			neurons += g.Size
		}
		fmt.Fprintf(w, "%s\t%d\t%.1f Hz\t%d\t%d\n", name, p.Seconds, p.Stimulus.Rate, len(p.Groups), neurons)
	}
	return w.Flush()
}

func describeNetwork(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	spec, err := cfg.Spec()
	if err != nil {
		return err
	}
	net, err := snn.NewNetwork(spec, cfg.Source())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), viz.Title.Render(cfg.Name))
	fmt.Fprint(cmd.OutOrStdout(), net.SizeReport())
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	b, err := selectBackend(cfg)
	if err != nil {
		return err
	}
	return tui.Run(cfg, b, liveLimit)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var names []string
	var ranges [][]float64
	for _, p := range []struct {
		name   string
		values []float64
	}{
		{sweep.ParamSeed, sweepSeeds},
		{sweep.ParamWorkers, sweepWork},
		{sweep.ParamRate, sweepRates},
	} {
		if len(p.values) > 0 {
			names = append(names, p.name)
			ranges = append(ranges, p.values)
		}
	}
	if len(names) == 0 {
		return fmt.Errorf("nothing to sweep: set --seeds, --worker-counts or --rates")
	}
	g, err := sweep.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "sweeping %d configurations of %s\n\n", g.Size(), cfg.Name)
	points, err := g.Search(ctx, cfg)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARAMS\tRESULT\tMAX|DELTA|\tFIRST DIVERGENCE")
	for _, p := range points {
		switch {
		case p.Err != nil:
			fmt.Fprintf(w, "%s\t%s\t-\t%v\n", p.Label(), viz.Fail.Render("ERROR"), p.Err)
		case p.Report.Equivalent():
			fmt.Fprintf(w, "%s\t%s\t%d\t-\n", p.Label(), viz.Pass.Render("ok"), p.Report.MaxAbsDelta())
		default:
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.Label(), viz.Fail.Render("DIVERGENT"), p.Report.MaxAbsDelta(), p.Report.Divergence)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if failed := sweep.Failures(points); len(failed) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d configurations failed\n", len(failed), len(points))
		return errDivergent
	}
	return nil
}
