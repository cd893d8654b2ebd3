package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
)

var (
	dataDir     string
	configFile  string
	preset      string
	backendName string
	seconds     int
	rate        float64
	seed        int64
	workers     int
	logLevel    string
	noSave      bool
	groupName   string
	outFile     string
	liveLimit   int
	sweepSeeds  []float64
	sweepWork   []float64
	sweepRates  []float64
	analyze     bool
	rasterSVG   string
)

// errDivergent makes the process exit non-zero after the report is printed.
var errDivergent = errors.New("backends are not equivalent")

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "spikesim",
		Short:             "spiking network simulator and backend equivalence checker",
		SilenceUsage:      true,
		PersistentPreRunE: setupLogging,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".spikesim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (trace, debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate a network on one backend",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().StringVar(&backendName, "backend", "", "compute backend (default: first configured)")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().BoolVar(&analyze, "analyze", false, "print firing statistics per group")
	runCmd.Flags().StringVar(&rasterSVG, "raster-svg", "", "write the first monitored group's raster to this svg file")

	compareCmd := &cobra.Command{
		Use:   "compare [run_a run_b]",
		Short: "check that two backends produce the same spikes",
		Long: "Without arguments, runs the configured network on both configured backends and compares them.\n" +
			"With two stored run ids, compares their final counts.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return errors.New("compare takes no arguments or two run ids")
			}
			return nil
		},
		RunE: compareBackends,
	}
	addConfigFlags(compareCmd)
	compareCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs and report")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot spike counts per neuron",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&groupName, "group", "", "plot only this group")

	exportCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export per-neuron counts as csv",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in network presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a network with a live terminal view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)
	liveCmd.Flags().StringVar(&backendName, "backend", "", "compute backend (default: first configured)")
	liveCmd.Flags().IntVar(&liveLimit, "limit", 0, "stop after this many seconds (0 runs until quit)")

	describeCmd := &cobra.Command{
		Use:   "describe",
		Short: "show the size and memory footprint of a network without running it",
		Args:  cobra.NoArgs,
		RunE:  describeNetwork,
	}
	addConfigFlags(describeCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "compare backends over a grid of seeds, worker counts and rates",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().Float64SliceVar(&sweepSeeds, "seeds", nil, "seeds to try")
	sweepCmd.Flags().Float64SliceVar(&sweepWork, "worker-counts", nil, "parallel worker counts to try")
	sweepCmd.Flags().Float64SliceVar(&sweepRates, "rates", nil, "stimulus rates to try")

	rootCmd.AddCommand(runCmd, compareCmd, listCmd, showCmd, plotCmd, exportCmd, presetsCmd, liveCmd, describeCmd, sweepCmd)
	return rootCmd
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().IntVar(&seconds, "seconds", 0, "simulated seconds")
	cmd.Flags().Float64Var(&rate, "rate", 0, "stimulus rate in Hz")
	cmd.Flags().Int64Var(&seed, "seed", 0, "wiring seed")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel backend workers (0 = all cpus)")
}
