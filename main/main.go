package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phil-mansfield/sphfetch"
	sphio "github.com/phil-mansfield/sphfetch/io"
	"github.com/phil-mansfield/sphfetch/quantity"
	"github.com/phil-mansfield/sphfetch/snapshot"
)

// FileGroup contains utility files for logging and writing profiles to.
type FileGroup struct {
	log, prof *os.File
}

// Close closes the files inside FileGroup.
func (fg *FileGroup) Close() {
	if fg.log != nil {
		err := fg.log.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
		fg.log = nil
	}

	if fg.prof != nil {
		pprof.StopCPUProfile()
		err := fg.prof.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
		fg.prof = nil
	}
}

var (
	configFile, logFile, profileFile string
	simIdx, snapIdx                  int
	unitName, kindName               string
	raw                              bool

	files = &FileGroup{}

	rootCmd = &cobra.Command{
		Use:   "sphfetch",
		Short: "Compute named quantities from SPH simulation snapshots",
		Long: `sphfetch loads the simulations and quantities described by a
session file and prints direct quantities, derived quantities, and time
series computed from them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return openFiles(files)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			files.Close()
		},
	}

	quantitiesCmd = &cobra.Command{
		Use:   "quantities",
		Short: "List every quantity and time series the session knows about",
		Args:  cobra.NoArgs,
		RunE:  runQuantities,
	}

	fetchCmd = &cobra.Command{
		Use:   "fetch [quantity]",
		Short: "Print a quantity for every particle of a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  runFetch,
	}

	seriesCmd = &cobra.Command{
		Use:   "series [name]",
		Short: "Print a time series over every snapshot of a simulation",
		Args:  cobra.ExactArgs(1),
		RunE:  runSeries,
	}

	exampleCmd = &cobra.Command{
		Use:   "example-config",
		Short: "Print an example session file to stdout",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), sphio.ExampleConfigFile)
		},
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "Session file to load.")
	pf.StringVar(&logFile, "LogFile", "", "File which log output is written to.")
	pf.StringVar(&profileFile, "ProfileFile", "", "File which a CPU profile is written to.")

	for _, cmd := range []*cobra.Command{fetchCmd, seriesCmd} {
		cmd.Flags().IntVar(
			&simIdx, "sim", -1, "Index of the simulation. Default is the current simulation.",
		)
	}
	fetchCmd.Flags().IntVar(
		&snapIdx, "snap", -1, "Index of the snapshot. Default is the current snapshot.",
	)
	fetchCmd.Flags().StringVar(
		&unitName, "unit", "", "Output unit. Default is the simulation's output unit.",
	)
	fetchCmd.Flags().StringVar(
		&kindName, "kind", "", "Particle kind. Default is the default particle kind.",
	)
	fetchCmd.Flags().BoolVar(
		&raw, "raw", false, "Print values in code units instead of scaling them.",
	)

	rootCmd.AddCommand(quantitiesCmd, fetchCmd, seriesCmd, exampleCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		files.Close()
		os.Exit(1)
	}
}

func openFiles(fg *FileGroup) error {
	if logFile != "" {
		var err error
		if fg.log, err = os.Create(logFile); err != nil {
			return err
		}
		log.SetOutput(fg.log)
	}

	if profileFile != "" {
		var err error
		if fg.prof, err = os.Create(profileFile); err != nil {
			return err
		}
		if err = pprof.StartCPUProfile(fg.prof); err != nil {
			return err
		}
	}
	return nil
}

func loadAnalysis() (*sphfetch.Analysis, error) {
	if configFile == "" {
		return nil, fmt.Errorf("A session file must be given with --config.")
	}
	return sphfetch.Load(configFile)
}

func runQuantities(cmd *cobra.Command, args []string) error {
	an, err := loadAnalysis()
	if err != nil {
		return err
	}
	printQuantities(cmd.OutOrStdout(), an)
	return nil
}

func printQuantities(w io.Writer, an *sphfetch.Analysis) {
	for _, name := range an.Registry.Known() {
		f, err := an.Registry.Quantity(name)
		if err != nil {
			continue
		}
		switch f := f.(type) {
		case *quantity.FormulaFetcher:
			fmt.Fprintf(w, "%-10s %-8s %s [%s]\n",
				name, f.Class(), f.Formula(), f.Scaling())
		default:
			fmt.Fprintf(w, "%-10s %-8s\n", name, f.Class())
		}
	}
	for _, name := range an.Registry.TimeSeriesNames() {
		fmt.Fprintf(w, "%-10s %s\n", name, quantity.Series)
	}
}

func runFetch(cmd *cobra.Command, args []string) error {
	an, err := loadAnalysis()
	if err != nil {
		return err
	}

	req := quantity.Request{Kind: snapshot.Kind(kindName), Unit: unitName}
	if simIdx >= 0 || snapIdx >= 0 {
		if req.Snapshot, err = selectSnapshot(an, simIdx, snapIdx); err != nil {
			return err
		}
	}

	res, err := an.Fetch(args[0], req)
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), args[0], res, raw)
	return nil
}

// selectSnapshot finds a snapshot by index. Negative indices mean
// "current". A snapshot index left unset for a simulation other than the
// current one selects that simulation's first snapshot.
func selectSnapshot(
	an *sphfetch.Analysis, sim, snap int,
) (snapshot.Snapshot, error) {
	curSim, curSnap := an.Buffer.Current()
	if sim < 0 {
		sim = curSim
	}
	if snap < 0 {
		if sim == curSim {
			snap = curSnap
		} else {
			snap = 0
		}
	}

	s, err := an.Buffer.Simulation(sim)
	if err != nil {
		return nil, err
	}
	return s.Snapshot(snap)
}

func printResult(w io.Writer, name string, res *quantity.Result, raw bool) {
	if raw {
		fmt.Fprintf(w, "# %s (code units)\n", name)
	} else {
		fmt.Fprintf(w, "# %s [%s] (%s)\n", name, res.Unit.Name, res.Unit.Label)
	}

	vals := res.Values
	if !raw {
		vals = res.Scaled()
	}
	strs := make([]string, len(vals))
	for i := range vals {
		strs[i] = fmt.Sprintf("%.8g", vals[i])
	}
	fmt.Fprintln(w, strings.Join(strs, "\n"))
}

func runSeries(cmd *cobra.Command, args []string) error {
	an, err := loadAnalysis()
	if err != nil {
		return err
	}

	ref := quantity.CurrentSim()
	if simIdx >= 0 {
		ref = quantity.SimIndex(simIdx)
	}
	xs, err := an.TimeSeries(args[0], ref)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", args[0])
	for i, x := range xs {
		fmt.Fprintf(cmd.OutOrStdout(), "%4d %.8g\n", i, x)
	}
	return nil
}
