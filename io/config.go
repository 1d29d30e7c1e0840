package io

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/gcfg.v1"

	"github.com/phil-mansfield/sphfetch/quantity"
	"github.com/phil-mansfield/sphfetch/snapshot"
	"github.com/phil-mansfield/sphfetch/units"
)

const ExampleConfigFile = `# An sphfetch session. Simulations are loaded in alphabetical order, and
# the last one loaded is current unless [Session] says otherwise.

[Session]
# Index of the current simulation and of the current snapshot within it.
# Simulation = 0
# Snapshot = 0

# Print a line every time a snapshot file is read.
# Log = true

#########
# Units #
#########

# Each [Unit] section changes the code unit (the unit snapshot files are
# written in) and output unit (the unit results are shown in) of one
# dimension. Dimensions are r, m, t, v, a, rho, u, dudt, and E.
[Unit "r"]
Code = pc
Output = au

[Unit "v"]
Output = km_s

###############
# Simulations #
###############

[Simulation "disc"]
# Number of spatial dimensions. Must be 1, 2, or 3.
Dimensions = 3

# Array stored in each column of the snapshot files. Use _ to skip a
# column. Recognized arrays: x y z vx vy vz ax ay az m h rho u dudt.
Columns = x y z vx vy vz m h rho u

# Snapshot files, one per line, in time order.
Input = path/to/disc_000.dat
Input = path/to/disc_001.dat

# Alternatively, a printf format string with a single %d, along with the
# (inclusive) range it iterates over. If IterationEnd isn't set, files will
# be read until one is missing.
# IteratedInput = path/to/disc_%03d.dat
# IterationStart = 0
# IterationEnd = 100

# Time of the first snapshot and the spacing between snapshots, in code
# units.
# StartTime = 0
# TimeStep = 0.1

#######################
# Derived Quantities  #
#######################

# A formula over direct quantities. Dimension names a dimension of the unit
# system, which lets the quantity be converted into any unit of that
# dimension.
[Quantity "vmag"]
Formula = sqrt(vx^2 + vy^2 + vz^2)
Dimension = v

# Alternatively, a fixed Scale along with a unit name and LaTeX label. No
# unit conversion is possible for quantities like this.
[Quantity "ekin"]
Formula = 0.5 * m * (vx^2 + vy^2 + vz^2)
Scale = 1.989e43
UnitName = J
UnitLabel = J

###############
# Time Series #
###############

# Function can be one of: time | count | statistic. For statistic,
# Quantity and Statistic (min | max | mean | sum) must also be set.
[TimeSeries "t"]
Function = time

[TimeSeries "max_rho"]
Function = statistic
Quantity = rho
Statistic = max
# Unit = g_cm3`

type SessionConfig struct {
	Simulation, Snapshot int
	Log                  bool
}

type UnitConfig struct {
	Code, Output string
}

type SimulationConfig struct {
	Dimensions int
	Columns    string

	Input                        []string
	IteratedInput                string
	IterationStart, IterationEnd int
	StartTime, TimeStep          float64
}

type QuantityConfig struct {
	Formula   string
	Dimension string

	Scale               float64
	UnitName, UnitLabel string
}

type TimeSeriesConfig struct {
	Function  string
	Quantity  string
	Statistic string
	Unit      string
	Kind      string
}

// Config is the full contents of a session file.
type Config struct {
	Session    SessionConfig
	Unit       map[string]*UnitConfig
	Simulation map[string]*SimulationConfig
	Quantity   map[string]*QuantityConfig
	TimeSeries map[string]*TimeSeriesConfig
}

// DefaultConfig returns a Config with every optional value set to its
// default.
func DefaultConfig() *Config {
	return &Config{Session: SessionConfig{Simulation: -1}}
}

// ReadConfig reads and checks the session file fname.
func ReadConfig(fname string) (*Config, error) {
	con := DefaultConfig()
	if err := gcfg.ReadFileInto(con, fname); err != nil {
		return nil, err
	}
	return con, con.CheckInit()
}

// ParseConfig is identical to ReadConfig, but reads the file's contents
// from text.
func ParseConfig(text string) (*Config, error) {
	con := DefaultConfig()
	if err := gcfg.ReadStringInto(con, text); err != nil {
		return nil, err
	}
	return con, con.CheckInit()
}

// CheckInit checks every section of con.
func (con *Config) CheckInit() error {
	for _, name := range sortedKeys(con.Simulation) {
		if err := con.Simulation[name].CheckInit(name); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(con.Quantity) {
		if err := con.Quantity[name].CheckInit(name); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(con.TimeSeries) {
		if err := con.TimeSeries[name].CheckInit(name); err != nil {
			return err
		}
	}
	if _, err := con.Units(); err != nil {
		return err
	}
	return nil
}

// SimulationNames returns the names of all configured simulations in the
// order they are loaded.
func (con *Config) SimulationNames() []string {
	return sortedKeys(con.Simulation)
}

// Units returns the unit system described by the [Unit] sections.
func (con *Config) Units() (*units.SimUnits, error) {
	su := units.NewSimUnits()
	for _, attr := range sortedKeys(con.Unit) {
		u := con.Unit[attr]
		if err := su.Configure(attr, u.Code, u.Output); err != nil {
			return nil, fmt.Errorf("Invalid [Unit \"%s\"] section: %s", attr, err)
		}
	}
	return su, nil
}

func sortedKeys(m interface{}) []string {
	keys := []string{}
	switch m := m.(type) {
	case map[string]*UnitConfig:
		for k := range m {
			keys = append(keys, k)
		}
	case map[string]*SimulationConfig:
		for k := range m {
			keys = append(keys, k)
		}
	case map[string]*QuantityConfig:
		for k := range m {
			keys = append(keys, k)
		}
	case map[string]*TimeSeriesConfig:
		for k := range m {
			keys = append(keys, k)
		}
	default:
		panic(fmt.Sprintf("Unrecognized map type %T", m))
	}
	sort.Strings(keys)
	return keys
}

func (sim *SimulationConfig) ColumnNames() []string {
	return strings.FieldsFunc(sim.Columns, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

func (sim *SimulationConfig) CheckInit(name string) error {
	if sim.Dimensions < 1 || sim.Dimensions > 3 {
		return fmt.Errorf(
			"Simulation '%s' must have 1, 2, or 3 Dimensions, not %d.",
			name, sim.Dimensions,
		)
	}

	cols := sim.ColumnNames()
	if len(cols) == 0 {
		return fmt.Errorf("Simulation '%s' has no Columns.", name)
	}
	for _, col := range cols {
		if _, ok := snapshot.Attrs[col]; !ok && col != snapshot.SkipColumn {
			return fmt.Errorf(
				"Simulation '%s' has an unrecognized column, '%s'.", name, col,
			)
		}
	}

	if len(sim.Input) == 0 && sim.IteratedInput == "" {
		return fmt.Errorf(
			"Simulation '%s' needs either Input or IteratedInput.", name,
		)
	} else if len(sim.Input) > 0 && sim.IteratedInput != "" {
		return fmt.Errorf(
			"Simulation '%s' sets both Input and IteratedInput.", name,
		)
	} else if sim.IteratedInput != "" &&
		strings.Count(sim.IteratedInput, "%") != 1 {
		return fmt.Errorf(
			"IteratedInput of simulation '%s' must contain exactly one "+
				"format verb, but is '%s'.", name, sim.IteratedInput,
		)
	} else if sim.IterationStart < 0 {
		return fmt.Errorf(
			"Simulation '%s' has a negative IterationStart, %d.",
			name, sim.IterationStart,
		)
	} else if sim.IterationEnd != 0 && sim.IterationEnd < sim.IterationStart {
		return fmt.Errorf(
			"Simulation '%s' has IterationEnd = %d before IterationStart = %d.",
			name, sim.IterationEnd, sim.IterationStart,
		)
	}

	return nil
}

// Files returns the snapshot files of the simulation in order.
func (sim *SimulationConfig) Files() []string {
	if sim.IteratedInput == "" {
		return sim.Input
	}

	files := []string{}
	for i := sim.IterationStart; ; i++ {
		if sim.IterationEnd != 0 && i > sim.IterationEnd {
			break
		}
		file := fmt.Sprintf(sim.IteratedInput, i)
		if sim.IterationEnd == 0 {
			if _, err := os.Stat(file); err != nil {
				break
			}
		}
		files = append(files, file)
	}
	return files
}

// Run creates the simulation's snapshots. Files are not read until their
// arrays are needed.
func (sim *SimulationConfig) Run(
	name string, su *units.SimUnits, logFlag bool,
) *snapshot.Run {
	run := snapshot.NewRun(name, su)
	cols := sim.ColumnNames()
	for i, file := range sim.Files() {
		t := sim.StartTime + float64(i)*sim.TimeStep
		snap := snapshot.NewTable(file, cols, sim.Dimensions, t)
		snap.Log = logFlag
		run.Add(snap)
	}
	return run
}

func (q *QuantityConfig) CheckInit(name string) error {
	if strings.TrimSpace(q.Formula) == "" {
		return fmt.Errorf("Quantity '%s' has no Formula.", name)
	} else if q.Dimension != "" && q.Scale != 0 {
		return fmt.Errorf(
			"Quantity '%s' sets both a Dimension and a Scale.", name,
		)
	}
	return nil
}

// Scaling returns the quantity.Scaling described by q.
func (q *QuantityConfig) Scaling() quantity.Scaling {
	if q.Dimension != "" {
		return quantity.NamedUnit(q.Dimension)
	} else if q.Scale != 0 {
		return quantity.FixedScale(q.Scale)
	}
	return quantity.FixedScale(1)
}

// Register adds the quantity to reg.
func (q *QuantityConfig) Register(
	reg *quantity.Registry, name string,
) (*quantity.FormulaFetcher, error) {
	info := units.Info{Label: q.UnitLabel, Name: q.UnitName}
	return reg.Register(name, q.Formula, info, q.Scaling())
}

func (ts *TimeSeriesConfig) CheckInit(name string) error {
	switch strings.ToLower(ts.Function) {
	case "time", "count":
	case "statistic":
		if ts.Quantity == "" {
			return fmt.Errorf(
				"Time series '%s' is a statistic, but has no Quantity.", name,
			)
		} else if !quantity.Statistic(strings.ToLower(ts.Statistic)).Valid() {
			return fmt.Errorf(
				"Time series '%s' has an invalid Statistic, '%s'.",
				name, ts.Statistic,
			)
		}
	default:
		return fmt.Errorf(
			"Time series '%s' has an unrecognized Function, '%s'.",
			name, ts.Function,
		)
	}
	return nil
}

// Register adds the time series to reg.
func (ts *TimeSeriesConfig) Register(
	reg *quantity.Registry, name string,
) (*quantity.TimeSeriesFetcher, error) {
	var fn quantity.SeriesFunc
	args := quantity.Args{Keyword: map[string]interface{}{}}

	switch strings.ToLower(ts.Function) {
	case "time":
		fn = quantity.SnapshotTime
	case "count":
		fn = quantity.ParticleCount
	case "statistic":
		stat := quantity.Statistic(strings.ToLower(ts.Statistic))
		fn = quantity.QuantityStatistic(reg, ts.Quantity, stat)
		if ts.Unit != "" {
			args.Keyword["unit"] = ts.Unit
		}
		if ts.Kind != "" {
			args.Keyword["kind"] = ts.Kind
		}
	default:
		return nil, fmt.Errorf(
			"Time series '%s' has an unrecognized Function, '%s'.",
			name, ts.Function,
		)
	}

	return reg.RegisterTimeSeries(name, fn, args)
}
