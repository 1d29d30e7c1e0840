package quantity

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/sphfetch/snapshot"
)

// Args are the extra arguments a SeriesFunc is called with.
type Args struct {
	Positional []interface{}
	Keyword    map[string]interface{}
}

func (args Args) copy() Args {
	out := Args{}
	if args.Positional != nil {
		out.Positional = append([]interface{}{}, args.Positional...)
	}
	if args.Keyword != nil {
		out.Keyword = make(map[string]interface{}, len(args.Keyword))
		for k, v := range args.Keyword {
			out.Keyword[k] = v
		}
	}
	return out
}

// StringArg returns the string keyword argument key, or def if it isn't set.
func (args Args) StringArg(key, def string) (string, error) {
	v, ok := args.Keyword[key]
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf(
			"Keyword argument '%s' must be a string, but is %T.", key, v,
		)
	}
	return s, nil
}

// SeriesFunc computes a single number from a snapshot.
type SeriesFunc func(snap snapshot.Snapshot, args Args) (float64, error)

type simMode int

const (
	currentSim simMode = iota
	indexSim
	handleSim
)

// SimRef names a simulation to be resolved when a time series is fetched.
// The zero value refers to the session's current simulation.
type SimRef struct {
	mode  simMode
	index int
	sim   snapshot.Simulation
}

// CurrentSim refers to the current simulation.
func CurrentSim() SimRef { return SimRef{} }

// SimIndex refers to the i-th loaded simulation.
func SimIndex(i int) SimRef { return SimRef{mode: indexSim, index: i} }

// SimHandle refers to an already resolved simulation.
func SimHandle(sim snapshot.Simulation) SimRef {
	return SimRef{mode: handleSim, sim: sim}
}

// TimeSeriesFetcher applies a function to every snapshot of a simulation.
type TimeSeriesFetcher struct {
	reg  *Registry
	name string
	fn   SeriesFunc
	args Args
}

func (f *TimeSeriesFetcher) Name() string { return f.name }
func (f *TimeSeriesFetcher) Class() Class { return Series }

func (f *TimeSeriesFetcher) simulation(ref SimRef) (snapshot.Simulation, error) {
	if ref.mode == handleSim {
		if ref.sim == nil {
			return nil, fmt.Errorf(
				"Time series '%s' was given a nil simulation.", f.name,
			)
		}
		return ref.sim, nil
	}
	if f.reg.session == nil {
		return nil, fmt.Errorf(
			"Time series '%s' needs a session to find its simulation.", f.name,
		)
	}
	if ref.mode == indexSim {
		return f.reg.session.Simulation(ref.index)
	}
	return f.reg.session.CurrentSimulation()
}

// Fetch returns the function's value for every snapshot of the simulation,
// in order. Any failure aborts the whole fetch.
func (f *TimeSeriesFetcher) Fetch(ref SimRef) ([]float64, error) {
	sim, err := f.simulation(ref)
	if err != nil {
		return nil, err
	}
	if f.reg.session == nil {
		return collect(f.name, snapshot.NewIterator(sim), f.fn, f.args)
	}
	it, err := f.reg.session.Snapshots(sim)
	if err != nil {
		return nil, err
	}
	return collect(f.name, it, f.fn, f.args)
}

func collect(
	name string, it *snapshot.Iterator, fn SeriesFunc, args Args,
) ([]float64, error) {
	out := []float64{}
	for it.Next() {
		x, err := fn(it.Snapshot(), args)
		if err != nil {
			return nil, fmt.Errorf(
				"Time series '%s' failed on snapshot %d: %w", name, it.Index(), err,
			)
		}
		out = append(out, x)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SnapshotTime is a SeriesFunc which returns the time of each snapshot.
func SnapshotTime(snap snapshot.Snapshot, _ Args) (float64, error) {
	return snap.Time(), nil
}

// ParticleCount is a SeriesFunc which returns the number of particles in
// each snapshot. Snapshots which are read lazily are loaded first, so an
// unreadable file is an error rather than an empty snapshot.
func ParticleCount(snap snapshot.Snapshot, _ Args) (float64, error) {
	if l, ok := snap.(loader); ok {
		if err := l.Load(); err != nil {
			return 0, err
		}
	}
	return float64(snap.Len()), nil
}

type loader interface {
	Load() error
}

// Statistic is a reduction of an array to one number.
type Statistic string

const (
	Min  Statistic = "min"
	Max  Statistic = "max"
	Mean Statistic = "mean"
	Sum  Statistic = "sum"
)

// Valid returns true if s is a known Statistic.
func (s Statistic) Valid() bool {
	switch s {
	case Min, Max, Mean, Sum:
		return true
	}
	return false
}

func (s Statistic) reduce(xs []float64) float64 {
	if len(xs) == 0 {
		if s == Sum {
			return 0
		}
		return math.NaN()
	}

	out := xs[0]
	switch s {
	case Min:
		for _, x := range xs[1:] {
			out = math.Min(out, x)
		}
	case Max:
		for _, x := range xs[1:] {
			out = math.Max(out, x)
		}
	case Mean, Sum:
		for _, x := range xs[1:] {
			out += x
		}
		if s == Mean {
			out /= float64(len(xs))
		}
	}
	return out
}

// QuantityStatistic returns a SeriesFunc which fetches the named quantity
// from each snapshot and reduces it with stat. The result is in physical
// units. The keyword arguments "unit" and "kind" are passed on to the
// quantity's Request. The quantity is looked up every time the function is
// called, so it may be registered after the time series.
func QuantityStatistic(reg *Registry, quantity string, stat Statistic) SeriesFunc {
	return func(snap snapshot.Snapshot, args Args) (float64, error) {
		if !stat.Valid() {
			return 0, fmt.Errorf("Unknown statistic '%s'.", stat)
		}
		unit, err := args.StringArg("unit", "")
		if err != nil {
			return 0, err
		}
		kind, err := args.StringArg("kind", "")
		if err != nil {
			return 0, err
		}

		f, err := reg.Quantity(quantity)
		if err != nil {
			return 0, err
		}
		res, err := f.Fetch(Request{
			Kind: snapshot.Kind(kind), Snapshot: snap, Unit: unit,
		})
		if err != nil {
			return 0, err
		}
		return stat.reduce(res.Values) * res.Scale, nil
	}
}
