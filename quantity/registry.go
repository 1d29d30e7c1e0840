/*package quantity resolves quantity names into arrays.

A quantity is either direct (stored verbatim in every snapshot, like "x" or
"rho"), derived (a formula over direct quantities registered at runtime,
like "vmag = sqrt(vx^2+vy^2+vz^2)"), or a time series (a function applied
to every snapshot of a simulation). A Registry hands out Fetchers for each
of these, and the Fetchers do the work of choosing a snapshot, checking that
the request makes sense for it, and computing the result.
*/
package quantity

import (
	"fmt"
	"sort"
	"sync"

	"github.com/phil-mansfield/sphfetch/snapshot"
	"github.com/phil-mansfield/sphfetch/units"
)

// DirectNames are the quantities stored in every snapshot.
var DirectNames = []string{
	"x", "y", "z", "vx", "vy", "vz", "ax", "ay", "az",
	"m", "h", "rho", "u", "dudt",
}

// Class says how a quantity is computed.
type Class int

const (
	Direct Class = iota
	Derived
	Series
)

func (c Class) String() string {
	switch c {
	case Direct:
		return "direct"
	case Derived:
		return "derived"
	case Series:
		return "time series"
	}
	return fmt.Sprintf("Class(%d)", int(c))
}

// Session supplies the "current" snapshot and simulation and iterates over
// simulations. buffer.Buffer is the usual implementation.
type Session interface {
	CurrentSnapshot() (snapshot.Snapshot, error)
	CurrentSimulation() (snapshot.Simulation, error)
	Simulation(i int) (snapshot.Simulation, error)
	Snapshots(sim snapshot.Simulation) (*snapshot.Iterator, error)
}

// Registry maps quantity names onto Fetchers. Direct quantities always take
// precedence over derived quantities of the same name. A Registry may be
// used from multiple goroutines.
type Registry struct {
	session Session
	direct  map[string]bool

	mu      sync.RWMutex
	derived map[string]*FormulaFetcher
	series  map[string]*TimeSeriesFetcher
}

// NewRegistry creates a Registry which knows only the direct quantities.
// session may be nil if every fetch names its snapshot and simulation
// explicitly.
func NewRegistry(session Session) *Registry {
	reg := &Registry{
		session: session,
		direct:  map[string]bool{},
		derived: map[string]*FormulaFetcher{},
		series:  map[string]*TimeSeriesFetcher{},
	}
	for _, name := range DirectNames {
		reg.direct[name] = true
	}
	return reg
}

// IsDirect returns true if name is a direct quantity.
func (reg *Registry) IsDirect(name string) bool { return reg.direct[name] }

// Known returns every direct and derived quantity name, sorted.
func (reg *Registry) Known() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	names := make([]string, 0, len(reg.direct)+len(reg.derived))
	for name := range reg.direct {
		names = append(names, name)
	}
	for name := range reg.derived {
		if !reg.direct[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// TimeSeriesNames returns the names of all registered time series, sorted.
func (reg *Registry) TimeSeriesNames() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	names := make([]string, 0, len(reg.series))
	for name := range reg.series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Quantity returns a Fetcher for the named direct or derived quantity.
func (reg *Registry) Quantity(name string) (ArrayFetcher, error) {
	if reg.direct[name] {
		return &DirectFetcher{reg, name}, nil
	}

	reg.mu.RLock()
	f, ok := reg.derived[name]
	reg.mu.RUnlock()
	if !ok {
		return nil, newError(ErrUnknownQuantity, name, nil,
			"We don't know how to compute '%s'.", name)
	}
	return f, nil
}

// Register compiles formula into a derived quantity and stores it under
// name, replacing any earlier quantity with the same name. The returned
// Fetcher can be held onto and fetched from directly.
func (reg *Registry) Register(
	name, formula string, info units.Info, scaling Scaling,
) (*FormulaFetcher, error) {
	f, err := newFormulaFetcher(reg, name, formula, info, scaling)
	if err != nil {
		return nil, err
	}

	reg.mu.Lock()
	reg.derived[name] = f
	reg.mu.Unlock()
	return f, nil
}

// RegisterTimeSeries stores fn, along with the arguments it will be called
// with, as a time series under name. Time series names do not conflict
// with quantity names.
func (reg *Registry) RegisterTimeSeries(
	name string, fn SeriesFunc, args Args,
) (*TimeSeriesFetcher, error) {
	if name == "" {
		return nil, fmt.Errorf("Time series must be given a name.")
	} else if fn == nil {
		return nil, fmt.Errorf("Time series '%s' given a nil function.", name)
	}

	f := &TimeSeriesFetcher{reg: reg, name: name, fn: fn, args: args.copy()}

	reg.mu.Lock()
	reg.series[name] = f
	reg.mu.Unlock()
	return f, nil
}

// TimeSeries returns the named time series.
func (reg *Registry) TimeSeries(name string) (*TimeSeriesFetcher, error) {
	reg.mu.RLock()
	f, ok := reg.series[name]
	reg.mu.RUnlock()
	if !ok {
		return nil, newError(ErrUnknownQuantity, name, nil,
			"No time series named '%s' has been registered.", name)
	}
	return f, nil
}

func (reg *Registry) isDerived(name string) bool {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	_, ok := reg.derived[name]
	return ok
}

func (reg *Registry) currentSnapshot() (snapshot.Snapshot, error) {
	if reg.session == nil {
		return nil, fmt.Errorf(
			"No snapshot was given and there is no session to supply one.",
		)
	}
	return reg.session.CurrentSnapshot()
}
