package snapshot

import (
	"fmt"
)

// Memory is a Snapshot whose arrays are held directly in memory. It is used
// both for live snapshots of a running simulation and as the storage behind
// snapshots read from disk.
type Memory struct {
	dims int
	live bool
	t    float64
	sim  Simulation

	n      int
	arrays map[Kind]map[string][]float64
}

// NewMemory creates an empty snapshot.
func NewMemory(dims int, live bool, t float64) *Memory {
	return &Memory{
		dims: dims, live: live, t: t,
		arrays: map[Kind]map[string][]float64{},
	}
}

// Set stores xs under the given name. The slice is not copied. All default
// kind arrays must have the same length.
func (snap *Memory) Set(kind Kind, name string, xs []float64) error {
	if _, ok := Attrs[name]; !ok {
		return fmt.Errorf("'%s' is not an array that a snapshot can hold.", name)
	}
	kind = kind.normalize()
	if kind == DefaultKind {
		if snap.hasDefault() && len(xs) != snap.n {
			return fmt.Errorf(
				"Array '%s' has %d elements, but the snapshot has %d particles.",
				name, len(xs), snap.n,
			)
		}
		snap.n = len(xs)
	}

	if snap.arrays[kind] == nil {
		snap.arrays[kind] = map[string][]float64{}
	}
	snap.arrays[kind][name] = xs
	return nil
}

func (snap *Memory) hasDefault() bool {
	return len(snap.arrays[DefaultKind]) > 0
}

func (snap *Memory) Dims() int                 { return snap.dims }
func (snap *Memory) Live() bool                { return snap.live }
func (snap *Memory) Time() float64             { return snap.t }
func (snap *Memory) Len() int                  { return snap.n }
func (snap *Memory) Simulation() Simulation    { return snap.sim }
func (snap *Memory) SetSimulation(sim Simulation) { snap.sim = sim }

// SetLive changes whether the snapshot is treated as part of a running
// simulation.
func (snap *Memory) SetLive(live bool) { snap.live = live }

func (snap *Memory) ExtractArray(
	name string, kind Kind, unit string,
) (*Array, error) {
	xs, ok := snap.arrays[kind.normalize()][name]
	if !ok {
		return nil, fmt.Errorf(
			"%w: '%s' (kind '%s')", ErrNoArray, name, kind.normalize(),
		)
	}
	return unitArray(snap.sim, name, xs, unit)
}
