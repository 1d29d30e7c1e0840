package snapshot

import (
	"fmt"

	"github.com/phil-mansfield/sphfetch/units"
)

// Run is a Simulation made of an ordered list of snapshots.
type Run struct {
	name  string
	units *units.SimUnits
	snaps []Snapshot
}

// NewRun creates an empty simulation with the given unit system. su may be
// nil, in which case arrays are given without units and a scale of one.
func NewRun(name string, su *units.SimUnits) *Run {
	return &Run{name: name, units: su}
}

// Add appends a snapshot to the end of the run and attaches it to the run.
func (run *Run) Add(snap Member) {
	snap.SetSimulation(run)
	run.snaps = append(run.snaps, snap)
}

func (run *Run) Name() string   { return run.name }
func (run *Run) Snapshots() int { return len(run.snaps) }

func (run *Run) Units() units.System {
	if run.units == nil {
		return nil
	}
	return run.units
}

// SimUnits returns the concrete unit system of the run.
func (run *Run) SimUnits() *units.SimUnits { return run.units }

func (run *Run) Snapshot(i int) (Snapshot, error) {
	if i < 0 || i >= len(run.snaps) {
		return nil, fmt.Errorf(
			"Snapshot %d requested from simulation '%s', which has %d snapshots.",
			i, run.name, len(run.snaps),
		)
	}
	return run.snaps[i], nil
}

// Iterator walks through the snapshots of a simulation once, in order.
//
//	it := snapshot.NewIterator(sim)
//	for it.Next() {
//		snap := it.Snapshot()
//		...
//	}
//	if err := it.Err(); err != nil { ... }
type Iterator struct {
	sim  Simulation
	i    int
	snap Snapshot
	err  error
}

// NewIterator creates an Iterator positioned before the first snapshot.
func NewIterator(sim Simulation) *Iterator {
	return &Iterator{sim: sim, i: -1}
}

// Next advances to the next snapshot and reports whether there is one.
func (it *Iterator) Next() bool {
	if it.err != nil || it.i+1 >= it.sim.Snapshots() {
		it.snap = nil
		return false
	}
	it.i++
	it.snap, it.err = it.sim.Snapshot(it.i)
	return it.err == nil
}

func (it *Iterator) Snapshot() Snapshot { return it.snap }
func (it *Iterator) Index() int         { return it.i }
func (it *Iterator) Err() error         { return it.err }
