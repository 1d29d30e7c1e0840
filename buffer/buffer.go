/*package buffer keeps track of the simulations loaded into an analysis
session and which of their snapshots is "current". Quantities which are
fetched without an explicit snapshot or simulation are resolved through a
Buffer every time they are fetched.
*/
package buffer

import (
	"errors"
	"fmt"

	"github.com/phil-mansfield/sphfetch/snapshot"
)

// ErrEmpty is returned when the current simulation or snapshot is requested
// from a Buffer which has none.
var ErrEmpty = errors.New("no simulation has been loaded")

// Buffer is a set of loaded simulations with a current simulation and a
// current snapshot within it. The zero value is an empty Buffer.
type Buffer struct {
	sims []snapshot.Simulation

	sim, snap int
}

// New returns an empty Buffer.
func New() *Buffer { return &Buffer{} }

// Add loads a simulation into the buffer, makes it the current simulation,
// and makes its first snapshot current. The index of the simulation is
// returned.
func (buf *Buffer) Add(sim snapshot.Simulation) int {
	buf.sims = append(buf.sims, sim)
	buf.sim, buf.snap = len(buf.sims)-1, 0
	return buf.sim
}

// Len returns the number of loaded simulations.
func (buf *Buffer) Len() int { return len(buf.sims) }

// Current returns the indices of the current simulation and snapshot.
func (buf *Buffer) Current() (sim, snap int) { return buf.sim, buf.snap }

// SetCurrent changes the current simulation and snapshot.
func (buf *Buffer) SetCurrent(sim, snap int) error {
	s, err := buf.Simulation(sim)
	if err != nil {
		return err
	}
	if snap < 0 || snap >= s.Snapshots() {
		return fmt.Errorf(
			"Simulation %d ('%s') has %d snapshots, so snapshot %d "+
				"cannot be made current.", sim, s.Name(), s.Snapshots(), snap,
		)
	}
	buf.sim, buf.snap = sim, snap
	return nil
}

// Advance moves the current snapshot by delta within the current
// simulation.
func (buf *Buffer) Advance(delta int) error {
	return buf.SetCurrent(buf.sim, buf.snap+delta)
}

// Simulation returns the simulation with the given index.
func (buf *Buffer) Simulation(i int) (snapshot.Simulation, error) {
	if len(buf.sims) == 0 {
		return nil, ErrEmpty
	}
	if i < 0 || i >= len(buf.sims) {
		return nil, fmt.Errorf(
			"Simulation %d requested, but only %d simulations are loaded.",
			i, len(buf.sims),
		)
	}
	return buf.sims[i], nil
}

// CurrentSimulation returns the current simulation.
func (buf *Buffer) CurrentSimulation() (snapshot.Simulation, error) {
	return buf.Simulation(buf.sim)
}

// CurrentSnapshot returns the current snapshot of the current simulation.
func (buf *Buffer) CurrentSnapshot() (snapshot.Snapshot, error) {
	sim, err := buf.CurrentSimulation()
	if err != nil {
		return nil, err
	}
	return sim.Snapshot(buf.snap)
}

// Snapshots returns a fresh Iterator over every snapshot of sim.
func (buf *Buffer) Snapshots(sim snapshot.Simulation) (*snapshot.Iterator, error) {
	if sim == nil {
		return nil, fmt.Errorf("Cannot iterate over a nil simulation.")
	}
	return snapshot.NewIterator(sim), nil
}
