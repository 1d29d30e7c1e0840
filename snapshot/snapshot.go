/*package snapshot contains the particle data that quantities are computed
from. A Snapshot is one moment of a Simulation. Snapshots which belong to a
simulation that is still being evolved in memory are "live" and carry
accelerations and heating rates. Snapshots read back from disk are not.
*/
package snapshot

import (
	"errors"
	"fmt"

	"github.com/phil-mansfield/sphfetch/units"
)

// Kind selects which family of particles an array is taken from.
type Kind string

// DefaultKind is the particle family used when no other is requested. The
// empty Kind is treated identically.
const DefaultKind Kind = "default"

func (k Kind) normalize() Kind {
	if k == "" {
		return DefaultKind
	}
	return k
}

// ErrNoArray is wrapped by errors returned when a snapshot doesn't hold the
// requested array.
var ErrNoArray = errors.New("array not present in snapshot")

// Attrs maps every array name a snapshot can hold onto the attribute of its
// unit in the simulation's unit system.
var Attrs = map[string]string{
	"x": "r", "y": "r", "z": "r",
	"vx": "v", "vy": "v", "vz": "v",
	"ax": "a", "ay": "a", "az": "a",
	"m":    "m",
	"h":    "r",
	"rho":  "rho",
	"u":    "u",
	"dudt": "dudt",
}

// Array is a raw array in code units along with the unit it should be
// displayed in and the factor needed to convert it there.
type Array struct {
	Unit   units.Info
	Values []float64
	Scale  float64
}

// Snapshot is a single time slice of a simulation.
type Snapshot interface {
	Dims() int
	Live() bool
	Time() float64
	Len() int

	// ExtractArray returns the named array of the given particle kind. unit
	// chooses the unit the scaling factor converts to and the empty string
	// selects the output unit of the simulation. The returned Values are
	// shared with the snapshot and must not be modified.
	ExtractArray(name string, kind Kind, unit string) (*Array, error)
	Simulation() Simulation
}

// Simulation is a sequence of snapshots sharing a unit system.
type Simulation interface {
	Name() string
	Units() units.System
	Snapshots() int
	Snapshot(i int) (Snapshot, error)
}

// Member is a Snapshot which can be attached to a Simulation.
type Member interface {
	Snapshot
	SetSimulation(sim Simulation)
}

// unitArray attaches unit information to a raw array.
func unitArray(
	sim Simulation, name string, xs []float64, unit string,
) (*Array, error) {
	arr := &Array{Values: xs, Scale: 1}
	if sim == nil || sim.Units() == nil {
		arr.Unit.Name = unit
		return arr, nil
	}

	attr, ok := Attrs[name]
	if !ok {
		return nil, fmt.Errorf("The array '%s' has no associated unit.", name)
	}
	dim, ok := sim.Units().Lookup(attr)
	if !ok {
		return nil, fmt.Errorf(
			"The unit system of simulation '%s' has no dimension '%s'.",
			sim.Name(), attr,
		)
	}

	if unit == "" {
		unit = dim.OutputUnit()
	}
	scale, err := dim.OutputScale(unit)
	if err != nil {
		return nil, err
	}
	label, err := dim.LatexLabel(unit)
	if err != nil {
		return nil, err
	}

	arr.Unit = units.Info{Label: label, Name: unit}
	arr.Scale = scale
	return arr, nil
}
