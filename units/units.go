/*package units describes the physical unit system attached to a simulation.

Every simulation stores its particle data in "code units". Each physical
dimension (length, mass, velocity, ...) has a Unit which knows how large the
code unit is, which unit output should be given in by default, and how to
convert to any other unit it knows about.
*/
package units

import (
	"fmt"
	"sort"
	"strings"
)

// Info is the display information attached to an array: a LaTeX label and
// the short name of the unit the array is expressed in.
type Info struct {
	Label, Name string
}

// Dimension is the interface a quantity needs from a single unit: the
// default output unit along with conversion factors and labels.
type Dimension interface {
	OutputUnit() string
	OutputScale(unit string) (float64, error)
	LatexLabel(unit string) (string, error)
}

// System maps attribute names (e.g. "r", "v", "rho") to Dimensions.
type System interface {
	Lookup(attr string) (Dimension, bool)
}

// known is a single entry in a dimension's conversion table. si gives the
// size of the unit in SI (or SI-derived) units.
type known struct {
	si    float64
	label string
}

// Unit is one physical dimension of a SimUnits system.
type Unit struct {
	Attr    string
	InUnit  string // Code unit.
	OutUnit string // Default output unit.

	table map[string]known
}

func (u *Unit) OutputUnit() string { return u.OutUnit }

// OutputScale returns the number that code-unit values must be multiplied
// by to be expressed in the given unit.
func (u *Unit) OutputScale(unit string) (float64, error) {
	in, ok := u.table[u.InUnit]
	if !ok {
		return 0, &UnknownUnitError{u.Attr, u.InUnit}
	}
	out, ok := u.table[unit]
	if !ok {
		return 0, &UnknownUnitError{u.Attr, unit}
	}
	return in.si / out.si, nil
}

func (u *Unit) LatexLabel(unit string) (string, error) {
	k, ok := u.table[unit]
	if !ok {
		return "", &UnknownUnitError{u.Attr, unit}
	}
	return k.label, nil
}

// Names returns the units which u knows how to convert to, sorted.
func (u *Unit) Names() []string {
	names := make([]string, 0, len(u.table))
	for name := range u.table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetUnits changes the code and output units of u. An empty string leaves
// the corresponding unit unchanged.
func (u *Unit) SetUnits(in, out string) error {
	if in != "" {
		if _, ok := u.table[in]; !ok {
			return &UnknownUnitError{u.Attr, in}
		}
		u.InUnit = in
	}
	if out != "" {
		if _, ok := u.table[out]; !ok {
			return &UnknownUnitError{u.Attr, out}
		}
		u.OutUnit = out
	}
	return nil
}

// UnknownUnitError is returned when a unit name is requested from a
// dimension which doesn't know about it.
type UnknownUnitError struct {
	Attr, Unit string
}

func (err *UnknownUnitError) Error() string {
	return fmt.Sprintf(
		"The unit '%s' is not known for dimension '%s'.", err.Unit, err.Attr,
	)
}

// SimUnits is the standard System used by simulations. Its dimensions can
// be reconfigured per simulation.
type SimUnits struct {
	dims map[string]*Unit
}

// Lookup returns the Unit of the given attribute.
func (su *SimUnits) Lookup(attr string) (Dimension, bool) {
	u, ok := su.dims[attr]
	if !ok {
		return nil, false
	}
	return u, true
}

// Unit is identical to Lookup, but returns the concrete type.
func (su *SimUnits) Unit(attr string) (*Unit, bool) {
	u, ok := su.dims[attr]
	return u, ok
}

// Attrs returns the attribute names known by su, sorted.
func (su *SimUnits) Attrs() []string {
	attrs := make([]string, 0, len(su.dims))
	for attr := range su.dims {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)
	return attrs
}

// Copy returns a deep copy of su. Conversion tables are shared, since
// they are never written to.
func (su *SimUnits) Copy() *SimUnits {
	out := &SimUnits{dims: make(map[string]*Unit, len(su.dims))}
	for attr, u := range su.dims {
		c := *u
		out.dims[attr] = &c
	}
	return out
}

// Configure sets the code and output units of the given attribute.
func (su *SimUnits) Configure(attr, in, out string) error {
	u, ok := su.dims[strings.TrimSpace(attr)]
	if !ok {
		return fmt.Errorf("The unit system has no dimension '%s'.", attr)
	}
	return u.SetUnits(strings.TrimSpace(in), strings.TrimSpace(out))
}
