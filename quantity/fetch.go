package quantity

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/phil-mansfield/sphfetch/formula"
	"github.com/phil-mansfield/sphfetch/snapshot"
	"github.com/phil-mansfield/sphfetch/units"
)

// Request describes which array a Fetcher should produce.
type Request struct {
	// Kind selects a particle family. The empty Kind is the default family.
	Kind snapshot.Kind
	// Snapshot is the snapshot to compute from. If nil, the session's
	// current snapshot is used.
	Snapshot snapshot.Snapshot
	// Unit is the unit the scaling factor converts to. If empty, the
	// simulation's output unit is used.
	Unit string
}

// Result is a computed array along with its unit and the factor which
// converts it into that unit. Values are in code units and are never
// pre-multiplied by Scale.
type Result struct {
	Unit   units.Info
	Values []float64
	Scale  float64
}

// Scaled returns a new slice containing Values * Scale.
func (res *Result) Scaled() []float64 {
	out := make([]float64, len(res.Values))
	for i, x := range res.Values {
		out[i] = x * res.Scale
	}
	return out
}

// Fetcher is implemented by every kind of quantity.
type Fetcher interface {
	Name() string
	Class() Class
}

// ArrayFetcher is a Fetcher which produces one array per snapshot.
// *DirectFetcher and *FormulaFetcher implement it.
type ArrayFetcher interface {
	Fetcher
	Fetch(req Request) (*Result, error)
}

func (reg *Registry) resolve(req Request) (snapshot.Snapshot, error) {
	if req.Snapshot != nil {
		return req.Snapshot, nil
	}
	return reg.currentSnapshot()
}

// DirectFetcher extracts a quantity stored directly in snapshots.
type DirectFetcher struct {
	reg  *Registry
	name string
}

func (f *DirectFetcher) Name() string { return f.name }
func (f *DirectFetcher) Class() Class { return Direct }

// Fetch returns the snapshot's array for the quantity exactly as the
// snapshot supplies it.
func (f *DirectFetcher) Fetch(req Request) (*Result, error) {
	snap, err := f.reg.resolve(req)
	if err != nil {
		return nil, err
	}

	class, err := f.reg.Validate(f.name, snap)
	if err != nil {
		return nil, err
	} else if class != Direct {
		return nil, newError(ErrTypeMismatch, f.name, nil,
			"The quantity '%s' is not a direct quantity.", f.name)
	}

	arr, err := snap.ExtractArray(f.name, req.Kind, req.Unit)
	if err != nil {
		return nil, wrapExtractError(f.name, req.Unit, err)
	}
	return &Result{Unit: arr.Unit, Values: arr.Values, Scale: arr.Scale}, nil
}

func wrapExtractError(name, unit string, err error) error {
	var unitErr *units.UnknownUnitError
	if errors.As(err, &unitErr) {
		return newError(ErrUnknownUnit, name, err,
			"Cannot express '%s' in unit '%s':", name, unit)
	}
	return fmt.Errorf("Could not extract '%s': %w", name, err)
}

// Scaling says how a derived quantity is converted into physical units. It
// is either a reference to one of the dimensions of the simulation's unit
// system, which allows conversion into any unit of that dimension, or a
// fixed factor, which does not. The zero value is a fixed factor of one.
type Scaling struct {
	attr   string
	factor float64
	set    bool
}

// NamedUnit returns a Scaling which uses the simulation's unit of the
// given attribute (e.g. "a" for accelerations).
func NamedUnit(attr string) Scaling { return Scaling{attr: attr} }

// FixedScale returns a Scaling which always multiplies by factor.
func FixedScale(factor float64) Scaling { return Scaling{factor: factor, set: true} }

// Named returns the attribute of a NamedUnit Scaling.
func (s Scaling) Named() (attr string, ok bool) { return s.attr, s.attr != "" }

// Fixed returns the factor of a FixedScale Scaling.
func (s Scaling) Fixed() (factor float64, ok bool) {
	if s.attr != "" {
		return 0, false
	} else if !s.set {
		return 1, true
	}
	return s.factor, true
}

func (s Scaling) String() string {
	if attr, ok := s.Named(); ok {
		return attr
	}
	factor, _ := s.Fixed()
	return strconv.FormatFloat(factor, 'g', -1, 64)
}

// FormulaFetcher computes a derived quantity from a compiled formula.
type FormulaFetcher struct {
	reg     *Registry
	name    string
	formula string
	stack   formula.Stack
	info    units.Info
	scaling Scaling
}

func newFormulaFetcher(
	reg *Registry, name, text string, info units.Info, scaling Scaling,
) (*FormulaFetcher, error) {
	if name == "" {
		return nil, fmt.Errorf("Derived quantities must be given a name.")
	}
	stack, err := formula.Parse(text)
	if err != nil {
		return nil, newError(ErrMalformedFormula, name, err,
			"Cannot create quantity '%s':", name)
	}
	return &FormulaFetcher{
		reg: reg, name: name, formula: text,
		stack: stack, info: info, scaling: scaling,
	}, nil
}

func (f *FormulaFetcher) Name() string     { return f.name }
func (f *FormulaFetcher) Class() Class     { return Derived }
func (f *FormulaFetcher) Formula() string  { return f.formula }
func (f *FormulaFetcher) Scaling() Scaling { return f.scaling }

// Info returns the unit information given when the quantity was created.
func (f *FormulaFetcher) Info() units.Info { return f.info }

// Stack returns a copy of the compiled formula.
func (f *FormulaFetcher) Stack() formula.Stack { return f.stack.Clone() }

// Fetch evaluates the formula. The Result's Unit is built fresh for each
// call, so a FormulaFetcher can be shared between concurrent requests for
// different units. A formula made only of constants gives a single value.
func (f *FormulaFetcher) Fetch(req Request) (*Result, error) {
	snap, err := f.reg.resolve(req)
	if err != nil {
		return nil, err
	}

	class, err := f.reg.Validate(f.name, snap)
	if err != nil {
		return nil, err
	} else if class != Derived {
		return nil, newError(ErrTypeMismatch, f.name, nil,
			"The quantity '%s' is not a derived quantity.", f.name)
	}

	vars := &variables{reg: f.reg, snap: snap, kind: req.Kind, name: f.name}
	val, err := formula.Evaluate(f.stack.Clone(), vars)
	if err != nil {
		return nil, err
	}

	res := &Result{Values: val.Data}
	res.Unit, res.Scale, err = f.scale(snap, req.Unit)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (f *FormulaFetcher) scale(
	snap snapshot.Snapshot, unit string,
) (units.Info, float64, error) {
	attr, ok := f.scaling.Named()
	if !ok {
		factor, _ := f.scaling.Fixed()
		return f.info, factor, nil
	}

	var sys units.System
	if sim := snap.Simulation(); sim != nil {
		sys = sim.Units()
	}
	if sys == nil {
		return units.Info{}, 0, newError(ErrUnknownUnit, f.name, nil,
			"Sorry, we do not know the unit '%s': the snapshot has no "+
				"unit system.", attr)
	}
	dim, ok := sys.Lookup(attr)
	if !ok {
		return units.Info{}, 0, newError(ErrUnknownUnit, f.name, nil,
			"Sorry, we do not know the unit '%s'.", attr)
	}

	if unit == "" {
		unit = dim.OutputUnit()
	}
	scale, err := dim.OutputScale(unit)
	if err != nil {
		return units.Info{}, 0, newError(ErrUnknownUnit, f.name, err,
			"Cannot express '%s' in unit '%s':", f.name, unit)
	}
	label, err := dim.LatexLabel(unit)
	if err != nil {
		return units.Info{}, 0, newError(ErrUnknownUnit, f.name, err,
			"Cannot label '%s' with unit '%s':", f.name, unit)
	}
	return units.Info{Label: label, Name: unit}, scale, nil
}

// variables resolves the variables of a formula into the raw, code-unit
// arrays of direct quantities.
type variables struct {
	reg  *Registry
	snap snapshot.Snapshot
	kind snapshot.Kind
	name string
}

func (v *variables) Resolve(name string) ([]float64, error) {
	if !v.reg.IsDirect(name) {
		return nil, newError(ErrUnknownVariable, v.name, nil,
			"The formula for '%s' uses '%s', which is not a direct quantity.",
			v.name, name)
	}
	if _, err := v.reg.Validate(name, v.snap); err != nil {
		return nil, err
	}

	arr, err := v.snap.ExtractArray(name, v.kind, "")
	if errors.Is(err, snapshot.ErrNoArray) {
		return nil, newError(ErrUnknownVariable, v.name, err,
			"The formula for '%s' uses '%s', which the snapshot lacks:",
			v.name, name)
	} else if err != nil {
		return nil, err
	}
	return arr.Values, nil
}
