/*package sphfetch ties together the pieces needed to analyze SPH simulation
snapshots: a buffer of loaded simulations and a registry of the quantities
which can be computed from them.

	an, err := sphfetch.Load("session.cfg")
	if err != nil { log.Fatal(err.Error()) }
	res, err := an.Fetch("vmag", quantity.Request{Unit: "km_s"})
	if err != nil { log.Fatal(err.Error()) }
	speeds := res.Scaled()
*/
package sphfetch

import (
	"fmt"
	"log"

	"github.com/phil-mansfield/sphfetch/buffer"
	"github.com/phil-mansfield/sphfetch/io"
	"github.com/phil-mansfield/sphfetch/quantity"
)

// Analysis is a session: loaded simulations along with the quantities that
// can be computed from them.
type Analysis struct {
	Buffer   *buffer.Buffer
	Registry *quantity.Registry
}

// New returns an Analysis with no simulations and only direct quantities.
func New() *Analysis {
	buf := buffer.New()
	return &Analysis{Buffer: buf, Registry: quantity.NewRegistry(buf)}
}

// Load reads a session file and creates an Analysis from it.
func Load(fname string) (*Analysis, error) {
	con, err := io.ReadConfig(fname)
	if err != nil {
		return nil, err
	}
	return FromConfig(con)
}

// FromConfig creates an Analysis from an already checked Config.
func FromConfig(con *io.Config) (*Analysis, error) {
	an := New()

	su, err := con.Units()
	if err != nil {
		return nil, err
	}

	for _, name := range con.SimulationNames() {
		run := con.Simulation[name].Run(name, su.Copy(), con.Session.Log)
		an.Buffer.Add(run)
		if con.Session.Log {
			log.Printf(
				"Loaded simulation '%s' with %d snapshots", name, run.Snapshots(),
			)
		}
	}

	for name, q := range con.Quantity {
		if _, err := q.Register(an.Registry, name); err != nil {
			return nil, err
		}
	}
	for name, ts := range con.TimeSeries {
		if _, err := ts.Register(an.Registry, name); err != nil {
			return nil, err
		}
	}

	sim, snap := con.Session.Simulation, con.Session.Snapshot
	if sim < 0 && snap == 0 {
		return an, nil
	} else if sim < 0 {
		sim, _ = an.Buffer.Current()
	}
	if err := an.Buffer.SetCurrent(sim, snap); err != nil {
		return nil, fmt.Errorf("Invalid [Session]: %s", err)
	}

	return an, nil
}

// Fetch computes the named quantity.
func (an *Analysis) Fetch(name string, req quantity.Request) (*quantity.Result, error) {
	f, err := an.Registry.Quantity(name)
	if err != nil {
		return nil, err
	}
	return f.Fetch(req)
}

// TimeSeries computes the named time series.
func (an *Analysis) TimeSeries(name string, ref quantity.SimRef) ([]float64, error) {
	f, err := an.Registry.TimeSeries(name)
	if err != nil {
		return nil, err
	}
	return f.Fetch(ref)
}
