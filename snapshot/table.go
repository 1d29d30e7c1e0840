package snapshot

import (
	"fmt"
	"log"

	"github.com/phil-mansfield/table"
)

// SkipColumn can be used as a column name to ignore a column of a table.
const SkipColumn = "_"

// Table is a persisted Snapshot stored as a whitespace-separated text file
// with one particle per row. The file is read the first time an array is
// requested and is kept in memory afterwards.
type Table struct {
	File    string
	Columns []string // Array name of each column, in order.
	Log     bool

	mem    *Memory
	loaded bool
}

// NewTable creates a Table snapshot. Nothing is read until the first call
// to ExtractArray or Len.
func NewTable(file string, columns []string, dims int, t float64) *Table {
	return &Table{
		File: file, Columns: columns,
		mem: NewMemory(dims, false, t),
	}
}

func (snap *Table) Dims() int                    { return snap.mem.Dims() }
func (snap *Table) Live() bool                   { return false }
func (snap *Table) Time() float64                { return snap.mem.Time() }
func (snap *Table) Simulation() Simulation       { return snap.mem.Simulation() }
func (snap *Table) SetSimulation(sim Simulation) { snap.mem.SetSimulation(sim) }

// Len returns the number of particles in the snapshot, or zero if the file
// cannot be read. Call Load first to find out why.
func (snap *Table) Len() int {
	if err := snap.load(); err != nil {
		return 0
	}
	return snap.mem.Len()
}

// Load reads the file if it hasn't been read yet.
func (snap *Table) Load() error { return snap.load() }

func (snap *Table) ExtractArray(
	name string, kind Kind, unit string,
) (*Array, error) {
	if err := snap.load(); err != nil {
		return nil, err
	}
	return snap.mem.ExtractArray(name, kind, unit)
}

func (snap *Table) load() error {
	if snap.loaded {
		return nil
	}

	idxs, names := []int{}, []string{}
	for i, col := range snap.Columns {
		if col == SkipColumn {
			continue
		}
		idxs = append(idxs, i)
		names = append(names, col)
	}
	if len(idxs) == 0 {
		return fmt.Errorf("No columns were given for the table '%s'.", snap.File)
	}

	cols, err := table.ReadTable(snap.File, idxs, nil)
	if err != nil {
		return fmt.Errorf("Could not read snapshot '%s': %s", snap.File, err)
	}

	for i, name := range names {
		if err := snap.mem.Set(DefaultKind, name, cols[i]); err != nil {
			return err
		}
	}

	if snap.Log {
		log.Printf(
			"Read %d particles and %d arrays from %s",
			snap.mem.Len(), len(names), snap.File,
		)
	}

	snap.loaded = true
	return nil
}
