package snapshot

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/sphfetch/units"
)

func TestMemoryExtract(t *testing.T) {
	run := NewRun("test", units.NewSimUnits())
	snap := NewMemory(3, true, 1.5)
	xs := []float64{1, 2, 3}
	require.NoError(t, snap.Set(DefaultKind, "x", xs))
	require.NoError(t, snap.Set("", "m", []float64{4, 5, 6}))
	run.Add(snap)

	assert.Equal(t, 3, snap.Len())
	assert.Equal(t, run, snap.Simulation())

	arr, err := snap.ExtractArray("x", "", "")
	require.NoError(t, err)
	assert.Equal(t, xs, arr.Values)
	assert.Equal(t, "pc", arr.Unit.Name)
	assert.Equal(t, "pc", arr.Unit.Label)
	assert.InDelta(t, 1.0, arr.Scale, 1e-12)

	arr, err = snap.ExtractArray("x", DefaultKind, "au")
	require.NoError(t, err)
	assert.Equal(t, "au", arr.Unit.Name)
	assert.InEpsilon(t, 206264.806, arr.Scale, 1e-6)

	_, err = snap.ExtractArray("x", DefaultKind, "furlong")
	var unitErr *units.UnknownUnitError
	assert.True(t, errors.As(err, &unitErr))

	_, err = snap.ExtractArray("rho", DefaultKind, "")
	assert.True(t, errors.Is(err, ErrNoArray))
}

func TestMemorySetErrors(t *testing.T) {
	snap := NewMemory(2, false, 0)
	require.NoError(t, snap.Set(DefaultKind, "x", []float64{1, 2}))
	assert.Error(t, snap.Set(DefaultKind, "y", []float64{1}))
	assert.Error(t, snap.Set(DefaultKind, "vmag", []float64{1, 2}))

	// Other particle kinds may have any length.
	require.NoError(t, snap.Set("star", "x", []float64{7}))
	arr, err := snap.ExtractArray("x", "star", "")
	require.NoError(t, err)
	assert.Equal(t, []float64{7}, arr.Values)
}

func TestNoUnits(t *testing.T) {
	snap := NewMemory(1, false, 0)
	require.NoError(t, snap.Set(DefaultKind, "x", []float64{1}))

	arr, err := snap.ExtractArray("x", DefaultKind, "")
	require.NoError(t, err)
	assert.Equal(t, 1.0, arr.Scale)
	assert.Equal(t, units.Info{}, arr.Unit)

	run := NewRun("unitless", nil)
	run.Add(snap)
	assert.Nil(t, run.Units())
	arr, err = snap.ExtractArray("x", DefaultKind, "")
	require.NoError(t, err)
	assert.Equal(t, 1.0, arr.Scale)
}

func TestIterator(t *testing.T) {
	run := NewRun("iter", nil)
	for i := 0; i < 3; i++ {
		run.Add(NewMemory(2, false, float64(i)))
	}

	times := []float64{}
	it := NewIterator(run)
	for it.Next() {
		times = append(times, it.Snapshot().Time())
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []float64{0, 1, 2}, times)
	assert.False(t, it.Next())
	assert.Nil(t, it.Snapshot())

	_, err := run.Snapshot(3)
	assert.Error(t, err)
}

func TestTable(t *testing.T) {
	dir, err := ioutil.TempDir("", "sphfetch_table")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	file := filepath.Join(dir, "snap.dat")
	text := "1 10 100 0.5\n2 20 200 0.5\n3 30 300 0.5\n"
	require.NoError(t, ioutil.WriteFile(file, []byte(text), 0644))

	snap := NewTable(file, []string{"x", SkipColumn, "vx", "m"}, 1, 2.0)
	run := NewRun("table", units.NewSimUnits())
	run.Add(snap)

	assert.False(t, snap.Live())
	assert.Equal(t, 1, snap.Dims())
	assert.Equal(t, 3, snap.Len())

	arr, err := snap.ExtractArray("vx", DefaultKind, "")
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 200, 300}, arr.Values)
	assert.Equal(t, "km_s", arr.Unit.Name)

	_, err = snap.ExtractArray("y", DefaultKind, "")
	assert.True(t, errors.Is(err, ErrNoArray))

	missing := NewTable(filepath.Join(dir, "none.dat"), []string{"x"}, 1, 0)
	_, err = missing.ExtractArray("x", DefaultKind, "")
	assert.Error(t, err)
	assert.Error(t, missing.Load())
	assert.Equal(t, 0, missing.Len())
	assert.NoError(t, snap.Load())
}
