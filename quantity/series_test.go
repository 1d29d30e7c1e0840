package quantity

import (
	"errors"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/sphfetch/buffer"
	"github.com/phil-mansfield/sphfetch/snapshot"
	"github.com/phil-mansfield/sphfetch/units"
)

func seriesRun(t *testing.T, name string, dims, n int) *snapshot.Run {
	run := snapshot.NewRun(name, units.NewSimUnits())
	for i := 0; i < n; i++ {
		snap := snapshot.NewMemory(dims, false, float64(i)/2)
		x := float64(i)
		require.NoError(t, snap.Set(snapshot.DefaultKind, "rho", []float64{x, 2 * x, 3 * x}))
		run.Add(snap)
	}
	return run
}

func ndim(snap snapshot.Snapshot, _ Args) (float64, error) {
	return float64(snap.Dims()), nil
}

func TestTimeSeriesDims(t *testing.T) {
	buf := buffer.New()
	buf.Add(seriesRun(t, "a", 3, 3))
	reg := NewRegistry(buf)

	f, err := reg.RegisterTimeSeries("ndim", ndim, Args{})
	require.NoError(t, err)
	assert.Equal(t, Series, f.Class())

	g, err := reg.TimeSeries("ndim")
	require.NoError(t, err)
	assert.Equal(t, f, g)

	xs, err := g.Fetch(CurrentSim())
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 3, 3}, xs)

	// Restartable: a second fetch walks the snapshots again.
	xs, err = g.Fetch(SimRef{})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 3, 3}, xs)
}

func TestTimeSeriesRefs(t *testing.T) {
	buf := buffer.New()
	a, b := seriesRun(t, "a", 2, 2), seriesRun(t, "b", 3, 4)
	buf.Add(a)
	buf.Add(b)
	reg := NewRegistry(buf)

	f, err := reg.RegisterTimeSeries("t", SnapshotTime, Args{})
	require.NoError(t, err)

	xs, err := f.Fetch(CurrentSim())
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.5, 1, 1.5}, xs)

	xs, err = f.Fetch(SimIndex(0))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.5}, xs)

	xs, err = f.Fetch(SimHandle(b))
	require.NoError(t, err)
	assert.Len(t, xs, 4)

	_, err = f.Fetch(SimIndex(5))
	assert.Error(t, err)

	// Without a session only explicit handles work.
	bare := NewRegistry(nil)
	g, err := bare.RegisterTimeSeries("n", ParticleCount, Args{})
	require.NoError(t, err)
	xs, err = g.Fetch(SimHandle(a))
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 3}, xs)
	_, err = g.Fetch(CurrentSim())
	assert.Error(t, err)
	_, err = g.Fetch(SimHandle(nil))
	assert.Error(t, err)

	_, err = f.Fetch(SimHandle(nil))
	assert.Error(t, err)
}

func TestParticleCountMissingFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "sphfetch_count")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	file := filepath.Join(dir, "snap_0.dat")
	require.NoError(t, ioutil.WriteFile(file, []byte("1\n2\n"), 0644))

	run := snapshot.NewRun("tables", units.NewSimUnits())
	run.Add(snapshot.NewTable(file, []string{"x"}, 1, 0))
	run.Add(snapshot.NewTable(filepath.Join(dir, "snap_1.dat"), []string{"x"}, 1, 1))

	reg := NewRegistry(nil)
	f, err := reg.RegisterTimeSeries("count", ParticleCount, Args{})
	require.NoError(t, err)
	_, err = f.Fetch(SimHandle(run))
	assert.Error(t, err)

	snap, err := run.Snapshot(0)
	require.NoError(t, err)
	x, err := ParticleCount(snap, Args{})
	require.NoError(t, err)
	assert.Equal(t, 2.0, x)
}

func TestTimeSeriesArgs(t *testing.T) {
	buf := buffer.New()
	buf.Add(seriesRun(t, "a", 3, 2))
	reg := NewRegistry(buf)

	seen := []Args{}
	fn := func(snap snapshot.Snapshot, args Args) (float64, error) {
		seen = append(seen, args)
		offset := args.Positional[0].(float64)
		scale := args.Keyword["scale"].(float64)
		return scale*snap.Time() + offset, nil
	}

	pos := []interface{}{10.0}
	kw := map[string]interface{}{"scale": 4.0}
	f, err := reg.RegisterTimeSeries("shifted", fn, Args{pos, kw})
	require.NoError(t, err)

	// Arguments are captured at registration.
	pos[0] = -1.0
	kw["scale"] = -1.0

	xs, err := f.Fetch(CurrentSim())
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 12}, xs)
	assert.Len(t, seen, 2)
}

func TestTimeSeriesAbort(t *testing.T) {
	buf := buffer.New()
	buf.Add(seriesRun(t, "a", 3, 4))
	reg := NewRegistry(buf)

	boom := errors.New("boom")
	calls := 0
	fn := func(snap snapshot.Snapshot, _ Args) (float64, error) {
		calls++
		if snap.Time() == 0.5 {
			return 0, boom
		}
		return 1, nil
	}
	f, err := reg.RegisterTimeSeries("fails", fn, Args{})
	require.NoError(t, err)

	xs, err := f.Fetch(CurrentSim())
	assert.Nil(t, xs)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 2, calls)
}

func TestRegisterTimeSeriesErrors(t *testing.T) {
	reg := NewRegistry(nil)
	_, err := reg.RegisterTimeSeries("", SnapshotTime, Args{})
	assert.Error(t, err)
	_, err = reg.RegisterTimeSeries("nil", nil, Args{})
	assert.Error(t, err)
}

func TestQuantityStatistic(t *testing.T) {
	buf := buffer.New()
	run := seriesRun(t, "a", 3, 3)
	buf.Add(run)
	reg := NewRegistry(buf)

	dim, _ := run.Units().Lookup("rho")
	scale, err := dim.OutputScale(dim.OutputUnit())
	require.NoError(t, err)

	table := []struct {
		stat Statistic
		want []float64
	}{
		{Min, []float64{0, 1, 2}},
		{Max, []float64{0, 3, 6}},
		{Mean, []float64{0, 2, 4}},
		{Sum, []float64{0, 6, 12}},
	}
	for _, test := range table {
		f, err := reg.RegisterTimeSeries(
			string(test.stat), QuantityStatistic(reg, "rho", test.stat), Args{},
		)
		require.NoError(t, err)
		xs, err := f.Fetch(CurrentSim())
		require.NoError(t, err)
		require.Len(t, xs, len(test.want))
		for i := range xs {
			assert.InDelta(t, test.want[i]*scale, xs[i], 1e-12*scale, test.stat)
		}
	}

	// Unit keyword argument.
	f, err := reg.RegisterTimeSeries("max_kg_m3",
		QuantityStatistic(reg, "rho", Max),
		Args{Keyword: map[string]interface{}{"unit": "kg_m3"}},
	)
	require.NoError(t, err)
	kgScale, err := dim.OutputScale("kg_m3")
	require.NoError(t, err)
	xs, err := f.Fetch(CurrentSim())
	require.NoError(t, err)
	assert.InDelta(t, 6*kgScale, xs[2], 1e-9*kgScale)

	// Quantities are looked up when the series is fetched.
	g, err := reg.RegisterTimeSeries("late", QuantityStatistic(reg, "rho2", Sum), Args{})
	require.NoError(t, err)
	_, err = g.Fetch(CurrentSim())
	assert.True(t, errors.Is(err, ErrUnknownQuantity))
	_, err = reg.Register("rho2", "2*rho", units.Info{}, FixedScale(1))
	require.NoError(t, err)
	xs, err = g.Fetch(CurrentSim())
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 12, 24}, xs)

	bad, err := reg.RegisterTimeSeries("bad", QuantityStatistic(reg, "rho", "median"), Args{})
	require.NoError(t, err)
	_, err = bad.Fetch(CurrentSim())
	assert.Error(t, err)

	badArg, err := reg.RegisterTimeSeries("badArg", QuantityStatistic(reg, "rho", Sum),
		Args{Keyword: map[string]interface{}{"unit": 3}})
	require.NoError(t, err)
	_, err = badArg.Fetch(CurrentSim())
	assert.Error(t, err)
}

func TestReduceEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Sum.reduce(nil))
	assert.True(t, math.IsNaN(Mean.reduce(nil)))
	assert.True(t, Min.Valid())
	assert.False(t, Statistic("median").Valid())
}
