package localexecutor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/stencilgo/internal/accessor"
	"github.com/vk/stencilgo/internal/analysis"
	"github.com/vk/stencilgo/internal/axis"
	"github.com/vk/stencilgo/internal/cache"
	"github.com/vk/stencilgo/internal/composition"
	"github.com/vk/stencilgo/internal/executor"
	"github.com/vk/stencilgo/internal/extent"
	"github.com/vk/stencilgo/internal/grid"
	"github.com/vk/stencilgo/internal/iterdomain"
	"github.com/vk/stencilgo/internal/storage"
	"github.com/vk/stencilgo/internal/topology"
)

var (
	naive   = executor.Options{Backend: "naive", Workers: 1}
	blocked = executor.Options{Backend: "block", TileI: 3, TileJ: 2, Workers: 3}
)

func compile(t *testing.T, p *composition.Pipeline, g *grid.Grid, stores map[int]storage.DataStore, opts executor.Options) (*Executor, error) {
	t.Helper()
	ctx := context.Background()
	r, err := analysis.Analyze(ctx, p)
	require.NoError(t, err)
	cp, err := cache.Build(ctx, r)
	require.NoError(t, err)
	return New(ctx, r, cp, g, stores, opts)
}

func run(t *testing.T, p *composition.Pipeline, g *grid.Grid, stores map[int]storage.DataStore, opts executor.Options) {
	t.Helper()
	e, err := compile(t, p, g, stores, opts)
	require.NoError(t, err)
	require.NoError(t, e.Execute(context.Background()))
}

func laplacian() *composition.Definition {
	in, out := accessor.In(0, extent.MustNew(-1, 1, -1, 1)), accessor.InOut(1)
	return composition.NewFunctor("lap", accessor.ParamList{in, out}, composition.Do(func(ev iterdomain.Evaluation) {
		ev.Set(out, 4*ev.Value(in)-ev.Get(in, -1, 0, 0)-ev.Get(in, 1, 0, 0)-ev.Get(in, 0, -1, 0)-ev.Get(in, 0, 1, 0))
	}))
}

func field(name string, g *grid.Grid, fn func(i, j, k, c int) float64) *storage.Field {
	b := storage.NewBuilder(name).Dimensions(g.I.Total, g.J.Total, g.NK())
	if fn != nil {
		b = b.Initializer(fn)
	}
	return b.MustBuild()
}

func interior(g *grid.Grid, fn func(i, j, k int)) {
	for i := g.I.Begin; i <= g.I.End; i++ {
		for j := g.J.Begin; j <= g.J.End; j++ {
			for k := 0; k < g.NK(); k++ {
				fn(i, j, k)
			}
		}
	}
}

func TestLaplacianOfLinearFieldIsZero(t *testing.T) {
	g, err := grid.Regular(9, 9, 3, 1)
	require.NoError(t, err)
	in := field("in", g, func(i, j, k, _ int) float64 { return float64(i + j + k) })
	out := field("out", g, func(int, int, int, int) float64 { return -999 })

	run(t, composition.ExecuteParallel().Stage(laplacian(), accessor.Arg(0), accessor.Arg(1)).Pipeline(),
		g, map[int]storage.DataStore{0: in, 1: out}, blocked)

	interior(g, func(i, j, k int) { assert.Zero(t, out.At(i, j, k), "(%d,%d,%d)", i, j, k) })
	assert.Equal(t, -999.0, out.At(0, 4, 1))
	assert.Equal(t, -999.0, out.At(4, 8, 2))
	assert.Equal(t, storage.HostNewer, out.State())
}

func TestTemporaryChainMatchesReference(t *testing.T) {
	g, err := grid.Regular(12, 10, 4, 2)
	require.NoError(t, err)
	value := func(i, j, k, _ int) float64 { return float64(i*i + 3*j + k*j) }
	in := field("in", g, value)
	lap := func(i, j, k int, f func(i, j, k int) float64) float64 {
		return 4*f(i, j, k) - f(i-1, j, k) - f(i+1, j, k) - f(i, j-1, k) - f(i, j+1, k)
	}
	at := func(i, j, k int) float64 { return value(i, j, k, 0) }

	pipeline := func() *composition.Pipeline {
		tmp := composition.NewScope(2).Temporary("lap")
		return composition.ExecuteParallel().
			Stage(laplacian(), accessor.Arg(0), tmp).
			Stage(laplacian(), tmp, accessor.Arg(1)).
			Pipeline()
	}
	for _, opts := range []executor.Options{naive, blocked, {Backend: "block", TileI: 1, TileJ: 1, Workers: 4}} {
		t.Run(opts.Backend, func(t *testing.T) {
			out := field("out", g, nil)
			run(t, pipeline(), g, map[int]storage.DataStore{0: in, 1: out}, opts)
			interior(g, func(i, j, k int) {
				want := lap(i, j, k, func(i, j, k int) float64 { return lap(i, j, k, at) })
				assert.Equal(t, want, out.At(i, j, k), "(%d,%d,%d)", i, j, k)
			})
		})
	}
}

func TestIJCacheIsTransparent(t *testing.T) {
	g, err := grid.Regular(10, 9, 3, 2)
	require.NoError(t, err)
	in := field("in", g, func(i, j, k, _ int) float64 { return float64(i*j - k*i + 2*j) })

	pipeline := func(cached bool) *composition.Pipeline {
		tmp := composition.NewScope(2).Temporary("lap")
		ms := composition.ExecuteParallel()
		if cached {
			ms = ms.IJCached(tmp)
		}
		return ms.Stage(laplacian(), accessor.Arg(0), tmp).Stage(laplacian(), tmp, accessor.Arg(1)).Pipeline()
	}
	plain, cached := field("plain", g, nil), field("cached", g, nil)
	run(t, pipeline(false), g, map[int]storage.DataStore{0: in, 1: plain}, naive)
	run(t, pipeline(true), g, map[int]storage.DataStore{0: in, 1: cached}, blocked)
	assert.Equal(t, plain.Host(), cached.Host())
}

// prefixSum accumulates in along k in the given order.
func prefixSum(ax *axis.Axis, order composition.Order) *composition.Definition {
	in := accessor.In(0)
	full := ax.Full()
	edge, rest := full.First(), axis.MustInterval(axis.MustLevel(0, 2), full.To)
	out := accessor.InOut(1, extent.MustNew(0, 0, 0, 0, -1, 0))
	dk := -1
	if order == composition.Backward {
		edge, rest = full.Last(), axis.MustInterval(full.From, axis.MustLevel(1, -2))
		out = accessor.InOut(1, extent.MustNew(0, 0, 0, 0, 0, 1))
		dk = 1
	}
	return composition.NewFunctor("prefix", accessor.ParamList{in, out},
		composition.DoOn(edge, func(ev iterdomain.Evaluation) { ev.Set(out, ev.Value(in)) }),
		composition.DoOn(rest, func(ev iterdomain.Evaluation) { ev.Set(out, ev.Value(in)+ev.Get(out, 0, 0, dk)) }),
	)
}

func TestVerticalSweeps(t *testing.T) {
	g, err := grid.Regular(7, 6, 5, 1)
	require.NoError(t, err)
	in := field("in", g, func(i, j, k, _ int) float64 { return float64(k + 1 + i) })

	for _, order := range []composition.Order{composition.Forward, composition.Backward} {
		for _, cached := range []bool{false, true} {
			name := order.String()
			if cached {
				name += "/cached"
			}
			t.Run(name, func(t *testing.T) {
				ms := composition.Execute(order)
				if cached {
					ms = ms.KCached(composition.Fill, accessor.Arg(0)).KCached(composition.FillFlush, accessor.Arg(1))
				}
				p := ms.Stage(prefixSum(g.Axis, order), accessor.Arg(0), accessor.Arg(1)).Pipeline()
				out := field("out", g, nil)
				run(t, p, g, map[int]storage.DataStore{0: in, 1: out}, blocked)

				interior(g, func(i, j, k int) {
					want := 0.0
					for kk := 0; kk < g.NK(); kk++ {
						if (order == composition.Forward && kk <= k) || (order == composition.Backward && kk >= k) {
							want += in.At(i, j, kk)
						}
					}
					assert.Equal(t, want, out.At(i, j, k), "(%d,%d,%d)", i, j, k)
				})
			})
		}
	}
}

func TestFlushOnlyCacheLeavesUnwrittenLevels(t *testing.T) {
	g, err := grid.Regular(5, 5, 4, 1)
	require.NoError(t, err)
	in := accessor.In(0)
	out := accessor.InOut(1)
	top := g.Axis.Full().Last()
	f := composition.NewFunctor("top", accessor.ParamList{in, out},
		composition.DoOn(top, func(ev iterdomain.Evaluation) { ev.Set(out, 2*ev.Value(in)) }))

	src := field("in", g, func(int, int, int, int) float64 { return 3 })
	dst := field("out", g, func(int, int, int, int) float64 { return -1 })
	p := composition.ExecuteForward().KCached(composition.Flush, accessor.Arg(1)).
		Stage(f, accessor.Arg(0), accessor.Arg(1)).Pipeline()
	run(t, p, g, map[int]storage.DataStore{0: src, 1: dst}, blocked)

	interior(g, func(i, j, k int) {
		want := -1.0
		if k == g.NK()-1 {
			want = 6
		}
		assert.Equal(t, want, dst.At(i, j, k), "(%d,%d,%d)", i, j, k)
	})
}

func TestCellNeighborSum(t *testing.T) {
	g, err := grid.Regular(6, 6, 2, 1)
	require.NoError(t, err)
	in := storage.NewBuilder("in").Dimensions(6, 6, 2).Location(topology.Cells).Value(1).MustBuild()
	out := storage.NewBuilder("out").Dimensions(6, 6, 2).Location(topology.Cells).MustBuild()

	a := accessor.In(0, topology.Reach(topology.Cells, topology.Cells)).WithLocation(topology.Cells)
	o := accessor.InOut(1)
	f := composition.NewFunctor("neighbors", accessor.ParamList{a, o}, composition.Do(func(ev iterdomain.Evaluation) {
		ev.Set(o, ev.ForNeighbors(a, 0, func(acc, v float64) float64 { return acc + v }))
	})).OnLocation(topology.Cells)

	p := composition.ExecuteParallel().
		Stage(f, accessor.Arg(0).On(topology.Cells), accessor.Arg(1).On(topology.Cells)).Pipeline()
	run(t, p, g, map[int]storage.DataStore{0: in, 1: out}, blocked)

	interior(g, func(i, j, k int) {
		for c := 0; c < 2; c++ {
			assert.Equal(t, 3.0, out.AtColor(i, j, k, c), "(%d,%d,%d,%d)", i, j, k, c)
		}
	})
}

func TestPanicBecomesStageFault(t *testing.T) {
	g, err := grid.Regular(8, 8, 2, 1)
	require.NoError(t, err)
	in, out := accessor.In(0), accessor.InOut(1)
	f := composition.NewFunctor("fragile", accessor.ParamList{in, out}, composition.Do(func(ev iterdomain.Evaluation) {
		if ev.I() == 5 && ev.K() == 1 {
			panic("bad point")
		}
		ev.Set(out, ev.Value(in))
	}))

	e, err := compile(t, composition.ExecuteParallel().Stage(f, accessor.Arg(0), accessor.Arg(1)).Pipeline(),
		g, map[int]storage.DataStore{0: field("in", g, nil), 1: field("out", g, nil)}, blocked)
	require.NoError(t, err)

	err = e.Execute(context.Background())
	require.Error(t, err)
	var fault *executor.StageFault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, "fragile#0", fault.Stage)
	assert.Equal(t, 1, fault.K)
	assert.Equal(t, "bad point", fault.Value)
}

func TestDebugCatchesUndeclaredOffsets(t *testing.T) {
	g, err := grid.Regular(6, 6, 3, 1)
	require.NoError(t, err)
	in, out := accessor.In(0), accessor.InOut(1)
	// The offset only shows up above the first level, so probing misses it.
	f := composition.NewFunctor("sneaky", accessor.ParamList{in, out}, composition.Do(func(ev iterdomain.Evaluation) {
		di := 0
		if ev.K() > 0 {
			di = 1
		}
		ev.Set(out, ev.Get(in, di, 0, 0))
	}))
	pipeline := func() *composition.Pipeline {
		return composition.ExecuteParallel().Stage(f, accessor.Arg(0), accessor.Arg(1)).Pipeline()
	}
	stores := map[int]storage.DataStore{0: field("in", g, nil), 1: field("out", g, nil)}

	debug := blocked
	debug.Debug = true
	e, err := compile(t, pipeline(), g, stores, debug)
	require.NoError(t, err)
	err = e.Execute(context.Background())
	require.True(t, executor.IsStageFault(err))
	assert.Contains(t, err.Error(), "outside its extent")

	lenient, err := compile(t, pipeline(), g, stores, blocked)
	require.NoError(t, err)
	assert.NoError(t, lenient.Execute(context.Background()))
}

func TestStoreChecks(t *testing.T) {
	g, err := grid.Regular(8, 8, 3, 1)
	require.NoError(t, err)
	p := func() *composition.Pipeline {
		return composition.ExecuteParallel().Stage(laplacian(), accessor.Arg(0), accessor.Arg(1)).Pipeline()
	}
	ok := field("ok", g, nil)

	tests := []struct {
		name   string
		stores map[int]storage.DataStore
	}{
		{name: "missing store", stores: map[int]storage.DataStore{0: ok}},
		{name: "too small", stores: map[int]storage.DataStore{0: ok, 1: storage.NewBuilder("small").Dimensions(8, 8, 2).MustBuild()}},
		{name: "colored store on a structured placeholder", stores: map[int]storage.DataStore{
			0: ok, 1: storage.NewBuilder("cells").Dimensions(8, 8, 3).Location(topology.Cells).MustBuild(),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compile(t, p(), g, tt.stores, naive)
			require.Error(t, err)
			assert.True(t, composition.HasKind(err, composition.KindBinding))
		})
	}

	t.Run("extent beyond the halo", func(t *testing.T) {
		wide := composition.NewFunctor("wide", accessor.ParamList{accessor.In(0, extent.MustNew(-2, 2)), accessor.InOut(1)},
			composition.Do(func(iterdomain.Evaluation) {}))
		_, err := compile(t, composition.ExecuteParallel().Stage(wide, accessor.Arg(0), accessor.Arg(1)).Pipeline(),
			g, map[int]storage.DataStore{0: ok, 1: field("out", g, nil)}, naive)
		assert.True(t, composition.HasKind(err, composition.KindBinding))
	})
}

func TestExecuteRefusesDeviceNewerStores(t *testing.T) {
	g, err := grid.Regular(5, 5, 2, 1)
	require.NoError(t, err)
	in, out := field("in", g, nil), field("out", g, nil)
	e, err := compile(t, composition.ExecuteParallel().Stage(laplacian(), accessor.Arg(0), accessor.Arg(1)).Pipeline(),
		g, map[int]storage.DataStore{0: in, 1: out}, naive)
	require.NoError(t, err)

	in.MarkModified(storage.Device)
	err = e.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SyncToHost")

	in.SyncToHost()
	assert.NoError(t, e.Execute(context.Background()))
}

func TestExecuteHonorsCancellation(t *testing.T) {
	g, err := grid.Regular(8, 8, 2, 1)
	require.NoError(t, err)
	e, err := compile(t, composition.ExecuteParallel().Stage(laplacian(), accessor.Arg(0), accessor.Arg(1)).Pipeline(),
		g, map[int]storage.DataStore{0: field("in", g, nil), 1: field("out", g, nil)}, blocked)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, e.Execute(ctx), context.Canceled)
}

func TestTilesFollowOptions(t *testing.T) {
	g, err := grid.Regular(8, 8, 2, 1)
	require.NoError(t, err)
	p := func() *composition.Pipeline {
		return composition.ExecuteParallel().Stage(laplacian(), accessor.Arg(0), accessor.Arg(1)).Pipeline()
	}
	stores := map[int]storage.DataStore{0: field("in", g, nil), 1: field("out", g, nil)}

	e, err := compile(t, p(), g, stores, naive)
	require.NoError(t, err)
	assert.Len(t, e.Tiles(), 1)
	assert.Len(t, e.workers, 1)

	e, err = compile(t, p(), g, stores, blocked)
	require.NoError(t, err)
	assert.Len(t, e.Tiles(), 6)
	assert.Len(t, e.workers, 3)
}
