package stencil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/stencilgo/internal/accessor"
	"github.com/vk/stencilgo/internal/composition"
	"github.com/vk/stencilgo/internal/extent"
	"github.com/vk/stencilgo/internal/grid"
	"github.com/vk/stencilgo/internal/iterdomain"
	"github.com/vk/stencilgo/internal/storage"
	"github.com/vk/stencilgo/internal/topology"
)

var (
	lapIn  = accessor.In(0, extent.MustNew(-1, 1, -1, 1))
	lapOut = accessor.InOut(1)
	lap    = composition.NewFunctor("lap", accessor.ParamList{lapIn, lapOut}, composition.Do(func(ev iterdomain.Evaluation) {
		ev.Set(lapOut, 4*ev.Value(lapIn)-ev.Get(lapIn, -1, 0, 0)-ev.Get(lapIn, 1, 0, 0)-ev.Get(lapIn, 0, -1, 0)-ev.Get(lapIn, 0, 1, 0))
	}))

	fluxIn  = accessor.In(0, extent.MustNew(0, 1))
	fluxOut = accessor.InOut(1)
	flux    = composition.NewFunctor("flux", accessor.ParamList{fluxIn, fluxOut}, composition.Do(func(ev iterdomain.Evaluation) {
		ev.Set(fluxOut, ev.Get(fluxIn, 1, 0, 0)-ev.Value(fluxIn))
	}))
)

func newField(g *grid.Grid, name string, fn func(i, j, k, c int) float64) *storage.Field {
	b := storage.NewBuilder(name).Dimensions(g.I.Total, g.J.Total, g.NK())
	if fn != nil {
		b = b.Initializer(fn)
	}
	return b.MustBuild()
}

func TestLaplacianEndToEnd(t *testing.T) {
	g, err := grid.Regular(9, 9, 3, 1)
	require.NoError(t, err)
	in := newField(g, "in", func(i, j, k, _ int) float64 { return float64(i + j + k) })
	out := newField(g, "out", func(int, int, int, int) float64 { return -999 })

	err = Run(context.Background(), func(_ *composition.Scope, args ...accessor.Placeholder) composition.Computable {
		return composition.ExecuteParallel().Stage(lap, args[0], args[1])
	}, DefaultOptions(), g, in, out)
	require.NoError(t, err)

	for i := 0; i < 9; i++ {
		for j := 0; j < 9; j++ {
			for k := 0; k < 3; k++ {
				want := -999.0
				if i >= 1 && i <= 7 && j >= 1 && j <= 7 {
					want = 0
				}
				assert.Equal(t, want, out.At(i, j, k), "(%d,%d,%d)", i, j, k)
			}
		}
	}
}

func TestBackendsAgree(t *testing.T) {
	g, err := grid.Regular(14, 11, 4, 3)
	require.NoError(t, err)
	in := newField(g, "in", func(i, j, k, _ int) float64 { return float64((i*7+j*13+k*3)%17) - 8 })

	compose := func(s *composition.Scope, args ...accessor.Placeholder) composition.Computable {
		l, f := s.Temporary("lap"), s.Temporary("flux")
		return composition.MultiPass(
			composition.ExecuteParallel().
				Stage(lap, args[0], l).
				Stage(flux, l, f),
			composition.ExecuteParallel().
				Stage(lap, f, args[1]),
		)
	}

	results := map[Backend]*storage.Field{}
	for _, opts := range []Options{
		{Backend: Naive},
		{Backend: Block, TileI: 4, TileJ: 3, Workers: 4},
	} {
		out := newField(g, "out", nil)
		require.NoError(t, Run(context.Background(), compose, opts, g, in, out))
		results[opts.Backend] = out
	}
	assert.Equal(t, results[Naive].Host(), results[Block].Host())
}

func TestDefinitionErrorsLeaveStoresUntouched(t *testing.T) {
	g, err := grid.Regular(6, 6, 2, 1)
	require.NoError(t, err)
	in := newField(g, "in", func(int, int, int, int) float64 { return 1 })
	out := newField(g, "out", func(int, int, int, int) float64 { return 2 })
	in.SyncToDevice()
	out.SyncToDevice()

	err = Run(context.Background(), func(_ *composition.Scope, args ...accessor.Placeholder) composition.Computable {
		return composition.ExecuteParallel().Stage(lap, args[0])
	}, DefaultOptions(), g, in, out)
	require.Error(t, err)
	assert.True(t, composition.IsDefinitionError(err))
	assert.True(t, composition.HasKind(err, composition.KindArity))

	assert.Equal(t, storage.Synced, in.State())
	assert.Equal(t, storage.Synced, out.State())
	assert.Equal(t, 2.0, out.At(3, 3, 1))
}

func TestRunSingleStage(t *testing.T) {
	g, err := grid.Regular(6, 5, 2, 1)
	require.NoError(t, err)
	in := newField(g, "in", func(i, _, _, _ int) float64 { return float64(i * i) })
	out := newField(g, "out", nil)

	require.NoError(t, RunSingleStage(context.Background(), flux, Options{Backend: Naive}, g, in, out))
	assert.Equal(t, 7.0, out.At(3, 2, 1))
	assert.Equal(t, storage.HostNewer, out.State())
}

func TestArgQueries(t *testing.T) {
	in, out := accessor.Arg(0, "in"), accessor.Arg(1, "out")
	mid := composition.NewScope(2).Temporary("mid")
	c := composition.ExecuteParallel().Stage(lap, in, mid).Stage(flux, mid, out)
	ctx := context.Background()

	e, err := ArgExtent(ctx, c, in)
	require.NoError(t, err)
	assert.Equal(t, extent.MustNew(-1, 2, -1, 1), e)

	e, err = ArgExtent(ctx, c, mid)
	require.NoError(t, err)
	assert.Equal(t, extent.MustNew(0, 1), e)

	intent, err := ArgIntent(ctx, c, mid)
	require.NoError(t, err)
	assert.Equal(t, accessor.ReadWrite, intent)
	intent, err = ArgIntent(ctx, c, in)
	require.NoError(t, err)
	assert.Equal(t, accessor.ReadOnly, intent)

	_, err = ArgExtent(ctx, c, accessor.Arg(9))
	assert.Error(t, err)
}

func TestComputationRunsRepeatedly(t *testing.T) {
	g, err := grid.Regular(5, 5, 1, 1)
	require.NoError(t, err)
	acc := accessor.InOut(0)
	inc := composition.NewFunctor("inc", accessor.ParamList{acc}, composition.Do(func(ev iterdomain.Evaluation) {
		ev.Set(acc, ev.Value(acc)+1)
	}))
	f := newField(g, "f", nil)

	c, err := Compile(context.Background(), func(_ *composition.Scope, args ...accessor.Placeholder) composition.Computable {
		return composition.ExecuteParallel().Stage(inc, args...)
	}, Options{Backend: Block, TileI: 2, TileJ: 2, Workers: 2}, g, f)
	require.NoError(t, err)
	assert.Len(t, c.Tiles(), 4)
	assert.Equal(t, "f", c.Args()[0].Name)

	for range 3 {
		require.NoError(t, c.Run(context.Background()))
	}
	assert.Equal(t, 3.0, f.At(2, 2, 0))
	assert.Equal(t, 0.0, f.At(0, 2, 0))
}

func TestPlaceholdersFollowStoreLocation(t *testing.T) {
	cells := storage.NewBuilder("cells").Dimensions(4, 4, 1).Location(topology.Cells).MustBuild()
	plain := storage.NewBuilder("plain").Dimensions(4, 4, 1).MustBuild()
	args := Placeholders(cells, plain)
	assert.Equal(t, topology.Cells, args[0].Location)
	assert.Equal(t, topology.None, args[1].Location)
	assert.Equal(t, 1, args[1].ID)
}

func TestParseBackend(t *testing.T) {
	b, err := ParseBackend("naive")
	require.NoError(t, err)
	assert.Equal(t, Naive, b)
	_, err = ParseBackend("gpu")
	assert.Error(t, err)

	_, err = Compile(context.Background(), nil, Options{Backend: "gpu"}, &grid.Grid{})
	assert.Error(t, err)
}
