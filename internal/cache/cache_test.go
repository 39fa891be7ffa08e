package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/stencilgo/internal/accessor"
	"github.com/vk/stencilgo/internal/analysis"
	"github.com/vk/stencilgo/internal/composition"
	"github.com/vk/stencilgo/internal/extent"
	"github.com/vk/stencilgo/internal/iterdomain"
)

func functor(name string, in extent.Extent) *composition.Definition {
	a, o := accessor.In(0, in), accessor.InOut(1)
	return composition.NewFunctor(name, accessor.ParamList{a, o}, composition.Do(func(ev iterdomain.Evaluation) {
		b := in.Bounds()
		ev.Set(o, ev.Get(a, b[0], b[2], b[4])+ev.Get(a, b[1], b[3], b[5]))
	}))
}

func plan(t *testing.T, p *composition.Pipeline) (*Plan, error) {
	t.Helper()
	r, err := analysis.Analyze(context.Background(), p)
	require.NoError(t, err)
	return Build(context.Background(), r)
}

func TestIJCache(t *testing.T) {
	in, out := accessor.Arg(0), accessor.Arg(1)
	tmp := composition.NewScope(2).Temporary("t")
	ring := extent.MustNew(-1, 1, -1, 1)

	pl, err := plan(t, composition.ExecuteParallel().
		IJCached(tmp).
		Stage(functor("a", extent.Zero), in, tmp).
		Stage(functor("b", ring), tmp, out).
		Pipeline())
	require.NoError(t, err)
	require.Len(t, pl.Passes, 1)
	require.Len(t, pl.Passes[0].IJ, 1)
	assert.Equal(t, ring, pl.Passes[0].IJ[0].Extent)
	assert.True(t, pl.Passes[0].Cached(tmp.ID))
	assert.False(t, pl.Passes[0].Cached(in.ID))
}

func TestKCache(t *testing.T) {
	in, out := accessor.Arg(0), accessor.Arg(1)
	below := extent.MustNew(0, 0, 0, 0, -2, 1)

	pl, err := plan(t, composition.ExecuteForward().
		KCached(composition.Fill, in).
		KCached(composition.FillFlush, out).
		Stage(functor("f", below), in, out).
		Pipeline())
	require.NoError(t, err)
	require.Len(t, pl.Passes[0].K, 2)
	k := pl.Passes[0].K[0]
	assert.Equal(t, -2, k.KMinus)
	assert.Equal(t, 1, k.KPlus)
	assert.Equal(t, 4, k.Window())
	assert.Equal(t, 1, pl.Passes[0].K[1].Window())
	assert.True(t, pl.Passes[0].K[1].Policy.Flushes())
}

func TestUnusedCachesAreDropped(t *testing.T) {
	in, out, unused := accessor.Arg(0), accessor.Arg(1), accessor.Arg(2)
	pl, err := plan(t, composition.ExecuteForward().
		KCached(composition.Fill, unused).
		Stage(functor("f", extent.Zero), in, out).
		Pipeline())
	require.NoError(t, err)
	assert.Empty(t, pl.Passes[0].K)
}

func TestCacheDefinitionErrors(t *testing.T) {
	in, out := accessor.Arg(0), accessor.Arg(1)
	tmp := composition.NewScope(2).Temporary("t")
	vertical := extent.MustNew(0, 0, 0, 0, -1, 0)

	tests := []struct {
		name string
		ms   *composition.MultiStage
	}{
		{
			name: "k cache in a parallel multi-stage",
			ms:   composition.ExecuteParallel().KCached(composition.Fill, in).Stage(functor("f", extent.Zero), in, out),
		},
		{
			name: "ij cache with a fill policy",
			ms: composition.ExecuteParallel().
				WithCache(composition.Cache{Placeholder: in, Kind: composition.IJCache, Policy: composition.Fill}).
				Stage(functor("f", extent.Zero), in, out),
		},
		{
			name: "ij cache read across planes",
			ms: composition.ExecuteForward().IJCached(tmp).
				Stage(functor("f", extent.Zero), in, tmp).
				Stage(functor("g", vertical), tmp, out),
		},
		{
			name: "duplicate cache",
			ms: composition.ExecuteForward().KCached(composition.Fill, in).KCached(composition.Flush, in).
				Stage(functor("f", extent.Zero), in, out),
		},
		{
			name: "local cache on a field",
			ms:   composition.ExecuteForward().KCached(composition.Local, out).Stage(functor("f", extent.Zero), in, out),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := plan(t, tt.ms.Pipeline())
			require.Error(t, err)
			assert.True(t, composition.HasKind(err, composition.KindCache))
		})
	}
}

func TestLocalCachesStayInTheirPass(t *testing.T) {
	in, out := accessor.Arg(0), accessor.Arg(1)
	tmp := composition.NewScope(2).Temporary("t")

	tests := []struct {
		name   string
		writer *composition.MultiStage
	}{
		{
			name:   "ij cache",
			writer: composition.ExecuteParallel().IJCached(tmp).Stage(functor("w", extent.Zero), in, tmp),
		},
		{
			name:   "local k cache",
			writer: composition.ExecuteForward().KCached(composition.Local, tmp).Stage(functor("w", extent.Zero), in, tmp),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := plan(t, composition.MultiPass(
				tt.writer,
				composition.ExecuteParallel().Stage(functor("r", extent.Zero), tmp, out),
			))
			require.True(t, composition.HasKind(err, composition.KindCache))
			assert.Contains(t, err.Error(), "multi-stages [1] also access it")
		})
	}
}
