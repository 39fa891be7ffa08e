package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/stencilgo/internal/accessor"
	"github.com/vk/stencilgo/internal/composition"
	"github.com/vk/stencilgo/internal/dag"
	"github.com/vk/stencilgo/internal/extent"
	"github.com/vk/stencilgo/internal/iterdomain"
	"github.com/vk/stencilgo/internal/topology"
)

var ring = extent.MustNew(-1, 1, -1, 1)

// lapFunctor reads its input on the four horizontal neighbors.
func lapFunctor() *composition.Definition {
	in, out := accessor.In(0, ring).Named("in"), accessor.InOut(1).Named("out")
	return composition.NewFunctor("lap", accessor.ParamList{in, out}, composition.Do(func(ev iterdomain.Evaluation) {
		ev.Set(out, 4*ev.Value(in)-ev.Get(in, 1, 0, 0)-ev.Get(in, -1, 0, 0)-ev.Get(in, 0, 1, 0)-ev.Get(in, 0, -1, 0))
	}))
}

func copyFunctor() *composition.Definition {
	in, out := accessor.In(0), accessor.InOut(1)
	return composition.NewFunctor("copy", accessor.ParamList{in, out}, composition.Do(func(ev iterdomain.Evaluation) {
		ev.Set(out, ev.Value(in))
	}))
}

// shiftFunctor reads its input one plane below.
func shiftFunctor() *composition.Definition {
	in, out := accessor.In(0, extent.MustNew(0, 0, 0, 0, -1, 0)), accessor.InOut(1)
	return composition.NewFunctor("shift", accessor.ParamList{in, out}, composition.Do(func(ev iterdomain.Evaluation) {
		ev.Set(out, ev.Get(in, 0, 0, -1))
	}))
}

func TestExtentsSingleStage(t *testing.T) {
	in, out := accessor.Arg(0, "in"), accessor.Arg(1, "out")
	r, err := Analyze(context.Background(), composition.ExecuteParallel().Stage(lapFunctor(), in, out).Pipeline())
	require.NoError(t, err)

	e, ok := r.Extent(in.ID)
	require.True(t, ok)
	assert.Equal(t, ring, e)
	e, _ = r.Extent(out.ID)
	assert.True(t, e.IsZero())

	intent, _ := r.Intent(in.ID)
	assert.Equal(t, accessor.ReadOnly, intent)
	intent, _ = r.Intent(out.ID)
	assert.Equal(t, accessor.ReadWrite, intent)

	require.Len(t, r.Passes, 1)
	assert.Equal(t, []int{0}, r.Passes[0].ReadOnly())
	assert.Equal(t, []int{1}, r.Passes[0].ReadWrite())
}

func TestExtentsPropagateThroughTemporaries(t *testing.T) {
	scope := composition.NewScope(2)
	in, out := accessor.Arg(0, "in"), accessor.Arg(1, "out")
	tmp := scope.Temporary("lap")

	p := composition.ExecuteParallel().
		Stage(lapFunctor(), in, tmp).
		Stage(lapFunctor(), tmp, out).
		Pipeline()
	r, err := Analyze(context.Background(), p)
	require.NoError(t, err)

	stages := p.Stages()
	assert.Equal(t, ring, r.StageExtent(stages[0]))
	assert.True(t, r.StageExtent(stages[1]).IsZero())

	e, _ := r.Extent(in.ID)
	assert.Equal(t, extent.MustNew(-2, 2, -2, 2), e)
	e, _ = r.Extent(tmp.ID)
	assert.Equal(t, ring, e)
	assert.Equal(t, ring, r.Footprint(tmp.ID))
	assert.Equal(t, extent.MustNew(-2, 2, -2, 2), r.Footprint(in.ID))

	h, ok := r.Passes[0].Graph.Edge(0, 1)
	require.True(t, ok)
	assert.Equal(t, dag.ReadAfterWrite, h)
}

func TestExtentsAcrossPasses(t *testing.T) {
	scope := composition.NewScope(3)
	in, out := accessor.Arg(0, "in"), accessor.Arg(1, "out")
	tmp := scope.Temporary("t")
	mid := accessor.Arg(2, "mid")

	p := composition.MultiPass(
		composition.ExecuteParallel().Stage(copyFunctor(), in, tmp).Stage(copyFunctor(), in, mid),
		composition.ExecuteParallel().Stage(lapFunctor(), tmp, out),
		composition.ExecuteParallel().Stage(lapFunctor(), mid, out),
	)
	r, err := Analyze(context.Background(), p)
	require.NoError(t, err)

	stages := p.Stages()
	assert.Equal(t, ring, r.StageExtent(stages[0]), "temporaries carry requirements back across passes")
	assert.True(t, r.StageExtent(stages[1]).IsZero(), "fields do not")
	e, _ := r.Extent(mid.ID)
	assert.Equal(t, ring, e)
}

// Every placeholder extent covers every declared read extent of it.
func TestExtentsAreMonotonic(t *testing.T) {
	scope := composition.NewScope(3)
	a, b, c := accessor.Arg(0), accessor.Arg(1), accessor.Arg(2)
	t1, t2 := scope.Temporary("t1"), scope.Temporary("t2")
	p := composition.MultiPass(
		composition.ExecuteForward().
			Stage(lapFunctor(), a, t1).
			Stage(shiftFunctor(), t1, t2).
			Stage(lapFunctor(), t2, b),
		composition.ExecuteParallel().Stage(lapFunctor(), b, c),
	)
	r, err := Analyze(context.Background(), p)
	require.NoError(t, err)
	for _, s := range p.Stages() {
		for _, bd := range s.Bindings() {
			e, ok := r.Extent(bd.Placeholder.ID)
			require.True(t, ok)
			assert.True(t, e.Covers(bd.Accessor.Extent), "%s on %s", s.Name(), bd.Placeholder)
		}
	}
}

func TestPinnedExtent(t *testing.T) {
	in, out := accessor.Arg(0), accessor.Arg(1)
	scope := composition.NewScope(2)
	tmp := scope.Temporary("t")
	p := composition.ExecuteParallel().
		StageWithExtent(extent.MustNew(-2, 2, -2, 2), copyFunctor(), in, tmp).
		Stage(copyFunctor(), tmp, out).
		Pipeline()
	r, err := Analyze(context.Background(), p)
	require.NoError(t, err)
	e, _ := r.Extent(in.ID)
	assert.Equal(t, extent.MustNew(-2, 2, -2, 2), e)
}

func TestProbe(t *testing.T) {
	in, out := accessor.Arg(0), accessor.Arg(1)
	run := func(f composition.Functor) error {
		_, err := Analyze(context.Background(), composition.ExecuteParallel().Stage(f, in, out).Pipeline())
		return err
	}

	t.Run("offset beyond the declared extent", func(t *testing.T) {
		a, o := accessor.In(0, extent.MustNew(-1, 1)), accessor.InOut(1)
		f := composition.NewFunctor("wide", accessor.ParamList{a, o}, composition.Do(func(ev iterdomain.Evaluation) {
			ev.Set(o, ev.Get(a, 2, 0, 0))
		}))
		err := run(f)
		assert.True(t, composition.HasKind(err, composition.KindExtent))
	})

	t.Run("write through an in accessor", func(t *testing.T) {
		a, o := accessor.In(0), accessor.In(1)
		f := composition.NewFunctor("w", accessor.ParamList{a, o}, composition.Do(func(ev iterdomain.Evaluation) {
			ev.Set(o, ev.Value(a))
		}))
		err := run(f)
		assert.True(t, composition.HasKind(err, composition.KindIntent))
	})

	t.Run("undeclared parameter", func(t *testing.T) {
		a, o := accessor.In(0), accessor.InOut(1)
		f := composition.NewFunctor("u", accessor.ParamList{a, o}, composition.Do(func(ev iterdomain.Evaluation) {
			ev.Set(o, ev.Value(accessor.In(5)))
		}))
		err := run(f)
		assert.True(t, composition.HasKind(err, composition.KindFunctor))
	})

	t.Run("panicking method", func(t *testing.T) {
		a, o := accessor.In(0), accessor.InOut(1)
		f := composition.NewFunctor("p", accessor.ParamList{a, o}, composition.Do(func(ev iterdomain.Evaluation) {
			panic("boom")
		}))
		err := run(f)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("structured functors have no neighbor tables", func(t *testing.T) {
		a, o := accessor.In(0, ring), accessor.InOut(1)
		f := composition.NewFunctor("nb", accessor.ParamList{a, o}, composition.Do(func(ev iterdomain.Evaluation) {
			ev.Set(o, ev.ForNeighbors(a, 0, func(acc, v float64) float64 { return acc + v }))
		}))
		err := run(f)
		assert.True(t, composition.HasKind(err, composition.KindBinding))
	})

	t.Run("neighbor offsets count toward the extent", func(t *testing.T) {
		cells := accessor.Arg(0).On(topology.Cells)
		res := accessor.Arg(1).On(topology.Cells)
		a, o := accessor.In(0, ring), accessor.InOut(1)
		f := composition.NewFunctor("nb", accessor.ParamList{a, o}, composition.Do(func(ev iterdomain.Evaluation) {
			ev.Set(o, ev.ForNeighbors(a, 0, func(acc, v float64) float64 { return acc + v }))
		})).OnLocation(topology.Cells)
		_, err := Analyze(context.Background(), composition.ExecuteParallel().Stage(f, cells, res).Pipeline())
		require.NoError(t, err)

		narrow := accessor.In(0)
		g := composition.NewFunctor("nb", accessor.ParamList{narrow, o}, composition.Do(func(ev iterdomain.Evaluation) {
			ev.Set(o, ev.ForNeighbors(narrow, 0, func(acc, v float64) float64 { return acc + v }))
		})).OnLocation(topology.Cells)
		_, err = Analyze(context.Background(), composition.ExecuteParallel().Stage(g, cells, res).Pipeline())
		assert.True(t, composition.HasKind(err, composition.KindExtent))
	})
}

func TestMethodsRunOnceWhileCompiling(t *testing.T) {
	var calls, recording int
	a, o := accessor.In(0), accessor.InOut(1)
	f := composition.NewFunctor("count", accessor.ParamList{a, o}, composition.Do(func(ev iterdomain.Evaluation) {
		calls++
		if iterdomain.Recording(ev) {
			recording++
		}
		ev.Set(o, ev.Value(a))
	}))
	_, err := Analyze(context.Background(), composition.ExecuteParallel().Stage(f, accessor.Arg(0), accessor.Arg(1)).Pipeline())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, recording)
}

func TestHazards(t *testing.T) {
	in, out := accessor.Arg(0, "in"), accessor.Arg(1, "out")

	t.Run("field written and read with horizontal offset", func(t *testing.T) {
		p := composition.ExecuteParallel().
			Stage(copyFunctor(), in, out).
			Stage(lapFunctor(), out, in).
			Pipeline()
		_, err := Analyze(context.Background(), p)
		assert.True(t, composition.HasKind(err, composition.KindHazard))
	})

	t.Run("same pattern through a temporary is fine", func(t *testing.T) {
		tmp := composition.NewScope(2).Temporary("t")
		p := composition.ExecuteParallel().
			Stage(copyFunctor(), in, tmp).
			Stage(lapFunctor(), tmp, out).
			Pipeline()
		_, err := Analyze(context.Background(), p)
		require.NoError(t, err)
	})

	t.Run("vertical offset in a parallel multi-stage", func(t *testing.T) {
		tmp := composition.NewScope(2).Temporary("t")
		p := composition.ExecuteParallel().
			Stage(copyFunctor(), in, tmp).
			Stage(shiftFunctor(), tmp, out).
			Pipeline()
		_, err := Analyze(context.Background(), p)
		assert.True(t, composition.HasKind(err, composition.KindHazard))

		p = composition.ExecuteForward().
			Stage(copyFunctor(), in, tmp).
			Stage(shiftFunctor(), tmp, out).
			Pipeline()
		_, err = Analyze(context.Background(), p)
		require.NoError(t, err)
	})

	t.Run("field computed over an extended region", func(t *testing.T) {
		tmp := composition.NewScope(3).Temporary("t")
		both := composition.NewFunctor("both",
			accessor.ParamList{accessor.In(0), accessor.InOut(1), accessor.InOut(2)},
			composition.Do(func(ev iterdomain.Evaluation) {}))
		p := composition.ExecuteParallel().
			Stage(both, in, tmp, out).
			Stage(lapFunctor(), tmp, accessor.Arg(2, "res")).
			Pipeline()
		_, err := Analyze(context.Background(), p)
		require.True(t, composition.HasKind(err, composition.KindHazard))
		assert.Contains(t, err.Error(), "written over the extended region")
	})

	t.Run("field read at zero offset by a stage computed beyond the tile", func(t *testing.T) {
		tmp := composition.NewScope(2).Temporary("t")
		p := composition.ExecuteParallel().
			Stage(copyFunctor(), in, tmp).
			Stage(lapFunctor(), tmp, in).
			Pipeline()
		_, err := Analyze(context.Background(), p)
		require.True(t, composition.HasKind(err, composition.KindHazard))
		assert.Contains(t, err.Error(), "neighboring tiles race")
	})
}

func TestIndependence(t *testing.T) {
	a, b, c, d := accessor.Arg(0), accessor.Arg(1), accessor.Arg(2), accessor.Arg(3)

	ok := composition.ExecuteParallel().Independent(
		composition.NewStage(copyFunctor(), a, b),
		composition.NewStage(copyFunctor(), a, c),
	).Stage(copyFunctor(), b, d).Pipeline()
	_, err := Analyze(context.Background(), ok)
	require.NoError(t, err)

	bad := composition.ExecuteParallel().Independent(
		composition.NewStage(copyFunctor(), a, b),
		composition.NewStage(copyFunctor(), b, c),
	).Pipeline()
	_, err = Analyze(context.Background(), bad)
	require.True(t, composition.HasKind(err, composition.KindIndependence))
	assert.Contains(t, err.Error(), "RAW")

	chain := composition.ExecuteParallel().Independent(
		composition.NewStage(copyFunctor(), a, b),
		composition.NewStage(copyFunctor(), b, c),
		composition.NewStage(copyFunctor(), c, d),
	).Pipeline()
	_, err = Analyze(context.Background(), chain)
	require.True(t, composition.HasKind(err, composition.KindIndependence))
	assert.Contains(t, err.Error(), "ordered by a transitive hazard")
	assert.Len(t, composition.DefinitionErrors(err), 3)
}
