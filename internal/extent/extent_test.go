package extent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("missing bounds are zero", func(t *testing.T) {
		e, err := New(-1, 1)
		require.NoError(t, err)
		assert.Equal(t, Extent{IMinus: -1, IPlus: 1}, e)
	})

	t.Run("no bounds is the zero extent", func(t *testing.T) {
		e, err := New()
		require.NoError(t, err)
		assert.True(t, e.IsZero())
	})

	t.Run("rejects boxes without the origin", func(t *testing.T) {
		_, err := New(1, 1)
		require.Error(t, err)
		_, err = New(0, 0, 0, -1)
		require.Error(t, err)
	})

	t.Run("rejects too many bounds", func(t *testing.T) {
		_, err := New(0, 0, 0, 0, 0, 0, 0)
		require.Error(t, err)
	})

	assert.Panics(t, func() { MustNew(2) })
}

func TestUnionAndCompose(t *testing.T) {
	a := MustNew(-1, 0, 0, 2)
	b := MustNew(0, 1, -1, 0, 0, 1)

	u := a.Union(b)
	assert.Equal(t, MustNew(-1, 1, -1, 2, 0, 1), u)
	assert.True(t, u.Covers(a))
	assert.True(t, u.Covers(b))

	c := a.Compose(b)
	assert.Equal(t, MustNew(-1, 1, -1, 2, 0, 1), c)

	lap := MustNew(-1, 1, -1, 1)
	assert.Equal(t, MustNew(-2, 2, -2, 2), lap.Compose(lap))
}

func TestComposeIsMonotonic(t *testing.T) {
	boxes := []Extent{
		Zero,
		MustNew(-1, 1, -1, 1),
		MustNew(0, 2, -3, 0, -1, 0),
		MustNew(-2, 0, 0, 0, 0, 1),
	}
	for _, a := range boxes {
		for _, b := range boxes {
			assert.True(t, a.Compose(b).Covers(a), "%s + %s", a, b)
			assert.True(t, a.Compose(b).Covers(b), "%s + %s", a, b)
			assert.True(t, a.Union(b).Covers(a))
			assert.Equal(t, a.Union(b), b.Union(a))
		}
	}
}

func TestContainsAndExpand(t *testing.T) {
	e := Zero.Expand(1, 0, 0).Expand(0, -2, 0).Expand(0, 0, 1)
	assert.Equal(t, MustNew(0, 1, -2, 0, 0, 1), e)
	assert.True(t, e.Contains(1, -2, 1))
	assert.False(t, e.Contains(-1, 0, 0))
	assert.False(t, e.Contains(0, 0, 2))

	assert.True(t, e.Horizontal().IsVerticalZero())
	assert.False(t, e.IsHorizontalZero())
	assert.Equal(t, [6]int{0, 1, -2, 0, 0, 1}, e.Bounds())
	assert.Equal(t, "i[0,1] j[-2,0] k[0,1]", e.String())
}
