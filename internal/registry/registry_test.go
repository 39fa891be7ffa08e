package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/stencilgo/internal/accessor"
	"github.com/vk/stencilgo/internal/boundary"
	"github.com/vk/stencilgo/internal/composition"
	"github.com/vk/stencilgo/internal/grid"
	"github.com/vk/stencilgo/internal/handlers"
	"github.com/vk/stencilgo/internal/iterdomain"
)

type scaleParams struct {
	Factor float64 `stencil:"factor,required"`
}

type scaleModule struct{}

func (scaleModule) Register(r *Registry) {
	r.RegisterFunctor("scale", &RegisteredFunctor{
		NewParams: func() any { return &scaleParams{} },
		New: func(_ *grid.Grid, p any) (composition.Functor, error) {
			f := p.(*scaleParams).Factor
			in, out := accessor.In(0), accessor.InOut(1)
			return composition.NewFunctor("scale", accessor.ParamList{in, out}, composition.Do(func(ev iterdomain.Evaluation) {
				ev.Set(out, f*ev.Value(in))
			})), nil
		},
	})
	r.RegisterHandler("zero", &handlers.RegisteredHandler{
		New: func(any) (boundary.Handler, error) { return boundary.Value(0), nil },
	})
}

func TestRegisterModules(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.RegisterModules(context.Background(), scaleModule{}))

	assert.Equal(t, []string{"scale"}, r.FunctorNames())
	assert.Equal(t, []string{"zero"}, r.HandlerNames())

	f, ok := r.Functor("scale")
	require.True(t, ok)
	params := f.NewParams().(*scaleParams)
	params.Factor = 2
	functor, err := f.New(nil, params)
	require.NoError(t, err)
	assert.Equal(t, "scale", functor.Name())

	_, ok = r.Handler("zero")
	assert.True(t, ok)
	_, ok = r.Functor("missing")
	assert.False(t, ok)
}

func TestDuplicateFunctorPanics(t *testing.T) {
	r := New(nil)
	r.RegisterFunctor("f", &RegisteredFunctor{})
	assert.Panics(t, func() { r.RegisterFunctor("f", &RegisteredFunctor{}) })
}

func TestValidateRegistry(t *testing.T) {
	newFunctor := func(*grid.Grid, any) (composition.Functor, error) { return nil, nil }
	tests := []struct {
		name      string
		newParams func() any
		nilNew    bool
		wantErr   string
	}{
		{name: "no constructor", nilNew: true, wantErr: "no constructor"},
		{name: "not a pointer", newParams: func() any { return scaleParams{} }, wantErr: "pointer to a struct"},
		{
			name: "unsupported field type",
			newParams: func() any {
				return &struct {
					Fn func() `stencil:"fn"`
				}{}
			},
			wantErr: "could not imply cty type",
		},
		{
			name: "duplicate tag",
			newParams: func() any {
				return &struct {
					A float64 `stencil:"x"`
					B float64 `stencil:"x"`
				}{}
			},
			wantErr: "more than one field",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(nil)
			f := &RegisteredFunctor{NewParams: tt.newParams, New: newFunctor}
			if tt.nilNew {
				f.New = nil
			}
			r.RegisterFunctor("bad", f)
			err := r.ValidateRegistry(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
