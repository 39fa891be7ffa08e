package builder

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/stencilgo/internal/composition"
	hclload "github.com/vk/stencilgo/internal/hcl"
	"github.com/vk/stencilgo/internal/registry"
	"github.com/vk/stencilgo/internal/stencil"
	"github.com/vk/stencilgo/modules/basic"
	"github.com/vk/stencilgo/modules/boundaries"
	"github.com/vk/stencilgo/modules/diffusion"
	"github.com/vk/stencilgo/modules/tridiagonal"
	"github.com/vk/stencilgo/modules/unstructured"
)

var testOptions = stencil.Options{Backend: stencil.Block, TileI: 3, TileJ: 3, Workers: 2}

func build(t *testing.T, src string) (*Program, error) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.hcl"), []byte(src), 0o644))
	model, conv, err := hclload.NewLoader().Load(ctx, dir)
	require.NoError(t, err)

	reg := registry.New(nil)
	require.NoError(t, reg.RegisterModules(ctx,
		&basic.Module{}, &diffusion.Module{}, &tridiagonal.Module{}, &unstructured.Module{}, &boundaries.Module{}))
	return New(model, reg, conv, testOptions).Build(ctx)
}

func mustBuild(t *testing.T, src string) *Program {
	t.Helper()
	p, err := build(t, src)
	require.NoError(t, err)
	return p
}

func TestLaplacianWithBoundary(t *testing.T) {
	p := mustBuild(t, `
grid {
  size = [10, 9, 2]
  halo = 1
}
field "in" {
  init = i * i + j
}
field "out" {}
computation "lap" {
  multi_stage {
    stage "laplacian" {
      args = ["in", "out"]
    }
  }
}
boundary "out" {
  rule "value" {
    params {
      value = 5
    }
  }
}
`)
	require.NoError(t, p.Run(context.Background()))

	out, ok := p.Field("out")
	require.True(t, ok)
	g := p.Grid
	for i := 0; i < g.I.Total; i++ {
		for j := 0; j < g.J.Total; j++ {
			for k := 0; k < g.NK(); k++ {
				want := -2.0
				if i < g.I.Begin || i > g.I.End || j < g.J.Begin || j > g.J.End {
					want = 5
				}
				assert.Equal(t, want, out.At(i, j, k), "(%d,%d,%d)", i, j, k)
			}
		}
	}
}

func TestTridiagonalSolve(t *testing.T) {
	for _, cache := range []string{"", `k_cached "flush" { fields = ["x"] }`} {
		name := "uncached"
		if cache != "" {
			name = "cached"
		}
		t.Run(name, func(t *testing.T) {
			p := mustBuild(t, `
grid {
  size      = [4, 5, 7]
  splitters = [3]
}
field "a" { init = -1 }
field "b" { init = 4 + k }
field "c" { init = -1 }
field "d" { init = i + 2 * j + k * k }
field "x" {}
computation "solve" {
  temporary "cp" {}
  temporary "dp" {}
  multi_stage {
    order = "forward"
    stage "tridiagonal_forward" {
      args = ["a", "b", "c", "d", "cp", "dp"]
    }
  }
  multi_stage {
    order = "backward"
    `+cache+`
    stage "tridiagonal_backward" {
      args = ["cp", "dp", "x"]
    }
  }
}
`)
			require.NoError(t, p.Run(context.Background()))

			field := func(name string) func(i, j, k int) float64 {
				f, ok := p.Field(name)
				require.True(t, ok)
				return f.At
			}
			a, b, c, d, x := field("a"), field("b"), field("c"), field("d"), field("x")
			nk := p.Grid.NK()
			for i := 0; i < 4; i++ {
				for j := 0; j < 5; j++ {
					for k := 0; k < nk; k++ {
						lhs := b(i, j, k) * x(i, j, k)
						if k > 0 {
							lhs += a(i, j, k) * x(i, j, k-1)
						}
						if k < nk-1 {
							lhs += c(i, j, k) * x(i, j, k+1)
						}
						assert.InDelta(t, d(i, j, k), lhs, 1e-9, "(%d,%d,%d)", i, j, k)
					}
				}
			}
		})
	}
}

func TestIterationsAndGroups(t *testing.T) {
	p := mustBuild(t, `
grid { size = [5, 5, 1] }
field "x" { init = 1 }
field "y" {}
field "z" {}
computation "grow" {
  iterations = 3
  multi_stage {
    stage "scale" {
      args  = ["x", "y"]
      group = "fan_out"
      params {
        factor = 2
      }
    }
    stage "scale" {
      args  = ["x", "z"]
      group = "fan_out"
      params {
        factor = 1
        offset = 1
      }
    }
    stage "copy" {
      args = ["y", "x"]
    }
  }
}
`)
	require.NoError(t, p.Run(context.Background()))
	x, _ := p.Field("x")
	z, _ := p.Field("z")
	assert.Equal(t, 8.0, x.At(2, 2, 0))
	assert.Equal(t, 5.0, z.At(2, 2, 0))

	require.Len(t, p.Computations(), 1)
	assert.Equal(t, 3, p.Computations()[0].Iterations)
	assert.Len(t, p.Computations()[0].Pipeline().Passes()[0].Groups(), 1)

	summaries := p.Summaries()
	require.Len(t, summaries, 3)
	assert.Equal(t, Summary{Field: "x", Min: 8, Max: 8, Mean: 8, Points: 25}, summaries[0])
}

func TestNeighborSumOnCells(t *testing.T) {
	p := mustBuild(t, `
grid {
  size = [6, 6, 2]
  halo = 1
}
field "in" {
  location = "cells"
  init     = 1
}
field "out" {
  location = "cells"
}
computation "sum" {
  multi_stage {
    stage "neighbor_sum" {
      args = ["in", "out"]
    }
  }
}
`)
	require.NoError(t, p.Run(context.Background()))
	out, _ := p.Field("out")
	assert.Equal(t, 2, out.Colors())
	for c := range 2 {
		assert.Equal(t, 3.0, out.AtColor(2, 3, 1, c))
	}
}

// stage wraps one stage block into a computation.
func stage(functor, args, params string) string {
	body := "    stage " + functor + " {\n      args = " + args + "\n"
	if params != "" {
		body += "      params {\n        " + params + "\n      }\n"
	}
	return "computation \"c\" {\n  multi_stage {\n" + body + "    }\n  }\n}\n"
}

func TestBuildErrors(t *testing.T) {
	const grid = "grid {\n  size = [6, 6, 2]\n  halo = 1\n}\nfield \"in\" {}\nfield \"out\" {}\n"
	tests := []struct {
		name       string
		src        string
		wantErr    string
		definition bool
	}{
		{name: "no grid", src: `field "in" {}`, wantErr: "no grid"},
		{
			name:    "bad init",
			src:     grid + `field "bad" { init = i + missing }`,
			wantErr: `field "bad": init`,
		},
		{
			name:    "unknown functor",
			src:     grid + stage(`"nope"`, `["in"]`, ""),
			wantErr: `unknown functor "nope"`,
		},
		{
			name:    "unknown argument",
			src:     grid + stage(`"copy"`, `["in", "ghost"]`, ""),
			wantErr: `unknown field or temporary "ghost"`,
		},
		{
			name:    "missing required parameter",
			src:     grid + stage(`"scale"`, `["in", "out"]`, ""),
			wantErr: `missing required parameter "factor"`,
		},
		{
			name:    "parameters on a functor without any",
			src:     grid + stage(`"copy"`, `["in", "out"]`, "x = 1"),
			wantErr: "takes no parameters",
		},
		{
			name: "unknown order",
			src: grid + `computation "c" {
  multi_stage {
    order = "sideways"
  }
}`,
			wantErr: "unknown execution order",
		},
		{
			name: "temporary shadows field",
			src: grid + `computation "c" {
  temporary "in" {}
}`,
			wantErr: "shadows",
		},
		{
			name: "hazard",
			src: grid + `computation "c" {
  multi_stage {
    stage "copy" {
      args = ["in", "out"]
    }
    stage "laplacian" {
      args = ["out", "in"]
    }
  }
}`,
			wantErr:    "hazard",
			definition: true,
		},
		{
			name: "dependent stages grouped",
			src: grid + `field "mid" {}
computation "c" {
  multi_stage {
    stage "copy" {
      args  = ["in", "mid"]
      group = "g"
    }
    stage "copy" {
      args  = ["mid", "out"]
      group = "g"
    }
  }
}`,
			wantErr:    "independence",
			definition: true,
		},
		{
			name:    "unknown boundary handler",
			src:     grid + "boundary \"in\" {\n  rule \"reflect\" {}\n}\n",
			wantErr: `unknown boundary handler "reflect"`,
		},
		{
			name:    "copy without a source",
			src:     grid + "boundary \"in\" {\n  rule \"copy\" {}\n}\n",
			wantErr: "needs 2 fields",
		},
		{
			name: "ambiguous boundary rules",
			src: grid + `boundary "in" {
  rule "zero_gradient" {
    direction = ["-", "*", "*"]
  }
  rule "copy" {
    direction = ["*", "-", "*"]
  }
  sources = ["out"]
}`,
			wantErr:    "equally specific",
			definition: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := build(t, tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, tt.definition, composition.IsDefinitionError(err))
		})
	}
}
