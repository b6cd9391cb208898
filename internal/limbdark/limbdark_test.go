package limbdark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntensity_CentreIsUnity(t *testing.T) {
	t.Parallel()

	profiles := []Profile{
		{Law: None},
		{Law: Linear, Coef: [4]float64{0.6}},
		{Law: Quadratic, Coef: [4]float64{0.4, 0.2}},
		{Law: SquareRoot, Coef: [4]float64{0.3, 0.3}},
		{Law: Logarithmic, Coef: [4]float64{0.5, 0.2}},
		{Law: Power2, Coef: [4]float64{0.6, 0.8}},
		{Law: Claret4, Coef: [4]float64{0.5, -0.1, 0.3, -0.05}},
	}
	for _, p := range profiles {
		assert.InDelta(t, 1.0, p.Intensity(1), 1e-12, "law %d", p.Law)
	}
}

func TestIntensity_Clipping(t *testing.T) {
	t.Parallel()

	p := Profile{Law: Linear, Coef: [4]float64{0.6}}
	assert.Equal(t, p.Intensity(0), p.Intensity(-0.5))
	assert.Equal(t, p.Intensity(1), p.Intensity(1.5))
}

func TestIntensity_GridMatchesLinear(t *testing.T) {
	t.Parallel()

	// A uniform ramp from 0 to 1 over 101 entries is the linear law
	// with u=1.
	grid := make([]float64, 101)
	for i := range grid {
		grid[i] = float64(i) / 100
	}
	g := Profile{Law: Grid, MuGrid: grid}
	lin := Profile{Law: Linear, Coef: [4]float64{1}}
	for mu := 0.0; mu <= 1.0; mu += 0.013 {
		assert.InDelta(t, lin.Intensity(mu), g.Intensity(mu), 1e-12, "mu=%g", mu)
	}
}

func TestValidate_Grid(t *testing.T) {
	t.Parallel()

	require.Error(t, Profile{Law: Grid}.Validate())
	require.Error(t, Profile{Law: Grid, MuGrid: []float64{1}}.Validate())
	require.NoError(t, Profile{Law: Grid, MuGrid: []float64{0, 1}}.Validate())
	require.NoError(t, Profile{Law: Linear}.Validate())
}

func TestQuadraticMatch_PassThrough(t *testing.T) {
	t.Parallel()

	a, b := Profile{Law: Linear, Coef: [4]float64{0.55}}.QuadraticMatch()
	assert.Equal(t, 0.55, a)
	assert.Zero(t, b)

	a, b = Profile{Law: Quadratic, Coef: [4]float64{0.4, 0.25}}.QuadraticMatch()
	assert.Equal(t, 0.4, a)
	assert.Equal(t, 0.25, b)
}

func TestQuadraticMatch_PinsIntensities(t *testing.T) {
	t.Parallel()

	// The matched quadratic reproduces the source profile at the three
	// matching points mu = 0, 0.5, 1.
	src := Profile{Law: SquareRoot, Coef: [4]float64{0.3, 0.4}}
	a, b := src.QuadraticMatch()
	q := Profile{Law: Quadratic, Coef: [4]float64{a, b}}
	for _, mu := range []float64{0, 0.5, 1} {
		assert.InDelta(t, src.Intensity(mu), q.Intensity(mu), 1e-12, "mu=%g", mu)
	}
}

func TestDiscFlux_Uniform(t *testing.T) {
	t.Parallel()

	// An undarkened disc of unit radius has projected flux pi.
	assert.InDelta(t, 3.141592653589793, DiscFlux(0, 0), 1e-12)
}
