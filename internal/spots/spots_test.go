package spots

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tundeakins/ellc/internal/geom"
)

func TestModulation_HiddenSpot(t *testing.T) {
	t.Parallel()

	// A spot on the far side leaves the flux untouched.
	sp := Spot{Lat: 0, Lon: math.Pi, Gamma: 0.1, Factor: 0}
	df, tag := Modulation(sp, 0, 0, math.Pi/2, 0)
	assert.Equal(t, TagHidden, tag)
	assert.Equal(t, 1.0, df)
}

func TestModulation_CentredDarkSpot(t *testing.T) {
	t.Parallel()

	// A black spot at the sub-observer point of an undarkened star dips
	// the flux by its projected area fraction sin^2(gamma).
	gamma := 0.15
	sp := Spot{Lat: 0, Lon: 0, Gamma: gamma, Factor: 0}
	df, tag := Modulation(sp, 0, 0, math.Pi/2, 0)
	require.Equal(t, TagVisible, tag)

	want := 1 - math.Sin(gamma)*math.Sin(gamma)
	assert.InDelta(t, want, df, 1e-4)
}

func TestModulation_BrightSpotRaisesFlux(t *testing.T) {
	t.Parallel()

	sp := Spot{Lat: 0, Lon: 0, Gamma: 0.2, Factor: 2}
	df, _ := Modulation(sp, 0.3, 0.2, math.Pi/2, 0)
	assert.Greater(t, df, 1.0)
}

func TestModulation_RotatesInAndOut(t *testing.T) {
	t.Parallel()

	sp := Spot{Lat: 0, Lon: 0, Gamma: 0.1, Factor: 0}
	var tags []int
	for _, phase := range []float64{0, math.Pi / 2, math.Pi} {
		_, tag := Modulation(sp, 0, 0, math.Pi/2, phase)
		tags = append(tags, tag)
	}
	assert.Equal(t, TagVisible, tags[0])
	assert.Equal(t, TagOnLimb, tags[1])
	assert.Equal(t, TagHidden, tags[2])
}

func TestProject_CentredSpot(t *testing.T) {
	t.Parallel()

	sp := Spot{Lat: 0, Lon: 0, Gamma: 0.2}
	pr := Project(sp, math.Pi/2, 0)
	assert.Equal(t, 3, pr.Case)
	assert.InDelta(t, math.Pi/2, pr.Beta, 1e-9)
	// Face-on spot projects to a circle of radius sin(gamma) at the
	// disc centre.
	assert.InDelta(t, math.Sin(0.2), pr.Ell.Ap, 1e-9)
	assert.InDelta(t, math.Sin(0.2), pr.Ell.Bp, 1e-9)
	assert.InDelta(t, 0.0, math.Hypot(pr.Ell.Xc, pr.Ell.Yc), 1e-9)
}

func TestProject_LimbSpotHasTangents(t *testing.T) {
	t.Parallel()

	// A spot centred just inside the limb straddles it and carries the
	// two limb tangent points on the unit circle.
	sp := Spot{Lat: 0, Lon: 0, Gamma: 0.3}
	pr := Project(sp, math.Pi/2, math.Pi/2-0.1)
	require.Contains(t, []int{1, 2}, pr.Case)
	require.True(t, pr.HasLimb)
	assert.InDelta(t, 1.0, math.Hypot(pr.L1.X, pr.L1.Y), 1e-9)
	assert.InDelta(t, 1.0, math.Hypot(pr.L2.X, pr.L2.Y), 1e-9)
}

func TestEclipsedFraction_FullCover(t *testing.T) {
	t.Parallel()

	// A companion covering the whole host disc hides the whole spot.
	sp := Spot{Lat: 0, Lon: 0, Gamma: 0.2, Factor: 0}
	comp := mustCircle(t, 3, 0, 0)
	frac, ok := EclipsedFraction(sp, math.Pi/2, 0, comp)
	require.True(t, ok)
	assert.InDelta(t, 1.0, frac, 1e-6)
}

func TestEclipsedFraction_NoCover(t *testing.T) {
	t.Parallel()

	sp := Spot{Lat: 0, Lon: 0, Gamma: 0.2, Factor: 0}
	comp := mustCircle(t, 0.3, 5, 0)
	frac, ok := EclipsedFraction(sp, math.Pi/2, 0, comp)
	require.True(t, ok)
	assert.InDelta(t, 0.0, frac, 1e-9)
}

func TestEclipsedFraction_NearLimbInterpolates(t *testing.T) {
	t.Parallel()

	// Exactly on the limb the two-run interpolation still produces a
	// finite fraction.
	sp := Spot{Lat: 0, Lon: 0, Gamma: 0.3, Factor: 0}
	comp := mustCircle(t, 3, 0, 0)
	frac, ok := EclipsedFraction(sp, math.Pi/2, math.Pi/2, comp)
	require.True(t, ok)
	assert.GreaterOrEqual(t, frac, 0.0)
	assert.LessOrEqual(t, frac, 1.0)
}

func TestOverlappingPair(t *testing.T) {
	t.Parallel()

	a := Spot{Lat: 0, Lon: 0, Gamma: 0.2}
	b := Spot{Lat: 0, Lon: 0.3, Gamma: 0.2}
	c := Spot{Lat: 0, Lon: 2.0, Gamma: 0.2}

	assert.True(t, OverlappingPair([]Spot{a, b}))
	assert.False(t, OverlappingPair([]Spot{a, c}))
	assert.False(t, OverlappingPair([]Spot{a}))
	assert.False(t, OverlappingPair(nil))
}

func mustCircle(t *testing.T, r, x, y float64) geom.Ellipse {
	t.Helper()
	ell, err := geom.New(r, r, x, y, 0)
	require.NoError(t, err)
	return ell
}
