package eclipse

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tundeakins/ellc/internal/bright"
	"github.com/tundeakins/ellc/internal/geom"
	"github.com/tundeakins/ellc/internal/limbdark"
	"github.com/tundeakins/ellc/internal/starshape"
)

// uniformPars is a brightness block for a uniform spherical star of the
// given radius viewed edge-on: the kernel then returns Scale everywhere
// on the disc.
func uniformPars(radius float64) *bright.Params {
	return &bright.Params{
		Scale: 1,
		Fig:   starshape.Figure{A: radius, B: radius, C: radius},
		View:  geom.ViewMatrix(0, math.Pi/2),
		Sep:   1,
		Q:     1,
		Frot:  1,
		LD:    limbdark.Profile{Law: limbdark.None},
	}
}

func circleLens(r, d float64) float64 {
	return 2*r*r*math.Acos(d/(2*r)) - d/2*math.Sqrt(4*r*r-d*d)
}

func TestPartial_EclipsedLensArea(t *testing.T) {
	t.Parallel()

	r, d := 0.1, 0.12
	host, err := geom.New(r, r, 0, 0, 0)
	require.NoError(t, err)
	comp, err := geom.New(r, r, d, 0, 0)
	require.NoError(t, err)

	ix := geom.Intersect(host, comp)
	require.Equal(t, 2, ix.N)

	pars := uniformPars(r)
	res, err := Partial(host, comp, ix.Points[0], ix.Points[1], pars, 32, 4, 64, true, nil)
	require.NoError(t, err)

	want := circleLens(r, d)
	assert.InDelta(t, want, res.Area, 0.01*want)
	// Uniform brightness: the area-weighted mean is the scale itself.
	assert.InDelta(t, 1.0, res.Flux/res.Area, 1e-6)
	assert.Nil(t, pars.Transform, "region transform must be reset")
}

func TestPartial_UneclipsedComplement(t *testing.T) {
	t.Parallel()

	r, d := 0.1, 0.12
	host, err := geom.New(r, r, 0, 0, 0)
	require.NoError(t, err)
	comp, err := geom.New(r, r, d, 0, 0)
	require.NoError(t, err)
	ix := geom.Intersect(host, comp)
	require.Equal(t, 2, ix.N)

	pars := uniformPars(r)
	ecl, err := Partial(host, comp, ix.Points[0], ix.Points[1], pars, 32, 4, 64, true, nil)
	require.NoError(t, err)
	une, err := Partial(host, comp, ix.Points[0], ix.Points[1], pars, 32, 4, 64, false, nil)
	require.NoError(t, err)

	// Lens plus remainder tile the host disc.
	assert.InDelta(t, host.Area, ecl.Area+une.Area, 0.01*host.Area)
}

func TestPartial_LimbDarkenedLensDimmerThanCentre(t *testing.T) {
	t.Parallel()

	// A lens at the limb of a darkened star must average below the
	// central intensity and above zero.
	r, d := 0.1, 0.17
	host, err := geom.New(r, r, 0, 0, 0)
	require.NoError(t, err)
	comp, err := geom.New(r, r, d, 0, 0)
	require.NoError(t, err)
	ix := geom.Intersect(host, comp)
	require.Equal(t, 2, ix.N)

	pars := uniformPars(r)
	pars.LD = limbdark.Profile{Law: limbdark.Linear, Coef: [4]float64{0.6}}
	res, err := Partial(host, comp, ix.Points[0], ix.Points[1], pars, 32, 4, 64, true, nil)
	require.NoError(t, err)

	mean := res.Flux / res.Area
	assert.Greater(t, mean, 0.0)
	assert.Less(t, mean, 1.0)
}

func TestDoublePartial_CrescentsMatchOverlap(t *testing.T) {
	t.Parallel()

	// A narrow companion band across the host: four intersections, two
	// crescents. Their area must equal host minus overlap.
	host, err := geom.New(0.2, 0.1, 0, 0, 0)
	require.NoError(t, err)
	comp, err := geom.New(0.3, 0.05, 0, 0, math.Pi/2)
	require.NoError(t, err)

	ix := geom.Intersect(host, comp)
	require.Equal(t, 4, ix.N)

	ov, _ := geom.OverlapFrom(host, comp, ix)
	require.Greater(t, ov, 0.0)

	pars := uniformPars(0.2)
	res, err := DoublePartial(host, comp, ix.Points, pars, 32, 4, 64, nil)
	require.NoError(t, err)

	want := host.Area - ov
	assert.InDelta(t, want, res.Area, 0.02*want)
	assert.InDelta(t, 1.0, res.Flux/res.Area, 1e-6)
}

func TestPartial_DegenerateChord(t *testing.T) {
	t.Parallel()

	host, err := geom.New(0.1, 0.1, 0, 0, 0)
	require.NoError(t, err)
	comp, err := geom.New(0.1, 0.1, 0.12, 0, 0)
	require.NoError(t, err)

	p := geom.Point{X: 0.06, Y: 0.08}
	_, err = Partial(host, comp, p, p, uniformPars(0.1), 16, 4, 32, true, nil)
	assert.ErrorIs(t, err, ErrGeometry)
}
