package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tundeakins/ellc/internal/limbdark"
	"github.com/tundeakins/ellc/internal/spots"
	"github.com/tundeakins/ellc/internal/starshape"
)

// baseSystem is the circular reference configuration: twin spheres,
// R/a = 0.1, edge-on, uniform discs, S2/S1 = 0.5.
func baseSystem() System {
	return System{
		Pars: BinaryParams{
			T0: 0, Period: 1,
			SBRatio: 0.5, R1: 0.1, R2: 0.1,
			Incl: math.Pi / 2, Q: 1,
			F1: 1, F2: 1,
		},
		Ctl: Control{
			Grid1: 24, Grid2: 24,
			LDLaw1: limbdark.None, LDLaw2: limbdark.None,
			Shape1: starshape.ModelSphere, Shape2: starshape.ModelSphere,
		},
	}
}

func TestLightCurve_OutOfEclipseIsUnity(t *testing.T) {
	t.Parallel()

	res := LightCurve([]float64{0.25, 0.35, 0.65, 0.75}, baseSystem())
	for i, r := range res {
		require.Zero(t, r.Flags&(FlagError|FlagFail), "obs %d", i)
		assert.Zero(t, r.Flags&FlagEclipse, "obs %d", i)
		assert.InDelta(t, 1.0, r.Flux, 1e-9, "obs %d", i)
	}
}

func TestLightCurve_PrimaryEclipseAtEpoch(t *testing.T) {
	t.Parallel()

	res := LightCurve([]float64{0, 0.25}, baseSystem())
	atT0, out := res[0], res[1]

	// Star 1 sits in front of star 2 at the epoch.
	require.NotZero(t, atT0.Flags&FlagEclipse)
	assert.NotZero(t, atT0.Flags&FlagStar2Eclipsed)
	assert.Zero(t, atT0.Flags&FlagStar1Eclipsed)

	// Equal radii: star 2 is fully hidden and the depth equals its
	// out-of-eclipse flux share.
	assert.InDelta(t, 0.0, atT0.Flux2, 1e-9)
	assert.InDelta(t, 1.0-out.Flux2, atT0.Flux, 1e-6)
}

func TestLightCurve_SecondaryEclipse(t *testing.T) {
	t.Parallel()

	res := LightCurve([]float64{0.5}, baseSystem())
	r := res[0]
	require.NotZero(t, r.Flags&FlagEclipse)
	assert.NotZero(t, r.Flags&FlagStar1Eclipsed)
	assert.InDelta(t, 0.0, r.Flux1, 1e-9)
}

func TestLightCurve_EclipseDepthOrdering(t *testing.T) {
	t.Parallel()

	// With S2/S1 < 1 the eclipse of the brighter star is deeper.
	res := LightCurve([]float64{0, 0.5}, baseSystem())
	primary, secondary := res[0].Flux, res[1].Flux
	assert.Less(t, secondary, primary,
		"hiding the bright star must cost more flux than hiding the faint one")
}

func TestLightCurve_TotalOccultationPlateau(t *testing.T) {
	t.Parallel()

	// Small star 2 behind large star 1: a totality plateau.
	sys := baseSystem()
	sys.Pars.R1 = 0.2
	sys.Pars.R2 = 0.05

	res := LightCurve([]float64{0, 0.002, 0.004, 0.25}, sys)
	for i := 0; i < 3; i++ {
		r := res[i]
		require.NotZero(t, r.Flags&FlagEclipse, "obs %d", i)
		assert.NotZero(t, r.Flags&FlagStar2Eclipsed, "obs %d", i)
		assert.NotZero(t, r.Flags&FlagTotal, "obs %d", i)
		assert.InDelta(t, 0.0, r.Flux2, 1e-9, "obs %d", i)
	}
	// The plateau is flat to quadrature precision.
	assert.InDelta(t, res[0].Flux, res[1].Flux, 1e-9)
	assert.InDelta(t, res[1].Flux, res[2].Flux, 1e-9)
}

func TestLightCurve_TransitFlag(t *testing.T) {
	t.Parallel()

	// Small star 1 in front of large star 2: an annular transit, never
	// total.
	sys := baseSystem()
	sys.Pars.R1 = 0.05
	sys.Pars.R2 = 0.2

	res := LightCurve([]float64{0}, sys)
	r := res[0]
	require.NotZero(t, r.Flags&FlagEclipse)
	assert.NotZero(t, r.Flags&FlagStar2Eclipsed)
	assert.NotZero(t, r.Flags&FlagTransit)
	assert.Zero(t, r.Flags&FlagTotal)
	// Star 2 keeps most of its light.
	assert.Greater(t, r.Flux2, 0.0)
	assert.Less(t, r.Flux, 1.0)
}

func TestLightCurve_ThirdLightIdentity(t *testing.T) {
	t.Parallel()

	// Out of eclipse the total is unity and the third-light share is
	// exactly l3.
	sys := baseSystem()
	sys.Pars.Incl = 30 * math.Pi / 180 // no eclipses
	sys.Pars.L3 = 0.25

	res := LightCurve([]float64{0, 0.3, 0.7}, sys)
	for i, r := range res {
		require.Zero(t, r.Flags&FlagEclipse, "obs %d", i)
		assert.InDelta(t, 1.0, r.Flux, 1e-9, "obs %d", i)
		assert.InDelta(t, 0.25, r.Flux-r.Flux1-r.Flux2, 1e-9, "obs %d", i)
	}
}

func TestLightCurve_MugridMatchesLinearLaw(t *testing.T) {
	t.Parallel()

	lin := baseSystem()
	lin.Ctl.LDLaw1 = limbdark.Linear
	lin.Ctl.LDLaw2 = limbdark.Linear
	lin.Pars.LDC1 = [4]float64{1}
	lin.Pars.LDC2 = [4]float64{1}

	grid := make([]float64, 101)
	for i := range grid {
		grid[i] = float64(i) / 100
	}
	tab := lin
	tab.Ctl.LDLaw1 = limbdark.Grid
	tab.Ctl.LDLaw2 = limbdark.Grid
	tab.MuGrid1 = grid
	tab.MuGrid2 = grid

	times := []float64{0, 0.02, 0.25, 0.48, 0.5}
	a := LightCurve(times, lin)
	b := LightCurve(times, tab)
	for i := range times {
		assert.InDelta(t, a[i].Flux, b[i].Flux, 1e-5, "obs %d", i)
	}
}

func TestLightCurve_EccentricRuns(t *testing.T) {
	t.Parallel()

	sys := baseSystem()
	sys.Pars.FC = math.Sqrt(0.3) // e = 0.3, omega = 0
	sys.Ctl.Shape1 = starshape.ModelRocheV
	sys.Ctl.Shape2 = starshape.ModelRocheV

	times := []float64{0, 0.1, 0.25, 0.4, 0.6, 0.9}
	res := LightCurve(times, sys)
	for i, r := range res {
		require.Zero(t, r.Flags&(FlagError|FlagFail), "obs %d", i)
		assert.Greater(t, r.Flux, 0.0, "obs %d", i)
		assert.Less(t, r.Flux, 1.5, "obs %d", i)
	}
	// The epoch still holds the primary eclipse.
	assert.NotZero(t, res[0].Flags&FlagEclipse)
}

func TestLightCurve_SpotDip(t *testing.T) {
	t.Parallel()

	sys := baseSystem()
	sys.Pars.Incl = 60 * math.Pi / 180 // keep the pair out of eclipse
	sys.Spots1 = []spots.Spot{{Lat: 0, Lon: 0, Gamma: 0.15, Factor: 0}}

	res := LightCurve([]float64{0.25, 0.5, 0.75}, sys)
	// The spot faces the observer at phase 0 (longitude 0) and is gone
	// half a rotation later.
	require.Zero(t, res[1].Flags&(FlagError|FlagFail))
	dipped := LightCurve([]float64{0.0}, sys)[0]
	assert.Less(t, dipped.Flux1, res[1].Flux1)
}

func TestLightCurve_OverlappingSpotsWarn(t *testing.T) {
	t.Parallel()

	sys := baseSystem()
	sys.Spots1 = []spots.Spot{
		{Lat: 0, Lon: 0, Gamma: 0.2, Factor: 0.5},
		{Lat: 0, Lon: 0.1, Gamma: 0.2, Factor: 0.5},
	}
	res := LightCurve([]float64{0.25}, sys)
	assert.NotZero(t, res[0].Flags&FlagWarnSpot1)
	assert.NotZero(t, res[0].Flags&FlagWarning)
}

func TestLightCurve_InputErrors(t *testing.T) {
	t.Parallel()

	t.Run("radius beyond roche limit", func(t *testing.T) {
		t.Parallel()
		sys := baseSystem()
		sys.Pars.R1 = 0.9
		res := LightCurve([]float64{0, 0.5}, sys)
		for _, r := range res {
			assert.NotZero(t, r.Flags&FlagError)
			assert.Equal(t, BadDouble, r.Flux)
			assert.Equal(t, BadDouble, r.RV1)
		}
	})

	t.Run("love number out of range", func(t *testing.T) {
		t.Parallel()
		sys := baseSystem()
		sys.Ctl.Shape1 = starshape.ModelLove
		sys.Pars.Hf1 = 2.6
		res := LightCurve([]float64{0}, sys)
		assert.NotZero(t, res[0].Flags&FlagError)
	})

	t.Run("bad period", func(t *testing.T) {
		t.Parallel()
		sys := baseSystem()
		sys.Pars.Period = 0
		res := LightCurve([]float64{0}, sys)
		assert.NotZero(t, res[0].Flags&FlagError)
	})
}

func TestLightCurve_DopplerBoosting(t *testing.T) {
	t.Parallel()

	sys := baseSystem()
	sys.Pars.A = 10 // enables velocity scales
	sys.Pars.Boost1 = 4
	sys.Pars.Boost2 = 4

	// At quadrature star 1 approaches (rv < 0) at one phase and recedes
	// at the other, so the boosted fluxes differ between the two.
	res := LightCurve([]float64{0.25, 0.75}, sys)
	require.Zero(t, res[0].Flags&(FlagError|FlagFail))
	assert.NotEqual(t, res[0].Flux1, res[1].Flux1)
	// The total stays near unity: boosting is a small modulation.
	assert.InDelta(t, 1.0, res[0].Flux, 1e-2)
}

func TestRadialVelocities_Antiphase(t *testing.T) {
	t.Parallel()

	p := baseSystem().Pars
	p.A = 10

	rvs := RadialVelocities([]float64{0.25, 0.75}, p, Silent)
	for _, rv := range rvs {
		// Equal masses: equal and opposite velocities.
		assert.InDelta(t, -rv[0], rv[1], 1e-6)
	}
	// The two quadratures have opposite senses for each star.
	assert.InDelta(t, -rvs[0][0], rvs[1][0], 0.2)
	assert.NotZero(t, rvs[0][0])
}

func TestRadialVelocities_Amplitude(t *testing.T) {
	t.Parallel()

	p := baseSystem().Pars
	p.A = 10

	// K = 2*pi*a/2 / P for twin stars on a circular edge-on orbit.
	wantK := math.Pi * 10 * 6.957e5 / 86400.0
	rvs := RadialVelocities([]float64{0.25}, p, Silent)
	assert.InDelta(t, wantK, math.Abs(rvs[0][0]), 0.01*wantK)
}

func TestRadialVelocities_BadInput(t *testing.T) {
	t.Parallel()

	p := baseSystem().Pars
	p.Period = -1
	rvs := RadialVelocities([]float64{0}, p, Silent)
	assert.Equal(t, BadDouble, rvs[0][0])
	assert.Equal(t, BadDouble, rvs[0][1])
}

func TestLightCurve_FluxWeightedRVFinite(t *testing.T) {
	t.Parallel()

	sys := baseSystem()
	sys.Pars.A = 10
	sys.Pars.VSinI1 = 20
	sys.Pars.VSinI2 = 20
	sys.Ctl.FluxWeightedRV = true

	// During a partial eclipse the Rossiter-McLaughlin weighting
	// perturbs the eclipsed star's velocity; everything stays finite.
	res := LightCurve([]float64{0.0105, 0.25}, sys)
	for i, r := range res {
		require.Zero(t, r.Flags&(FlagError|FlagFail), "obs %d", i)
		assert.False(t, math.IsNaN(r.RV1), "obs %d", i)
		assert.False(t, math.IsNaN(r.RV2), "obs %d", i)
	}
	assert.NotZero(t, res[0].Flags&FlagEclipse)
}
