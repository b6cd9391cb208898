// Package ellc synthesises light curves and radial velocities of
// eclipsing binary stars. Each star is modelled as a triaxial ellipsoid;
// fluxes come from adaptive Gauss-Legendre integration of a surface
// brightness kernel over the visible, eclipsed and uneclipsed regions of
// the projected ellipses, with circular-spot modulation, simple
// reflection and Doppler boosting superposed.
//
// The typed API is System plus LightCurve and RadialVelocity. Lc and Rv
// accept the positional parameter arrays of the classic interface, with
// angles in degrees at the boundary.
package ellc

import (
	"math"

	"github.com/tundeakins/ellc/internal/engine"
	"github.com/tundeakins/ellc/internal/limbdark"
	"github.com/tundeakins/ellc/internal/spots"
	"github.com/tundeakins/ellc/internal/starshape"
)

// Type aliases re-export the engine types so callers need not import
// internal packages.

// BinaryParams are the 39 system parameters (radians internally).
type BinaryParams = engine.BinaryParams

// Control are the ten integer switches of a synthesis call.
type Control = engine.Control

// System bundles the inputs of one LightCurve invocation.
type System = engine.System

// Result is one observation's output record.
type Result = engine.Result

// Flag is the per-observation classification word.
type Flag = engine.Flag

// Verbosity gates the diagnostic print sites.
type Verbosity = engine.Verbosity

// Spot is one circular spot, angles in radians.
type Spot = spots.Spot

// Flag bits, externally stable.
const (
	FlagEclipse       = engine.FlagEclipse
	FlagStar1Eclipsed = engine.FlagStar1Eclipsed
	FlagStar2Eclipsed = engine.FlagStar2Eclipsed
	FlagTotal         = engine.FlagTotal
	FlagTransit       = engine.FlagTransit
	FlagDoublePartial = engine.FlagDoublePartial
	FlagWarnSpot1     = engine.FlagWarnSpot1
	FlagWarnSpot2     = engine.FlagWarnSpot2
	FlagFail          = engine.FlagFail
	FlagWarning       = engine.FlagWarning
	FlagError         = engine.FlagError
)

// BadDouble fills the scalar outputs of uncomputable observations.
const BadDouble = engine.BadDouble

// Verbosity levels.
const (
	Silent = engine.Silent
	Warn   = engine.Warn
	User   = engine.User
	Debug  = engine.Debug
)

// Shape model tags of the positional interface.
const (
	ShapeSphere  = int(starshape.ModelSphere)
	ShapeRoche   = int(starshape.ModelRoche)
	ShapeRocheV  = int(starshape.ModelRocheV)
	ShapeLove    = int(starshape.ModelLove)
	ShapePoly1p5 = int(starshape.ModelPoly1p5)
	ShapePoly3p0 = int(starshape.ModelPoly3p0)
)

// Limb-darkening law tags of the positional interface. LdMugrid selects
// the tabulated mu-grid passed alongside the parameter arrays.
const (
	LdNone      = int(limbdark.None)
	LdLinear    = int(limbdark.Linear)
	LdQuadratic = int(limbdark.Quadratic)
	LdSqrt      = int(limbdark.SquareRoot)
	LdLog       = int(limbdark.Logarithmic)
	LdPower2    = int(limbdark.Power2)
	LdClaret4   = int(limbdark.Claret4)
	LdMugrid    = -1
)

// NParams is the length of the positional binary-parameter array and
// NControl the length of the control-integer array.
const (
	NParams  = 39
	NControl = 10
)

// NSpotPar is the number of per-spot parameters in the column-major spot
// arrays: latitude, longitude, angular radius (degrees) and brightness
// factor.
const NSpotPar = 4

const dtor = math.Pi / 180

// LightCurve runs the synthesis pipeline over the observation times.
func LightCurve(times []float64, sys System) []Result {
	return engine.LightCurve(times, sys)
}

// RadialVelocity returns only the centre-of-mass radial velocities,
// bypassing flux integration.
func RadialVelocity(times []float64, pars BinaryParams, verbose Verbosity) [][2]float64 {
	return engine.RadialVelocities(times, pars, verbose)
}

// Lc is the positional entry point: binPars has 39 slots and ctl 10, as
// documented on ParamsFromSlice and ControlFromSlice. Spot arrays are
// column-major, NSpotPar rows by at least n_spot columns; only the first
// n_spot columns (from the control block) are read. The result columns
// are total flux, flux 1, flux 2, rv 1, rv 2 and the flag word.
func Lc(times []float64, binPars []float64, ctl []int, spots1, spots2 [][]float64,
	mugrid1, mugrid2 []float64, verbose Verbosity) [][6]float64 {

	out := make([][6]float64, len(times))
	pars, ok := ParamsFromSlice(binPars)
	if !ok {
		fillBad(out)
		return out
	}
	control, ok := ControlFromSlice(ctl)
	if !ok {
		fillBad(out)
		return out
	}
	sp1, ok1 := spotsFromColumns(spots1, control.NSpots1)
	sp2, ok2 := spotsFromColumns(spots2, control.NSpots2)
	if !ok1 || !ok2 {
		fillBad(out)
		return out
	}

	sys := System{
		Pars: pars, Ctl: control,
		Spots1: sp1, Spots2: sp2,
		MuGrid1: mugrid1, MuGrid2: mugrid2,
		Verbose: verbose,
	}
	for i, r := range engine.LightCurve(times, sys) {
		out[i] = [6]float64{r.Flux, r.Flux1, r.Flux2, r.RV1, r.RV2, float64(r.Flags)}
	}
	return out
}

// Rv is the positional radial-velocity entry point; columns are rv 1 and
// rv 2 in km/s.
func Rv(times []float64, binPars []float64, verbose Verbosity) [][2]float64 {
	pars, ok := ParamsFromSlice(binPars)
	if !ok {
		out := make([][2]float64, len(times))
		for i := range out {
			out[i] = [2]float64{BadDouble, BadDouble}
		}
		return out
	}
	return engine.RadialVelocities(times, pars, verbose)
}

// ParamsFromSlice unpacks the 39 positional parameter slots. Angles
// arrive in degrees and are converted to radians. Slot order: T0, P,
// S2/S1, R1/a, R2/a, incl, l3, a, sqrt(e)cos w, sqrt(e)sin w, q, four
// limb-darkening coefficients per star, two gravity-darkening exponents,
// di/dt (deg/day), dw/dt (deg per sidereal period), F1, F2, two boosting
// factors, two heating triplets, two misalignment angles, two v sin i,
// and the two fluid Love numbers (the last slot is star 2's).
func ParamsFromSlice(v []float64) (BinaryParams, bool) {
	if len(v) != NParams {
		return BinaryParams{}, false
	}
	p := BinaryParams{
		T0: v[0], Period: v[1],
		SBRatio: v[2], R1: v[3], R2: v[4],
		Incl: v[5] * dtor, L3: v[6], A: v[7],
		FC: v[8], FS: v[9], Q: v[10],
		LDC1: [4]float64{v[11], v[12], v[13], v[14]},
		LDC2: [4]float64{v[15], v[16], v[17], v[18]},
		GD1:  v[19], GD2: v[20],
		DiDt:  v[21] * dtor,
		DomDt: v[22] * dtor,
		F1:    v[23], F2: v[24],
		Boost1: v[25], Boost2: v[26],
		Heat1:   [3]float64{v[27], v[28], v[29]},
		Heat2:   [3]float64{v[30], v[31], v[32]},
		Lambda1: v[33] * dtor, Lambda2: v[34] * dtor,
		VSinI1: v[35], VSinI2: v[36],
		Hf1: v[37], Hf2: v[38],
	}
	return p, true
}

// ControlFromSlice unpacks the ten control integers: grid sizes, spot
// counts, limb-darkening law tags, shape model tags, the flux-weighted
// rv flag and the exact gravity-darkening flag.
func ControlFromSlice(v []int) (Control, bool) {
	if len(v) != NControl {
		return Control{}, false
	}
	law1, ok1 := lawFromTag(v[4])
	law2, ok2 := lawFromTag(v[5])
	if !ok1 || !ok2 {
		return Control{}, false
	}
	if v[6] < 0 || v[6] > int(starshape.ModelPoly3p0) ||
		v[7] < 0 || v[7] > int(starshape.ModelPoly3p0) {
		return Control{}, false
	}
	return Control{
		Grid1: v[0], Grid2: v[1],
		NSpots1: v[2], NSpots2: v[3],
		LDLaw1: law1, LDLaw2: law2,
		Shape1: starshape.Model(v[6]), Shape2: starshape.Model(v[7]),
		FluxWeightedRV: v[8] != 0,
		ExactGrav:      v[9] != 0,
	}, true
}

func lawFromTag(tag int) (limbdark.Law, bool) {
	if tag == LdMugrid {
		return limbdark.Grid, true
	}
	if tag < 0 || tag > int(limbdark.Claret4) {
		return 0, false
	}
	return limbdark.Law(tag), true
}

// spotsFromColumns reads the first n columns of a column-major spot
// array: rows are latitude, longitude, angular radius (all degrees) and
// brightness factor.
func spotsFromColumns(cols [][]float64, n int) ([]Spot, bool) {
	if n == 0 {
		return nil, true
	}
	if len(cols) < NSpotPar {
		return nil, false
	}
	for r := 0; r < NSpotPar; r++ {
		if len(cols[r]) < n {
			return nil, false
		}
	}
	sp := make([]Spot, n)
	for i := 0; i < n; i++ {
		sp[i] = Spot{
			Lat:    cols[0][i] * dtor,
			Lon:    cols[1][i] * dtor,
			Gamma:  cols[2][i] * dtor,
			Factor: cols[3][i],
		}
	}
	return sp, true
}

func fillBad(out [][6]float64) {
	for i := range out {
		out[i] = [6]float64{BadDouble, BadDouble, BadDouble, BadDouble, BadDouble, float64(FlagError)}
	}
}
