// Package engine orchestrates the per-observation synthesis pipeline:
// orbit propagation, star figures, sky projection, eclipse
// classification, flux and radial-velocity integration, spots, reflection
// and Doppler boosting.
package engine

import (
	"math"

	"github.com/tundeakins/ellc/internal/limbdark"
	"github.com/tundeakins/ellc/internal/spots"
	"github.com/tundeakins/ellc/internal/starshape"
)

// Flag is the per-observation classification word. Bit positions are
// externally visible and stable.
type Flag uint32

const (
	// FlagEclipse marks any eclipse at this observation.
	FlagEclipse Flag = 1 << 0
	// FlagStar1Eclipsed / FlagStar2Eclipsed name the hidden star.
	FlagStar1Eclipsed Flag = 1 << 1
	FlagStar2Eclipsed Flag = 1 << 2
	// FlagTotal marks a total eclipse of the hidden star.
	FlagTotal Flag = 1 << 3
	// FlagTransit marks the eclipsing star passing wholly in front.
	FlagTransit Flag = 1 << 4
	// FlagDoublePartial marks a four-intersection geometry.
	FlagDoublePartial Flag = 1 << 5
	// FlagWarnSpot1 / FlagWarnSpot2 mark overlapping spots on a star.
	FlagWarnSpot1 Flag = 1 << 11
	FlagWarnSpot2 Flag = 1 << 12
	// FlagFail marks a numerical failure confined to this observation.
	FlagFail Flag = 1 << 14
	// FlagWarning marks any advisory condition.
	FlagWarning Flag = 1 << 15
	// FlagError marks invalid input; outputs carry BadDouble.
	FlagError Flag = 1 << 16
)

// BadDouble fills the scalar outputs of observations that cannot be
// computed; the flag word still carries the reason.
const BadDouble = -1.0e20

// NotSet marks internally a velocity not yet computed.
const NotSet = -9.99e21

// Verbosity gates the diagnostic print sites.
type Verbosity int

const (
	Silent Verbosity = iota
	Warn
	User
	Debug
)

// BinaryParams are the 39 scalar system parameters, angles in radians and
// the semi-major axis in solar radii (<= 0 disables velocity scales and
// light-travel time in the flux path).
type BinaryParams struct {
	T0     float64 // epoch of primary eclipse
	Period float64 // anomalistic period, days

	SBRatio float64 // surface-brightness ratio S2/S1
	R1, R2  float64 // fractional radii R/a
	Incl    float64 // inclination at T0
	L3      float64 // third-light fraction at T0
	A       float64 // semi-major axis, solar radii

	FC, FS float64 // sqrt(e)cos(omega0), sqrt(e)sin(omega0)
	Q      float64 // mass ratio m2/m1

	LDC1, LDC2 [4]float64 // limb-darkening coefficients
	GD1, GD2   float64    // gravity-darkening exponents

	DiDt  float64 // inclination drift, rad/day
	DomDt float64 // apsidal motion, rad per sidereal period

	F1, F2 float64 // asynchronous rotation factors

	Boost1, Boost2 float64 // Doppler boosting factors

	Heat1, Heat2 [3]float64 // heating triplets (H0, H1, uH)

	Lambda1, Lambda2 float64 // spin-orbit misalignment angles
	VSinI1, VSinI2   float64 // equatorial rotation velocities, km/s

	// Hf1 and Hf2 are the fluid Love numbers of star 1 and star 2. The
	// positional slots are authoritative: the second slot always belongs
	// to star 2.
	Hf1, Hf2 float64
}

// Ecc returns the eccentricity and argument of periastron at T0 derived
// from the (FC, FS) parameterisation.
func (p *BinaryParams) Ecc() (ecc, omega0 float64) {
	ecc = p.FC*p.FC + p.FS*p.FS
	if ecc > 0 {
		omega0 = math.Atan2(p.FS, p.FC)
	}
	return ecc, omega0
}

// Control are the ten integer switches of a synthesis call.
type Control struct {
	Grid1, Grid2     int // quadrature nodes per dimension
	NSpots1, NSpots2 int
	LDLaw1, LDLaw2   limbdark.Law
	Shape1, Shape2   starshape.Model
	FluxWeightedRV   bool
	ExactGrav        bool
}

// System bundles everything one Lc invocation needs. The parameter and
// control blocks are treated as immutable for the call.
type System struct {
	Pars             BinaryParams
	Ctl              Control
	Spots1, Spots2   []spots.Spot
	MuGrid1, MuGrid2 []float64
	Verbose          Verbosity
}

// Result is one observation's output record.
type Result struct {
	Flux         float64 // total normalized flux
	Flux1, Flux2 float64 // per-star normalized fluxes
	RV1, RV2     float64 // radial velocities, km/s
	Flags        Flag
}

// badResult fills every scalar column with the sentinel.
func badResult(flags Flag) Result {
	return Result{
		Flux: BadDouble, Flux1: BadDouble, Flux2: BadDouble,
		RV1: BadDouble, RV2: BadDouble,
		Flags: flags,
	}
}

// ldProfile assembles the limb-darkening profile for one star.
func ldProfile(law limbdark.Law, coef [4]float64, grid []float64) limbdark.Profile {
	p := limbdark.Profile{Law: law, Coef: coef}
	if law == limbdark.Grid {
		p.MuGrid = grid
	}
	return p
}
