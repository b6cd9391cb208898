// Package spots models circular starspots on a spherical-star
// approximation: the flux modulation factor of each spot over rotational
// phase, the projection of a spot onto the apparent disc, and the
// fraction of a spot hidden by an eclipsing companion.
package spots

import (
	"math"

	"github.com/tundeakins/ellc/internal/geom"
	"github.com/tundeakins/ellc/internal/limbdark"
	"github.com/tundeakins/ellc/internal/quadrature"
)

// Spot is one circular spot, all angles in radians.
type Spot struct {
	Lat    float64 // latitude of the centre
	Lon    float64 // longitude of the centre
	Gamma  float64 // angular radius
	Factor float64 // brightness relative to the unspotted surface
}

// Visibility tags returned by Modulation.
const (
	TagHidden  = 0 // spot entirely on the far side
	TagOnLimb  = 1 // spot straddles the limb
	TagVisible = 2 // spot entirely on the visible disc
)

// betaLim is the apparent-latitude threshold below which the eclipse
// geometry is evaluated at +-betaLim and interpolated; the projected
// routines are unstable at the limb itself.
const betaLim = 1e-2

// viewAngle returns the angle psi between the spot centre normal and the
// line of sight at rotational phase (radians; the spot crosses the disc
// centre meridian when phase equals its longitude).
func viewAngle(sp Spot, incl, phase float64) float64 {
	c := math.Cos(incl)*math.Sin(sp.Lat) +
		math.Sin(incl)*math.Cos(sp.Lat)*math.Cos(sp.Lon-phase)
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return math.Acos(c)
}

// Modulation returns the flux modulation factor df and the visibility tag
// of one spot at the given rotational phase. ldA, ldB are the effective
// quadratic limb-darkening coefficients of the host star
// (limbdark.Profile.QuadraticMatch).
//
// df multiplies the unspotted flux: df = 1 for an invisible spot and
// dips below 1 for a dark spot (Factor < 1) crossing the disc.
func Modulation(sp Spot, ldA, ldB, incl, phase float64) (df float64, tag int) {
	psi := viewAngle(sp, incl, phase)

	switch {
	case psi-sp.Gamma >= math.Pi/2:
		return 1, TagHidden
	case psi+sp.Gamma <= math.Pi/2:
		tag = TagVisible
	default:
		tag = TagOnLimb
	}

	// Projected flux of the spot cap: I(mu)*mu over the cap, mu > 0.
	cospsi, sinpsi := math.Cos(psi), math.Sin(psi)
	ld := limbdark.Profile{Law: limbdark.Quadratic, Coef: [4]float64{ldA, ldB}}
	integrand := func(sigma, tau float64) float64 {
		mu := math.Cos(sigma)*cospsi + math.Sin(sigma)*sinpsi*math.Cos(tau)
		if mu <= 0 {
			return 0
		}
		return ld.Intensity(mu) * mu * math.Sin(sigma)
	}
	capFlux := quadrature.Gauss2D(24, integrand, 0, sp.Gamma,
		func(float64) float64 { return 0 },
		func(float64) float64 { return 2 * math.Pi },
		24, 24, nil)

	disc := limbdark.DiscFlux(ldA, ldB)
	df = 1 - (1-sp.Factor)*capFlux/disc
	return df, tag
}

// Projection is the sky-plane geometry of a spot on the unit disc of its
// host star.
type Projection struct {
	// Alpha is the position angle of the spot centre on the disc and
	// Beta its apparent latitude above the limb plane (negative on the
	// far side).
	Alpha, Beta float64
	// Ell is the projected spot boundary.
	Ell geom.Ellipse
	// Limb tangent points of the spot boundary on the stellar limb, set
	// when the spot straddles it.
	HasLimb bool
	L1, L2  geom.Point
	// Case is the visibility case: 0 hidden, 1 straddling with centre on
	// the far side, 2 straddling with centre on the near side, 3 fully
	// on the visible disc.
	Case int
}

// Project computes the spot's apparent-disc geometry at the given
// rotational phase.
func Project(sp Spot, incl, phase float64) Projection {
	psi := viewAngle(sp, incl, phase)
	beta := math.Pi/2 - psi

	// Position angle of the spot centre from the sky components of its
	// normal: u tangential east, v toward the projected pole.
	sl, cl := math.Sin(sp.Lat), math.Cos(sp.Lat)
	dlon := sp.Lon - phase
	u := cl * math.Sin(dlon)
	v := sl*math.Sin(incl) - cl*math.Cos(incl)*math.Cos(dlon)
	alpha := math.Atan2(-v, -u) + math.Pi // atan2(v,u), kept in [0,2pi)

	return projectAt(alpha, beta, sp.Gamma)
}

// projectAt builds the Projection for an explicit apparent latitude; the
// near-limb interpolation re-invokes it at +-betaLim.
func projectAt(alpha, beta, gamma float64) Projection {
	pr := Projection{Alpha: alpha, Beta: beta}

	switch {
	case beta <= -gamma:
		pr.Case = 0
	case beta >= gamma:
		pr.Case = 3
	case beta < 0:
		pr.Case = 1
	default:
		pr.Case = 2
	}

	sb := math.Sin(math.Abs(beta))
	ca, sa := math.Cos(alpha), math.Sin(alpha)
	d0 := math.Cos(gamma) * math.Cos(beta)
	ap := math.Sin(gamma)
	bp := math.Sin(gamma) * sb
	if bp < 1e-9 {
		bp = 1e-9
	}
	if ell, err := geom.New(ap, bp, d0*ca, d0*sa, alpha+math.Pi/2); err == nil {
		pr.Ell = ell
	}

	if pr.Case == 1 || pr.Case == 2 {
		// Limb crossings of the spot boundary: azimuths alpha +- deta on
		// the unit limb circle.
		r := math.Cos(gamma) / math.Cos(beta)
		if r <= 1 {
			deta := math.Acos(r)
			pr.HasLimb = true
			pr.L1 = geom.Point{X: math.Cos(alpha - deta), Y: math.Sin(alpha - deta)}
			pr.L2 = geom.Point{X: math.Cos(alpha + deta), Y: math.Sin(alpha + deta)}
		}
	}
	return pr
}

// EclipsedFraction returns the fraction of the spot's visible area hidden
// by the companion. comp must already be transformed into the host star's
// unit-disc coordinates (centre at the origin, radius one). ok is false
// when the geometry could not be evaluated; the caller raises the general
// warning bit.
func EclipsedFraction(sp Spot, incl, phase float64, comp geom.Ellipse) (frac float64, ok bool) {
	pr := Project(sp, incl, phase)

	if math.Abs(pr.Beta) < betaLim {
		// The projected geometry degenerates at the limb: evaluate at
		// +-betaLim and interpolate to the real beta.
		fPlus, okP := fractionAt(projectAt(pr.Alpha, betaLim, sp.Gamma), comp)
		fMinus, okM := fractionAt(projectAt(pr.Alpha, -betaLim, sp.Gamma), comp)
		if !okP || !okM {
			return 0, false
		}
		var wt float64
		if pr.Case == 0 {
			wt = (pr.Beta + sp.Gamma) / (betaLim + sp.Gamma)
		} else {
			wt = 0.5 + pr.Beta/(2*betaLim)
		}
		return wt*fPlus + (1-wt)*fMinus, true
	}
	return fractionAt(pr, comp)
}

// fractionAt evaluates one projection run.
func fractionAt(pr Projection, comp geom.Ellipse) (float64, bool) {
	switch pr.Case {
	case 0:
		// Not visible: the modulation carries no eclipsed flux unless
		// the limb point nearest the spot is itself covered.
		if comp.Contains(math.Cos(pr.Alpha), math.Sin(pr.Alpha)) {
			return 1, true
		}
		return 0, true
	case 3:
		if pr.Ell.Area == 0 {
			return 0, false
		}
		ov, fl := geom.Overlap(pr.Ell, comp)
		if fl&geom.IntersectError != 0 {
			return 0, false
		}
		return ov / pr.Ell.Area, true
	default:
		return limbFraction(pr, comp)
	}
}

// limbFraction handles the straddling cases: the visible part of the spot
// is its projected ellipse clipped to the unit disc, and the eclipsed
// fraction is integrated over that region with the companion as an
// indicator.
func limbFraction(pr Projection, comp geom.Ellipse) (float64, bool) {
	if pr.Ell.Area == 0 {
		return 0, false
	}
	disc, err := geom.New(1, 1, 0, 0, 0)
	if err != nil {
		return 0, false
	}

	// Integrate over the spot ellipse in its principal frame.
	c, s := math.Cos(pr.Ell.Phi), math.Sin(pr.Ell.Phi)
	toSky := func(x, y float64) (float64, float64) {
		return pr.Ell.Xc + x*c - y*s, pr.Ell.Yc + x*s + y*c
	}
	n := 48
	sum := func(indicator func(x, y float64) bool) float64 {
		lim := func(branch float64) func(float64) float64 {
			return func(x float64) float64 {
				h := 1 - (x/pr.Ell.Ap)*(x/pr.Ell.Ap)
				if h < 0 {
					h = 0
				}
				return branch * pr.Ell.Bp * math.Sqrt(h)
			}
		}
		return quadrature.Gauss2D(n, func(x, y float64) float64 {
			sx, sy := toSky(x, y)
			if !disc.Contains(sx, sy) {
				return 0
			}
			if indicator(sx, sy) {
				return 1
			}
			return 0
		}, -pr.Ell.Ap, pr.Ell.Ap, lim(-1), lim(+1), 8, n, nil)
	}
	vis := sum(func(x, y float64) bool { return true })
	hid := sum(comp.Contains)

	if vis <= 0 {
		return 0, true
	}
	f := hid / vis
	if f < 0 {
		f = 0
	} else if f > 1 {
		f = 1
	}
	return f, true
}

// OverlappingPair reports whether any two spots overlap on the sphere:
// great-circle separation of centres below the sum of angular radii.
// Overlapping spots modulate additively, which can go non-physical, so
// the engine raises a warning bit.
func OverlappingPair(sps []Spot) bool {
	for i := 0; i < len(sps); i++ {
		for j := i + 1; j < len(sps); j++ {
			a, b := sps[i], sps[j]
			cs := math.Sin(a.Lat)*math.Sin(b.Lat) +
				math.Cos(a.Lat)*math.Cos(b.Lat)*math.Cos(a.Lon-b.Lon)
			if cs > 1 {
				cs = 1
			} else if cs < -1 {
				cs = -1
			}
			if math.Acos(cs) < a.Gamma+b.Gamma {
				return true
			}
		}
	}
	return false
}
