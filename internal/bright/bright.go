// Package bright evaluates the local surface brightness of a projected
// star. The kernel is a pure function of a sky-plane point and a
// parameter block; all physics switches (limb darkening, gravity
// darkening, heating, rotational Doppler terms, rv weighting) live in the
// block, so the same kernel serves whole-disc, eclipsed-region and
// rv-weighted integrals.
package bright

import (
	"math"

	"github.com/tundeakins/ellc/internal/geom"
	"github.com/tundeakins/ellc/internal/limbdark"
	"github.com/tundeakins/ellc/internal/starshape"
)

// lightSpeedKmS matches the orbit package constant.
const lightSpeedKmS = 299792.458

// Heating holds the irradiation model of one star. H1 <= 0 disables the
// model; the orchestrator then applies the simple analytic reflection
// instead.
type Heating struct {
	F0 float64 // companion bolometric flux scale
	H0 float64 // heating efficiency coefficient
	H1 float64 // angular exponent; <= 0 disables
	UH float64 // linear limb coefficient of the reprocessed light
	// CompRadius is the companion's fractional radius, setting the solid
	// angle of the irradiating source.
	CompRadius float64
}

// Params is the brightness parameter block for one star at one
// observation. It is rebuilt whenever the orbit geometry changes.
type Params struct {
	// Scale is the surface-brightness scale at disc centre.
	Scale float64

	// Fig is the star's ellipsoid figure; View maps its body frame to the
	// sky (geom.ViewMatrix of the star's orientation and inclination).
	Fig  starshape.Figure
	View [3][3]float64

	// Sep is the current separation and Q, Frot feed the exact Roche
	// gravity mode.
	Sep  float64
	Q    float64
	Frot float64

	LD limbdark.Profile

	// GravExp is the gravity-darkening exponent; zero disables. With
	// GravExact the local gravity is the Roche-potential gradient,
	// otherwise the closed-form ellipsoid approximation.
	GravExp   float64
	GravExact bool

	Heat Heating

	// Lambda is the projected spin-orbit misalignment and VSinI the
	// equatorial rotation velocity in km/s.
	Lambda float64
	VSinI  float64

	// KBoost is the local Doppler boosting factor applied to the
	// rotational line-of-sight velocity. The orbital boosting of the
	// centre-of-mass velocity is applied by the orchestrator.
	KBoost float64

	// RVWeight switches the kernel to return B*v_los for flux-weighted
	// radial velocities.
	RVWeight bool

	// Transform, when non-nil, maps integration coordinates (f,g) to the
	// sky offsets (s,t); the partial integrators set it to parameterise
	// curvilinear regions.
	Transform *geom.Affine2
}

// Eval returns the surface brightness (or brightness-weighted velocity in
// km/s when RVWeight is set) at the point (s,t) relative to the
// projected ellipse centre, in units of the semi-major axis.
func (p *Params) Eval(s, t float64) float64 {
	if p.Transform != nil {
		s, t = p.Transform.Apply(s, t)
	}

	a, b, c := p.Fig.A, p.Fig.B, p.Fig.C

	// Sky basis in body coordinates: rows of the view matrix.
	u := p.View[0]
	v := p.View[1]
	w := p.View[2]

	// Surface point: solve the ellipsoid equation along the line of
	// sight through (s,t) and keep the root nearer the observer.
	var qa, qb, qc float64
	d2 := [3]float64{a * a, b * b, c * c}
	for i := 0; i < 3; i++ {
		st := s*u[i] + t*v[i]
		qa += w[i] * w[i] / d2[i]
		qb += 2 * st * w[i] / d2[i]
		qc += st * st / d2[i]
	}
	qc -= 1
	disc := qb*qb - 4*qa*qc
	var depth float64
	if disc > 0 {
		depth = (-qb + math.Sqrt(disc)) / (2 * qa)
	}

	var x, y, z float64
	x = s*u[0] + t*v[0] + depth*w[0]
	y = s*u[1] + t*v[1] + depth*w[1]
	z = s*u[2] + t*v[2] + depth*w[2]

	// Outward normal and the foreshortening cosine.
	nx, ny, nz := x/d2[0], y/d2[1], z/d2[2]
	nn := math.Sqrt(nx*nx + ny*ny + nz*nz)
	mu := 0.0
	if nn > 0 {
		mu = (nx*w[0] + ny*w[1] + nz*w[2]) / nn
	}
	if mu < 0 {
		mu = 0
	} else if mu > 1 {
		mu = 1
	}

	bright := p.Scale * p.LD.Intensity(mu)

	if p.GravExp != 0 {
		bright *= math.Pow(p.gravity(x, y, z, nn), p.GravExp)
	}

	if p.Heat.H1 > 0 && nn > 0 {
		// Irradiation by the companion along the body x-axis.
		cx, cy, cz := p.Sep-(x+p.Fig.D), -y, -z
		cd := math.Sqrt(cx*cx + cy*cy + cz*cz)
		if cd > 0 {
			cosd := (nx*cx + ny*cy + nz*cz) / (nn * cd)
			if cosd > 0 {
				rc := p.Heat.CompRadius
				irr := p.Heat.H0 * p.Heat.F0 * rc * rc / (cd * cd)
				bright *= 1 + irr*math.Pow(cosd, p.Heat.H1)*(1-p.Heat.UH*(1-mu))
			}
		}
	}

	var vlos float64
	if p.VSinI != 0 {
		// Solid-body rotation; the projected equator runs at angle
		// Lambda from the u-axis.
		vlos = p.VSinI * (s*math.Cos(p.Lambda) + t*math.Sin(p.Lambda)) / p.Fig.A
	}
	if p.KBoost != 0 {
		bright *= 1 - p.KBoost*vlos/lightSpeedKmS
	}

	if p.RVWeight {
		return bright * vlos
	}
	return bright
}

// gravity returns the local effective gravity normalised to the pole.
func (p *Params) gravity(x, y, z, nn float64) float64 {
	if p.GravExact {
		gx, gy, gz := starshape.Gradient(x+p.Fig.D, y, z, p.Q, p.Frot, p.Sep)
		px, py, pz := starshape.Gradient(p.Fig.D, 0, p.Fig.C, p.Q, p.Frot, p.Sep)
		gp := math.Sqrt(px*px + py*py + pz*pz)
		if gp == 0 {
			return 1
		}
		return math.Sqrt(gx*gx+gy*gy+gz*gz) / gp
	}
	// Ellipsoid approximation: the gradient magnitude of the
	// equipotential scales with the normal-vector magnitude.
	if nn == 0 {
		return 1
	}
	return nn * p.Fig.C
}
