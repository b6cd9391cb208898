// Package starshape approximates a tidally and rotationally distorted
// star as a triaxial ellipsoid. Each shape model maps (fractional radius,
// separation, rotation factor, mass ratio) to semi-axes (A,B,C) and a
// centre offset D along the line of centres, all in units of the
// semi-major axis.
package starshape

import (
	"errors"
	"math"
)

// Model selects the figure model for a star.
type Model int

const (
	// ModelSphere keeps the star spherical.
	ModelSphere Model = iota
	// ModelRoche fits the ellipsoid to the Roche equipotential whose
	// approximating ellipsoid has the requested volume.
	ModelRoche
	// ModelRocheV fits the equipotential whose true (solid-angle
	// integrated) volume matches, then rescales the ellipsoid axes so the
	// ellipsoid volume invariant still holds.
	ModelRocheV
	// ModelLove uses the linear tidal+rotational response with fluid Love
	// number h_f.
	ModelLove
	// ModelPoly1p5 is the Love model with h_f of an n=1.5 polytrope.
	ModelPoly1p5
	// ModelPoly3p0 is the Love model with h_f of an n=3 polytrope.
	ModelPoly3p0
)

// Love numbers h_f = 1 + k2 for the polytrope models.
const (
	lovePoly1p5 = 1 + 0.1433
	lovePoly3p0 = 1 + 0.01441
)

// HfMax is the upper bound on the fluid Love number (homogeneous sphere).
const HfMax = 2.5

var (
	// ErrNotConverged reports a failed figure solve.
	ErrNotConverged = errors.New("starshape: figure solve did not converge")
	// ErrBadParams reports non-physical input parameters.
	ErrBadParams = errors.New("starshape: non-physical parameters")
)

// volTol is the relative tolerance on the volume-radius invariant.
const volTol = 1e-6

// Figure is the triaxial ellipsoid approximation of a star. A points
// along the line of centres, B lies in the orbital plane perpendicular to
// it and C along the spin axis. D is the offset of the ellipsoid centre
// from the stellar mass centre toward the companion. Units of the
// semi-major axis throughout.
type Figure struct {
	A, B, C float64
	D       float64
}

// VolumeRadius returns the radius of the sphere with the figure's volume.
func (f Figure) VolumeRadius() float64 {
	return math.Cbrt(f.A * f.B * f.C)
}

// ForStar computes the figure of a star of fractional volume radius
// radius at instantaneous separation sep (units of the semi-major axis),
// with mass ratio q = m_companion/m_star, asynchronous rotation factor
// frot and, for ModelLove, fluid Love number hf.
func ForStar(model Model, radius, sep, q, frot, hf float64) (Figure, error) {
	if radius <= 0 || sep <= 0 {
		return Figure{}, ErrBadParams
	}
	switch model {
	case ModelSphere:
		return Figure{A: radius, B: radius, C: radius}, nil
	case ModelRoche:
		return rocheFigure(radius, sep, q, frot, false)
	case ModelRocheV:
		return rocheFigure(radius, sep, q, frot, true)
	case ModelLove:
		if hf < 0 || hf > HfMax {
			return Figure{}, ErrBadParams
		}
		return loveFigure(radius, sep, q, frot, hf), nil
	case ModelPoly1p5:
		return loveFigure(radius, sep, q, frot, lovePoly1p5), nil
	case ModelPoly3p0:
		return loveFigure(radius, sep, q, frot, lovePoly3p0), nil
	}
	return Figure{}, ErrBadParams
}

// loveFigure is the first-order tidal + rotational response figure. The
// axes are renormalised so the ellipsoid volume equals (4pi/3)*radius^3
// exactly.
func loveFigure(radius, sep, q, frot, hf float64) Figure {
	x := radius / sep
	tide := hf * q * x * x * x
	rot := hf * frot * frot * (1 + q) * x * x * x / 3

	a := radius * (1 + tide + rot/2)
	b := radius * (1 - tide/2 + rot/2)
	c := radius * (1 - tide/2 - rot)

	s := radius / math.Cbrt(a*b*c)
	return Figure{A: a * s, B: b * s, C: c * s}
}

// rocheFigure finds the Roche equipotential matching the requested volume
// radius by a bisection on the polar radius. With exact set, the match is
// against the solid-angle integrated volume of the equipotential rather
// than the approximating ellipsoid's.
func rocheFigure(radius, sep, q, frot float64, exact bool) (Figure, error) {
	xl1 := L1(q, frot) * sep
	if radius >= xl1 {
		return Figure{}, ErrBadParams
	}

	volRadius := func(pol float64) (Figure, float64, bool) {
		pot := Potential(0, 0, pol, q, frot, sep)
		fig, ok := figureAtPotential(pot, q, frot, sep, xl1)
		if !ok {
			return Figure{}, 0, false
		}
		if exact {
			v, ok := equipotentialVolume(pot, q, frot, sep, xl1)
			if !ok {
				return Figure{}, 0, false
			}
			return fig, math.Cbrt(v * 3 / (4 * math.Pi)), true
		}
		return fig, fig.VolumeRadius(), true
	}

	// The volume radius is monotonic in the polar radius and bounded
	// below by it, so [radius/2, radius] brackets the solution.
	lo, hi := radius/2, radius
	var fig Figure
	for i := 0; i < 80; i++ {
		mid := 0.5 * (lo + hi)
		f, vr, ok := volRadius(mid)
		if !ok {
			hi = mid
			continue
		}
		fig = f
		if math.Abs(vr-radius) < volTol*radius {
			// Pin the ellipsoid volume invariant exactly.
			s := radius / fig.VolumeRadius()
			return Figure{A: fig.A * s, B: fig.B * s, C: fig.C * s, D: fig.D}, nil
		}
		if vr < radius {
			lo = mid
		} else {
			hi = mid
		}
	}
	if fig.A == 0 {
		return Figure{}, ErrNotConverged
	}
	s := radius / fig.VolumeRadius()
	return Figure{A: fig.A * s, B: fig.B * s, C: fig.C * s, D: fig.D}, nil
}

// figureAtPotential measures the equipotential surface along the
// principal directions and assembles the ellipsoid.
func figureAtPotential(pot, q, frot, sep, xl1 float64) (Figure, bool) {
	xp, ok1 := surfaceRadius(pot, 1, 0, 0, q, frot, sep, xl1)
	xm, ok2 := surfaceRadius(pot, -1, 0, 0, q, frot, sep, xl1)
	yr, ok3 := surfaceRadius(pot, 0, 1, 0, q, frot, sep, xl1)
	zr, ok4 := surfaceRadius(pot, 0, 0, 1, q, frot, sep, xl1)
	if !(ok1 && ok2 && ok3 && ok4) {
		return Figure{}, false
	}
	return Figure{
		A: 0.5 * (xp + xm),
		B: yr,
		C: zr,
		D: 0.5 * (xp - xm),
	}, true
}

// surfaceRadius solves Potential(t*dir) = pot for t by bisection. The
// potential decreases monotonically with distance inside the lobe, so the
// bracket (0, xl1) always contains the root when one exists.
func surfaceRadius(pot, dx, dy, dz, q, frot, sep, xl1 float64) (float64, bool) {
	lo, hi := 1e-9, xl1*0.999999
	if Potential(hi*dx, hi*dy, hi*dz, q, frot, sep) > pot {
		return 0, false
	}
	for i := 0; i < 100; i++ {
		mid := 0.5 * (lo + hi)
		if Potential(mid*dx, mid*dy, mid*dz, q, frot, sep) > pot {
			lo = mid
		} else {
			hi = mid
		}
	}
	return 0.5 * (lo + hi), true
}

// equipotentialVolume integrates r(theta,phi)^3/3 over solid angle on a
// fixed Gauss-like grid. Deterministic; accuracy is far inside volTol for
// lobe filling factors below the L1 limit.
func equipotentialVolume(pot, q, frot, sep, xl1 float64) (float64, bool) {
	const nct, nph = 16, 32
	var vol float64
	for i := 0; i < nct; i++ {
		// Midpoint rule in cos(theta) over [0,1]; z-symmetry doubles it.
		ct := (float64(i) + 0.5) / nct
		st := math.Sqrt(1 - ct*ct)
		for j := 0; j < nph; j++ {
			ph := (float64(j) + 0.5) / nph * 2 * math.Pi
			r, ok := surfaceRadius(pot, st*math.Cos(ph), st*math.Sin(ph), ct, q, frot, sep, xl1)
			if !ok {
				return 0, false
			}
			vol += r * r * r / 3
		}
	}
	return vol * 2 * (1.0 / nct) * (2 * math.Pi / nph), true
}

// Potential is the dimensionless Roche potential at (x,y,z) relative to
// the star's mass centre, with the companion of mass ratio q at (sep,0,0)
// and asynchronous rotation factor frot. Units G*m_star = 1.
func Potential(x, y, z, q, frot, sep float64) float64 {
	r1 := math.Sqrt(x*x + y*y + z*z)
	dx := sep - x
	r2 := math.Sqrt(dx*dx + y*y + z*z)
	return 1/r1 + q*(1/r2-x/(sep*sep)) + 0.5*frot*frot*(1+q)*(x*x+y*y)
}

// Gradient returns the components of grad(Potential) at (x,y,z). The
// local effective gravity is the magnitude of this vector.
func Gradient(x, y, z, q, frot, sep float64) (gx, gy, gz float64) {
	r1 := math.Sqrt(x*x + y*y + z*z)
	dx := sep - x
	r2 := math.Sqrt(dx*dx + y*y + z*z)
	r13 := r1 * r1 * r1
	r23 := r2 * r2 * r2
	w2 := frot * frot * (1 + q)
	gx = -x/r13 + q*(dx/r23-1/(sep*sep)) + w2*x
	gy = -y/r13 - q*y/r23 + w2*y
	gz = -z/r13 - q*z/r23
	return gx, gy, gz
}

// L1 returns the distance of the first Lagrangian point from the star's
// centre in units of the separation, for mass ratio q = m_companion/m_star
// and rotation factor frot. It is the maximum physically meaningful
// fractional radius.
func L1(q, frot float64) float64 {
	f := func(x float64) float64 {
		return -1/(x*x) + q/((1-x)*(1-x)) - q + frot*frot*(1+q)*x
	}
	lo, hi := 1e-6, 1-1e-6
	for i := 0; i < 200; i++ {
		mid := 0.5 * (lo + hi)
		if f(mid) < 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return 0.5 * (lo + hi)
}
