// Package eclipse integrates the brightness kernel over the curvilinear
// regions formed by two intersecting sky ellipses: the lens of a partial
// eclipse and the crescents of a four-intersection (double-partial)
// eclipse. Regions are parameterised in a chord frame with the f-axis
// perpendicular to the chord and g along it; the y-limits of each
// sub-region are closures over an ellipse's quadratic coefficients with a
// branch selector.
package eclipse

import (
	"errors"
	"math"

	"github.com/tundeakins/ellc/internal/bright"
	"github.com/tundeakins/ellc/internal/geom"
	"github.com/tundeakins/ellc/internal/quadrature"
)

// ErrGeometry reports a chord frame that could not be established; the
// caller surfaces a per-observation failure.
var ErrGeometry = errors.New("eclipse: degenerate chord geometry")

// Result carries the paired integrals of one region. Flux and Area are
// computed on the same nodes, so the ratio (and differences against the
// whole-disc values) cancel first-order quadrature bias.
type Result struct {
	Flux float64 // integral of the brightness kernel
	Area float64 // integral of the unit function
}

func (r *Result) add(o Result) {
	r.Flux += o.Flux
	r.Area += o.Area
}

// chordFrame holds the two ellipses transformed into a chord coordinate
// system: origin at the chord midpoint, g-axis along the chord, f-axis
// perpendicular.
type chordFrame struct {
	toSky geom.Affine2
	ea    geom.Ellipse // host in chord coordinates
	eb    geom.Ellipse // companion in chord coordinates
	half  float64      // half chord length
}

func newChordFrame(ea, eb geom.Ellipse, p1, p2 geom.Point) (chordFrame, error) {
	gx, gy := p2.X-p1.X, p2.Y-p1.Y
	l := math.Hypot(gx, gy)
	if l == 0 {
		return chordFrame{}, ErrGeometry
	}
	gx, gy = gx/l, gy/l
	fx, fy := -gy, gx
	mx, my := 0.5*(p1.X+p2.X), 0.5*(p1.Y+p2.Y)

	toSky := geom.Affine2{
		M00: fx, M01: gx, T0: mx,
		M10: fy, M11: gy, T1: my,
	}
	toFG, err := toSky.Invert()
	if err != nil {
		return chordFrame{}, ErrGeometry
	}
	ta, err := geom.Transform(toFG, ea)
	if err != nil {
		return chordFrame{}, ErrGeometry
	}
	tb, err := geom.Transform(toFG, eb)
	if err != nil {
		return chordFrame{}, ErrGeometry
	}
	return chordFrame{toSky: toSky, ea: ta, eb: tb, half: l / 2}, nil
}

// flip reverses the f-axis of the frame.
func (cf chordFrame) flip() (chordFrame, error) {
	neg := geom.Affine2{M00: -1, M11: 1}
	toSky := cf.toSky.Compose(neg)
	ea, err := geom.Transform(neg, cf.ea)
	if err != nil {
		return chordFrame{}, err
	}
	eb, err := geom.Transform(neg, cf.eb)
	if err != nil {
		return chordFrame{}, err
	}
	return chordFrame{toSky: toSky, ea: ea, eb: eb, half: cf.half}, nil
}

// glim returns the g-limit of an ellipse at abscissa f for the requested
// branch (-1 low, +1 high). Past the ellipse tip both branches collapse
// onto the vertex line, giving a zero-width slice.
func glim(e geom.Ellipse, branch float64) func(f float64) float64 {
	return func(f float64) float64 {
		a := e.QC
		b := e.QB*f + e.QE
		c := e.QA*f*f + e.QD*f + e.QF
		disc := b*b - 4*a*c
		if disc <= 0 || a == 0 {
			return -b / (2 * a)
		}
		return (-b + branch*math.Sqrt(disc)) / (2 * a)
	}
}

// fAxisCrossings returns the two f-axis crossings of an ellipse in chord
// coordinates, split by whether each lies inside the partner.
func fAxisCrossings(e, partner geom.Ellipse) (inside, outside float64, err error) {
	t1, t2 := e.LineIntersect(0, 0, 1, 0)
	if t1 == geom.LineHitNone {
		return 0, 0, ErrGeometry
	}
	in1 := partner.Contains(t1, 0)
	in2 := partner.Contains(t2, 0)
	switch {
	case in1 && !in2:
		return t1, t2, nil
	case in2 && !in1:
		return t2, t1, nil
	case in1 && in2:
		// Both crossings inside the partner: keep the one nearer the
		// chord; the region degenerates but stays integrable.
		if math.Abs(t1) < math.Abs(t2) {
			return t1, t2, nil
		}
		return t2, t1, nil
	}
	return 0, 0, ErrGeometry
}

// gridFor scales the node count with the chord length relative to the
// host semi-axis, never dropping below nyMin.
func gridFor(n, nyMin int, chordHalf, hostAp float64) int {
	scale := 2 * chordHalf / hostAp
	if scale > 1 {
		scale = 1
	}
	g := int(float64(n)*scale + 0.5)
	if g < nyMin {
		g = nyMin
	}
	return g
}

// integrate runs the paired flux and area quadrature over one sub-region.
func integrate(cf chordFrame, pars *bright.Params, hostCentre geom.Point, n, nyMin, nyMax int,
	flo, fhi float64, lo, hi func(float64) float64, logf quadrature.Logf) Result {

	if fhi < flo {
		flo, fhi = fhi, flo
	}
	// Region transform: chord coordinates to sky offsets from the host
	// ellipse centre.
	shift := geom.Affine2{M00: 1, M11: 1, T0: -hostCentre.X, T1: -hostCentre.Y}
	tr := shift.Compose(cf.toSky)
	pars.Transform = &tr
	defer func() { pars.Transform = nil }()

	flux := quadrature.Gauss2D(n, pars.Eval, flo, fhi, lo, hi, nyMin, nyMax, logf)
	area := quadrature.Gauss2D(n, func(x, y float64) float64 { return 1 }, flo, fhi, lo, hi, nyMin, nyMax, nil)
	// A reversed orientation flips both integrals together; the flux
	// itself may be legitimately signed (rv weighting).
	if area < 0 {
		area, flux = -area, -flux
	}
	return Result{Flux: flux, Area: area}
}

// Partial integrates over the lens (eclipsed true) or the host disc minus
// the lens (eclipsed false) for a two-intersection geometry. host is the
// ellipse whose brightness kernel pars describes; comp is the eclipsing
// companion's projected ellipse.
func Partial(host, comp geom.Ellipse, p1, p2 geom.Point, pars *bright.Params,
	grid, nyMin, nyMax int, eclipsed bool, logf quadrature.Logf) (Result, error) {

	cf, err := newChordFrame(host, comp, p1, p2)
	if err != nil {
		return Result{}, err
	}
	fa, faFar, err := fAxisCrossings(cf.ea, cf.eb)
	if err != nil {
		return Result{}, err
	}
	if fa < 0 {
		if cf, err = cf.flip(); err != nil {
			return Result{}, err
		}
		fa, faFar = -fa, -faFar
	}
	fb, _, err := fAxisCrossings(cf.eb, cf.ea)
	if err != nil {
		return Result{}, err
	}

	hc := geom.Point{X: host.Xc, Y: host.Yc}
	n := gridFor(grid, nyMin, cf.half, host.Ap)

	gloA, ghiA := glim(cf.ea, -1), glim(cf.ea, +1)
	gloB, ghiB := glim(cf.eb, -1), glim(cf.eb, +1)

	var res Result
	if eclipsed {
		// Lens: the ea-bounded cap beyond the chord plus the eb-bounded
		// cap on the other side.
		res.add(integrate(cf, pars, hc, n, nyMin, nyMax, 0, fa, gloA, ghiA, logf))
		res.add(integrate(cf, pars, hc, n, nyMin, nyMax, fb, 0, gloB, ghiB, logf))
		return res, nil
	}

	// Host minus lens: the far cap of the host plus the two strips
	// between the host and companion arcs alongside the chord.
	res.add(integrate(cf, pars, hc, grid, nyMin, nyMax, faFar, fb, gloA, ghiA, logf))
	res.add(integrate(cf, pars, hc, n, nyMin, nyMax, fb, 0, gloA, gloB, logf))
	res.add(integrate(cf, pars, hc, n, nyMin, nyMax, fb, 0, ghiB, ghiA, logf))
	return res, nil
}
