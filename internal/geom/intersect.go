package geom

import "math"

// IntersectFlags communicates the topology of an ellipse pair.
type IntersectFlags uint32

const (
	// TwoIntersects: the boundaries cross at exactly two real points.
	TwoIntersects IntersectFlags = 1 << iota
	// FourIntersects: the boundaries cross at four real points.
	FourIntersects
	// OneInsideTwo: ellipse 1 lies entirely inside ellipse 2.
	OneInsideTwo
	// TwoInsideOne: ellipse 2 lies entirely inside ellipse 1.
	TwoInsideOne
	// Identical: the two ellipses coincide within tolerance.
	Identical
	// NoOverlap: the interiors are disjoint.
	NoOverlap
	// WarnInaccurate: a result was produced but a root was degenerate or
	// poorly conditioned (near-tangency).
	WarnInaccurate
	// IntersectError: root polishing failed; the caller should surface a
	// per-observation failure.
	IntersectError
)

// Point is a 2-D intersection point.
type Point struct {
	X, Y float64
}

// Intersection is the result of Intersect: the number of real boundary
// crossings (0, 2 or 4), the crossing points, and topology flags.
type Intersection struct {
	N      int
	Points [4]Point
	Flags  IntersectFlags
}

// identTol is the relative tolerance for declaring two ellipses identical.
const identTol = 1e-9

// Intersect finds the real intersections of two ellipses by mapping the
// first to the unit circle, reducing the second to a quartic along the
// circle, and polishing each surviving root on the original pair of
// quadratic forms. Root-polish failure sets IntersectError but still
// returns the unpolished geometry.
func Intersect(e1, e2 Ellipse) Intersection {
	var res Intersection

	if identical(e1, e2) {
		res.Flags = Identical
		return res
	}

	norm := e1.normalizer()
	g, err := Transform(norm, e2)
	if err != nil {
		res.Flags = IntersectError
		return res
	}
	inv, err := norm.Invert()
	if err != nil {
		res.Flags = IntersectError
		return res
	}

	al, be, ga := g.QA, g.QB, g.QC
	de, ep, ze := g.QD, g.QE, g.QF

	// On the unit circle g reduces to P(x) + y*Q(x) with
	// P = (al-ga)x^2 + de*x + ga + ze and Q = be*x + ep; eliminating y
	// gives the quartic P^2 - (1-x^2) Q^2 = 0.
	ag := al - ga
	gz := ga + ze
	coeffs := []float64{
		gz*gz - ep*ep,
		2*de*gz - 2*be*ep,
		de*de + 2*ag*gz - be*be + ep*ep,
		2*ag*de + 2*be*ep,
		ag*ag + be*be,
	}

	type cand struct{ x, y float64 }
	var cands []cand
	const edgeTol = 1e-9

	if math.Abs(be) < 1e-14 && math.Abs(ep) < 1e-14 {
		// y drops out of g on the circle: solve the quadratic in x and
		// take both y branches.
		for _, rx := range quadRealRoots(ag, de, gz) {
			if rx < -1-edgeTol || rx > 1+edgeTol {
				continue
			}
			yy := math.Sqrt(math.Max(0, 1-rx*rx))
			cands = append(cands, cand{rx, yy}, cand{rx, -yy})
		}
	} else {
		for _, r := range polyRoots(coeffs) {
			if math.Abs(imag(r)) > 1e-8 {
				continue
			}
			x := real(r)
			if x < -1-edgeTol || x > 1+edgeTol {
				continue
			}
			if x > 1 {
				x = 1
			} else if x < -1 {
				x = -1
			}
			q := be*x + ep
			if math.Abs(q) > 1e-12 {
				p := ag*x*x + de*x + gz
				cands = append(cands, cand{x, -p / q})
			} else {
				yy := math.Sqrt(math.Max(0, 1-x*x))
				for _, y := range []float64{yy, -yy} {
					if math.Abs(al*x*x+be*x*y+ga*y*y+de*x+ep*y+ze) < 1e-6 {
						cands = append(cands, cand{x, y})
					}
				}
			}
		}
	}

	// Map back, polish, deduplicate.
	scale := math.Max(e1.Ap, e1.Bp)
	dedupe := 1e-7 * scale
	var pts []Point
	polishFailed := false
	for _, cnd := range cands {
		x, y := inv.Apply(cnd.x, cnd.y)
		px, py, ok := polishRoot(e1, e2, x, y)
		if !ok {
			polishFailed = true
			px, py = x, y
		}
		dup := false
		for _, p := range pts {
			if math.Hypot(p.X-px, p.Y-py) < dedupe {
				dup = true
				break
			}
		}
		if !dup {
			pts = append(pts, Point{px, py})
		}
	}

	// An odd count means a tangency survived deduplication; discard the
	// point closest to another and warn.
	if len(pts) == 1 || len(pts) == 3 {
		res.Flags |= WarnInaccurate
		if len(pts) == 1 {
			pts = nil
		} else {
			pts = dropClosestPair(pts)
		}
	}
	if len(pts) > 4 {
		res.Flags |= WarnInaccurate
		pts = pts[:4]
	}
	if polishFailed {
		res.Flags |= IntersectError
	}

	res.N = len(pts)
	copy(res.Points[:], pts)

	switch res.N {
	case 0:
		// No boundary crossings: containment or disjoint.
		if e2.Contains(e1.Xc, e1.Yc) && e2.Contains(e1.atThetaPoint(0)) && e2.Contains(e1.atThetaPoint(math.Pi/2)) {
			res.Flags |= OneInsideTwo
		} else if e1.Contains(e2.Xc, e2.Yc) && e1.Contains(e2.atThetaPoint(0)) && e1.Contains(e2.atThetaPoint(math.Pi/2)) {
			res.Flags |= TwoInsideOne
		} else {
			res.Flags |= NoOverlap
		}
	case 2:
		res.Flags |= TwoIntersects
	case 4:
		res.Flags |= FourIntersects
	default:
		res.Flags |= IntersectError
	}
	return res
}

// atThetaPoint adapts atTheta to the two-argument form Contains wants.
func (e Ellipse) atThetaPoint(t float64) (float64, float64) {
	return e.atTheta(t)
}

// polishRoot runs a 2-D Newton iteration on the pair of quadratic forms.
func polishRoot(e1, e2 Ellipse, x, y float64) (float64, float64, bool) {
	tol := 1e-12 * (math.Abs(e1.QF) + math.Abs(e2.QF) + 1)
	for i := 0; i < 25; i++ {
		f1 := e1.Eval(x, y)
		f2 := e2.Eval(x, y)
		if math.Abs(f1) < tol && math.Abs(f2) < tol {
			return x, y, true
		}
		j00 := 2*e1.QA*x + e1.QB*y + e1.QD
		j01 := e1.QB*x + 2*e1.QC*y + e1.QE
		j10 := 2*e2.QA*x + e2.QB*y + e2.QD
		j11 := e2.QB*x + 2*e2.QC*y + e2.QE
		det := j00*j11 - j01*j10
		if det == 0 {
			return x, y, false
		}
		dx := (f1*j11 - f2*j01) / det
		dy := (f2*j00 - f1*j10) / det
		x -= dx
		y -= dy
		if math.IsNaN(x) || math.IsNaN(y) {
			return x, y, false
		}
	}
	// Accept a looser residual before declaring failure.
	if math.Abs(e1.Eval(x, y)) < 1e6*tol && math.Abs(e2.Eval(x, y)) < 1e6*tol {
		return x, y, true
	}
	return x, y, false
}

// quadRealRoots returns the real roots of a*x^2 + b*x + c.
func quadRealRoots(a, b, c float64) []float64 {
	if a == 0 {
		if b == 0 {
			return nil
		}
		return []float64{-c / b}
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		return nil
	}
	sq := math.Sqrt(disc)
	var q float64
	if b >= 0 {
		q = -0.5 * (b + sq)
	} else {
		q = -0.5 * (b - sq)
	}
	if q == 0 {
		return []float64{0}
	}
	return []float64{q / a, c / q}
}

// dropClosestPair removes one point of the closest pair among three.
func dropClosestPair(pts []Point) []Point {
	dj, best := 1, math.MaxFloat64
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			d := math.Hypot(pts[i].X-pts[j].X, pts[i].Y-pts[j].Y)
			if d < best {
				best, dj = d, j
			}
		}
	}
	out := make([]Point, 0, 2)
	for k := range pts {
		if k != dj {
			out = append(out, pts[k])
		}
	}
	return out
}

// identical reports whether the two geometric forms agree to identTol.
func identical(e1, e2 Ellipse) bool {
	s := math.Max(e1.Ap, e2.Ap)
	close := func(a, b float64) bool { return math.Abs(a-b) < identTol*s }
	if !(close(e1.Xc, e2.Xc) && close(e1.Yc, e2.Yc)) {
		return false
	}
	// Compare quadratic forms at probe points to stay orientation-proof
	// (phi is degenerate for circles).
	for _, t := range []float64{0, 1.1, 2.3, 4.0} {
		x, y := e1.atTheta(t)
		if math.Abs(e2.Eval(x, y)) > 100*identTol {
			return false
		}
	}
	return true
}
