package geom

import "math"

// OverlapAreaTol is the relative tolerance below which an overlap is
// reported as no overlap at all: any area under
// OverlapAreaTol * min(area1, area2) is noise from near-tangency.
const OverlapAreaTol = 1e-5

// Overlap returns the area common to both ellipses together with the
// topology flags of the underlying intersection.
func Overlap(e1, e2 Ellipse) (float64, IntersectFlags) {
	return OverlapFrom(e1, e2, Intersect(e1, e2))
}

// OverlapFrom computes the overlap area from an already-computed
// intersection, so callers classifying an eclipse do not intersect twice.
func OverlapFrom(e1, e2 Ellipse, ix Intersection) (float64, IntersectFlags) {
	flags := ix.Flags

	var area float64
	switch {
	case flags&Identical != 0:
		return e1.Area, flags
	case flags&OneInsideTwo != 0:
		return e1.Area, flags
	case flags&TwoInsideOne != 0:
		return e2.Area, flags
	case ix.N == 2:
		a1, ok1 := segmentArea(e1, ix.Points[0], ix.Points[1], e2, nil)
		a2, ok2 := segmentArea(e2, ix.Points[0], ix.Points[1], e1, nil)
		if !ok1 || !ok2 {
			flags |= WarnInaccurate
		}
		area = a1 + a2
	case ix.N == 4:
		pts := orderByAngle(ix.Points[:4])
		area = shoelace(pts)
		for i := range pts {
			p, q := pts[i], pts[(i+1)%len(pts)]
			others := []Point{pts[(i+2)%4], pts[(i+3)%4]}
			// The overlap boundary along this edge is the arc, of either
			// ellipse, that stays inside the partner.
			if a, ok := segmentArea(e1, p, q, e2, others); ok {
				area += a
			} else if a, ok := segmentArea(e2, p, q, e1, others); ok {
				area += a
			} else {
				flags |= WarnInaccurate
			}
		}
	default:
		return 0, flags
	}

	if area < OverlapAreaTol*math.Min(e1.Area, e2.Area) {
		return 0, flags | NoOverlap
	}
	return area, flags
}

// segmentArea is the area between the chord pq and the arc of e that lies
// inside the partner ellipse. With avoid non-nil, arcs containing any of
// those boundary points are rejected (four-intersection case). ok is
// false when neither arc qualifies.
func segmentArea(e Ellipse, p, q Point, partner Ellipse, avoid []Point) (float64, bool) {
	tp := e.theta(p.X, p.Y)
	tq := e.theta(q.X, q.Y)

	span1 := wrapAngle(tq - tp) // ccw arc p -> q
	span2 := 2*math.Pi - span1  // ccw arc q -> p

	try := func(start, span float64) (float64, bool) {
		if avoid != nil {
			for _, a := range avoid {
				if wrapAngle(e.theta(a.X, a.Y)-start) < span {
					return 0, false
				}
			}
		}
		mx, my := e.atTheta(start + span/2)
		if !partner.Contains(mx, my) {
			return 0, false
		}
		return 0.5 * (span - math.Sin(span)) * e.Ap * e.Bp, true
	}

	if a, ok := try(tp, span1); ok {
		return a, true
	}
	if a, ok := try(tq, span2); ok {
		return a, true
	}
	return 0, false
}

// orderByAngle sorts points cyclically about their centroid.
func orderByAngle(pts []Point) []Point {
	var cx, cy float64
	for _, p := range pts {
		cx += p.X
		cy += p.Y
	}
	cx /= float64(len(pts))
	cy /= float64(len(pts))

	out := append([]Point(nil), pts...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0; j-- {
			ai := math.Atan2(out[j].Y-cy, out[j].X-cx)
			aj := math.Atan2(out[j-1].Y-cy, out[j-1].X-cx)
			if ai < aj {
				out[j], out[j-1] = out[j-1], out[j]
			}
		}
	}
	return out
}

// shoelace is the absolute polygon area.
func shoelace(pts []Point) float64 {
	var s float64
	for i := range pts {
		j := (i + 1) % len(pts)
		s += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(s) / 2
}

// wrapAngle maps an angle difference into [0, 2*pi).
func wrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
