package eclipse

import (
	"math"

	"github.com/tundeakins/ellc/internal/bright"
	"github.com/tundeakins/ellc/internal/geom"
	"github.com/tundeakins/ellc/internal/quadrature"
)

// DoublePartial integrates the two uneclipsed crescents of the host disc
// in a four-intersection geometry: the companion crosses the host as a
// band, leaving one crescent beyond each of the two bounding chords. The
// returned Result covers both crescents; the caller obtains the eclipsed
// contribution by subtracting from the whole-disc values.
func DoublePartial(host, comp geom.Ellipse, pts [4]geom.Point, pars *bright.Params,
	grid, nyMin, nyMax int, logf quadrature.Logf) (Result, error) {

	sorted := sortCyclic(pts)

	// Candidate chord pairings of cyclically adjacent points. The valid
	// pairing has a crescent beyond both of its chords, probed radially
	// from the host centre through each chord midpoint.
	pairings := [2][2][2]geom.Point{
		{{sorted[0], sorted[1]}, {sorted[2], sorted[3]}},
		{{sorted[1], sorted[2]}, {sorted[3], sorted[0]}},
	}

	var chords [2][2]geom.Point
	found := false
	for _, cand := range pairings {
		if chordHasCrescent(host, comp, cand[0]) && chordHasCrescent(host, comp, cand[1]) {
			chords = cand
			found = true
			break
		}
	}
	if !found {
		return Result{}, ErrGeometry
	}

	var res Result
	for _, ch := range chords {
		r, err := crescent(host, comp, ch[0], ch[1], pars, grid, nyMin, nyMax, logf)
		if err != nil {
			return Result{}, err
		}
		res.add(r)
	}
	return res, nil
}

// chordHasCrescent probes the ray from the host centre through the chord
// midpoint: a crescent lies beyond the chord when the companion boundary
// is met before the host boundary.
func chordHasCrescent(host, comp geom.Ellipse, ch [2]geom.Point) bool {
	mx := 0.5*(ch[0].X+ch[1].X) - host.Xc
	my := 0.5*(ch[0].Y+ch[1].Y) - host.Yc
	l := math.Hypot(mx, my)
	if l == 0 {
		return false
	}
	_, tHost := host.LineIntersect(host.Xc, host.Yc, mx/l, my/l)
	_, tComp := comp.LineIntersect(host.Xc, host.Yc, mx/l, my/l)
	if tHost == geom.LineHitNone || tComp == geom.LineHitNone {
		return false
	}
	return tComp < tHost
}

// crescent integrates the region of the host beyond one chord and outside
// the companion: the far host cap minus the companion cap, decomposed
// into three sub-regions in the chord frame.
func crescent(host, comp geom.Ellipse, p1, p2 geom.Point, pars *bright.Params,
	grid, nyMin, nyMax int, logf quadrature.Logf) (Result, error) {

	cf, err := newChordFrame(host, comp, p1, p2)
	if err != nil {
		return Result{}, err
	}

	// Orient f away from the companion centre so the crescent sits at
	// positive f.
	inv, err := cf.toSky.Invert()
	if err != nil {
		return Result{}, err
	}
	fComp, _ := inv.Apply(comp.Xc, comp.Yc)
	if fComp > 0 {
		if cf, err = cf.flip(); err != nil {
			return Result{}, err
		}
	}

	// Host and companion crossings on the crescent side.
	h1, h2 := cf.ea.LineIntersect(0, 0, 1, 0)
	b1, b2 := cf.eb.LineIntersect(0, 0, 1, 0)
	if h1 == geom.LineHitNone || b1 == geom.LineHitNone {
		return Result{}, ErrGeometry
	}
	fH := math.Max(h1, h2)
	fB := math.Max(b1, b2)
	if fH <= 0 || fB <= 0 || fB >= fH {
		return Result{}, ErrGeometry
	}

	hc := geom.Point{X: host.Xc, Y: host.Yc}
	n := gridFor(grid, nyMin, cf.half, host.Ap)

	gloA, ghiA := glim(cf.ea, -1), glim(cf.ea, +1)
	gloB, ghiB := glim(cf.eb, -1), glim(cf.eb, +1)

	var res Result
	res.add(integrate(cf, pars, hc, n, nyMin, nyMax, fB, fH, gloA, ghiA, logf))
	res.add(integrate(cf, pars, hc, n, nyMin, nyMax, 0, fB, gloA, gloB, logf))
	res.add(integrate(cf, pars, hc, n, nyMin, nyMax, 0, fB, ghiB, ghiA, logf))
	return res, nil
}

// sortCyclic orders the four intersection points by polar angle about
// their centroid.
func sortCyclic(pts [4]geom.Point) [4]geom.Point {
	var cx, cy float64
	for _, p := range pts {
		cx += p.X
		cy += p.Y
	}
	cx /= 4
	cy /= 4

	out := pts
	for i := 1; i < 4; i++ {
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
