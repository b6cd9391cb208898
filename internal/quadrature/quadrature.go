// Package quadrature provides the two Gauss-Legendre integration routines
// of the light-curve engine: a whole-ellipse rule and a two-dimensional
// rule with callback y-limits and adaptive node count. Node locations and
// weights come from gonum's Legendre rule, so results are deterministic
// for a given geometry.
package quadrature

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/integrate/quad"
)

// Logf is the diagnostic passthrough accepted by both routines; nil
// silences it.
type Logf func(format string, v ...interface{})

// Integrand is a scalar field over sky coordinates.
type Integrand func(x, y float64) float64

// nodeCache avoids regenerating Legendre abscissae for repeated n. The
// cached nodes are for [-1,1]; affine mapping to [a,b] happens at use.
// Guarded for callers that farm observations across goroutines.
var (
	nodeMu    sync.RWMutex
	nodeCache = map[int]struct{ x, w []float64 }{}
)

func legendreNodes(n int) (x, w []float64) {
	nodeMu.RLock()
	c, ok := nodeCache[n]
	nodeMu.RUnlock()
	if ok {
		return c.x, c.w
	}
	x = make([]float64, n)
	w = make([]float64, n)
	quad.Legendre{}.FixedLocations(x, w, -1, 1)
	nodeMu.Lock()
	nodeCache[n] = struct{ x, w []float64 }{x, w}
	nodeMu.Unlock()
	return x, w
}

// EllGauss integrates f over the centred axis-aligned ellipse with
// semi-axes ap, bp using n Gauss-Legendre nodes per dimension. The ratio
// of EllGauss of the unit function to the analytic area pi*ap*bp is the
// anorm correction used to cancel first-order quadrature bias.
func EllGauss(ap, bp float64, n int, f Integrand, logf Logf) float64 {
	if n < 2 {
		n = 2
	}
	xs, xw := legendreNodes(n)

	var sum float64
	for i := 0; i < n; i++ {
		x := ap * xs[i]
		h := 1 - xs[i]*xs[i]
		if h <= 0 {
			continue
		}
		h = bp * math.Sqrt(h)
		for j := 0; j < n; j++ {
			y := h * xs[j]
			sum += xw[i] * ap * xw[j] * h * f(x, y)
		}
	}
	if logf != nil {
		logf("ellgauss: n=%d ap=%g bp=%g integral=%g", n, ap, bp, sum)
	}
	return sum
}

// Gauss2D integrates f over the curvilinear region xlo <= x <= xhi,
// glo(x) <= y <= ghi(x) with nx Legendre nodes in x. The y-node count at
// each x is chosen between nyMin and nyMax in proportion to the local
// y-span relative to the widest span, so narrow slice ends are not
// oversampled. The choice depends only on the input geometry.
//
// A reversed x-range or crossed y-limits yield a signed integral; the
// caller corrects orientation.
func Gauss2D(nx int, f Integrand, xlo, xhi float64, glo, ghi func(x float64) float64, nyMin, nyMax int, logf Logf) float64 {
	if nx < 2 {
		nx = 2
	}
	if nyMin < 2 {
		nyMin = 2
	}
	if nyMax < nyMin {
		nyMax = nyMin
	}
	xs, xw := legendreNodes(nx)

	xmid := 0.5 * (xlo + xhi)
	xhalf := 0.5 * (xhi - xlo)

	// First pass: y-spans at every node fix the adaptive counts.
	los := make([]float64, nx)
	his := make([]float64, nx)
	maxSpan := 0.0
	for i := 0; i < nx; i++ {
		x := xmid + xhalf*xs[i]
		los[i] = glo(x)
		his[i] = ghi(x)
		if s := math.Abs(his[i] - los[i]); s > maxSpan {
			maxSpan = s
		}
	}
	if maxSpan == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < nx; i++ {
		span := his[i] - los[i]
		ny := nyMin + int(float64(nyMax-nyMin)*math.Abs(span)/maxSpan+0.5)
		if ny > nyMax {
			ny = nyMax
		}
		ys, yw := legendreNodes(ny)
		x := xmid + xhalf*xs[i]
		ymid := 0.5 * (los[i] + his[i])
		yhalf := 0.5 * span
		for j := 0; j < ny; j++ {
			y := ymid + yhalf*ys[j]
			sum += xw[i] * xhalf * yw[j] * yhalf * f(x, y)
		}
	}
	if logf != nil {
		logf("gauss2d: nx=%d x=[%g,%g] integral=%g", nx, xlo, xhi, sum)
	}
	return sum
}
