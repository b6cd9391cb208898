package geom

import (
	"gonum.org/v1/gonum/mat"
)

// polyRoots returns the complex roots of the polynomial
// c[0] + c[1]*x + ... + c[n]*x^n as the eigenvalues of its companion
// matrix. Leading coefficients that are negligible relative to the
// largest coefficient are dropped first. A nil result means the
// polynomial is constant or the eigensolve failed.
func polyRoots(c []float64) []complex128 {
	// Trim the leading coefficient when it is negligible; the quartic
	// from two near-identical conics degenerates this way.
	maxc := 0.0
	for _, v := range c {
		if av := abs(v); av > maxc {
			maxc = av
		}
	}
	if maxc == 0 {
		return nil
	}
	n := len(c) - 1
	for n > 0 && abs(c[n]) < 1e-14*maxc {
		n--
	}
	if n < 1 {
		return nil
	}
	if n == 1 {
		return []complex128{complex(-c[0]/c[1], 0)}
	}

	// Companion matrix in the standard monic form.
	a := mat.NewDense(n, n, nil)
	for i := 1; i < n; i++ {
		a.Set(i, i-1, 1)
	}
	for i := 0; i < n; i++ {
		a.Set(i, n-1, -c[i]/c[n])
	}

	var eig mat.Eigen
	if ok := eig.Factorize(a, mat.EigenNone); !ok {
		return nil
	}
	return eig.Values(nil)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
