package geom

import "math"

// ViewMatrix returns the rotation from a star's body frame to the sky
// frame. The body x-axis points toward the companion at in-plane angle
// theta, the body z-axis is the orbit normal, and the sky frame is (u, v,
// w) with w toward the observer. p_sky = S * p_body.
func ViewMatrix(theta, incl float64) [3][3]float64 {
	ct, st := math.Cos(theta), math.Sin(theta)
	ci, si := math.Cos(incl), math.Sin(incl)
	return [3][3]float64{
		{ct, -st, 0},
		{ci * st, ci * ct, -si},
		{si * st, si * ct, ci},
	}
}

// ProjectEllipsoid orthographically projects the triaxial ellipsoid with
// semi-axes (a, b, c) onto the plane of the sky, for in-plane orientation
// theta of the a-axis and inclination incl. The returned ellipse is
// centred at the origin; callers Move it to the apparent centre.
//
// Spheres are returned as the canonical circle directly, since the
// projected quadratic form is numerically degenerate in its orientation.
func ProjectEllipsoid(a, b, c, theta, incl float64) (Ellipse, error) {
	if a <= 0 || b <= 0 || c <= 0 {
		return Ellipse{}, ErrDegenerate
	}
	const axTol = 1e-12
	if math.Abs(a-b) < axTol*a && math.Abs(a-c) < axTol*a {
		return New(a, a, 0, 0, 0)
	}

	s := ViewMatrix(theta, incl)
	d := [3]float64{1 / (a * a), 1 / (b * b), 1 / (c * c)}

	// M = S * diag(d) * S^T.
	var m [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				m[i][j] += s[i][k] * d[k] * s[j][k]
			}
		}
	}

	// Shadow conic of the quadric along the w-axis.
	p00 := m[0][0] - m[0][2]*m[0][2]/m[2][2]
	p01 := m[0][1] - m[0][2]*m[1][2]/m[2][2]
	p11 := m[1][1] - m[1][2]*m[1][2]/m[2][2]

	return FromQuadratic(p00, 2*p01, p11, 0, 0, -1)
}
