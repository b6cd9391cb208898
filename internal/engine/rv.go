package engine

import (
	"math"

	"github.com/tundeakins/ellc/internal/orbit"
)

// RadialVelocities is the fast path that bypasses all flux integration
// and returns only the centre-of-mass radial velocities of both stars in
// km/s. Input errors fill both columns with BadDouble.
//
// Unlike the flux path, the light-travel retardation here is applied
// whether or not the semi-major axis is positive; this reproduces the
// upstream behaviour exactly and is flagged for future review.
func RadialVelocities(times []float64, p BinaryParams, verbose Verbosity) [][2]float64 {
	out := make([][2]float64, len(times))

	ecc := p.FC*p.FC + p.FS*p.FS
	if p.Period <= 0 || p.Q <= 0 || ecc >= 1 {
		for i := range out {
			out[i] = [2]float64{BadDouble, BadDouble}
		}
		return out
	}
	var omega0 float64
	if ecc > 0 {
		omega0 = math.Atan2(p.FS, p.FC)
	}

	pSid := orbit.SiderealPeriod(p.Period, p.DomDt)
	t0 := p.T0 - orbit.T0Correction(p.A, p.Q, ecc, omega0, p.Incl)
	tPeri := orbit.PeriastronTime(t0, ecc, omega0, p.Incl, p.Period)
	v1, v2 := orbit.VOrb(p.A, p.Period, ecc, p.Q)
	aDays := p.A * orbit.SolarRadiusKm / orbit.LightSpeedKmS / orbit.DaySeconds
	mf := [2]float64{p.Q / (1 + p.Q), 1 / (1 + p.Q)}
	vorb := [2]float64{v1, v2}

	for i, t := range times {
		omega1 := orbit.OmegaAt(t, t0, omega0, p.DomDt, pSid)
		incl := orbit.InclAt(t, t0, p.Incl, p.DiDt)
		st, err := orbit.Propagate(t, tPeri, p.Period, ecc)
		if err != nil {
			out[i] = [2]float64{BadDouble, BadDouble}
			continue
		}

		omegas := [2]float64{omega1, omega1 + math.Pi}
		bad := false
		for k := 0; k < 2 && !bad; k++ {
			w := mf[k] * st.R * math.Sin(incl) * math.Sin(st.TrueAnom+omegas[k])
			sk, err := orbit.Propagate(t+aDays*w, tPeri, p.Period, ecc)
			if err != nil {
				bad = true
				break
			}
			out[i][k] = orbit.RadialVelocity(vorb[k], incl, sk.TrueAnom, omegas[k], ecc)
		}
		if bad {
			out[i] = [2]float64{BadDouble, BadDouble}
		}
	}
	return out
}
