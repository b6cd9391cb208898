package engine

import (
	"math"

	"github.com/tundeakins/ellc/internal/bright"
	"github.com/tundeakins/ellc/internal/eclipse"
	"github.com/tundeakins/ellc/internal/geom"
	"github.com/tundeakins/ellc/internal/limbdark"
	"github.com/tundeakins/ellc/internal/monitoring"
	"github.com/tundeakins/ellc/internal/orbit"
	"github.com/tundeakins/ellc/internal/quadrature"
	"github.com/tundeakins/ellc/internal/spots"
	"github.com/tundeakins/ellc/internal/starshape"
)

// Quadrature node bounds for the adaptive y-count of the curvilinear
// integrators.
const (
	nyMin = 4
	nyMax = 64
)

// run is the per-invocation scratch state. It is built once per Lc call
// and owned exclusively by it; the kernels it drives are pure.
type run struct {
	sys *System

	ecc, omega0 float64
	pSid        float64
	t0          float64 // epoch after the light-time correction
	tPeri       float64
	aDays       float64 // light-travel scale, days per unit semi-major axis
	mf          [2]float64
	vorb        [2]float64
	scale       [2]float64 // surface-brightness scales
	radius      [2]float64
	grid        [2]int
	ld          [2]float64 // quadratic-matched coefficients a...
	ldB         [2]float64 // ...and b, for the spot kernel
	fig         [2]starshape.Figure
	anorm       [2]float64
	fluxT0      [2]float64
	fnorm       float64
	flux3       float64
	spotWarn    [2]bool

	logf quadrature.Logf
}

// starObs is the per-star, per-observation geometry.
type starObs struct {
	state orbit.State
	theta float64 // in-plane angle toward the companion
	omega float64
	cx    float64
	cy    float64
	w     float64 // observer-ward coordinate, units of a
	ell   geom.Ellipse
}

// LightCurve synthesises the light curve and auxiliary observables at the
// given times. Input errors fill every observation with BadDouble and
// the error bit; per-observation numerical failures are confined to
// their observation.
func LightCurve(times []float64, sys System) []Result {
	out := make([]Result, len(times))

	r, flags := newRun(&sys)
	if flags != 0 {
		for i := range out {
			out[i] = badResult(flags)
		}
		return out
	}

	for i, t := range times {
		out[i] = r.observe(t, false)
	}
	return out
}

// newRun validates the call and precomputes the T0 normalisation. A
// non-zero Flag reports a setup error.
func newRun(sys *System) (*run, Flag) {
	p := &sys.Pars
	r := &run{sys: sys}

	if p.Period <= 0 || p.R1 <= 0 || p.R2 <= 0 || p.Q <= 0 {
		return nil, FlagError
	}
	r.ecc, r.omega0 = p.Ecc()
	if r.ecc >= 1 {
		return nil, FlagError
	}
	if p.L3 < 0 || p.L3 >= 1 {
		return nil, FlagError
	}
	if sys.Ctl.Shape1 == starshape.ModelLove && (p.Hf1 < 0 || p.Hf1 > starshape.HfMax) {
		return nil, FlagError
	}
	if sys.Ctl.Shape2 == starshape.ModelLove && (p.Hf2 < 0 || p.Hf2 > starshape.HfMax) {
		return nil, FlagError
	}

	// Roche limit at periastron bounds both radii.
	if p.R1 > starshape.L1(p.Q, p.F1)*(1-r.ecc) {
		return nil, FlagError
	}
	if p.R2 > starshape.L1(1/p.Q, p.F2)*(1-r.ecc) {
		return nil, FlagError
	}

	ld1 := ldProfile(sys.Ctl.LDLaw1, p.LDC1, sys.MuGrid1)
	ld2 := ldProfile(sys.Ctl.LDLaw2, p.LDC2, sys.MuGrid2)
	if ld1.Validate() != nil || ld2.Validate() != nil {
		return nil, FlagError
	}

	if sys.Verbose >= Debug {
		r.logf = quadrature.Logf(monitoring.Logf)
	}

	r.pSid = orbit.SiderealPeriod(p.Period, p.DomDt)
	r.t0 = p.T0 - orbit.T0Correction(p.A, p.Q, r.ecc, r.omega0, p.Incl)
	r.tPeri = orbit.PeriastronTime(r.t0, r.ecc, r.omega0, p.Incl, p.Period)
	if p.A > 0 {
		r.aDays = p.A * orbit.SolarRadiusKm / orbit.LightSpeedKmS / orbit.DaySeconds
	}
	r.mf[0] = p.Q / (1 + p.Q)
	r.mf[1] = 1 / (1 + p.Q)
	r.vorb[0], r.vorb[1] = orbit.VOrb(p.A, p.Period, r.ecc, p.Q)
	r.scale = [2]float64{1, p.SBRatio}
	r.radius = [2]float64{p.R1, p.R2}
	r.grid = [2]int{max(4, sys.Ctl.Grid1), max(4, sys.Ctl.Grid2)}
	r.ld[0], r.ldB[0] = ld1.QuadraticMatch()
	r.ld[1], r.ldB[1] = ld2.QuadraticMatch()
	r.spotWarn[0] = spots.OverlappingPair(sys.Spots1)
	r.spotWarn[1] = spots.OverlappingPair(sys.Spots2)

	// Figures at the T0 separation.
	st0, err := orbit.Propagate(r.t0, r.tPeri, p.Period, r.ecc)
	if err != nil {
		return nil, FlagError
	}
	if !r.rebuildFigures(st0.R, st0.R) {
		return nil, FlagError
	}

	// Sentinel observation: anorm per star, then fnorm and the constant
	// third light, skipping all eclipse logic.
	sent := r.observe(r.t0, true)
	if sent.Flags&(FlagError|FlagFail) != 0 || sent.Flux1+sent.Flux2 <= 0 {
		return nil, FlagError
	}
	f12 := sent.Flux1 + sent.Flux2
	r.flux3 = p.L3 / (1 - p.L3) * f12
	r.fnorm = f12 + r.flux3
	r.fluxT0 = [2]float64{sent.Flux1, sent.Flux2}
	return r, 0
}

// rebuildFigures recomputes both star figures at the given separations.
func (r *run) rebuildFigures(sep1, sep2 float64) bool {
	p := &r.sys.Pars
	f1, err1 := starshape.ForStar(r.sys.Ctl.Shape1, p.R1, sep1, p.Q, p.F1, p.Hf1)
	f2, err2 := starshape.ForStar(r.sys.Ctl.Shape2, p.R2, sep2, 1/p.Q, p.F2, p.Hf2)
	if err1 != nil || err2 != nil {
		return false
	}
	r.fig[0], r.fig[1] = f1, f2
	return true
}

// brightParams assembles the brightness parameter block of one star.
func (r *run) brightParams(k int, incl, sep float64, theta float64, rvWeight bool) bright.Params {
	p := &r.sys.Pars
	coef := [2][4]float64{p.LDC1, p.LDC2}[k]
	grids := [2][]float64{r.sys.MuGrid1, r.sys.MuGrid2}
	laws := [2]limbdark.Law{r.sys.Ctl.LDLaw1, r.sys.Ctl.LDLaw2}
	heat := [2][3]float64{p.Heat1, p.Heat2}[k]
	q := [2]float64{p.Q, 1 / p.Q}[k]
	frot := [2]float64{p.F1, p.F2}[k]

	return bright.Params{
		Scale:     r.scale[k],
		Fig:       r.fig[k],
		View:      geom.ViewMatrix(theta, incl),
		Sep:       sep,
		Q:         q,
		Frot:      frot,
		LD:        ldProfile(laws[k], coef, grids[k]),
		GravExp:   [2]float64{p.GD1, p.GD2}[k],
		GravExact: r.sys.Ctl.ExactGrav,
		Heat: bright.Heating{
			F0: r.scale[1-k], H0: heat[0], H1: heat[1], UH: heat[2],
			CompRadius: r.radius[1-k],
		},
		Lambda:   [2]float64{p.Lambda1, p.Lambda2}[k],
		VSinI:    [2]float64{p.VSinI1, p.VSinI2}[k],
		KBoost:   [2]float64{p.Boost1, p.Boost2}[k],
		RVWeight: rvWeight,
	}
}

// observe runs the fixed per-observation sequence. With sentinel set the
// eclipse, spot, reflection and boosting stages are skipped and the raw
// disc fluxes are returned for normalisation setup.
func (r *run) observe(t float64, sentinel bool) Result {
	p := &r.sys.Pars
	ctl := &r.sys.Ctl

	omega1 := orbit.OmegaAt(t, r.t0, r.omega0, p.DomDt, r.pSid)
	incl := orbit.InclAt(t, r.t0, p.Incl, p.DiDt)

	st, err := orbit.Propagate(t, r.tPeri, p.Period, r.ecc)
	if err != nil {
		return badResult(FlagFail)
	}

	var obs [2]starObs
	omegas := [2]float64{omega1, omega1 + math.Pi}
	for k := 0; k < 2; k++ {
		sk := st
		if r.aDays > 0 {
			// Retarded time from the star's first-pass sky-normal
			// coordinate.
			w := r.mf[k] * st.R * math.Sin(incl) * math.Sin(st.TrueAnom+omegas[k])
			tk := t + r.aDays*w
			sk, err = orbit.Propagate(tk, r.tPeri, p.Period, r.ecc)
			if err != nil {
				return badResult(FlagFail)
			}
		}
		obs[k].state = sk
		obs[k].omega = omegas[k]
		obs[k].theta = sk.TrueAnom + omegas[k] + math.Pi
		ang := sk.TrueAnom + omegas[k]
		obs[k].cx = r.mf[k] * sk.R * math.Cos(ang)
		obs[k].cy = r.mf[k] * sk.R * math.Cos(incl) * math.Sin(ang)
		obs[k].w = r.mf[k] * sk.R * math.Sin(incl) * math.Sin(ang)
	}

	// Eccentric orbits change the figures with separation; circular ones
	// keep the shapes fixed after setup.
	if r.ecc > 0 && !sentinel {
		if !r.rebuildFigures(obs[0].state.R, obs[1].state.R) {
			return badResult(FlagFail)
		}
	}

	// Project and place the sky ellipses.
	for k := 0; k < 2; k++ {
		ell, err := geom.ProjectEllipsoid(r.fig[k].A, r.fig[k].B, r.fig[k].C, obs[k].theta, incl)
		if err != nil {
			return badResult(FlagFail)
		}
		cx := obs[k].cx + r.fig[k].D*math.Cos(obs[k].theta)
		cy := obs[k].cy + r.fig[k].D*math.Cos(incl)*math.Sin(obs[k].theta)
		obs[k].ell = ell.Move(cx, cy)
	}

	// Whole-disc integrals.
	var pars [2]bright.Params
	var parsRV [2]bright.Params
	var flux [2]float64
	var rvflux [2]float64
	for k := 0; k < 2; k++ {
		pars[k] = r.brightParams(k, incl, obs[k].state.R, obs[k].theta, false)
		flux[k] = r.discIntegral(&pars[k], obs[k].ell, r.grid[k])
		if sentinel {
			// anorm is fixed at the sentinel observation.
			unit := func(x, y float64) float64 { return 1 }
			num := quadrature.EllGauss(obs[k].ell.Ap, obs[k].ell.Bp, r.grid[k], unit, nil)
			r.anorm[k] = num / obs[k].ell.Area
			flux[k] /= r.anorm[k]
		} else {
			flux[k] /= r.anorm[k]
		}
		if ctl.FluxWeightedRV && !sentinel {
			parsRV[k] = r.brightParams(k, incl, obs[k].state.R, obs[k].theta, true)
			rvflux[k] = r.discIntegral(&parsRV[k], obs[k].ell, r.grid[k]) / r.anorm[k]
		}
	}

	if sentinel {
		return Result{Flux1: flux[0], Flux2: flux[1]}
	}

	var flags Flag

	// Classification.
	ix := geom.Intersect(obs[0].ell, obs[1].ell)
	ov, ovFlags := geom.OverlapFrom(obs[0].ell, obs[1].ell, ix)
	if ovFlags&geom.IntersectError != 0 {
		flags |= FlagFail
	}
	if ovFlags&geom.WarnInaccurate != 0 {
		flags |= FlagWarning
	}

	host, comp := -1, -1
	var eclFlux, eclRV, eclArea float64
	total := false
	if ov > 0 && ovFlags&geom.NoOverlap == 0 {
		flags |= FlagEclipse
		if obs[0].w > obs[1].w {
			flags |= FlagStar2Eclipsed
			host, comp = 1, 0
		} else {
			flags |= FlagStar1Eclipsed
			host, comp = 0, 1
		}
		eclArea = ov

		hostInside := (host == 0 && ovFlags&geom.OneInsideTwo != 0) ||
			(host == 1 && ovFlags&geom.TwoInsideOne != 0)
		compInside := (comp == 0 && ovFlags&geom.OneInsideTwo != 0) ||
			(comp == 1 && ovFlags&geom.TwoInsideOne != 0)

		switch {
		case hostInside || ovFlags&geom.Identical != 0:
			flags |= FlagTotal
			total = true
		case compInside:
			flags |= FlagTransit
			eclFlux = r.transitIntegral(&pars[host], obs[host].ell, obs[comp].ell, r.grid[host]) / r.anorm[host]
			if ctl.FluxWeightedRV {
				eclRV = r.transitIntegral(&parsRV[host], obs[host].ell, obs[comp].ell, r.grid[host]) / r.anorm[host]
			}
		case ix.N == 4:
			flags |= FlagDoublePartial
			res, err := eclipse.DoublePartial(obs[host].ell, obs[comp].ell, ix.Points, &pars[host], r.grid[host], nyMin, nyMax, r.logf)
			if err != nil {
				flags |= FlagFail
			} else {
				eclFlux = flux[host] - scaleByArea(res, obs[host].ell.Area-ov)
			}
			if ctl.FluxWeightedRV && err == nil {
				resRV, errRV := eclipse.DoublePartial(obs[host].ell, obs[comp].ell, ix.Points, &parsRV[host], r.grid[host], nyMin, nyMax, r.logf)
				if errRV != nil {
					flags |= FlagFail
				} else {
					eclRV = rvflux[host] - resRV.Flux/res.Area*(obs[host].ell.Area-ov)
				}
			}
		case ix.N == 2:
			p1, p2 := ix.Points[0], ix.Points[1]
			// Integrate the smaller of lens and remainder; the duplicate
			// path keeps the quadrature region small and accurate.
			direct := ov < 0.5*obs[host].ell.Area
			res, err := eclipse.Partial(obs[host].ell, obs[comp].ell, p1, p2, &pars[host], r.grid[host], nyMin, nyMax, direct, r.logf)
			if err != nil {
				flags |= FlagFail
			} else if direct {
				eclFlux = scaleByArea(res, ov)
			} else {
				eclFlux = flux[host] - scaleByArea(res, obs[host].ell.Area-ov)
			}
			if ctl.FluxWeightedRV && err == nil {
				resRV, errRV := eclipse.Partial(obs[host].ell, obs[comp].ell, p1, p2, &parsRV[host], r.grid[host], nyMin, nyMax, direct, r.logf)
				if errRV != nil {
					flags |= FlagFail
				} else if direct {
					eclRV = resRV.Flux / res.Area * ov
				} else {
					eclRV = rvflux[host] - resRV.Flux/res.Area*(obs[host].ell.Area-ov)
				}
			}
		default:
			flags |= FlagFail
		}
	}

	// Spot modulation and spot eclipses.
	spotFlux := [2]float64{}
	spotEcl := [2]float64{}
	spotSets := [2][]spots.Spot{r.sys.Spots1, r.sys.Spots2}
	for k := 0; k < 2; k++ {
		if len(spotSets[k]) == 0 {
			continue
		}
		if r.spotWarn[k] {
			flags |= FlagWarning
			if k == 0 {
				flags |= FlagWarnSpot1
			} else {
				flags |= FlagWarnSpot2
			}
		}
		frot := [2]float64{p.F1, p.F2}[k]
		phase := 2 * math.Pi * (t - r.t0) * frot / p.Period
		for _, sp := range spotSets[k] {
			df, tag := spots.Modulation(sp, r.ld[k], r.ldB[k], incl, phase)
			spotFlux[k] += (df - 1) * flux[k]
			if tag > 0 && k == host && !total && flags&FlagEclipse != 0 {
				// Companion outline in the host's unit-disc frame,
				// valid for sight lines near the line of centres.
				tr := geom.Affine2{
					M00: 1 / r.radius[k], M11: 1 / r.radius[k],
					T0: -obs[k].ell.Xc / r.radius[k], T1: -obs[k].ell.Yc / r.radius[k],
				}
				compT, err := geom.Transform(tr, obs[comp].ell)
				if err == nil {
					frac, ok := spots.EclipsedFraction(sp, incl, phase, compT)
					if ok {
						spotEcl[k] += frac * (df - 1) * flux[k]
					} else {
						flags |= FlagWarning
					}
				}
			}
		}
	}

	// A total eclipse hides the host's whole (spotted) disc.
	if total {
		eclFlux = flux[host] + spotFlux[host]
		eclRV = rvflux[host]
		eclArea = obs[host].ell.Area
	}

	// Superpose, clamping the eclipsed spot flux so the hidden region
	// cannot exceed the disc it is part of.
	var final [2]float64
	var finalRV [2]float64
	for k := 0; k < 2; k++ {
		ecl := 0.0
		if k == host {
			ecl = eclFlux + spotEcl[k]
			if ecl < 0 {
				ecl = 0
			}
			if lim := flux[k] + spotFlux[k]; ecl > lim {
				ecl = lim
			}
		}
		final[k] = flux[k] + spotFlux[k] - ecl
		if ctl.FluxWeightedRV {
			finalRV[k] = rvflux[k]
			if k == host {
				finalRV[k] -= eclRV
			}
		}
	}

	// Simple reflection when the heating model is disabled, attenuated
	// by the eclipsed fraction of the reflecting star and exempt from
	// Doppler boosting.
	var refl [2]float64
	heats := [2][3]float64{p.Heat1, p.Heat2}
	theta := st.TrueAnom + omega1
	for k := 0; k < 2; k++ {
		if heats[k][1] > 0 || heats[k][0] == 0 {
			continue
		}
		sgn := 1.0
		if k == 1 {
			sgn = -1
		}
		si := math.Sin(incl)
		ph := 0.5 + 0.5*math.Pow(math.Cos(si*theta), 2) + sgn*si*math.Cos(theta)
		amp := heats[k][0] * r.fluxT0[1-k] * r.radius[k] * r.radius[k]
		rk := obs[k].state.R
		refl[k] = amp * ph / (rk * rk)
		if k == host && obs[k].ell.Area > 0 {
			frac := eclArea / obs[k].ell.Area
			if frac > 1 {
				frac = 1
			}
			refl[k] *= 1 - frac
		}
	}

	// Radial velocities and Doppler boosting.
	var rv [2]float64
	boosts := [2]float64{p.Boost1, p.Boost2}
	for k := 0; k < 2; k++ {
		rv[k] = orbit.RadialVelocity(r.vorb[k], incl, obs[k].state.TrueAnom, obs[k].omega, r.ecc)
		if boosts[k] != 0 {
			final[k] *= 1 - boosts[k]*rv[k]/orbit.LightSpeedKmS
		}
		if ctl.FluxWeightedRV {
			if final[k] > 0 {
				rv[k] += finalRV[k] / final[k]
			} else {
				rv[k] = 0
			}
		}
	}

	totalFlux := (final[0] + final[1] + r.flux3 + refl[0] + refl[1]) / r.fnorm
	res := Result{
		Flux:  totalFlux,
		Flux1: final[0] / r.fnorm,
		Flux2: final[1] / r.fnorm,
		RV1:   rv[0],
		RV2:   rv[1],
		Flags: flags,
	}
	if math.IsNaN(totalFlux) || math.IsInf(totalFlux, 0) {
		res = badResult(flags | FlagFail)
	}
	return res
}

// discIntegral integrates a star's brightness over its whole projected
// ellipse in the ellipse's principal frame.
func (r *run) discIntegral(pars *bright.Params, ell geom.Ellipse, n int) float64 {
	c, s := math.Cos(ell.Phi), math.Sin(ell.Phi)
	rot := geom.Affine2{M00: c, M01: -s, M10: s, M11: c}
	pars.Transform = &rot
	defer func() { pars.Transform = nil }()
	return quadrature.EllGauss(ell.Ap, ell.Bp, n, pars.Eval, r.logf)
}

// transitIntegral integrates the host's brightness over the companion's
// whole disc, for transits where the companion is fully contained.
func (r *run) transitIntegral(pars *bright.Params, host, comp geom.Ellipse, n int) float64 {
	c, s := math.Cos(comp.Phi), math.Sin(comp.Phi)
	tr := geom.Affine2{
		M00: c, M01: -s, T0: comp.Xc - host.Xc,
		M10: s, M11: c, T1: comp.Yc - host.Yc,
	}
	pars.Transform = &tr
	defer func() { pars.Transform = nil }()
	return quadrature.EllGauss(comp.Ap, comp.Bp, n, pars.Eval, r.logf)
}

// scaleByArea converts a region integral into a flux using the analytic
// region area, cancelling first-order quadrature bias.
func scaleByArea(res eclipse.Result, area float64) float64 {
	if res.Area == 0 {
		return 0
	}
	return res.Flux / res.Area * area
}
