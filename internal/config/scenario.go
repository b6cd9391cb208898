// Package config loads synthesis scenarios from JSON files. Fields are
// pointer-typed so partial files are safe: anything omitted keeps its
// default. The schema mirrors the positional engine interface with
// angles in degrees, matching the on-disk convention of the parameter
// files this replaces.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/tundeakins/ellc"
)

// maxFileSize caps scenario files at 1MB.
const maxFileSize = 1 * 1024 * 1024

const dtor = math.Pi / 180

// Scenario is the root configuration of a synthesis run.
type Scenario struct {
	T0      *float64 `json:"t_zero,omitempty"`
	Period  *float64 `json:"period,omitempty"`
	SBRatio *float64 `json:"sbratio,omitempty"`
	R1      *float64 `json:"radius_1,omitempty"`
	R2      *float64 `json:"radius_2,omitempty"`
	InclDeg *float64 `json:"incl,omitempty"`
	L3      *float64 `json:"light_3,omitempty"`
	A       *float64 `json:"a,omitempty"`
	FC      *float64 `json:"f_c,omitempty"`
	FS      *float64 `json:"f_s,omitempty"`
	Q       *float64 `json:"q,omitempty"`

	LDLaw1 *string   `json:"ld_1,omitempty"`
	LDLaw2 *string   `json:"ld_2,omitempty"`
	LDC1   []float64 `json:"ldc_1,omitempty"`
	LDC2   []float64 `json:"ldc_2,omitempty"`

	GD1 *float64 `json:"gdc_1,omitempty"`
	GD2 *float64 `json:"gdc_2,omitempty"`

	DiDtDeg  *float64 `json:"didt,omitempty"`
	DomDtDeg *float64 `json:"domdt,omitempty"`

	F1 *float64 `json:"f_1,omitempty"`
	F2 *float64 `json:"f_2,omitempty"`

	Boost1 *float64 `json:"bfac_1,omitempty"`
	Boost2 *float64 `json:"bfac_2,omitempty"`

	Heat1 []float64 `json:"heat_1,omitempty"`
	Heat2 []float64 `json:"heat_2,omitempty"`

	Lambda1Deg *float64 `json:"lambda_1,omitempty"`
	Lambda2Deg *float64 `json:"lambda_2,omitempty"`
	VSinI1     *float64 `json:"vsini_1,omitempty"`
	VSinI2     *float64 `json:"vsini_2,omitempty"`
	Hf1        *float64 `json:"hf_1,omitempty"`
	Hf2        *float64 `json:"hf_2,omitempty"`

	Grid1  *int    `json:"grid_1,omitempty"`
	Grid2  *int    `json:"grid_2,omitempty"`
	Shape1 *string `json:"shape_1,omitempty"`
	Shape2 *string `json:"shape_2,omitempty"`

	FluxWeightedRV *bool `json:"flux_weighted_rv,omitempty"`
	ExactGrav      *bool `json:"exact_grav,omitempty"`

	// Spots are rows of [lat, lon, gamma, factor], angles in degrees.
	Spots1 [][]float64 `json:"spots_1,omitempty"`
	Spots2 [][]float64 `json:"spots_2,omitempty"`

	MuGrid1 []float64 `json:"mugrid_1,omitempty"`
	MuGrid2 []float64 `json:"mugrid_2,omitempty"`

	Times *TimeGrid `json:"times,omitempty"`
}

// TimeGrid specifies the observation times: either an explicit list or a
// uniform grid.
type TimeGrid struct {
	Start *float64  `json:"start,omitempty"`
	Stop  *float64  `json:"stop,omitempty"`
	N     *int      `json:"n,omitempty"`
	List  []float64 `json:"list,omitempty"`
}

// Load reads and validates a scenario file. The file must have a .json
// extension and stay under the size cap.
func Load(path string) (*Scenario, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("scenario file must have .json extension, got %q", ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scenario file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("scenario file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	var sc Scenario
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario JSON: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

// Validate checks the fields that cannot be defaulted.
func (s *Scenario) Validate() error {
	if s.Period != nil && *s.Period <= 0 {
		return fmt.Errorf("period must be positive, got %g", *s.Period)
	}
	if s.R1 != nil && *s.R1 <= 0 {
		return fmt.Errorf("radius_1 must be positive, got %g", *s.R1)
	}
	if s.R2 != nil && *s.R2 <= 0 {
		return fmt.Errorf("radius_2 must be positive, got %g", *s.R2)
	}
	for _, sp := range append(append([][]float64{}, s.Spots1...), s.Spots2...) {
		if len(sp) != 4 {
			return fmt.Errorf("each spot needs [lat, lon, gamma, factor], got %d values", len(sp))
		}
	}
	if _, err := lawTag(s.LDLaw1); err != nil {
		return err
	}
	if _, err := lawTag(s.LDLaw2); err != nil {
		return err
	}
	if _, err := shapeTag(s.Shape1); err != nil {
		return err
	}
	if _, err := shapeTag(s.Shape2); err != nil {
		return err
	}
	if s.Times != nil && len(s.Times.List) == 0 {
		if s.Times.Start == nil || s.Times.Stop == nil || s.Times.N == nil || *s.Times.N < 1 {
			return fmt.Errorf("times needs either a list or start/stop/n")
		}
	}
	return nil
}

func f(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func i(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func lawTag(p *string) (int, error) {
	if p == nil {
		return ellc.LdLinear, nil
	}
	switch *p {
	case "none":
		return ellc.LdNone, nil
	case "lin":
		return ellc.LdLinear, nil
	case "quad":
		return ellc.LdQuadratic, nil
	case "sqrt":
		return ellc.LdSqrt, nil
	case "log":
		return ellc.LdLog, nil
	case "power-2":
		return ellc.LdPower2, nil
	case "claret":
		return ellc.LdClaret4, nil
	case "mugrid":
		return ellc.LdMugrid, nil
	}
	return 0, fmt.Errorf("unknown limb-darkening law %q", *p)
}

func shapeTag(p *string) (int, error) {
	if p == nil {
		return ellc.ShapeSphere, nil
	}
	switch *p {
	case "sphere":
		return ellc.ShapeSphere, nil
	case "roche":
		return ellc.ShapeRoche, nil
	case "roche_v":
		return ellc.ShapeRocheV, nil
	case "love":
		return ellc.ShapeLove, nil
	case "poly1p5":
		return ellc.ShapePoly1p5, nil
	case "poly3p0":
		return ellc.ShapePoly3p0, nil
	}
	return 0, fmt.Errorf("unknown shape model %q", *p)
}

// System assembles the engine inputs from the scenario with defaults for
// every omitted field: a circular, spherical, linearly limb-darkened
// twin pair.
func (s *Scenario) System(verbose int) (ellc.System, error) {
	law1, _ := lawTag(s.LDLaw1)
	law2, _ := lawTag(s.LDLaw2)
	shape1, _ := shapeTag(s.Shape1)
	shape2, _ := shapeTag(s.Shape2)

	pars := make([]float64, ellc.NParams)
	copy(pars, []float64{
		f(s.T0, 0), f(s.Period, 1),
		f(s.SBRatio, 1), f(s.R1, 0.1), f(s.R2, 0.1),
		f(s.InclDeg, 90), f(s.L3, 0), f(s.A, 0),
		f(s.FC, 0), f(s.FS, 0), f(s.Q, 1),
	})
	for k, v := range s.LDC1 {
		if k < 4 {
			pars[11+k] = v
		}
	}
	for k, v := range s.LDC2 {
		if k < 4 {
			pars[15+k] = v
		}
	}
	pars[19], pars[20] = f(s.GD1, 0), f(s.GD2, 0)
	pars[21], pars[22] = f(s.DiDtDeg, 0), f(s.DomDtDeg, 0)
	pars[23], pars[24] = f(s.F1, 1), f(s.F2, 1)
	pars[25], pars[26] = f(s.Boost1, 0), f(s.Boost2, 0)
	for k := 0; k < 3 && k < len(s.Heat1); k++ {
		pars[27+k] = s.Heat1[k]
	}
	for k := 0; k < 3 && k < len(s.Heat2); k++ {
		pars[30+k] = s.Heat2[k]
	}
	pars[33], pars[34] = f(s.Lambda1Deg, 0), f(s.Lambda2Deg, 0)
	pars[35], pars[36] = f(s.VSinI1, 0), f(s.VSinI2, 0)
	pars[37], pars[38] = f(s.Hf1, 1.5), f(s.Hf2, 1.5)

	bp, ok := ellc.ParamsFromSlice(pars)
	if !ok {
		return ellc.System{}, fmt.Errorf("parameter assembly failed")
	}
	ctl, ok := ellc.ControlFromSlice([]int{
		i(s.Grid1, 16), i(s.Grid2, 16),
		len(s.Spots1), len(s.Spots2),
		law1, law2, shape1, shape2,
		boolInt(s.FluxWeightedRV), boolInt(s.ExactGrav),
	})
	if !ok {
		return ellc.System{}, fmt.Errorf("control assembly failed")
	}

	return ellc.System{
		Pars:    bp,
		Ctl:     ctl,
		Spots1:  spotRows(s.Spots1),
		Spots2:  spotRows(s.Spots2),
		MuGrid1: s.MuGrid1,
		MuGrid2: s.MuGrid2,
		Verbose: ellc.Verbosity(verbose),
	}, nil
}

func boolInt(p *bool) int {
	if p != nil && *p {
		return 1
	}
	return 0
}

func spotRows(rows [][]float64) []ellc.Spot {
	if len(rows) == 0 {
		return nil
	}
	out := make([]ellc.Spot, len(rows))
	for k, sp := range rows {
		out[k] = ellc.Spot{
			Lat: sp[0] * dtor, Lon: sp[1] * dtor,
			Gamma: sp[2] * dtor, Factor: sp[3],
		}
	}
	return out
}

// TimeList expands the time specification into explicit observation
// times; with no specification, one period sampled at 1000 points
// starting at the epoch.
func (s *Scenario) TimeList() []float64 {
	if s.Times == nil {
		start := f(s.T0, 0)
		return uniform(start, start+f(s.Period, 1), 1000)
	}
	if len(s.Times.List) > 0 {
		return s.Times.List
	}
	return uniform(*s.Times.Start, *s.Times.Stop, *s.Times.N)
}

func uniform(start, stop float64, n int) []float64 {
	if n < 2 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for k := range out {
		out[k] = start + float64(k)*step
	}
	return out
}
