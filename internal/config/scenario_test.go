package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tundeakins/ellc"
)

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Minimal(t *testing.T) {
	t.Parallel()

	path := writeScenario(t, `{"period": 2.5, "radius_1": 0.12, "radius_2": 0.08, "sbratio": 0.4}`)
	sc, err := Load(path)
	require.NoError(t, err)

	sys, err := sc.System(0)
	require.NoError(t, err)
	assert.Equal(t, 2.5, sys.Pars.Period)
	assert.Equal(t, 0.12, sys.Pars.R1)
	assert.Equal(t, 0.4, sys.Pars.SBRatio)
	// Omitted fields keep defaults.
	assert.Equal(t, 1.0, sys.Pars.Q)
	assert.Equal(t, 16, sys.Ctl.Grid1)
}

func TestLoad_RejectsWrongExtension(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, ".json extension")
}

func TestLoad_RejectsBadSpot(t *testing.T) {
	t.Parallel()

	path := writeScenario(t, `{"spots_1": [[10, 20, 5]]}`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "spot")
}

func TestLoad_RejectsUnknownLaw(t *testing.T) {
	t.Parallel()

	path := writeScenario(t, `{"ld_1": "cubic"}`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "limb-darkening")
}

func TestSystem_SpotsAndLaws(t *testing.T) {
	t.Parallel()

	path := writeScenario(t, `{
		"ld_1": "quad", "ldc_1": [0.4, 0.2],
		"shape_1": "roche_v",
		"spots_1": [[45, 90, 10, 0.5]]
	}`)
	sc, err := Load(path)
	require.NoError(t, err)
	sys, err := sc.System(0)
	require.NoError(t, err)

	assert.Equal(t, [4]float64{0.4, 0.2, 0, 0}, sys.Pars.LDC1)
	require.Len(t, sys.Spots1, 1)
	assert.InDelta(t, 45*dtor, sys.Spots1[0].Lat, 1e-12)
	assert.InDelta(t, 10*dtor, sys.Spots1[0].Gamma, 1e-12)
	assert.Equal(t, 0.5, sys.Spots1[0].Factor)
	assert.Equal(t, 1, sys.Ctl.NSpots1)
}

func TestTimeList(t *testing.T) {
	t.Parallel()

	t.Run("explicit list", func(t *testing.T) {
		t.Parallel()
		sc := &Scenario{Times: &TimeGrid{List: []float64{1, 2, 3}}}
		assert.Equal(t, []float64{1, 2, 3}, sc.TimeList())
	})

	t.Run("uniform grid", func(t *testing.T) {
		t.Parallel()
		start, stop := 0.0, 1.0
		n := 5
		sc := &Scenario{Times: &TimeGrid{Start: &start, Stop: &stop, N: &n}}
		got := sc.TimeList()
		require.Len(t, got, 5)
		assert.Equal(t, 0.0, got[0])
		assert.Equal(t, 1.0, got[4])
		assert.InDelta(t, 0.25, got[1], 1e-12)
	})

	t.Run("default covers one period", func(t *testing.T) {
		t.Parallel()
		p := 2.0
		sc := &Scenario{Period: &p}
		got := sc.TimeList()
		require.Len(t, got, 1000)
		assert.Equal(t, 0.0, got[0])
		assert.InDelta(t, 2.0, got[len(got)-1], 1e-12)
	})
}

func TestSystem_RunsThroughEngine(t *testing.T) {
	t.Parallel()

	path := writeScenario(t, `{"period": 1, "radius_1": 0.1, "radius_2": 0.1, "incl": 90}`)
	sc, err := Load(path)
	require.NoError(t, err)
	sys, err := sc.System(0)
	require.NoError(t, err)

	res := ellc.LightCurve([]float64{0.25}, sys)
	require.Len(t, res, 1)
	assert.Zero(t, res[0].Flags&ellc.FlagError)
	assert.InDelta(t, 1.0, res[0].Flux, 1e-6)
}
