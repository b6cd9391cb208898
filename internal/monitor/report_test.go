package monitor

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tundeakins/ellc"
)

func TestWriteReport(t *testing.T) {
	t.Parallel()

	times := []float64{0, 0.25, 0.5}
	results := []ellc.Result{
		{Flux: 0.7, Flags: ellc.FlagEclipse},
		{Flux: 1.0},
		{Flux: ellc.BadDouble, Flags: ellc.FlagFail}, // dropped from the series
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, "test run", times, results))

	html := buf.String()
	assert.True(t, strings.Contains(html, "Light curve"))
	assert.True(t, strings.Contains(html, "Radial velocities"))
	assert.True(t, strings.Contains(html, "dropped=1"))
}

func TestWriteReport_LengthMismatch(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := WriteReport(&buf, "x", []float64{0}, nil)
	assert.ErrorContains(t, err, "mismatch")
}
