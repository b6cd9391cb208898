// Package monitor renders a synthesis run as a self-contained HTML
// report: the light curve, the per-star fluxes, the radial velocities
// and the eclipse classification, using go-echarts.
package monitor

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/tundeakins/ellc"
)

// WriteReport renders the report for one run to w. Observations carrying
// the sentinel value are dropped from the series but counted in the
// subtitle.
func WriteReport(w io.Writer, title string, times []float64, results []ellc.Result) error {
	if len(times) != len(results) {
		return fmt.Errorf("times/results length mismatch: %d vs %d", len(times), len(results))
	}

	var bad int
	axis := make([]string, 0, len(times))
	flux := make([]opts.LineData, 0, len(times))
	flux1 := make([]opts.LineData, 0, len(times))
	flux2 := make([]opts.LineData, 0, len(times))
	rv1 := make([]opts.LineData, 0, len(times))
	rv2 := make([]opts.LineData, 0, len(times))
	eclipses := make([]opts.ScatterData, 0)

	for i, t := range times {
		r := results[i]
		if r.Flux == ellc.BadDouble {
			bad++
			continue
		}
		axis = append(axis, fmt.Sprintf("%.6f", t))
		flux = append(flux, opts.LineData{Value: r.Flux})
		flux1 = append(flux1, opts.LineData{Value: r.Flux1})
		flux2 = append(flux2, opts.LineData{Value: r.Flux2})
		rv1 = append(rv1, opts.LineData{Value: r.RV1})
		rv2 = append(rv2, opts.LineData{Value: r.RV2})
		if r.Flags&ellc.FlagEclipse != 0 {
			eclipses = append(eclipses, opts.ScatterData{Value: []interface{}{t, r.Flux}})
		}
	}

	sub := fmt.Sprintf("points=%d dropped=%d", len(axis), bad)

	lc := charts.NewLine()
	lc.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Theme: "dark", Width: "1200px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Light curve", Subtitle: sub}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "normalized flux"}),
	)
	lc.SetXAxis(axis).
		AddSeries("total", flux).
		AddSeries("star 1", flux1).
		AddSeries("star 2", flux2).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(false), ShowSymbol: opts.Bool(false)}))

	rv := charts.NewLine()
	rv.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "1200px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Radial velocities"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "km/s"}),
	)
	rv.SetXAxis(axis).
		AddSeries("rv 1", rv1).
		AddSeries("rv 2", rv2).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))

	ecl := charts.NewScatter()
	ecl.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "1200px", Height: "300px"}),
		charts.WithTitleOpts(opts.Title{Title: "Eclipsed observations", Subtitle: fmt.Sprintf("n=%d", len(eclipses))}),
	)
	ecl.AddSeries("eclipse", eclipses, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))

	page := components.NewPage()
	page.AddCharts(lc, rv, ecl)
	return page.Render(w)
}
