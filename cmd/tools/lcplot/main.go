// Command lcplot renders a stored synthesis run, or a CSV produced by
// cmd/ellc, as a PNG light-curve plot.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/tundeakins/ellc"
	"github.com/tundeakins/ellc/internal/store"
)

var (
	dbPath  = flag.String("db", "", "sqlite database recorded by cmd/ellc")
	runID   = flag.String("run", "", "Run identifier inside the database (default: newest)")
	csvPath = flag.String("csv", "", "CSV file produced by cmd/ellc (alternative to -db)")
	outPath = flag.String("out", "lightcurve.png", "Output PNG path")
)

func main() {
	flag.Parse()

	var times, flux []float64
	var err error
	switch {
	case *dbPath != "":
		times, flux, err = fromStore(*dbPath, *runID)
	case *csvPath != "":
		times, flux, err = fromCSV(*csvPath)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("load: %v", err)
	}
	if len(times) == 0 {
		log.Fatal("no usable observations")
	}

	p := plot.New()
	p.Title.Text = "Light curve"
	p.X.Label.Text = "time (d)"
	p.Y.Label.Text = "normalized flux"

	pts := make(plotter.XYs, len(times))
	for i := range times {
		pts[i].X = times[i]
		pts[i].Y = flux[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		log.Fatalf("plot: %v", err)
	}
	line.Color = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	p.Add(line, plotter.NewGrid())

	if err := p.Save(9*vg.Inch, 5*vg.Inch, *outPath); err != nil {
		log.Fatalf("save: %v", err)
	}
	log.Printf("wrote %s (%d points)", *outPath, len(pts))
}

func fromStore(path, id string) (times, flux []float64, err error) {
	db, err := store.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer db.Close()

	rs := store.NewRunStore(db)
	if id == "" {
		runs, err := rs.ListRuns()
		if err != nil {
			return nil, nil, err
		}
		if len(runs) == 0 {
			return nil, nil, fmt.Errorf("database holds no runs")
		}
		id = runs[0].ID
	}
	obs, err := rs.Observations(id)
	if err != nil {
		return nil, nil, err
	}
	for _, o := range obs {
		if o.Flux == ellc.BadDouble {
			continue
		}
		times = append(times, o.Time)
		flux = append(flux, o.Flux)
	}
	return times, flux, nil
}

func fromCSV(path string) (times, flux []float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	for i, rec := range recs {
		if i == 0 || len(rec) < 2 {
			continue // header
		}
		t, err1 := strconv.ParseFloat(rec[0], 64)
		v, err2 := strconv.ParseFloat(rec[1], 64)
		if err1 != nil || err2 != nil || v == ellc.BadDouble {
			continue
		}
		times = append(times, t)
		flux = append(flux, v)
	}
	return times, flux, nil
}
