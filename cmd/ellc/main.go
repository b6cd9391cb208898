// Command ellc synthesises a binary-star light curve from a scenario
// file and writes the results as CSV, optionally recording the run into
// a sqlite store and rendering an HTML report.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/tundeakins/ellc"
	"github.com/tundeakins/ellc/internal/config"
	"github.com/tundeakins/ellc/internal/monitor"
	"github.com/tundeakins/ellc/internal/store"
	"github.com/tundeakins/ellc/internal/version"
)

var (
	scenarioPath = flag.String("scenario", "", "Path to the scenario JSON file")
	outPath      = flag.String("out", "", "CSV output path (default stdout)")
	dbPath       = flag.String("db", "", "Record the run into this sqlite database")
	htmlPath     = flag.String("html", "", "Write an HTML report to this path")
	rvOnly       = flag.Bool("rv-only", false, "Compute only centre-of-mass radial velocities")
	verbosity    = flag.Int("v", int(ellc.Warn), "Verbosity: 0 silent, 1 warn, 2 user, 3 debug")
	showVersion  = flag.Bool("version", false, "Print the build version and exit")
)

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *scenarioPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	sc, err := config.Load(*scenarioPath)
	if err != nil {
		log.Fatalf("scenario: %v", err)
	}
	sys, err := sc.System(*verbosity)
	if err != nil {
		log.Fatalf("scenario: %v", err)
	}
	times := sc.TimeList()

	if *rvOnly {
		rvs := ellc.RadialVelocity(times, sys.Pars, sys.Verbose)
		if err := writeRvCSV(times, rvs); err != nil {
			log.Fatalf("output: %v", err)
		}
		return
	}

	results := ellc.LightCurve(times, sys)

	if err := writeLcCSV(times, results); err != nil {
		log.Fatalf("output: %v", err)
	}

	if *dbPath != "" {
		db, err := store.Open(*dbPath)
		if err != nil {
			log.Fatalf("store: %v", err)
		}
		defer db.Close()

		scJSON, err := json.Marshal(sc)
		if err != nil {
			log.Fatalf("store: %v", err)
		}
		rs := store.NewRunStore(db)
		runID, err := rs.InsertRun(string(scJSON))
		if err != nil {
			log.Fatalf("store: %v", err)
		}
		if err := rs.InsertObservations(runID, times, results); err != nil {
			log.Fatalf("store: %v", err)
		}
		log.Printf("recorded run %s (%d observations)", runID, len(times))
	}

	if *htmlPath != "" {
		f, err := os.Create(*htmlPath)
		if err != nil {
			log.Fatalf("report: %v", err)
		}
		defer f.Close()
		if err := monitor.WriteReport(f, *scenarioPath, times, results); err != nil {
			log.Fatalf("report: %v", err)
		}
	}
}

func output() (*os.File, func(), error) {
	if *outPath == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(*outPath)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func writeLcCSV(times []float64, results []ellc.Result) error {
	f, done, err := output()
	if err != nil {
		return err
	}
	defer done()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"time", "flux", "flux_1", "flux_2", "rv_1", "rv_2", "flags"}); err != nil {
		return err
	}
	for i, t := range times {
		r := results[i]
		rec := []string{
			fmtF(t), fmtF(r.Flux), fmtF(r.Flux1), fmtF(r.Flux2),
			fmtF(r.RV1), fmtF(r.RV2), strconv.FormatUint(uint64(r.Flags), 10),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeRvCSV(times []float64, rvs [][2]float64) error {
	f, done, err := output()
	if err != nil {
		return err
	}
	defer done()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"time", "rv_1", "rv_2"}); err != nil {
		return err
	}
	for i, t := range times {
		if err := w.Write([]string{fmtF(t), fmtF(rvs[i][0]), fmtF(rvs[i][1])}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func fmtF(v float64) string {
	return fmt.Sprintf("%.10g", v)
}
