// Command orientation-plot renders the heading trace of every sensor in
// an orientation table to a PNG. Useful for picking a stable base
// sensor before calibrating.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/moveshelf/opensense/internal/calibrate"
	"github.com/moveshelf/opensense/internal/fsutil"
	"github.com/moveshelf/opensense/internal/orientations"
	"github.com/moveshelf/opensense/internal/units"
)

func main() {
	out := flag.String("o", "headings.png", "output PNG path")
	axisName := flag.String("axis", "z", "local sensor axis to trace (x, y or z)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: orientation-plot [-o out.png] [-axis x|y|z] <orientations.sto>")
		os.Exit(1)
	}

	axis, err := units.ParseAxis(*axisName)
	if err != nil {
		log.Fatalf("Invalid axis %q (valid: %s)", *axisName, units.GetValidAxesString())
	}

	fsys := fsutil.OSFileSystem{}
	table, err := orientations.ReadSTO(fsys, flag.Arg(0))
	if err != nil {
		log.Fatalf("Read orientations: %v", err)
	}

	p := plot.New()
	p.Title.Text = "Sensor headings"
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "heading (deg)"

	var series []interface{}
	for col, label := range table.Labels() {
		pts := make(plotter.XYs, 0, table.NumRows())
		for row := 0; row < table.NumRows(); row++ {
			angle, err := calibrate.ComputeHeadingCorrection(table.At(row, col), axis)
			if err != nil {
				// Near-vertical samples leave a gap in the trace.
				continue
			}
			pts = append(pts, plotter.XY{X: table.Time(row), Y: units.RadToDeg(angle)})
		}
		if len(pts) == 0 {
			log.Printf("Sensor %q has no plottable headings on axis %s; omitting", label, axis)
			continue
		}
		series = append(series, label, pts)
	}
	if len(series) == 0 {
		log.Fatalf("No sensor in %s has a defined heading on axis %s", flag.Arg(0), axis)
	}

	if err := plotutil.AddLinePoints(p, series...); err != nil {
		log.Fatalf("Plot headings: %v", err)
	}
	if err := p.Save(8*vg.Inch, 4*vg.Inch, *out); err != nil {
		log.Fatalf("Save plot: %v", err)
	}
	log.Printf("Wrote heading traces for %d sensors to %s", len(series)/2, *out)
}
