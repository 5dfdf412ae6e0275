package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/moveshelf/opensense/internal/units"
	"github.com/moveshelf/opensense/internal/version"
)

var dbPath = flag.String("db", "opensense_runs.db", "path of the run history database (empty to disable)")

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "read-xsens":
		handleReadXsens(args)
	case "read-apdm":
		handleReadAPDM(args)
	case "transform":
		handleTransform(args)
	case "add-imus":
		handleAddIMUs(args)
	case "calibrate":
		handleCalibrate(args)
	case "runs":
		handleRuns(args)
	case "version":
		fmt.Printf("opensense version %s\n", version.String())
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`opensense - IMU registration and calibration pipeline

Usage: opensense [flags] <command> [arguments]

Commands:
  read-xsens <directory> <settings.yaml>
             Read an Xsens export (one file per sensor) and write the
             merged orientations as <trial_prefix>_orientations.sto
  read-apdm  <datafile.csv> <settings.yaml>
             Read an APDM export (single wide CSV) and write the
             orientations as <trial_prefix>_orientations.sto
  transform  <markers.trc>
             Convert the trial's IMU marker clusters to an orientation
             table, written as <trial>_orientations.sto
  add-imus   <model.json> <markers.trc>
             Register IMU frames on the model from a static marker
             trial; writes <model>_<trial>_IMUs.json
  calibrate  <model.json> <orientations.sto> [base_imu [x|y|z]]
             Calibrate the model's sensor frames against a static
             orientation trial, optionally heading-corrected about the
             base sensor's axis (default z); writes
             calibrated_<model>.json
  runs       List recent recorded runs
  version    Show opensense version
  help       Show this help message

Flags:
  -db <path>   Run history database (default opensense_runs.db, empty
               to disable run recording)`)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func parseAxisArg(args []string, i int) units.Axis {
	if len(args) <= i {
		return units.AxisZ
	}
	axis, err := units.ParseAxis(args[i])
	if err != nil {
		fatalf("invalid heading axis %q (valid: %s)", args[i], units.GetValidAxesString())
	}
	return axis
}
