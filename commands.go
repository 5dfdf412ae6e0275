package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/moveshelf/opensense/internal/calibrate"
	"github.com/moveshelf/opensense/internal/fsutil"
	"github.com/moveshelf/opensense/internal/markers"
	"github.com/moveshelf/opensense/internal/model"
	"github.com/moveshelf/opensense/internal/orientations"
	"github.com/moveshelf/opensense/internal/readers"
	"github.com/moveshelf/opensense/internal/rundb"
	"github.com/moveshelf/opensense/internal/units"
)

var fsys fsutil.FileSystem = fsutil.OSFileSystem{}

func handleReadXsens(args []string) {
	if len(args) != 2 {
		fatalf("Usage: opensense read-xsens <directory> <settings.yaml>")
	}
	dir, settingsPath := args[0], args[1]

	settings, err := readers.LoadSettings(fsys, settingsPath)
	if err != nil {
		fatalf("%v", err)
	}
	table, err := readers.ReadXsens(fsys, dir, settings)
	if err != nil {
		recordRun(rundb.Run{Command: "read-xsens", Inputs: args, Status: "error"})
		fatalf("%v", err)
	}

	out := settings.TrialPrefix + "_orientations.sto"
	if err := table.WriteSTO(fsys, out); err != nil {
		fatalf("%v", err)
	}
	log.Printf("Wrote %d samples for %d sensors to %s", table.NumRows(), len(table.Labels()), out)
	recordRun(rundb.Run{Command: "read-xsens", Inputs: args,
		MatchedCount: len(table.Labels()), Status: "ok"})
}

func handleReadAPDM(args []string) {
	if len(args) != 2 {
		fatalf("Usage: opensense read-apdm <datafile.csv> <settings.yaml>")
	}
	dataPath, settingsPath := args[0], args[1]

	settings, err := readers.LoadSettings(fsys, settingsPath)
	if err != nil {
		fatalf("%v", err)
	}
	table, err := readers.ReadAPDM(fsys, dataPath, settings)
	if err != nil {
		recordRun(rundb.Run{Command: "read-apdm", Inputs: args, Status: "error"})
		fatalf("%v", err)
	}

	out := settings.TrialPrefix + "_orientations.sto"
	if err := table.WriteSTO(fsys, out); err != nil {
		fatalf("%v", err)
	}
	log.Printf("Wrote %d samples for %d sensors to %s", table.NumRows(), len(table.Labels()), out)
	recordRun(rundb.Run{Command: "read-apdm", Inputs: args,
		MatchedCount: len(table.Labels()), Status: "ok"})
}

func handleTransform(args []string) {
	if len(args) != 1 {
		fatalf("Usage: opensense transform <markers.trc>")
	}

	trial, err := markers.ReadTRC(fsys, args[0])
	if err != nil {
		fatalf("%v", err)
	}
	table, err := calibrate.CreateOrientationsFromMarkers(trial)
	if err != nil {
		recordRun(rundb.Run{Command: "transform", Inputs: args, Status: "error"})
		fatalf("%v", err)
	}

	out := trial.Name() + "_orientations.sto"
	if err := table.WriteSTO(fsys, out); err != nil {
		fatalf("%v", err)
	}
	log.Printf("Wrote %d samples for %d clusters to %s", table.NumRows(), len(table.Labels()), out)
	recordRun(rundb.Run{Command: "transform", Inputs: args,
		MatchedCount: len(table.Labels()), Status: "ok"})
}

func handleAddIMUs(args []string) {
	if len(args) != 2 {
		fatalf("Usage: opensense add-imus <model.json> <markers.trc>")
	}
	modelPath, trialPath := args[0], args[1]

	m, err := model.Load(fsys, modelPath)
	if err != nil {
		fatalf("%v", err)
	}
	trial, err := markers.ReadTRC(fsys, trialPath)
	if err != nil {
		fatalf("%v", err)
	}

	var solver model.DefaultPoseSolver
	report, err := calibrate.RegisterIMUFrames(m, trial, solver)
	if err != nil {
		recordRun(rundb.Run{Command: "add-imus", Inputs: args, Status: "error"})
		fatalf("%v", err)
	}

	out := m.Name() + ".json"
	if err := m.Print(fsys, out); err != nil {
		fatalf("%v", err)
	}
	log.Printf("Attached %d IMU frames (%d clusters skipped), wrote %s",
		len(report.Attached), len(report.Skipped), out)
	recordRun(rundb.Run{Command: "add-imus", Inputs: args,
		MatchedCount: len(report.Attached), SkippedCount: len(report.Skipped), Status: "ok"})
}

func handleCalibrate(args []string) {
	if len(args) < 2 || len(args) > 4 {
		fatalf("Usage: opensense calibrate <model.json> <orientations.sto> [base_imu [x|y|z]]")
	}
	baseSensor := ""
	if len(args) >= 3 {
		baseSensor = args[2]
	}
	axis := parseAxisArg(args, 3)

	report, out, err := runCalibrate(fsys, args[0], args[1], baseSensor, axis)
	if err != nil {
		recordRun(rundb.Run{Command: "calibrate", Inputs: args, Status: "error"})
		fatalf("%v", err)
	}
	skipped := len(report.SkippedModel) + len(report.SkippedTable)
	log.Printf("Calibrated %d sensors (%d skipped), wrote %s", len(report.Matched), skipped, out)
	recordRun(rundb.Run{Command: "calibrate", Inputs: args,
		MatchedCount:   len(report.Matched),
		SkippedCount:   skipped,
		HeadingApplied: report.Heading.Applied,
		HeadingAngle:   report.Heading.Angle,
		Status:         "ok"})
}

// runCalibrate loads the inputs, calibrates, and writes the calibrated
// model. No output file is produced when calibration fails.
func runCalibrate(fsys fsutil.FileSystem, modelPath, stoPath, baseSensor string, axis units.Axis) (*calibrate.Report, string, error) {
	m, err := model.Load(fsys, modelPath)
	if err != nil {
		return nil, "", err
	}
	table, err := orientations.ReadSTO(fsys, stoPath)
	if err != nil {
		return nil, "", err
	}

	report, err := calibrate.CalibrateFromOrientations(m, table, baseSensor, axis)
	if err != nil {
		return nil, "", err
	}

	out := "calibrated_" + m.Name() + ".json"
	if err := m.Print(fsys, out); err != nil {
		return nil, "", err
	}
	return report, out, nil
}

func handleRuns(args []string) {
	if *dbPath == "" {
		fatalf("run recording is disabled (-db \"\")")
	}
	store, err := rundb.Open(*dbPath)
	if err != nil {
		fatalf("%v", err)
	}
	defer store.Close()

	runs, err := store.RecentRuns(20)
	if err != nil {
		fatalf("%v", err)
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tCOMMAND\tSTATUS\tMATCHED\tSKIPPED\tHEADING\tINPUTS")
	for _, r := range runs {
		heading := "-"
		if r.HeadingApplied {
			heading = fmt.Sprintf("%.1f°", units.RadToDeg(r.HeadingAngle))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			r.CreatedAt.Format(time.DateTime), r.Command, r.Status,
			r.MatchedCount, r.SkippedCount, heading, strings.Join(r.Inputs, " "))
	}
	w.Flush()
}

// recordRun appends the run to the history database. Recording is best
// effort: failures are logged, never fatal, so a missing or locked
// database cannot break the pipeline itself.
func recordRun(r rundb.Run) {
	if *dbPath == "" {
		return
	}
	store, err := rundb.Open(*dbPath)
	if err != nil {
		log.Printf("Run recording disabled: %v", err)
		return
	}
	defer store.Close()
	if _, err := store.RecordRun(r); err != nil {
		log.Printf("Failed to record run: %v", err)
	}
}
