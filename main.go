package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/insightdelivered/transcript-analyzer/internal/api"
	"github.com/insightdelivered/transcript-analyzer/internal/config"
	"github.com/insightdelivered/transcript-analyzer/internal/extractor"
	"github.com/insightdelivered/transcript-analyzer/internal/insights"
	"github.com/insightdelivered/transcript-analyzer/internal/models"
	"github.com/insightdelivered/transcript-analyzer/internal/parser"
	"github.com/insightdelivered/transcript-analyzer/internal/requirements"
	"github.com/insightdelivered/transcript-analyzer/internal/writer"
)

const version = "1.1.0"

func main() {
	serveFlag := flag.Bool("serve", false, "Run the HTTP API server instead of processing files")
	configFlag := flag.String("config", "", "Server configuration YAML (used with -serve)")
	addrFlag := flag.String("addr", "", "HTTP listen address (overrides config)")
	reqFlag := flag.String("requirements", "", "Programme requirements CSV path")
	annotationsFlag := flag.String("annotations", "", "Annotations JSON file; writes <input>_annotated.csv next to each input")
	programmeFlag := flag.String("programme", "", "Force a requirements programme code instead of resolving one")
	versionFlag := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Transcript Analyzer
by Insight Delivered

Parses academic transcript CSV exports into structured student records,
derives progress insights, and reconciles each record against programme
requirement tables.

Usage:
  transcript-analyzer [flags] <transcript.csv> [transcript2.csv ...]
  transcript-analyzer -serve [-config server.yaml]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Parse an export and print per-student reports
  transcript-analyzer -requirements=handbook.csv export.csv

  # Write an annotated copy of the export
  transcript-analyzer -annotations=codes.json export.csv

  # Run the upload API
  transcript-analyzer -serve -addr=:8080 -requirements=handbook.csv
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("transcript-analyzer v%s\n", version)
		os.Exit(0)
	}

	if *serveFlag {
		serve(*configFlag, *addrFlag, *reqFlag)
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	for _, inputPath := range flag.Args() {
		if err := processFile(inputPath, *reqFlag, *programmeFlag, *annotationsFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", inputPath, err)
			os.Exit(1)
		}
	}
}

func processFile(inputPath, reqPath, forcedProgramme, annotationsPath string) error {
	text, err := extractor.ReadTranscript(inputPath)
	if err != nil {
		return err
	}

	fmt.Printf("Processing: %s\n", inputPath)

	res := parser.ParseCached(text)
	fmt.Printf("  Found %d student(s)\n", len(res.Students))

	if len(res.Students) == 0 {
		fmt.Println("  Warning: No student records found. The export may not match the expected row layout.")
	}

	ix := requirements.LoadFileCached(reqPath)
	if reqPath != "" && ix.Empty() {
		fmt.Printf("  Warning: No requirements loaded from %s\n", reqPath)
	}

	for _, st := range res.Students {
		printStudent(st, ix, forcedProgramme)
	}

	if annotationsPath != "" {
		if err := writeAnnotated(inputPath, text, annotationsPath); err != nil {
			return err
		}
	}

	fmt.Println("  Done.")
	return nil
}

func printStudent(st models.Student, ix *requirements.Index, forcedProgramme string) {
	fmt.Printf("\n  %s (%s)\n", st.Name, st.CampusID)
	fmt.Printf("    Programme: %s", st.Programme)
	if st.Plan != "" {
		fmt.Printf("  Plan: %s", st.Plan)
	}
	fmt.Println()

	ins := insights.Compute(st)
	if len(ins.ProgrammeChangeList) > 0 {
		if ins.ProgrammeChanges > 0 {
			fmt.Printf("    Programme changes: x%d (%s)\n", ins.ProgrammeChanges, strings.Join(ins.ProgrammeChangeList, ", "))
		} else {
			fmt.Printf("    Programme changes: %s\n", ins.ProgrammeChangeList[0])
		}
	} else {
		fmt.Println("    Programme changes: N/A")
	}
	if len(ins.RepeatedFails) > 0 {
		fmt.Printf("    Repeated failed courses: %s\n", strings.Join(ins.RepeatedFails, "; "))
	} else {
		fmt.Println("    Repeated failed courses: None")
	}
	if ins.ActualYears > 0 {
		fmt.Printf("    Actual years of study: %d\n", ins.ActualYears)
	} else {
		fmt.Println("    Actual years of study: N/A")
	}
	if w := ins.WeakestYear; w != nil {
		fmt.Printf("    Weakest year: %d (%d/%d passed)\n", w.Year, w.Passed, w.Attempted)
	} else {
		fmt.Println("    Weakest year: N/A")
	}

	code, candidates := ix.Resolve(st)
	if forcedProgramme != "" {
		code, candidates = forcedProgramme, nil
	}
	if len(candidates) > 0 {
		fmt.Printf("    Requirements mapping ambiguous; candidates: %s\n", strings.Join(candidates, ", "))
		return
	}
	if code == "" {
		return
	}

	rep := ix.Match(st, code, requirements.SortMostRecent)
	readable := rep.ProgrammeName
	if readable == "" {
		readable = code
	}
	fmt.Printf("    Requirements (%s): %d outstanding\n", readable, len(rep.Outstanding))
	for _, out := range rep.Outstanding {
		line := fmt.Sprintf("      %s: %s", out.YearLabel, out.Display)
		if len(out.Similar) > 0 {
			line += " | similar completed: " + strings.Join(out.Similar, ", ")
		}
		fmt.Println(line)
	}
}

func writeAnnotated(inputPath, text, annotationsPath string) error {
	data, err := os.ReadFile(annotationsPath)
	if err != nil {
		return fmt.Errorf("failed to read annotations %q: %w", annotationsPath, err)
	}
	annotations := map[string]models.Annotation{}
	if err := json.Unmarshal(data, &annotations); err != nil {
		return fmt.Errorf("failed to parse annotations %q: %w", annotationsPath, err)
	}

	outPath := writer.AnnotatedFilename(inputPath)
	a := &writer.Annotator{Annotations: annotations}
	if err := a.WriteToFile(outPath, text); err != nil {
		return fmt.Errorf("annotated CSV write failed: %w", err)
	}
	fmt.Printf("  Output: %s\n", outPath)
	return nil
}

func serve(configPath, addr, reqPath string) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			fatalf("Config error: %v\n", err)
		}
		cfg = loaded
	}
	if addr != "" {
		cfg.ListenAddr = addr
	}
	if reqPath != "" {
		cfg.RequirementsPath = reqPath
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		fatalf("Logger error: %v\n", err)
	}
	defer log.Sync()

	app := fiber.New(fiber.Config{
		AppName:   "transcript-analyzer v" + version,
		BodyLimit: 32 << 20,
	})

	h := &api.Handler{
		RequirementsPath: cfg.RequirementsPath,
		StaticDir:        cfg.StaticDir,
		Log:              log,
	}
	h.RegisterRoutes(app)

	log.Info("listening",
		zap.String("addr", cfg.ListenAddr),
		zap.String("requirements", cfg.RequirementsPath))
	if err := app.Listen(cfg.ListenAddr); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	return cfg.Build()
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
