package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/pyreach/pyreach/internal/analysis"
	"github.com/pyreach/pyreach/internal/progress"
	"github.com/pyreach/pyreach/internal/scanner"
	"github.com/pyreach/pyreach/pkg/config"
)

// getPaths returns paths from positional args, defaulting to ["."]
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"."}
}

// loadConfig resolves configuration with CLI flag overrides applied.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
		cfg = loaded
	} else {
		cfg = config.LoadOrDefault()
	}
	if platform := c.String("platform"); platform != "" {
		cfg.Python.Platform = platform
	}
	if version := c.String("python-version"); version != "" {
		cfg.Python.Version = version
	}
	return cfg, nil
}

// runAnalysis scans the given paths and runs the pre-pass over every
// Python file found. The first path acts as the module-id root.
func runAnalysis(c *cli.Context, label string) ([]analysis.ModuleReport, error) {
	paths := getPaths(c)

	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	scan := scanner.New(cfg)
	files, err := scan.ScanPaths(paths)
	if err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}
	if len(files) == 0 {
		return nil, nil
	}

	runner, err := analysis.NewRunner(cfg, !c.Bool("no-cache"))
	if err != nil {
		return nil, err
	}

	tracker := progress.NewTracker(label, len(files))
	reports, errs := runner.Analyze(paths[0], files, tracker.Tick)
	tracker.FinishSuccess()
	if errs != nil && errs.HasErrors() {
		if c.Bool("verbose") {
			return reports, errs
		}
		// Unparseable files are reported but do not fail the run.
		fmt.Fprintln(c.App.ErrWriter, errs.Error())
	}
	return reports, nil
}

// formatLines renders a sorted line set as compact ranges, e.g. "4-7, 12".
func formatLines(lines []int) string {
	if len(lines) == 0 {
		return ""
	}
	var parts []string
	start, prev := lines[0], lines[0]
	flush := func() {
		if start == prev {
			parts = append(parts, fmt.Sprintf("%d", start))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", start, prev))
		}
	}
	for _, line := range lines[1:] {
		if line == prev+1 {
			prev = line
			continue
		}
		flush()
		start, prev = line, line
	}
	flush()
	return strings.Join(parts, ", ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
