package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/pyreach/pyreach/internal/output"
)

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"a"},
		Usage:     "Run the reachability pre-pass and report per-module results",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Include modules with nothing skipped or flagged",
			},
		},
		Action: runAnalyze,
	}
}

func runAnalyze(c *cli.Context) error {
	reports, err := runAnalysis(c, "Analyzing reachability...")
	if err != nil {
		return err
	}
	if reports == nil {
		color.Yellow("No Python files found")
		return nil
	}

	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), true)
	if err != nil {
		return err
	}
	defer formatter.Close()

	showAll := c.Bool("all")
	var rows [][]string
	skippedTotal := 0
	truncated := 0
	stubPackages := 0
	for _, report := range reports {
		skippedTotal += len(report.SkippedLines)
		if report.Truncated {
			truncated++
		}
		if report.PartialStubPackage {
			stubPackages++
		}
		interesting := len(report.SkippedLines) > 0 || report.Truncated || report.PartialStubPackage
		if !interesting && !showAll {
			continue
		}

		truncatedCol := ""
		if report.Truncated {
			truncatedCol = fmt.Sprintf("after line %d", report.TruncatedAt)
		}
		rows = append(rows, []string{
			report.ModuleID,
			report.Path,
			formatLines(report.SkippedLines),
			truncatedCol,
			yesNo(report.PartialStubPackage),
		})
	}

	table := output.NewTable(
		"Reachability Pre-Analysis",
		[]string{"Module", "File", "Skipped Lines", "Truncated", "Partial Stub Pkg"},
		rows,
		[]string{
			fmt.Sprintf("%d modules", len(reports)),
			"",
			fmt.Sprintf("%d lines skipped", skippedTotal),
			fmt.Sprintf("%d truncated", truncated),
			fmt.Sprintf("%d stub pkgs", stubPackages),
		},
		reports,
	)
	return formatter.Output(table)
}
