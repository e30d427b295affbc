package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/pyreach/pyreach/internal/output"
)

func importsCmd() *cli.Command {
	return &cli.Command{
		Name:      "imports",
		Aliases:   []string{"i"},
		Usage:     "List imports with their scope tags and pruning decisions",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "pruned-only",
				Usage: "Show only imports the pre-pass pruned",
			},
		},
		Action: runImports,
	}
}

func runImports(c *cli.Context) error {
	reports, err := runAnalysis(c, "Collecting imports...")
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

	prunedOnly := c.Bool("pruned-only")
	var rows [][]string
	total, pruned := 0, 0
	for _, report := range reports {
		for _, imp := range report.Imports {
			total++
			if imp.Pruned {
				pruned++
			}
			if prunedOnly && !imp.Pruned {
				continue
			}

			scope := "nested"
			if imp.TopLevel {
				scope = "top-level"
			}
			name := imp.Module
			if imp.Wildcard {
				name += ".*"
			}
			prunedCol := ""
			if imp.Pruned {
				prunedCol = color.YellowString("pruned")
			}
			rows = append(rows, []string{
				report.ModuleID,
				name,
				fmt.Sprintf("%d", imp.Line),
				scope,
				prunedCol,
			})
		}
	}

	table := output.NewTable(
		"Imports",
		[]string{"Module", "Import", "Line", "Scope", "Pruned"},
		rows,
		[]string{fmt.Sprintf("%d imports", total), "", "", "", fmt.Sprintf("%d pruned", pruned)},
		reports,
	)
	return formatter.Output(table)
}
