package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/pyreach/pyreach/internal/depgraph"
	"github.com/pyreach/pyreach/internal/output"
)

func graphCmd() *cli.Command {
	return &cli.Command{
		Name:      "graph",
		Aliases:   []string{"g"},
		Usage:     "Build the module dependency graph from pre-pass import tags",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "order",
				Usage: "Print the dependency-first build order instead of edges",
			},
			&cli.BoolFlag{
				Name:  "external",
				Usage: "Include edges to modules outside the analyzed set",
			},
		},
		Action: runGraph,
	}
}

func runGraph(c *cli.Context) error {
	reports, err := runAnalysis(c, "Building dependency graph...")
	if err != nil {
		return err
	}
	if reports == nil {
		color.Yellow("No Python files found")
		return nil
	}

	graph := depgraph.Build(reports)

	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), true)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if c.Bool("order") {
		order := graph.BuildOrder()
		var rows [][]string
		for i, module := range order {
			rows = append(rows, []string{fmt.Sprintf("%d", i+1), module})
		}
		table := output.NewTable(
			"Build Order",
			[]string{"#", "Module"},
			rows,
			nil,
			order,
		)
		return formatter.Output(table)
	}

	includeExternal := c.Bool("external")
	var rows [][]string
	for _, edge := range graph.Edges {
		if !includeExternal && !graph.Internal(edge.To) {
			continue
		}
		kind := "deferred"
		if edge.TopLevel {
			kind = "gating"
		}
		to := edge.To
		if edge.Wildcard {
			to += ".*"
		}
		if !graph.Internal(edge.To) {
			to += " (external)"
		}
		rows = append(rows, []string{
			edge.From,
			to,
			fmt.Sprintf("%d", edge.Line),
			kind,
		})
	}

	table := output.NewTable(
		"Module Dependency Graph",
		[]string{"From", "To", "Line", "Kind"},
		rows,
		[]string{
			fmt.Sprintf("%d modules", len(graph.Modules)),
			fmt.Sprintf("%d edges", len(rows)),
			"",
			"",
		},
		graph,
	)
	if err := formatter.Output(table); err != nil {
		return err
	}

	if c.Bool("verbose") && formatter.Format() == output.FormatText {
		fmt.Println("Build order:", strings.Join(graph.BuildOrder(), " -> "))
	}
	return nil
}
