// Package depgraph builds the module dependency graph from pre-pass
// import records. Top-level edges gate build ordering; nested edges are
// deferred until the enclosing scope runs. Pruned imports never become
// edges: the pre-pass decided their blocks cannot execute on the target.
package depgraph

import (
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/pyreach/pyreach/internal/analysis"
)

// Edge is one import dependency between modules.
type Edge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Line     int    `json:"line"`
	TopLevel bool   `json:"top_level"`
	Wildcard bool   `json:"wildcard,omitempty"`
}

// Graph is a module dependency graph.
type Graph struct {
	Modules []string `json:"modules"`
	Edges   []Edge   `json:"edges"`

	ids      map[string]uint64
	internal map[string]bool
}

// Build constructs the graph from analyzed modules. Only modules seen in
// reports become graph nodes; external imports still contribute edges so
// callers can see what the build would fetch.
func Build(reports []analysis.ModuleReport) *Graph {
	g := &Graph{
		ids:      make(map[string]uint64),
		internal: make(map[string]bool),
	}
	for _, report := range reports {
		g.addModule(report.ModuleID)
		g.internal[report.ModuleID] = true
	}
	sort.Strings(g.Modules)
	for _, report := range reports {
		for _, imp := range report.Imports {
			if imp.Pruned || imp.Module == "" {
				continue
			}
			g.Edges = append(g.Edges, Edge{
				From:     report.ModuleID,
				To:       imp.Module,
				Line:     imp.Line,
				TopLevel: imp.TopLevel,
				Wildcard: imp.Wildcard,
			})
		}
	}
	sort.Slice(g.Edges, func(i, j int) bool {
		a, b := g.Edges[i], g.Edges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Line < b.Line
	})
	return g
}

func (g *Graph) addModule(id string) {
	if _, ok := g.ids[id]; ok {
		return
	}
	g.ids[id] = xxhash.Sum64String(id)
	g.Modules = append(g.Modules, id)
}

// NodeID returns a stable numeric id for a module name.
func (g *Graph) NodeID(module string) uint64 {
	if id, ok := g.ids[module]; ok {
		return id
	}
	return xxhash.Sum64String(module)
}

// Internal reports whether the module was part of the analyzed set
// rather than an external dependency.
func (g *Graph) Internal(module string) bool {
	return g.internal[module]
}

// BuildOrder returns analyzed modules in dependency-first order over
// top-level edges, since only those gate module initialization. Cycles
// are tolerated: members of a cycle come back in name order after the
// acyclic prefix.
func (g *Graph) BuildOrder() []string {
	indegree := make(map[string]int, len(g.Modules))
	dependents := make(map[string][]string)
	for _, m := range g.Modules {
		indegree[m] = 0
	}
	for _, e := range g.Edges {
		if !e.TopLevel || !g.internal[e.To] || e.From == e.To {
			continue
		}
		// From depends on To: To initializes first.
		indegree[e.From]++
		dependents[e.To] = append(dependents[e.To], e.From)
	}

	queue := make([]string, 0, len(g.Modules))
	for _, m := range g.Modules {
		if indegree[m] == 0 {
			queue = append(queue, m)
		}
	}
	sort.Strings(queue)

	order := make([]string, 0, len(g.Modules))
	seen := make(map[string]bool, len(g.Modules))
	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]
		order = append(order, m)
		seen[m] = true

		var ready []string
		for _, dep := range dependents[m] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
		sort.Strings(ready)
		queue = append(queue, ready...)
	}

	for _, m := range g.Modules {
		if !seen[m] {
			order = append(order, m)
		}
	}
	return order
}
