// Package analysis runs the reachability pre-pass over many files:
// parse, lower, analyze, and summarize each module, with content-hash
// caching and a worker pool. Modules are independent, so files are
// processed concurrently; each walker only ever sees its own tree.
package analysis

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pyreach/pyreach/internal/cache"
	"github.com/pyreach/pyreach/internal/fileproc"
	"github.com/pyreach/pyreach/internal/prepass"
	"github.com/pyreach/pyreach/internal/reach"
	"github.com/pyreach/pyreach/pkg/config"
	"github.com/pyreach/pyreach/pkg/parser"
	"github.com/pyreach/pyreach/pkg/syntax"
)

// ImportRecord is one import statement after the pre-pass. Module names
// are resolved to absolute dotted ids; relative imports resolve against
// the importing module.
type ImportRecord struct {
	Module   string `json:"module"`
	Line     int    `json:"line"`
	TopLevel bool   `json:"top_level"`
	// Pruned marks imports inside blocks the pass decided are
	// unreachable; dependency-graph construction must not follow them.
	Pruned   bool `json:"pruned"`
	Wildcard bool `json:"wildcard,omitempty"`
}

// ModuleReport summarizes the pre-pass outputs for one module.
type ModuleReport struct {
	Path               string         `json:"path"`
	ModuleID           string         `json:"module_id"`
	Stub               bool           `json:"stub,omitempty"`
	PackageInit        bool           `json:"package_init,omitempty"`
	SkippedLines       []int          `json:"skipped_lines,omitempty"`
	Truncated          bool           `json:"truncated,omitempty"`
	TruncatedAt        int            `json:"truncated_at,omitempty"`
	Imports            []ImportRecord `json:"imports,omitempty"`
	PartialStubPackage bool           `json:"partial_stub_package,omitempty"`
}

// Runner analyzes files against one immutable configuration snapshot.
type Runner struct {
	cfg   *config.Config
	opts  *reach.Options
	cache *cache.Cache
}

// NewRunner builds a runner from config. Caching can be disabled per run
// regardless of the config setting.
func NewRunner(cfg *config.Config, useCache bool) (*Runner, error) {
	version, err := reach.ParseVersion(cfg.Python.Version)
	if err != nil {
		return nil, err
	}
	opts := &reach.Options{
		Platform:      cfg.Python.Platform,
		PythonVersion: version,
		AlwaysTrue:    cfg.Python.AlwaysTrue,
		AlwaysFalse:   cfg.Python.AlwaysFalse,
	}
	c, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL, useCache && cfg.Cache.Enabled)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return &Runner{cfg: cfg, opts: opts, cache: c}, nil
}

// Options exposes the reachability options the runner analyzes under.
func (r *Runner) Options() *reach.Options {
	return r.opts
}

// Analyze runs the pre-pass over files, rooted at root for module id
// derivation. Reports come back sorted by path.
func (r *Runner) Analyze(root string, files []string, onProgress fileproc.ProgressFunc) ([]ModuleReport, *fileproc.ProcessingErrors) {
	reports, errs := fileproc.MapFiles(files, func(p *parser.Parser, path string) (ModuleReport, error) {
		return r.analyzeFile(p, root, path)
	}, onProgress)

	sort.Slice(reports, func(i, j int) bool { return reports[i].Path < reports[j].Path })
	return reports, errs
}

func (r *Runner) analyzeFile(p *parser.Parser, root, path string) (ModuleReport, error) {
	hash, err := cache.HashFile(path)
	if err != nil {
		return ModuleReport{}, err
	}
	key := r.cacheKey(path)
	if data, ok := r.cache.GetWithHash(key, hash); ok {
		var report ModuleReport
		if err := json.Unmarshal(data, &report); err == nil {
			return report, nil
		}
	}

	res, err := p.ParseFile(path)
	if err != nil {
		return ModuleReport{}, err
	}
	mod := parser.Lower(res)
	mod.ID = ModuleID(path, root)

	defsBefore := len(mod.Defs)
	prepass.Run(mod, path, mod.ID, r.opts)

	report := ModuleReport{
		Path:               path,
		ModuleID:           mod.ID,
		Stub:               mod.IsStub,
		PackageInit:        mod.IsPackageInit(),
		Imports:            collectImports(mod),
		PartialStubPackage: mod.IsPartialStubPackage,
	}
	if mod.SkippedLines != nil && !mod.SkippedLines.IsEmpty() {
		for _, line := range mod.SkippedLines.ToArray() {
			report.SkippedLines = append(report.SkippedLines, int(line))
		}
	}
	if len(mod.Defs) < defsBefore {
		report.Truncated = true
		if len(mod.Defs) > 0 {
			report.TruncatedAt = mod.Defs[len(mod.Defs)-1].Span().Line
		}
	}

	if data, err := json.Marshal(report); err == nil {
		r.cache.SetWithHash(key, hash, data)
	}
	return report, nil
}

// cacheKey folds the configuration into the key so a platform or version
// change never serves stale decisions.
func (r *Runner) cacheKey(path string) string {
	return strings.Join([]string{
		"prepass",
		path,
		r.opts.Platform,
		r.opts.PythonVersion.String(),
		strings.Join(r.opts.AlwaysTrue, ","),
		strings.Join(r.opts.AlwaysFalse, ","),
	}, "|")
}

// ModuleID derives the dotted module id from a path relative to root:
// pkg/sub/mod.py becomes pkg.sub.mod, and package initializers collapse
// to the package id itself.
func ModuleID(path, root string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	id := strings.ReplaceAll(filepath.ToSlash(rel), "/", ".")
	id = strings.TrimSuffix(id, ".__init__")
	return id
}

// collectImports gathers every import in the tree with its scope tag,
// marking those inside unreachable blocks as pruned. Imports removed by
// truncation are already gone from the sequence and never appear.
func collectImports(mod *syntax.Module) []ImportRecord {
	var records []ImportRecord

	var walkStmts func(stmts []syntax.Stmt, pruned bool)
	walkBlock := func(b *syntax.Block, pruned bool) {
		if b == nil {
			return
		}
		walkStmts(b.Body, pruned || b.Unreachable)
	}
	walkStmts = func(stmts []syntax.Stmt, pruned bool) {
		for _, s := range stmts {
			switch s := s.(type) {
			case *syntax.ImportStmt:
				for _, name := range s.Names {
					records = append(records, ImportRecord{
						Module:   name.Module,
						Line:     s.Span().Line,
						TopLevel: s.TopLevel,
						Pruned:   pruned,
					})
				}
			case *syntax.ImportFromStmt:
				records = append(records, ImportRecord{
					Module:   resolveRelative(mod, s.Module, s.Relative),
					Line:     s.Span().Line,
					TopLevel: s.TopLevel,
					Pruned:   pruned,
				})
			case *syntax.ImportAllStmt:
				records = append(records, ImportRecord{
					Module:   resolveRelative(mod, s.Module, s.Relative),
					Line:     s.Span().Line,
					TopLevel: s.TopLevel,
					Pruned:   pruned,
					Wildcard: true,
				})
			default:
				for _, b := range syntax.Blocks(s) {
					walkBlock(b, pruned)
				}
			}
		}
	}
	walkStmts(mod.Defs, false)
	return records
}

// resolveRelative turns a relative import into an absolute module id.
// One dot is the containing package; each extra dot climbs a level.
func resolveRelative(mod *syntax.Module, target string, dots int) string {
	if dots == 0 {
		return target
	}
	parts := strings.Split(mod.ID, ".")
	if !mod.IsPackageInit() && len(parts) > 0 {
		parts = parts[:len(parts)-1]
	}
	for i := 1; i < dots && len(parts) > 0; i++ {
		parts = parts[:len(parts)-1]
	}
	base := strings.Join(parts, ".")
	switch {
	case target == "":
		return base
	case base == "":
		return target
	default:
		return base + "." + target
	}
}
