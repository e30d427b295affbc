// Package prepass runs block and import reachability analysis over a
// single module before any name binding. Names are not bound and imports
// are not resolved yet, so only the current module is visible; the pass
// decides static reachability from the configured target platform and
// Python version alone.
//
// Reachability of imports has to be settled this early because it gates
// which modules the dependency graph will ever consider. A block guarded
// by a failing platform check may import a module that does not exist on
// the target; the import must not be attempted. Blocks marked unreachable
// here are intentionally unreachable and exempt from later dead-code
// diagnostics, which is what the module skip set records.
package prepass

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/pyreach/pyreach/internal/reach"
	"github.com/pyreach/pyreach/pkg/syntax"
)

// getattrHook is the dynamic attribute resolution hook name. A module
// scope __getattr__ in a stub package initializer means any submodule
// name resolves, even without a matching stub.
const getattrHook = "__getattr__"

// Run analyzes one module in place. Postconditions: every import-like
// node reachable from the top level carries its scope tag, the module's
// skip set and partial-stub flag are populated, and the top-level
// statement sequence is truncated after the first statically failing
// assert. Safe to call concurrently for different modules; never for the
// same one.
func Run(mod *syntax.Module, fnam, modID string, opts *reach.Options) {
	w := &walker{
		mod:      mod,
		fnam:     fnam,
		modID:    modID,
		opts:     opts,
		topLevel: true,
		skipped:  roaring.New(),
	}

	// Truncation applies only to the module's own top-level sequence;
	// failing asserts nested in already-unreachable blocks get no such
	// treatment. The cut happens after the loop so the sequence is never
	// resized mid-iteration.
	cut := -1
	for i, def := range mod.Defs {
		w.visitStmt(def)
		as, ok := def.(*syntax.AssertStmt)
		if !ok || !reach.AssertAlwaysFails(as, opts) {
			continue
		}
		if i < len(mod.Defs)-1 {
			next, last := mod.Defs[i+1], mod.Defs[len(mod.Defs)-1]
			if end := last.Span().EndLine; end.Valid {
				w.addRange(next.Span().Line, end.Line)
			}
			cut = i + 1
		}
		break
	}
	if cut >= 0 {
		mod.Defs = mod.Defs[:cut]
	}
	mod.SkippedLines = w.skipped
}

type walker struct {
	mod      *syntax.Module
	fnam     string
	modID    string
	opts     *reach.Options
	topLevel bool
	skipped  *roaring.Bitmap
}

func (w *walker) visitStmt(s syntax.Stmt) {
	switch s := s.(type) {
	case *syntax.IfStmt:
		// Tag arm bodies before descending. Guards are always visited,
		// even for dead arms; only block bodies are pruned.
		reach.InferIfReachability(s, w.opts)
		for i := range s.Arms {
			w.visitExpr(s.Arms[i].Cond)
		}
		for i := range s.Arms {
			w.visitBlock(s.Arms[i].Body)
		}
		w.visitBlock(s.Else)

	case *syntax.MatchStmt:
		reach.InferMatchReachability(s, w.opts)
		w.visitExpr(s.Subject)
		for _, c := range s.Cases {
			if c.Guard != nil {
				w.visitExpr(c.Guard)
			}
		}
		for _, c := range s.Cases {
			w.visitBlock(c.Body)
		}

	case *syntax.FuncDef:
		saved := w.topLevel
		w.topLevel = false
		w.visitBlock(s.Body)
		w.topLevel = saved
		if w.topLevel && w.mod.IsStub && s.Name == getattrHook && w.mod.IsPackageInit() {
			w.mod.IsPartialStubPackage = true
		}

	case *syntax.ClassDef:
		saved := w.topLevel
		w.topLevel = false
		w.visitBlock(s.Body)
		w.topLevel = saved

	case *syntax.ImportStmt:
		s.TopLevel = w.topLevel

	case *syntax.ImportFromStmt:
		s.TopLevel = w.topLevel

	case *syntax.ImportAllStmt:
		s.TopLevel = w.topLevel

	case *syntax.ForStmt:
		// Loop clauses are outside the guard sublanguage; only the
		// bodies matter.
		w.visitBlock(s.Body)
		w.visitBlock(s.Else)

	case *syntax.AssignStmt, *syntax.ExprStmt, *syntax.ReturnStmt:
		// These cannot contain declarations, imports, or nested suites,
		// so descending into their expressions has no observable effect.

	default:
		for _, b := range syntax.Blocks(s) {
			w.visitBlock(b)
		}
	}
}

// visitBlock prunes on the unreachable tag: a dead block contributes its
// line span to the skip set (when an end line is known) and gets no
// further reachability processing. Imports inside it still receive their
// scope tags, since the tag records lexical nesting at the point of
// definition, not whether the statement can run; dependency-graph
// construction skips them via the pruned block itself.
func (w *walker) visitBlock(b *syntax.Block) {
	if b == nil {
		return
	}
	if b.Unreachable {
		if end := b.Span().EndLine; end.Valid {
			w.addRange(b.Span().Line, end.Line)
		}
		w.tagImports(b)
		return
	}
	for _, s := range b.Body {
		w.visitStmt(s)
	}
}

// tagImports stamps scope tags under a pruned block. No oracle calls, no
// skip recording, no stub marking happen here; only the lexical scope
// bookkeeping survives pruning.
func (w *walker) tagImports(b *syntax.Block) {
	if b == nil {
		return
	}
	for _, s := range b.Body {
		switch s := s.(type) {
		case *syntax.ImportStmt:
			s.TopLevel = w.topLevel
		case *syntax.ImportFromStmt:
			s.TopLevel = w.topLevel
		case *syntax.ImportAllStmt:
			s.TopLevel = w.topLevel
		case *syntax.FuncDef, *syntax.ClassDef:
			saved := w.topLevel
			w.topLevel = false
			for _, nested := range syntax.Blocks(s) {
				w.tagImports(nested)
			}
			w.topLevel = saved
		default:
			for _, nested := range syntax.Blocks(s) {
				w.tagImports(nested)
			}
		}
	}
}

// visitExpr walks guard sub-expressions for uniformity with statement
// descent. Expression-level imports are out of scope, so nothing here is
// observable today, but dead-arm guards stay visited per the traversal
// contract.
func (w *walker) visitExpr(e syntax.Expr) {
	if e == nil {
		return
	}
	switch e := e.(type) {
	case *syntax.MemberExpr:
		w.visitExpr(e.X)
	case *syntax.CallExpr:
		w.visitExpr(e.Fn)
		for _, arg := range e.Args {
			w.visitExpr(arg)
		}
	case *syntax.IndexExpr:
		w.visitExpr(e.X)
		w.visitExpr(e.Index)
	case *syntax.SliceExpr:
		if e.Low != nil {
			w.visitExpr(e.Low)
		}
		if e.High != nil {
			w.visitExpr(e.High)
		}
	case *syntax.TupleExpr:
		for _, item := range e.Items {
			w.visitExpr(item)
		}
	case *syntax.CmpExpr:
		for _, operand := range e.Operands {
			w.visitExpr(operand)
		}
	case *syntax.BoolOpExpr:
		w.visitExpr(e.Left)
		w.visitExpr(e.Right)
	case *syntax.NotExpr:
		w.visitExpr(e.X)
	}
}

// addRange records the inclusive line range [start, end] in the skip set.
func (w *walker) addRange(start, end int) {
	if end < start {
		return
	}
	w.skipped.AddRange(uint64(start), uint64(end)+1)
}
