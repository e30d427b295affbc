// Package reach evaluates the restricted guard sublanguage used by
// platform and version checks. All functions are pure over Options and
// total over well-formed trees: a guard shape outside the sublanguage
// evaluates to TruthUnknown, never an error. Unknown is the conservative
// default; only TruthAlwaysFalse may mark a block unreachable.
package reach

import (
	"github.com/pyreach/pyreach/pkg/syntax"
)

// Truth is the three-valued result of statically evaluating a guard.
type Truth int

const (
	TruthUnknown Truth = iota
	TruthAlwaysTrue
	TruthAlwaysFalse
)

func (t Truth) String() string {
	switch t {
	case TruthAlwaysTrue:
		return "always-true"
	case TruthAlwaysFalse:
		return "always-false"
	default:
		return "unknown"
	}
}

// Negate flips true and false and leaves unknown alone.
func (t Truth) Negate() Truth {
	switch t {
	case TruthAlwaysTrue:
		return TruthAlwaysFalse
	case TruthAlwaysFalse:
		return TruthAlwaysTrue
	default:
		return TruthUnknown
	}
}

// Options is the immutable configuration snapshot consulted during a pass.
type Options struct {
	// Platform is the target sys.platform value, e.g. "linux", "win32".
	Platform string
	// PythonVersion is the target interpreter version. Only major and
	// minor components take part in tuple comparisons.
	PythonVersion Version
	// AlwaysTrue and AlwaysFalse force the truth of specific names,
	// matching dotted forms by their full text or final component.
	AlwaysTrue  []string
	AlwaysFalse []string
}

// InferIfReachability tags each arm body, and the else body, of an
// if/elif/else chain. An always-false guard kills its own body; the first
// always-true guard kills every later arm and the else body, since those
// only execute when all earlier guards were false.
func InferIfReachability(s *syntax.IfStmt, opts *Options) {
	for i := range s.Arms {
		switch ExprTruth(s.Arms[i].Cond, opts) {
		case TruthAlwaysFalse:
			markUnreachable(s.Arms[i].Body)
		case TruthAlwaysTrue:
			for j := i + 1; j < len(s.Arms); j++ {
				markUnreachable(s.Arms[j].Body)
			}
			markUnreachable(s.Else)
			return
		}
	}
}

// InferMatchReachability tags case bodies whose guards can never hold.
// Patterns are opaque, so a true guard says nothing about later cases.
func InferMatchReachability(s *syntax.MatchStmt, opts *Options) {
	for _, c := range s.Cases {
		if c.Guard == nil {
			continue
		}
		if ExprTruth(c.Guard, opts) == TruthAlwaysFalse {
			markUnreachable(c.Body)
		}
	}
}

// AssertAlwaysFails reports whether an assert statement is statically
// guaranteed to fail, e.g. `assert sys.platform == "lol"`.
func AssertAlwaysFails(s *syntax.AssertStmt, opts *Options) bool {
	return ExprTruth(s.Cond, opts) == TruthAlwaysFalse
}

func markUnreachable(b *syntax.Block) {
	if b != nil {
		b.Unreachable = true
	}
}

// ExprTruth statically evaluates a guard expression.
func ExprTruth(e syntax.Expr, opts *Options) Truth {
	switch e := e.(type) {
	case *syntax.NameExpr:
		return nameTruth(e.Name, opts)
	case *syntax.MemberExpr:
		return nameTruth(dottedName(e), opts)
	case *syntax.NotExpr:
		return ExprTruth(e.X, opts).Negate()
	case *syntax.BoolOpExpr:
		return boolOpTruth(e, opts)
	case *syntax.CmpExpr:
		return cmpTruth(e, opts)
	case *syntax.CallExpr:
		return PlatformStartsWith(e, opts)
	default:
		return TruthUnknown
	}
}

// nameTruth decides bare and dotted names: boolean literals, the
// type-checking markers, and config-forced names.
func nameTruth(name string, opts *Options) Truth {
	if name == "" {
		return TruthUnknown
	}
	switch name {
	case "True":
		return TruthAlwaysTrue
	case "False":
		return TruthAlwaysFalse
	}
	short := lastComponent(name)
	switch short {
	case "TYPE_CHECKING", "MYPY":
		// Static analysis behaves as if typing.TYPE_CHECKING were true.
		return TruthAlwaysTrue
	}
	for _, forced := range opts.AlwaysTrue {
		if name == forced || short == forced {
			return TruthAlwaysTrue
		}
	}
	for _, forced := range opts.AlwaysFalse {
		if name == forced || short == forced {
			return TruthAlwaysFalse
		}
	}
	return TruthUnknown
}

func boolOpTruth(e *syntax.BoolOpExpr, opts *Options) Truth {
	left := ExprTruth(e.Left, opts)
	right := ExprTruth(e.Right, opts)
	switch e.Op {
	case "and":
		if left == TruthAlwaysFalse || right == TruthAlwaysFalse {
			return TruthAlwaysFalse
		}
		if left == TruthAlwaysTrue && right == TruthAlwaysTrue {
			return TruthAlwaysTrue
		}
	case "or":
		if left == TruthAlwaysTrue || right == TruthAlwaysTrue {
			return TruthAlwaysTrue
		}
		if left == TruthAlwaysFalse && right == TruthAlwaysFalse {
			return TruthAlwaysFalse
		}
	}
	return TruthUnknown
}

// cmpTruth evaluates a comparison chain conjunctively: every adjacent
// pair must be decidable for the chain to be decidable, except that a
// single always-false link falsifies the whole chain.
func cmpTruth(e *syntax.CmpExpr, opts *Options) Truth {
	if len(e.Ops) == 0 || len(e.Operands) != len(e.Ops)+1 {
		return TruthUnknown
	}
	result := TruthAlwaysTrue
	for i, op := range e.Ops {
		t := pairTruth(op, e.Operands[i], e.Operands[i+1], opts)
		switch t {
		case TruthAlwaysFalse:
			return TruthAlwaysFalse
		case TruthUnknown:
			result = TruthUnknown
		}
	}
	return result
}

func pairTruth(op string, left, right syntax.Expr, opts *Options) Truth {
	if t := platformEquality(op, left, right, opts); t != TruthUnknown {
		return t
	}
	if t := versionComparison(op, left, right, opts); t != TruthUnknown {
		return t
	}
	return TruthUnknown
}

func dottedName(e syntax.Expr) string {
	switch e := e.(type) {
	case *syntax.NameExpr:
		return e.Name
	case *syntax.MemberExpr:
		base := dottedName(e.X)
		if base == "" {
			return ""
		}
		return base + "." + e.Name
	default:
		return ""
	}
}

func lastComponent(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}
