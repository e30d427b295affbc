package reach

import (
	"strings"

	"github.com/pyreach/pyreach/pkg/syntax"
)

// platformEquality decides `sys.platform == "win32"` and its != form,
// with the platform reference on either side of the operator.
func platformEquality(op string, left, right syntax.Expr, opts *Options) Truth {
	if opts.Platform == "" {
		return TruthUnknown
	}
	var lit *syntax.StrLit
	switch {
	case isPlatformRef(left):
		lit, _ = right.(*syntax.StrLit)
	case isPlatformRef(right):
		lit, _ = left.(*syntax.StrLit)
	}
	if lit == nil {
		return TruthUnknown
	}
	switch op {
	case "==":
		return boolTruth(opts.Platform == lit.Value)
	case "!=":
		return boolTruth(opts.Platform != lit.Value)
	default:
		return TruthUnknown
	}
}

// PlatformStartsWith decides a `sys.platform.startswith("win")` guard.
// Any other call shape is unknown.
func PlatformStartsWith(e *syntax.CallExpr, opts *Options) Truth {
	if opts.Platform == "" {
		return TruthUnknown
	}
	member, ok := e.Fn.(*syntax.MemberExpr)
	if !ok || member.Name != "startswith" || !isPlatformRef(member.X) {
		return TruthUnknown
	}
	if len(e.Args) != 1 {
		return TruthUnknown
	}
	lit, ok := e.Args[0].(*syntax.StrLit)
	if !ok {
		return TruthUnknown
	}
	return boolTruth(strings.HasPrefix(opts.Platform, lit.Value))
}

// isPlatformRef matches sys.platform however the module spells the sys
// reference, e.g. `sys.platform` or a plain `platform` bound from
// `from sys import platform`.
func isPlatformRef(e syntax.Expr) bool {
	name := dottedName(e)
	return name == "sys.platform" || name == "platform"
}

func boolTruth(b bool) Truth {
	if b {
		return TruthAlwaysTrue
	}
	return TruthAlwaysFalse
}
