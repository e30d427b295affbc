package reach

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pyreach/pyreach/pkg/syntax"
)

// Version is a target Python version. Micro versions are not tracked:
// comparisons that would need one come back unknown.
type Version struct {
	Major int
	Minor int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// ParseVersion parses "3", "3.12" or "3.12.1" (the micro component is
// accepted and discarded).
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) == 0 || len(parts) > 3 {
		return Version{}, fmt.Errorf("invalid python version %q", s)
	}
	var v Version
	var err error
	if v.Major, err = strconv.Atoi(parts[0]); err != nil {
		return Version{}, fmt.Errorf("invalid python version %q", s)
	}
	if len(parts) > 1 {
		if v.Minor, err = strconv.Atoi(parts[1]); err != nil {
			return Version{}, fmt.Errorf("invalid python version %q", s)
		}
	}
	if len(parts) == 3 {
		if _, err = strconv.Atoi(parts[2]); err != nil {
			return Version{}, fmt.Errorf("invalid python version %q", s)
		}
	}
	return v, nil
}

// versionComparison decides comparisons of sys.version_info (full,
// indexed, or sliced) against int or int-tuple literals.
func versionComparison(op string, left, right syntax.Expr, opts *Options) Truth {
	if opts.PythonVersion == (Version{}) {
		return TruthUnknown
	}
	litExpr := right
	target, ok := versionOperand(left, opts)
	if !ok {
		// Literal-on-the-left spelling: (3, 8) <= sys.version_info.
		target, ok = versionOperand(right, opts)
		if !ok {
			return TruthUnknown
		}
		litExpr = left
		op = flipOperator(op)
	}
	lit, ok := tupleLiteral(litExpr)
	if !ok {
		return TruthUnknown
	}
	return compareTuples(op, target, lit)
}

// versionOperand extracts the known components of the target version for
// a sys.version_info reference. The bool result is false when the
// expression is not a version reference this pass understands.
func versionOperand(e syntax.Expr, opts *Options) ([]int, bool) {
	v := opts.PythonVersion
	if isVersionRef(e) {
		return []int{v.Major, v.Minor}, true
	}
	idx, ok := e.(*syntax.IndexExpr)
	if !ok || !isVersionRef(idx.X) {
		return nil, false
	}
	switch index := idx.Index.(type) {
	case *syntax.IntLit:
		switch index.Value {
		case 0:
			return []int{v.Major}, true
		case 1:
			return []int{v.Minor}, true
		}
		return nil, false
	case *syntax.SliceExpr:
		if index.Low != nil {
			if low, ok := index.Low.(*syntax.IntLit); !ok || low.Value != 0 {
				return nil, false
			}
		}
		high, ok := index.High.(*syntax.IntLit)
		if !ok {
			return nil, false
		}
		switch high.Value {
		case 1:
			return []int{v.Major}, true
		case 2:
			return []int{v.Major, v.Minor}, true
		}
		return nil, false
	default:
		return nil, false
	}
}

func isVersionRef(e syntax.Expr) bool {
	name := dottedName(e)
	return name == "sys.version_info" || name == "version_info"
}

// tupleLiteral lowers an int or int-tuple literal to a slice.
func tupleLiteral(e syntax.Expr) ([]int, bool) {
	switch e := e.(type) {
	case *syntax.IntLit:
		return []int{e.Value}, true
	case *syntax.TupleExpr:
		out := make([]int, 0, len(e.Items))
		for _, item := range e.Items {
			lit, ok := item.(*syntax.IntLit)
			if !ok {
				return nil, false
			}
			out = append(out, lit.Value)
		}
		return out, true
	default:
		return nil, false
	}
}

// compareTuples applies Python tuple ordering over the components both
// sides share. If the shared prefix ties and the literal carries
// components the target cannot see, the result is unknown, not guessed.
func compareTuples(op string, target, lit []int) Truth {
	n := len(target)
	if len(lit) < n {
		n = len(lit)
	}
	cmp := 0
	for i := 0; i < n; i++ {
		if target[i] != lit[i] {
			if target[i] < lit[i] {
				cmp = -1
			} else {
				cmp = 1
			}
			break
		}
	}
	if cmp == 0 {
		switch {
		case len(target) == len(lit):
			// Exact tie.
		case len(target) > len(lit):
			// Target has extra components; Python orders the longer
			// tuple after the shorter, and our extra components are
			// known (they are the configured version).
			cmp = 1
		default:
			// Literal is longer and the tie would be broken by a micro
			// version we do not track.
			return TruthUnknown
		}
	}
	switch op {
	case "==":
		return boolTruth(cmp == 0)
	case "!=":
		return boolTruth(cmp != 0)
	case "<":
		return boolTruth(cmp < 0)
	case "<=":
		return boolTruth(cmp <= 0)
	case ">":
		return boolTruth(cmp > 0)
	case ">=":
		return boolTruth(cmp >= 0)
	default:
		return TruthUnknown
	}
}

// flipOperator mirrors a comparison so the version reference reads on
// the left.
func flipOperator(op string) string {
	switch op {
	case "<":
		return ">"
	case "<=":
		return ">="
	case ">":
		return "<"
	case ">=":
		return "<="
	default:
		return op
	}
}
