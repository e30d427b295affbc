package reach

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyreach/pyreach/pkg/syntax"
)

func linuxOpts() *Options {
	return &Options{Platform: "linux", PythonVersion: Version{Major: 3, Minor: 12}}
}

func name(s string) *syntax.NameExpr { return &syntax.NameExpr{Name: s} }

func dotted(parts ...string) syntax.Expr {
	var e syntax.Expr = name(parts[0])
	for _, p := range parts[1:] {
		e = &syntax.MemberExpr{X: e, Name: p}
	}
	return e
}

func str(s string) *syntax.StrLit { return &syntax.StrLit{Value: s} }
func num(v int) *syntax.IntLit    { return &syntax.IntLit{Value: v} }

func tuple(vals ...int) *syntax.TupleExpr {
	e := &syntax.TupleExpr{}
	for _, v := range vals {
		e.Items = append(e.Items, num(v))
	}
	return e
}

func compare(op string, left, right syntax.Expr) *syntax.CmpExpr {
	return &syntax.CmpExpr{Ops: []string{op}, Operands: []syntax.Expr{left, right}}
}

func versionRef() syntax.Expr { return dotted("sys", "version_info") }

func versionIndex(i int) syntax.Expr {
	return &syntax.IndexExpr{X: versionRef(), Index: num(i)}
}

func versionSlice(high int) syntax.Expr {
	return &syntax.IndexExpr{X: versionRef(), Index: &syntax.SliceExpr{High: num(high)}}
}

func platformRef() syntax.Expr { return dotted("sys", "platform") }

func TestTruthNegate(t *testing.T) {
	assert.Equal(t, TruthAlwaysFalse, TruthAlwaysTrue.Negate())
	assert.Equal(t, TruthAlwaysTrue, TruthAlwaysFalse.Negate())
	assert.Equal(t, TruthUnknown, TruthUnknown.Negate())
}

func TestTruthString(t *testing.T) {
	assert.Equal(t, "always-true", TruthAlwaysTrue.String())
	assert.Equal(t, "always-false", TruthAlwaysFalse.String())
	assert.Equal(t, "unknown", TruthUnknown.String())
}

func TestNameTruth(t *testing.T) {
	opts := linuxOpts()
	opts.AlwaysTrue = []string{"HAS_FEATURE", "flags.EXPERIMENTAL"}
	opts.AlwaysFalse = []string{"LEGACY"}

	tests := []struct {
		name string
		expr syntax.Expr
		want Truth
	}{
		{"true literal", name("True"), TruthAlwaysTrue},
		{"false literal", name("False"), TruthAlwaysFalse},
		{"bare type checking marker", name("TYPE_CHECKING"), TruthAlwaysTrue},
		{"dotted type checking marker", dotted("typing", "TYPE_CHECKING"), TruthAlwaysTrue},
		{"mypy marker", name("MYPY"), TruthAlwaysTrue},
		{"forced true bare", name("HAS_FEATURE"), TruthAlwaysTrue},
		{"forced true by final component", dotted("pkg", "HAS_FEATURE"), TruthAlwaysTrue},
		{"forced true by full dotted text", dotted("flags", "EXPERIMENTAL"), TruthAlwaysTrue},
		{"forced false", name("LEGACY"), TruthAlwaysFalse},
		{"plain name", name("debug"), TruthUnknown},
		{"none", name("None"), TruthUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExprTruth(tt.expr, opts))
		})
	}
}

func TestPlatformGuards(t *testing.T) {
	opts := linuxOpts()

	tests := []struct {
		name string
		expr syntax.Expr
		want Truth
	}{
		{"equality match", compare("==", platformRef(), str("linux")), TruthAlwaysTrue},
		{"equality mismatch", compare("==", platformRef(), str("win32")), TruthAlwaysFalse},
		{"inequality match", compare("!=", platformRef(), str("win32")), TruthAlwaysTrue},
		{"inequality mismatch", compare("!=", platformRef(), str("linux")), TruthAlwaysFalse},
		{"literal on the left", compare("==", str("linux"), platformRef()), TruthAlwaysTrue},
		{"bare platform name from import", compare("==", name("platform"), str("linux")), TruthAlwaysTrue},
		{"ordering is not decided", compare("<", platformRef(), str("win32")), TruthUnknown},
		{"unrelated attribute", compare("==", dotted("os", "name"), str("posix")), TruthUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExprTruth(tt.expr, opts))
		})
	}
}

func TestPlatformStartsWith(t *testing.T) {
	opts := linuxOpts()

	call := func(fn syntax.Expr, args ...syntax.Expr) *syntax.CallExpr {
		return &syntax.CallExpr{Fn: fn, Args: args}
	}
	startswith := func(prefix string) *syntax.CallExpr {
		return call(&syntax.MemberExpr{X: platformRef(), Name: "startswith"}, str(prefix))
	}

	assert.Equal(t, TruthAlwaysTrue, ExprTruth(startswith("lin"), opts))
	assert.Equal(t, TruthAlwaysTrue, ExprTruth(startswith("linux"), opts))
	assert.Equal(t, TruthAlwaysFalse, ExprTruth(startswith("win"), opts))

	// Shapes outside the sublanguage stay unknown.
	assert.Equal(t, TruthUnknown, ExprTruth(call(&syntax.MemberExpr{X: platformRef(), Name: "endswith"}, str("x")), opts))
	assert.Equal(t, TruthUnknown, ExprTruth(call(&syntax.MemberExpr{X: platformRef(), Name: "startswith"}), opts))
	assert.Equal(t, TruthUnknown, ExprTruth(call(name("startswith"), str("lin")), opts))
}

func TestVersionGuards(t *testing.T) {
	opts := linuxOpts() // targets 3.12

	tests := []struct {
		name string
		expr syntax.Expr
		want Truth
	}{
		{"full at least met", compare(">=", versionRef(), tuple(3, 8)), TruthAlwaysTrue},
		{"full at least unmet", compare(">=", versionRef(), tuple(3, 13)), TruthAlwaysFalse},
		{"full below", compare("<", versionRef(), tuple(3, 8)), TruthAlwaysFalse},
		{"full equal", compare("==", versionRef(), tuple(3, 12)), TruthAlwaysTrue},
		{"full not equal", compare("!=", versionRef(), tuple(3, 12)), TruthAlwaysFalse},
		{"full above exact", compare(">", versionRef(), tuple(3, 12)), TruthAlwaysFalse},
		{"major index", compare("==", versionIndex(0), num(3)), TruthAlwaysTrue},
		{"major index mismatch", compare("<", versionIndex(0), num(3)), TruthAlwaysFalse},
		{"minor index", compare(">=", versionIndex(1), num(10)), TruthAlwaysTrue},
		{"two component slice", compare("==", versionSlice(2), tuple(3, 12)), TruthAlwaysTrue},
		{"one component slice", compare("==", versionSlice(1), tuple(3)), TruthAlwaysTrue},
		{"literal on the left flips", compare("<=", tuple(3, 8), versionRef()), TruthAlwaysTrue},
		{"literal on the left greater", compare(">", tuple(3, 13), versionRef()), TruthAlwaysTrue},
		{"full against bare major", compare(">=", versionRef(), num(3)), TruthAlwaysTrue},
		{"longer tuple orders after prefix", compare("==", versionRef(), num(3)), TruthAlwaysFalse},
		{"micro tie is unknown", compare(">=", versionRef(), tuple(3, 12, 1)), TruthUnknown},
		{"micro non-tie still decides", compare(">=", versionRef(), tuple(3, 8, 1)), TruthAlwaysTrue},
		{"non-literal operand", compare(">=", versionRef(), name("minimum")), TruthUnknown},
		{"unsupported index", compare("==", &syntax.IndexExpr{X: versionRef(), Index: num(2)}, num(0)), TruthUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExprTruth(tt.expr, opts))
		})
	}
}

func TestBoolOpTruth(t *testing.T) {
	opts := linuxOpts()
	tr := name("True")
	fa := name("False")
	unk := name("something")

	boolOp := func(op string, left, right syntax.Expr) syntax.Expr {
		return &syntax.BoolOpExpr{Op: op, Left: left, Right: right}
	}

	tests := []struct {
		name string
		expr syntax.Expr
		want Truth
	}{
		{"and both true", boolOp("and", tr, tr), TruthAlwaysTrue},
		{"and false short circuits", boolOp("and", fa, unk), TruthAlwaysFalse},
		{"and unknown right", boolOp("and", tr, unk), TruthUnknown},
		{"or both false", boolOp("or", fa, fa), TruthAlwaysFalse},
		{"or true short circuits", boolOp("or", unk, tr), TruthAlwaysTrue},
		{"or unknown left", boolOp("or", unk, fa), TruthUnknown},
		{"not true", &syntax.NotExpr{X: tr}, TruthAlwaysFalse},
		{"not unknown", &syntax.NotExpr{X: unk}, TruthUnknown},
		{"nested not around comparison", &syntax.NotExpr{X: compare("==", platformRef(), str("win32"))}, TruthAlwaysTrue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExprTruth(tt.expr, opts))
		})
	}
}

func TestComparisonChains(t *testing.T) {
	opts := linuxOpts()

	// (3, 8) <= sys.version_info < (4, 0) on 3.12: both links hold.
	chain := &syntax.CmpExpr{
		Ops:      []string{"<=", "<"},
		Operands: []syntax.Expr{tuple(3, 8), versionRef(), tuple(4, 0)},
	}
	assert.Equal(t, TruthAlwaysTrue, ExprTruth(chain, opts))

	// One false link falsifies the chain even when another is unknown.
	chain = &syntax.CmpExpr{
		Ops:      []string{"==", "=="},
		Operands: []syntax.Expr{name("color"), platformRef(), str("win32")},
	}
	assert.Equal(t, TruthAlwaysFalse, ExprTruth(chain, opts))

	// An unknown link keeps an otherwise-true chain unknown.
	chain = &syntax.CmpExpr{
		Ops:      []string{"==", "=="},
		Operands: []syntax.Expr{name("color"), platformRef(), str("linux")},
	}
	assert.Equal(t, TruthUnknown, ExprTruth(chain, opts))

	// Malformed chains never decide anything.
	assert.Equal(t, TruthUnknown, ExprTruth(&syntax.CmpExpr{}, opts))
}

func TestEmptyOptionsDecideNothing(t *testing.T) {
	opts := &Options{}
	assert.Equal(t, TruthUnknown, ExprTruth(compare("==", platformRef(), str("linux")), opts))
	assert.Equal(t, TruthUnknown, ExprTruth(compare(">=", versionRef(), tuple(3, 8)), opts))
}

func TestInferIfReachability(t *testing.T) {
	opts := linuxOpts()

	arm := func(cond syntax.Expr) syntax.IfArm {
		return syntax.IfArm{Cond: cond, Body: &syntax.Block{}}
	}

	t.Run("always false guard kills its own body", func(t *testing.T) {
		s := &syntax.IfStmt{
			Arms: []syntax.IfArm{arm(compare("==", platformRef(), str("win32")))},
			Else: &syntax.Block{},
		}
		InferIfReachability(s, opts)
		assert.True(t, s.Arms[0].Body.Unreachable)
		assert.False(t, s.Else.Unreachable)
	})

	t.Run("first always true guard kills later arms and else", func(t *testing.T) {
		s := &syntax.IfStmt{
			Arms: []syntax.IfArm{
				arm(name("debug")),
				arm(compare("==", platformRef(), str("linux"))),
				arm(name("other")),
			},
			Else: &syntax.Block{},
		}
		InferIfReachability(s, opts)
		assert.False(t, s.Arms[0].Body.Unreachable)
		assert.False(t, s.Arms[1].Body.Unreachable)
		assert.True(t, s.Arms[2].Body.Unreachable)
		assert.True(t, s.Else.Unreachable)
	})

	t.Run("unknown guard decides nothing", func(t *testing.T) {
		s := &syntax.IfStmt{
			Arms: []syntax.IfArm{arm(name("debug"))},
			Else: &syntax.Block{},
		}
		InferIfReachability(s, opts)
		assert.False(t, s.Arms[0].Body.Unreachable)
		assert.False(t, s.Else.Unreachable)
	})

	t.Run("no else block", func(t *testing.T) {
		s := &syntax.IfStmt{
			Arms: []syntax.IfArm{arm(name("TYPE_CHECKING"))},
		}
		require.NotPanics(t, func() { InferIfReachability(s, opts) })
	})
}

func TestInferMatchReachability(t *testing.T) {
	opts := linuxOpts()

	s := &syntax.MatchStmt{
		Subject: name("command"),
		Cases: []*syntax.MatchCase{
			{Pattern: `"start"`, Body: &syntax.Block{}},
			{Pattern: `"win"`, Guard: compare("==", platformRef(), str("win32")), Body: &syntax.Block{}},
			{Pattern: `"any"`, Guard: compare("==", platformRef(), str("linux")), Body: &syntax.Block{}},
			{Pattern: "_", Body: &syntax.Block{}},
		},
	}
	InferMatchReachability(s, opts)

	assert.False(t, s.Cases[0].Body.Unreachable, "case without guard is untouched")
	assert.True(t, s.Cases[1].Body.Unreachable, "always-false guard kills the case body")
	assert.False(t, s.Cases[2].Body.Unreachable, "a true guard says nothing, the pattern may not match")
	assert.False(t, s.Cases[3].Body.Unreachable)
}

func TestAssertAlwaysFails(t *testing.T) {
	opts := linuxOpts()

	fails := &syntax.AssertStmt{Cond: compare("==", platformRef(), str("bogus"))}
	assert.True(t, AssertAlwaysFails(fails, opts))

	holds := &syntax.AssertStmt{Cond: compare("==", platformRef(), str("linux"))}
	assert.False(t, AssertAlwaysFails(holds, opts))

	unknown := &syntax.AssertStmt{Cond: name("invariant")}
	assert.False(t, AssertAlwaysFails(unknown, opts))
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    Version
		wantErr bool
	}{
		{in: "3", want: Version{Major: 3}},
		{in: "3.12", want: Version{Major: 3, Minor: 12}},
		{in: "3.12.1", want: Version{Major: 3, Minor: 12}},
		{in: " 3.12 ", want: Version{Major: 3, Minor: 12}},
		{in: "abc", wantErr: true},
		{in: "3.x", wantErr: true},
		{in: "3.12.x", wantErr: true},
		{in: "3.12.1.0", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := ParseVersion(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}

	assert.Equal(t, "3.12", Version{Major: 3, Minor: 12}.String())
}
