// Package syntax defines the statement and expression tree that pyreach
// analyzes. Nodes are produced by lowering a tree-sitter parse (pkg/parser)
// and are mutated only by the reachability pre-pass: block unreachable tags,
// import scope tags, the module skip set, and top-level truncation.
package syntax

import (
	"path/filepath"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// OptLine is an optional source line number. End lines may be absent on
// hand-built trees or older position schemes, so callers must branch on
// Valid instead of assuming a sentinel value.
type OptLine struct {
	Line  int
	Valid bool
}

// LineAt returns a valid OptLine for n.
func LineAt(n int) OptLine {
	return OptLine{Line: n, Valid: true}
}

// Position is the source span of a node: a start line and an optional
// inclusive end line. It is embedded in every node type.
type Position struct {
	Line    int
	EndLine OptLine
}

// Span returns the node's position.
func (p Position) Span() Position { return p }

// Node is implemented by every syntax tree node.
type Node interface {
	Span() Position
}

// Stmt is a statement or declaration.
type Stmt interface {
	Node
	stmt()
}

// Expr is an expression. The pre-pass only inspects the restricted guard
// sublanguage; everything else lowers to OpaqueExpr.
type Expr interface {
	Node
	expr()
}

// Module is a single translation unit.
type Module struct {
	// ID is the dotted module id, e.g. "pkg.sub.mod". Read-only input.
	ID string
	// Path is the source file path. Read-only input.
	Path string
	// IsStub reports whether the file is an interface-only stub (.pyi).
	IsStub bool
	// Defs is the top-level statement sequence. The pre-pass may truncate
	// it in place; it never grows or reorders.
	Defs []Stmt
	// SkippedLines holds lines inside pruned or truncated spans. Populated
	// by the pre-pass; consumers must treat its contents as intentionally
	// unreachable rather than dead code.
	SkippedLines *roaring.Bitmap
	// IsPartialStubPackage is set when a package-initializer stub declares
	// a module-scope __getattr__, meaning any submodule name resolves.
	// Once set it is never unset.
	IsPartialStubPackage bool
}

// IsPackageInit reports whether the module is a package initializer
// (__init__.py or __init__.pyi) rather than a plain module file.
func (m *Module) IsPackageInit() bool {
	base := filepath.Base(m.Path)
	return strings.TrimSuffix(strings.TrimSuffix(base, ".pyi"), ".py") == "__init__"
}

// Block is a statement suite plus the unreachable tag written by the
// reachability oracle. The pre-pass consumes the tag; it does not invent it.
type Block struct {
	Position
	Body        []Stmt
	Unreachable bool
}

// ImportName is one imported module, optionally aliased.
type ImportName struct {
	Module string
	Alias  string
}

// ImportStmt is a plain `import a.b, c as d`.
type ImportStmt struct {
	Position
	Names []ImportName
	// TopLevel records the lexical scope at the moment of definition.
	// Written exactly once by the pre-pass.
	TopLevel bool
}

// ImportFromStmt is `from mod import a, b as c`.
type ImportFromStmt struct {
	Position
	Module   string
	Relative int // leading dots
	Names    []ImportName
	TopLevel bool
}

// ImportAllStmt is a wildcard `from mod import *`.
type ImportAllStmt struct {
	Position
	Module   string
	Relative int
	TopLevel bool
}

// IfArm is one (guard, body) arm of an if/elif chain.
type IfArm struct {
	Cond Expr
	Body *Block
}

// IfStmt is an if/elif/else chain flattened into ordered arms.
type IfStmt struct {
	Position
	Arms []IfArm
	Else *Block
}

// MatchCase is one case of a match statement. Guard is nil when the case
// has no `if` clause. The pattern is opaque to reachability analysis.
type MatchCase struct {
	Pattern string
	Guard   Expr
	Body    *Block
}

// MatchStmt is a match statement.
type MatchStmt struct {
	Position
	Subject Expr
	Cases   []*MatchCase
}

// ForStmt is a for loop. The iteration clause is not part of the guard
// sublanguage, so only the bodies are kept.
type ForStmt struct {
	Position
	Body *Block
	Else *Block
}

// WhileStmt is a while loop.
type WhileStmt struct {
	Position
	Cond Expr
	Body *Block
	Else *Block
}

// WithStmt is a with statement.
type WithStmt struct {
	Position
	Body *Block
}

// TryStmt is a try statement with handler, else and finally suites.
type TryStmt struct {
	Position
	Body     *Block
	Handlers []*Block
	Else     *Block
	Final    *Block
}

// AssertStmt is an assert with an optional message.
type AssertStmt struct {
	Position
	Cond Expr
	Msg  Expr
}

// AssignStmt is an assignment or augmented assignment.
type AssignStmt struct {
	Position
	Targets []Expr
	Value   Expr
}

// ExprStmt is a bare expression statement.
type ExprStmt struct {
	Position
	Value Expr
}

// ReturnStmt is a return with an optional value.
type ReturnStmt struct {
	Position
	Value Expr
}

// RaiseStmt is a raise statement.
type RaiseStmt struct {
	Position
}

// PassStmt is a pass statement.
type PassStmt struct {
	Position
}

// FuncDef is a function definition.
type FuncDef struct {
	Position
	Name      string
	Body      *Block
	Decorated bool
}

// ClassDef is a class definition.
type ClassDef struct {
	Position
	Name string
	Body *Block
}

// OpaqueStmt is any statement kind the lowering does not model. Nested
// suites are kept so default descent stays total.
type OpaqueStmt struct {
	Position
	Kind   string
	Blocks []*Block
}

func (*ImportStmt) stmt()     {}
func (*ImportFromStmt) stmt() {}
func (*ImportAllStmt) stmt()  {}
func (*IfStmt) stmt()         {}
func (*MatchStmt) stmt()      {}
func (*ForStmt) stmt()        {}
func (*WhileStmt) stmt()      {}
func (*WithStmt) stmt()       {}
func (*TryStmt) stmt()        {}
func (*AssertStmt) stmt()     {}
func (*AssignStmt) stmt()     {}
func (*ExprStmt) stmt()       {}
func (*ReturnStmt) stmt()     {}
func (*RaiseStmt) stmt()      {}
func (*PassStmt) stmt()       {}
func (*FuncDef) stmt()        {}
func (*ClassDef) stmt()       {}
func (*OpaqueStmt) stmt()     {}

// NameExpr is an identifier, including True/False/None.
type NameExpr struct {
	Position
	Name string
}

// MemberExpr is attribute access, e.g. sys.platform.
type MemberExpr struct {
	Position
	X    Expr
	Name string
}

// CallExpr is a call.
type CallExpr struct {
	Position
	Fn   Expr
	Args []Expr
}

// IndexExpr is subscripting, e.g. sys.version_info[0] or [:2].
type IndexExpr struct {
	Position
	X     Expr
	Index Expr
}

// SliceExpr is a slice bound pair inside a subscript. Step is ignored.
type SliceExpr struct {
	Position
	Low  Expr
	High Expr
}

// TupleExpr is a tuple literal.
type TupleExpr struct {
	Position
	Items []Expr
}

// IntLit is an integer literal.
type IntLit struct {
	Position
	Value int
}

// StrLit is a string literal with quotes and prefixes stripped.
type StrLit struct {
	Position
	Value string
}

// CmpExpr is a comparison chain: Operands[0] Ops[0] Operands[1] Ops[1] ...
type CmpExpr struct {
	Position
	Ops      []string
	Operands []Expr
}

// BoolOpExpr is `and` / `or`.
type BoolOpExpr struct {
	Position
	Op    string
	Left  Expr
	Right Expr
}

// NotExpr is `not x`.
type NotExpr struct {
	Position
	X Expr
}

// OpaqueExpr is any expression shape outside the guard sublanguage.
type OpaqueExpr struct {
	Position
	Kind string
}

func (*NameExpr) expr()   {}
func (*MemberExpr) expr() {}
func (*CallExpr) expr()   {}
func (*IndexExpr) expr()  {}
func (*SliceExpr) expr()  {}
func (*TupleExpr) expr()  {}
func (*IntLit) expr()     {}
func (*StrLit) expr()     {}
func (*CmpExpr) expr()    {}
func (*BoolOpExpr) expr() {}
func (*NotExpr) expr()    {}
func (*OpaqueExpr) expr() {}
