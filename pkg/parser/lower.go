package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/pyreach/pyreach/pkg/syntax"
)

// Lower converts a parsed tree into the syntax statement model. Lowering
// is total: statement kinds outside the model become OpaqueStmt with
// their suites preserved, and expressions outside the guard sublanguage
// become OpaqueExpr. The module ID is left for the caller to assign.
func Lower(res *ParseResult) *syntax.Module {
	l := &lowerer{src: res.Source}
	mod := &syntax.Module{
		Path:   res.Path,
		IsStub: IsStubFile(res.Path),
	}
	mod.Defs = l.suite(res.Tree.RootNode())
	return mod
}

type lowerer struct {
	src []byte
}

func (l *lowerer) text(n *sitter.Node) string {
	return GetNodeText(n, l.src)
}

func pos(n *sitter.Node) syntax.Position {
	return syntax.Position{
		Line:    int(n.StartPoint().Row) + 1,
		EndLine: syntax.LineAt(int(n.EndPoint().Row) + 1),
	}
}

// suite lowers the statements directly under a module or block node.
func (l *lowerer) suite(n *sitter.Node) []syntax.Stmt {
	var out []syntax.Stmt
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		out = append(out, l.stmt(child))
	}
	return out
}

func (l *lowerer) block(n *sitter.Node) *syntax.Block {
	if n == nil {
		return nil
	}
	return &syntax.Block{Position: pos(n), Body: l.suite(n)}
}

func (l *lowerer) stmt(n *sitter.Node) syntax.Stmt {
	switch n.Type() {
	case "import_statement":
		return &syntax.ImportStmt{Position: pos(n), Names: l.importNames(n)}

	case "import_from_statement", "future_import_statement":
		return l.importFrom(n)

	case "assert_statement":
		s := &syntax.AssertStmt{Position: pos(n)}
		if c := n.NamedChild(0); c != nil {
			s.Cond = l.expr(c)
		}
		if c := n.NamedChild(1); c != nil {
			s.Msg = l.expr(c)
		}
		return s

	case "if_statement":
		return l.ifStmt(n)

	case "match_statement":
		return l.matchStmt(n)

	case "for_statement":
		return &syntax.ForStmt{
			Position: pos(n),
			Body:     l.block(n.ChildByFieldName("body")),
			Else:     l.elseClause(n.ChildByFieldName("alternative")),
		}

	case "while_statement":
		return &syntax.WhileStmt{
			Position: pos(n),
			Cond:     l.expr(n.ChildByFieldName("condition")),
			Body:     l.block(n.ChildByFieldName("body")),
			Else:     l.elseClause(n.ChildByFieldName("alternative")),
		}

	case "try_statement":
		return l.tryStmt(n)

	case "with_statement":
		return &syntax.WithStmt{
			Position: pos(n),
			Body:     l.block(n.ChildByFieldName("body")),
		}

	case "function_definition":
		return &syntax.FuncDef{
			Position: pos(n),
			Name:     l.text(n.ChildByFieldName("name")),
			Body:     l.block(n.ChildByFieldName("body")),
		}

	case "class_definition":
		return &syntax.ClassDef{
			Position: pos(n),
			Name:     l.text(n.ChildByFieldName("name")),
			Body:     l.block(n.ChildByFieldName("body")),
		}

	case "decorated_definition":
		inner := l.stmt(n.ChildByFieldName("definition"))
		if fn, ok := inner.(*syntax.FuncDef); ok {
			fn.Decorated = true
		}
		return inner

	case "expression_statement":
		return l.exprStmt(n)

	case "return_statement":
		s := &syntax.ReturnStmt{Position: pos(n)}
		if c := n.NamedChild(0); c != nil {
			s.Value = l.expr(c)
		}
		return s

	case "raise_statement":
		return &syntax.RaiseStmt{Position: pos(n)}

	case "pass_statement":
		return &syntax.PassStmt{Position: pos(n)}

	default:
		return &syntax.OpaqueStmt{
			Position: pos(n),
			Kind:     n.Type(),
			Blocks:   l.nestedBlocks(n),
		}
	}
}

// exprStmt distinguishes assignments from bare expression statements;
// tree-sitter parses both under expression_statement.
func (l *lowerer) exprStmt(n *sitter.Node) syntax.Stmt {
	child := n.NamedChild(0)
	if child == nil {
		return &syntax.ExprStmt{Position: pos(n)}
	}
	switch child.Type() {
	case "assignment", "augmented_assignment":
		s := &syntax.AssignStmt{Position: pos(n)}
		if left := child.ChildByFieldName("left"); left != nil {
			s.Targets = append(s.Targets, l.expr(left))
		}
		if right := child.ChildByFieldName("right"); right != nil {
			s.Value = l.expr(right)
		}
		return s
	default:
		return &syntax.ExprStmt{Position: pos(n), Value: l.expr(child)}
	}
}

func (l *lowerer) ifStmt(n *sitter.Node) syntax.Stmt {
	s := &syntax.IfStmt{Position: pos(n)}
	s.Arms = append(s.Arms, syntax.IfArm{
		Cond: l.expr(n.ChildByFieldName("condition")),
		Body: l.block(n.ChildByFieldName("consequence")),
	})
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "elif_clause":
			s.Arms = append(s.Arms, syntax.IfArm{
				Cond: l.expr(child.ChildByFieldName("condition")),
				Body: l.block(child.ChildByFieldName("consequence")),
			})
		case "else_clause":
			s.Else = l.block(child.ChildByFieldName("body"))
		}
	}
	return s
}

func (l *lowerer) matchStmt(n *sitter.Node) syntax.Stmt {
	s := &syntax.MatchStmt{Position: pos(n)}
	if subject := n.ChildByFieldName("subject"); subject != nil {
		s.Subject = l.expr(subject)
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		return s
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		clause := body.NamedChild(i)
		if clause.Type() != "case_clause" {
			continue
		}
		c := &syntax.MatchCase{
			Body: l.block(clause.ChildByFieldName("consequence")),
		}
		var patterns []string
		for j := 0; j < int(clause.NamedChildCount()); j++ {
			part := clause.NamedChild(j)
			switch part.Type() {
			case "case_pattern":
				patterns = append(patterns, l.text(part))
			case "if_clause":
				if guard := part.NamedChild(0); guard != nil {
					c.Guard = l.expr(guard)
				}
			}
		}
		c.Pattern = strings.Join(patterns, ", ")
		s.Cases = append(s.Cases, c)
	}
	return s
}

func (l *lowerer) tryStmt(n *sitter.Node) syntax.Stmt {
	s := &syntax.TryStmt{
		Position: pos(n),
		Body:     l.block(n.ChildByFieldName("body")),
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "except_clause", "except_group_clause", "finally_clause":
			// The handler suite is the clause's block child.
			var blk *sitter.Node
			for j := 0; j < int(child.NamedChildCount()); j++ {
				if child.NamedChild(j).Type() == "block" {
					blk = child.NamedChild(j)
				}
			}
			if child.Type() == "finally_clause" {
				s.Final = l.block(blk)
			} else {
				s.Handlers = append(s.Handlers, l.block(blk))
			}
		case "else_clause":
			s.Else = l.block(child.ChildByFieldName("body"))
		}
	}
	return s
}

func (l *lowerer) elseClause(n *sitter.Node) *syntax.Block {
	if n == nil {
		return nil
	}
	return l.block(n.ChildByFieldName("body"))
}

// nestedBlocks collects the suites of a statement kind the model does
// not name, so generic descent still reaches them.
func (l *lowerer) nestedBlocks(n *sitter.Node) []*syntax.Block {
	var out []*syntax.Block
	var walk func(*sitter.Node)
	walk = func(c *sitter.Node) {
		for i := 0; i < int(c.NamedChildCount()); i++ {
			child := c.NamedChild(i)
			if child.Type() == "block" {
				out = append(out, l.block(child))
				continue
			}
			walk(child)
		}
	}
	walk(n)
	return out
}

func (l *lowerer) importNames(n *sitter.Node) []syntax.ImportName {
	var names []syntax.ImportName
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "dotted_name":
			names = append(names, syntax.ImportName{Module: l.text(child)})
		case "aliased_import":
			names = append(names, syntax.ImportName{
				Module: l.text(child.ChildByFieldName("name")),
				Alias:  l.text(child.ChildByFieldName("alias")),
			})
		}
	}
	return names
}

func (l *lowerer) importFrom(n *sitter.Node) syntax.Stmt {
	module := ""
	relative := 0
	if n.Type() == "future_import_statement" {
		module = "__future__"
	} else if mn := n.ChildByFieldName("module_name"); mn != nil {
		raw := l.text(mn)
		relative = len(raw) - len(strings.TrimLeft(raw, "."))
		module = raw[relative:]
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		if n.NamedChild(i).Type() == "wildcard_import" {
			return &syntax.ImportAllStmt{
				Position: pos(n),
				Module:   module,
				Relative: relative,
			}
		}
	}

	s := &syntax.ImportFromStmt{Position: pos(n), Module: module, Relative: relative}
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.FieldNameForChild(i) != "name" {
			continue
		}
		child := n.Child(i)
		switch child.Type() {
		case "dotted_name":
			s.Names = append(s.Names, syntax.ImportName{Module: l.text(child)})
		case "aliased_import":
			s.Names = append(s.Names, syntax.ImportName{
				Module: l.text(child.ChildByFieldName("name")),
				Alias:  l.text(child.ChildByFieldName("alias")),
			})
		}
	}
	return s
}
