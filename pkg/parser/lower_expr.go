package parser

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/pyreach/pyreach/pkg/syntax"
)

func (l *lowerer) expr(n *sitter.Node) syntax.Expr {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "identifier":
		return &syntax.NameExpr{Position: pos(n), Name: l.text(n)}

	case "true":
		return &syntax.NameExpr{Position: pos(n), Name: "True"}

	case "false":
		return &syntax.NameExpr{Position: pos(n), Name: "False"}

	case "none":
		return &syntax.NameExpr{Position: pos(n), Name: "None"}

	case "attribute":
		return &syntax.MemberExpr{
			Position: pos(n),
			X:        l.expr(n.ChildByFieldName("object")),
			Name:     l.text(n.ChildByFieldName("attribute")),
		}

	case "call":
		e := &syntax.CallExpr{
			Position: pos(n),
			Fn:       l.expr(n.ChildByFieldName("function")),
		}
		if args := n.ChildByFieldName("arguments"); args != nil {
			for i := 0; i < int(args.NamedChildCount()); i++ {
				arg := args.NamedChild(i)
				if arg.Type() == "comment" {
					continue
				}
				e.Args = append(e.Args, l.expr(arg))
			}
		}
		return e

	case "comparison_operator":
		return l.comparison(n)

	case "boolean_operator":
		return &syntax.BoolOpExpr{
			Position: pos(n),
			Op:       l.text(n.ChildByFieldName("operator")),
			Left:     l.expr(n.ChildByFieldName("left")),
			Right:    l.expr(n.ChildByFieldName("right")),
		}

	case "not_operator":
		return &syntax.NotExpr{
			Position: pos(n),
			X:        l.expr(n.ChildByFieldName("argument")),
		}

	case "parenthesized_expression":
		if inner := n.NamedChild(0); inner != nil {
			return l.expr(inner)
		}
		return &syntax.OpaqueExpr{Position: pos(n), Kind: n.Type()}

	case "subscript":
		return &syntax.IndexExpr{
			Position: pos(n),
			X:        l.expr(n.ChildByFieldName("value")),
			Index:    l.expr(n.ChildByFieldName("subscript")),
		}

	case "slice":
		return l.slice(n)

	case "tuple":
		e := &syntax.TupleExpr{Position: pos(n)}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if n.NamedChild(i).Type() == "comment" {
				continue
			}
			e.Items = append(e.Items, l.expr(n.NamedChild(i)))
		}
		return e

	case "integer":
		value, err := strconv.ParseInt(strings.ReplaceAll(l.text(n), "_", ""), 0, 64)
		if err != nil {
			return &syntax.OpaqueExpr{Position: pos(n), Kind: n.Type()}
		}
		return &syntax.IntLit{Position: pos(n), Value: int(value)}

	case "string":
		return &syntax.StrLit{Position: pos(n), Value: unquote(l.text(n))}

	default:
		return &syntax.OpaqueExpr{Position: pos(n), Kind: n.Type()}
	}
}

// comparison lowers a comparison chain; operands are the named children
// and operators are the children carrying the "operators" field.
func (l *lowerer) comparison(n *sitter.Node) syntax.Expr {
	e := &syntax.CmpExpr{Position: pos(n)}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if n.FieldNameForChild(i) == "operators" {
			e.Ops = append(e.Ops, l.text(child))
			continue
		}
		if child.IsNamed() && child.Type() != "comment" {
			e.Operands = append(e.Operands, l.expr(child))
		}
	}
	return e
}

// slice lowers the bound pair of a subscript slice. Children before the
// first ":" token form the lower bound; the next expression is the upper
// bound. A step expression is ignored.
func (l *lowerer) slice(n *sitter.Node) syntax.Expr {
	e := &syntax.SliceExpr{Position: pos(n)}
	colons := 0
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if !child.IsNamed() {
			if child.Type() == ":" {
				colons++
			}
			continue
		}
		switch colons {
		case 0:
			e.Low = l.expr(child)
		case 1:
			e.High = l.expr(child)
		}
	}
	return e
}

// unquote strips string prefixes (r, b, u, f in any case) and the
// surrounding quotes. Escape sequences are left as written; the guard
// sublanguage only compares plain platform names.
func unquote(s string) string {
	s = strings.TrimLeft(s, "rbufRBUF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(s) >= 2*len(q) && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}
