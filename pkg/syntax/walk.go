package syntax

// Blocks returns the nested suites of s in source order. Statement kinds
// without suites return nil. Used by traversals that fall back to generic
// child descent.
func Blocks(s Stmt) []*Block {
	switch s := s.(type) {
	case *IfStmt:
		out := make([]*Block, 0, len(s.Arms)+1)
		for _, arm := range s.Arms {
			out = append(out, arm.Body)
		}
		if s.Else != nil {
			out = append(out, s.Else)
		}
		return out
	case *MatchStmt:
		out := make([]*Block, 0, len(s.Cases))
		for _, c := range s.Cases {
			out = append(out, c.Body)
		}
		return out
	case *ForStmt:
		return appendBlocks(nil, s.Body, s.Else)
	case *WhileStmt:
		return appendBlocks(nil, s.Body, s.Else)
	case *WithStmt:
		return appendBlocks(nil, s.Body)
	case *TryStmt:
		out := appendBlocks(nil, s.Body)
		out = append(out, s.Handlers...)
		return appendBlocks(out, s.Else, s.Final)
	case *FuncDef:
		return appendBlocks(nil, s.Body)
	case *ClassDef:
		return appendBlocks(nil, s.Body)
	case *OpaqueStmt:
		return s.Blocks
	default:
		return nil
	}
}

func appendBlocks(out []*Block, blocks ...*Block) []*Block {
	for _, b := range blocks {
		if b != nil {
			out = append(out, b)
		}
	}
	return out
}
