package classify

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"

	"optrace/pkg/rewrite"
)

// Classifier structurally matches single tree nodes to operator categories.
// Matching consults type information only to tell Go syntax apart (an index
// expression vs. a generic instantiation); it never looks at surrounding
// context. Classification is deterministic and has no side effects.
type Classifier struct {
	fset *token.FileSet
	info *types.Info
}

func New(fset *token.FileSet, info *types.Info) *Classifier {
	return &Classifier{fset: fset, info: info}
}

var arithmeticOps = map[token.Token]bool{
	token.ADD: true,
	token.SUB: true,
	token.MUL: true,
	token.QUO: true,
	token.REM: true,
}

var comparisonOps = map[token.Token]bool{
	token.EQL: true,
	token.NEQ: true,
	token.LSS: true,
	token.GTR: true,
	token.LEQ: true,
	token.GEQ: true,
}

var assignOps = map[token.Token]bool{
	token.ADD_ASSIGN: true,
	token.SUB_ASSIGN: true,
	token.MUL_ASSIGN: true,
	token.QUO_ASSIGN: true,
	token.REM_ASSIGN: true,
}

var unaryArithOps = map[token.Token]bool{
	token.SUB: true,
	token.XOR: true,
}

// Classify matches one node against the recognized operator shapes. It
// returns the candidate and true, or nil and false for "not a candidate".
func (c *Classifier) Classify(node ast.Node) (*Candidate, bool) {
	switch n := node.(type) {
	case *ast.IndexExpr:
		return c.classifyIndex(n)
	case *ast.BinaryExpr:
		return c.classifyBinary(n)
	case *ast.AssignStmt:
		return c.classifyAssign(n)
	case *ast.UnaryExpr:
		return c.classifyUnary(n)
	case *ast.IncDecStmt:
		return c.classifyIncDec(n)
	case *ast.CallExpr:
		return c.classifyCall(n)
	}
	return nil, false
}

func (c *Classifier) classifyIndex(e *ast.IndexExpr) (*Candidate, bool) {
	tv, ok := c.info.Types[e]
	if !ok || tv.IsType() {
		// Type instantiation G[T], not an index access.
		return nil, false
	}
	xt, ok := c.info.Types[e.X]
	if !ok || xt.Type == nil {
		return nil, false
	}
	if _, isSig := xt.Type.Underlying().(*types.Signature); isSig {
		// Generic function instantiation f[T].
		return nil, false
	}
	if !indexableType(xt.Type) {
		return nil, false
	}
	span, operands, ok := c.spans(e, e.X, e.Index)
	if !ok {
		return nil, false
	}
	return c.finish(newCandidate(e, KindIndexAccess, token.LBRACK, span, operands...)), true
}

// indexableType reports whether t is a container the index entry points can
// serve: slice, array, pointer-to-array, map, string, or a type parameter
// (resolved only at instantiation).
func indexableType(t types.Type) bool {
	if _, ok := t.(*types.TypeParam); ok {
		return true
	}
	switch u := t.Underlying().(type) {
	case *types.Slice, *types.Map:
		return true
	case *types.Array:
		return true
	case *types.Pointer:
		_, ok := u.Elem().Underlying().(*types.Array)
		return ok
	case *types.Basic:
		return u.Info()&types.IsString != 0
	case *types.Interface:
		// Constraint interface of an uninstantiated type parameter.
		return !u.IsMethodSet()
	}
	return false
}

func (c *Classifier) classifyBinary(e *ast.BinaryExpr) (*Candidate, bool) {
	var kind Kind
	switch {
	case arithmeticOps[e.Op]:
		kind = KindArithmeticBinary
	case comparisonOps[e.Op]:
		kind = KindComparisonBinary
	default:
		return nil, false
	}
	span, operands, ok := c.spans(e, e.X, e.Y)
	if !ok {
		return nil, false
	}
	return c.finish(newCandidate(e, kind, e.Op, span, operands...)), true
}

func (c *Classifier) classifyAssign(s *ast.AssignStmt) (*Candidate, bool) {
	if !assignOps[s.Tok] || len(s.Lhs) != 1 || len(s.Rhs) != 1 {
		return nil, false
	}
	span, operands, ok := c.spans(s, s.Lhs[0], s.Rhs[0])
	if !ok {
		return nil, false
	}
	return c.finish(newCandidate(s, KindAssignmentBinary, s.Tok, span, operands...)), true
}

func (c *Classifier) classifyUnary(e *ast.UnaryExpr) (*Candidate, bool) {
	if !unaryArithOps[e.Op] {
		return nil, false
	}
	span, operands, ok := c.spans(e, e.X)
	if !ok {
		return nil, false
	}
	return c.finish(newCandidate(e, KindUnaryArithmetic, e.Op, span, operands...)), true
}

func (c *Classifier) classifyIncDec(s *ast.IncDecStmt) (*Candidate, bool) {
	span, operands, ok := c.spans(s, s.X)
	if !ok {
		return nil, false
	}
	return c.finish(newCandidate(s, KindUnaryArithmetic, s.Tok, span, operands...)), true
}

func (c *Classifier) classifyCall(e *ast.CallExpr) (*Candidate, bool) {
	sel, ok := e.Fun.(*ast.SelectorExpr)
	if !ok {
		return nil, false
	}
	if _, ok := CategoryOf(sel.Sel.Name); !ok {
		return nil, false
	}
	selection, ok := c.info.Selections[sel]
	if !ok || selection.Kind() != types.MethodVal {
		return nil, false
	}
	nodes := append([]ast.Expr{sel.X}, e.Args...)
	span, operands, ok := c.spans(e, nodes...)
	if !ok {
		return nil, false
	}
	cand := newCandidate(e, KindOverloadedOperatorCall, token.PERIOD, span, operands...)
	cand.Method = sel.Sel.Name
	cand.Overloaded = true
	return c.finish(cand), true
}

// spans computes the byte span of the whole node and of each operand.
func (c *Classifier) spans(node ast.Node, operands ...ast.Expr) (rewrite.Span, []rewrite.Span, bool) {
	span, err := c.spanOf(node)
	if err != nil {
		return rewrite.Span{}, nil, false
	}
	out := make([]rewrite.Span, 0, len(operands))
	for _, op := range operands {
		s, err := c.spanOf(op)
		if err != nil {
			return rewrite.Span{}, nil, false
		}
		out = append(out, s)
	}
	return span, out, true
}

func (c *Classifier) spanOf(node ast.Node) (rewrite.Span, error) {
	if !node.Pos().IsValid() || !node.End().IsValid() {
		return rewrite.Span{}, fmt.Errorf("node has invalid position")
	}
	start := c.fset.Position(node.Pos()).Offset
	end := c.fset.Position(node.End()).Offset
	return rewrite.NewSpan(start, end)
}

// finish assigns the deterministic candidate ID. Classification must be a
// pure function, so the ID derives from the match itself, not from a counter.
func (c *Classifier) finish(cand *Candidate) *Candidate {
	cand.ID = fmt.Sprintf("%s-%d-%d", cand.Kind, cand.Span.Start, cand.Span.End)
	return cand
}
