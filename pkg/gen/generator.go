// Package gen emits the replacement source text for a candidate expression.
// Operand text is passed in verbatim (sliced from the original buffer, never
// re-printed from the tree), so arbitrarily complex sub-expressions round-trip
// unmodified. Each operand appears exactly once in the emitted text, in the
// original evaluation order.
package gen

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"

	"optrace/pkg/classify"
	"optrace/pkg/typedep"
)

// Generator builds replacement expressions that call into the instrumentation
// runtime under a mangled package alias.
type Generator struct {
	alias string
	pkg   *types.Package
	info  *types.Info
}

func New(alias string, pkg *types.Package, info *types.Info) *Generator {
	return &Generator{alias: alias, pkg: pkg, info: info}
}

// MangleAlias creates a deterministic alias for the runtime import path, so
// the injected import can never collide with a user identifier.
func MangleAlias(importPath string) string {
	hash := sha256.Sum256([]byte(importPath))
	return "__optrace_" + hex.EncodeToString(hash[:8])
}

var binaryFuncs = map[token.Token]string{
	token.ADD: "Add",
	token.SUB: "Sub",
	token.MUL: "Mul",
	token.QUO: "Div",
	token.REM: "Mod",
	token.EQL: "Eq",
	token.NEQ: "Ne",
	token.LSS: "Less",
	token.GTR: "Greater",
	token.LEQ: "LessEq",
	token.GEQ: "GreaterEq",
}

var assignFuncs = map[token.Token]string{
	token.ADD_ASSIGN: "AddAssign",
	token.SUB_ASSIGN: "SubAssign",
	token.MUL_ASSIGN: "MulAssign",
	token.QUO_ASSIGN: "DivAssign",
	token.REM_ASSIGN: "ModAssign",
}

var unaryFuncs = map[token.Token]string{
	token.SUB: "Neg",
	token.XOR: "Complement",
	token.INC: "Inc",
	token.DEC: "Dec",
}

// Replacement returns a single syntactically self-contained expression that
// performs the candidate's operation through a runtime entry point. Concrete
// candidates get the operation-specific entry point parameterized by resolved
// type names; deferred candidates get the dispatch entry point parameterized
// by the unresolved type expression itself. On any failure no partial text is
// returned.
func (g *Generator) Replacement(c *classify.Candidate, dep typedep.Dependency, operands []string) (string, error) {
	if len(operands) != len(c.OperandSpans) {
		return "", fmt.Errorf("candidate %s: got %d operand texts, want %d", c.ID, len(operands), len(c.OperandSpans))
	}
	switch c.Kind {
	case classify.KindIndexAccess:
		return g.index(c, dep, operands)
	case classify.KindArithmeticBinary, classify.KindComparisonBinary:
		return g.binary(c, dep, operands)
	case classify.KindAssignmentBinary:
		return g.assign(c, dep, operands)
	case classify.KindUnaryArithmetic:
		return g.unary(c, dep, operands)
	default:
		return "", fmt.Errorf("candidate %s: kind %s has no generation strategy", c.ID, c.Kind)
	}
}

func (g *Generator) index(c *classify.Candidate, dep typedep.Dependency, operands []string) (string, error) {
	e, ok := c.Node.(*ast.IndexExpr)
	if !ok {
		return "", fmt.Errorf("candidate %s: node is not an index expression", c.ID)
	}
	xt := g.typeOf(e.X)
	if xt == nil {
		return "", fmt.Errorf("candidate %s: no type for indexed operand", c.ID)
	}

	if dep == typedep.Deferred {
		return g.indexDeferred(c, xt, operands)
	}

	switch u := xt.Underlying().(type) {
	case *types.Slice:
		return fmt.Sprintf("%s.Index[%s](%s, %s)", g.alias, g.typeString(u.Elem()), operands[0], operands[1]), nil
	case *types.Map:
		return fmt.Sprintf("%s.IndexMap[%s, %s](%s, %s)",
			g.alias, g.typeString(u.Key()), g.typeString(u.Elem()), operands[0], operands[1]), nil
	case *types.Basic:
		if u.Info()&types.IsString != 0 {
			return fmt.Sprintf("%s.IndexString(%s, %s)", g.alias, operands[0], operands[1]), nil
		}
	case *types.Array:
		if !g.addressable(e.X) {
			return "", fmt.Errorf("candidate %s: array operand is not addressable", c.ID)
		}
		return fmt.Sprintf("%s.Index[%s]((%s)[:], %s)", g.alias, g.typeString(u.Elem()), operands[0], operands[1]), nil
	case *types.Pointer:
		if arr, isArr := u.Elem().Underlying().(*types.Array); isArr {
			return fmt.Sprintf("%s.Index[%s]((%s)[:], %s)", g.alias, g.typeString(arr.Elem()), operands[0], operands[1]), nil
		}
	}
	return "", fmt.Errorf("candidate %s: type %s is not indexable", c.ID, xt)
}

// indexDeferred emits the dispatch entry point for an operand whose type
// depends on a type parameter. At instantiation the dispatch resolves either
// to the user's own At implementation or to the builtin element access.
func (g *Generator) indexDeferred(c *classify.Candidate, xt types.Type, operands []string) (string, error) {
	core := typedep.CoreType(xt)
	if core == nil {
		return "", fmt.Errorf("candidate %s: deferred operand type %s has no core type", c.ID, xt)
	}
	switch u := core.(type) {
	case *types.Slice:
		return fmt.Sprintf("%s.IndexDispatch[%s, %s](%s, %s)",
			g.alias, g.typeString(xt), g.typeString(u.Elem()), operands[0], operands[1]), nil
	case *types.Map:
		return fmt.Sprintf("%s.IndexMapDispatch[%s, %s, %s](%s, %s)",
			g.alias, g.typeString(xt), g.typeString(u.Key()), g.typeString(u.Elem()), operands[0], operands[1]), nil
	case *types.Basic:
		if u.Info()&types.IsString != 0 {
			return fmt.Sprintf("%s.IndexStringDispatch[%s](%s, %s)",
				g.alias, g.typeString(xt), operands[0], operands[1]), nil
		}
	case *types.Array:
		return fmt.Sprintf("%s.IndexDispatch[%s, %s](%s, %s)",
			g.alias, g.typeString(xt), g.typeString(u.Elem()), operands[0], operands[1]), nil
	case *types.Pointer:
		if arr, isArr := u.Elem().Underlying().(*types.Array); isArr {
			return fmt.Sprintf("%s.IndexDispatch[%s, %s](%s, %s)",
				g.alias, g.typeString(xt), g.typeString(arr.Elem()), operands[0], operands[1]), nil
		}
	}
	return "", fmt.Errorf("candidate %s: deferred core type %s is not indexable", c.ID, core)
}

func (g *Generator) binary(c *classify.Candidate, dep typedep.Dependency, operands []string) (string, error) {
	e, ok := c.Node.(*ast.BinaryExpr)
	if !ok {
		return "", fmt.Errorf("candidate %s: node is not a binary expression", c.ID)
	}
	name, ok := binaryFuncs[e.Op]
	if !ok {
		return "", fmt.Errorf("candidate %s: operator %s has no entry point", c.ID, e.Op)
	}

	var t types.Type
	if c.Kind == classify.KindComparisonBinary {
		t = g.operandType(e.X, e.Y)
	} else {
		t = g.typeOf(e)
	}
	if t == nil {
		return "", fmt.Errorf("candidate %s: no resolved operand type", c.ID)
	}
	if dep == typedep.Deferred {
		name += "Dispatch"
	}
	return fmt.Sprintf("%s.%s[%s](%s, %s)", g.alias, name, g.typeString(t), operands[0], operands[1]), nil
}

func (g *Generator) assign(c *classify.Candidate, dep typedep.Dependency, operands []string) (string, error) {
	s, ok := c.Node.(*ast.AssignStmt)
	if !ok {
		return "", fmt.Errorf("candidate %s: node is not an assignment", c.ID)
	}
	name, ok := assignFuncs[s.Tok]
	if !ok {
		return "", fmt.Errorf("candidate %s: operator %s has no entry point", c.ID, s.Tok)
	}
	lhs := s.Lhs[0]
	if !g.addressable(lhs) {
		return "", fmt.Errorf("candidate %s: assign target is not addressable", c.ID)
	}
	t := g.typeOf(lhs)
	if t == nil {
		return "", fmt.Errorf("candidate %s: no type for assign target", c.ID)
	}
	if dep == typedep.Deferred {
		name += "Dispatch"
	}
	return fmt.Sprintf("%s.%s[%s](&%s, %s)", g.alias, name, g.typeString(t), operands[0], operands[1]), nil
}

func (g *Generator) unary(c *classify.Candidate, dep typedep.Dependency, operands []string) (string, error) {
	var op token.Token
	var target ast.Expr
	pointerArg := false

	switch n := c.Node.(type) {
	case *ast.UnaryExpr:
		op, target = n.Op, n.X
	case *ast.IncDecStmt:
		op, target = n.Tok, n.X
		pointerArg = true
	default:
		return "", fmt.Errorf("candidate %s: node is not a unary operation", c.ID)
	}
	name, ok := unaryFuncs[op]
	if !ok {
		return "", fmt.Errorf("candidate %s: operator %s has no entry point", c.ID, op)
	}
	t := g.typeOf(target)
	if t == nil {
		return "", fmt.Errorf("candidate %s: no type for operand", c.ID)
	}
	if dep == typedep.Deferred {
		name += "Dispatch"
	}
	if pointerArg {
		if !g.addressable(target) {
			return "", fmt.Errorf("candidate %s: operand is not addressable", c.ID)
		}
		return fmt.Sprintf("%s.%s[%s](&%s)", g.alias, name, g.typeString(t), operands[0]), nil
	}
	return fmt.Sprintf("%s.%s[%s](%s)", g.alias, name, g.typeString(t), operands[0]), nil
}

func (g *Generator) typeOf(e ast.Expr) types.Type {
	tv, ok := g.info.Types[e]
	if !ok {
		return nil
	}
	return tv.Type
}

// operandType picks the first operand with a usable (typed, non-nil-literal)
// type; comparisons like `p == nil` take their type argument from p.
func (g *Generator) operandType(exprs ...ast.Expr) types.Type {
	for _, e := range exprs {
		t := g.typeOf(e)
		if t == nil {
			continue
		}
		if b, ok := t.Underlying().(*types.Basic); ok && b.Kind() == types.UntypedNil {
			continue
		}
		return t
	}
	return nil
}

// addressable is a conservative syntactic check: it accepts the shapes whose
// address the entry points may take, and refuses map elements and rvalues.
func (g *Generator) addressable(e ast.Expr) bool {
	switch v := e.(type) {
	case *ast.Ident:
		if v.Name == "_" {
			return false
		}
		if obj, ok := g.info.Uses[v]; ok {
			_, isVar := obj.(*types.Var)
			return isVar
		}
		return true
	case *ast.ParenExpr:
		return g.addressable(v.X)
	case *ast.StarExpr:
		return true
	case *ast.SelectorExpr:
		if t := g.typeOf(v.X); t != nil {
			if _, isPtr := t.Underlying().(*types.Pointer); isPtr {
				return true
			}
		}
		return g.addressable(v.X)
	case *ast.IndexExpr:
		t := g.typeOf(v.X)
		if t == nil {
			return false
		}
		switch u := t.Underlying().(type) {
		case *types.Slice:
			return true
		case *types.Pointer:
			_, isArr := u.Elem().Underlying().(*types.Array)
			return isArr
		case *types.Array:
			return g.addressable(v.X)
		}
		return false
	}
	return false
}

func (g *Generator) typeString(t types.Type) string {
	return types.TypeString(t, func(p *types.Package) string {
		if p == g.pkg {
			return ""
		}
		return p.Name()
	})
}
