package classify

import (
	"go/ast"
	"go/token"
	"go/types"
)

// Reason explains why the context filter rejected a candidate.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonAddressOf
	ReasonUnevaluated
	ReasonStoreTarget
	ReasonSystemOrigin
	ReasonUserOverload
	ReasonUnsupportedType
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonAddressOf:
		return "operand of address-of"
	case ReasonUnevaluated:
		return "operand of unevaluated construct"
	case ReasonStoreTarget:
		return "store target"
	case ReasonSystemOrigin:
		return "system origin"
	case ReasonUserOverload:
		return "user operator overload"
	case ReasonUnsupportedType:
		return "unsupported operand type"
	default:
		return "unknown"
	}
}

// Filter rejects candidates in syntactic positions where instrumentation
// would change meaning. It examines only the nearest containing construct,
// a deliberate cheap check bounded at O(1) per node.
type Filter struct {
	info *types.Info

	// SkipSystemOrigin drops candidates attributed to system/library origin.
	SkipSystemOrigin bool

	// InSystemOrigin marks the whole file as system origin.
	InSystemOrigin bool
}

func NewFilter(info *types.Info) *Filter {
	return &Filter{info: info}
}

// Check returns (ReasonNone, true) when the candidate may be transformed, or
// the rejection reason and false otherwise. parent is the immediate parent of
// the candidate node in the host tree.
func (f *Filter) Check(c *Candidate, parent ast.Node) (Reason, bool) {
	if f.SkipSystemOrigin && (f.InSystemOrigin || c.SystemOrigin) {
		return ReasonSystemOrigin, false
	}
	if c.Kind == KindOverloadedOperatorCall {
		// Already user-controlled; wrapping it would instrument the user's
		// own operator implementation.
		return ReasonUserOverload, false
	}

	expr, isExpr := c.Node.(ast.Expr)
	if isExpr {
		switch p := parent.(type) {
		case *ast.UnaryExpr:
			if p.Op == token.AND && p.X == expr {
				return ReasonAddressOf, false
			}
		case *ast.CallExpr:
			if f.isUnevaluatedCall(p) {
				for _, arg := range p.Args {
					if arg == expr {
						return ReasonUnevaluated, false
					}
				}
			}
		case *ast.AssignStmt:
			for _, lhs := range p.Lhs {
				if lhs == expr {
					return ReasonStoreTarget, false
				}
			}
		case *ast.IncDecStmt:
			if p.X == expr {
				return ReasonStoreTarget, false
			}
		case *ast.RangeStmt:
			if p.Key == expr || p.Value == expr {
				return ReasonStoreTarget, false
			}
		}
	}
	return ReasonNone, true
}

// isUnevaluatedCall reports whether call is unsafe.Sizeof, unsafe.Alignof, or
// unsafe.Offsetof. Their operands are never evaluated; wrapping one in an
// instrumentation call would turn it into an evaluated expression.
func (f *Filter) isUnevaluatedCall(call *ast.CallExpr) bool {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	switch sel.Sel.Name {
	case "Sizeof", "Alignof", "Offsetof":
	default:
		return false
	}
	pkg, ok := sel.X.(*ast.Ident)
	if !ok {
		return false
	}
	if obj, ok := f.info.Uses[pkg]; ok {
		pkgName, isPkg := obj.(*types.PkgName)
		return isPkg && pkgName.Imported().Path() == "unsafe"
	}
	return pkg.Name == "unsafe"
}
