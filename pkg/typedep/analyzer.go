// Package typedep classifies operand types as fully resolved (Concrete) or
// dependent on a not-yet-substituted type parameter (Deferred), and exposes
// the type predicates the pipeline uses for safety gating and generation
// strategy selection.
package typedep

import (
	"go/types"
)

// Dependency is the resolution classification of a candidate's operand types.
type Dependency uint8

const (
	// Concrete: all operand types are fully resolved at transformation time.
	Concrete Dependency = iota
	// Deferred: at least one operand type mentions an unresolved type
	// parameter; it resolves only when the enclosing generic code is
	// instantiated.
	Deferred
)

func (d Dependency) String() string {
	if d == Deferred {
		return "deferred"
	}
	return "concrete"
}

// Analyzer wraps the checker's type information.
type Analyzer struct {
	info *types.Info
}

func New(info *types.Info) *Analyzer {
	return &Analyzer{info: info}
}

// Classify returns Deferred if any of the given operand types mentions a type
// parameter anywhere in its structure, Concrete otherwise.
func (a *Analyzer) Classify(ts ...types.Type) Dependency {
	for _, t := range ts {
		if ContainsTypeParam(t) {
			return Deferred
		}
	}
	return Concrete
}

// ContainsTypeParam walks a type's structure looking for a *types.TypeParam.
func ContainsTypeParam(t types.Type) bool {
	return containsTypeParam(t, make(map[types.Type]bool))
}

func containsTypeParam(t types.Type, seen map[types.Type]bool) bool {
	if t == nil || seen[t] {
		return false
	}
	seen[t] = true

	switch u := t.(type) {
	case *types.TypeParam:
		return true
	case *types.Pointer:
		return containsTypeParam(u.Elem(), seen)
	case *types.Slice:
		return containsTypeParam(u.Elem(), seen)
	case *types.Array:
		return containsTypeParam(u.Elem(), seen)
	case *types.Chan:
		return containsTypeParam(u.Elem(), seen)
	case *types.Map:
		return containsTypeParam(u.Key(), seen) || containsTypeParam(u.Elem(), seen)
	case *types.Named:
		if args := u.TypeArgs(); args != nil {
			for i := 0; i < args.Len(); i++ {
				if containsTypeParam(args.At(i), seen) {
					return true
				}
			}
		}
		return false
	case *types.Signature:
		return containsTypeParam(u.Params(), seen) || containsTypeParam(u.Results(), seen)
	case *types.Tuple:
		for i := 0; i < u.Len(); i++ {
			if containsTypeParam(u.At(i).Type(), seen) {
				return true
			}
		}
		return false
	case *types.Struct:
		for i := 0; i < u.NumFields(); i++ {
			if containsTypeParam(u.Field(i).Type(), seen) {
				return true
			}
		}
		return false
	}
	return false
}

// CoreType returns the single underlying type shared by every term of t's
// type set, the representation an operation on a type parameter actually
// executes against once instantiated. It returns nil when the type set is
// empty (a method-only constraint) or when the terms disagree.
func CoreType(t types.Type) types.Type {
	tp, ok := t.(*types.TypeParam)
	if !ok {
		return t.Underlying()
	}
	iface, ok := tp.Constraint().Underlying().(*types.Interface)
	if !ok {
		return nil
	}
	var core types.Type
	for _, term := range constraintTerms(iface) {
		u := term.Underlying()
		if core == nil {
			core = u
			continue
		}
		if !types.Identical(core, u) {
			return nil
		}
	}
	return core
}

// constraintTerms flattens a constraint interface's embedded elements into
// the types of its type-set terms. Embedded interfaces are expanded; method
// elements contribute no terms.
func constraintTerms(iface *types.Interface) []types.Type {
	var out []types.Type
	for i := 0; i < iface.NumEmbeddeds(); i++ {
		switch e := iface.EmbeddedType(i).(type) {
		case *types.Union:
			for j := 0; j < e.Len(); j++ {
				out = append(out, e.Term(j).Type())
			}
		case *types.Interface:
			out = append(out, constraintTerms(e)...)
		default:
			if sub, ok := e.Underlying().(*types.Interface); ok {
				out = append(out, constraintTerms(sub)...)
				continue
			}
			out = append(out, e)
		}
	}
	return out
}

// IsPointerLike reports pointer, unsafe.Pointer, or uintptr operands.
func (a *Analyzer) IsPointerLike(t types.Type) bool {
	switch u := t.Underlying().(type) {
	case *types.Pointer:
		return true
	case *types.Basic:
		return u.Kind() == types.UnsafePointer || u.Kind() == types.Uintptr
	}
	return false
}

// IsArithmetic reports numeric operands.
func (a *Analyzer) IsArithmetic(t types.Type) bool {
	b, ok := t.Underlying().(*types.Basic)
	return ok && b.Info()&types.IsNumeric != 0
}

// IsConstExpr reports whether the checker folded the expression to a
// constant. A call expression is never constant in Go, so instrumenting a
// constant operand would break constant contexts (array lengths, const
// declarations).
func (a *Analyzer) IsConstExpr(tv types.TypeAndValue) bool {
	return tv.Value != nil
}

// IsAtomicLike reports types from sync/atomic. Accesses through them are
// side-effect-sensitive the way volatile accesses are; a wrapper call could
// duplicate or reorder those effects, so they are never instrumented.
func (a *Analyzer) IsAtomicLike(t types.Type) bool {
	named, ok := t.(*types.Named)
	if !ok {
		if ptr, isPtr := t.Underlying().(*types.Pointer); isPtr {
			return a.IsAtomicLike(ptr.Elem())
		}
		return false
	}
	pkg := named.Obj().Pkg()
	return pkg != nil && pkg.Path() == "sync/atomic"
}

// IsIncomplete reports missing or invalid types (type-check failure on the
// operand). Incomplete operands are never instrumented.
func (a *Analyzer) IsIncomplete(t types.Type) bool {
	if t == nil {
		return true
	}
	b, ok := t.Underlying().(*types.Basic)
	return ok && b.Kind() == types.Invalid
}

// IsUnsafe reports unsafe.Pointer operands; rewriting one would interfere
// with the unsafe pointer conversion rules.
func (a *Analyzer) IsUnsafe(t types.Type) bool {
	b, ok := t.Underlying().(*types.Basic)
	return ok && b.Kind() == types.UnsafePointer
}

// StrictlyComparable reports types the comparison entry points can serve:
// basic comparable types and pointers. Interface operands satisfy Go's ==
// but not the comparable constraint, so they are excluded.
func (a *Analyzer) StrictlyComparable(t types.Type) bool {
	if ContainsTypeParam(t) {
		return true // resolved at instantiation by the dispatch entry point
	}
	switch u := t.Underlying().(type) {
	case *types.Basic:
		return u.Kind() != types.Invalid && u.Kind() != types.UntypedNil
	case *types.Pointer, *types.Chan:
		return true
	}
	return false
}

// HasIndexOverload reports whether t (or *t) defines the user index method.
func (a *Analyzer) HasIndexOverload(t types.Type) bool {
	return hasMethod(t, "At")
}

// HasArithmeticOverload reports whether t defines any user arithmetic method.
func (a *Analyzer) HasArithmeticOverload(t types.Type) bool {
	for _, m := range []string{"Add", "Sub", "Mul", "Div"} {
		if hasMethod(t, m) {
			return true
		}
	}
	return false
}

func hasMethod(t types.Type, name string) bool {
	if t == nil {
		return false
	}
	obj, _, _ := types.LookupFieldOrMethod(t, true, nil, name)
	fn, ok := obj.(*types.Func)
	return ok && fn != nil
}
