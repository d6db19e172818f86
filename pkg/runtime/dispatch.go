package runtime

import (
	"fmt"
	"reflect"
)

// Deferred entry points. A call site whose operand type is a type parameter
// cannot name the concrete entry point, so the rewritten code calls a
// *Dispatch variant instead. At run time the dispatch first offers the
// operation to the user's own implementation (Indexed, Adder, Comparer and
// friends), then falls back to the builtin behavior.

// Adder and the other single-method interfaces are the user-side operation
// hooks. They are asserted per operation, so a type may implement any subset.
type Adder[T any] interface{ Add(v T) T }

type Subtractor[T any] interface{ Sub(v T) T }

type Multiplier[T any] interface{ Mul(v T) T }

type Divider[T any] interface{ Div(v T) T }

// Comparer orders two values the way the standard library's cmp package does:
// negative, zero, or positive.
type Comparer[T any] interface{ Cmp(v T) int }

// IndexDispatch resolves an element access whose container type was a type
// parameter at rewrite time. S carries the instantiated container type, E the
// element type.
func IndexDispatch[S, E any](s S, i int) E {
	recordAccess("index", i)
	if v, ok := any(s).(Indexed[E]); ok {
		return v.At(i)
	}
	if sl, ok := any(s).([]E); ok {
		if i < 0 || i >= len(sl) {
			reportBounds("index", i, len(sl))
		}
		return sl[i]
	}
	rv := reflect.ValueOf(s)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.String:
		if i < 0 || i >= rv.Len() {
			reportBounds("index", i, rv.Len())
		}
		return rv.Index(i).Interface().(E)
	}
	panic(fmt.Sprintf("optrace: cannot index value of type %T", s))
}

// IndexMapDispatch resolves a map access whose map type was a type parameter.
// A missing key yields the element type's zero value, like a plain map read.
func IndexMapDispatch[M any, K comparable, V any](m M, k K) V {
	recordAccess("index-map", -1)
	if mm, ok := any(m).(map[K]V); ok {
		return mm[k]
	}
	rv := reflect.ValueOf(m)
	if rv.Kind() != reflect.Map {
		panic(fmt.Sprintf("optrace: cannot index value of type %T with a key", m))
	}
	ev := rv.MapIndex(reflect.ValueOf(k))
	if !ev.IsValid() {
		var zero V
		return zero
	}
	return ev.Interface().(V)
}

// IndexStringDispatch resolves a byte access on a string-kinded type
// parameter.
func IndexStringDispatch[S ~string](s S, i int) byte {
	return IndexString(string(s), i)
}

func AddDispatch[T any](a, b T) T {
	recordOp("+")
	if x, ok := any(a).(Adder[T]); ok {
		return x.Add(b)
	}
	return arithFallback('+', a, b)
}

func SubDispatch[T any](a, b T) T {
	recordOp("-")
	if x, ok := any(a).(Subtractor[T]); ok {
		return x.Sub(b)
	}
	return arithFallback('-', a, b)
}

func MulDispatch[T any](a, b T) T {
	recordOp("*")
	if x, ok := any(a).(Multiplier[T]); ok {
		return x.Mul(b)
	}
	return arithFallback('*', a, b)
}

func DivDispatch[T any](a, b T) T {
	recordOp("/")
	if x, ok := any(a).(Divider[T]); ok {
		return x.Div(b)
	}
	if reflect.ValueOf(b).IsZero() {
		reportDivZero()
	}
	return arithFallback('/', a, b)
}

func ModDispatch[T any](a, b T) T {
	recordOp("%")
	if reflect.ValueOf(b).IsZero() {
		reportDivZero()
	}
	return arithFallback('%', a, b)
}

func EqDispatch[T any](a, b T) bool {
	recordOp("==")
	if c, ok := any(a).(Comparer[T]); ok {
		return c.Cmp(b) == 0
	}
	return any(a) == any(b)
}

func NeDispatch[T any](a, b T) bool {
	recordOp("!=")
	if c, ok := any(a).(Comparer[T]); ok {
		return c.Cmp(b) != 0
	}
	return any(a) != any(b)
}

func LessDispatch[T any](a, b T) bool {
	recordOp("<")
	if c, ok := any(a).(Comparer[T]); ok {
		return c.Cmp(b) < 0
	}
	return compareFallback(a, b) < 0
}

func LessEqDispatch[T any](a, b T) bool {
	recordOp("<=")
	if c, ok := any(a).(Comparer[T]); ok {
		return c.Cmp(b) <= 0
	}
	return compareFallback(a, b) <= 0
}

func GreaterDispatch[T any](a, b T) bool {
	recordOp(">")
	if c, ok := any(a).(Comparer[T]); ok {
		return c.Cmp(b) > 0
	}
	return compareFallback(a, b) > 0
}

func GreaterEqDispatch[T any](a, b T) bool {
	recordOp(">=")
	if c, ok := any(a).(Comparer[T]); ok {
		return c.Cmp(b) >= 0
	}
	return compareFallback(a, b) >= 0
}

func NegDispatch[T any](v T) T {
	recordOp("neg")
	return unaryFallback('-', v)
}

func ComplementDispatch[T any](v T) T {
	recordOp("^")
	return unaryFallback('^', v)
}

func IncDispatch[T any](p *T) T {
	recordOp("++")
	*p = stepFallback(*p, 1)
	return *p
}

func DecDispatch[T any](p *T) T {
	recordOp("--")
	*p = stepFallback(*p, -1)
	return *p
}

func AddAssignDispatch[T any](p *T, v T) T {
	recordOp("+=")
	if x, ok := any(*p).(Adder[T]); ok {
		*p = x.Add(v)
		return *p
	}
	*p = arithFallback('+', *p, v)
	return *p
}

func SubAssignDispatch[T any](p *T, v T) T {
	recordOp("-=")
	if x, ok := any(*p).(Subtractor[T]); ok {
		*p = x.Sub(v)
		return *p
	}
	*p = arithFallback('-', *p, v)
	return *p
}

func MulAssignDispatch[T any](p *T, v T) T {
	recordOp("*=")
	if x, ok := any(*p).(Multiplier[T]); ok {
		*p = x.Mul(v)
		return *p
	}
	*p = arithFallback('*', *p, v)
	return *p
}

func DivAssignDispatch[T any](p *T, v T) T {
	recordOp("/=")
	if x, ok := any(*p).(Divider[T]); ok {
		*p = x.Div(v)
		return *p
	}
	if reflect.ValueOf(v).IsZero() {
		reportDivZero()
	}
	*p = arithFallback('/', *p, v)
	return *p
}

func ModAssignDispatch[T any](p *T, v T) T {
	recordOp("%=")
	if reflect.ValueOf(v).IsZero() {
		reportDivZero()
	}
	*p = arithFallback('%', *p, v)
	return *p
}

// arithFallback computes a builtin binary operation through reflection. It is
// only reached when the operand type declared no matching method, so anything
// non-numeric (and non-string for +) is a rewrite-side bug worth panicking on.
func arithFallback[T any](op byte, a, b T) T {
	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	out := reflect.New(av.Type()).Elem()
	switch av.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		x, y := av.Int(), bv.Int()
		var r int64
		switch op {
		case '+':
			r = x + y
		case '-':
			r = x - y
		case '*':
			r = x * y
		case '/':
			r = x / y
		case '%':
			r = x % y
		}
		out.SetInt(r)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		x, y := av.Uint(), bv.Uint()
		var r uint64
		switch op {
		case '+':
			r = x + y
		case '-':
			r = x - y
		case '*':
			r = x * y
		case '/':
			r = x / y
		case '%':
			r = x % y
		}
		out.SetUint(r)
	case reflect.Float32, reflect.Float64:
		x, y := av.Float(), bv.Float()
		var r float64
		switch op {
		case '+':
			r = x + y
		case '-':
			r = x - y
		case '*':
			r = x * y
		case '/':
			r = x / y
		default:
			panic(fmt.Sprintf("optrace: operator %c not defined on %T", op, a))
		}
		out.SetFloat(r)
	case reflect.Complex64, reflect.Complex128:
		x, y := av.Complex(), bv.Complex()
		var r complex128
		switch op {
		case '+':
			r = x + y
		case '-':
			r = x - y
		case '*':
			r = x * y
		case '/':
			r = x / y
		default:
			panic(fmt.Sprintf("optrace: operator %c not defined on %T", op, a))
		}
		out.SetComplex(r)
	case reflect.String:
		if op != '+' {
			panic(fmt.Sprintf("optrace: operator %c not defined on %T", op, a))
		}
		out.SetString(av.String() + bv.String())
	default:
		panic(fmt.Sprintf("optrace: operator %c not defined on %T", op, a))
	}
	return out.Interface().(T)
}

func unaryFallback[T any](op byte, v T) T {
	rv := reflect.ValueOf(v)
	out := reflect.New(rv.Type()).Elem()
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if op == '^' {
			out.SetInt(^rv.Int())
		} else {
			out.SetInt(-rv.Int())
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if op == '^' {
			out.SetUint(^rv.Uint())
		} else {
			out.SetUint(-rv.Uint())
		}
	case reflect.Float32, reflect.Float64:
		if op == '^' {
			panic(fmt.Sprintf("optrace: operator ^ not defined on %T", v))
		}
		out.SetFloat(-rv.Float())
	case reflect.Complex64, reflect.Complex128:
		if op == '^' {
			panic(fmt.Sprintf("optrace: operator ^ not defined on %T", v))
		}
		out.SetComplex(-rv.Complex())
	default:
		panic(fmt.Sprintf("optrace: operator %c not defined on %T", op, v))
	}
	return out.Interface().(T)
}

func stepFallback[T any](v T, delta int64) T {
	rv := reflect.ValueOf(v)
	out := reflect.New(rv.Type()).Elem()
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		out.SetInt(rv.Int() + delta)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		out.SetUint(rv.Uint() + uint64(delta))
	case reflect.Float32, reflect.Float64:
		out.SetFloat(rv.Float() + float64(delta))
	case reflect.Complex64, reflect.Complex128:
		out.SetComplex(rv.Complex() + complex(float64(delta), 0))
	default:
		panic(fmt.Sprintf("optrace: ++/-- not defined on %T", v))
	}
	return out.Interface().(T)
}

func compareFallback[T any](a, b T) int {
	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	switch av.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmpOrdered(av.Int(), bv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return cmpOrdered(av.Uint(), bv.Uint())
	case reflect.Float32, reflect.Float64:
		return cmpOrdered(av.Float(), bv.Float())
	case reflect.String:
		return cmpOrdered(av.String(), bv.String())
	}
	panic(fmt.Sprintf("optrace: values of type %T are not ordered", a))
}

func cmpOrdered[T int64 | uint64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
