package runtime

import (
	"cmp"
	"fmt"
)

// Number covers the builtin numeric kinds and types defined on them.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64 | ~complex64 | ~complex128
}

// Addable adds string concatenation to Number.
type Addable interface {
	Number | ~string
}

// Integer covers the kinds that support % and ^.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

func Add[T Addable](a, b T) T {
	recordOp("+")
	return a + b
}

func Sub[T Number](a, b T) T {
	recordOp("-")
	return a - b
}

func Mul[T Number](a, b T) T {
	recordOp("*")
	return a * b
}

func Div[T Number](a, b T) T {
	recordOp("/")
	var zero T
	if b == zero {
		reportDivZero()
	}
	return a / b
}

func Mod[T Integer](a, b T) T {
	recordOp("%")
	var zero T
	if b == zero {
		reportDivZero()
	}
	return a % b
}

func Neg[T Number](v T) T {
	recordOp("neg")
	return -v
}

func Complement[T Integer](v T) T {
	recordOp("^")
	return ^v
}

func Eq[T comparable](a, b T) bool {
	recordOp("==")
	return a == b
}

func Ne[T comparable](a, b T) bool {
	recordOp("!=")
	return a != b
}

func Less[T cmp.Ordered](a, b T) bool {
	recordOp("<")
	return a < b
}

func LessEq[T cmp.Ordered](a, b T) bool {
	recordOp("<=")
	return a <= b
}

func Greater[T cmp.Ordered](a, b T) bool {
	recordOp(">")
	return a > b
}

func GreaterEq[T cmp.Ordered](a, b T) bool {
	recordOp(">=")
	return a >= b
}

func reportDivZero() {
	mu.RLock()
	w := cfg.Output
	check := cfg.CheckBounds
	mu.RUnlock()
	if check && w != nil {
		fmt.Fprintf(w, "optrace: division by zero\n")
	}
}
