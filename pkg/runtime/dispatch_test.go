package runtime_test

import (
	"testing"

	"optrace/pkg/runtime"
)

// ring provides its own index operation.
type ring struct {
	data []int
}

func (r ring) At(i int) int {
	return r.data[i%len(r.data)]
}

// money implements the arithmetic and comparison hooks.
type money int64

func (m money) Add(v money) money { return m + v }
func (m money) Sub(v money) money { return m - v }

func (m money) Cmp(v money) int {
	switch {
	case m < v:
		return -1
	case m > v:
		return 1
	}
	return 0
}

// score has no operator methods, so every dispatch falls back to reflection.
type score int

type env map[string]int

type label string

func TestIndexDispatchUserType(t *testing.T) {
	setup(t, runtime.Config{})

	r := ring{data: []int{1, 2, 3}}
	if got := runtime.IndexDispatch[ring, int](r, 4); got != 2 {
		t.Errorf("expected the user's At to serve the access, got %d", got)
	}
}

func TestIndexDispatchSlice(t *testing.T) {
	setup(t, runtime.Config{})

	xs := []string{"a", "b"}
	if got := runtime.IndexDispatch[[]string, string](xs, 1); got != "b" {
		t.Errorf("IndexDispatch = %q", got)
	}
}

func TestIndexDispatchArrayViaReflection(t *testing.T) {
	setup(t, runtime.Config{})

	arr := [3]int{7, 8, 9}
	if got := runtime.IndexDispatch[[3]int, int](arr, 2); got != 9 {
		t.Errorf("array IndexDispatch = %d", got)
	}
	if got := runtime.IndexDispatch[*[3]int, int](&arr, 0); got != 7 {
		t.Errorf("pointer-to-array IndexDispatch = %d", got)
	}
}

func TestIndexMapDispatch(t *testing.T) {
	setup(t, runtime.Config{})

	m := map[string]int{"k": 5}
	if got := runtime.IndexMapDispatch[map[string]int, string, int](m, "k"); got != 5 {
		t.Errorf("IndexMapDispatch = %d", got)
	}

	// Named map type goes through reflection; a missing key still yields the
	// zero value like a plain map read.
	e := env{"a": 1}
	if got := runtime.IndexMapDispatch[env, string, int](e, "a"); got != 1 {
		t.Errorf("named map IndexMapDispatch = %d", got)
	}
	if got := runtime.IndexMapDispatch[env, string, int](e, "missing"); got != 0 {
		t.Errorf("missing key should yield zero, got %d", got)
	}
}

func TestIndexStringDispatch(t *testing.T) {
	setup(t, runtime.Config{})

	if got := runtime.IndexStringDispatch(label("abc"), 1); got != 'b' {
		t.Errorf("IndexStringDispatch = %c", got)
	}
}

func TestArithDispatchUserType(t *testing.T) {
	setup(t, runtime.Config{})

	if got := runtime.AddDispatch(money(2), money(3)); got != 5 {
		t.Errorf("expected the user's Add to serve +, got %d", got)
	}
	if got := runtime.SubDispatch(money(5), money(2)); got != 3 {
		t.Errorf("expected the user's Sub to serve -, got %d", got)
	}
}

func TestArithDispatchFallback(t *testing.T) {
	setup(t, runtime.Config{})

	if got := runtime.AddDispatch(score(2), score(3)); got != 5 {
		t.Errorf("fallback AddDispatch = %d", got)
	}
	if got := runtime.MulDispatch(1.5, 2.0); got != 3.0 {
		t.Errorf("fallback MulDispatch = %f", got)
	}
	if got := runtime.ModDispatch(uint(7), uint(4)); got != 3 {
		t.Errorf("fallback ModDispatch = %d", got)
	}
	if got := runtime.AddDispatch("a", "b"); got != "ab" {
		t.Errorf("fallback string AddDispatch = %q", got)
	}
}

func TestCompareDispatch(t *testing.T) {
	setup(t, runtime.Config{})

	if !runtime.EqDispatch(money(4), money(4)) {
		t.Error("expected Cmp-backed equality to hold")
	}
	if !runtime.LessDispatch(money(1), money(2)) {
		t.Error("expected Cmp-backed ordering to hold")
	}
	if runtime.GreaterDispatch(money(1), money(2)) {
		t.Error("1 is not greater than 2")
	}

	if !runtime.EqDispatch(3, 3) || runtime.NeDispatch(3, 3) {
		t.Error("fallback equality disagrees with ==")
	}
	if !runtime.LessDispatch("a", "b") || !runtime.GreaterEqDispatch("b", "a") {
		t.Error("fallback string ordering disagrees with <")
	}
	if !runtime.LessEqDispatch(score(2), score(2)) {
		t.Error("fallback named-type ordering disagrees with <=")
	}
}

func TestUnaryAndAssignDispatch(t *testing.T) {
	setup(t, runtime.Config{})

	if got := runtime.NegDispatch(score(4)); got != -4 {
		t.Errorf("NegDispatch = %d", got)
	}
	if got := runtime.ComplementDispatch(uint8(0)); got != 255 {
		t.Errorf("ComplementDispatch = %d", got)
	}

	v := score(10)
	if got := runtime.IncDispatch(&v); got != 11 || v != 11 {
		t.Errorf("IncDispatch: got %d, v = %d", got, v)
	}
	if got := runtime.DecDispatch(&v); got != 10 {
		t.Errorf("DecDispatch = %d", got)
	}

	m := money(10)
	if got := runtime.AddAssignDispatch(&m, money(5)); got != 15 || m != 15 {
		t.Errorf("AddAssignDispatch through user Add: got %d, m = %d", got, m)
	}

	s := score(10)
	if got := runtime.SubAssignDispatch(&s, score(4)); got != 6 {
		t.Errorf("fallback SubAssignDispatch = %d", got)
	}
}

func TestDispatchPanicsOnUnsupported(t *testing.T) {
	setup(t, runtime.Config{})

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for non-indexable value")
		}
	}()
	_ = runtime.IndexDispatch[int, int](42, 0)
}
