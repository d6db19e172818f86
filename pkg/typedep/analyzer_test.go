package typedep_test

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	"optrace/pkg/typedep"
)

func checkSource(t *testing.T, src string) (*ast.File, *types.Info) {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "test.go", src, 0)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	info := &types.Info{
		Types: make(map[ast.Expr]types.TypeAndValue),
		Defs:  make(map[*ast.Ident]types.Object),
		Uses:  make(map[*ast.Ident]types.Object),
	}
	conf := types.Config{Importer: importer.Default(), Error: func(error) {}}
	conf.Check("test", fset, []*ast.File{file}, info)
	return file, info
}

func typeOfIdent(t *testing.T, file *ast.File, info *types.Info, name string) types.Type {
	t.Helper()
	var found types.Type
	ast.Inspect(file, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok && id.Name == name && found == nil {
			if tv, ok := info.Types[id]; ok {
				found = tv.Type
			} else if obj := info.Defs[id]; obj != nil {
				found = obj.Type()
			} else if obj := info.Uses[id]; obj != nil {
				found = obj.Type()
			}
		}
		return true
	})
	if found == nil {
		t.Fatalf("no type for identifier %s", name)
	}
	return found
}

const genericSrc = `package p

func head[S ~[]E, E any](s S) E { return s[0] }

func f(xs []int, ptr *int, b [3]string) {
	_ = xs
	_ = ptr
	_ = b
}
`

func TestClassifyDeferredOnTypeParam(t *testing.T) {
	file, info := checkSource(t, genericSrc)
	a := typedep.New(info)

	s := typeOfIdent(t, file, info, "s")
	xs := typeOfIdent(t, file, info, "xs")

	if got := a.Classify(s); got != typedep.Deferred {
		t.Errorf("expected type parameter operand to classify deferred, got %s", got)
	}
	if got := a.Classify(xs); got != typedep.Concrete {
		t.Errorf("expected []int operand to classify concrete, got %s", got)
	}
	if got := a.Classify(xs, s); got != typedep.Deferred {
		t.Error("one deferred operand must defer the whole candidate")
	}
}

func TestContainsTypeParamInComposite(t *testing.T) {
	file, info := checkSource(t, `package p

type pair[A, B any] struct {
	first  A
	second B
}

func g[T any](m map[string][]T, pr pair[int, T], plain map[string][]int) {
	_ = m
	_ = pr
	_ = plain
}
`)
	m := typeOfIdent(t, file, info, "m")
	pr := typeOfIdent(t, file, info, "pr")
	plain := typeOfIdent(t, file, info, "plain")

	if !typedep.ContainsTypeParam(m) {
		t.Error("map[string][]T should contain a type parameter")
	}
	if !typedep.ContainsTypeParam(pr) {
		t.Error("pair[int, T] should contain a type parameter")
	}
	if typedep.ContainsTypeParam(plain) {
		t.Error("map[string][]int should not contain a type parameter")
	}
}

func TestPredicates(t *testing.T) {
	file, info := checkSource(t, genericSrc)
	a := typedep.New(info)

	xs := typeOfIdent(t, file, info, "xs")
	ptr := typeOfIdent(t, file, info, "ptr")

	if a.IsPointerLike(xs) {
		t.Error("slice is not pointer-like")
	}
	if !a.IsPointerLike(ptr) {
		t.Error("*int is pointer-like")
	}
	if !a.IsPointerLike(types.Typ[types.UnsafePointer]) {
		t.Error("unsafe.Pointer is pointer-like")
	}

	if !a.IsArithmetic(types.Typ[types.Int]) || !a.IsArithmetic(types.Typ[types.Float64]) {
		t.Error("int and float64 are arithmetic")
	}
	if a.IsArithmetic(types.Typ[types.String]) {
		t.Error("string is not arithmetic")
	}

	if !a.IsUnsafe(types.Typ[types.UnsafePointer]) {
		t.Error("unsafe.Pointer is unsafe")
	}
	if a.IsUnsafe(ptr) {
		t.Error("*int is not unsafe")
	}

	if !a.IsIncomplete(nil) || !a.IsIncomplete(types.Typ[types.Invalid]) {
		t.Error("nil and invalid types are incomplete")
	}
	if a.IsIncomplete(xs) {
		t.Error("[]int is complete")
	}

	if !a.StrictlyComparable(types.Typ[types.Int]) || !a.StrictlyComparable(ptr) {
		t.Error("int and *int are strictly comparable")
	}
	if a.StrictlyComparable(xs) {
		t.Error("slices are not strictly comparable")
	}
}

func TestIsAtomicLike(t *testing.T) {
	_, info := checkSource(t, "package p")
	a := typedep.New(info)

	atomicPkg := types.NewPackage("sync/atomic", "atomic")
	obj := types.NewTypeName(token.NoPos, atomicPkg, "Int64", nil)
	atomicInt64 := types.NewNamed(obj, types.NewStruct(nil, nil), nil)

	if !a.IsAtomicLike(atomicInt64) {
		t.Error("atomic.Int64 is atomic-like")
	}
	if !a.IsAtomicLike(types.NewPointer(atomicInt64)) {
		t.Error("*atomic.Int64 is atomic-like")
	}
	if a.IsAtomicLike(types.Typ[types.Int64]) {
		t.Error("int64 is not atomic-like")
	}
}

func TestOverloadDetection(t *testing.T) {
	file, info := checkSource(t, `package p

type money int64

func (m money) Add(v money) money { return m + v }
func (m money) At(i int) money    { return m }

type plain int64

func f(m money, q plain) {
	_ = m
	_ = q
}
`)
	a := typedep.New(info)

	m := typeOfIdent(t, file, info, "m")
	q := typeOfIdent(t, file, info, "q")

	if !a.HasArithmeticOverload(m) {
		t.Error("money defines Add")
	}
	if !a.HasIndexOverload(m) {
		t.Error("money defines At")
	}
	if a.HasArithmeticOverload(q) || a.HasIndexOverload(q) {
		t.Error("plain defines no operator methods")
	}
}

func TestCoreType(t *testing.T) {
	src := `package p

func head[S ~[]E, E any](s S) E { return s[0] }

func pick[T int | string](v T) T { return v }

func lookup[M ~map[string]int](m M) int { return m["k"] }
`
	file, info := checkSource(t, src)

	s := typeOfIdent(t, file, info, "s")
	core := typedep.CoreType(s)
	if core == nil {
		t.Fatal("expected a core type for the ~[]E constraint")
	}
	if _, ok := core.(*types.Slice); !ok {
		t.Errorf("core type of ~[]E constraint = %v, want a slice", core)
	}

	m := typeOfIdent(t, file, info, "m")
	core = typedep.CoreType(m)
	if core == nil {
		t.Fatal("expected a core type for the ~map[string]int constraint")
	}
	if _, ok := core.(*types.Map); !ok {
		t.Errorf("core type of map constraint = %v, want a map", core)
	}

	v := typeOfIdent(t, file, info, "v")
	if core := typedep.CoreType(v); core != nil {
		t.Errorf("int | string terms disagree, want nil core type, got %v", core)
	}

	if core := typedep.CoreType(types.Typ[types.Int]); core != types.Typ[types.Int] {
		t.Errorf("core type of int = %v, want int", core)
	}
}
