package gen_test

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"strings"
	"testing"

	"optrace/pkg/classify"
	"optrace/pkg/gen"
	"optrace/pkg/typedep"
)

type checked struct {
	fset *token.FileSet
	file *ast.File
	pkg  *types.Package
	info *types.Info
	src  string
}

func check(t *testing.T, src string) *checked {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "test.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	info := &types.Info{
		Types:      make(map[ast.Expr]types.TypeAndValue),
		Defs:       make(map[*ast.Ident]types.Object),
		Uses:       make(map[*ast.Ident]types.Object),
		Selections: make(map[*ast.SelectorExpr]*types.Selection),
		Instances:  make(map[*ast.Ident]types.Instance),
	}
	conf := types.Config{Importer: importer.Default(), Error: func(error) {}}
	pkg, _ := conf.Check("test", fset, []*ast.File{file}, info)
	return &checked{fset: fset, file: file, pkg: pkg, info: info, src: src}
}

// candidate classifies the first node matching the given shape and returns it
// together with its operand texts sliced from the source.
func (c *checked) candidate(t *testing.T, match func(ast.Node) bool) (*classify.Candidate, []string) {
	t.Helper()
	cl := classify.New(c.fset, c.info)
	var cand *classify.Candidate
	ast.Inspect(c.file, func(n ast.Node) bool {
		if cand != nil || n == nil || !match(n) {
			return cand == nil
		}
		if got, ok := cl.Classify(n); ok {
			cand = got
		}
		return cand == nil
	})
	if cand == nil {
		t.Fatal("no candidate in source")
	}
	operands := make([]string, 0, len(cand.OperandSpans))
	for _, s := range cand.OperandSpans {
		operands = append(operands, c.src[s.Start:s.End])
	}
	return cand, operands
}

func isIndex(n ast.Node) bool  { _, ok := n.(*ast.IndexExpr); return ok }
func isBinary(n ast.Node) bool { _, ok := n.(*ast.BinaryExpr); return ok }
func isAssign(n ast.Node) bool { _, ok := n.(*ast.AssignStmt); return ok }
func isIncDec(n ast.Node) bool { _, ok := n.(*ast.IncDecStmt); return ok }

func TestMangleAlias(t *testing.T) {
	a := gen.MangleAlias("optrace/pkg/runtime")
	b := gen.MangleAlias("optrace/pkg/runtime")
	if a != b {
		t.Errorf("same import path must mangle identically: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, "__optrace_") {
		t.Errorf("expected __optrace_ prefix, got %s", a)
	}
	// prefix + 16 hex chars
	if len(a) != len("__optrace_")+16 {
		t.Errorf("unexpected alias length %d (%s)", len(a), a)
	}
	if gen.MangleAlias("other/path") == a {
		t.Error("different import paths must mangle differently")
	}
}

func TestSliceIndexReplacement(t *testing.T) {
	c := check(t, `package p

func f(xs []int, i int) int { return xs[i+1] }
`)
	g := gen.New("rt", c.pkg, c.info)
	cand, operands := c.candidate(t, isIndex)

	got, err := g.Replacement(cand, typedep.Concrete, operands)
	if err != nil {
		t.Fatalf("Replacement failed: %v", err)
	}
	if got != "rt.Index[int](xs, i+1)" {
		t.Errorf("unexpected replacement %q", got)
	}
}

func TestMapAndStringIndexReplacement(t *testing.T) {
	c := check(t, `package p

func f(m map[string][]byte, s string) ([]byte, byte) {
	return m["k"], s[1]
}
`)
	g := gen.New("rt", c.pkg, c.info)

	cand, operands := c.candidate(t, func(n ast.Node) bool {
		e, ok := n.(*ast.IndexExpr)
		return ok && c.src[c.fset.Position(e.Pos()).Offset] == 'm'
	})
	got, err := g.Replacement(cand, typedep.Concrete, operands)
	if err != nil {
		t.Fatalf("Replacement failed: %v", err)
	}
	if got != `rt.IndexMap[string, []byte](m, "k")` {
		t.Errorf("unexpected map replacement %q", got)
	}

	cand, operands = c.candidate(t, func(n ast.Node) bool {
		e, ok := n.(*ast.IndexExpr)
		return ok && c.src[c.fset.Position(e.Pos()).Offset] == 's'
	})
	got, err = g.Replacement(cand, typedep.Concrete, operands)
	if err != nil {
		t.Fatalf("Replacement failed: %v", err)
	}
	if got != "rt.IndexString(s, 1)" {
		t.Errorf("unexpected string replacement %q", got)
	}
}

func TestArrayIndexReplacement(t *testing.T) {
	c := check(t, `package p

func f(arr [4]int, pa *[4]int) int { return arr[2] + pa[3] }
`)
	g := gen.New("rt", c.pkg, c.info)

	cand, operands := c.candidate(t, func(n ast.Node) bool {
		e, ok := n.(*ast.IndexExpr)
		return ok && c.src[c.fset.Position(e.Pos()).Offset] == 'a'
	})
	got, err := g.Replacement(cand, typedep.Concrete, operands)
	if err != nil {
		t.Fatalf("Replacement failed: %v", err)
	}
	if got != "rt.Index[int]((arr)[:], 2)" {
		t.Errorf("unexpected array replacement %q", got)
	}

	cand, operands = c.candidate(t, func(n ast.Node) bool {
		e, ok := n.(*ast.IndexExpr)
		return ok && c.src[c.fset.Position(e.Pos()).Offset] == 'p'
	})
	got, err = g.Replacement(cand, typedep.Concrete, operands)
	if err != nil {
		t.Fatalf("Replacement failed: %v", err)
	}
	if got != "rt.Index[int]((pa)[:], 3)" {
		t.Errorf("unexpected pointer-to-array replacement %q", got)
	}
}

func TestBinaryReplacement(t *testing.T) {
	c := check(t, `package p

func f(a, b int) int { return a + b*2 }
`)
	g := gen.New("rt", c.pkg, c.info)
	cand, operands := c.candidate(t, isBinary)

	got, err := g.Replacement(cand, typedep.Concrete, operands)
	if err != nil {
		t.Fatalf("Replacement failed: %v", err)
	}
	// Operand text is verbatim: the nested product stays unevaluated text.
	if got != "rt.Add[int](a, b*2)" {
		t.Errorf("unexpected replacement %q", got)
	}
}

func TestComparisonWithNilOperand(t *testing.T) {
	c := check(t, `package p

func f(p *int) bool { return p == nil }
`)
	g := gen.New("rt", c.pkg, c.info)
	cand, operands := c.candidate(t, isBinary)

	got, err := g.Replacement(cand, typedep.Concrete, operands)
	if err != nil {
		t.Fatalf("Replacement failed: %v", err)
	}
	if got != "rt.Eq[*int](p, nil)" {
		t.Errorf("unexpected replacement %q", got)
	}
}

func TestAssignReplacement(t *testing.T) {
	c := check(t, `package p

func f(a, b int) int {
	a += b
	return a
}
`)
	g := gen.New("rt", c.pkg, c.info)
	cand, operands := c.candidate(t, isAssign)

	got, err := g.Replacement(cand, typedep.Concrete, operands)
	if err != nil {
		t.Fatalf("Replacement failed: %v", err)
	}
	if got != "rt.AddAssign[int](&a, b)" {
		t.Errorf("unexpected replacement %q", got)
	}
}

func TestIncDecReplacement(t *testing.T) {
	c := check(t, `package p

func f(a int) int {
	a++
	return a
}
`)
	g := gen.New("rt", c.pkg, c.info)
	cand, operands := c.candidate(t, isIncDec)

	got, err := g.Replacement(cand, typedep.Concrete, operands)
	if err != nil {
		t.Fatalf("Replacement failed: %v", err)
	}
	if got != "rt.Inc[int](&a)" {
		t.Errorf("unexpected replacement %q", got)
	}
}

func TestDeferredIndexReplacement(t *testing.T) {
	c := check(t, `package p

func head[S ~[]E, E any](s S) E { return s[0] }
`)
	g := gen.New("rt", c.pkg, c.info)
	cand, operands := c.candidate(t, isIndex)

	got, err := g.Replacement(cand, typedep.Deferred, operands)
	if err != nil {
		t.Fatalf("Replacement failed: %v", err)
	}
	if got != "rt.IndexDispatch[S, E](s, 0)" {
		t.Errorf("unexpected deferred replacement %q", got)
	}
}

func TestDeferredBinaryReplacement(t *testing.T) {
	c := check(t, `package p

type numeric interface{ ~int | ~float64 }

func double[T numeric](v T) T { return v + v }
`)
	g := gen.New("rt", c.pkg, c.info)
	cand, operands := c.candidate(t, isBinary)

	got, err := g.Replacement(cand, typedep.Deferred, operands)
	if err != nil {
		t.Fatalf("Replacement failed: %v", err)
	}
	if got != "rt.AddDispatch[T](v, v)" {
		t.Errorf("unexpected deferred replacement %q", got)
	}
}

func TestMapElementAssignRefused(t *testing.T) {
	c := check(t, `package p

func f(m map[string]int) {
	m["k"] += 1
}
`)
	g := gen.New("rt", c.pkg, c.info)
	cand, operands := c.candidate(t, isAssign)

	if _, err := g.Replacement(cand, typedep.Concrete, operands); err == nil {
		t.Fatal("expected map element assign target to be refused")
	}
}

func TestOperandCountMismatch(t *testing.T) {
	c := check(t, `package p

func f(xs []int) int { return xs[0] }
`)
	g := gen.New("rt", c.pkg, c.info)
	cand, _ := c.candidate(t, isIndex)

	if _, err := g.Replacement(cand, typedep.Concrete, []string{"xs"}); err == nil {
		t.Fatal("expected operand count mismatch to fail")
	}
}
