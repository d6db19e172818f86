// Package transform orchestrates the rewrite pipeline over whole files:
// classification, context filtering, type-dependency analysis, replacement
// generation, and the transactional commit of the accumulated edits.
package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/ast/astutil"

	"optrace/pkg/classify"
	"optrace/pkg/config"
	"optrace/pkg/gen"
	"optrace/pkg/origin"
	"optrace/pkg/rewrite"
	"optrace/pkg/stats"
	"optrace/pkg/typedep"
)

// Transformer rewrites operator expressions in Go source into calls to the
// instrumentation runtime. One Transformer may process many files; per-file
// state lives in a fileRun.
type Transformer struct {
	opts      *config.Options
	log       *zap.Logger
	collector *stats.Collector
}

func New(opts *config.Options, log *zap.Logger) *Transformer {
	if opts == nil {
		opts = config.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Transformer{
		opts:      opts,
		log:       log,
		collector: stats.Default(),
	}
}

// FileResult is the outcome of processing one file.
type FileResult struct {
	Path    string
	Output  []byte
	Changed bool

	// Rejected lists every proposed edit the engine refused, with reasons.
	Rejected []rewrite.Rejection

	// Snapshot holds this file's own counts; the process-wide collector
	// accumulates them across files.
	Snapshot stats.Snapshot
}

// Stats returns the process-wide counters accumulated so far.
func (t *Transformer) Stats() stats.Snapshot {
	return t.collector.Snapshot()
}

// Source parses and type-checks one file, then rewrites it. Partial type
// information is tolerated: operands the checker could not resolve are skipped
// individually instead of failing the whole file.
func (t *Transformer) Source(filename string, src []byte) (*FileResult, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	info := newInfo()
	conf := types.Config{
		Importer: importer.Default(),
		Error:    func(error) {},
	}
	pkg, _ := conf.Check(file.Name.Name, fset, []*ast.File{file}, info)
	return t.File(fset, file, pkg, info, src, filename)
}

// Files processes many files with bounded parallelism. Traversal within a
// file is always sequential; only the per-file fan-out is concurrent. A
// failure in one file never aborts the others; per-file errors are joined
// into the returned error. The returned slice is parallel to paths; entries
// for failed files are nil. Only context cancellation stops the batch.
func (t *Transformer) Files(ctx context.Context, paths []string) ([]*FileResult, error) {
	results := make([]*FileResult, len(paths))
	errs := make([]error, len(paths))
	grp, ctx := errgroup.WithContext(ctx)
	limit := t.opts.Concurrency
	if limit < 1 {
		limit = 1
	}
	grp.SetLimit(limit)
	for i, path := range paths {
		i, path := i, path
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(path)
			if err != nil {
				errs[i] = fmt.Errorf("read %s: %w", path, err)
				return nil
			}
			res, err := t.Source(path, src)
			results[i] = res
			errs[i] = err
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return results, err
	}
	return results, errors.Join(errs...)
}

// File rewrites one already-parsed, already-checked file. src must be the
// exact buffer the file was parsed from; all spans index into it.
func (t *Transformer) File(fset *token.FileSet, file *ast.File, pkg *types.Package, info *types.Info, src []byte, filename string) (*FileResult, error) {
	alias := t.opts.RuntimeAlias
	if alias == "" {
		alias = gen.MangleAlias(t.opts.RuntimeImportPath)
	}

	filter := classify.NewFilter(info)
	filter.SkipSystemOrigin = t.opts.SkipSystemOrigin
	if t.opts.SkipSystemOrigin {
		oc := origin.NewClassifier(filepath.Dir(filename))
		filter.InSystemOrigin = oc.SystemOrigin(filename) || origin.Generated(src)
	}

	run := &fileRun{
		opts:       t.opts,
		log:        t.log.With(zap.String("file", filename)),
		info:       info,
		engine:     rewrite.NewEngine(src),
		processed:  rewrite.NewProcessedSet(),
		classifier: classify.New(fset, info),
		filter:     filter,
		analyzer:   typedep.New(info),
		gen:        gen.New(alias, pkg, info),
		col:        stats.New(),
	}

	// Post-order: operands are rewritten before the expressions containing
	// them, so an outer candidate overlapping an inner rewrite loses the
	// conflict and the inner rewrite survives.
	astutil.Apply(file, nil, func(c *astutil.Cursor) bool {
		run.visit(c)
		return true
	})

	// The import edit is infrastructure, not a candidate outcome; only the
	// candidate edits accepted so far count as committed.
	committed := run.engine.Pending()
	if committed > 0 {
		run.injectImport(fset, file, alias)
	}

	res := &FileResult{Path: filename}
	out, err := run.engine.CommitAll()
	if err != nil {
		run.col.Count(stats.CommitFailed)
		res.Output = append([]byte(nil), run.engine.Original()...)
		res.Rejected = run.engine.Rejected()
		res.Snapshot = run.col.Snapshot()
		t.collector.Add(res.Snapshot)
		run.log.Error("commit failed, file left unchanged", zap.Error(err))
		return res, err
	}

	run.col.Add(stats.Snapshot{Committed: uint64(committed)})
	res.Output = out
	res.Changed = !bytes.Equal(out, src)
	if res.Changed {
		run.col.Count(stats.FileRewritten)
	} else {
		run.col.Count(stats.FileUnchanged)
	}
	res.Rejected = run.engine.Rejected()
	res.Snapshot = run.col.Snapshot()
	t.collector.Add(res.Snapshot)

	run.log.Debug("file processed",
		zap.Bool("changed", res.Changed),
		zap.Int("edits", committed),
		zap.Int("rejected", len(res.Rejected)))
	return res, nil
}

// fileRun carries the per-file pipeline state.
type fileRun struct {
	opts       *config.Options
	log        *zap.Logger
	info       *types.Info
	engine     *rewrite.Engine
	processed  *rewrite.ProcessedSet
	classifier *classify.Classifier
	filter     *classify.Filter
	analyzer   *typedep.Analyzer
	gen        *gen.Generator
	col        *stats.Collector
}

// visit runs the pipeline for one node: classify, gate, filter, analyze,
// generate, propose. Every early return is counted under exactly one outcome.
func (r *fileRun) visit(c *astutil.Cursor) {
	cand, ok := r.classifier.Classify(c.Node())
	if !ok {
		return
	}
	// Classified counts every structural match, including candidates whose
	// category is disabled and goes no further.
	r.col.Count(stats.Classified)
	if !r.enabled(cand) {
		return
	}

	if r.processed.Seen(cand.Span) {
		return
	}
	cand.SystemOrigin = r.filter.InSystemOrigin

	if reason, ok := r.filter.Check(cand, c.Parent()); !ok {
		r.col.Count(stats.ContextRejected)
		r.log.Debug("context rejected",
			zap.String("candidate", cand.ID),
			zap.Stringer("reason", reason))
		return
	}

	ts := r.operandTypes(cand)
	if reason, safe := r.typeSafe(cand, ts); !safe {
		r.col.Count(stats.FilteredOut)
		r.log.Debug("filtered out",
			zap.String("candidate", cand.ID),
			zap.String("reason", reason))
		return
	}

	dep := r.analyzer.Classify(ts...)
	if dep == typedep.Deferred {
		r.col.Count(stats.DeferredTyped)
	}

	operands := make([]string, 0, len(cand.OperandSpans))
	for _, s := range cand.OperandSpans {
		text, err := r.engine.Slice(s)
		if err != nil {
			r.col.Count(stats.ExtractionFailed)
			r.log.Warn("operand extraction failed",
				zap.String("candidate", cand.ID),
				zap.Error(err))
			return
		}
		operands = append(operands, text)
	}

	text, err := r.gen.Replacement(cand, dep, operands)
	if err != nil {
		r.col.Count(stats.GenerationFailed)
		r.log.Debug("generation failed",
			zap.String("candidate", cand.ID),
			zap.Error(err))
		return
	}
	r.col.Count(stats.Generated)

	r.col.Count(stats.Proposed)
	edit := rewrite.Edit{Span: cand.Span, NewText: text, CandidateID: cand.ID}
	if err := r.engine.Propose(edit); err != nil {
		if errors.Is(err, rewrite.ErrConflict) {
			r.col.Count(stats.ConflictRejected)
			r.log.Debug("conflicting edit rejected", zap.String("candidate", cand.ID))
		} else {
			r.log.Warn("edit rejected", zap.String("candidate", cand.ID), zap.Error(err))
		}
		return
	}
	r.processed.Mark(cand.Span)
}

// enabled maps a candidate to its category toggle. ++ and -- count as
// assignments; - and ^ count as arithmetic. An overloaded operator call
// follows the category its method stands in for.
func (r *fileRun) enabled(c *classify.Candidate) bool {
	o := r.opts
	switch c.Kind {
	case classify.KindIndexAccess:
		return o.IndexAccess
	case classify.KindArithmeticBinary:
		return o.Arithmetic
	case classify.KindComparisonBinary:
		return o.Comparison
	case classify.KindAssignmentBinary:
		return o.Assignment
	case classify.KindUnaryArithmetic:
		if c.Op == token.INC || c.Op == token.DEC {
			return o.Assignment
		}
		return o.Arithmetic
	case classify.KindOverloadedOperatorCall:
		switch k, _ := classify.CategoryOf(c.Method); k {
		case classify.KindIndexAccess:
			return o.IndexAccess
		case classify.KindArithmeticBinary:
			return o.Arithmetic
		case classify.KindComparisonBinary:
			return o.Comparison
		}
	}
	return false
}

func (r *fileRun) operandTypes(c *classify.Candidate) []types.Type {
	var exprs []ast.Expr
	switch n := c.Node.(type) {
	case *ast.IndexExpr:
		exprs = []ast.Expr{n.X, n.Index}
	case *ast.BinaryExpr:
		exprs = []ast.Expr{n.X, n.Y}
	case *ast.AssignStmt:
		exprs = []ast.Expr{n.Lhs[0], n.Rhs[0]}
	case *ast.UnaryExpr:
		exprs = []ast.Expr{n.X}
	case *ast.IncDecStmt:
		exprs = []ast.Expr{n.X}
	default:
		return nil
	}
	out := make([]types.Type, 0, len(exprs))
	for _, e := range exprs {
		if tv, ok := r.info.Types[e]; ok {
			out = append(out, tv.Type)
		} else {
			out = append(out, nil)
		}
	}
	return out
}

// typeSafe applies the type-level gates: constant expressions stay constant,
// unresolved and unsafe operands stay untouched, atomics keep their access
// patterns, and comparisons only go through entry points whose constraint the
// operand type can satisfy.
func (r *fileRun) typeSafe(c *classify.Candidate, ts []types.Type) (string, bool) {
	if e, ok := c.Node.(ast.Expr); ok {
		if tv, ok := r.info.Types[e]; ok && r.analyzer.IsConstExpr(tv) {
			return "constant expression", false
		}
	}
	for _, t := range ts {
		if r.analyzer.IsIncomplete(t) {
			return "unresolved operand type", false
		}
		if r.analyzer.IsUnsafe(t) {
			return "unsafe.Pointer operand", false
		}
		if r.analyzer.IsAtomicLike(t) {
			return "sync/atomic operand", false
		}
	}
	switch c.Kind {
	case classify.KindComparisonBinary:
		for _, t := range ts {
			if isUntypedNil(t) {
				continue
			}
			if !r.analyzer.StrictlyComparable(t) {
				return "operand not strictly comparable", false
			}
		}
	case classify.KindArithmeticBinary, classify.KindAssignmentBinary, classify.KindUnaryArithmetic:
		for _, t := range ts {
			if typedep.ContainsTypeParam(t) {
				continue
			}
			if r.analyzer.IsArithmetic(t) {
				continue
			}
			if isString(t) && (c.Op == token.ADD || c.Op == token.ADD_ASSIGN) {
				continue
			}
			return "operand type not numeric", false
		}
	}
	return "", true
}

// injectImport proposes a zero-length edit adding the runtime import right
// after the package clause. It is only called when at least one rewrite was
// accepted, so an untouched file never gains an import.
func (r *fileRun) injectImport(fset *token.FileSet, file *ast.File, alias string) {
	off := fset.Position(file.Name.End()).Offset
	span, err := rewrite.NewSpan(off, off)
	if err != nil {
		r.log.Warn("import injection skipped", zap.Error(err))
		return
	}
	edit := rewrite.Edit{
		Span:        span,
		NewText:     fmt.Sprintf("\n\nimport %s %q", alias, r.opts.RuntimeImportPath),
		CandidateID: "import-" + alias,
	}
	if err := r.engine.Propose(edit); err != nil {
		r.log.Warn("import injection rejected", zap.Error(err))
	}
}

func isString(t types.Type) bool {
	if t == nil {
		return false
	}
	b, ok := t.Underlying().(*types.Basic)
	return ok && b.Info()&types.IsString != 0
}

func isUntypedNil(t types.Type) bool {
	if t == nil {
		return false
	}
	b, ok := t.Underlying().(*types.Basic)
	return ok && b.Kind() == types.UntypedNil
}

func newInfo() *types.Info {
	return &types.Info{
		Types:      make(map[ast.Expr]types.TypeAndValue),
		Defs:       make(map[*ast.Ident]types.Object),
		Uses:       make(map[*ast.Ident]types.Object),
		Selections: make(map[*ast.SelectorExpr]*types.Selection),
		Instances:  make(map[*ast.Ident]types.Instance),
	}
}
