// Package classify structurally matches tree nodes against the recognized
// operator shapes and filters out candidates whose syntactic position makes
// instrumentation unsafe.
package classify

import (
	"go/ast"
	"go/token"

	"optrace/pkg/rewrite"
)

// Kind is the operator category a candidate was matched against.
type Kind uint8

const (
	KindIndexAccess Kind = iota
	KindArithmeticBinary
	KindAssignmentBinary
	KindComparisonBinary
	KindUnaryArithmetic
	KindOverloadedOperatorCall
)

func (k Kind) String() string {
	switch k {
	case KindIndexAccess:
		return "index-access"
	case KindArithmeticBinary:
		return "arithmetic-binary"
	case KindAssignmentBinary:
		return "assignment-binary"
	case KindComparisonBinary:
		return "comparison-binary"
	case KindUnaryArithmetic:
		return "unary-arithmetic"
	case KindOverloadedOperatorCall:
		return "overloaded-operator-call"
	default:
		return "unknown"
	}
}

// Candidate is a tree node that structurally matches an operator shape.
// The node is an externally owned handle into the host tree; read-only here.
type Candidate struct {
	ID           string
	Node         ast.Node
	Kind         Kind
	Op           token.Token
	Span         rewrite.Span
	OperandSpans []rewrite.Span

	// Method is set for overloaded operator calls: the user method standing
	// in for the operator (At, Add, Cmp, ...).
	Method string

	Overloaded   bool
	SystemOrigin bool
}

func newCandidate(node ast.Node, kind Kind, op token.Token, span rewrite.Span, operands ...rewrite.Span) *Candidate {
	return &Candidate{
		Node:         node,
		Kind:         kind,
		Op:           op,
		Span:         span,
		OperandSpans: operands,
	}
}

// operatorMethods maps the recognized user operator method names to the
// category they stand in for. A call to one of these on a named type is the
// Go analogue of a user-supplied operator overload.
var operatorMethods = map[string]Kind{
	"At":  KindIndexAccess,
	"Add": KindArithmeticBinary,
	"Sub": KindArithmeticBinary,
	"Mul": KindArithmeticBinary,
	"Div": KindArithmeticBinary,
	"Cmp": KindComparisonBinary,
}

// CategoryOf returns the operator category a user method name stands in for.
func CategoryOf(method string) (Kind, bool) {
	k, ok := operatorMethods[method]
	return k, ok
}
