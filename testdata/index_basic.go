package fixtures

import "unsafe"

func indexBasics(xs []int, m map[string]int, s string, arr [4]int, pa *[4]int) int {
	a := xs[0]
	b := m["key"]
	c := int(s[1])
	d := arr[2]
	e := pa[3]

	// nested: the inner access is rewritten, the outer one wins nothing
	f := xs[xs[0]]

	// store target: must stay a plain index expression
	xs[0] = a

	// address-of: must stay addressable
	p := &xs[1]

	// unevaluated: operand of unsafe.Sizeof
	n := unsafe.Sizeof(xs[0])

	return a + b + c + d + e + f + *p + int(n)
}
