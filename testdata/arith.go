package fixtures

const answer = 6 * 7 // constant expression, never rewritten

func arithBasics(a, b int, f float64, s string) (int, float64, string, bool) {
	sum := a + b
	diff := a - b
	prod := a * b
	quot := f / 2.0
	rem := a % 3

	sum += diff
	prod *= 2
	sum++
	rem--

	neg := -a
	inv := ^b

	concat := s + "!"

	less := a < b
	eq := sum == prod

	_ = less
	return sum + prod + rem + neg + inv, quot, concat, eq
}
