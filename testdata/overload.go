package fixtures

type ring struct {
	data []int
}

// At is the ring's own index operation; calls to it stay untouched.
func (r ring) At(i int) int {
	return r.data[i%len(r.data)]
}

type money int64

func (m money) Add(v money) money { return m + v }

func (m money) Cmp(v money) int {
	switch {
	case m < v:
		return -1
	case m > v:
		return 1
	}
	return 0
}

func useOverloads(r ring, a, b money) (int, money, bool) {
	x := r.At(3)
	sum := a.Add(b)
	ordered := a.Cmp(b) < 0
	return x, sum, ordered
}
