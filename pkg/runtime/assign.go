package runtime

// Compound-assignment entry points. Each takes the target's address once, so
// the target expression is evaluated exactly once, matching the original
// statement's side-effect count.

func AddAssign[T Addable](p *T, v T) T {
	recordOp("+=")
	*p += v
	return *p
}

func SubAssign[T Number](p *T, v T) T {
	recordOp("-=")
	*p -= v
	return *p
}

func MulAssign[T Number](p *T, v T) T {
	recordOp("*=")
	*p *= v
	return *p
}

func DivAssign[T Number](p *T, v T) T {
	recordOp("/=")
	var zero T
	if v == zero {
		reportDivZero()
	}
	*p /= v
	return *p
}

func ModAssign[T Integer](p *T, v T) T {
	recordOp("%=")
	var zero T
	if v == zero {
		reportDivZero()
	}
	*p %= v
	return *p
}

func Inc[T Number](p *T) T {
	recordOp("++")
	*p++
	return *p
}

func Dec[T Number](p *T) T {
	recordOp("--")
	*p--
	return *p
}
