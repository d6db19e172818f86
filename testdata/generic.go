package fixtures

type numeric interface {
	~int | ~int64 | ~float64
}

func head[S ~[]E, E any](s S) E {
	return s[0]
}

func total[T numeric](vals []T) T {
	var sum T
	for i := 0; i < len(vals); i++ {
		sum = sum + vals[i]
	}
	return sum
}

func lookup[M ~map[K]V, K comparable, V any](m M, k K) V {
	return m[k]
}
