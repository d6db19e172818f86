package runtime

// Indexed is the user-supplied index operation. A type implementing it keeps
// its own element access under deferred dispatch.
type Indexed[E any] interface {
	At(i int) E
}

// Index is the concrete entry point for slice (and sliced array) accesses.
// The out-of-range report fires before the access so the site is attributed
// even when the access then panics.
func Index[E any](s []E, i int) E {
	recordAccess("index", i)
	if i < 0 || i >= len(s) {
		reportBounds("index", i, len(s))
	}
	return s[i]
}

// IndexMap is the concrete entry point for map accesses.
func IndexMap[K comparable, V any](m map[K]V, k K) V {
	recordAccess("index-map", -1)
	return m[k]
}

// IndexString is the concrete entry point for string byte accesses.
func IndexString(s string, i int) byte {
	recordAccess("index-string", i)
	if i < 0 || i >= len(s) {
		reportBounds("index-string", i, len(s))
	}
	return s[i]
}
