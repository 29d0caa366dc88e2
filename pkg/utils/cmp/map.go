package cmp

// MapEq tests whether two maps have the same keys and values.
func MapEq[K comparable, V comparable](a, b map[K]V) bool {
	return MapEqWith(a, b, func(va V, vb V) bool { return va == vb })
}

// MapEqWith tests whether two maps have the same keys
// and values equal in eq.
func MapEqWith[K comparable, A any, B any](a map[K]A, b map[K]B, eq func(a A, b B) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || !eq(va, vb) {
			return false
		}
	}
	return true
}
