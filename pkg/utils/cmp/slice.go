package cmp

// SliceEq tests whether two slices have the same elements in the same order.
func SliceEq[T comparable](a, b []T) bool {
	return SliceEqWith(a, b, func(ea T, eb T) bool { return ea == eb })
}

// SliceEqWith tests whether two slices are element-wise equal in eq.
func SliceEqWith[A any, B any](a []A, b []B, eq func(a A, b B) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !eq(a[i], b[i]) {
			return false
		}
	}
	return true
}

// SliceContentEq tests whether two slices have the same elements,
// ignoring ordering. Duplicated elements are counted.
func SliceContentEq[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}

	count := map[T]int{}
	for _, v := range a {
		count[v] += 1
	}
	for _, v := range b {
		count[v] -= 1
		if count[v] < 0 {
			return false
		}
	}
	return true
}

// SliceContentEqWith tests whether two slices have equivarent elements
// in equiv, ignoring ordering. Each element in b is matched with
// at most one element in a.
//
// equiv should be an equivalence relation. Otherwise, the result can
// depend on ordering of elements.
func SliceContentEqWith[T any](a, b []T, equiv func(a, b T) bool) bool {
	if len(a) != len(b) {
		return false
	}

	used := make([]bool, len(b))
	for _, ea := range a {
		found := false
		for i, eb := range b {
			if used[i] || !equiv(ea, eb) {
				continue
			}
			used[i] = true
			found = true
			break
		}
		if !found {
			return false
		}
	}
	return true
}

// SliceSubsetWith tests whether b is a subset of a,
// matching each element in b with a distinct element in a by eq.
func SliceSubsetWith[A any, B any](a []A, b []B, eq func(ae A, be B) bool) bool {
	if len(a) < len(b) {
		return false
	}

	used := make([]bool, len(a))
	for _, be := range b {
		found := false
		for i, ae := range a {
			if used[i] || !eq(ae, be) {
				continue
			}
			used[i] = true
			found = true
			break
		}
		if !found {
			return false
		}
	}
	return true
}
