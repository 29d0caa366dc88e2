package utils

// apply mapper to t unless t is nil.
func IfNotNil[T any, U any](t *T, mapper func(*T) *U) *U {
	if t == nil {
		return nil
	}
	return mapper(t)
}

// dereference p, or d when p is nil.
func Default[T any](p *T, d T) T {
	if p != nil {
		return *p
	}
	return d
}

// dereference p, or zero value of T when p is nil.
func ZeroUnless[T any](p *T) T {
	if p != nil {
		return *p
	}
	return *new(T)
}
