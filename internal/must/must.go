// Package must provides panic-on-error helpers for code paths where an
// error indicates an unrecoverable programming or bootstrap mistake
// rather than a runtime condition callers should handle.
package must

// Zero panics in case of error.
func Zero(err error) {
	if err != nil {
		panic(err)
	}
}

// One panics in case of error otherwise returns the value.
func One[Type any](value Type, err error) Type {
	Zero(err)
	return value
}

// Two panics in case of error otherwise returns both values.
func Two[A, B any](a A, b B, err error) (A, B) {
	Zero(err)
	return a, b
}
