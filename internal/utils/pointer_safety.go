package utils

// Value dereferences v, returning the zero value when v is nil.
func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

// Ptr returns a pointer to v. Useful for optional fields such as
// pagination links, where nil means "no page".
func Ptr[T any](v T) *T {
	return &v
}
