package house

// Optional holds a value that may not have been provided.
// The zero value is "not provided", which is distinct from a provided zero value.
type Optional[T comparable] struct {
	value T
	set   bool
}

// Some returns a provided value.
func Some[T comparable](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// None returns a value that was not provided.
func None[T comparable]() Optional[T] {
	return Optional[T]{}
}

// IsSet reports whether the value was provided.
func (o Optional[T]) IsSet() bool {
	return o.set
}

// Get returns the value and whether it was provided.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// Or returns the value if provided and fallback otherwise.
func (o Optional[T]) Or(fallback T) T {
	if !o.set {
		return fallback
	}

	return o.value
}

// Is reports whether the value was provided and equals v.
func (o Optional[T]) Is(v T) bool {
	return o.set && o.value == v
}

// On reports whether a boolean reading is known to be true.
func On(o Optional[bool]) bool {
	return o.Is(true)
}

// Off reports whether a boolean reading is known to be false.
func Off(o Optional[bool]) bool {
	return o.Is(false)
}
