// Package forms validates submitted form values one field at a time. Each
// validator returns a Field that is either a usable value or a reason the
// raw input was rejected.
package forms

// Field is the outcome of validating a single form value.
type Field[T any] struct {
	value   T
	reason  string
	invalid bool
}

func Valid[T any](v T) Field[T] {
	return Field[T]{value: v}
}

func Invalid[T any](reason string) Field[T] {
	return Field[T]{reason: reason, invalid: true}
}

func (f Field[T]) OK() bool {
	return !f.invalid
}

// Value is the zero value of T for an invalid field.
func (f Field[T]) Value() T {
	return f.value
}

func (f Field[T]) Reason() string {
	return f.reason
}

// Errors maps a form field name to the message shown next to it.
type Errors map[string]string

// Check records the field's reason under name when it is invalid and
// reports whether it was valid.
func Check[T any](errs Errors, name string, f Field[T]) bool {
	if f.OK() {
		return true
	}
	errs[name] = f.Reason()
	return false
}

func (e Errors) Any() bool {
	return len(e) > 0
}

func (e Errors) Get(name string) string {
	return e[name]
}
