package extraction

import "cliniscribe/internal/confidence"

// Field is a typed extracted value with its confidence score. A nil Value
// means the field is absent; absence is first-class, never an artifact of a
// zero value. Fields are created once per parse and immutable thereafter.
type Field[T any] struct {
	Value      *T               `json:"value"`
	Confidence confidence.Score `json:"confidence"`
}

// Present reports whether the field carries a value.
func (f Field[T]) Present() bool {
	return f.Value != nil
}

// Get returns the value, or T's zero value when absent.
func (f Field[T]) Get() T {
	if f.Value == nil {
		var zero T
		return zero
	}
	return *f.Value
}

func newField[T any](v T, conf float64) Field[T] {
	return Field[T]{Value: &v, Confidence: confidence.New(conf)}
}

func absent[T any]() Field[T] {
	return Field[T]{Confidence: confidence.New(0)}
}
