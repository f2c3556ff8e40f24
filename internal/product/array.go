package product

import "fmt"

// Array is a dataset payload flattened in row-major order. Numeric
// element types are widened to float64 (lossless for the 32-bit label
// and measurement rasters these products carry); string datasets keep
// their values verbatim. Exactly one of Floats or Strings is non-nil.
type Array struct {
	Shape   []int
	DType   string
	Floats  []float64
	Strings []string
}

// NewFloatArray builds a numeric array and validates payload length
// against the shape.
func NewFloatArray(shape []int, dtype string, vals []float64) (*Array, error) {
	if n := NumElems(shape); n != len(vals) {
		return nil, fmt.Errorf("array payload has %d elements, shape %v wants %d", len(vals), shape, n)
	}
	return &Array{Shape: shape, DType: dtype, Floats: vals}, nil
}

// NewStringArray builds a string array and validates payload length
// against the shape.
func NewStringArray(shape []int, vals []string) (*Array, error) {
	if n := NumElems(shape); n != len(vals) {
		return nil, fmt.Errorf("array payload has %d elements, shape %v wants %d", len(vals), shape, n)
	}
	return &Array{Shape: shape, DType: "string", Strings: vals}, nil
}

// IsString reports whether the array holds string elements.
func (a *Array) IsString() bool { return a.Strings != nil }

// Len returns the number of elements.
func (a *Array) Len() int {
	if a.IsString() {
		return len(a.Strings)
	}
	return len(a.Floats)
}

// NumElems returns the element count implied by a shape. A scalar
// (empty shape) counts as one element.
func NumElems(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// ShapeEqual reports whether two shapes are identical.
func ShapeEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
