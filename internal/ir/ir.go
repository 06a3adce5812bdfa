// Package ir holds the in-memory form of a deserialized network description:
// layers with raw string parameters, tensor descriptors, and attached weight
// blobs. Validators (internal/validate) parse the raw parameters into the
// typed attribute structs defined here.
package ir

import "fmt"

// Shape is an ordered list of dimension sizes. Rank is len(s).
type Shape []int

func (s Shape) Rank() int { return len(s) }

// Total returns the element count of a tensor with this shape.
func (s Shape) Total() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

func (s Shape) String() string { return fmt.Sprint([]int(s)) }

// TensorDesc describes one input or output port of a layer.
type TensorDesc struct {
	Name  string
	Shape Shape
}

// Blob is a named learned tensor attached to a layer. Validation only ever
// reads its element count and shape, never the data.
type Blob struct {
	Shape Shape
	Elems int
}

// Size returns the blob element count. When the container did not record an
// explicit count the shape product is used.
func (b *Blob) Size() int {
	if b.Elems > 0 {
		return b.Elems
	}
	return b.Shape.Total()
}

// Layer is one node of the inference graph. Params holds the raw serialized
// attributes; Attrs receives the kind-specific parsed form during validation.
type Layer struct {
	Name string
	Kind string

	// FormatVersion is the version tag of the file this layer came from.
	// Validators use it to select among historical parameter encodings.
	FormatVersion int

	Params  map[string]string
	Inputs  []TensorDesc
	Outputs []TensorDesc

	// Blobs maps role name ("weights", "biases") to the attached tensor.
	// Nil or missing entries are legal for most kinds.
	Blobs map[string]*Blob

	// Attrs is the kind-specific parsed attribute struct, populated by the
	// layer's validator. Nil until validation has run.
	Attrs interface{}
}

// InputShapes collects the shapes of the layer's input descriptors in order.
func (l *Layer) InputShapes() []Shape {
	shapes := make([]Shape, len(l.Inputs))
	for i := range l.Inputs {
		shapes[i] = l.Inputs[i].Shape
	}
	return shapes
}

// Blob returns the named blob, or nil when absent.
func (l *Layer) Blob(role string) *Blob {
	if l.Blobs == nil {
		return nil
	}
	return l.Blobs[role]
}
