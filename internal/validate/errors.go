package validate

import (
	"errors"
	"fmt"

	"github.com/23skdu/longbow-nock/internal/ir"
)

// Validation failure classes. ir.ErrMissingParameter and
// ir.ErrMalformedParameter complete the taxonomy; everything a validator can
// reject is classified under exactly one of these with errors.Is.
var (
	// ErrUnsupportedOperation marks a recognized key whose value names an
	// operation this runtime does not implement (e.g. an unknown eltwise op).
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrUnsupportedMode marks a recognized key carrying an illegal value
	// (bad enum member, out-of-domain number).
	ErrUnsupportedMode = errors.New("unsupported mode")

	// ErrShapeMismatch covers input cardinality, rank and cross-shape
	// relationship violations.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrWeightSizeMismatch means a blob's element count does not match the
	// size derived from the layer configuration.
	ErrWeightSizeMismatch = errors.New("weight size mismatch")

	// ErrTypeMismatch means a validator was handed a layer whose kind it
	// does not own.
	ErrTypeMismatch = errors.New("layer kind mismatch")
)

// LayerError wraps any validation failure with the identity of the offending
// layer. A network with one invalid layer is rejected entirely; this is the
// error the graph loader surfaces.
type LayerError struct {
	Layer string
	Kind  string
	Err   error
}

func (e *LayerError) Error() string {
	return fmt.Sprintf("validate layer %q with kind %q: %v", e.Layer, e.Kind, e.Err)
}

func (e *LayerError) Unwrap() error { return e.Err }

// errorClass maps a validation error to its metrics label.
func errorClass(err error) string {
	switch {
	case errors.Is(err, ir.ErrMissingParameter):
		return "missing_parameter"
	case errors.Is(err, ir.ErrMalformedParameter):
		return "malformed_parameter"
	case errors.Is(err, ErrUnsupportedOperation):
		return "unsupported_operation"
	case errors.Is(err, ErrUnsupportedMode):
		return "unsupported_mode"
	case errors.Is(err, ErrShapeMismatch):
		return "shape_mismatch"
	case errors.Is(err, ErrWeightSizeMismatch):
		return "weight_size_mismatch"
	case errors.Is(err, ErrTypeMismatch):
		return "type_mismatch"
	}
	return "other"
}
