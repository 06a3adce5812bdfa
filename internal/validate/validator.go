// Package validate checks a deserialized layer against its kind's parameter
// and shape contract before anything executes. One validator per layer kind;
// a registry routes by the kind string and falls back to a permissive general
// validator for kinds it does not know.
package validate

import (
	"fmt"
	"time"

	"github.com/23skdu/longbow-nock/internal/ir"
	"github.com/23skdu/longbow-nock/internal/metrics"
)

// Validator is the per-kind contract. ParseParams fills the layer's Attrs
// from the raw parameter map, CheckParams re-validates parameter values for
// domain legality, CheckShapes validates structural legality of the inputs.
type Validator interface {
	ParseParams(l *ir.Layer) error
	CheckParams(l *ir.Layer) error
	CheckShapes(l *ir.Layer, in []ir.Shape) error
}

// CorrespondenceChecker is implemented by validators of weightable kinds
// (convolution family, fully-connected, RNN cells). It cross-checks blob
// element counts against sizes derived from the layer configuration, and runs
// only when the layer actually carries blobs.
type CorrespondenceChecker interface {
	CheckCorrespondence(l *ir.Layer, blobs map[string]*ir.Blob, in []ir.Shape) error
}

// ValidateLayer runs the full contract for one layer: parse, parameter
// checks, shape checks and (when blobs are attached) weight correspondence.
// On failure the layer's name and kind are prefixed and the original cause
// preserved; derived fields may be left partially populated since the layer
// is discarded.
func (r *Registry) ValidateLayer(l *ir.Layer) error {
	start := time.Now()
	v := r.Get(l.Kind)

	err := runValidator(v, l)
	if err != nil {
		metrics.RecordValidationError(l.Kind, errorClass(err))
		return &LayerError{Layer: l.Name, Kind: l.Kind, Err: err}
	}

	metrics.RecordLayerValidated(time.Since(start))
	return nil
}

func runValidator(v Validator, l *ir.Layer) error {
	if err := v.ParseParams(l); err != nil {
		return err
	}
	if err := v.CheckParams(l); err != nil {
		return err
	}
	in := l.InputShapes()
	if err := v.CheckShapes(l, in); err != nil {
		return err
	}
	if cc, ok := v.(CorrespondenceChecker); ok && len(l.Blobs) > 0 {
		if err := cc.CheckCorrespondence(l, l.Blobs, in); err != nil {
			return err
		}
	}
	return nil
}

// expectKind is the single source of ErrTypeMismatch: the registry should
// never misroute, but cross-validation is mandatory.
func expectKind(l *ir.Layer, kinds ...string) error {
	for _, k := range kinds {
		if l.Kind == k {
			return nil
		}
	}
	return fmt.Errorf("%w: validator for %v got layer kind %q", ErrTypeMismatch, kinds, l.Kind)
}

// attrsOf fetches the parsed attribute payload written by ParseParams.
func attrsOf[T any](l *ir.Layer) (*T, error) {
	a, ok := l.Attrs.(*T)
	if !ok {
		return nil, fmt.Errorf("%w: layer %q has no parsed %T attributes", ErrTypeMismatch, l.Name, (*T)(nil))
	}
	return a, nil
}

// general accepts any layer untouched. It backs unknown kinds so that a
// format extension does not reject the whole network.
type general struct{}

func (general) ParseParams(*ir.Layer) error             { return nil }
func (general) CheckParams(*ir.Layer) error             { return nil }
func (general) CheckShapes(*ir.Layer, []ir.Shape) error { return nil }
