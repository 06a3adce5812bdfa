package validate

import (
	"fmt"
	"strings"

	"github.com/23skdu/longbow-nock/internal/ir"
)

// cellKindFrom maps a layer kind like "LSTMCell" or "GRUSequence" to its cell
// taxonomy tag.
func cellKindFrom(kind string) (ir.CellKind, error) {
	name := strings.ReplaceAll(kind, "Cell", "")
	name = strings.ReplaceAll(name, "Sequence", "")
	switch name {
	case "LSTM":
		return ir.CellLSTM, nil
	case "GRU":
		return ir.CellGRU, nil
	case "RNN":
		return ir.CellRNN, nil
	}
	return 0, fmt.Errorf("%w: unknown recurrent cell type %q, expected one of LSTM, GRU, RNN", ErrUnsupportedMode, kind)
}

// Default activation lists, one entry per gate.
func defaultActivations(c ir.CellKind) []string {
	switch c {
	case ir.CellLSTM:
		return []string{"sigmoid", "sigmoid", "tanh", "sigmoid"}
	case ir.CellGRU, ir.CellGRULBR:
		return []string{"sigmoid", "sigmoid", "tanh"}
	default:
		return []string{"tanh"}
	}
}

func parseRNNCommon(l *ir.Layer) (*ir.RNNAttrs, error) {
	cell, err := cellKindFrom(l.Kind)
	if err != nil {
		return nil, err
	}
	a := &ir.RNNAttrs{Cell: cell}

	hidden, err := l.ParamInt("hidden_size")
	if err != nil {
		return nil, err
	}
	a.HiddenSize = hidden

	clip, err := l.ParamFloatDef("clip", 0)
	if err != nil {
		return nil, err
	}
	a.Clip = clip

	gates := cell.Gates()
	a.Activations = l.ParamStringsDef("activations", defaultActivations(cell))
	alpha, err := l.ParamFloatsDef("activation_alpha", make([]float32, gates))
	if err != nil {
		return nil, err
	}
	a.ActivationAlpha = alpha
	beta, err := l.ParamFloatsDef("activation_beta", make([]float32, gates))
	if err != nil {
		return nil, err
	}
	a.ActivationBeta = beta

	// linear_before_reset changes the recorded cell tag, since the bias
	// geometry of the LBR variant differs.
	if cell == ir.CellGRU {
		lbr, err := l.ParamBoolDef("linear_before_reset", false)
		if err != nil {
			return nil, err
		}
		if lbr {
			a.Cell = ir.CellGRULBR
		}
	}
	return a, nil
}

func checkRNNCommon(a *ir.RNNAttrs) error {
	if a.Clip < 0 {
		return fmt.Errorf("%w: clip must be non-negative, got %v", ErrUnsupportedMode, a.Clip)
	}
	for _, act := range a.Activations {
		switch act {
		case "sigmoid", "tanh", "relu":
		default:
			return fmt.Errorf("%w: activation function %q", ErrUnsupportedOperation, act)
		}
	}
	gates := a.Cell.Gates()
	if len(a.Activations) != gates {
		return fmt.Errorf("%w: expected %d activations, got %d", ErrUnsupportedMode, gates, len(a.Activations))
	}
	if len(a.ActivationAlpha) != gates {
		return fmt.Errorf("%w: expected %d activation alpha parameters, got %d", ErrUnsupportedMode, gates, len(a.ActivationAlpha))
	}
	if len(a.ActivationBeta) != gates {
		return fmt.Errorf("%w: expected %d activation beta parameters, got %d", ErrUnsupportedMode, gates, len(a.ActivationBeta))
	}
	return nil
}

// checkRNNBlobs validates the trained parameter sizes: weights hold G gates
// of S rows over the concatenated [input D, state S] features, biases hold
// one row per gate, plus an extra row for the GRU linear-before-reset form.
func checkRNNBlobs(a *ir.RNNAttrs, blobs map[string]*ir.Blob, in []ir.Shape) error {
	if len(blobs) != 2 {
		return fmt.Errorf("%w: expected 2 trained blobs (weights and biases), got %d", ErrWeightSizeMismatch, len(blobs))
	}
	if len(in) == 0 {
		return fmt.Errorf("%w: no input tensors", ErrShapeMismatch)
	}
	d := in[0][len(in[0])-1]
	s := a.HiddenSize
	g := a.Cell.Gates()

	expectedW := g * s * (d + s)
	expectedB := g * s
	if a.Cell == ir.CellGRULBR {
		expectedB = (g + 1) * s
	}

	w := blobs["weights"]
	if w == nil {
		return fmt.Errorf("%w: weights blob is not provided", ErrWeightSizeMismatch)
	}
	if w.Size() != expectedW {
		return fmt.Errorf("%w: weights blob has size %d, expected %d", ErrWeightSizeMismatch, w.Size(), expectedW)
	}

	b := blobs["biases"]
	if b == nil {
		return fmt.Errorf("%w: biases blob is not provided", ErrWeightSizeMismatch)
	}
	if b.Size() != expectedB {
		return fmt.Errorf("%w: biases blob has size %d, expected %d", ErrWeightSizeMismatch, b.Size(), expectedB)
	}
	return nil
}

type rnnCellValidator struct{}

func (rnnCellValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "LSTMCell", "GRUCell", "RNNCell"); err != nil {
		return err
	}
	a, err := parseRNNCommon(l)
	if err != nil {
		return err
	}
	l.Attrs = a
	return nil
}

func (rnnCellValidator) CheckParams(l *ir.Layer) error {
	a, err := attrsOf[ir.RNNAttrs](l)
	if err != nil {
		return err
	}
	return checkRNNCommon(a)
}

func (rnnCellValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	a, err := attrsOf[ir.RNNAttrs](l)
	if err != nil {
		return err
	}
	states := a.Cell.States()
	if len(in) != states+1 {
		return fmt.Errorf("%w: expected %d input tensors, got %d", ErrShapeMismatch, states+1, len(in))
	}
	if len(in[0]) != 2 {
		return fmt.Errorf("%w: cell data tensor must be 2-D", ErrShapeMismatch)
	}
	expected := ir.Shape{in[0][0], a.HiddenSize}
	if !in[1].Equal(expected) {
		return fmt.Errorf("%w: first initial state shape %v, expected %v", ErrShapeMismatch, in[1], expected)
	}
	if states == 2 && !in[2].Equal(expected) {
		return fmt.Errorf("%w: second initial state shape %v, expected %v", ErrShapeMismatch, in[2], expected)
	}
	return nil
}

func (rnnCellValidator) CheckCorrespondence(l *ir.Layer, blobs map[string]*ir.Blob, in []ir.Shape) error {
	a, err := attrsOf[ir.RNNAttrs](l)
	if err != nil {
		return err
	}
	return checkRNNBlobs(a, blobs, in)
}

type rnnSequenceValidator struct{}

func (rnnSequenceValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "LSTMSequence", "GRUSequence", "RNNSequence"); err != nil {
		return err
	}
	a, err := parseRNNCommon(l)
	if err != nil {
		return err
	}

	direction, err := l.ParamString("direction")
	if err != nil {
		return err
	}
	switch direction {
	case "Forward":
		a.Direction = ir.RNNForward
	case "Backward":
		a.Direction = ir.RNNBackward
	case "Bidirectional":
		a.Direction = ir.RNNBidirectional
	default:
		return fmt.Errorf("%w: unknown direction %q, expected one of Forward, Backward, Bidirectional", ErrUnsupportedMode, direction)
	}

	axis, err := l.ParamUintDef("axis", 1)
	if err != nil {
		return err
	}
	a.Axis = axis
	l.Attrs = a
	return nil
}

func (rnnSequenceValidator) CheckParams(l *ir.Layer) error {
	a, err := attrsOf[ir.RNNAttrs](l)
	if err != nil {
		return err
	}
	if err := checkRNNCommon(a); err != nil {
		return err
	}
	if a.Axis != 0 && a.Axis != 1 {
		return fmt.Errorf("%w: iteration axis %d, only 0 and 1 are supported", ErrUnsupportedMode, a.Axis)
	}
	return nil
}

func (rnnSequenceValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	a, err := attrsOf[ir.RNNAttrs](l)
	if err != nil {
		return err
	}
	if len(in) == 0 {
		return fmt.Errorf("%w: no input tensors", ErrShapeMismatch)
	}
	if len(in[0]) != 3 {
		return fmt.Errorf("%w: sequence data tensor must be 3-D", ErrShapeMismatch)
	}

	batchAxis := (a.Axis + 1) % 2
	n := in[0][batchAxis]
	states := a.Cell.States()
	expected := ir.Shape{n, a.HiddenSize}

	if len(in) > 1 {
		if len(in) != 1+states {
			return fmt.Errorf("%w: expected 1 input tensor (data) or %d (data and states), got %d",
				ErrShapeMismatch, 1+states, len(in))
		}
		if !in[1].Equal(expected) {
			return fmt.Errorf("%w: first initial state shape %v, expected %v", ErrShapeMismatch, in[1], expected)
		}
		if states == 2 && !in[2].Equal(expected) {
			return fmt.Errorf("%w: second initial state shape %v, expected %v", ErrShapeMismatch, in[2], expected)
		}
	}
	return nil
}

func (rnnSequenceValidator) CheckCorrespondence(l *ir.Layer, blobs map[string]*ir.Blob, in []ir.Shape) error {
	a, err := attrsOf[ir.RNNAttrs](l)
	if err != nil {
		return err
	}
	return checkRNNBlobs(a, blobs, in)
}
