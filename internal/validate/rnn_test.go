package validate

import (
	"errors"
	"testing"

	"github.com/23skdu/longbow-nock/internal/ir"
)

func rnnCell(kind string, params map[string]string) *ir.Layer {
	if params == nil {
		params = map[string]string{}
	}
	if _, ok := params["hidden_size"]; !ok {
		params["hidden_size"] = "16"
	}
	return &ir.Layer{Name: "cell", Kind: kind, Params: params}
}

func TestCellGateCounts(t *testing.T) {
	tests := []struct {
		kind   string
		gates  int
		states int
	}{
		{kind: "LSTMCell", gates: 4, states: 2},
		{kind: "GRUCell", gates: 3, states: 1},
		{kind: "RNNCell", gates: 1, states: 1},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			l := rnnCell(tt.kind, nil)
			if err := (rnnCellValidator{}).ParseParams(l); err != nil {
				t.Fatalf("ParseParams() error = %v", err)
			}
			a := l.Attrs.(*ir.RNNAttrs)
			if a.Cell.Gates() != tt.gates {
				t.Errorf("Gates() = %d, want %d", a.Cell.Gates(), tt.gates)
			}
			if a.Cell.States() != tt.states {
				t.Errorf("States() = %d, want %d", a.Cell.States(), tt.states)
			}
			if len(a.Activations) != tt.gates {
				t.Errorf("default activations length = %d, want %d", len(a.Activations), tt.gates)
			}
		})
	}
}

func TestLSTMActivationListLength(t *testing.T) {
	v := rnnCellValidator{}

	l := rnnCell("LSTMCell", map[string]string{"activations": "sigmoid,sigmoid,tanh,sigmoid"})
	if err := v.ParseParams(l); err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	if err := v.CheckParams(l); err != nil {
		t.Errorf("CheckParams() error = %v", err)
	}

	l = rnnCell("LSTMCell", map[string]string{"activations": "sigmoid,tanh,tanh"})
	if err := v.ParseParams(l); err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	if err := v.CheckParams(l); !errors.Is(err, ErrUnsupportedMode) {
		t.Errorf("CheckParams() with 3 activations error = %v, want ErrUnsupportedMode", err)
	}
}

func TestRNNActivationNames(t *testing.T) {
	l := rnnCell("RNNCell", map[string]string{"activations": "softsign"})
	v := rnnCellValidator{}
	if err := v.ParseParams(l); err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	if err := v.CheckParams(l); !errors.Is(err, ErrUnsupportedOperation) {
		t.Errorf("CheckParams() error = %v, want ErrUnsupportedOperation", err)
	}
}

func TestGRULinearBeforeResetBias(t *testing.T) {
	// hidden 16, input depth 32: weights 3*16*(32+16) = 2304.
	in := []ir.Shape{{4, 32}, {4, 16}}

	tests := []struct {
		name    string
		lbr     string
		biases  int
		wantErr bool
	}{
		{name: "plain gru", lbr: "false", biases: 48},
		{name: "lbr extra gate row", lbr: "true", biases: 64},
		{name: "lbr with plain bias", lbr: "true", biases: 48, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := rnnCell("GRUCell", map[string]string{"linear_before_reset": tt.lbr})
			v := rnnCellValidator{}
			if err := v.ParseParams(l); err != nil {
				t.Fatalf("ParseParams() error = %v", err)
			}
			blobs := map[string]*ir.Blob{
				"weights": {Elems: 2304},
				"biases":  {Elems: tt.biases},
			}
			err := v.CheckCorrespondence(l, blobs, in)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckCorrespondence() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrWeightSizeMismatch) {
				t.Errorf("error = %v, want ErrWeightSizeMismatch", err)
			}
		})
	}
}

func TestLSTMCellShapes(t *testing.T) {
	l := rnnCell("LSTMCell", nil)
	v := rnnCellValidator{}
	if err := v.ParseParams(l); err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}

	good := []ir.Shape{{4, 32}, {4, 16}, {4, 16}}
	if err := v.CheckShapes(l, good); err != nil {
		t.Errorf("CheckShapes() error = %v", err)
	}

	// LSTM carries two states, so two data+state tensors is one short.
	short := []ir.Shape{{4, 32}, {4, 16}}
	if err := v.CheckShapes(l, short); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("CheckShapes() short error = %v, want ErrShapeMismatch", err)
	}

	badState := []ir.Shape{{4, 32}, {4, 8}, {4, 16}}
	if err := v.CheckShapes(l, badState); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("CheckShapes() bad state error = %v, want ErrShapeMismatch", err)
	}
}

func TestSequenceDirectionAndAxis(t *testing.T) {
	v := rnnSequenceValidator{}

	l := rnnCell("LSTMSequence", map[string]string{"direction": "Bidirectional", "axis": "0"})
	if err := v.ParseParams(l); err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	if err := v.CheckParams(l); err != nil {
		t.Errorf("CheckParams() error = %v", err)
	}

	l = rnnCell("LSTMSequence", map[string]string{"direction": "Sideways"})
	if err := v.ParseParams(l); !errors.Is(err, ErrUnsupportedMode) {
		t.Errorf("ParseParams() bad direction error = %v, want ErrUnsupportedMode", err)
	}

	l = rnnCell("LSTMSequence", map[string]string{"direction": "Forward", "axis": "2"})
	if err := v.ParseParams(l); err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	if err := v.CheckParams(l); !errors.Is(err, ErrUnsupportedMode) {
		t.Errorf("CheckParams() bad axis error = %v, want ErrUnsupportedMode", err)
	}
}

func TestSequenceStateShapesUseBatchAxis(t *testing.T) {
	v := rnnSequenceValidator{}

	// axis 1 iterates time on axis 1, so batch rides axis 0.
	l := rnnCell("GRUSequence", map[string]string{"direction": "Forward", "axis": "1"})
	if err := v.ParseParams(l); err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	if err := v.CheckShapes(l, []ir.Shape{{4, 10, 32}, {4, 16}}); err != nil {
		t.Errorf("CheckShapes() error = %v", err)
	}

	// axis 0 flips the batch to axis 1.
	l = rnnCell("GRUSequence", map[string]string{"direction": "Forward", "axis": "0"})
	if err := v.ParseParams(l); err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	if err := v.CheckShapes(l, []ir.Shape{{10, 4, 32}, {4, 16}}); err != nil {
		t.Errorf("CheckShapes() error = %v", err)
	}
	if err := v.CheckShapes(l, []ir.Shape{{10, 4, 32}, {10, 16}}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("CheckShapes() wrong batch error = %v, want ErrShapeMismatch", err)
	}
}
