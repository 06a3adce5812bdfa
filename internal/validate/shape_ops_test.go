package validate

import (
	"errors"
	"testing"

	"github.com/23skdu/longbow-nock/internal/ir"
)

func TestReshapeWildcards(t *testing.T) {
	tests := []struct {
		name    string
		dim     string
		wantErr bool
	}{
		{name: "no wildcard", dim: "2,3,4"},
		{name: "single wildcard", dim: "0,-1,4"},
		{name: "double wildcard", dim: "-1,-1,4", wantErr: true},
		{name: "below minus one", dim: "-2,3,4", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &ir.Layer{Name: "r", Kind: "Reshape", Params: map[string]string{"dim": tt.dim}}
			v := reshapeValidator{}
			if err := v.ParseParams(l); err != nil {
				t.Fatalf("ParseParams() error = %v", err)
			}
			err := v.CheckParams(l)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckParams() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrUnsupportedMode) {
				t.Errorf("error = %v, want ErrUnsupportedMode", err)
			}
		})
	}
}

func TestSplitDerivesOutSizes(t *testing.T) {
	l := &ir.Layer{
		Name:   "s",
		Kind:   "Split",
		Params: map[string]string{"axis": "1"},
		Inputs: []ir.TensorDesc{{Shape: ir.Shape{1, 10, 4}}},
		Outputs: []ir.TensorDesc{
			{Name: "a", Shape: ir.Shape{1, 4, 4}},
			{Name: "b", Shape: ir.Shape{1, 6, 4}},
		},
	}
	v := splitValidator{}
	if err := v.ParseParams(l); err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	if got := l.Params["out_sizes"]; got != "4,6" {
		t.Errorf("out_sizes = %q, want %q", got, "4,6")
	}
	if err := v.CheckParams(l); err != nil {
		t.Errorf("CheckParams() error = %v", err)
	}
}

func TestSplitSumCheckIsVersionGated(t *testing.T) {
	build := func(version int) *ir.Layer {
		return &ir.Layer{
			Name:          "s",
			Kind:          "Split",
			FormatVersion: version,
			Params:        map[string]string{"axis": "1"},
			Inputs:        []ir.TensorDesc{{Shape: ir.Shape{1, 10, 4}}},
			Outputs: []ir.TensorDesc{
				{Name: "a", Shape: ir.Shape{1, 4, 4}},
				{Name: "b", Shape: ir.Shape{1, 5, 4}},
			},
		}
	}

	v := splitValidator{}

	// Older formats skip the sum cross-check even when sizes disagree.
	l := build(3)
	if err := v.ParseParams(l); err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	if err := v.CheckShapes(l, l.InputShapes()); err != nil {
		t.Errorf("CheckShapes() v3 error = %v, want nil", err)
	}

	l = build(4)
	if err := v.ParseParams(l); err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	if err := v.CheckShapes(l, l.InputShapes()); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("CheckShapes() v4 error = %v, want ErrShapeMismatch", err)
	}
}

func TestSplitMissingOutputs(t *testing.T) {
	l := &ir.Layer{Name: "s", Kind: "Split", Params: map[string]string{"axis": "0"}}
	v := splitValidator{}
	if err := v.ParseParams(l); err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	if err := v.CheckParams(l); !errors.Is(err, ir.ErrMissingParameter) {
		t.Errorf("CheckParams() error = %v, want ErrMissingParameter", err)
	}
}

func TestConcatShapes(t *testing.T) {
	tests := []struct {
		name    string
		in      []ir.Shape
		axis    string
		wantErr bool
	}{
		{name: "differ only on axis", in: []ir.Shape{{1, 3, 8}, {1, 5, 8}}, axis: "1"},
		{name: "differ off axis", in: []ir.Shape{{1, 3, 8}, {1, 5, 9}}, axis: "1", wantErr: true},
		{name: "rank mismatch", in: []ir.Shape{{1, 3, 8}, {1, 3}}, axis: "1", wantErr: true},
		{name: "axis beyond rank", in: []ir.Shape{{1, 3}, {1, 5}}, axis: "2", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &ir.Layer{Name: "c", Kind: "Concat", Params: map[string]string{"axis": tt.axis}}
			v := concatValidator{}
			if err := v.ParseParams(l); err != nil {
				t.Fatalf("ParseParams() error = %v", err)
			}
			err := v.CheckShapes(l, tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckShapes() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCropOffsets(t *testing.T) {
	l := &ir.Layer{
		Name: "cr",
		Kind: "Crop",
		Params: map[string]string{
			"axis":   "2,3",
			"offset": "2,2",
			"dim":    "8,8",
		},
	}
	v := cropValidator{}
	if err := v.ParseParams(l); err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	if err := v.CheckParams(l); err != nil {
		t.Fatalf("CheckParams() error = %v", err)
	}
	if err := v.CheckShapes(l, []ir.Shape{{1, 3, 10, 10}}); err != nil {
		t.Errorf("CheckShapes() error = %v", err)
	}
	// offset 2 + size 8 exceeds extent 9.
	if err := v.CheckShapes(l, []ir.Shape{{1, 3, 9, 10}}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("CheckShapes() error = %v, want ErrShapeMismatch", err)
	}
}

func TestGemmCrossChecks(t *testing.T) {
	l := &ir.Layer{Name: "g", Kind: "Gemm", Params: map[string]string{}}
	v := gemmValidator{}
	if err := v.ParseParams(l); err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	if err := v.CheckShapes(l, []ir.Shape{{4, 5}, {5, 6}}); err != nil {
		t.Errorf("CheckShapes() error = %v", err)
	}
	if err := v.CheckShapes(l, []ir.Shape{{4, 5}, {7, 6}}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("CheckShapes() mismatched error = %v, want ErrShapeMismatch", err)
	}
	if err := v.CheckShapes(l, []ir.Shape{{4, 5}, {5, 6}, {4, 6}}); err != nil {
		t.Errorf("CheckShapes() with bias error = %v", err)
	}
	if err := v.CheckShapes(l, []ir.Shape{{4, 5}, {5, 6}, {3, 6}}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("CheckShapes() bad bias error = %v, want ErrShapeMismatch", err)
	}
}

func TestPadModes(t *testing.T) {
	build := func(mode string) *ir.Layer {
		return &ir.Layer{
			Name: "p",
			Kind: "Pad",
			Params: map[string]string{
				"pads_begin": "0,0,1,1",
				"pads_end":   "0,0,1,1",
				"pad_mode":   mode,
			},
		}
	}
	v := padValidator{}

	l := build("constant")
	if err := v.ParseParams(l); err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	if err := v.CheckShapes(l, []ir.Shape{{1, 3, 8, 8}}); err != nil {
		t.Errorf("CheckShapes() error = %v", err)
	}

	if err := v.ParseParams(build("bogus")); !errors.Is(err, ErrUnsupportedMode) {
		t.Errorf("ParseParams() error = %v, want ErrUnsupportedMode", err)
	}

	// Reflect padding wider than the dimension has nothing to mirror.
	l = build("reflect")
	if err := v.ParseParams(l); err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	if err := v.CheckShapes(l, []ir.Shape{{1, 3, 0, 8}}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("CheckShapes() error = %v, want ErrShapeMismatch", err)
	}
}

func TestShuffleChannelsDivisibility(t *testing.T) {
	l := &ir.Layer{
		Name:   "sc",
		Kind:   "ShuffleChannels",
		Params: map[string]string{"axis": "1", "group": "3"},
	}
	v := shuffleChannelsValidator{}
	if err := v.ParseParams(l); err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	if err := v.CheckShapes(l, []ir.Shape{{1, 9, 4, 4}}); err != nil {
		t.Errorf("CheckShapes() error = %v", err)
	}
	if err := v.CheckShapes(l, []ir.Shape{{1, 10, 4, 4}}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("CheckShapes() error = %v, want ErrShapeMismatch", err)
	}
}

func TestStridedSliceEllipsisMask(t *testing.T) {
	l := &ir.Layer{
		Name:   "ss",
		Kind:   "StridedSlice",
		Params: map[string]string{"ellipsis_mask": "0,1,0,1"},
	}
	v := stridedSliceValidator{}
	if err := v.ParseParams(l); err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	if err := v.CheckShapes(l, []ir.Shape{{1, 3, 8, 8}}); !errors.Is(err, ErrUnsupportedMode) {
		t.Errorf("CheckShapes() error = %v, want ErrUnsupportedMode", err)
	}
}

func TestReverseSequenceBatchMatch(t *testing.T) {
	l := &ir.Layer{Name: "rs", Kind: "ReverseSequence", Params: map[string]string{}}
	v := reverseSequenceValidator{}
	if err := v.ParseParams(l); err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	if err := v.CheckShapes(l, []ir.Shape{{4, 10, 8}, {4}}); err != nil {
		t.Errorf("CheckShapes() error = %v", err)
	}
	if err := v.CheckShapes(l, []ir.Shape{{4, 10, 8}, {5}}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("CheckShapes() error = %v, want ErrShapeMismatch", err)
	}
}
