package validate

import (
	"errors"
	"reflect"
	"testing"

	"github.com/23skdu/longbow-nock/internal/ir"
)

func convLayer(params map[string]string) *ir.Layer {
	return &ir.Layer{
		Name:   "conv1",
		Kind:   "Convolution",
		Params: params,
		Inputs: []ir.TensorDesc{{Shape: ir.Shape{1, 3, 32, 32}}},
	}
}

func TestConvolutionGenericFormReversesAxes(t *testing.T) {
	l := convLayer(map[string]string{
		"output":     "16",
		"kernel":     "3,5,7",
		"strides":    "1,2,3",
		"pads_begin": "0,1,2",
		"dilations":  "1,1,2",
	})

	v := convolutionValidator{}
	if err := v.ParseParams(l); err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	a := l.Attrs.(*ir.ConvAttrs)

	if !reflect.DeepEqual(a.Kernel, []int{7, 5, 3}) {
		t.Errorf("Kernel = %v, want [7 5 3]", a.Kernel)
	}
	if !reflect.DeepEqual(a.Strides, []int{3, 2, 1}) {
		t.Errorf("Strides = %v, want [3 2 1]", a.Strides)
	}
	if !reflect.DeepEqual(a.PadsBegin, []int{2, 1, 0}) {
		t.Errorf("PadsBegin = %v, want [2 1 0]", a.PadsBegin)
	}
	// pads_end defaults to pads_begin, reversed the same way.
	if !reflect.DeepEqual(a.PadsEnd, []int{2, 1, 0}) {
		t.Errorf("PadsEnd = %v, want [2 1 0]", a.PadsEnd)
	}
	if !reflect.DeepEqual(a.Dilations, []int{2, 1, 1}) {
		t.Errorf("Dilations = %v, want [2 1 1]", a.Dilations)
	}
}

func TestConvolutionGenericFormRejectsZeroStride(t *testing.T) {
	l := convLayer(map[string]string{
		"output":  "16",
		"kernel":  "3,3",
		"strides": "0,1",
	})
	err := convolutionValidator{}.ParseParams(l)
	if !errors.Is(err, ErrUnsupportedMode) {
		t.Errorf("ParseParams() error = %v, want ErrUnsupportedMode", err)
	}
}

func TestConvolutionLegacyFormCoercesZeroStride(t *testing.T) {
	l := convLayer(map[string]string{
		"output":   "16",
		"kernel-x": "3",
		"kernel-y": "3",
		"stride-x": "0",
	})
	v := convolutionValidator{}
	if err := v.ParseParams(l); err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	a := l.Attrs.(*ir.ConvAttrs)
	if !reflect.DeepEqual(a.Strides, []int{1, 1}) {
		t.Errorf("Strides = %v, want [1 1]", a.Strides)
	}
	if !reflect.DeepEqual(a.Kernel, []int{3, 3}) {
		t.Errorf("Kernel = %v, want [3 3]", a.Kernel)
	}
}

func TestConvolutionLegacyPadEndDefaults(t *testing.T) {
	l := convLayer(map[string]string{
		"output":   "16",
		"kernel-x": "3",
		"kernel-y": "3",
		"pad-x":    "2",
		"pad-y":    "1",
	})
	if err := (convolutionValidator{}).ParseParams(l); err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	a := l.Attrs.(*ir.ConvAttrs)
	if !reflect.DeepEqual(a.PadsBegin, []int{2, 1}) {
		t.Errorf("PadsBegin = %v, want [2 1]", a.PadsBegin)
	}
	if !reflect.DeepEqual(a.PadsEnd, []int{2, 1}) {
		t.Errorf("PadsEnd = %v, want pad-x/pad-y mirrored", a.PadsEnd)
	}
}

func TestConvolutionMissingKernel(t *testing.T) {
	l := convLayer(map[string]string{"output": "16"})
	err := convolutionValidator{}.ParseParams(l)
	if !errors.Is(err, ir.ErrMissingParameter) {
		t.Errorf("ParseParams() error = %v, want ErrMissingParameter", err)
	}
}

func TestConvolutionWeightCorrespondence(t *testing.T) {
	// 16 outputs, 3 input channels, 3x3 kernel, 1 group: 432 weight elements.
	tests := []struct {
		name    string
		weights int
		biases  int
		wantErr bool
	}{
		{name: "exact", weights: 432, biases: 16},
		{name: "weights one short", weights: 431, biases: 16, wantErr: true},
		{name: "weights one long", weights: 433, biases: 16, wantErr: true},
		{name: "biases mismatch", weights: 432, biases: 15, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := convLayer(map[string]string{
				"output": "16",
				"kernel": "3,3",
			})
			l.Blobs = map[string]*ir.Blob{
				"weights": {Elems: tt.weights},
				"biases":  {Elems: tt.biases},
			}
			v := convolutionValidator{}
			if err := v.ParseParams(l); err != nil {
				t.Fatalf("ParseParams() error = %v", err)
			}
			err := v.CheckCorrespondence(l, l.Blobs, l.InputShapes())
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckCorrespondence() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrWeightSizeMismatch) {
				t.Errorf("error = %v, want ErrWeightSizeMismatch", err)
			}
		})
	}
}

func TestConvolutionGroupsMustDivide(t *testing.T) {
	l := convLayer(map[string]string{
		"output": "16",
		"kernel": "3,3",
		"group":  "5",
	})
	l.Blobs = map[string]*ir.Blob{"weights": {Elems: 86}}
	v := convolutionValidator{}
	if err := v.ParseParams(l); err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	err := v.CheckCorrespondence(l, l.Blobs, l.InputShapes())
	if !errors.Is(err, ErrWeightSizeMismatch) {
		t.Errorf("CheckCorrespondence() error = %v, want ErrWeightSizeMismatch", err)
	}
}

func TestFullyConnectedKernelFromInput(t *testing.T) {
	l := &ir.Layer{
		Name:   "fc1",
		Kind:   "FullyConnected",
		Params: map[string]string{"out-size": "10"},
		Inputs: []ir.TensorDesc{{Shape: ir.Shape{1, 8, 4, 4}}},
	}
	// 10 outputs * 8 channels * 4 * 4 spatial = 1280.
	l.Blobs = map[string]*ir.Blob{
		"weights": {Elems: 1280},
		"biases":  {Elems: 10},
	}
	v := fullyConnectedValidator{}
	if err := v.ParseParams(l); err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	if err := v.CheckCorrespondence(l, l.Blobs, l.InputShapes()); err != nil {
		t.Errorf("CheckCorrespondence() error = %v", err)
	}

	l.Blobs["weights"].Elems = 1281
	if err := v.CheckCorrespondence(l, l.Blobs, l.InputShapes()); !errors.Is(err, ErrWeightSizeMismatch) {
		t.Errorf("CheckCorrespondence() error = %v, want ErrWeightSizeMismatch", err)
	}
}

func TestBinaryConvolutionMode(t *testing.T) {
	params := map[string]string{
		"input":  "3",
		"output": "16",
		"kernel": "3,3",
		"mode":   "xnor-popcount",
		"group":  "1",
	}
	l := &ir.Layer{Name: "bc", Kind: "BinaryConvolution", Params: params}
	if err := (binaryConvolutionValidator{}).ParseParams(l); err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	a := l.Attrs.(*ir.BinaryConvAttrs)
	if a.PadValue != -1 {
		t.Errorf("PadValue = %v, want -1", a.PadValue)
	}

	params["mode"] = "plain"
	l = &ir.Layer{Name: "bc", Kind: "BinaryConvolution", Params: params}
	if err := (binaryConvolutionValidator{}).ParseParams(l); !errors.Is(err, ErrUnsupportedMode) {
		t.Errorf("ParseParams() error = %v, want ErrUnsupportedMode", err)
	}
}

func TestReverseAxes(t *testing.T) {
	if got := reverseAxes([]int{3, 5, 7}); !reflect.DeepEqual(got, []int{7, 5, 3}) {
		t.Errorf("reverseAxes = %v, want [7 5 3]", got)
	}
	if got := reverseAxes(nil); len(got) != 0 {
		t.Errorf("reverseAxes(nil) = %v, want empty", got)
	}
}
