package validate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/23skdu/longbow-nock/internal/ir"
)

type reshapeValidator struct{}

// Reshape and Flatten share a validator; Flatten spells the same operation
// with axis/end_axis instead of an explicit dim mask.
func (reshapeValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "Reshape", "Flatten"); err != nil {
		return err
	}
	a := &ir.ReshapeAttrs{}
	if len(l.Params) > 0 {
		if l.Kind == "Flatten" {
			numAxes, err := l.ParamIntDef("end_axis", -1)
			if err != nil {
				return err
			}
			axis, err := l.ParamIntDef("axis", 0)
			if err != nil {
				return err
			}
			a.NumAxes = numAxes
			a.Axis = axis
		} else {
			shape, err := l.ParamIntsDef("dim", []int{})
			if err != nil {
				return err
			}
			a.Shape = shape
		}
	}
	l.Attrs = a
	return nil
}

func (reshapeValidator) CheckParams(l *ir.Layer) error {
	a, err := attrsOf[ir.ReshapeAttrs](l)
	if err != nil {
		return err
	}
	wildcards := 0
	for _, dim := range a.Shape {
		if dim < -1 {
			return fmt.Errorf("%w: reshape dim %d, supported values: 0, -1, >0", ErrUnsupportedMode, dim)
		}
		if dim == -1 {
			wildcards++
		}
	}
	if wildcards > 1 {
		return fmt.Errorf("%w: at most one reshape dim can be -1", ErrUnsupportedMode)
	}
	return nil
}

func (reshapeValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error { return nil }

type splitValidator struct{}

// ParseParams has a derived side effect: the extent of every output along the
// split axis is written back into the parameter map as "out_sizes", where
// CheckParams and CheckShapes re-read it.
func (splitValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "Split", "Slice"); err != nil {
		return err
	}
	axis, err := l.ParamUintDef("axis", 1)
	if err != nil {
		return err
	}
	l.Attrs = &ir.SplitAttrs{Axis: axis}

	var sizes []string
	for _, out := range l.Outputs {
		if len(out.Shape) <= axis {
			return fmt.Errorf("%w: output %q rank %d does not cover split axis %d",
				ErrShapeMismatch, out.Name, len(out.Shape), axis)
		}
		sizes = append(sizes, strconv.Itoa(out.Shape[axis]))
	}
	if len(sizes) > 0 {
		if l.Params == nil {
			l.Params = map[string]string{}
		}
		l.Params["out_sizes"] = strings.Join(sizes, ",")
	}
	return nil
}

func (splitValidator) CheckParams(l *ir.Layer) error {
	outSizes, err := l.ParamIntsDef("out_sizes", []int{})
	if err != nil {
		return err
	}
	if len(outSizes) == 0 {
		return fmt.Errorf("%w: %q", ir.ErrMissingParameter, "out_sizes")
	}
	return nil
}

// The out_sizes sum cross-check only applies to newer format versions; older
// files carried unreliable output descriptors and skip it.
func (splitValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	a, err := attrsOf[ir.SplitAttrs](l)
	if err != nil {
		return err
	}
	if err := checkNumOfInput(in, []int{1}); err != nil {
		return err
	}
	if l.FormatVersion > 3 {
		outSizes, err := l.ParamIntsDef("out_sizes", []int{})
		if err != nil {
			return err
		}
		sum := 0
		for _, size := range outSizes {
			sum += size
		}
		if len(in[0]) <= a.Axis {
			return fmt.Errorf("%w: input rank %d does not cover split axis %d", ErrShapeMismatch, len(in[0]), a.Axis)
		}
		if sum != in[0][a.Axis] {
			return fmt.Errorf("%w: sum of out_sizes %v is not equal to input extent %d on axis %d",
				ErrShapeMismatch, outSizes, in[0][a.Axis], a.Axis)
		}
	}
	return nil
}

type concatValidator struct{}

func (concatValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "Concat"); err != nil {
		return err
	}
	axis, err := l.ParamUintDef("axis", 1)
	if err != nil {
		return err
	}
	l.Attrs = &ir.ConcatAttrs{Axis: axis}
	return nil
}

func (concatValidator) CheckParams(l *ir.Layer) error { return nil }

func (concatValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	a, err := attrsOf[ir.ConcatAttrs](l)
	if err != nil {
		return err
	}
	if len(in) == 0 {
		return fmt.Errorf("%w: concat inputs are empty", ErrShapeMismatch)
	}
	first := in[0]
	if a.Axis >= len(first) {
		return fmt.Errorf("%w: concat axis %d should be less than input rank %d", ErrShapeMismatch, a.Axis, len(first))
	}
	for i := 1; i < len(in); i++ {
		shape := in[i]
		if len(shape) != len(first) {
			return fmt.Errorf("%w: concat input ranks must match: %d vs %d", ErrShapeMismatch, len(first), len(shape))
		}
		for d := range first {
			if d == a.Axis {
				continue
			}
			if shape[d] != first[d] {
				return fmt.Errorf("%w: concat inputs must match in all positions except axis %d: %v vs %v",
					ErrShapeMismatch, a.Axis, first, shape)
			}
		}
	}
	return nil
}

type cropValidator struct{}

// Crop has two serialized encodings: axis/offset/dim triples, or axis with
// crop_begin (which fills the offsets). The two-input form takes the output
// extents from the second input instead of dim.
func (cropValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "Crop"); err != nil {
		return err
	}
	a := &ir.CropAttrs{}
	axes, err := l.ParamInts("axis")
	if err != nil {
		return err
	}
	a.Axes = axes
	if l.HasParam("offset") {
		offsets, err := l.ParamInts("offset")
		if err != nil {
			return err
		}
		a.Offsets = offsets
	}
	if l.HasParam("dim") {
		dims, err := l.ParamInts("dim")
		if err != nil {
			return err
		}
		a.Dims = dims
	}
	if l.HasParam("crop_begin") {
		offsets, err := l.ParamInts("crop_begin")
		if err != nil {
			return err
		}
		a.Offsets = offsets
	}
	l.Attrs = a
	return nil
}

func (cropValidator) CheckParams(l *ir.Layer) error {
	a, err := attrsOf[ir.CropAttrs](l)
	if err != nil {
		return err
	}
	if len(a.Axes) != len(a.Offsets) {
		return fmt.Errorf("%w: crop axis count %d does not match offset count %d",
			ErrUnsupportedMode, len(a.Axes), len(a.Offsets))
	}
	return nil
}

func (cropValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	a, err := attrsOf[ir.CropAttrs](l)
	if err != nil {
		return err
	}
	if err := checkNumOfInput(in, []int{1, 2}); err != nil {
		return err
	}
	first := in[0]
	for i, axis := range a.Axes {
		offset := a.Offsets[i]
		if axis >= len(first) {
			return fmt.Errorf("%w: crop axis %d should be less than first input rank %d", ErrShapeMismatch, axis, len(first))
		}
		if len(in) == 2 {
			if l.HasParam("crop_begin") {
				return fmt.Errorf("%w: crop_begin and crop_end attributes are valid for single input only", ErrUnsupportedMode)
			}
			second := in[1]
			if axis >= len(second) {
				return fmt.Errorf("%w: crop axis %d should be less than second input rank %d", ErrShapeMismatch, axis, len(second))
			}
			if first[axis] < offset+second[axis] {
				return fmt.Errorf("%w: crop offset %d plus output size %d exceeds input size %d on axis %d",
					ErrShapeMismatch, offset, second[axis], first[axis], axis)
			}
		} else if len(a.Dims) > i {
			if first[axis] < offset+a.Dims[i] {
				return fmt.Errorf("%w: crop offset %d plus output size %d exceeds input size %d on axis %d",
					ErrShapeMismatch, offset, a.Dims[i], first[axis], axis)
			}
		}
	}
	return nil
}

type gemmValidator struct{}

func (gemmValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "Gemm"); err != nil {
		return err
	}
	alpha, err := l.ParamFloatDef("alpha", 1)
	if err != nil {
		return err
	}
	beta, err := l.ParamFloatDef("beta", 1)
	if err != nil {
		return err
	}
	ta, err := l.ParamBoolDef("transpose_a", false)
	if err != nil {
		return err
	}
	tb, err := l.ParamBoolDef("transpose_b", false)
	if err != nil {
		return err
	}
	l.Attrs = &ir.GemmAttrs{Alpha: alpha, Beta: beta, TransposeA: ta, TransposeB: tb}
	return nil
}

func (gemmValidator) CheckParams(l *ir.Layer) error { return nil }

func (gemmValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	if err := checkNumOfInput(in, []int{2, 3}); err != nil {
		return err
	}
	dims0, dims1 := in[0], in[1]
	if len(dims0) < 2 || len(dims1) < 2 {
		return fmt.Errorf("%w: gemm input shapes must have at least 2 dimensions", ErrShapeMismatch)
	}
	xAxis := len(dims0) - 1
	yAxis := len(dims0) - 2
	if dims0[xAxis] != dims1[yAxis] {
		return fmt.Errorf("%w: gemm input0 x dimension must equal input1 y dimension (%d vs %d)",
			ErrShapeMismatch, dims0[xAxis], dims1[yAxis])
	}
	if len(in) == 3 {
		dims2 := in[2]
		if len(dims2) < 2 {
			return fmt.Errorf("%w: gemm input shapes must have at least 2 dimensions", ErrShapeMismatch)
		}
		if dims2[xAxis] != dims1[xAxis] {
			return fmt.Errorf("%w: gemm input2 x dimension must equal input1 x dimension (%d vs %d)",
				ErrShapeMismatch, dims2[xAxis], dims1[xAxis])
		}
		if dims2[yAxis] != dims0[yAxis] {
			return fmt.Errorf("%w: gemm input2 y dimension must equal input0 y dimension (%d vs %d)",
				ErrShapeMismatch, dims2[yAxis], dims0[yAxis])
		}
	}
	return nil
}

type padValidator struct{}

func (padValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "Pad"); err != nil {
		return err
	}
	padsBegin, err := l.ParamUints("pads_begin")
	if err != nil {
		return err
	}
	padsEnd, err := l.ParamUints("pads_end")
	if err != nil {
		return err
	}
	padValue, err := l.ParamFloatDef("pad_value", 0)
	if err != nil {
		return err
	}
	a := &ir.PadAttrs{PadsBegin: padsBegin, PadsEnd: padsEnd, PadValue: padValue}
	switch mode := l.ParamStringDef("pad_mode", "constant"); mode {
	case "constant":
		a.Mode = ir.PadConstant
	case "edge":
		a.Mode = ir.PadEdge
	case "reflect":
		a.Mode = ir.PadReflect
	case "symmetric":
		a.Mode = ir.PadSymmetric
	default:
		return fmt.Errorf("%w: pad mode %q", ErrUnsupportedMode, mode)
	}
	l.Attrs = a
	return nil
}

func (padValidator) CheckParams(l *ir.Layer) error { return nil }

func (padValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	a, err := attrsOf[ir.PadAttrs](l)
	if err != nil {
		return err
	}
	if err := checkNumOfInput(in, []int{1}); err != nil {
		return err
	}
	if len(in[0]) != len(a.PadsBegin) {
		return fmt.Errorf("%w: pads_begin count %d does not match input rank %d", ErrShapeMismatch, len(a.PadsBegin), len(in[0]))
	}
	if len(in[0]) != len(a.PadsEnd) {
		return fmt.Errorf("%w: pads_end count %d does not match input rank %d", ErrShapeMismatch, len(a.PadsEnd), len(in[0]))
	}
	// Symmetric and reflect modes mirror existing elements, so a pad extent
	// wider than the dimension has nothing to mirror from.
	if a.Mode == ir.PadSymmetric || a.Mode == ir.PadReflect {
		for i := range in[0] {
			if in[0][i] < a.PadsBegin[i] {
				return fmt.Errorf("%w: pad_begin %d exceeds input extent %d on dimension %d",
					ErrShapeMismatch, a.PadsBegin[i], in[0][i], i)
			}
			if in[0][i] < a.PadsEnd[i] {
				return fmt.Errorf("%w: pad_end %d exceeds input extent %d on dimension %d",
					ErrShapeMismatch, a.PadsEnd[i], in[0][i], i)
			}
		}
	}
	return nil
}

type gatherValidator struct{}

func (gatherValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "Gather"); err != nil {
		return err
	}
	axis, err := l.ParamIntDef("axis", 0)
	if err != nil {
		return err
	}
	l.Attrs = &ir.GatherAttrs{Axis: axis}
	return nil
}

func (gatherValidator) CheckParams(l *ir.Layer) error { return nil }

func (gatherValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	a, err := attrsOf[ir.GatherAttrs](l)
	if err != nil {
		return err
	}
	if err := checkNumOfInput(in, []int{2}); err != nil {
		return err
	}
	if err := checkAxis(a.Axis, len(in[0])); err != nil {
		return fmt.Errorf("gather: %w", err)
	}
	return nil
}

// checkAxis validates an axis against a rank with negative wraparound.
func checkAxis(axis, rank int) error {
	if axis > 0 && rank < axis+1 {
		return fmt.Errorf("%w: axis %d does not fit input rank %d", ErrShapeMismatch, axis, rank)
	}
	if axis < 0 && rank+axis < 0 {
		return fmt.Errorf("%w: axis %d does not fit input rank %d", ErrShapeMismatch, axis, rank)
	}
	return nil
}

type stridedSliceValidator struct{}

func (stridedSliceValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "StridedSlice"); err != nil {
		return err
	}
	l.Attrs = &ir.StridedSliceAttrs{
		BeginMask:      l.ParamStringDef("begin_mask", ""),
		EndMask:        l.ParamStringDef("end_mask", ""),
		EllipsisMask:   l.ParamStringDef("ellipsis_mask", ""),
		NewAxisMask:    l.ParamStringDef("new_axis_mask", ""),
		ShrinkAxisMask: l.ParamStringDef("shrink_axis_mask", ""),
	}
	return nil
}

func (stridedSliceValidator) CheckParams(l *ir.Layer) error { return nil }

func (stridedSliceValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	a, err := attrsOf[ir.StridedSliceAttrs](l)
	if err != nil {
		return err
	}
	if len(in) > 4 {
		return fmt.Errorf("%w: strided slice can take up to 4 inputs, got %d", ErrShapeMismatch, len(in))
	}
	if strings.Count(a.EllipsisMask, "1") > 1 {
		return fmt.Errorf("%w: ellipsis_mask may contain at most one 1", ErrUnsupportedMode)
	}
	return nil
}

type shuffleChannelsValidator struct{}

func (shuffleChannelsValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "ShuffleChannels"); err != nil {
		return err
	}
	axis, err := l.ParamIntDef("axis", 1)
	if err != nil {
		return err
	}
	group, err := l.ParamUintDef("group", 1)
	if err != nil {
		return err
	}
	l.Attrs = &ir.ShuffleChannelsAttrs{Axis: axis, Group: group}
	return nil
}

func (shuffleChannelsValidator) CheckParams(l *ir.Layer) error { return nil }

func (shuffleChannelsValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	a, err := attrsOf[ir.ShuffleChannelsAttrs](l)
	if err != nil {
		return err
	}
	if err := checkNumOfInput(in, []int{1}); err != nil {
		return err
	}
	if err := checkAxis(a.Axis, len(in[0])); err != nil {
		return fmt.Errorf("shuffle channels: %w", err)
	}
	axis := a.Axis
	if axis < 0 {
		axis += len(in[0])
	}
	if a.Group == 0 || in[0][axis]%a.Group != 0 {
		return fmt.Errorf("%w: group %d must evenly divide the channel dimension %d", ErrShapeMismatch, a.Group, in[0][axis])
	}
	dataLength := 1
	for i := axis + 1; i < len(in[0]); i++ {
		dataLength *= in[0][i]
	}
	if dataLength == 0 {
		return fmt.Errorf("%w: zero-sized dimension after shuffle axis", ErrShapeMismatch)
	}
	return nil
}

type depthToSpaceValidator struct{}

func (depthToSpaceValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "DepthToSpace"); err != nil {
		return err
	}
	block, err := l.ParamUintDef("block_size", 1)
	if err != nil {
		return err
	}
	l.Attrs = &ir.BlockAttrs{BlockSize: block}
	return nil
}

func (depthToSpaceValidator) CheckParams(l *ir.Layer) error { return nil }

func (depthToSpaceValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	a, err := attrsOf[ir.BlockAttrs](l)
	if err != nil {
		return err
	}
	if err := checkNumOfInput(in, []int{1}); err != nil {
		return err
	}
	if len(in[0]) < 3 {
		return fmt.Errorf("%w: depth to space needs at least 3 input dimensions", ErrShapeMismatch)
	}
	if a.BlockSize == 0 {
		return fmt.Errorf("%w: block_size is zero", ErrUnsupportedMode)
	}
	if in[0][len(in[0])-3]%(a.BlockSize*a.BlockSize) != 0 {
		return fmt.Errorf("%w: block_size %d is incompatible with the channel dimension", ErrShapeMismatch, a.BlockSize)
	}
	return nil
}

type spaceToDepthValidator struct{}

func (spaceToDepthValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "SpaceToDepth"); err != nil {
		return err
	}
	block, err := l.ParamUintDef("block_size", 1)
	if err != nil {
		return err
	}
	l.Attrs = &ir.BlockAttrs{BlockSize: block}
	return nil
}

func (spaceToDepthValidator) CheckParams(l *ir.Layer) error { return nil }

func (spaceToDepthValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	a, err := attrsOf[ir.BlockAttrs](l)
	if err != nil {
		return err
	}
	if err := checkNumOfInput(in, []int{1}); err != nil {
		return err
	}
	if len(in[0]) < 2 {
		return fmt.Errorf("%w: space to depth needs at least 2 input dimensions", ErrShapeMismatch)
	}
	if a.BlockSize == 0 {
		return fmt.Errorf("%w: block_size is zero", ErrUnsupportedMode)
	}
	if in[0][len(in[0])-1]%a.BlockSize != 0 {
		return fmt.Errorf("%w: block_size %d is incompatible with the width dimension", ErrShapeMismatch, a.BlockSize)
	}
	if in[0][len(in[0])-2]%a.BlockSize != 0 {
		return fmt.Errorf("%w: block_size %d is incompatible with the height dimension", ErrShapeMismatch, a.BlockSize)
	}
	return nil
}

type reverseSequenceValidator struct{}

func (reverseSequenceValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "ReverseSequence"); err != nil {
		return err
	}
	seqAxis, err := l.ParamIntDef("seq_axis", 1)
	if err != nil {
		return err
	}
	batchAxis, err := l.ParamIntDef("batch_axis", 0)
	if err != nil {
		return err
	}
	l.Attrs = &ir.ReverseSequenceAttrs{SeqAxis: seqAxis, BatchAxis: batchAxis}
	return nil
}

func (reverseSequenceValidator) CheckParams(l *ir.Layer) error { return nil }

func (reverseSequenceValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	a, err := attrsOf[ir.ReverseSequenceAttrs](l)
	if err != nil {
		return err
	}
	if err := checkNumOfInput(in, []int{2}); err != nil {
		return err
	}
	if len(in[1]) != 1 {
		return fmt.Errorf("%w: seq_lengths input must be 1-D", ErrShapeMismatch)
	}
	if err := checkAxis(a.SeqAxis, len(in[0])); err != nil {
		return fmt.Errorf("reverse sequence seq_axis: %w", err)
	}
	if err := checkAxis(a.BatchAxis, len(in[0])); err != nil {
		return fmt.Errorf("reverse sequence batch_axis: %w", err)
	}
	batchAxis := a.BatchAxis
	if batchAxis < 0 {
		batchAxis += len(in[0])
	}
	if in[1][0] != in[0][batchAxis] {
		return fmt.Errorf("%w: seq_lengths extent %d does not match batch dimension %d", ErrShapeMismatch, in[1][0], in[0][batchAxis])
	}
	return nil
}

type permuteValidator struct{}

func (permuteValidator) ParseParams(l *ir.Layer) error {
	return expectKind(l, "Permute")
}

func (permuteValidator) CheckParams(l *ir.Layer) error {
	_, err := l.ParamUints("order")
	return err
}

func (permuteValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	return checkNumOfInput(in, []int{1})
}

// twoInputIndexValidator covers kinds taking a data tensor plus a 1-D index
// vector (Squeeze, Unsqueeze, Expand, Fill).
type twoInputIndexValidator struct {
	kind      string
	indexName string
	indexPos  int
}

func (v twoInputIndexValidator) ParseParams(l *ir.Layer) error {
	return expectKind(l, v.kind)
}

func (v twoInputIndexValidator) CheckParams(l *ir.Layer) error { return nil }

func (v twoInputIndexValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	if err := checkNumOfInput(in, []int{2}); err != nil {
		return err
	}
	if len(in[v.indexPos]) != 1 {
		return fmt.Errorf("%w: %s input must be 1-D", ErrShapeMismatch, v.indexName)
	}
	return nil
}

type fillValidator struct{}

func (fillValidator) ParseParams(l *ir.Layer) error {
	return expectKind(l, "Fill")
}

func (fillValidator) CheckParams(l *ir.Layer) error { return nil }

func (fillValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	if err := checkNumOfInput(in, []int{2}); err != nil {
		return err
	}
	if len(in[0]) != 1 {
		return fmt.Errorf("%w: fill_dims input must be 1-D", ErrShapeMismatch)
	}
	if len(in[1]) != 1 {
		return fmt.Errorf("%w: fill_value input must be 1-D", ErrShapeMismatch)
	}
	return nil
}

type rangeValidator struct{}

func (rangeValidator) ParseParams(l *ir.Layer) error {
	return expectKind(l, "Range")
}

func (rangeValidator) CheckParams(l *ir.Layer) error { return nil }

func (rangeValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	if err := checkNumOfInput(in, []int{3}); err != nil {
		return err
	}
	for i, name := range []string{"start", "limit", "delta"} {
		if len(in[i]) != 1 {
			return fmt.Errorf("%w: %s input must be 1-D", ErrShapeMismatch, name)
		}
	}
	return nil
}
