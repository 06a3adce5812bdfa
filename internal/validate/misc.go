package validate

import (
	"fmt"
	"strings"

	"github.com/23skdu/longbow-nock/internal/ir"
)

type batchNormValidator struct{}

func (batchNormValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "BatchNormalization"); err != nil {
		return err
	}
	eps, err := l.ParamFloat("epsilon")
	if err != nil {
		return err
	}
	l.Attrs = &ir.BatchNormAttrs{Epsilon: eps}
	return nil
}

func (batchNormValidator) CheckParams(l *ir.Layer) error {
	a, err := attrsOf[ir.BatchNormAttrs](l)
	if err != nil {
		return err
	}
	if a.Epsilon < 0 {
		return fmt.Errorf("%w: epsilon must be non-negative, got %v", ErrUnsupportedMode, a.Epsilon)
	}
	return nil
}

func (batchNormValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	return checkNumOfInput(in, []int{1})
}

type powerValidator struct{}

func (powerValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "Power"); err != nil {
		return err
	}
	offset, err := l.ParamFloat("shift")
	if err != nil {
		return err
	}
	power, err := l.ParamFloat("power")
	if err != nil {
		return err
	}
	scale, err := l.ParamFloat("scale")
	if err != nil {
		return err
	}
	l.Attrs = &ir.PowerAttrs{Power: power, Scale: scale, Offset: offset}
	return nil
}

func (powerValidator) CheckParams(l *ir.Layer) error { return nil }

func (powerValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	return checkNumOfInput(in, []int{1})
}

type preluValidator struct{}

func (preluValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "PReLU"); err != nil {
		return err
	}
	shared, err := l.ParamBoolDef("channel_shared", false)
	if err != nil {
		return err
	}
	l.Attrs = &ir.PReLUAttrs{ChannelShared: shared}
	return nil
}

func (preluValidator) CheckParams(l *ir.Layer) error { return nil }

func (preluValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	return checkNumOfInput(in, []int{1})
}

type scaleShiftValidator struct{}

func (scaleShiftValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "ScaleShift"); err != nil {
		return err
	}
	a := &ir.ScaleShiftAttrs{Broadcast: 2}
	if len(l.Params) > 0 {
		b, err := l.ParamUintDef("broadcast", 2)
		if err != nil {
			return err
		}
		a.Broadcast = b
	}
	l.Attrs = a
	return nil
}

func (scaleShiftValidator) CheckParams(l *ir.Layer) error { return nil }

func (scaleShiftValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	return checkNumOfInput(in, []int{1})
}

type tileValidator struct{}

func (tileValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "Tile"); err != nil {
		return err
	}
	axis, err := l.ParamIntDef("axis", -1)
	if err != nil {
		return err
	}
	tiles, err := l.ParamIntDef("tiles", -1)
	if err != nil {
		return err
	}
	l.Attrs = &ir.TileAttrs{Axis: axis, Tiles: tiles}
	return nil
}

func (tileValidator) CheckParams(l *ir.Layer) error {
	a, err := attrsOf[ir.TileAttrs](l)
	if err != nil {
		return err
	}
	if a.Axis < 0 && a.Tiles < 0 {
		return fmt.Errorf("%w: tile axis and tiles are both unset", ErrUnsupportedMode)
	}
	return nil
}

func (tileValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	return checkNumOfInput(in, []int{1})
}

type clampValidator struct{}

func (clampValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "Clamp"); err != nil {
		return err
	}
	min, err := l.ParamFloat("min")
	if err != nil {
		return err
	}
	max, err := l.ParamFloat("max")
	if err != nil {
		return err
	}
	l.Attrs = &ir.ClampAttrs{Min: min, Max: max}
	return nil
}

func (clampValidator) CheckParams(l *ir.Layer) error { return nil }

func (clampValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	return checkNumOfInput(in, []int{1})
}

type reluValidator struct{}

func (reluValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "ReLU"); err != nil {
		return err
	}
	a := &ir.ReLUAttrs{}
	if l.HasParam("negative_slope") {
		slope, err := l.ParamFloat("negative_slope")
		if err != nil {
			return err
		}
		a.NegativeSlope = slope
	}
	l.Attrs = a
	return nil
}

func (reluValidator) CheckParams(l *ir.Layer) error {
	a, err := attrsOf[ir.ReLUAttrs](l)
	if err != nil {
		return err
	}
	if a.NegativeSlope < 0 {
		return fmt.Errorf("%w: negative_slope must be non-negative, got %v", ErrUnsupportedMode, a.NegativeSlope)
	}
	return nil
}

func (reluValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	return checkNumOfInput(in, []int{1, 2})
}

type mvnValidator struct{}

func (mvnValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "MVN"); err != nil {
		return err
	}
	across, err := l.ParamIntDef("across_channels", 0)
	if err != nil {
		return err
	}
	normalize, err := l.ParamIntDef("normalize_variance", 1)
	if err != nil {
		return err
	}
	l.Attrs = &ir.MVNAttrs{AcrossChannels: across, Normalize: normalize}
	return nil
}

func (mvnValidator) CheckParams(l *ir.Layer) error { return nil }

func (mvnValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	return checkNumOfInput(in, []int{1})
}

type grnValidator struct{}

func (grnValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "GRN"); err != nil {
		return err
	}
	bias, err := l.ParamFloatDef("bias", 0)
	if err != nil {
		return err
	}
	l.Attrs = &ir.GRNAttrs{Bias: bias}
	return nil
}

func (grnValidator) CheckParams(l *ir.Layer) error { return nil }

func (grnValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	return checkNumOfInput(in, []int{1})
}

type softMaxValidator struct{}

func (softMaxValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "SoftMax"); err != nil {
		return err
	}
	axis, err := l.ParamIntDef("axis", 1)
	if err != nil {
		return err
	}
	l.Attrs = &ir.SoftMaxAttrs{Axis: axis}
	return nil
}

func (softMaxValidator) CheckParams(l *ir.Layer) error {
	a, err := attrsOf[ir.SoftMaxAttrs](l)
	if err != nil {
		return err
	}
	if a.Axis < 0 {
		return fmt.Errorf("%w: softmax axis must be non-negative, got %d", ErrUnsupportedMode, a.Axis)
	}
	return nil
}

func (softMaxValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	return checkNumOfInput(in, []int{1})
}

type normValidator struct{}

// Local response normalization. "local_size" and "local-size" are alternate
// spellings from different producers; the values are summed so whichever is
// present wins.
func (normValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "Norm", "LRN"); err != nil {
		return err
	}
	size1, err := l.ParamUintDef("local_size", 0)
	if err != nil {
		return err
	}
	size2, err := l.ParamUintDef("local-size", 0)
	if err != nil {
		return err
	}
	k, err := l.ParamUintDef("k", 1)
	if err != nil {
		return err
	}
	alpha, err := l.ParamFloat("alpha")
	if err != nil {
		return err
	}
	beta, err := l.ParamFloat("beta")
	if err != nil {
		return err
	}
	region, err := l.ParamString("region")
	if err != nil {
		return err
	}
	l.Attrs = &ir.NormAttrs{
		Size:       size1 + size2,
		K:          k,
		Alpha:      alpha,
		Beta:       beta,
		AcrossMaps: strings.EqualFold(region, "across"),
	}
	return nil
}

func (normValidator) CheckParams(l *ir.Layer) error {
	a, err := attrsOf[ir.NormAttrs](l)
	if err != nil {
		return err
	}
	if a.Alpha < 0 && a.Beta < 0 {
		return fmt.Errorf("%w: norm alpha or beta is invalid", ErrUnsupportedMode)
	}
	return nil
}

func (normValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	return checkNumOfInput(in, []int{1})
}

type eltwiseValidator struct{}

// The empty operation string maps to sum for files predating the explicit
// operation attribute.
var eltwiseOps = map[string]ir.EltwiseOp{
	"":              ir.EltwiseSum,
	"sum":           ir.EltwiseSum,
	"mul":           ir.EltwiseProd,
	"prod":          ir.EltwiseProd,
	"max":           ir.EltwiseMax,
	"sub":           ir.EltwiseSub,
	"div":           ir.EltwiseDiv,
	"min":           ir.EltwiseMin,
	"squared_diff":  ir.EltwiseSquaredDiff,
	"equal":         ir.EltwiseEqual,
	"not_equal":     ir.EltwiseNotEqual,
	"less":          ir.EltwiseLess,
	"less_equal":    ir.EltwiseLessEqual,
	"greater":       ir.EltwiseGreater,
	"greater_equal": ir.EltwiseGreaterEqual,
	"logical_and":   ir.EltwiseLogicalAnd,
	"logical_or":    ir.EltwiseLogicalOr,
	"logical_xor":   ir.EltwiseLogicalXor,
	"floor_mod":     ir.EltwiseFloorMod,
	"pow":           ir.EltwisePow,
}

func (eltwiseValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "Eltwise"); err != nil {
		return err
	}
	name := l.ParamStringDef("operation", "sum")
	op, ok := eltwiseOps[name]
	if !ok {
		return fmt.Errorf("%w: element wise operation %q", ErrUnsupportedOperation, name)
	}
	coeff, err := l.ParamFloatsDef("coeff", []float32{})
	if err != nil {
		return err
	}
	l.Attrs = &ir.EltwiseAttrs{Op: op, Coeff: coeff}
	return nil
}

func (eltwiseValidator) CheckParams(l *ir.Layer) error {
	_, err := attrsOf[ir.EltwiseAttrs](l)
	return err
}

func (eltwiseValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	if len(in) == 0 {
		return fmt.Errorf("%w: eltwise layer has zero inputs", ErrShapeMismatch)
	}
	return nil
}

type quantizeValidator struct{}

func (quantizeValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "Quantize"); err != nil {
		return err
	}
	levels, err := l.ParamIntDef("levels", 1)
	if err != nil {
		return err
	}
	if levels <= 1 {
		return fmt.Errorf("%w: quantize levels = %d, expected > 1", ErrUnsupportedMode, levels)
	}
	l.Attrs = &ir.QuantizeAttrs{Levels: levels}
	return nil
}

func (quantizeValidator) CheckParams(l *ir.Layer) error {
	_, err := attrsOf[ir.QuantizeAttrs](l)
	return err
}

func (quantizeValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	if err := checkNumOfInput(in, []int{5}); err != nil {
		return err
	}
	if len(in[0]) < 1 {
		return fmt.Errorf("%w: quantize data input must have at least 1 dimension", ErrShapeMismatch)
	}
	return nil
}

type memoryValidator struct{}

func (memoryValidator) ParseParams(l *ir.Layer) error {
	return expectKind(l, "Memory")
}

func (memoryValidator) CheckParams(l *ir.Layer) error {
	size, err := l.ParamInt("size")
	if err != nil {
		return err
	}
	if size != 2 {
		return fmt.Errorf("%w: memory size = %d, expected 2", ErrUnsupportedMode, size)
	}
	return nil
}

func (memoryValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	return checkNumOfInput(in, []int{1, 0})
}

type normalizeValidator struct{}

func (normalizeValidator) ParseParams(l *ir.Layer) error {
	return expectKind(l, "Normalize")
}

func (normalizeValidator) CheckParams(l *ir.Layer) error {
	if l.HasParam("eps") {
		eps, err := l.ParamFloat("eps")
		if err != nil {
			return err
		}
		if eps < 0 {
			return fmt.Errorf("%w: eps must be non-negative, got %v", ErrUnsupportedMode, eps)
		}
	}
	return nil
}

func (normalizeValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	return checkNumOfInput(in, []int{1})
}

// unaryValidator covers the pass-through activation kinds that only constrain
// the input cardinality.
type unaryValidator struct {
	kinds   []string
	allowed []int
}

func (v unaryValidator) ParseParams(l *ir.Layer) error {
	return expectKind(l, v.kinds...)
}

func (v unaryValidator) CheckParams(l *ir.Layer) error { return nil }

func (v unaryValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	return checkNumOfInput(in, v.allowed)
}
