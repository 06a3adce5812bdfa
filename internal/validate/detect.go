package validate

import (
	"fmt"

	"github.com/23skdu/longbow-nock/internal/ir"
)

// Detection and vision-specific kinds. These carry no derived attribute
// payload; validation is a parameter screen plus a cardinality check.

type argMaxValidator struct{}

func (argMaxValidator) ParseParams(l *ir.Layer) error {
	return expectKind(l, "ArgMax")
}

func (argMaxValidator) CheckParams(l *ir.Layer) error {
	_, err := l.ParamUint("top_k")
	return err
}

func (argMaxValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	return checkNumOfInput(in, []int{1})
}

type ctcGreedyDecoderValidator struct{}

func (ctcGreedyDecoderValidator) ParseParams(l *ir.Layer) error {
	return expectKind(l, "CTCGreedyDecoder")
}

func (ctcGreedyDecoderValidator) CheckParams(l *ir.Layer) error {
	flag, err := l.ParamIntDef("ctc_merge_repeated", 0)
	if err != nil {
		return err
	}
	if flag != 0 && flag != 1 {
		return fmt.Errorf("%w: ctc_merge_repeated = %d, expected 0 or 1", ErrUnsupportedMode, flag)
	}
	return nil
}

func (ctcGreedyDecoderValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	return checkNumOfInput(in, []int{1, 2})
}

type detectionOutputValidator struct{}

func (detectionOutputValidator) ParseParams(l *ir.Layer) error {
	return expectKind(l, "DetectionOutput")
}

func (detectionOutputValidator) CheckParams(l *ir.Layer) error {
	numClasses, err := l.ParamUint("num_classes")
	if err != nil {
		return err
	}
	if numClasses == 0 {
		return fmt.Errorf("%w: num_classes can't be zero", ErrUnsupportedMode)
	}
	nmsThreshold, err := l.ParamFloat("nms_threshold")
	if err != nil {
		return err
	}
	if nmsThreshold < 0 {
		return fmt.Errorf("%w: nms_threshold can't be negative", ErrUnsupportedMode)
	}
	if _, err := l.ParamIntDef("keep_top_k", -1); err != nil {
		return err
	}
	for _, key := range []string{"background_label_id", "top_k", "num_orient_classes", "interpolate_orientation"} {
		if l.HasParam(key) {
			if _, err := l.ParamInt(key); err != nil {
				return err
			}
		}
	}
	for _, key := range []string{"variance_encoded_in_target", "share_location"} {
		if l.HasParam(key) {
			if _, err := l.ParamUint(key); err != nil {
				return err
			}
		}
	}
	if l.HasParam("confidence_threshold") {
		threshold, err := l.ParamFloat("confidence_threshold")
		if err != nil {
			return err
		}
		if threshold < 0 {
			return fmt.Errorf("%w: confidence_threshold can't be negative", ErrUnsupportedMode)
		}
	}
	if l.HasParam("code_type") {
		switch codeType := l.ParamStringDef("code_type", ""); codeType {
		case "caffe.PriorBoxParameter.CENTER_SIZE", "caffe.PriorBoxParameter.CORNER":
		default:
			return fmt.Errorf("%w: code_type %q", ErrUnsupportedMode, codeType)
		}
	}
	return nil
}

func (detectionOutputValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	return checkNumOfInput(in, []int{3, 5})
}

type interpValidator struct{}

func (interpValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "Interp"); err != nil {
		return err
	}
	factor, err := l.ParamFloatDef("factor", 0)
	if err != nil {
		return err
	}
	shrink, err := l.ParamFloatDef("shrink_factor", 0)
	if err != nil {
		return err
	}
	zoom, err := l.ParamFloatDef("zoom_factor", 0)
	if err != nil {
		return err
	}
	height, err := l.ParamUintDef("height", 0)
	if err != nil {
		return err
	}
	width, err := l.ParamUintDef("width", 0)
	if err != nil {
		return err
	}
	l.Attrs = &ir.InterpAttrs{Factor: factor, ShrinkFactor: shrink, ZoomFactor: zoom, Height: height, Width: width}
	return nil
}

func (interpValidator) CheckParams(l *ir.Layer) error {
	_, err := attrsOf[ir.InterpAttrs](l)
	return err
}

// With a second input the target resolution comes from its shape; otherwise
// at least one of the factors or an explicit height and width is required.
func (interpValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	a, err := attrsOf[ir.InterpAttrs](l)
	if err != nil {
		return err
	}
	if err := checkNumOfInput(in, []int{1, 2}); err != nil {
		return err
	}
	if len(in) != 2 {
		if a.Factor < 0 {
			return fmt.Errorf("%w: factor can't be negative", ErrUnsupportedMode)
		}
		if a.ShrinkFactor < 0 {
			return fmt.Errorf("%w: shrink_factor can't be negative", ErrUnsupportedMode)
		}
		if a.ZoomFactor < 0 {
			return fmt.Errorf("%w: zoom_factor can't be negative", ErrUnsupportedMode)
		}
		noFactor := a.Factor == 0 && a.ShrinkFactor == 0 && a.ZoomFactor == 0
		if noFactor && (a.Height == 0 || a.Width == 0) {
			return fmt.Errorf("%w: interp needs a factor or a target resolution", ErrUnsupportedMode)
		}
	}
	return nil
}

type priorBoxValidator struct{}

func (priorBoxValidator) ParseParams(l *ir.Layer) error {
	return expectKind(l, "PriorBox")
}

func (priorBoxValidator) CheckParams(l *ir.Layer) error {
	if _, err := l.ParamUintsDef("min_size", []int{}); err != nil {
		return err
	}
	if _, err := l.ParamUintsDef("max_size", []int{}); err != nil {
		return err
	}
	if _, err := l.ParamInt("flip"); err != nil {
		return err
	}
	if l.HasParam("aspect_ratio") {
		if _, err := l.ParamUintsDef("aspect_ratio", []int{}); err != nil {
			return err
		}
	}
	if _, err := l.ParamInt("clip"); err != nil {
		return err
	}
	if l.HasParam("variance") {
		variance, err := l.ParamFloatDef("variance", 1)
		if err != nil {
			return err
		}
		if variance < 0 {
			return fmt.Errorf("%w: variance can't be negative", ErrUnsupportedMode)
		}
	}
	step, err := l.ParamFloatDef("step", 0)
	if err != nil {
		return err
	}
	if step < 0 {
		return fmt.Errorf("%w: step can't be negative", ErrUnsupportedMode)
	}
	offset, err := l.ParamFloat("offset")
	if err != nil {
		return err
	}
	if offset < 0 {
		return fmt.Errorf("%w: offset can't be negative", ErrUnsupportedMode)
	}
	return nil
}

func (priorBoxValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	return checkNumOfInput(in, []int{2})
}

type priorBoxClusteredValidator struct{}

func (priorBoxClusteredValidator) ParseParams(l *ir.Layer) error {
	return expectKind(l, "PriorBoxClustered")
}

func (priorBoxClusteredValidator) CheckParams(l *ir.Layer) error {
	widths, err := l.ParamFloatsDef("width", []float32{})
	if err != nil {
		return err
	}
	for _, w := range widths {
		if w < 0 {
			return fmt.Errorf("%w: width can't be negative", ErrUnsupportedMode)
		}
	}
	heights, err := l.ParamFloatsDef("height", []float32{})
	if err != nil {
		return err
	}
	for _, h := range heights {
		if h < 0 {
			return fmt.Errorf("%w: height can't be negative", ErrUnsupportedMode)
		}
	}
	if _, err := l.ParamInt("flip"); err != nil {
		return err
	}
	if _, err := l.ParamInt("clip"); err != nil {
		return err
	}
	offset, err := l.ParamFloat("offset")
	if err != nil {
		return err
	}
	if offset < 0 {
		return fmt.Errorf("%w: offset can't be negative", ErrUnsupportedMode)
	}
	if l.HasParam("variance") {
		variance, err := l.ParamFloat("variance")
		if err != nil {
			return err
		}
		if variance < 0 {
			return fmt.Errorf("%w: variance can't be negative", ErrUnsupportedMode)
		}
	}
	for _, key := range []string{"step_h", "step_w", "img_h", "img_w"} {
		v, err := l.ParamFloatDef(key, 0)
		if err != nil {
			return err
		}
		if v < 0 {
			return fmt.Errorf("%w: %s can't be negative", ErrUnsupportedMode, key)
		}
	}
	return nil
}

func (priorBoxClusteredValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	return checkNumOfInput(in, []int{2})
}

type proposalValidator struct{}

func (proposalValidator) ParseParams(l *ir.Layer) error {
	return expectKind(l, "Proposal")
}

func (proposalValidator) CheckParams(l *ir.Layer) error {
	if _, err := l.ParamUint("post_nms_topn"); err != nil {
		return err
	}
	for _, key := range []string{"feat_stride", "base_size", "min_size", "pre_nms_topn"} {
		if l.HasParam(key) {
			if _, err := l.ParamUint(key); err != nil {
				return err
			}
		}
	}
	if l.HasParam("nms_thresh") {
		threshold, err := l.ParamFloat("nms_thresh")
		if err != nil {
			return err
		}
		if threshold < 0 {
			return fmt.Errorf("%w: nms_thresh can't be negative", ErrUnsupportedMode)
		}
	}
	return nil
}

func (proposalValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	return checkNumOfInput(in, []int{3})
}

type psROIPoolingValidator struct{}

func (psROIPoolingValidator) ParseParams(l *ir.Layer) error {
	return expectKind(l, "PSROIPooling")
}

func (psROIPoolingValidator) CheckParams(l *ir.Layer) error {
	if _, err := l.ParamUint("output_dim"); err != nil {
		return err
	}
	if _, err := l.ParamUint("group_size"); err != nil {
		return err
	}
	if l.HasParam("spatial_scale") {
		scale, err := l.ParamFloat("spatial_scale")
		if err != nil {
			return err
		}
		if scale < 0 {
			return fmt.Errorf("%w: spatial_scale can't be negative", ErrUnsupportedMode)
		}
	}
	return nil
}

func (psROIPoolingValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	return checkNumOfInput(in, []int{1, 2})
}

type resampleValidator struct{}

func (resampleValidator) ParseParams(l *ir.Layer) error {
	return expectKind(l, "Resample")
}

func (resampleValidator) CheckParams(l *ir.Layer) error {
	if l.HasParam("antialias") {
		antialias, err := l.ParamInt("antialias")
		if err != nil {
			return err
		}
		if antialias != 0 && antialias != 1 {
			return fmt.Errorf("%w: antialias = %d, expected 0 or 1", ErrUnsupportedMode, antialias)
		}
	}
	if l.HasParam("type") {
		switch t := l.ParamStringDef("type", ""); t {
		case "caffe.ResampleParameter.NEAREST", "caffe.ResampleParameter.CUBIC", "caffe.ResampleParameter.LINEAR":
		default:
			return fmt.Errorf("%w: resample type %q", ErrUnsupportedMode, t)
		}
	}
	return nil
}

func (resampleValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	return checkNumOfInput(in, []int{1, 2})
}

type roiPoolingValidator struct{}

func (roiPoolingValidator) ParseParams(l *ir.Layer) error {
	return expectKind(l, "ROIPooling")
}

func (roiPoolingValidator) CheckParams(l *ir.Layer) error {
	if _, err := l.ParamUint("pooled_h"); err != nil {
		return err
	}
	if _, err := l.ParamUint("pooled_w"); err != nil {
		return err
	}
	scale, err := l.ParamFloat("spatial_scale")
	if err != nil {
		return err
	}
	if scale < 0 {
		return fmt.Errorf("%w: spatial_scale can't be negative", ErrUnsupportedMode)
	}
	return nil
}

func (roiPoolingValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	return checkNumOfInput(in, []int{1, 2})
}

type simplerNMSValidator struct{}

func (simplerNMSValidator) ParseParams(l *ir.Layer) error {
	return expectKind(l, "SimplerNMS")
}

func (simplerNMSValidator) CheckParams(l *ir.Layer) error {
	if _, err := l.ParamUint("post_nms_topn"); err != nil {
		return err
	}
	for _, key := range []string{"min_bbox_size", "feat_stride", "pre_nms_topn"} {
		if l.HasParam(key) {
			if _, err := l.ParamUint(key); err != nil {
				return err
			}
		}
	}
	for _, key := range []string{"iou_threshold", "cls_threshold"} {
		if l.HasParam(key) {
			v, err := l.ParamFloat(key)
			if err != nil {
				return err
			}
			if v < 0 {
				return fmt.Errorf("%w: %s can't be negative", ErrUnsupportedMode, key)
			}
		}
	}
	if l.HasParam("scale") {
		if _, err := l.ParamUintsDef("scale", []int{}); err != nil {
			return err
		}
	}
	return nil
}

func (simplerNMSValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	return checkNumOfInput(in, []int{3})
}
