package validate

import (
	"fmt"

	"github.com/23skdu/longbow-nock/internal/ir"
	"github.com/23skdu/longbow-nock/internal/logger"
)

type fullyConnectedValidator struct{}

func (fullyConnectedValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "FullyConnected", "InnerProduct"); err != nil {
		return err
	}
	outNum, err := l.ParamUint("out-size")
	if err != nil {
		return err
	}
	l.Attrs = &ir.FullyConnectedAttrs{OutNum: outNum}
	return nil
}

func (fullyConnectedValidator) CheckParams(l *ir.Layer) error {
	_, err := l.ParamUint("out-size")
	return err
}

func (fullyConnectedValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	return checkNumOfInput(in, []int{1})
}

func (fullyConnectedValidator) CheckCorrespondence(l *ir.Layer, blobs map[string]*ir.Blob, in []ir.Shape) error {
	a, err := attrsOf[ir.FullyConnectedAttrs](l)
	if err != nil {
		return err
	}
	return checkWeightable(blobs, in, weightableParams{
		outputs:         a.OutNum,
		groups:          1,
		kernelFromInput: true,
	}, []int{2, 4, 5})
}

// parseConvCommon handles the two historical spatial-parameter encodings
// shared by the convolution family.
//
// Legacy 2-D form (no "kernel" key): kernel-x/kernel-y with stride/pad/
// dilation counterparts. A stride of 0 here is coerced to 1 with a warning;
// the generic form rejects it outright. The asymmetry is inherited from the
// format's history and is preserved on purpose.
//
// Generic N-D form: "kernel"/"strides"/"pads_begin"/"pads_end"/"dilations"
// lists, stored reversed so index 0 is the innermost spatial axis.
func parseConvCommon(l *ir.Layer, a *ir.ConvAttrs) error {
	kernels, err := l.ParamUintsDef("kernel", []int{})
	if err != nil {
		return err
	}

	if len(kernels) == 0 {
		kx, err := l.ParamUint("kernel-x")
		if err != nil {
			return err
		}
		ky, err := l.ParamUint("kernel-y")
		if err != nil {
			return err
		}
		a.Kernel = []int{kx, ky}

		sx, err := l.ParamUintDef("stride-x", 1)
		if err != nil {
			return err
		}
		sy, err := l.ParamUintDef("stride-y", 1)
		if err != nil {
			return err
		}
		if sx == 0 {
			sx = 1
			logger.Log.WithLayer(l.Name, l.Kind).Warn("stride x is 0, setting to 1")
		}
		if sy == 0 {
			sy = 1
			logger.Log.WithLayer(l.Name, l.Kind).Warn("stride y is 0, setting to 1")
		}
		a.Strides = []int{sx, sy}

		px, err := l.ParamUintDef("pad-x", 0)
		if err != nil {
			return err
		}
		py, err := l.ParamUintDef("pad-y", 0)
		if err != nil {
			return err
		}
		a.PadsBegin = []int{px, py}

		pr, err := l.ParamUintDef("pad-r", px)
		if err != nil {
			return err
		}
		pb, err := l.ParamUintDef("pad-b", py)
		if err != nil {
			return err
		}
		a.PadsEnd = []int{pr, pb}

		dx, err := l.ParamUintDef("dilation-x", 1)
		if err != nil {
			return err
		}
		dy, err := l.ParamUintDef("dilation-y", 1)
		if err != nil {
			return err
		}
		a.Dilations = []int{dx, dy}
	} else {
		a.Kernel = reverseAxes(kernels)

		defaultZero := repeatInt(0, len(a.Kernel))
		defaultOne := repeatInt(1, len(a.Kernel))

		strides, err := l.ParamUintsDef("strides", defaultOne)
		if err != nil {
			return err
		}
		for _, s := range strides {
			if s == 0 {
				return fmt.Errorf("%w: stride could not be 0", ErrUnsupportedMode)
			}
		}
		a.Strides = reverseAxes(strides)

		padsBegin, err := l.ParamUintsDef("pads_begin", defaultZero)
		if err != nil {
			return err
		}
		a.PadsBegin = reverseAxes(padsBegin)

		padsEnd, err := l.ParamUintsDef("pads_end", padsBegin)
		if err != nil {
			return err
		}
		a.PadsEnd = reverseAxes(padsEnd)

		dilations, err := l.ParamUintsDef("dilations", defaultOne)
		if err != nil {
			return err
		}
		a.Dilations = reverseAxes(dilations)
	}

	a.AutoPad = l.ParamStringDef("auto_pad", "")
	group, err := l.ParamUintDef("group", 1)
	if err != nil {
		return err
	}
	a.Group = group
	return nil
}

// checkConvCommon re-validates the raw spatial parameters for value
// legality, independent of shapes.
func checkConvCommon(l *ir.Layer) error {
	if _, err := l.ParamUint("output"); err != nil {
		return err
	}
	kernels, err := l.ParamUintsDef("kernel", []int{})
	if err != nil {
		return err
	}
	if len(kernels) == 0 {
		for _, key := range []string{"kernel-x", "kernel-y"} {
			if _, err := l.ParamUint(key); err != nil {
				return err
			}
		}
		for _, key := range []string{"stride-x", "stride-y", "dilation-x", "dilation-y"} {
			if _, err := l.ParamUintDef(key, 1); err != nil {
				return err
			}
		}
		for _, key := range []string{"pad-x", "pad-y", "pad-r", "pad-b"} {
			if _, err := l.ParamUintDef(key, 0); err != nil {
				return err
			}
		}
	} else {
		defaultZero := repeatInt(0, len(kernels))
		defaultOne := repeatInt(1, len(kernels))
		if _, err := l.ParamUintsDef("strides", defaultOne); err != nil {
			return err
		}
		if _, err := l.ParamUintsDef("pads_begin", defaultZero); err != nil {
			return err
		}
		if _, err := l.ParamUintsDef("pads_end", defaultZero); err != nil {
			return err
		}
		if _, err := l.ParamUintsDef("dilations", defaultOne); err != nil {
			return err
		}
	}
	if _, err := l.ParamUintDef("group", 1); err != nil {
		return err
	}
	return nil
}

type convolutionValidator struct{}

func (convolutionValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "Convolution"); err != nil {
		return err
	}
	outDepth, err := l.ParamUint("output")
	if err != nil {
		return err
	}
	a := &ir.ConvAttrs{OutDepth: outDepth}
	if err := parseConvCommon(l, a); err != nil {
		return err
	}
	l.Attrs = a
	return nil
}

func (convolutionValidator) CheckParams(l *ir.Layer) error {
	return checkConvCommon(l)
}

func (convolutionValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	return checkNumOfInput(in, []int{1})
}

func (convolutionValidator) CheckCorrespondence(l *ir.Layer, blobs map[string]*ir.Blob, in []ir.Shape) error {
	a, err := attrsOf[ir.ConvAttrs](l)
	if err != nil {
		return err
	}
	return checkWeightable(blobs, in, weightableParams{
		kernel:  a.Kernel,
		outputs: a.OutDepth,
		groups:  a.Group,
	}, []int{4, 5})
}

type deconvolutionValidator struct{}

func (deconvolutionValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "Deconvolution"); err != nil {
		return err
	}
	outDepth, err := l.ParamUint("output")
	if err != nil {
		return err
	}
	a := &ir.ConvAttrs{OutDepth: outDepth}
	if err := parseConvCommon(l, a); err != nil {
		return err
	}
	l.Attrs = a
	return nil
}

func (deconvolutionValidator) CheckParams(l *ir.Layer) error {
	return checkConvCommon(l)
}

func (deconvolutionValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	return checkNumOfInput(in, []int{1})
}

func (deconvolutionValidator) CheckCorrespondence(l *ir.Layer, blobs map[string]*ir.Blob, in []ir.Shape) error {
	a, err := attrsOf[ir.ConvAttrs](l)
	if err != nil {
		return err
	}
	return checkWeightable(blobs, in, weightableParams{
		kernel:  a.Kernel,
		outputs: a.OutDepth,
		groups:  a.Group,
	}, []int{4, 5})
}

type binaryConvolutionValidator struct{}

func (binaryConvolutionValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "BinaryConvolution"); err != nil {
		return err
	}
	a := &ir.BinaryConvAttrs{}

	padValue, err := l.ParamFloatDef("pad_value", -1)
	if err != nil {
		return err
	}
	a.PadValue = padValue

	inDepth, err := l.ParamUint("input")
	if err != nil {
		return err
	}
	a.InDepth = inDepth

	a.Mode = l.ParamStringDef("mode", "xnor-popcount")
	if a.Mode != "xnor-popcount" {
		return fmt.Errorf("%w: binary convolution mode %q", ErrUnsupportedMode, a.Mode)
	}

	outDepth, err := l.ParamUint("output")
	if err != nil {
		return err
	}
	a.OutDepth = outDepth

	if err := parseConvCommon(l, &a.ConvAttrs); err != nil {
		return err
	}
	l.Attrs = a
	return nil
}

func (binaryConvolutionValidator) CheckParams(l *ir.Layer) error {
	_, err := attrsOf[ir.BinaryConvAttrs](l)
	return err
}

func (binaryConvolutionValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	return checkNumOfInput(in, []int{1})
}

// Binary convolution packs its weights bitwise, so element-count derivation
// does not apply; correspondence only confirms the attrs were parsed.
func (binaryConvolutionValidator) CheckCorrespondence(l *ir.Layer, blobs map[string]*ir.Blob, in []ir.Shape) error {
	_, err := attrsOf[ir.BinaryConvAttrs](l)
	return err
}
