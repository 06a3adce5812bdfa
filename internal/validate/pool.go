package validate

import (
	"fmt"

	"github.com/23skdu/longbow-nock/internal/ir"
	"github.com/23skdu/longbow-nock/internal/logger"
)

type poolingValidator struct{}

// ParseParams supports three historical encodings selected by key presence:
// the generic N-D "kernel" list, the legacy 2-D kernel-x/kernel-y form, and
// the caffe custom form (kernel_size with optional per-axis kernel_w/kernel_h
// overrides). All three produce the same internal kernel/stride/pad vectors.
func (poolingValidator) ParseParams(l *ir.Layer) error {
	if err := expectKind(l, "Pooling"); err != nil {
		return err
	}
	a := &ir.PoolAttrs{AutoPad: l.ParamStringDef("auto_pad", "")}

	kernels, err := l.ParamUintsDef("kernel", []int{})
	if err != nil {
		return err
	}

	switch {
	case len(kernels) > 0:
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

		if err := parsePoolMethod(l, a); err != nil {
			return err
		}

	case l.HasParam("kernel-x"):
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

		if err := parsePoolMethod(l, a); err != nil {
			return err
		}

	default:
		// Caffe custom form. Parse failures here are swallowed, matching the
		// historical reader which left the kernel unset on any error.
		if err := parseCaffePool(l, a); err != nil {
			logger.Log.WithLayer(l.Name, l.Kind).Warn("ignoring malformed caffe pooling params", "error", err.Error())
		}

		// Unknown algorithm names silently fall back to MAX here, while the
		// other two forms reject them. Known inconsistency, kept as is.
		switch l.ParamStringDef("pool", "caffe.PoolingParameter.MAX") {
		case "caffe.PoolingParameter.AVE":
			a.Method = ir.PoolAvg
		default:
			a.Method = ir.PoolMax
		}
	}

	l.Attrs = a
	return nil
}

func parsePoolMethod(l *ir.Layer, a *ir.PoolAttrs) error {
	excludePad, err := l.ParamBoolDef("exclude-pad", false)
	if err != nil {
		return err
	}
	a.ExcludePad = excludePad

	switch alg := l.ParamStringDef("pool-method", "max"); alg {
	case "max":
		a.Method = ir.PoolMax
	case "avg":
		a.Method = ir.PoolAvg
	default:
		return fmt.Errorf("%w: incorrect pool-method %q", ErrUnsupportedMode, alg)
	}
	return nil
}

func parseCaffePool(l *ir.Layer, a *ir.PoolAttrs) error {
	kernelSize, err := l.ParamUint("kernel_size")
	if err != nil {
		return err
	}
	kw, err := l.ParamUintDef("kernel_w", 0)
	if err != nil {
		return err
	}
	kh, err := l.ParamUintDef("kernel_h", 0)
	if err != nil {
		return err
	}
	a.Kernel = []int{orDefault(kw, kernelSize), orDefault(kh, kernelSize)}

	stride, err := l.ParamUintDef("stride", 1)
	if err != nil {
		return err
	}
	sw, err := l.ParamUintDef("stride_w", 0)
	if err != nil {
		return err
	}
	sh, err := l.ParamUintDef("stride_h", 0)
	if err != nil {
		return err
	}
	a.Strides = []int{orDefault(sw, stride), orDefault(sh, stride)}

	pad, err := l.ParamUintDef("pad", 0)
	if err != nil {
		return err
	}
	pw, err := l.ParamUintDef("pad_w", 0)
	if err != nil {
		return err
	}
	ph, err := l.ParamUintDef("pad_h", 0)
	if err != nil {
		return err
	}
	a.PadsBegin = []int{orDefault(pw, pad), orDefault(ph, pad)}
	a.PadsEnd = []int{0, 0}
	return nil
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func (poolingValidator) CheckParams(l *ir.Layer) error {
	_, err := attrsOf[ir.PoolAttrs](l)
	return err
}

func (poolingValidator) CheckShapes(l *ir.Layer, in []ir.Shape) error {
	return checkNumOfInput(in, []int{1, 2})
}
