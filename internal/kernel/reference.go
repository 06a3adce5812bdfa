package kernel

// Reference is the generic fallback depthwise convolution. It shares the
// Kernel invocation contract but drops the ISA requirement and the tier-bound
// weight layout, so it can run on any processor. It is the implementation of
// last resort; the dispatcher only reaches it after the specialized path
// reports unimplemented.
type Reference struct {
	cfg    *Config
	finish finishFn
}

// NewReference builds the fallback for a descriptor. It screens only the
// conditions the invocation contract itself depends on: quantized u8/s8
// inputs, a supported output type, grouped weights in a known blocked layout
// and true depthwise channel structure.
func NewReference(d *ConvDesc) (*Reference, error) {
	if d.SrcType != TypeU8 || d.WeiType != TypeS8 {
		return nil, ErrUnimplemented
	}
	switch d.DstType {
	case TypeF32, TypeS32, TypeS8, TypeU8:
	default:
		return nil, ErrUnimplemented
	}
	if len(d.WeiDims) != len(d.SrcDims)+1 {
		return nil, ErrUnimplemented
	}
	if d.SrcLayout != LayoutNHWC || d.DstLayout != LayoutNHWC {
		return nil, ErrUnimplemented
	}

	var chBlock int
	switch d.WeiLayout {
	case LayoutGoihw16g:
		chBlock = 16
	case LayoutGoihw8g:
		chBlock = 8
	default:
		return nil, ErrUnimplemented
	}

	c := &Config{
		NGroups: d.WeiDims[0],
		MB:      d.SrcDims[0],
		IC:      d.SrcDims[1],
		IH:      d.SrcDims[2],
		IW:      d.SrcDims[3],
		OC:      d.DstDims[1],
		OH:      d.DstDims[2],
		OW:      d.DstDims[3],
		KH:      d.WeiDims[3],
		KW:      d.WeiDims[4],
		StrideH: d.StrideH,
		StrideW: d.StrideW,
		DilateH: d.DilationH,
		DilateW: d.DilationW,
		PadT:    d.PadT,
		PadL:    d.PadL,
		PadB:    d.PadB,
		PadR:    d.PadR,

		WithBias:  d.BiasType != TypeUndef && d.BiasLayout != LayoutUndef,
		BiasType:  d.BiasType,
		DstType:   d.DstType,
		RoundMode: d.RoundMode,

		ChBlock:      chBlock,
		NbChBlocking: 1,
		URW:          1,

		PerChannelScale: d.ScaleMask == ScaleMaskPerChannel,
	}
	if c.DilateH == 0 {
		c.DilateH = 1
	}
	if c.DilateW == 0 {
		c.DilateW = 1
	}
	if !(c.OC == c.NGroups && c.NGroups == c.IC) {
		return nil, ErrUnimplemented
	}
	c.NbCh = divUp(c.OC, c.ChBlock)
	for _, op := range d.PostOps {
		switch op.Kind {
		case PostOpSum:
			c.WithSum = true
		case PostOpEltwise:
			c.WithEltwise = true
		}
	}

	return &Reference{cfg: c, finish: buildFinish(c, d.PostOps)}, nil
}

// Config returns the derived configuration.
func (r *Reference) Config() *Config { return r.cfg }

func (r *Reference) Name() string { return "ref_dw_conv" }

// Call executes one invocation with plain nested loops.
func (r *Reference) Call(a *CallArgs) {
	cfg := r.cfg
	for ow := 0; ow < a.URW; ow++ {
		for ch := 0; ch < a.ChWork; ch++ {
			cb, lane := ch/cfg.ChBlock, ch%cfg.ChBlock

			var acc int32
			for kh := 0; kh < a.KHPadding; kh++ {
				rowOff := kh * cfg.DilateH * cfg.IW * cfg.OC
				kerRow := (cb*cfg.KH + kh) * cfg.KW * cfg.ChBlock
				for kw := 0; kw < a.KWPadding; kw++ {
					srcOff := rowOff + (ow*cfg.StrideW+kw*cfg.DilateW)*cfg.OC + ch
					acc += int32(a.Src[srcOff]) * int32(a.Filt[kerRow+kw*cfg.ChBlock+lane])
				}
			}
			r.finish(a, ow*cfg.OC+ch, ch, acc)
		}
	}
}
