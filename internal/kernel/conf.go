package kernel

import (
	"github.com/23skdu/longbow-nock/internal/isa"
)

// Config is the immutable record of every shape, stride, format and fusion
// decision for one kernel instantiation. Built once per distinct layer
// configuration and shared across all invocations that match it.
type Config struct {
	Tier isa.Tier

	MB      int
	NGroups int
	OC, IC  int
	IH, IW  int
	OH, OW  int
	KH, KW  int

	StrideH, StrideW int

	// Effective per-tap steps, dilation factor times one element.
	DilateH, DilateW int

	PadT, PadL, PadB, PadR int

	WithBias bool
	BiasType DataType
	DstType  DataType

	SIMDW        int
	ChBlock      int
	NbCh         int
	URW          int
	NbChBlocking int

	PerChannelScale bool

	WithSum     bool
	WithEltwise bool

	RoundMode RoundMode
}

func divUp(a, b int) int { return (a + b - 1) / b }

// postOpsOK screens the fused post-operation sequence against the legal
// patterns. A "simple" entry is eltwise or per-channel affine.
func postOpsOK(ops []PostOp) bool {
	isSum := func(i int) bool { return ops[i].Kind == PostOpSum }
	isSimple := func(i int) bool { return ops[i].isSimple() }

	switch len(ops) {
	case 0:
		return true
	case 1:
		return isSimple(0) || isSum(0)
	case 2:
		return (isSum(0) && isSimple(1)) ||
			(isSimple(0) && isSum(1)) ||
			(isSimple(0) && isSimple(1))
	case 3:
		return isSimple(0) && isSum(1) && isSimple(2)
	}
	return false
}

// InitConf decides whether the specialized path can serve a descriptor and
// derives its configuration. It is pure: no emission, no caching, no side
// effects. Infeasibility is reported as ErrUnimplemented at the first unmet
// condition, in a fixed screening order; it signals "try the next
// implementation", never a user error.
func InitConf(d *ConvDesc) (*Config, error) {
	tier := isa.Detect()
	if tier == isa.TierNone {
		return nil, ErrUnimplemented
	}

	if d.SrcType != TypeU8 || d.WeiType != TypeS8 {
		return nil, ErrUnimplemented
	}
	switch d.DstType {
	case TypeF32, TypeS32, TypeS8, TypeU8:
	default:
		return nil, ErrUnimplemented
	}

	// Grouped weights carry one extra leading dimension over the source.
	if len(d.WeiDims) != len(d.SrcDims)+1 {
		return nil, ErrUnimplemented
	}

	// Signed input is handled by a different code path.
	if d.SrcType == TypeS8 {
		return nil, ErrUnimplemented
	}

	c := &Config{
		Tier:    tier,
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
	}
	if c.DilateH == 0 {
		c.DilateH = 1
	}
	if c.DilateW == 0 {
		c.DilateW = 1
	}

	// True depthwise only: one group per channel.
	if !(c.OC == c.NGroups && c.NGroups == c.IC) {
		return nil, ErrUnimplemented
	}

	if d.SrcLayout != LayoutNHWC || d.DstLayout != LayoutNHWC {
		return nil, ErrUnimplemented
	}
	wantWei := LayoutGoihw8g
	if tier == isa.TierAVX512 {
		wantWei = LayoutGoihw16g
	}
	if d.WeiLayout != wantWei {
		return nil, ErrUnimplemented
	}
	switch d.BiasLayout {
	case LayoutUndef, LayoutAny, LayoutX:
	default:
		return nil, ErrUnimplemented
	}

	if !postOpsOK(d.PostOps) {
		return nil, ErrUnimplemented
	}
	for _, op := range d.PostOps {
		switch op.Kind {
		case PostOpSum:
			c.WithSum = true
		case PostOpEltwise:
			c.WithEltwise = true
		}
	}

	c.SIMDW = tier.SIMDWidth()
	c.ChBlock = c.SIMDW
	c.NbCh = divUp(c.OC, c.ChBlock)
	c.PerChannelScale = d.ScaleMask == ScaleMaskPerChannel

	switch tier {
	case isa.TierAVX512:
		c.URW = 6
		c.NbChBlocking = 4
	case isa.TierAVX2:
		c.URW = 4
		c.NbChBlocking = 3
	default:
		c.URW = 3
		c.NbChBlocking = 2
	}
	if c.NbChBlocking > c.NbCh {
		c.NbChBlocking = c.NbCh
	}

	return c, nil
}
