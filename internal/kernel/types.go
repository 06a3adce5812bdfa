// Package kernel specializes quantized depthwise convolution execution.
// InitConf decides whether a descriptor is implementable by the specialized
// path and derives its configuration; Generate composes precompiled loop
// bodies into one reusable kernel bound to that configuration. A kernel is
// immutable after Generate and safe to invoke from concurrent inference
// goroutines, each with its own call context.
package kernel

// DataType tags a tensor role's element type.
type DataType int

const (
	TypeUndef DataType = iota
	TypeU8
	TypeS8
	TypeS32
	TypeF32
)

func (t DataType) String() string {
	switch t {
	case TypeU8:
		return "u8"
	case TypeS8:
		return "s8"
	case TypeS32:
		return "s32"
	case TypeF32:
		return "f32"
	}
	return "undef"
}

// Size returns the element size in bytes.
func (t DataType) Size() int {
	switch t {
	case TypeU8, TypeS8:
		return 1
	case TypeS32, TypeF32:
		return 4
	}
	return 0
}

// Layout tags a tensor's memory format.
type Layout int

const (
	LayoutUndef Layout = iota
	LayoutAny
	LayoutNHWC
	LayoutGoihw16g
	LayoutGoihw8g
	LayoutX
)

func (l Layout) String() string {
	switch l {
	case LayoutAny:
		return "any"
	case LayoutNHWC:
		return "nhwc"
	case LayoutGoihw16g:
		return "Goihw16g"
	case LayoutGoihw8g:
		return "Goihw8g"
	case LayoutX:
		return "x"
	}
	return "undef"
}

// RoundMode selects how float accumulators convert to integer outputs.
type RoundMode int

const (
	RoundNearest RoundMode = iota
	RoundDown
)

// EltwiseAlg enumerates the fusable elementwise activations.
type EltwiseAlg int

const (
	EltwiseReLU EltwiseAlg = iota
	EltwiseBoundedReLU
	EltwiseELU
	EltwiseTanh
	EltwiseLogistic
	EltwiseClamp
	EltwiseLinear
	EltwiseAbs
	EltwiseSquare
	EltwiseSqrt
)

// PostOpKind tags one fused post-operation.
type PostOpKind int

const (
	PostOpEltwise PostOpKind = iota
	PostOpDepthwise
	PostOpSum
)

// PostOp is one entry of the fused post-operation sequence. Eltwise entries
// use Alg/Alpha/Beta; depthwise entries carry per-channel weights and biases
// indexed by the call context's channel offset; sum entries carry the scale
// applied to the re-loaded destination addend.
type PostOp struct {
	Kind  PostOpKind
	Alg   EltwiseAlg
	Alpha float32
	Beta  float32

	Weights []float32
	Biases  []float32

	Scale float32
}

func (p PostOp) isSimple() bool {
	return p.Kind == PostOpEltwise || p.Kind == PostOpDepthwise
}

// ScaleMaskPerChannel is the quantization-scale mask meaning one scale per
// output channel; zero means a single global scale.
const ScaleMaskPerChannel = 1 << 1

// ConvDesc describes one depthwise convolution instantiation. Dims follow
// the logical NCHW order regardless of memory layout; weight dims are
// grouped: [G, OC/G, IC/G, KH, KW].
type ConvDesc struct {
	SrcType DataType
	WeiType DataType
	DstType DataType

	BiasType   DataType
	BiasLayout Layout

	SrcLayout Layout
	WeiLayout Layout
	DstLayout Layout

	SrcDims []int
	WeiDims []int
	DstDims []int

	StrideH, StrideW     int
	DilationH, DilationW int

	PadT, PadL, PadB, PadR int

	PostOps []PostOp

	ScaleMask int
	RoundMode RoundMode
}

// Buffer is a destination tensor in one of the supported output types.
// Exactly one slice is non-nil, matching the configuration's DstType.
type Buffer struct {
	F32 []float32
	S32 []int32
	S8  []int8
	U8  []uint8
}

// CallArgs is the per-invocation context. The kernel performs no validation
// at call time; buffer geometry is the caller's contract. Src, Dst and Filt
// point at the first in-bounds element for this invocation, with padding
// clipping already folded into KHPadding/KWPadding and the base offsets.
type CallArgs struct {
	Src  []uint8
	Dst  Buffer
	Filt []int8
	Bias []float32

	// Scales holds one entry per channel when the configuration uses
	// per-channel scaling, a single entry otherwise.
	Scales []float32

	// OCOff locates this invocation's channels inside per-channel post-op
	// operand arrays.
	OCOff int

	// Runtime trip counts. They may be smaller than the static kernel
	// extents when padding clips the window; zero skips the accumulation
	// loops entirely.
	KHPadding int
	KWPadding int

	// URW is the output-width trip count for this invocation.
	URW int

	// ChWork is the number of channels this invocation covers.
	ChWork int
}
