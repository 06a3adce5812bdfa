package ir

// Parsed attribute payloads, one struct per layer-kind family. Spatial
// vectors (Kernel, Strides, ...) are stored innermost-axis first: index 0 is
// the fastest-varying spatial dimension regardless of the serialized order.

// ConvAttrs covers Convolution and Deconvolution; BinaryConvAttrs embeds it.
type ConvAttrs struct {
	OutDepth  int
	Kernel    []int
	Strides   []int
	PadsBegin []int
	PadsEnd   []int
	Dilations []int
	AutoPad   string
	Group     int
}

type BinaryConvAttrs struct {
	ConvAttrs
	InDepth  int
	PadValue float32
	Mode     string
}

type FullyConnectedAttrs struct {
	OutNum int
}

type PoolMethod int

const (
	PoolMax PoolMethod = iota
	PoolAvg
)

type PoolAttrs struct {
	Kernel     []int
	Strides    []int
	PadsBegin  []int
	PadsEnd    []int
	AutoPad    string
	Method     PoolMethod
	ExcludePad bool
}

type EltwiseOp int

const (
	EltwiseSum EltwiseOp = iota
	EltwiseProd
	EltwiseMax
	EltwiseSub
	EltwiseDiv
	EltwiseMin
	EltwiseSquaredDiff
	EltwiseEqual
	EltwiseNotEqual
	EltwiseLess
	EltwiseLessEqual
	EltwiseGreater
	EltwiseGreaterEqual
	EltwiseLogicalAnd
	EltwiseLogicalOr
	EltwiseLogicalXor
	EltwiseFloorMod
	EltwisePow
)

type EltwiseAttrs struct {
	Op    EltwiseOp
	Coeff []float32
}

type CropAttrs struct {
	Axes    []int
	Offsets []int
	Dims    []int
}

type ReshapeAttrs struct {
	Shape []int
	// Flatten spelling of the same kind.
	Axis    int
	NumAxes int
}

type TileAttrs struct {
	Axis  int
	Tiles int
}

type BatchNormAttrs struct {
	Epsilon float32
}

type PowerAttrs struct {
	Power  float32
	Scale  float32
	Offset float32
}

type PReLUAttrs struct {
	ChannelShared bool
}

type ScaleShiftAttrs struct {
	Broadcast int
}

type ClampAttrs struct {
	Min float32
	Max float32
}

type ReLUAttrs struct {
	NegativeSlope float32
}

type MVNAttrs struct {
	AcrossChannels int
	Normalize      int
}

type GRNAttrs struct {
	Bias float32
}

type SoftMaxAttrs struct {
	Axis int
}

// NormAttrs is local response normalization (LRN).
type NormAttrs struct {
	Size       int
	K          int
	Alpha      float32
	Beta       float32
	AcrossMaps bool
}

type SplitAttrs struct {
	Axis int
}

type ConcatAttrs struct {
	Axis int
}

type GemmAttrs struct {
	Alpha      float32
	Beta       float32
	TransposeA bool
	TransposeB bool
}

type PadMode int

const (
	PadConstant PadMode = iota
	PadEdge
	PadReflect
	PadSymmetric
)

type PadAttrs struct {
	PadsBegin []int
	PadsEnd   []int
	PadValue  float32
	Mode      PadMode
}

type GatherAttrs struct {
	Axis int
}

type StridedSliceAttrs struct {
	BeginMask      string
	EndMask        string
	EllipsisMask   string
	NewAxisMask    string
	ShrinkAxisMask string
}

type ShuffleChannelsAttrs struct {
	Axis  int
	Group int
}

type BlockAttrs struct {
	BlockSize int
}

type ReverseSequenceAttrs struct {
	SeqAxis   int
	BatchAxis int
}

type InterpAttrs struct {
	Factor       float32
	ShrinkFactor float32
	ZoomFactor   float32
	Height       int
	Width        int
}

type QuantizeAttrs struct {
	Levels int
}

// RNN cell taxonomy. The gate count G and state count NS are fixed per cell
// kind; GRU with linear_before_reset becomes its own tag since its bias
// geometry differs.
type CellKind int

const (
	CellRNN CellKind = iota
	CellGRU
	CellGRULBR
	CellLSTM
)

func (c CellKind) Gates() int {
	switch c {
	case CellLSTM:
		return 4
	case CellGRU, CellGRULBR:
		return 3
	default:
		return 1
	}
}

func (c CellKind) States() int {
	if c == CellLSTM {
		return 2
	}
	return 1
}

type RNNDirection int

const (
	RNNForward RNNDirection = iota
	RNNBackward
	RNNBidirectional
)

type RNNAttrs struct {
	Cell            CellKind
	HiddenSize      int
	Clip            float32
	Activations     []string
	ActivationAlpha []float32
	ActivationBeta  []float32

	// Sequence-variant fields.
	Axis      int
	Direction RNNDirection
}
