package validate

import "sync"

// Registry maps a layer kind to its validator. It is populated once at
// construction and read-only afterwards, so concurrent lookups are safe.
type Registry struct {
	validators map[string]Validator
}

// Get returns the validator for a kind, falling back to the permissive
// general validator for kinds the registry does not know.
func (r *Registry) Get(kind string) Validator {
	if v, ok := r.validators[kind]; ok {
		return v
	}
	return general{}
}

// Kinds reports how many kinds carry a dedicated validator.
func (r *Registry) Kinds() int { return len(r.validators) }

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// Default returns the shared process-wide registry, built on first use.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry builds a registry with every known layer kind registered.
func NewRegistry() *Registry {
	r := &Registry{validators: map[string]Validator{}}

	add := func(v Validator, kinds ...string) {
		for _, kind := range kinds {
			r.validators[kind] = v
		}
	}

	add(fullyConnectedValidator{}, "FullyConnected", "InnerProduct")
	add(convolutionValidator{}, "Convolution")
	add(deconvolutionValidator{}, "Deconvolution")
	add(binaryConvolutionValidator{}, "BinaryConvolution")
	add(poolingValidator{}, "Pooling")

	add(batchNormValidator{}, "BatchNormalization")
	add(powerValidator{}, "Power")
	add(preluValidator{}, "PReLU")
	add(scaleShiftValidator{}, "ScaleShift")
	add(tileValidator{}, "Tile")
	add(clampValidator{}, "Clamp")
	add(reluValidator{}, "ReLU")
	add(mvnValidator{}, "MVN")
	add(grnValidator{}, "GRN")
	add(softMaxValidator{}, "SoftMax")
	add(normValidator{}, "Norm", "LRN")
	add(eltwiseValidator{}, "Eltwise")
	add(quantizeValidator{}, "Quantize")
	add(memoryValidator{}, "Memory")
	add(normalizeValidator{}, "Normalize")

	add(reshapeValidator{}, "Reshape", "Flatten")
	add(splitValidator{}, "Split", "Slice")
	add(concatValidator{}, "Concat")
	add(cropValidator{}, "Crop")
	add(gemmValidator{}, "Gemm")
	add(padValidator{}, "Pad")
	add(gatherValidator{}, "Gather")
	add(stridedSliceValidator{}, "StridedSlice")
	add(shuffleChannelsValidator{}, "ShuffleChannels")
	add(depthToSpaceValidator{}, "DepthToSpace")
	add(spaceToDepthValidator{}, "SpaceToDepth")
	add(reverseSequenceValidator{}, "ReverseSequence")
	add(permuteValidator{}, "Permute")
	add(twoInputIndexValidator{kind: "Squeeze", indexName: "indices_to_squeeze", indexPos: 1}, "Squeeze")
	add(twoInputIndexValidator{kind: "Unsqueeze", indexName: "indices_to_set", indexPos: 1}, "Unsqueeze")
	add(twoInputIndexValidator{kind: "Expand", indexName: "shape", indexPos: 1}, "Expand")
	add(fillValidator{}, "Fill")
	add(rangeValidator{}, "Range")

	add(rnnCellValidator{}, "LSTMCell", "GRUCell", "RNNCell")
	add(rnnSequenceValidator{}, "LSTMSequence", "GRUSequence", "RNNSequence")

	add(argMaxValidator{}, "ArgMax")
	add(ctcGreedyDecoderValidator{}, "CTCGreedyDecoder")
	add(detectionOutputValidator{}, "DetectionOutput")
	add(interpValidator{}, "Interp")
	add(priorBoxValidator{}, "PriorBox")
	add(priorBoxClusteredValidator{}, "PriorBoxClustered")
	add(proposalValidator{}, "Proposal")
	add(psROIPoolingValidator{}, "PSROIPooling")
	add(resampleValidator{}, "Resample")
	add(roiPoolingValidator{}, "ROIPooling")
	add(simplerNMSValidator{}, "SimplerNMS")

	add(unaryValidator{kinds: []string{"RegionYolo"}, allowed: []int{1}}, "RegionYolo")
	add(unaryValidator{kinds: []string{"ReorgYolo"}, allowed: []int{1}}, "ReorgYolo")
	add(unaryValidator{kinds: []string{"SpatialTransformer"}, allowed: []int{2}}, "SpatialTransformer")
	add(unaryValidator{kinds: []string{"Upsampling"}, allowed: []int{1}}, "Upsampling")
	add(unaryValidator{kinds: []string{"Unpooling"}, allowed: []int{1}}, "Unpooling")
	add(unaryValidator{kinds: []string{"Activation"}, allowed: []int{1}}, "Activation")
	add(unaryValidator{kinds: []string{"Const"}, allowed: []int{0, 1}}, "Const")
	add(unaryValidator{kinds: []string{"Copy"}, allowed: []int{1}}, "Copy")
	add(unaryValidator{kinds: []string{"ELU"}, allowed: []int{1}}, "ELU")
	add(unaryValidator{kinds: []string{"Input"}, allowed: []int{0}}, "Input")
	add(unaryValidator{kinds: []string{"PowerFile"}, allowed: []int{1}}, "PowerFile")
	add(unaryValidator{kinds: []string{"ReLU6"}, allowed: []int{1}}, "ReLU6")
	add(unaryValidator{kinds: []string{"Sigmoid"}, allowed: []int{1}}, "Sigmoid")
	add(unaryValidator{kinds: []string{"TanH"}, allowed: []int{1}}, "TanH")

	return r
}
