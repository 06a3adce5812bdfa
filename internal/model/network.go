package model

import (
	"errors"
	"fmt"

	"github.com/23skdu/longbow-nock/internal/config"
	"github.com/23skdu/longbow-nock/internal/ir"
	"github.com/23skdu/longbow-nock/internal/isa"
	"github.com/23skdu/longbow-nock/internal/kernel"
	"github.com/23skdu/longbow-nock/internal/logger"
	"github.com/23skdu/longbow-nock/internal/metrics"
	"github.com/23skdu/longbow-nock/internal/validate"
)

// Network is a fully validated graph with compiled kernels for the compute
// layers the specializer (or its reference fallback) accepted.
type Network struct {
	Name    string
	Version int
	Layers  []*ir.Layer

	kernels map[string]kernel.Implementation
}

// Kernel returns the compiled implementation for a layer, or nil when the
// layer is not a compiled compute layer.
func (n *Network) Kernel(layer string) kernel.Implementation {
	return n.kernels[layer]
}

// Loader builds Networks from container files under one configuration.
type Loader struct {
	cfg config.Config
	reg *validate.Registry
}

func NewLoader(cfg config.Config) (*Loader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.ISAOverride != "" {
		tier, err := isa.Parse(cfg.ISAOverride)
		if err != nil {
			return nil, err
		}
		isa.Force(tier)
	}
	return &Loader{cfg: cfg, reg: validate.Default()}, nil
}

// Load reads a topology and an optional weights container, validates every
// layer, and compiles kernels for qualifying compute layers. The first
// invalid layer aborts the load.
func (ld *Loader) Load(topologyPath, weightsPath string) (*Network, error) {
	topo, err := ReadTopology(topologyPath)
	if err != nil {
		return nil, err
	}

	var blobs map[string]*ir.Blob
	if weightsPath != "" {
		blobs, err = ReadWeights(weightsPath)
		if err != nil {
			return nil, err
		}
	}

	version := topo.Version
	if version == 0 {
		version = ld.cfg.FormatVersion
	}

	n := &Network{
		Name:    topo.Name,
		Version: version,
		Layers:  make([]*ir.Layer, 0, len(topo.Layers)),
		kernels: make(map[string]kernel.Implementation),
	}

	for i := range topo.Layers {
		l := layerFrom(&topo.Layers[i], version)
		attachBlobs(l, blobs)

		if err := ld.reg.ValidateLayer(l); err != nil {
			metrics.NetworksRejectedTotal.Inc()
			return nil, fmt.Errorf("network %q rejected: %w", topo.Name, err)
		}
		n.Layers = append(n.Layers, l)
	}

	for _, l := range n.Layers {
		desc, ok := convDescFrom(l)
		if !ok {
			continue
		}
		impl, err := ld.compile(desc)
		if err != nil {
			if errors.Is(err, kernel.ErrNoImplementation) {
				logger.Log.WithLayer(l.Name, l.Kind).Warn("no compiled implementation, layer stays on generic execution")
				continue
			}
			return nil, fmt.Errorf("layer %q: %w", l.Name, err)
		}
		n.kernels[l.Name] = impl
	}

	metrics.NetworksLoadedTotal.Inc()
	logger.Log.Info("network loaded",
		"name", n.Name,
		"layers", len(n.Layers),
		"kernels", len(n.kernels))
	return n, nil
}

func (ld *Loader) compile(desc *kernel.ConvDesc) (kernel.Implementation, error) {
	if ld.cfg.DisableJIT {
		impl, err := kernel.NewReference(desc)
		if err != nil {
			return nil, kernel.ErrNoImplementation
		}
		return impl, nil
	}
	return kernel.Compile(desc)
}

func layerFrom(lj *LayerJSON, version int) *ir.Layer {
	l := &ir.Layer{
		Name:          lj.Name,
		Kind:          lj.Kind,
		FormatVersion: version,
		Params:        lj.Params,
	}
	if l.Params == nil {
		l.Params = map[string]string{}
	}
	for _, t := range lj.Inputs {
		l.Inputs = append(l.Inputs, ir.TensorDesc{Name: t.Name, Shape: ir.Shape(t.Shape)})
	}
	for _, t := range lj.Outputs {
		l.Outputs = append(l.Outputs, ir.TensorDesc{Name: t.Name, Shape: ir.Shape(t.Shape)})
	}
	return l
}

func attachBlobs(l *ir.Layer, blobs map[string]*ir.Blob) {
	for name, b := range blobs {
		layer, role, ok := splitBlobName(name)
		if !ok || layer != l.Name {
			continue
		}
		if l.Blobs == nil {
			l.Blobs = map[string]*ir.Blob{}
		}
		l.Blobs[role] = b
	}
}

// convDescFrom decides whether a validated layer is a candidate for the
// quantized depthwise specializer and builds its descriptor. Candidates are
// Convolution layers tagged with u8/s8 precision whose group count equals the
// channel count. Spatial attribute vectors are innermost-axis-first.
func convDescFrom(l *ir.Layer) (*kernel.ConvDesc, bool) {
	if l.Kind != "Convolution" {
		return nil, false
	}
	a, ok := l.Attrs.(*ir.ConvAttrs)
	if !ok {
		return nil, false
	}
	if l.Params["precision"] != "u8s8" {
		return nil, false
	}
	if len(l.Inputs) == 0 || len(l.Outputs) == 0 {
		return nil, false
	}
	in, out := l.Inputs[0].Shape, l.Outputs[0].Shape
	if in.Rank() != 4 || out.Rank() != 4 {
		return nil, false
	}
	if len(a.Kernel) != 2 || len(a.Strides) != 2 {
		return nil, false
	}
	if a.Group != in[1] {
		return nil, false
	}

	dstType := kernel.TypeF32
	switch l.Params["output_precision"] {
	case "", "f32":
	case "s32":
		dstType = kernel.TypeS32
	case "s8":
		dstType = kernel.TypeS8
	case "u8":
		dstType = kernel.TypeU8
	default:
		return nil, false
	}

	weiLayout := kernel.LayoutGoihw8g
	if isa.Detect() == isa.TierAVX512 {
		weiLayout = kernel.LayoutGoihw16g
	}

	d := &kernel.ConvDesc{
		SrcType: kernel.TypeU8,
		WeiType: kernel.TypeS8,
		DstType: dstType,

		SrcLayout: kernel.LayoutNHWC,
		WeiLayout: weiLayout,
		DstLayout: kernel.LayoutNHWC,

		SrcDims: []int(in),
		WeiDims: []int{a.Group, a.OutDepth / a.Group, in[1] / a.Group, a.Kernel[1], a.Kernel[0]},
		DstDims: []int(out),

		StrideH: a.Strides[1],
		StrideW: a.Strides[0],
	}
	if len(a.Dilations) == 2 {
		d.DilationH, d.DilationW = a.Dilations[1], a.Dilations[0]
	}
	if len(a.PadsBegin) == 2 {
		d.PadL, d.PadT = a.PadsBegin[0], a.PadsBegin[1]
	}
	if len(a.PadsEnd) == 2 {
		d.PadR, d.PadB = a.PadsEnd[0], a.PadsEnd[1]
	}
	if l.Blob("biases") != nil {
		d.BiasType = kernel.TypeF32
		d.BiasLayout = kernel.LayoutX
	}
	if l.Params["scales"] == "per_channel" {
		d.ScaleMask = kernel.ScaleMaskPerChannel
	}
	return d, true
}
