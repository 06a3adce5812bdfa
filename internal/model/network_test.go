package model

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/23skdu/longbow-nock/internal/config"
	"github.com/23skdu/longbow-nock/internal/ir"
	"github.com/23skdu/longbow-nock/internal/isa"
	"github.com/23skdu/longbow-nock/internal/kernel"
	"github.com/23skdu/longbow-nock/internal/logger"
)

const testTopology = `{
	"name": "dwnet",
	"version": 4,
	"layers": [
		{"name": "in", "type": "Input", "outputs": [{"shape": [1, 8, 5, 5]}]},
		{"name": "dw1", "type": "Convolution",
		 "params": {
			"output": "8", "kernel": "3,3", "group": "8",
			"precision": "u8s8", "output_precision": "f32"
		 },
		 "inputs": [{"shape": [1, 8, 5, 5]}],
		 "outputs": [{"shape": [1, 8, 3, 3]}]}
	]
}`

func writeTestTopology(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "net.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// writeTestWeights produces an Arrow IPC container holding the depthwise
// layer's weights and biases. Blobs have different sizes, so each one is a
// single-row list column with the logical shape in the column metadata.
func writeTestWeights(t *testing.T, dir string) string {
	t.Helper()
	alloc := memory.NewGoAllocator()

	fields := []arrow.Field{
		{
			Name:     "dw1.weights",
			Type:     arrow.ListOf(arrow.PrimitiveTypes.Float32),
			Metadata: arrow.NewMetadata([]string{"shape"}, []string{"8,1,1,3,3"}),
		},
		{
			Name:     "dw1.biases",
			Type:     arrow.ListOf(arrow.PrimitiveTypes.Float32),
			Metadata: arrow.NewMetadata([]string{"shape"}, []string{"8"}),
		},
	}
	schema := arrow.NewSchema(fields, nil)

	blob := func(n int) arrow.Array {
		b := array.NewListBuilder(alloc, arrow.PrimitiveTypes.Float32)
		defer b.Release()
		b.Append(true)
		b.ValueBuilder().(*array.Float32Builder).AppendValues(make([]float32, n), nil)
		return b.NewArray()
	}
	weights := blob(72)
	defer weights.Release()
	biases := blob(8)
	defer biases.Release()

	rec := array.NewRecord(schema, []arrow.Array{weights, biases}, 1)
	defer rec.Release()

	path := filepath.Join(dir, "weights.arrow")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w, err := ipc.NewFileWriter(f, ipc.WithSchema(schema), ipc.WithAllocator(alloc))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(rec); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func quietConfig() config.Config {
	cfg := config.Default()
	cfg.LogLevel = "ERROR"
	logger.Setup(cfg.LogLevel, cfg.LogFormat)
	return cfg
}

func TestLoadNetwork(t *testing.T) {
	isa.Force(isa.TierSSE42)
	defer isa.Reset()

	dir := t.TempDir()
	topo := writeTestTopology(t, dir, testTopology)
	weights := writeTestWeights(t, dir)

	ld, err := NewLoader(quietConfig())
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}
	n, err := ld.Load(topo, weights)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if n.Name != "dwnet" || n.Version != 4 {
		t.Errorf("network header = %q v%d", n.Name, n.Version)
	}
	if len(n.Layers) != 2 {
		t.Fatalf("layers = %d, want 2", len(n.Layers))
	}

	impl := n.Kernel("dw1")
	if impl == nil {
		t.Fatal("Kernel(dw1) = nil, want compiled implementation")
	}
	if got := impl.Name(); got != "jit_dw_conv_sse42" {
		t.Errorf("Kernel(dw1).Name() = %q, want jit_dw_conv_sse42", got)
	}
	if cfg := impl.Config(); cfg.WithBias != true || cfg.NGroups != 8 {
		t.Errorf("compiled config WithBias/NGroups = %v/%d, want true/8", cfg.WithBias, cfg.NGroups)
	}
	if n.Kernel("in") != nil {
		t.Error("Kernel(in) != nil, want nil for non-compute layer")
	}
}

func TestLoadDisableJIT(t *testing.T) {
	isa.Force(isa.TierSSE42)
	defer isa.Reset()

	dir := t.TempDir()
	topo := writeTestTopology(t, dir, testTopology)
	weights := writeTestWeights(t, dir)

	cfg := quietConfig()
	cfg.DisableJIT = true
	ld, err := NewLoader(cfg)
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}
	n, err := ld.Load(topo, weights)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	impl := n.Kernel("dw1")
	if impl == nil {
		t.Fatal("Kernel(dw1) = nil, want reference implementation")
	}
	if got := impl.Name(); got != "ref_dw_conv" {
		t.Errorf("Kernel(dw1).Name() = %q, want ref_dw_conv", got)
	}
}

func TestLoadWithoutWeights(t *testing.T) {
	isa.Force(isa.TierSSE42)
	defer isa.Reset()

	dir := t.TempDir()
	topo := writeTestTopology(t, dir, testTopology)

	ld, err := NewLoader(quietConfig())
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}
	n, err := ld.Load(topo, "")
	if err != nil {
		t.Fatalf("Load() without weights error = %v", err)
	}
	impl := n.Kernel("dw1")
	if impl == nil {
		t.Fatal("Kernel(dw1) = nil, want compiled implementation")
	}
	if impl.Config().WithBias {
		t.Error("WithBias = true, want false without a bias blob")
	}
}

func TestLoadRejectsInvalidLayer(t *testing.T) {
	isa.Force(isa.TierSSE42)
	defer isa.Reset()

	broken := strings.Replace(testTopology, `"kernel": "3,3", `, "", 1)
	dir := t.TempDir()
	topo := writeTestTopology(t, dir, broken)

	ld, err := NewLoader(quietConfig())
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}
	if _, err := ld.Load(topo, ""); err == nil {
		t.Error("Load() with broken layer = nil, want error")
	} else if !strings.Contains(err.Error(), "dw1") {
		t.Errorf("Load() error %q does not name the offending layer", err)
	}
}

func TestLoadAppliesISAOverride(t *testing.T) {
	defer isa.Reset()

	cfg := quietConfig()
	cfg.ISAOverride = "avx2"
	if _, err := NewLoader(cfg); err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}
	if got := isa.Detect(); got != isa.TierAVX2 {
		t.Errorf("Detect() after override = %v, want TierAVX2", got)
	}
}

func dwLayer() *ir.Layer {
	return &ir.Layer{
		Name: "dw1",
		Kind: "Convolution",
		Params: map[string]string{
			"precision": "u8s8",
		},
		Attrs: &ir.ConvAttrs{
			OutDepth: 8,
			Kernel:   []int{3, 3},
			Strides:  []int{2, 1},
			Group:    8,
		},
		Inputs:  []ir.TensorDesc{{Shape: ir.Shape{1, 8, 5, 5}}},
		Outputs: []ir.TensorDesc{{Shape: ir.Shape{1, 8, 2, 3}}},
	}
}

func TestConvDescFrom(t *testing.T) {
	isa.Force(isa.TierSSE42)
	defer isa.Reset()

	l := dwLayer()
	d, ok := convDescFrom(l)
	if !ok {
		t.Fatal("convDescFrom() = false, want candidate")
	}
	if d.SrcType != kernel.TypeU8 || d.WeiType != kernel.TypeS8 || d.DstType != kernel.TypeF32 {
		t.Errorf("types = %v/%v/%v", d.SrcType, d.WeiType, d.DstType)
	}
	if d.WeiLayout != kernel.LayoutGoihw8g {
		t.Errorf("WeiLayout = %v, want Goihw8g on an 8-lane tier", d.WeiLayout)
	}
	wantWei := []int{8, 1, 1, 3, 3}
	for i, v := range wantWei {
		if d.WeiDims[i] != v {
			t.Fatalf("WeiDims = %v, want %v", d.WeiDims, wantWei)
		}
	}
	// Attribute vectors are innermost-axis-first.
	if d.StrideW != 2 || d.StrideH != 1 {
		t.Errorf("strides = W%d/H%d, want W2/H1", d.StrideW, d.StrideH)
	}
	if d.BiasType != kernel.TypeUndef {
		t.Errorf("BiasType = %v, want undef without a bias blob", d.BiasType)
	}
}

func TestConvDescFromGates(t *testing.T) {
	isa.Force(isa.TierSSE42)
	defer isa.Reset()

	tests := []struct {
		name   string
		mutate func(*ir.Layer)
	}{
		{name: "wrong kind", mutate: func(l *ir.Layer) { l.Kind = "Pooling" }},
		{name: "no attrs", mutate: func(l *ir.Layer) { l.Attrs = nil }},
		{name: "float precision", mutate: func(l *ir.Layer) { l.Params["precision"] = "f32" }},
		{name: "not grouped per channel", mutate: func(l *ir.Layer) { l.Attrs.(*ir.ConvAttrs).Group = 4 }},
		{name: "rank 3 input", mutate: func(l *ir.Layer) { l.Inputs[0].Shape = ir.Shape{8, 5, 5} }},
		{name: "bad output precision", mutate: func(l *ir.Layer) { l.Params["output_precision"] = "f16" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := dwLayer()
			tt.mutate(l)
			if _, ok := convDescFrom(l); ok {
				t.Error("convDescFrom() = true, want rejection")
			}
		})
	}
}

func TestConvDescFromOutputPrecisionAndScales(t *testing.T) {
	isa.Force(isa.TierSSE42)
	defer isa.Reset()

	l := dwLayer()
	l.Params["output_precision"] = "u8"
	l.Params["scales"] = "per_channel"
	l.Blobs = map[string]*ir.Blob{"biases": {Shape: ir.Shape{8}, Elems: 8}}

	d, ok := convDescFrom(l)
	if !ok {
		t.Fatal("convDescFrom() = false, want candidate")
	}
	if d.DstType != kernel.TypeU8 {
		t.Errorf("DstType = %v, want u8", d.DstType)
	}
	if d.ScaleMask != kernel.ScaleMaskPerChannel {
		t.Errorf("ScaleMask = %d, want per-channel mask", d.ScaleMask)
	}
	if d.BiasType != kernel.TypeF32 || d.BiasLayout != kernel.LayoutX {
		t.Errorf("bias = %v/%v, want f32/x", d.BiasType, d.BiasLayout)
	}
}

func TestReadWeightsListColumns(t *testing.T) {
	dir := t.TempDir()
	path := writeTestWeights(t, dir)

	blobs, err := ReadWeights(path)
	if err != nil {
		t.Fatalf("ReadWeights() error = %v", err)
	}
	w := blobs["dw1.weights"]
	if w == nil || w.Elems != 72 {
		t.Fatalf("weights blob = %+v, want 72 elements", w)
	}
	if w.Shape.Rank() != 5 || w.Shape[0] != 8 {
		t.Errorf("weights shape = %v, want [8 1 1 3 3]", w.Shape)
	}
	b := blobs["dw1.biases"]
	if b == nil || b.Elems != 8 {
		t.Fatalf("biases blob = %+v, want 8 elements", b)
	}
}
