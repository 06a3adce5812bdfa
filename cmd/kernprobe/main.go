package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/23skdu/longbow-nock/internal/isa"
	"github.com/23skdu/longbow-nock/internal/kernel"
)

// descJSON is the probe input: a convolution descriptor in JSON form.
type descJSON struct {
	SrcType string `json:"src_type"`
	WeiType string `json:"wei_type"`
	DstType string `json:"dst_type"`

	SrcDims []int `json:"src_dims"`
	WeiDims []int `json:"wei_dims"`
	DstDims []int `json:"dst_dims"`

	StrideH   int `json:"stride_h"`
	StrideW   int `json:"stride_w"`
	DilationH int `json:"dilation_h"`
	DilationW int `json:"dilation_w"`

	PadT int `json:"pad_t"`
	PadL int `json:"pad_l"`
	PadB int `json:"pad_b"`
	PadR int `json:"pad_r"`

	WithBias        bool `json:"with_bias"`
	PerChannelScale bool `json:"per_channel_scale"`
}

func parseType(s string) (kernel.DataType, error) {
	switch s {
	case "u8":
		return kernel.TypeU8, nil
	case "s8":
		return kernel.TypeS8, nil
	case "s32":
		return kernel.TypeS32, nil
	case "f32", "":
		return kernel.TypeF32, nil
	}
	return kernel.TypeUndef, fmt.Errorf("unknown data type %q", s)
}

func main() {
	descPath := flag.String("desc", "", "Path to convolution descriptor JSON")
	isaOverride := flag.String("isa", "", "Pin the vector ISA tier (avx512/avx2/sse42)")
	flag.Parse()

	if *isaOverride != "" {
		tier, err := isa.Parse(*isaOverride)
		if err != nil {
			log.Fatalf("Invalid ISA override: %v", err)
		}
		isa.Force(tier)
	}

	tier := isa.Detect()
	fmt.Printf("=== Processor ===\n")
	fmt.Printf("tier: %s (simd width %d)\n", tier, tier.SIMDWidth())

	if *descPath == "" {
		return
	}

	raw, err := os.ReadFile(*descPath)
	if err != nil {
		log.Fatalf("Failed to read descriptor: %v", err)
	}
	var dj descJSON
	if err := json.Unmarshal(raw, &dj); err != nil {
		log.Fatalf("Failed to decode descriptor: %v", err)
	}

	d := &kernel.ConvDesc{
		SrcDims:   dj.SrcDims,
		WeiDims:   dj.WeiDims,
		DstDims:   dj.DstDims,
		StrideH:   dj.StrideH,
		StrideW:   dj.StrideW,
		DilationH: dj.DilationH,
		DilationW: dj.DilationW,
		PadT:      dj.PadT,
		PadL:      dj.PadL,
		PadB:      dj.PadB,
		PadR:      dj.PadR,
		SrcLayout: kernel.LayoutNHWC,
		DstLayout: kernel.LayoutNHWC,
	}
	if d.SrcType, err = parseType(dj.SrcType); err != nil {
		log.Fatal(err)
	}
	if d.WeiType, err = parseType(dj.WeiType); err != nil {
		log.Fatal(err)
	}
	if d.DstType, err = parseType(dj.DstType); err != nil {
		log.Fatal(err)
	}
	d.WeiLayout = kernel.LayoutGoihw8g
	if tier == isa.TierAVX512 {
		d.WeiLayout = kernel.LayoutGoihw16g
	}
	if dj.WithBias {
		d.BiasType = kernel.TypeF32
		d.BiasLayout = kernel.LayoutX
	}
	if dj.PerChannelScale {
		d.ScaleMask = kernel.ScaleMaskPerChannel
	}

	fmt.Printf("\n=== Specializer ===\n")
	cfg, err := kernel.InitConf(d)
	if err != nil {
		fmt.Printf("feasible: no (%v)\n", err)
		return
	}
	fmt.Printf("feasible: yes\n")
	fmt.Printf("channels: %d (block %d, %d blocks)\n", cfg.OC, cfg.ChBlock, cfg.NbCh)
	fmt.Printf("unroll: width %d, channel groups %d\n", cfg.URW, cfg.NbChBlocking)
	fmt.Printf("per-channel scale: %v\n", cfg.PerChannelScale)
}
