package kernel

// Kernel is one generated depthwise convolution bound to a Config. Generate
// composes the loop bodies and the element epilogue once; Call performs no
// validation and is safe for concurrent use with distinct call contexts.
type Kernel struct {
	cfg    *Config
	finish finishFn
}

// Generate builds the kernel for a configuration produced by InitConf,
// fusing the given post-operation sequence.
func Generate(cfg *Config, ops []PostOp) (*Kernel, error) {
	if !postOpsOK(ops) {
		return nil, ErrUnimplemented
	}
	return &Kernel{cfg: cfg, finish: buildFinish(cfg, ops)}, nil
}

// Config returns the configuration the kernel was generated for.
func (k *Kernel) Config() *Config { return k.cfg }

// Name identifies the implementation in logs and metrics.
func (k *Kernel) Name() string { return "jit_dw_conv_" + k.cfg.Tier.String() }

// Call executes one invocation. The channel-group loop takes a fast path when
// the invocation covers exactly NbChBlocking full blocks, otherwise walks full
// blocks and finishes the remainder one lane at a time.
func (k *Kernel) Call(a *CallArgs) {
	cfg := k.cfg
	if a.ChWork == cfg.NbChBlocking*cfg.ChBlock {
		k.widthLoop(a, 0, a.ChWork)
		return
	}
	base, work := 0, a.ChWork
	for work >= cfg.ChBlock {
		k.widthLoop(a, base, cfg.ChBlock)
		base += cfg.ChBlock
		work -= cfg.ChBlock
	}
	for ; work > 0; work-- {
		k.widthLoop(a, base, 1)
		base++
	}
}

// widthLoop covers the invocation's output columns with the unrolled main
// body, then a single-column tail.
func (k *Kernel) widthLoop(a *CallArgs, chBase, chCount int) {
	ow := 0
	for ow+k.cfg.URW <= a.URW {
		k.block(a, chBase, chCount, ow, k.cfg.URW)
		ow += k.cfg.URW
	}
	if ow < a.URW {
		k.block(a, chBase, chCount, ow, a.URW-ow)
	}
}

// block accumulates owCount output columns over chCount channels and runs the
// epilogue on each element. KHPadding/KWPadding are the runtime filter trip
// counts; zero skips accumulation entirely, leaving the epilogue applied to a
// zero accumulator.
func (k *Kernel) block(a *CallArgs, chBase, chCount, owBase, owCount int) {
	cfg := k.cfg
	for i := 0; i < owCount; i++ {
		ow := owBase + i
		for j := 0; j < chCount; j++ {
			ch := chBase + j
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
			k.finish(a, ow*cfg.OC+ch, ch, acc)
		}
	}
}
