package kernel

import "math"

type loadFn func(d Buffer, off int) float32
type storeFn func(d Buffer, off int, v float32)

// loadFunc converts one stored destination element back to float32, used to
// re-load the addend for sum fusion.
func loadFunc(t DataType) loadFn {
	switch t {
	case TypeF32:
		return func(d Buffer, off int) float32 { return d.F32[off] }
	case TypeS32:
		return func(d Buffer, off int) float32 { return float32(d.S32[off]) }
	case TypeS8:
		return func(d Buffer, off int) float32 { return float32(d.S8[off]) }
	case TypeU8:
		return func(d Buffer, off int) float32 { return float32(d.U8[off]) }
	}
	return nil
}

func roundFunc(m RoundMode) func(float32) float64 {
	if m == RoundDown {
		return func(v float32) float64 { return math.Floor(float64(v)) }
	}
	return func(v float32) float64 { return math.RoundToEven(float64(v)) }
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// storeFunc writes one float accumulator into the destination. Integer
// targets round first, then saturate to the target range.
func storeFunc(t DataType, m RoundMode) storeFn {
	round := roundFunc(m)
	switch t {
	case TypeF32:
		return func(d Buffer, off int, v float32) { d.F32[off] = v }
	case TypeS32:
		return func(d Buffer, off int, v float32) {
			d.S32[off] = int32(clamp(round(v), math.MinInt32, math.MaxInt32))
		}
	case TypeS8:
		return func(d Buffer, off int, v float32) {
			d.S8[off] = int8(clamp(round(v), math.MinInt8, math.MaxInt8))
		}
	case TypeU8:
		return func(d Buffer, off int, v float32) {
			d.U8[off] = uint8(clamp(round(v), 0, math.MaxUint8))
		}
	}
	return nil
}

type finishFn func(a *CallArgs, dstOff, ch int, acc int32)

// buildFinish composes the per-element epilogue from the configuration: float
// conversion, bias, quantization scaling, fused post-ops, rounding and
// saturating store. Chosen once in Generate so Call carries no branching on
// types or fusion shape.
func buildFinish(cfg *Config, ops []PostOp) finishFn {
	post := composePostOps(ops)
	store := storeFunc(cfg.DstType, cfg.RoundMode)
	var load loadFn
	if cfg.WithSum {
		load = loadFunc(cfg.DstType)
	}
	withBias := cfg.WithBias
	perChScale := cfg.PerChannelScale

	return func(a *CallArgs, dstOff, ch int, acc int32) {
		v := float32(acc)
		if withBias {
			v += a.Bias[ch]
		}
		if perChScale {
			v *= a.Scales[ch]
		} else {
			v *= a.Scales[0]
		}
		if post != nil {
			var addend float32
			if load != nil {
				addend = load(a.Dst, dstOff)
			}
			v = post(v, a.OCOff+ch, addend)
		}
		store(a.Dst, dstOff, v)
	}
}
