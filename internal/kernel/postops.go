package kernel

import "math"

// eltwiseFunc returns the scalar evaluation of one fused activation.
func eltwiseFunc(alg EltwiseAlg, alpha, beta float32) func(float32) float32 {
	switch alg {
	case EltwiseReLU:
		return func(v float32) float32 {
			if v > 0 {
				return v
			}
			return alpha * v
		}
	case EltwiseBoundedReLU:
		return func(v float32) float32 {
			if v < 0 {
				return 0
			}
			if v > alpha {
				return alpha
			}
			return v
		}
	case EltwiseELU:
		return func(v float32) float32 {
			if v > 0 {
				return v
			}
			return alpha * float32(math.Expm1(float64(v)))
		}
	case EltwiseTanh:
		return func(v float32) float32 {
			return float32(math.Tanh(float64(v)))
		}
	case EltwiseLogistic:
		return func(v float32) float32 {
			return float32(1 / (1 + math.Exp(-float64(v))))
		}
	case EltwiseClamp:
		return func(v float32) float32 {
			if v < alpha {
				return alpha
			}
			if v > beta {
				return beta
			}
			return v
		}
	case EltwiseLinear:
		return func(v float32) float32 { return alpha*v + beta }
	case EltwiseAbs:
		return func(v float32) float32 {
			if v < 0 {
				return -v
			}
			return v
		}
	case EltwiseSquare:
		return func(v float32) float32 { return v * v }
	case EltwiseSqrt:
		return func(v float32) float32 {
			return float32(math.Sqrt(float64(v)))
		}
	}
	return func(v float32) float32 { return v }
}

// composePostOps flattens a legal post-op sequence into one closure applied
// per output element, in list order. ocIdx selects per-channel operands of
// affine entries; addend is the destination value re-loaded for sum fusion.
func composePostOps(ops []PostOp) func(v float32, ocIdx int, addend float32) float32 {
	if len(ops) == 0 {
		return nil
	}
	steps := make([]func(float32, int, float32) float32, 0, len(ops))
	for _, op := range ops {
		switch op.Kind {
		case PostOpEltwise:
			f := eltwiseFunc(op.Alg, op.Alpha, op.Beta)
			steps = append(steps, func(v float32, _ int, _ float32) float32 {
				return f(v)
			})
		case PostOpDepthwise:
			w, b := op.Weights, op.Biases
			steps = append(steps, func(v float32, oc int, _ float32) float32 {
				return v*w[oc] + b[oc]
			})
		case PostOpSum:
			scale := op.Scale
			steps = append(steps, func(v float32, _ int, addend float32) float32 {
				return v + scale*addend
			})
		}
	}
	return func(v float32, ocIdx int, addend float32) float32 {
		for _, step := range steps {
			v = step(v, ocIdx, addend)
		}
		return v
	}
}
