package validate

import (
	"fmt"

	"github.com/23skdu/longbow-nock/internal/ir"
)

// checkNumOfInput rejects input cardinalities outside the allowed set,
// independent of shape content.
func checkNumOfInput(in []ir.Shape, allowed []int) error {
	for _, n := range allowed {
		if len(in) == n {
			return nil
		}
	}
	return fmt.Errorf("%w: number of inputs (%d) is not equal to expected ones %v", ErrShapeMismatch, len(in), allowed)
}

// checkDims rejects empty shapes and ranks outside the allowed set.
func checkDims(shapes []ir.Shape, allowedRanks []int) error {
	for _, s := range shapes {
		if len(s) == 0 {
			return fmt.Errorf("%w: dimension is empty", ErrShapeMismatch)
		}
		ok := false
		for _, r := range allowedRanks {
			if len(s) == r {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("%w: rank %d not in supported set %v", ErrShapeMismatch, len(s), allowedRanks)
		}
	}
	return nil
}

// weightableParams drives the shared blob-size derivation for weightable
// layer kinds.
type weightableParams struct {
	kernel          []int
	outputs         int
	groups          int
	kernelFromInput bool
}

// checkWeightable validates weights/biases blob sizes against the analytic
// expectation: weights = OC*IC*prod(kernel)/G with IC taken from shape index
// 1 (channel-first layout), biases = OC. Blobs that are absent are skipped.
func checkWeightable(blobs map[string]*ir.Blob, in []ir.Shape, p weightableParams, allowedRanks []int) error {
	if len(in) != 1 {
		return fmt.Errorf("%w: number of inputs (%d) is not equal to expected ones (1)", ErrShapeMismatch, len(in))
	}
	first := in[0]
	if len(first) == 0 {
		return fmt.Errorf("%w: input shape can't be empty", ErrShapeMismatch)
	}
	rankOK := false
	for _, r := range allowedRanks {
		if len(first) == r {
			rankOK = true
			break
		}
	}
	if !rankOK {
		return fmt.Errorf("%w: input shape %v has unexpected rank, supported: %v", ErrShapeMismatch, first, allowedRanks)
	}

	ic := first[1]
	oc := p.outputs

	var kernel []int
	if p.kernelFromInput {
		// Trailing spatial dims of the input, innermost first.
		for i := 1; i <= len(first)-2; i++ {
			kernel = append(kernel, first[len(first)-i])
		}
	} else {
		kernel = p.kernel
	}

	if w := blobs["weights"]; w != nil {
		if w.Size() == 0 {
			return fmt.Errorf("%w: weights can't be empty", ErrWeightSizeMismatch)
		}
		expected := oc * ic
		for _, k := range kernel {
			expected *= k
		}
		if p.groups > 0 {
			if expected%p.groups != 0 {
				return fmt.Errorf("%w: groups (%d) don't evenly divide derived weights size (%d)",
					ErrWeightSizeMismatch, p.groups, expected)
			}
			expected /= p.groups
		}
		if expected != w.Size() {
			return fmt.Errorf("%w: kernels %v, channels %d, output depth %d, groups %d expect weights size %d, got %d",
				ErrWeightSizeMismatch, kernel, ic, oc, p.groups, expected, w.Size())
		}
	}

	if b := blobs["biases"]; b != nil {
		if b.Size() == 0 {
			return fmt.Errorf("%w: biases can't be empty", ErrWeightSizeMismatch)
		}
		if oc != b.Size() {
			return fmt.Errorf("%w: number of outputs (%d) doesn't match biases size %d", ErrWeightSizeMismatch, oc, b.Size())
		}
	}

	return nil
}

// reverseAxes converts a serialized outermost-first list to the internal
// innermost-first order: the last listed value maps to spatial axis 0. The
// convention matches the on-disk format and must not change.
func reverseAxes(in []int) []int {
	out := make([]int, len(in))
	for i := 1; i <= len(in); i++ {
		out[i-1] = in[len(in)-i]
	}
	return out
}

func repeatInt(v, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}
