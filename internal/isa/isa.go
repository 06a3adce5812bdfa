// Package isa detects the widest vector instruction tier the current
// processor supports. Detection runs once and is cached; kernel feasibility
// checks read the cached result on every probe.
package isa

import (
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

type Tier int

const (
	TierNone Tier = iota
	TierSSE42
	TierAVX2
	TierAVX512
)

func (t Tier) String() string {
	switch t {
	case TierAVX512:
		return "avx512"
	case TierAVX2:
		return "avx2"
	case TierSSE42:
		return "sse42"
	}
	return "none"
}

// SIMDWidth returns the number of 32-bit lanes per vector register.
func (t Tier) SIMDWidth() int {
	if t == TierAVX512 {
		return 16
	}
	return 8
}

var (
	detectOnce sync.Once
	detected   Tier

	mu     sync.Mutex
	forced *Tier
)

// Detect returns the highest supported tier. A forced tier set by Force takes
// precedence over hardware probing.
func Detect() Tier {
	mu.Lock()
	if forced != nil {
		t := *forced
		mu.Unlock()
		return t
	}
	mu.Unlock()

	detectOnce.Do(func() {
		detected = probe()
	})
	return detected
}

func probe() Tier {
	switch {
	case cpuid.CPU.Supports(cpuid.AVX512F, cpuid.AVX512BW, cpuid.AVX512VL, cpuid.AVX512DQ):
		return TierAVX512
	case cpuid.CPU.Supports(cpuid.AVX2):
		return TierAVX2
	case cpuid.CPU.Supports(cpuid.SSE42):
		return TierSSE42
	}
	return TierNone
}

// Force pins the detected tier, overriding hardware probing. Pass a nil-safe
// reset by calling Reset. Used by configuration overrides and tests.
func Force(t Tier) {
	mu.Lock()
	defer mu.Unlock()
	forced = &t
}

// Reset clears a forced tier so Detect probes the hardware again.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	forced = nil
}

// Parse maps a tier name ("avx512", "avx2", "sse42") to its Tier.
func Parse(name string) (Tier, error) {
	switch strings.ToLower(name) {
	case "avx512":
		return TierAVX512, nil
	case "avx2":
		return TierAVX2, nil
	case "sse42":
		return TierSSE42, nil
	}
	return TierNone, fmt.Errorf("unknown isa tier %q", name)
}
