package kernel

import (
	"time"

	"github.com/23skdu/longbow-nock/internal/logger"
	"github.com/23skdu/longbow-nock/internal/metrics"
)

// Implementation is one executable convolution bound to a configuration.
type Implementation interface {
	Call(*CallArgs)
	Config() *Config
	Name() string
}

// Compile picks the best implementation for a descriptor: the specialized
// kernel when its feasibility probe accepts, the reference fallback
// otherwise. ErrNoImplementation is returned only when every candidate
// refuses.
func Compile(d *ConvDesc) (Implementation, error) {
	start := time.Now()

	cfg, err := InitConf(d)
	if err == nil {
		k, gerr := Generate(cfg, d.PostOps)
		if gerr == nil {
			metrics.RecordKernelCompile(k.Name(), "ok", time.Since(start))
			logger.Log.Debug("kernel specialized",
				"impl", k.Name(),
				"channels", cfg.OC,
				"kernel", [2]int{cfg.KH, cfg.KW})
			return k, nil
		}
		err = gerr
	}
	metrics.RecordKernelCompile("jit_dw_conv", "unimplemented", time.Since(start))

	ref, rerr := NewReference(d)
	if rerr == nil {
		metrics.RecordKernelCompile(ref.Name(), "ok", time.Since(start))
		logger.Log.Debug("kernel fell back to reference", "impl", ref.Name())
		return ref, nil
	}
	metrics.RecordKernelCompile("ref_dw_conv", "unimplemented", time.Since(start))

	return nil, ErrNoImplementation
}
