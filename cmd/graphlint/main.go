package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/23skdu/longbow-nock/internal/config"
	"github.com/23skdu/longbow-nock/internal/logger"
	"github.com/23skdu/longbow-nock/internal/model"
)

func main() {
	topologyPath := flag.String("topology", "", "Path to network topology JSON")
	weightsPath := flag.String("weights", "", "Path to Arrow IPC weights container (optional)")
	formatVersion := flag.Int("format-version", 4, "Serialized format version tag")
	logLevel := flag.String("log-level", "INFO", "Log level (DEBUG/INFO/WARN/ERROR)")
	logFormat := flag.String("log-format", "console", "Log format (console or json)")
	disableJIT := flag.Bool("disable-jit", false, "Force compute layers onto reference kernels")
	isaOverride := flag.String("isa", "", "Pin the vector ISA tier (avx512/avx2/sse42)")
	flag.Parse()

	if *topologyPath == "" {
		log.Fatal("--topology is required")
	}

	cfg := config.Config{
		FormatVersion: *formatVersion,
		LogLevel:      *logLevel,
		LogFormat:     *logFormat,
		DisableJIT:    *disableJIT,
		ISAOverride:   *isaOverride,
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	loader, err := model.NewLoader(cfg)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	n, err := loader.Load(*topologyPath, *weightsPath)
	if err != nil {
		log.Fatalf("Validation failed: %v", err)
	}

	fmt.Printf("=== Network %q (format v%d) ===\n", n.Name, n.Version)
	for _, l := range n.Layers {
		status := "ok"
		if impl := n.Kernel(l.Name); impl != nil {
			status = "ok, kernel " + impl.Name()
		}
		fmt.Printf("%-30s %-20s %s\n", l.Name, l.Kind, status)
	}
	fmt.Printf("%d layers validated\n", len(n.Layers))
}
