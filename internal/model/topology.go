// Package model loads a network container: a JSON topology describing the
// graph and an Arrow IPC file carrying the trained weights. Loading validates
// every layer fail-fast and compiles specialized kernels for the compute
// layers that qualify.
package model

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// TensorJSON is one input or output port in the topology file.
type TensorJSON struct {
	Name  string `json:"name,omitempty"`
	Shape []int  `json:"shape"`
}

// LayerJSON is one graph node in the topology file. Params carries the raw
// serialized attributes untouched; validators own their interpretation.
type LayerJSON struct {
	Name    string            `json:"name"`
	Kind    string            `json:"type"`
	Params  map[string]string `json:"params,omitempty"`
	Inputs  []TensorJSON      `json:"inputs,omitempty"`
	Outputs []TensorJSON      `json:"outputs,omitempty"`
}

// Topology is the deserialized form of a network description file.
type Topology struct {
	Name    string      `json:"name"`
	Version int         `json:"version"`
	Layers  []LayerJSON `json:"layers"`
}

// ReadTopology loads and decodes a topology file.
func ReadTopology(path string) (*Topology, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open topology: %w", err)
	}
	defer f.Close()
	return DecodeTopology(f)
}

// DecodeTopology decodes a topology from a stream.
func DecodeTopology(r io.Reader) (*Topology, error) {
	var t Topology
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to decode topology: %w", err)
	}
	if len(t.Layers) == 0 {
		return nil, fmt.Errorf("topology %q has no layers", t.Name)
	}
	return &t, nil
}
