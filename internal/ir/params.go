package ir

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Raw parameter access errors. Callers classify failures with errors.Is.
var (
	ErrMissingParameter   = errors.New("missing parameter")
	ErrMalformedParameter = errors.New("malformed parameter")
)

// HasParam reports whether the raw parameter map contains key.
func (l *Layer) HasParam(key string) bool {
	_, ok := l.Params[key]
	return ok
}

func (l *Layer) raw(key string) (string, error) {
	v, ok := l.Params[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrMissingParameter, key)
	}
	return v, nil
}

// ParamString returns the raw string value of key.
func (l *Layer) ParamString(key string) (string, error) {
	return l.raw(key)
}

// ParamStringDef returns the raw string value of key, or def when absent.
func (l *Layer) ParamStringDef(key, def string) string {
	if v, ok := l.Params[key]; ok {
		return v
	}
	return def
}

func (l *Layer) ParamInt(key string) (int, error) {
	v, err := l.raw(key)
	if err != nil {
		return 0, err
	}
	return parseInt(key, v)
}

func (l *Layer) ParamIntDef(key string, def int) (int, error) {
	v, ok := l.Params[key]
	if !ok {
		return def, nil
	}
	return parseInt(key, v)
}

func (l *Layer) ParamUint(key string) (int, error) {
	v, err := l.raw(key)
	if err != nil {
		return 0, err
	}
	return parseUint(key, v)
}

func (l *Layer) ParamUintDef(key string, def int) (int, error) {
	v, ok := l.Params[key]
	if !ok {
		return def, nil
	}
	return parseUint(key, v)
}

func (l *Layer) ParamFloat(key string) (float32, error) {
	v, err := l.raw(key)
	if err != nil {
		return 0, err
	}
	return parseFloat(key, v)
}

func (l *Layer) ParamFloatDef(key string, def float32) (float32, error) {
	v, ok := l.Params[key]
	if !ok {
		return def, nil
	}
	return parseFloat(key, v)
}

// ParamBool accepts the "true"/"1" family (and their negatives), case
// insensitive.
func (l *Layer) ParamBoolDef(key string, def bool) (bool, error) {
	v, ok := l.Params[key]
	if !ok {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q is not a bool: %q", ErrMalformedParameter, key, v)
}

// List accessors split on ',', trim each element and parse it. An empty
// string yields an empty list.

func (l *Layer) ParamInts(key string) ([]int, error) {
	v, err := l.raw(key)
	if err != nil {
		return nil, err
	}
	return parseList(key, v, parseInt)
}

func (l *Layer) ParamIntsDef(key string, def []int) ([]int, error) {
	v, ok := l.Params[key]
	if !ok {
		return def, nil
	}
	return parseList(key, v, parseInt)
}

func (l *Layer) ParamUints(key string) ([]int, error) {
	v, err := l.raw(key)
	if err != nil {
		return nil, err
	}
	return parseList(key, v, parseUint)
}

func (l *Layer) ParamUintsDef(key string, def []int) ([]int, error) {
	v, ok := l.Params[key]
	if !ok {
		return def, nil
	}
	return parseList(key, v, parseUint)
}

func (l *Layer) ParamFloats(key string) ([]float32, error) {
	v, err := l.raw(key)
	if err != nil {
		return nil, err
	}
	return parseList(key, v, parseFloat)
}

func (l *Layer) ParamFloatsDef(key string, def []float32) ([]float32, error) {
	v, ok := l.Params[key]
	if !ok {
		return def, nil
	}
	return parseList(key, v, parseFloat)
}

func (l *Layer) ParamStringsDef(key string, def []string) []string {
	v, ok := l.Params[key]
	if !ok {
		return def
	}
	if strings.TrimSpace(v) == "" {
		return []string{}
	}
	parts := strings.Split(v, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

func parseInt(key, v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an int: %q", ErrMalformedParameter, key, v)
	}
	return n, nil
}

func parseUint(key, v string) (int, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an unsigned int: %q", ErrMalformedParameter, key, v)
	}
	return int(n), nil
}

func parseFloat(key, v string) (float32, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a float: %q", ErrMalformedParameter, key, v)
	}
	return float32(f), nil
}

func parseList[T any](key, v string, parse func(string, string) (T, error)) ([]T, error) {
	if strings.TrimSpace(v) == "" {
		return []T{}, nil
	}
	parts := strings.Split(v, ",")
	out := make([]T, len(parts))
	for i, p := range parts {
		x, err := parse(key, p)
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return out, nil
}
