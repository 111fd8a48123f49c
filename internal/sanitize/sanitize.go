// Package sanitize prepares exported trajectory documents for visualization
// consumers that cannot handle null numbers or missing velocities.
package sanitize

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// positionsKey names the arrays whose elements are trajectory samples.
const positionsKey = "positions"

var velocityKeys = []string{"linear_velocity", "angular_velocity"}

// ReplaceNulls returns v with every null value replaced by 0.0, at any depth.
// Maps and slices are modified in place.
func ReplaceNulls(v any) any {
	switch t := v.(type) {
	case nil:
		return 0.0
	case map[string]any:
		for k, child := range t {
			t[k] = ReplaceNulls(child)
		}
		return t
	case []any:
		for i, child := range t {
			t[i] = ReplaceNulls(child)
		}
		return t
	default:
		return v
	}
}

// EnsureVelocities sets a zero linear and angular velocity on every sample
// found in a "positions" array that lacks one, at any depth.
func EnsureVelocities(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if k == positionsKey {
				if samples, ok := child.([]any); ok {
					for _, s := range samples {
						if obj, ok := s.(map[string]any); ok {
							ensureSampleVelocities(obj)
						}
					}
				}
			}
			EnsureVelocities(child)
		}
	case []any:
		for _, child := range t {
			EnsureVelocities(child)
		}
	}
	return v
}

func ensureSampleVelocities(sample map[string]any) {
	for _, key := range velocityKeys {
		if existing, ok := sample[key]; !ok || existing == nil {
			sample[key] = map[string]any{"x": 0.0, "y": 0.0, "z": 0.0}
		}
	}
}

// Document applies EnsureVelocities then ReplaceNulls.
func Document(v any) any {
	return ReplaceNulls(EnsureVelocities(v))
}

// Decode reads a JSON document preserving number literals.
func Decode(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("error decoding document: %w", err)
	}
	return v, nil
}

// Bytes sanitizes an encoded document and returns it indented.
func Bytes(data []byte) ([]byte, error) {
	v, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(Document(v), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("error encoding document: %w", err)
	}
	return out, nil
}

// File sanitizes the document at in and writes it to out. Either path may end
// in .gz.
func File(in, out string) error {
	src, err := os.Open(in)
	if err != nil {
		return fmt.Errorf("error opening %s: %w", in, err)
	}
	defer func() { _ = src.Close() }()

	var r io.Reader = src
	if isGzip(in) {
		gz, err := gzip.NewReader(src)
		if err != nil {
			return fmt.Errorf("error opening gzip stream: %w", err)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	v, err := Decode(r)
	if err != nil {
		return err
	}

	dst, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", out, err)
	}
	defer func() { _ = dst.Close() }()

	var w io.Writer = dst
	var gzw *gzip.Writer
	if isGzip(out) {
		gzw = gzip.NewWriter(dst)
		w = gzw
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Document(v)); err != nil {
		return fmt.Errorf("error encoding document: %w", err)
	}
	if gzw != nil {
		if err := gzw.Close(); err != nil {
			return fmt.Errorf("error closing gzip stream: %w", err)
		}
	}
	return dst.Close()
}

func isGzip(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".gz")
}
