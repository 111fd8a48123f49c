package parser

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
)

// intFromNumber converts a decoded JSON number into an int.
// Recordings may serialize integer properties as floats ("3.0").
func intFromNumber(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("intFromNumber: %v is not a valid integer", f)
	}
	return int(f), nil
}

// Parser turns a decoded recording document into typed frames.
// It has zero external dependencies beyond a logger.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Decode reads a whole document from r. Attribute payloads are decoded into
// their tagged variants here, once per update event.
func (p *Parser) Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("error decoding replay document: %w", err)
	}

	p.logger.Debug("Decoded replay document",
		"names", len(doc.Names),
		"frames", len(doc.NetworkFrames.Frames),
		"properties", len(doc.Properties))

	return &doc, nil
}

// ParseFile opens and decodes the document at path. Files ending in .gz are
// decompressed on the fly.
func (p *Parser) ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening replay file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("error opening gzip stream: %w", err)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	doc, err := p.Decode(r)
	if err != nil {
		return nil, err
	}
	p.logger.Info("Loaded replay", "path", path, "frames", len(doc.NetworkFrames.Frames))
	return doc, nil
}
