package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arena-replay/rltrack/internal/parser"
	"github.com/arena-replay/rltrack/internal/sanitize"
	v1 "github.com/arena-replay/rltrack/internal/storage/memory/export/v1"
)

// fileBase makes a replay name safe to use in file names.
func fileBase(name string) string {
	name = strings.TrimSuffix(name, ".gz")
	name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	replacer := strings.NewReplacer(" ", "_", ":", "_")
	name = replacer.Replace(name)
	if name == "" || name == "." {
		return "replay"
	}
	return name
}

// exportJSON writes the ball, cars and players documents.
func (b *Backend) exportJSON() error {
	if b.info == nil {
		return fmt.Errorf("cannot export %q: %w", b.name, parser.ErrMissingRequiredMetadata)
	}

	data := &v1.ReplayData{
		Info:    b.info,
		Ball:    b.ball,
		Cars:    b.cars,
		Players: b.players,
	}
	docs := []struct {
		suffix string
		doc    any
	}{
		{"ball", v1.BuildBall(data)},
		{"cars", v1.BuildCars(data)},
		{"players", v1.BuildPlayers(data)},
	}

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	base := fileBase(b.name)
	paths := make([]string, 0, len(docs))
	for _, d := range docs {
		filename := fmt.Sprintf("%s_%s.json", base, d.suffix)
		if b.cfg.CompressOutput {
			filename += ".gz"
		}
		outputPath := filepath.Join(b.cfg.OutputDir, filename)

		if err := b.writeDocument(outputPath, d.doc); err != nil {
			return err
		}
		paths = append(paths, outputPath)
	}

	b.lastExportPaths = paths
	return nil
}

func (b *Backend) encode(doc any) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	if b.cfg.Sanitize {
		return sanitize.Bytes(data)
	}
	var indented []byte
	if indented, err = json.MarshalIndent(json.RawMessage(data), "", "  "); err != nil {
		return nil, fmt.Errorf("failed to indent JSON: %w", err)
	}
	return indented, nil
}

func (b *Backend) writeDocument(path string, doc any) error {
	data, err := b.encode(doc)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if !b.cfg.CompressOutput {
		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		return f.Close()
	}

	gw := gzip.NewWriter(f)
	if _, err := gw.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return f.Close()
}
