package logging

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGraylogHandler returns a handler that ships JSON-encoded records to a
// GELF UDP endpoint. The returned closer releases the connection.
func NewGraylogHandler(address string, opts *slog.HandlerOptions) (slog.Handler, io.Closer, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, nil, fmt.Errorf("error connecting to graylog at %s: %w", address, err)
	}
	w.Facility = "rltrack"
	return slog.NewJSONHandler(w, opts), w, nil
}
