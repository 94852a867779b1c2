// Package codec turns opaque encoded wire blobs into decoded JSON text.
//
// Decoding is CPU-bound, so blobs above a size threshold are offloaded to a
// bounded worker pool; small blobs, or any pool failure, fall back to an
// in-line decode on the calling goroutine. The adapter never caches;
// callers own that.
package codec

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/muralproject/mural/internal/domain"
)

// DefaultThreshold is the minimum blob size (bytes) worth a pool round-trip.
const DefaultThreshold = 1000

// Decoder is the wire-format decode primitive: encoded blob in, JSON text out.
type Decoder interface {
	Decode(blob string) (string, error)
}

// Base64Decoder decodes standard-base64 encoded payload blobs.
type Base64Decoder struct{}

func (Base64Decoder) Decode(blob string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		// Some documents ship URL-safe alphabet blobs
		data, err = base64.URLEncoding.DecodeString(blob)
		if err != nil {
			return "", err
		}
	}
	return string(data), nil
}

// Adapter implements domain.PayloadDecoder over a Decoder, with optional
// pool offload for large blobs.
type Adapter struct {
	dec       Decoder
	pool      *Pool // nil = pool unavailable, decode in-line only
	threshold int
	logger    *slog.Logger
}

// NewAdapter creates a decode adapter. pool may be nil.
func NewAdapter(dec Decoder, pool *Pool, threshold int, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Adapter{dec: dec, pool: pool, threshold: threshold, logger: logger}
}

// DecodeJSON decodes blob and returns the decoded JSON text. The returned
// bytes are guaranteed syntactically valid JSON. On failure it returns a
// *domain.DecodeError carrying the payload identity.
func (a *Adapter) DecodeJSON(ctx context.Context, series, source, blob string) ([]byte, error) {
	if a.pool != nil && len(blob) > a.threshold {
		data, err := a.pool.Decode(ctx, blob)
		if err == nil {
			return data, nil
		}
		a.logger.Debug("pool decode failed, falling back in-line",
			"series", series, "source", source, "error", err)
	}

	data, err := decodeAndValidate(a.dec, blob)
	if err != nil {
		return nil, &domain.DecodeError{Series: series, Source: source, Err: err}
	}
	return data, nil
}

// decodeAndValidate runs the raw decode and rejects non-JSON output.
func decodeAndValidate(dec Decoder, blob string) ([]byte, error) {
	text, err := dec.Decode(blob)
	if err != nil {
		return nil, err
	}
	data := []byte(text)
	if !json.Valid(data) {
		return nil, errors.New("decoded payload is not valid JSON")
	}
	return data, nil
}
