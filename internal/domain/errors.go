package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for catalog operations
var (
	// ErrUnknownSeries indicates a series id absent from the static series table.
	// Fatal to the call; retrying with the same input cannot succeed.
	ErrUnknownSeries = errors.New("unknown series")

	// ErrItemNotFound indicates the requested item is not in the merged list
	ErrItemNotFound = errors.New("item not found")
)

// FetchError reports a transport or HTTP failure. Nothing is cached on a
// fetch failure, so an explicit retry is always safe.
type FetchError struct {
	URL    string
	Status int // HTTP status code, 0 on transport errors
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DecodeError reports a malformed or undecodable payload blob. It carries
// the payload identity (series, source document) for diagnostics. Callers
// at the cache layers absorb it with a degrade-to-plain-or-empty policy;
// only the decode primitive itself propagates it.
type DecodeError struct {
	Series string
	Source string // manifest URL or category file the blob came from
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s/%s: %v", e.Series, e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// StructuralError reports a manifest document that fetched and parsed but
// lacks the expected shape. It selects the legacy monolithic load path.
type StructuralError struct {
	Series string
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("manifest for %s: %s", e.Series, e.Reason)
}
