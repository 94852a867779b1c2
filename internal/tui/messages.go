package tui

import "github.com/muralproject/mural/internal/domain"

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// SeriesActivatedMsg signals that a series finished its initial load
type SeriesActivatedMsg struct {
	Result domain.ActivateResult
}

// ProgressMsg carries a background loading progress update
type ProgressMsg domain.LoadProgress

// LoadAllDoneMsg signals that a forced full load finished
type LoadAllDoneMsg struct {
	Series string
}
