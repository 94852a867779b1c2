package tui

import "github.com/muralproject/mural/internal/domain"

// ChannelObserver adapts domain.ProgressFunc to a channel for Bubble Tea.
type ChannelObserver struct {
	ch chan domain.LoadProgress
}

// NewChannelObserver creates a new channel-based observer.
func NewChannelObserver(buffer int) *ChannelObserver {
	return &ChannelObserver{ch: make(chan domain.LoadProgress, buffer)}
}

// OnProgress sends progress to the channel (non-blocking if full).
func (o *ChannelObserver) OnProgress(progress domain.LoadProgress) {
	select {
	case o.ch <- progress:
	default: // Non-blocking if channel full
	}
}

// Updates returns the receive side for the TUI event loop.
func (o *ChannelObserver) Updates() <-chan domain.LoadProgress {
	return o.ch
}
