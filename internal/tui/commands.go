package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muralproject/mural/internal/domain"
	"github.com/muralproject/mural/internal/loader"
)

// activateSeriesCmd runs Activate off the UI goroutine.
func activateSeriesCmd(l *loader.Loader, seriesID string, force bool) tea.Cmd {
	return func() tea.Msg {
		res, err := l.Activate(context.Background(), seriesID, force)
		if err != nil {
			return ErrMsg{Err: err, Context: "activating " + seriesID}
		}
		return SeriesActivatedMsg{Result: res}
	}
}

// loadAllCmd forces the remainder of a series to load.
func loadAllCmd(l *loader.Loader, seriesID string) tea.Cmd {
	return func() tea.Msg {
		if err := l.LoadAll(context.Background(), seriesID); err != nil {
			return ErrMsg{Err: err, Context: "loading " + seriesID}
		}
		return LoadAllDoneMsg{Series: seriesID}
	}
}

// waitProgressCmd blocks on the observer channel for the next update.
func waitProgressCmd(updates <-chan domain.LoadProgress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-updates
		if !ok {
			return nil
		}
		return ProgressMsg(p)
	}
}
