package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/muralproject/mural/internal/cache"
	"github.com/muralproject/mural/internal/catalog"
	"github.com/muralproject/mural/internal/codec"
	"github.com/muralproject/mural/internal/config"
	"github.com/muralproject/mural/internal/loader"
	"github.com/muralproject/mural/internal/log"
	"github.com/muralproject/mural/internal/resolve"
	"github.com/muralproject/mural/internal/store"
	"github.com/muralproject/mural/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var showVersion bool
	var refresh bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&refresh, "refresh", false, "clear the cache before starting")
	flag.Parse()

	if showVersion {
		fmt.Printf("mural %s\n", Version)
		return
	}

	if err := run(refresh); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(refresh bool) error {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting mural", "version", Version)

	if !cfg.IsConfigured() {
		fmt.Println("No series configured.")
		fmt.Println("Add at least one series to config.yaml, e.g.:")
		fmt.Println()
		fmt.Println("  series:")
		fmt.Println("    desktop:")
		fmt.Println("      name: Desktop")
		fmt.Println("      index_url: https://example.com/data/desktop/index.json")
		fmt.Println("      category_base_url: https://example.com/data/desktop/")
		fmt.Println("  assets:")
		fmt.Println("    base_url: https://example.com/assets")
		return nil
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("mural requires an interactive terminal (use muralsync for scripted runs)")
	}

	ldr, closeFn, err := buildLoader(cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	if refresh {
		ldr.ClearCache()
		logger.Info("cache cleared on request")
	}

	observer := tui.NewChannelObserver(16)
	ldr.SetProgressFunc(observer.OnProgress)

	model := tui.NewModel(ldr, observer, cfg.SeriesTable(), cfg.UI.DefaultSeries)

	p := tea.NewProgram(model, tea.WithAltScreen())

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// buildLoader wires the acquisition pipeline: codec -> catalog client ->
// caches (memory + bolt) -> progressive loader.
func buildLoader(cfg *config.Config, logger *slog.Logger) (*loader.Loader, func(), error) {
	decoder := codec.Base64Decoder{}
	pool := codec.NewPool(cfg.Loader.DecodeWorkers, decoder)
	adapter := codec.NewAdapter(decoder, pool, cfg.Loader.DecodeThreshold, logger)

	client := catalog.NewClient(adapter, logger)
	resolver := resolve.New(cfg.Assets.BaseURL, cfg.Assets.Version)

	catStore, err := store.NewCatalogStore(cfg.Cache.Dir)
	if err != nil {
		logger.Warn("persistent cache unavailable, running memory-only", "error", err)
		catStore, _ = store.NewCatalogStore("")
	}

	caches := cache.New(cfg.SeriesTable(), client, resolver, catStore, logger)

	ldr := loader.New(caches, loader.Options{
		InitialWindow: cfg.Loader.InitialWindow,
		BatchSize:     cfg.Loader.BatchSize,
		BatchPause:    cfg.Loader.BatchPause(),
	}, logger)

	closeFn := func() {
		if pool != nil {
			pool.Close()
		}
		catStore.Close()
	}
	return ldr, closeFn, nil
}
