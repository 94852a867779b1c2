// muralsync warms the wallpaper cache from the command line: it activates
// each requested series, forces the full category load, and prints a short
// summary. Useful for scripted runs and slow links.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/muralproject/mural/internal/cache"
	"github.com/muralproject/mural/internal/catalog"
	"github.com/muralproject/mural/internal/codec"
	"github.com/muralproject/mural/internal/config"
	"github.com/muralproject/mural/internal/loader"
	"github.com/muralproject/mural/internal/log"
	"github.com/muralproject/mural/internal/resolve"
	"github.com/muralproject/mural/internal/store"
)

func main() {
	var seriesFlag string
	var clearFlag bool
	var timeoutFlag time.Duration
	flag.StringVar(&seriesFlag, "series", "", "series to sync (default: all configured)")
	flag.BoolVar(&clearFlag, "clear", false, "clear cached data first")
	flag.DurationVar(&timeoutFlag, "timeout", 5*time.Minute, "overall timeout")
	flag.Parse()

	if err := run(seriesFlag, clearFlag, timeoutFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(seriesID string, clear bool, timeout time.Duration) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	if !cfg.IsConfigured() {
		return fmt.Errorf("no series configured; edit config.yaml first")
	}

	table := cfg.SeriesTable()

	var targets []string
	if seriesID != "" {
		if _, err := table.Lookup(seriesID); err != nil {
			return err
		}
		targets = []string{seriesID}
	} else {
		targets = table.IDs()
		sort.Strings(targets)
	}

	decoder := codec.Base64Decoder{}
	pool := codec.NewPool(cfg.Loader.DecodeWorkers, decoder)
	if pool != nil {
		defer pool.Close()
	}
	adapter := codec.NewAdapter(decoder, pool, cfg.Loader.DecodeThreshold, logger)

	client := catalog.NewClient(adapter, logger)
	resolver := resolve.New(cfg.Assets.BaseURL, cfg.Assets.Version)

	catStore, err := store.NewCatalogStore(cfg.Cache.Dir)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer catStore.Close()

	caches := cache.New(table, client, resolver, catStore, logger)
	ldr := loader.New(caches, loader.Options{
		InitialWindow: cfg.Loader.InitialWindow,
		BatchSize:     cfg.Loader.BatchSize,
		// No render loop to starve; sync as fast as the server allows
		BatchPause: time.Millisecond,
	}, logger)

	if clear {
		ldr.ClearCache(targets...)
		fmt.Println("cache cleared")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for _, id := range targets {
		start := time.Now()

		res, err := ldr.Activate(ctx, id, true)
		if err != nil {
			fmt.Printf("%-12s FAILED: %v\n", id, err)
			continue
		}
		if err := ldr.LoadAll(ctx, id); err != nil {
			fmt.Printf("%-12s FAILED: %v\n", id, err)
			continue
		}
		ldr.WaitBackground()

		snap := ldr.Snapshot()
		mode := "sharded"
		if res.Legacy {
			mode = "legacy"
		}
		fmt.Printf("%-12s %5d wallpapers  %3d/%d categories  %-7s  %s\n",
			id, len(snap.Items), snap.CategoriesLoaded, snap.CategoryCount, mode,
			time.Since(start).Round(time.Millisecond))
	}

	return nil
}
