package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/pdrcorrea/PontoNews/app/aggregator"
	"github.com/pdrcorrea/PontoNews/app/cfg"
	"github.com/pdrcorrea/PontoNews/app/collect"
	"github.com/pdrcorrea/PontoNews/app/config"
	"github.com/pdrcorrea/PontoNews/app/enrich"
	"github.com/pdrcorrea/PontoNews/app/feed"
	"github.com/pdrcorrea/PontoNews/app/imagecache"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Build failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	appCfg, err := cfg.Load()
	if err != nil {
		return err
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return nil
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting PontoNews builder", "version", appCfg.Version, "sources", appCfg.SourcesFile)

	sourcesCfg, err := config.NewLoader(appCfg.SourcesFile).Load()
	if err != nil {
		// A missing sources file is an empty run, not a hard failure:
		// the scheduler keeps invoking us and the presentation layer
		// still gets a valid manifest.
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Sources file not found, writing empty manifest", "path", appCfg.SourcesFile)
			empty := aggregator.EmptyManifest(fmt.Sprintf("sources file not found: %s", appCfg.SourcesFile))
			return aggregator.WriteManifest(empty, appCfg.OutputFile)
		}
		return err
	}

	store, err := imagecache.NewDiskStore(appCfg.CacheDir)
	if err != nil {
		return err
	}

	httpClient := &http.Client{
		Timeout: time.Duration(appCfg.FetchTimeout) * time.Second,
	}

	images := imagecache.NewCache(store, httpClient, appCfg.UserAgent)
	enricher := enrich.NewEnricher(httpClient, appCfg.UserAgent)
	collector := collect.NewCollector(httpClient, feed.NewParser(), feed.NewFilterer(),
		enricher, images, appCfg.UserAgent, time.Duration(appCfg.FetchTimeout)*time.Second)

	maxItems := appCfg.MaxItems
	if sourcesCfg.MaxItems > 0 {
		maxItems = sourcesCfg.MaxItems
	}

	agg := aggregator.New(collector, images, aggregator.Options{
		MaxItems:     maxItems,
		PerSourceMax: appCfg.PerSourceMax,
		Workers:      appCfg.WorkerCount,
		Shuffle:      appCfg.Shuffle,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(appCfg.RunTimeout)*time.Second)
	defer cancel()

	manifest := agg.Run(ctx, sourcesCfg.Sources)

	if err := aggregator.WriteManifest(manifest, appCfg.OutputFile); err != nil {
		return err
	}

	removed := agg.SweepImages(manifest)

	slog.Info("Build complete",
		"items", len(manifest.Items),
		"items_before_limit", manifest.Stats.ItemsBeforeLimit,
		"sources", manifest.Stats.Sources,
		"failures", len(manifest.Stats.Failures),
		"images_swept", removed,
		"output", appCfg.OutputFile)

	return nil
}
