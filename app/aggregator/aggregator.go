package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/pdrcorrea/PontoNews/app/collect"
	"github.com/pdrcorrea/PontoNews/app/config"
	"github.com/pdrcorrea/PontoNews/app/feed"
	"github.com/pdrcorrea/PontoNews/app/imagecache"
)

type Options struct {
	MaxItems     int
	PerSourceMax int
	Workers      int
	// Shuffle randomizes the capped list before writing. Opt-in only:
	// the default contract is a deterministic manifest.
	Shuffle bool
}

// Aggregator drives the collector over all configured sources and
// assembles the manifest.
type Aggregator struct {
	collector *collect.Collector
	images    *imagecache.Cache
	opts      Options
}

func New(collector *collect.Collector, images *imagecache.Cache, opts Options) *Aggregator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Aggregator{
		collector: collector,
		images:    images,
		opts:      opts,
	}
}

type sourceResult struct {
	items   []feed.Item
	feedURL string
	err     error
	done    bool
}

// Run processes every source and returns the manifest. Sources run on a
// bounded worker pool; each source's internal fetch/parse/enrich
// sequence stays sequential. Results land in per-source slots and are
// merged in configured order, so identical inputs produce an identical
// manifest. Source failures become stats entries, never run aborts, and
// a run-level context timeout still yields the sources finished so far.
func (a *Aggregator) Run(ctx context.Context, sources []config.Source) *Manifest {
	results := make([]sourceResult, len(sources))

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < a.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				source := sources[idx]
				items, feedURL, err := a.collector.Run(ctx, source, a.opts.PerSourceMax)
				results[idx] = sourceResult{items: items, feedURL: feedURL, err: err, done: true}

				if err != nil {
					slog.Warn("Source failed", "source", source.Name, "url", feedURL, "error", err)
				} else {
					slog.Debug("Source collected", "source", source.Name, "items", len(items))
				}
			}
		}()
	}

enqueue:
	for i := range sources {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break enqueue
		}
	}
	close(jobs)
	wg.Wait()

	return a.assemble(ctx, sources, results)
}

func (a *Aggregator) assemble(ctx context.Context, sources []config.Source, results []sourceResult) *Manifest {
	merged := make([]feed.Item, 0)
	perSource := make([]SourceCount, 0, len(sources))
	failures := make([]Failure, 0)

	for i, source := range sources {
		result := results[i]

		if !result.done {
			if ctx.Err() != nil {
				failures = append(failures, Failure{
					Source: source.Name,
					Error:  "run budget exhausted before source was processed",
				})
			}
			continue
		}

		if result.err != nil {
			failures = append(failures, Failure{
				Source: source.Name,
				URL:    result.feedURL,
				Error:  result.err.Error(),
			})
			continue
		}

		perSource = append(perSource, SourceCount{Source: source.Name, Count: len(result.items)})
		merged = append(merged, result.items...)
	}

	itemsBeforeLimit := len(merged)

	// Lexical comparison on RFC3339 strings: newest first, unknown
	// dates (empty string) last. Stable sort keeps insertion order on
	// ties.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PublishedAt > merged[j].PublishedAt
	})

	if a.opts.MaxItems > 0 && len(merged) > a.opts.MaxItems {
		merged = merged[:a.opts.MaxItems]
	}

	if a.opts.Shuffle {
		rand.Shuffle(len(merged), func(i, j int) {
			merged[i], merged[j] = merged[j], merged[i]
		})
	}

	return &Manifest{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Items:       merged,
		Stats: Stats{
			Sources:          len(sources),
			ItemsBeforeLimit: itemsBeforeLimit,
			PerSource:        perSource,
			Failures:         failures,
		},
	}
}

// SweepImages removes cached images the manifest no longer references.
func (a *Aggregator) SweepImages(manifest *Manifest) int {
	referenced := make([]string, 0, len(manifest.Items))
	for _, item := range manifest.Items {
		referenced = append(referenced, item.Image)
	}
	return a.images.Sweep(referenced)
}

// EmptyManifest builds a manifest with no items and an explanatory
// note, used when the sources file is missing.
func EmptyManifest(note string) *Manifest {
	return &Manifest{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Items:       make([]feed.Item, 0),
		Stats: Stats{
			PerSource: make([]SourceCount, 0),
			Failures:  make([]Failure, 0),
			Note:      note,
		},
	}
}

// WriteManifest serializes the manifest to path, creating parent
// directories as needed.
func WriteManifest(manifest *Manifest, path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}
