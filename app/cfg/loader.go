package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Pipeline configuration
	SourcesFile string `long:"sources" env:"SOURCES_FILE" default:"./sources.yml" description:"YAML file listing configured news sources"`
	OutputFile  string `long:"output" env:"OUTPUT_FILE" default:"./data/news.json" description:"Path of the generated manifest file"`
	CacheDir    string `long:"cache-dir" env:"CACHE_DIR" default:"./data/images" description:"Directory for the content-addressed image cache"`

	// Limits
	MaxItems     int `long:"max-items" env:"MAX_ITEMS" default:"80" description:"Global cap on manifest items"`
	PerSourceMax int `long:"per-source-max" env:"PER_SOURCE_MAX" default:"12" description:"Cap on items contributed by a single source"`
	WorkerCount  int `long:"workers" env:"WORKER_COUNT" default:"4" description:"Number of sources processed in parallel"`

	// Timeouts
	FetchTimeout int `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"15" description:"Per-request timeout in seconds"`
	RunTimeout   int `long:"run-timeout" env:"RUN_TIMEOUT" default:"300" description:"Wall-clock budget for the whole run in seconds"`

	// Behavior
	Shuffle bool `long:"shuffle" env:"SHUFFLE" description:"Shuffle the capped item list before writing (opt-in, breaks deterministic ordering)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"PontoNews/1.0" description:"User agent string for HTTP requests"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		SourcesFile:  raw.SourcesFile,
		OutputFile:   raw.OutputFile,
		CacheDir:     raw.CacheDir,
		MaxItems:     raw.MaxItems,
		PerSourceMax: raw.PerSourceMax,
		WorkerCount:  raw.WorkerCount,
		FetchTimeout: raw.FetchTimeout,
		RunTimeout:   raw.RunTimeout,
		Shuffle:      raw.Shuffle,
		UserAgent:    raw.UserAgent,
		Debug:        raw.Debug,
		Version:      GetVersion(),
	}

	return cfg, nil
}
