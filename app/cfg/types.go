package cfg

type Cfg struct {
	// Pipeline configuration
	SourcesFile string
	OutputFile  string
	CacheDir    string

	// Limits
	MaxItems     int
	PerSourceMax int
	WorkerCount  int

	// Timeouts (seconds)
	FetchTimeout int
	RunTimeout   int

	// Behavior
	Shuffle bool

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}
