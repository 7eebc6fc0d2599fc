package testsupport

import (
	"path/filepath"
	"testing"

	"icokit/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = base
	cfgVal.Paths.WhitepaperDir = filepath.Join(base, "whitepapers")
	cfgVal.Paths.Database = filepath.Join(base, "corpus.db")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Crawler.UserAgent = "icokit-test"
	cfgVal.Crawler.MinDelayMS = 0
	cfgVal.Crawler.MaxDelayMS = 0
	cfgVal.Workers.Count = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSite points every crawler URL at baseURL, typically an httptest server.
func WithSite(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Crawler.SiteURL = baseURL
		b.cfg.Crawler.ListingURL = baseURL + "/all/views/all/"
		b.cfg.Crawler.HistoryURL = baseURL + "/historical/"
	}
}

// WithVocabulary overrides the corpus filter thresholds.
func WithVocabulary(minFreq, minLength int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Vocabulary.MinFreq = minFreq
		b.cfg.Vocabulary.MinLength = minLength
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return cfg.Paths.DataDir
}
