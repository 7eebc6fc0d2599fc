package config

const (
	defaultDataDir        = "~/.local/share/icokit"
	defaultWhitepaperDir  = "~/.local/share/icokit/whitepapers"
	defaultDatabase       = "~/.local/share/icokit/corpus.db"
	defaultLogDir         = "~/.local/share/icokit/logs"
	defaultSiteURL        = "https://coinmarketcap.com"
	defaultListingURL     = "https://coinmarketcap.com/all/views/all/"
	defaultHistoryURL     = "https://coinmarketcap.com/historical/"
	defaultUserAgent      = "Mozilla/5.0"
	defaultTimeoutSeconds = 60
	defaultMinDelayMS     = 100
	defaultMaxDelayMS     = 1100
	defaultMinFreq        = 2
	defaultMinLength      = 3
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:       defaultDataDir,
			WhitepaperDir: defaultWhitepaperDir,
			Database:      defaultDatabase,
			LogDir:        defaultLogDir,
		},
		Cleaning: Cleaning{
			Lower:       true,
			OnlyLetters: true,
		},
		Vocabulary: Vocabulary{
			MinFreq:   defaultMinFreq,
			MinLength: defaultMinLength,
		},
		Crawler: Crawler{
			SiteURL:        defaultSiteURL,
			ListingURL:     defaultListingURL,
			HistoryURL:     defaultHistoryURL,
			TimeoutSeconds: defaultTimeoutSeconds,
			MinDelayMS:     defaultMinDelayMS,
			MaxDelayMS:     defaultMaxDelayMS,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
