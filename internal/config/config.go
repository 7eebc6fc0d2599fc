package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"icokit/internal/textclean"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains data, database and log locations.
type Paths struct {
	DataDir       string `toml:"data_dir"`
	WhitepaperDir string `toml:"whitepaper_dir"`
	Database      string `toml:"database"`
	LogDir        string `toml:"log_dir"`
}

// Cleaning mirrors textclean.Options. StopwordsFile replaces the English
// list when set.
type Cleaning struct {
	MinLength     int    `toml:"min_length"`
	KeepPoints    bool   `toml:"keep_points"`
	KeepStopwords bool   `toml:"keep_stopwords"`
	StopwordsFile string `toml:"stopwords_file"`
	Lower         bool   `toml:"lower"`
	RemoveHTML    bool   `toml:"remove_html"`
	OnlyLetters   bool   `toml:"only_letters"`
}

// Vocabulary holds the corpus-wide token filter thresholds.
type Vocabulary struct {
	MinFreq   int `toml:"min_freq"`
	MinLength int `toml:"min_length"`
}

// Workers sizes the parallel pools. Zero means one worker per CPU.
type Workers struct {
	Count int `toml:"count"`
}

// Crawler contains market-data scraping and download settings.
type Crawler struct {
	SiteURL        string `toml:"site_url"`
	ListingURL     string `toml:"listing_url"`
	HistoryURL     string `toml:"history_url"`
	UserAgent      string `toml:"user_agent"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MinDelayMS     int    `toml:"min_delay_ms"`
	MaxDelayMS     int    `toml:"max_delay_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for icokit.
//
// Configuration sections by subsystem:
//   - Paths: data, whitepaper, database and log locations
//   - Cleaning: text cleaner switches
//   - Vocabulary: frequency and length thresholds
//   - Workers: pool size
//   - Crawler: market-data URLs, user agent and politeness delays
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Cleaning   Cleaning   `toml:"cleaning"`
	Vocabulary Vocabulary `toml:"vocabulary"`
	Workers    Workers    `toml:"workers"`
	Crawler    Crawler    `toml:"crawler"`
	Logging    Logging    `toml:"logging"`
}

const defaultConfigPath = "~/.config/icokit/config.toml"

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("icokit.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data, whitepaper and log directories and
// the parent of the database file.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.WhitepaperDir, c.Paths.LogDir, filepath.Dir(c.Paths.Database)}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath is the file guarding pipeline runs against concurrent writers.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "icokit.lock")
}

// CleaningOptions converts the [cleaning] section into cleaner options,
// loading the stopwords file when one is configured.
func (c *Config) CleaningOptions() (textclean.Options, error) {
	opts := textclean.Options{
		MinLength:     c.Cleaning.MinLength,
		KeepPoints:    c.Cleaning.KeepPoints,
		KeepStopwords: c.Cleaning.KeepStopwords,
		Lower:         c.Cleaning.Lower,
		RemoveHTML:    c.Cleaning.RemoveHTML,
		OnlyLetters:   c.Cleaning.OnlyLetters,
		Stopwords:     textclean.EnglishStopwords(),
	}
	if c.Cleaning.StopwordsFile == "" {
		return opts, nil
	}
	file, err := os.Open(c.Cleaning.StopwordsFile)
	if err != nil {
		return textclean.Options{}, fmt.Errorf("open stopwords file: %w", err)
	}
	defer file.Close()
	words, err := textclean.LoadStopwords(file)
	if err != nil {
		return textclean.Options{}, err
	}
	opts.Stopwords = words
	return opts, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	var buf strings.Builder
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return []byte(buf.String()), nil
}
