package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCrawler()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WhitepaperDir) == "" {
		c.Paths.WhitepaperDir = filepath.Join(c.Paths.DataDir, "whitepapers")
	}
	if c.Paths.WhitepaperDir, err = expandPath(c.Paths.WhitepaperDir); err != nil {
		return fmt.Errorf("paths.whitepaper_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.Database) == "" {
		c.Paths.Database = filepath.Join(c.Paths.DataDir, "corpus.db")
	}
	if c.Paths.Database, err = expandPath(c.Paths.Database); err != nil {
		return fmt.Errorf("paths.database: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Cleaning.StopwordsFile, err = expandPath(strings.TrimSpace(c.Cleaning.StopwordsFile)); err != nil {
		return fmt.Errorf("cleaning.stopwords_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeCrawler() {
	c.Crawler.SiteURL = strings.TrimRight(strings.TrimSpace(c.Crawler.SiteURL), "/")
	c.Crawler.ListingURL = strings.TrimSpace(c.Crawler.ListingURL)
	c.Crawler.HistoryURL = strings.TrimSpace(c.Crawler.HistoryURL)
	c.Crawler.UserAgent = strings.TrimSpace(c.Crawler.UserAgent)
	if c.Crawler.UserAgent == "" {
		if value, ok := os.LookupEnv("ICOKIT_USER_AGENT"); ok {
			c.Crawler.UserAgent = strings.TrimSpace(value)
		}
	}
	if c.Crawler.UserAgent == "" {
		c.Crawler.UserAgent = defaultUserAgent
	}
	if c.Crawler.TimeoutSeconds == 0 {
		c.Crawler.TimeoutSeconds = defaultTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
