package config

import (
	"fmt"
	"net/url"

	"icokit/internal/services"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCleaning(); err != nil {
		return err
	}
	if err := c.validateVocabulary(); err != nil {
		return err
	}
	if err := c.validateCrawler(); err != nil {
		return err
	}
	return c.validateLogging()
}

func invalid(field, format string, args ...any) error {
	return services.Wrap(services.ErrConfiguration, "config", field, fmt.Sprintf(format, args...), nil)
}

func (c *Config) validateCleaning() error {
	if c.Cleaning.MinLength < 0 {
		return invalid("cleaning.min_length", "must be >= 0, got %d", c.Cleaning.MinLength)
	}
	return nil
}

func (c *Config) validateVocabulary() error {
	if c.Vocabulary.MinFreq < 1 {
		return invalid("vocabulary.min_freq", "must be >= 1, got %d", c.Vocabulary.MinFreq)
	}
	if c.Vocabulary.MinLength < 0 {
		return invalid("vocabulary.min_length", "must be >= 0, got %d", c.Vocabulary.MinLength)
	}
	if c.Workers.Count < 0 {
		return invalid("workers.count", "must be >= 0, got %d", c.Workers.Count)
	}
	return nil
}

func (c *Config) validateCrawler() error {
	for field, value := range map[string]string{
		"crawler.site_url":    c.Crawler.SiteURL,
		"crawler.listing_url": c.Crawler.ListingURL,
		"crawler.history_url": c.Crawler.HistoryURL,
	} {
		u, err := url.Parse(value)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return invalid(field, "must be an absolute http(s) URL, got %q", value)
		}
	}
	if c.Crawler.TimeoutSeconds < 0 {
		return invalid("crawler.timeout_seconds", "must be positive, got %d", c.Crawler.TimeoutSeconds)
	}
	if c.Crawler.MinDelayMS < 0 || c.Crawler.MaxDelayMS < c.Crawler.MinDelayMS {
		return invalid("crawler.min_delay_ms", "delays must satisfy 0 <= min (%d) <= max (%d)", c.Crawler.MinDelayMS, c.Crawler.MaxDelayMS)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return invalid("logging.format", "must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid("logging.level", "unknown level %q", c.Logging.Level)
	}
	return nil
}
