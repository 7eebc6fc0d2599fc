package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"icokit/internal/config"
	"icokit/internal/corpus"
	"icokit/internal/logging"
	"icokit/internal/services/coinmarketcap"
)

type commandContext struct {
	configFlag     *string
	jsonFlag       *bool
	noProgressFlag *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag, noProgressFlag *bool) *commandContext {
	return &commandContext{
		configFlag:     configFlag,
		jsonFlag:       jsonFlag,
		noProgressFlag: noProgressFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// logger writes to the configured log file and to the command's stderr.
func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cmd.ErrOrStderr() == os.Stderr {
		return logging.NewFromConfig(cfg)
	}
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	})
}

func (c *commandContext) openStore() (*corpus.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return corpus.Open(cfg)
}

func (c *commandContext) withStore(fn func(*corpus.Store) error) error {
	store, err := c.openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func (c *commandContext) crawler(logger *slog.Logger) (*coinmarketcap.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return coinmarketcap.NewClient(coinmarketcap.Settings{
		SiteURL:    cfg.Crawler.SiteURL,
		ListingURL: cfg.Crawler.ListingURL,
		HistoryURL: cfg.Crawler.HistoryURL,
		UserAgent:  cfg.Crawler.UserAgent,
		Timeout:    time.Duration(cfg.Crawler.TimeoutSeconds) * time.Second,
		MinDelay:   time.Duration(cfg.Crawler.MinDelayMS) * time.Millisecond,
		MaxDelay:   time.Duration(cfg.Crawler.MaxDelayMS) * time.Millisecond,
		Workers:    cfg.Workers.Count,
	}, logger), nil
}

// acquireRunLock takes the exclusive lock guarding corpus writers. The
// returned function releases it.
func (c *commandContext) acquireRunLock() (func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	lockPath := cfg.LockPath()
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another icokit command is running (lock held: %s)", lockPath)
	}
	return func() { _ = lock.Unlock() }, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
