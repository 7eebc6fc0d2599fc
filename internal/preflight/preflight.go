package preflight

import (
	"context"
	"path/filepath"

	"icokit/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// MinFreeBytes is the free space below which the data directory check fails.
const MinFreeBytes = 512 << 20

// RunAll executes all applicable preflight checks for the given config.
// The site check only runs when network is true.
func RunAll(ctx context.Context, cfg *config.Config, network bool) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Whitepaper directory", cfg.Paths.WhitepaperDir),
		CheckDirectoryAccess("Database directory", filepath.Dir(cfg.Paths.Database)),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDiskSpace("Data disk space", cfg.Paths.DataDir, MinFreeBytes),
	}

	if cfg.Cleaning.StopwordsFile != "" {
		results = append(results, CheckReadableFile("Stopwords file", cfg.Cleaning.StopwordsFile))
	}

	if network {
		results = append(results, CheckSite(ctx, "Market site", cfg.Crawler.SiteURL, cfg.Crawler.UserAgent))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
