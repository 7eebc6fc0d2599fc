// Package textload gathers the raw text of downloaded whitepapers from the
// status folders of a whitepaper tree.
package textload

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"icokit/internal/fileutil"
	"icokit/internal/logging"
	"icokit/internal/services"
	"icokit/internal/services/pdftext"
	"icokit/internal/workpool"
)

// DefaultStatuses are the folders scanned when Options.Statuses is empty.
var DefaultStatuses = []string{"upcoming", "past", "current"}

// Item is the raw text of one whitepaper.
type Item struct {
	ID     string
	Status string
	Path   string
	Text   string
}

// Options configures Load.
type Options struct {
	Statuses []string
	Workers  int
	Logger   *slog.Logger
	// OnProgress receives the number of finished files.
	OnProgress func(done, total int)
}

type source struct {
	id     string
	status string
	path   string
}

// Load extracts every .pdf and .txt file below root/<status>. Text files are
// read as UTF-8 with invalid bytes replaced by U+FFFD. Files that
// fail to extract or hold no text are logged and dropped. When two files
// share an id the later one replaces the earlier in place.
func Load(ctx context.Context, root string, opts Options) ([]Item, error) {
	logger := logging.NewComponentLogger(opts.Logger, "textload")
	statuses := opts.Statuses
	if len(statuses) == 0 {
		statuses = DefaultStatuses
	}

	var sources []source
	for _, status := range statuses {
		files, err := fileutil.ListFiles(filepath.Join(root, status))
		if err != nil {
			return nil, services.Wrap(services.ErrExternal, "textload", "list", status, err)
		}
		for _, path := range files {
			switch strings.ToLower(filepath.Ext(path)) {
			case ".pdf", ".txt":
				sources = append(sources, source{id: pdftext.FileID(path), status: status, path: path})
			default:
				logger.Debug("ignoring file", logging.String("path", path))
			}
		}
	}

	poolOpts := []workpool.Option{workpool.Workers(opts.Workers)}
	if opts.OnProgress != nil {
		poolOpts = append(poolOpts, workpool.OnDone(opts.OnProgress))
	}
	results, err := workpool.Map(ctx, sources, func(_ context.Context, src source) (string, error) {
		return extract(src.path)
	}, poolOpts...)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(results))
	position := make(map[string]int, len(results))
	for i, r := range results {
		src := sources[i]
		if r.Err == nil && strings.TrimSpace(r.Value) == "" {
			r.Err = services.Wrap(services.ErrItemProcessing, "textload", "extract", fmt.Sprintf("%s has no text", src.path), nil)
		}
		if r.Err != nil {
			logging.WarnWithContext(logger, "whitepaper dropped", services.Kind(r.Err),
				logging.String(logging.FieldItemID, src.id),
				logging.String("path", src.path),
				logging.Error(r.Err),
				logging.String(logging.FieldImpact, "whitepaper missing from corpus"),
			)
			continue
		}
		item := Item{ID: src.id, Status: src.status, Path: src.path, Text: r.Value}
		if pos, ok := position[src.id]; ok {
			logger.Debug("duplicate id replaced",
				logging.String(logging.FieldItemID, src.id),
				logging.String("previous", items[pos].Path),
				logging.String("path", src.path),
			)
			items[pos] = item
			continue
		}
		position[src.id] = len(items)
		items = append(items, item)
	}
	logger.Info("whitepapers loaded",
		logging.Int("files", len(sources)),
		logging.Int("items", len(items)),
	)
	return items, nil
}

func extract(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return pdftext.ExtractFile(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", services.Wrap(services.ErrExternal, "textload", "read", path, err)
	}
	// Legacy encodings would otherwise fail the whole document in the
	// cleaner; undecodable bytes become U+FFFD and clean away as non-letters.
	return strings.ToValidUTF8(string(data), "\uFFFD"), nil
}
