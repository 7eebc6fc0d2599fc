package coinmarketcap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"icokit/internal/logging"
	"icokit/internal/services"
	"icokit/internal/workpool"
)

// Settings configures a Client.
type Settings struct {
	SiteURL    string
	ListingURL string
	HistoryURL string
	UserAgent  string
	Timeout    time.Duration
	// MinDelay and MaxDelay bound the random pause before each snapshot
	// request in History.
	MinDelay time.Duration
	MaxDelay time.Duration
	Workers  int
}

// Client fetches and parses market pages.
type Client struct {
	http     *resty.Client
	settings Settings
	logger   *slog.Logger
}

// NewClient builds a client with the given settings.
func NewClient(settings Settings, logger *slog.Logger) *Client {
	settings.SiteURL = strings.TrimRight(settings.SiteURL, "/")
	if settings.Timeout <= 0 {
		settings.Timeout = time.Minute
	}
	if settings.MaxDelay < settings.MinDelay {
		settings.MaxDelay = settings.MinDelay
	}
	client := resty.New().
		SetTimeout(settings.Timeout).
		SetHeader("Accept", "text/html,application/xhtml+xml").
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second)
	if settings.UserAgent != "" {
		client.SetHeader("User-Agent", settings.UserAgent)
	}
	return &Client{
		http:     client,
		settings: settings,
		logger:   logging.NewComponentLogger(logger, "crawler"),
	}
}

// FetchDocument loads target as HTML. Existing local files are read from
// disk; anything else is requested over HTTP.
func (c *Client) FetchDocument(ctx context.Context, target string) (*goquery.Document, error) {
	if info, err := os.Stat(target); err == nil && info.Mode().IsRegular() {
		file, err := os.Open(target)
		if err != nil {
			return nil, services.Wrap(services.ErrExternal, "crawler", "open page", target, err)
		}
		defer file.Close()
		doc, err := goquery.NewDocumentFromReader(file)
		if err != nil {
			return nil, services.Wrap(services.ErrExternal, "crawler", "parse page", target, err)
		}
		return doc, nil
	}

	c.logger.Debug("fetching page", logging.String("url", target))
	resp, err := c.http.R().SetContext(ctx).Get(target)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return nil, services.Wrap(services.ErrInterrupted, "crawler", "fetch page", target, err)
		}
		return nil, services.Wrap(services.ErrExternal, "crawler", "fetch page", target, err)
	}
	if resp.IsError() {
		return nil, services.Wrap(services.ErrExternal, "crawler", "fetch page", fmt.Sprintf("%s returned %s", target, resp.Status()), nil)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, services.Wrap(services.ErrExternal, "crawler", "parse page", target, err)
	}
	return doc, nil
}

// ListingSpec describes the all-coins table.
var ListingSpec = TableSpec{
	ID: "currencies-all",
	Columns: []string{
		"index", "name", "symbol", "market_cap", "price", "circulating_supply",
		"volume", "change_1h", "change_24h", "change_7d",
	},
	NumericColumns: []string{
		"market_cap", "price", "circulating_supply",
		"volume", "change_1h", "change_24h", "change_7d",
	},
}

// historyContainer is the class list of the blocks holding snapshot links.
const historyContainer = "col-sm-4 col-xs-6"

// Listing fetches and parses the all-coins table. An empty target uses the
// configured listing URL.
func (c *Client) Listing(ctx context.Context, target string) (*Table, error) {
	if target == "" {
		target = c.settings.ListingURL
	}
	doc, err := c.FetchDocument(ctx, target)
	if err != nil {
		return nil, err
	}
	return ParseTable(doc, ListingSpec)
}

// HistoryLinks returns the absolute URLs of every historical snapshot
// linked from the history page.
func (c *Client) HistoryLinks(ctx context.Context) ([]string, error) {
	doc, err := c.FetchDocument(ctx, c.settings.HistoryURL)
	if err != nil {
		return nil, err
	}
	var links []string
	doc.Find("div" + classSelector(historyContainer)).Each(func(_ int, s *goquery.Selection) {
		for _, href := range ParseLinks(s) {
			links = append(links, c.absolute(href))
		}
	})
	return links, nil
}

func (c *Client) absolute(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return c.settings.SiteURL + href
}

// Snapshot is the parsed listing of one historical page.
type Snapshot struct {
	URL   string
	Table *Table
	Err   error
}

// History fetches every snapshot in parallel, pausing a random delay before
// each request. Failed snapshots carry their error; the result keeps the
// order of urls. opts are applied after the configured worker count.
func (c *Client) History(ctx context.Context, urls []string, opts ...workpool.Option) ([]Snapshot, error) {
	opts = append([]workpool.Option{workpool.Workers(c.settings.Workers)}, opts...)
	results, err := workpool.Map(ctx, urls, func(ctx context.Context, target string) (*Table, error) {
		if err := c.pause(ctx); err != nil {
			return nil, err
		}
		c.logger.Info("parsing snapshot", logging.String("url", target))
		return c.Listing(ctx, target)
	}, opts...)
	if err != nil {
		return nil, err
	}

	out := make([]Snapshot, len(urls))
	for i, r := range results {
		out[i] = Snapshot{URL: urls[i], Table: r.Value, Err: r.Err}
		if r.Err != nil {
			logging.WarnWithContext(c.logger, "snapshot failed", services.Kind(r.Err),
				logging.String("url", urls[i]),
				logging.Error(r.Err),
				logging.String(logging.FieldImpact, "snapshot missing from history"),
			)
		}
	}
	return out, nil
}

func (c *Client) pause(ctx context.Context) error {
	delay := c.settings.MinDelay
	if spread := c.settings.MaxDelay - c.settings.MinDelay; spread > 0 {
		delay += rand.N(spread)
	}
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return services.Wrap(services.ErrInterrupted, "crawler", "delay", "", ctx.Err())
	case <-timer.C:
		return nil
	}
}
