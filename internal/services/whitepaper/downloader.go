package whitepaper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"icokit/internal/fileutil"
	"icokit/internal/logging"
	"icokit/internal/services"
	"icokit/internal/workpool"
)

// DefaultDriveURL is the Drive export endpoint.
const DefaultDriveURL = "https://docs.google.com/uc"

// Outcome classifies what happened to one entry.
type Outcome string

const (
	OutcomeDownloaded Outcome = "downloaded"
	OutcomeSkipped    Outcome = "skipped"
	OutcomeFailed     Outcome = "failed"
)

// Result reports the download of one entry.
type Result struct {
	Entry   Entry
	Path    string
	Outcome Outcome
	Bytes   int64
	SHA256  string
	Err     error
}

// Options configures a Downloader.
type Options struct {
	Root      string
	UserAgent string
	Timeout   time.Duration
	Workers   int
	// DriveURL overrides DefaultDriveURL.
	DriveURL string
}

// Downloader fetches whitepapers into Options.Root.
type Downloader struct {
	http   *resty.Client
	opts   Options
	logger *slog.Logger
}

// NewDownloader builds a downloader.
func NewDownloader(opts Options, logger *slog.Logger) *Downloader {
	if opts.Timeout <= 0 {
		opts.Timeout = time.Minute
	}
	if opts.DriveURL == "" {
		opts.DriveURL = DefaultDriveURL
	}
	client := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(1).
		SetRetryWaitTime(time.Second)
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	return &Downloader{
		http:   client,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "whitepaper"),
	}
}

// Download fetches one entry unless its target already exists. Failures are
// returned as the error; the Result still names the target path.
func (d *Downloader) Download(ctx context.Context, entry Entry) (Result, error) {
	dest := entry.DestPath(d.opts.Root) + ".pdf"
	result := Result{Entry: entry, Path: dest}
	if strings.TrimSpace(entry.URL) == "" {
		result.Outcome = OutcomeFailed
		return result, services.Wrap(services.ErrInvalidInput, "whitepaper", "download", fmt.Sprintf("%s has no whitepaper url", entry.Ticker), nil)
	}
	if fileutil.Exists(dest) {
		d.logger.Debug("whitepaper already downloaded", logging.String("path", dest))
		result.Outcome = OutcomeSkipped
		return result, nil
	}

	var err error
	switch {
	case strings.HasPrefix(entry.URL, "file://"):
		result.Bytes, result.SHA256, err = copyLocal(entry.URL, dest)
	case IsDriveURL(entry.URL):
		result.Bytes, result.SHA256, err = d.fetchDrive(ctx, DriveID(entry.URL), dest)
	default:
		result.Bytes, result.SHA256, err = d.fetchPlain(ctx, entry.URL, dest)
	}
	if err != nil {
		result.Outcome = OutcomeFailed
		return result, err
	}
	result.Outcome = OutcomeDownloaded
	d.logger.Info("whitepaper downloaded",
		logging.String("url", entry.URL),
		logging.String("path", dest),
		logging.Int("bytes", int(result.Bytes)),
	)
	return result, nil
}

// DownloadAll downloads every entry in parallel. Per-entry failures are
// logged and reported on their Result; only an interrupt returns an error.
func (d *Downloader) DownloadAll(ctx context.Context, entries []Entry, opts ...workpool.Option) ([]Result, error) {
	opts = append([]workpool.Option{workpool.Workers(d.opts.Workers)}, opts...)
	results, err := workpool.Map(ctx, entries, d.Download, opts...)
	if err != nil {
		return nil, err
	}
	out := make([]Result, len(results))
	for i, r := range results {
		res := r.Value
		if r.Err != nil {
			res.Entry = entries[i]
			res.Outcome = OutcomeFailed
			res.Err = r.Err
			logging.WarnWithContext(d.logger, "whitepaper download failed", services.Kind(r.Err),
				logging.String("ticker", entries[i].Ticker),
				logging.String("url", entries[i].URL),
				logging.Error(r.Err),
				logging.String(logging.FieldImpact, "whitepaper missing from corpus"),
			)
		}
		out[i] = res
	}
	return out, nil
}

// copyLocal serves file:// entries, typically a local mirror of the papers.
func copyLocal(raw, dest string) (int64, string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return 0, "", services.Wrap(services.ErrInvalidInput, "whitepaper", "copy", fmt.Sprintf("bad file url %q", raw), err)
	}
	n, digest, err := fileutil.CopyFileVerified(u.Path, dest)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, "", services.Wrap(services.ErrNotFound, "whitepaper", "copy", u.Path, err)
		}
		return 0, "", services.Wrap(services.ErrExternal, "whitepaper", "copy", u.Path, err)
	}
	return n, digest, nil
}

func (d *Downloader) fetchPlain(ctx context.Context, target, dest string) (int64, string, error) {
	resp, err := d.get(ctx, target, nil)
	if err != nil {
		return 0, "", err
	}
	body := resp.RawBody()
	defer body.Close()
	return d.save(dest, body)
}

// fetchDrive requests the export endpoint. Large files first answer with a
// warning: either a download_warning cookie carrying the confirm token or an
// HTML form that re-submits the request. Each warning is followed at most
// once, so a cookie hop may still be answered by the form.
func (d *Downloader) fetchDrive(ctx context.Context, id, dest string) (int64, string, error) {
	target := d.opts.DriveURL
	params := map[string]string{"export": "download", "id": id}
	var usedCookie, usedForm bool
	for {
		resp, err := d.get(ctx, target, params)
		if err != nil {
			return 0, "", err
		}
		body := resp.RawBody()
		if token := confirmToken(resp.Cookies()); token != "" && !usedCookie && !usedForm {
			body.Close()
			usedCookie = true
			params["confirm"] = token
			continue
		}
		if !isHTML(resp) {
			defer body.Close()
			return d.save(dest, body)
		}

		doc, err := goquery.NewDocumentFromReader(body)
		body.Close()
		if err != nil {
			return 0, "", services.Wrap(services.ErrExternal, "whitepaper", "drive confirm", id, err)
		}
		action, values, ok := confirmForm(doc, resp.RawResponse.Request.URL)
		if !ok || usedForm {
			return 0, "", services.Wrap(services.ErrExternal, "whitepaper", "drive download", fmt.Sprintf("%s returned a page instead of a file", id), nil)
		}
		usedForm = true
		target, params = action, values
	}
}

func (d *Downloader) get(ctx context.Context, target string, params map[string]string) (*resty.Response, error) {
	req := d.http.R().SetContext(ctx).SetDoNotParseResponse(true)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}
	resp, err := req.Get(target)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return nil, services.Wrap(services.ErrInterrupted, "whitepaper", "fetch", target, err)
		}
		return nil, services.Wrap(services.ErrExternal, "whitepaper", "fetch", target, err)
	}
	if resp.IsError() {
		if body := resp.RawBody(); body != nil {
			body.Close()
		}
		return nil, services.Wrap(services.ErrExternal, "whitepaper", "fetch", fmt.Sprintf("%s returned %s", target, resp.Status()), nil)
	}
	return resp, nil
}

func (d *Downloader) save(dest string, body io.Reader) (int64, string, error) {
	written, digest, err := fileutil.WriteAtomic(dest, body, 0o644)
	if err != nil {
		return 0, "", services.Wrap(services.ErrExternal, "whitepaper", "save", dest, err)
	}
	return written, digest, nil
}

func confirmToken(cookies []*http.Cookie) string {
	for _, cookie := range cookies {
		if strings.HasPrefix(cookie.Name, "download_warning") {
			return cookie.Value
		}
	}
	return ""
}

func isHTML(resp *resty.Response) bool {
	return strings.HasPrefix(strings.ToLower(resp.Header().Get("Content-Type")), "text/html")
}

// confirmForm reads the download form of a Drive warning page.
func confirmForm(doc *goquery.Document, base *url.URL) (string, map[string]string, bool) {
	form := doc.Find("form#download-form").First()
	if form.Length() == 0 {
		return "", nil, false
	}
	action, ok := form.Attr("action")
	if !ok || action == "" {
		return "", nil, false
	}
	ref, err := url.Parse(action)
	if err != nil {
		return "", nil, false
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	values := make(map[string]string)
	form.Find(`input[type="hidden"]`).Each(func(_ int, s *goquery.Selection) {
		if name, ok := s.Attr("name"); ok {
			values[name] = s.AttrOr("value", "")
		}
	})
	return ref.String(), values, true
}
