package whitepaper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"icokit/internal/services"
)

const (
	cookieDriveID = "1aBcDeFgHiJkLmNoPqRsTuVwXyZ012"
	formDriveID   = "1ZyXwVuTsRqPoNmLkJiHgFeDcBa987"
	chainDriveID  = "1QwErTyUiOpAsDfGhJkLzXcVbNm456"
	loopDriveID   = "1MnBvCxZlKjHgFdSaPoIuYtReWq321"
)

func confirmPage(action, id string) string {
	return `<html><body>
<form id="download-form" action="` + action + `" method="get">
  <input type="hidden" name="id" value="` + id + `">
  <input type="hidden" name="export" value="download">
  <input type="hidden" name="confirm" value="t">
  <input type="hidden" name="uuid" value="abc">
  <input type="submit" value="Download anyway">
</form></body></html>`
}

func newServer(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/papers/good.pdf", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "Mozilla/5.0" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 plain"))
	})
	mux.HandleFunc("/uc", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("export") != "download":
			http.Error(w, "bad request", http.StatusBadRequest)
		case q.Get("id") == cookieDriveID && q.Get("confirm") == "TOKEN":
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write([]byte("%PDF-1.4 drive cookie"))
		case q.Get("id") == cookieDriveID:
			http.SetCookie(w, &http.Cookie{Name: "download_warning_1234", Value: "TOKEN"})
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<html><body>too large to scan</body></html>"))
		case q.Get("id") == formDriveID:
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(confirmPage("/uc/download", formDriveID)))
		case q.Get("id") == chainDriveID && q.Get("confirm") == "TOKEN":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(confirmPage("/uc/download", chainDriveID)))
		case q.Get("id") == chainDriveID:
			http.SetCookie(w, &http.Cookie{Name: "download_warning_5678", Value: "TOKEN"})
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<html><body>too large to scan</body></html>"))
		case q.Get("id") == loopDriveID:
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(confirmPage("/uc", loopDriveID)))
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/uc/download", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("uuid") != "abc" || q.Get("confirm") != "t" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		switch q.Get("id") {
		case formDriveID:
			_, _ = w.Write([]byte("%PDF-1.4 drive form"))
		case chainDriveID:
			_, _ = w.Write([]byte("%PDF-1.4 drive chain"))
		default:
			http.Error(w, "bad request", http.StatusBadRequest)
		}
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestDownloader(t *testing.T, srv *httptest.Server) (*Downloader, string) {
	t.Helper()
	root := t.TempDir()
	return NewDownloader(Options{
		Root:      root,
		UserAgent: "Mozilla/5.0",
		Workers:   2,
		DriveURL:  srv.URL + "/uc",
	}, nil), root
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestDownloadPlainURL(t *testing.T) {
	srv, _ := newServer(t)
	d, root := newTestDownloader(t, srv)

	res, err := d.Download(context.Background(), Entry{Name: "Alpha", Ticker: "ALP", Status: "upcoming", URL: srv.URL + "/papers/good.pdf"})
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	want := filepath.Join(root, "upcoming", "ALP_Alpha.pdf")
	if res.Outcome != OutcomeDownloaded || res.Path != want {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Bytes != int64(len("%PDF-1.4 plain")) || len(res.SHA256) != 64 {
		t.Fatalf("unexpected size or digest %+v", res)
	}
	if got := readFile(t, want); got != "%PDF-1.4 plain" {
		t.Fatalf("content = %q", got)
	}
}

func TestDownloadSkipsExisting(t *testing.T) {
	srv, hits := newServer(t)
	d, root := newTestDownloader(t, srv)
	entry := Entry{Name: "Alpha", Ticker: "ALP", Status: "past", URL: srv.URL + "/papers/good.pdf"}

	dest := filepath.Join(root, "past", "ALP_Alpha.pdf")
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dest, []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := d.Download(context.Background(), entry)
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if res.Outcome != OutcomeSkipped {
		t.Fatalf("expected skipped, got %s", res.Outcome)
	}
	if hits.Load() != 0 {
		t.Fatalf("expected no requests, got %d", hits.Load())
	}
	if got := readFile(t, dest); got != "existing" {
		t.Fatalf("existing file overwritten: %q", got)
	}
}

func TestDownloadDriveCookieConfirm(t *testing.T) {
	srv, _ := newServer(t)
	d, root := newTestDownloader(t, srv)

	entry := Entry{Name: "Beta", Ticker: "BET", Status: "current", URL: "https://drive.google.com/file/d/" + cookieDriveID + "/view?usp=sharing"}
	res, err := d.Download(context.Background(), entry)
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if res.Outcome != OutcomeDownloaded {
		t.Fatalf("unexpected outcome %s", res.Outcome)
	}
	if got := readFile(t, filepath.Join(root, "current", "BET_Beta.pdf")); got != "%PDF-1.4 drive cookie" {
		t.Fatalf("content = %q", got)
	}
}

func TestDownloadDriveFormConfirm(t *testing.T) {
	srv, _ := newServer(t)
	d, root := newTestDownloader(t, srv)

	entry := Entry{Name: "Gamma", Ticker: "GAM", Status: "current", URL: "https://docs.google.com/uc?id=x/" + formDriveID}
	if _, err := d.Download(context.Background(), entry); err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if got := readFile(t, filepath.Join(root, "current", "GAM_Gamma.pdf")); got != "%PDF-1.4 drive form" {
		t.Fatalf("content = %q", got)
	}
}

func TestDownloadDriveCookieThenForm(t *testing.T) {
	srv, _ := newServer(t)
	d, root := newTestDownloader(t, srv)

	entry := Entry{Name: "Delta", Ticker: "DEL", Status: "past", URL: "https://drive.google.com/file/d/" + chainDriveID + "/view"}
	if _, err := d.Download(context.Background(), entry); err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if got := readFile(t, filepath.Join(root, "past", "DEL_Delta.pdf")); got != "%PDF-1.4 drive chain" {
		t.Fatalf("content = %q", got)
	}
}

func TestDownloadDriveRepeatedFormFails(t *testing.T) {
	srv, hits := newServer(t)
	d, root := newTestDownloader(t, srv)

	entry := Entry{Name: "Loop", Ticker: "LOO", Status: "past", URL: "https://drive.google.com/file/d/" + loopDriveID + "/view"}
	_, err := d.Download(context.Background(), entry)
	if !errors.Is(err, services.ErrExternal) {
		t.Fatalf("expected ErrExternal, got %v", err)
	}
	if n := hits.Load(); n != 2 {
		t.Fatalf("expected 2 requests, got %d", n)
	}
	if _, statErr := os.Stat(filepath.Join(root, "past", "LOO_Loop.pdf")); !os.IsNotExist(statErr) {
		t.Fatalf("no file should be written, stat err = %v", statErr)
	}
}

func TestDownloadAllReportsPerEntry(t *testing.T) {
	srv, _ := newServer(t)
	d, root := newTestDownloader(t, srv)

	entries := []Entry{
		{Name: "Alpha", Ticker: "ALP", Status: "upcoming", URL: srv.URL + "/papers/good.pdf"},
		{Name: "Missing", Ticker: "MIS", Status: "upcoming", URL: srv.URL + "/papers/missing.pdf"},
		{Name: "Empty", Ticker: "EMP", Status: "upcoming"},
	}
	results, err := d.DownloadAll(context.Background(), entries)
	if err != nil {
		t.Fatalf("DownloadAll returned error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Outcome != OutcomeDownloaded || results[0].Err != nil {
		t.Fatalf("entry 0: %+v", results[0])
	}
	if results[1].Outcome != OutcomeFailed || !errors.Is(results[1].Err, services.ErrExternal) {
		t.Fatalf("entry 1: %+v", results[1])
	}
	if results[2].Outcome != OutcomeFailed || !errors.Is(results[2].Err, services.ErrInvalidInput) {
		t.Fatalf("entry 2: %+v", results[2])
	}
	for i, res := range results {
		if res.Entry != entries[i] {
			t.Fatalf("result %d carries entry %+v", i, res.Entry)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "upcoming", "MIS_Missing.pdf")); !os.IsNotExist(err) {
		t.Fatalf("failed download left a file behind: %v", err)
	}
}

func TestDownloadAllInterrupted(t *testing.T) {
	srv, _ := newServer(t)
	d, _ := newTestDownloader(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.DownloadAll(ctx, []Entry{{Name: "Alpha", Ticker: "ALP", Status: "upcoming", URL: srv.URL + "/papers/good.pdf"}})
	if !errors.Is(err, services.ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
}

func TestReadEntries(t *testing.T) {
	input := "ticker,name,extra,status,wp_url\n" +
		"ALP, Alpha,x,upcoming,https://example.com/a.pdf\n" +
		"BET,Beta,y,past,\n"
	entries, err := ReadEntries(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadEntries returned error: %v", err)
	}
	want := []Entry{
		{Name: "Alpha", Ticker: "ALP", Status: "upcoming", URL: "https://example.com/a.pdf"},
		{Name: "Beta", Ticker: "BET", Status: "past"},
	}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries", len(entries))
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Fatalf("entry %d = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestReadEntriesErrors(t *testing.T) {
	for _, input := range []string{"", "name,ticker,status\nA,B,C\n"} {
		if _, err := ReadEntries(strings.NewReader(input)); !errors.Is(err, services.ErrInvalidInput) {
			t.Fatalf("input %q: expected ErrInvalidInput, got %v", input, err)
		}
	}
}

func TestDriveHelpers(t *testing.T) {
	url := "https://drive.google.com/file/d/" + cookieDriveID + "/view?usp=sharing"
	if !IsDriveURL(url) || !IsDriveURL("https://docs.google.com/document/d/x") {
		t.Fatal("expected drive urls to be detected")
	}
	if IsDriveURL("https://example.com/whitepaper.pdf") {
		t.Fatal("plain url detected as drive")
	}
	if got := DriveID(url); got != cookieDriveID {
		t.Fatalf("DriveID = %q", got)
	}
}

func TestDestPath(t *testing.T) {
	entry := Entry{Name: "Token Sale: Alpha", Ticker: "ALP", Status: "Upcoming"}
	want := filepath.Join("/data", "upcoming", "ALP_Token Sale- Alpha")
	if got := entry.DestPath("/data"); got != want {
		t.Fatalf("DestPath = %q, want %q", got, want)
	}
	if got := (Entry{Ticker: "X", Name: "Y"}).DestPath("/data"); got != filepath.Join("/data", "unknown", "X_Y") {
		t.Fatalf("DestPath without status = %q", got)
	}
}

func TestDownloadCopiesFileURL(t *testing.T) {
	srv, hits := newServer(t)
	d, root := newTestDownloader(t, srv)

	mirror := filepath.Join(t.TempDir(), "mirror.pdf")
	if err := os.WriteFile(mirror, []byte("%PDF-1.4 mirror"), 0o644); err != nil {
		t.Fatal(err)
	}
	entry := Entry{Name: "Mirror", Ticker: "MIR", Status: "past", URL: "file://" + mirror}
	res, err := d.Download(context.Background(), entry)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if res.Outcome != OutcomeDownloaded || res.Bytes != int64(len("%PDF-1.4 mirror")) || res.SHA256 == "" {
		t.Fatalf("unexpected result %+v", res)
	}
	got, err := os.ReadFile(filepath.Join(root, "past", "MIR_Mirror.pdf"))
	if err != nil || string(got) != "%PDF-1.4 mirror" {
		t.Fatalf("copied file: %q, %v", got, err)
	}
	if hits.Load() != 0 {
		t.Fatalf("file url should not hit the network, got %d requests", hits.Load())
	}

	missing := Entry{Name: "Gone", Ticker: "GON", Status: "past", URL: "file://" + filepath.Join(t.TempDir(), "gone.pdf")}
	if _, err := d.Download(context.Background(), missing); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
