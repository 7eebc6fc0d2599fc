package pdftext

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"icokit/internal/services"
	"icokit/internal/testsupport"
)

func squash(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func TestExtractFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ALP_Alpha.pdf")
	testsupport.WritePDF(t, path, "Decentralized token sale", "Bonus for early investors")

	text, err := ExtractFile(path)
	if err != nil {
		t.Fatalf("ExtractFile returned error: %v", err)
	}
	got := squash(text)
	for _, want := range []string{"Decentralizedtokensale", "Bonusforearlyinvestors"} {
		if !strings.Contains(got, want) {
			t.Fatalf("extracted text %q missing %q", text, want)
		}
	}
}

func TestExtractFileMissing(t *testing.T) {
	_, err := ExtractFile(filepath.Join(t.TempDir(), "missing.pdf"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExtractFileNotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	testsupport.WriteFile(t, path, "this is not a pdf")
	_, err := ExtractFile(path)
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNormalizeLigatures(t *testing.T) {
	if got := normalize("ﬁnancial ﬂow"); got != "financial flow" {
		t.Fatalf("normalize = %q", got)
	}
}

func TestFileID(t *testing.T) {
	cases := map[string]string{
		"/data/upcoming/ALP_Alpha.pdf":  "ALP_Alpha",
		"BET_Beta.v2.pdf":               "BET_Beta",
		"/data/past/GAM_Gamma":          "GAM_Gamma",
		filepath.Join("x", "notes.txt"): "notes",
	}
	for path, want := range cases {
		if got := FileID(path); got != want {
			t.Fatalf("FileID(%q) = %q, want %q", path, got, want)
		}
	}
}
