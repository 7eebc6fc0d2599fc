// Package pdftext extracts plain text from whitepaper PDFs.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"

	"icokit/internal/services"
)

// ExtractFile returns the plain text of every page of the PDF at path,
// normalized to NFKC so ligatures and compatibility forms read as plain
// letters. Missing files wrap ErrNotFound and unreadable documents wrap
// ErrInvalidInput.
func ExtractFile(path string) (text string, err error) {
	if _, statErr := os.Stat(path); statErr != nil {
		if errors.Is(statErr, fs.ErrNotExist) {
			return "", services.Wrap(services.ErrNotFound, "pdftext", "extract", path, statErr)
		}
		return "", services.Wrap(services.ErrExternal, "pdftext", "extract", path, statErr)
	}

	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = services.Wrap(services.ErrInvalidInput, "pdftext", "extract", fmt.Sprintf("%s: %v", path, r), nil)
		}
	}()

	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", services.Wrap(services.ErrInvalidInput, "pdftext", "open", path, err)
	}
	defer file.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", services.Wrap(services.ErrInvalidInput, "pdftext", "read text", path, err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", services.Wrap(services.ErrInvalidInput, "pdftext", "read text", path, err)
	}
	return normalize(buf.String()), nil
}

// FileID returns the base name of path up to its first dot.
func FileID(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		return base[:i]
	}
	return base
}

func normalize(text string) string {
	return norm.NFKC.String(text)
}
