package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "nested", "out.pdf")

	content := "hello world"
	written, digest, err := WriteAtomic(dst, strings.NewReader(content), 0o600)
	if err != nil {
		t.Fatal(err)
	}
	if written != int64(len(content)) {
		t.Fatalf("written = %d, want %d", written, len(content))
	}
	sum := sha256.Sum256([]byte(content))
	if digest != hex.EncodeToString(sum[:]) {
		t.Fatalf("digest mismatch: %s", digest)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != content {
		t.Fatalf("content mismatch: got %q", got)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v, want 0600", info.Mode().Perm())
	}

	leftovers, err := filepath.Glob(filepath.Join(dir, "nested", "*.part"))
	if err != nil {
		t.Fatal(err)
	}
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestWriteAtomicOverwrites(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out.txt")
	if err := os.WriteFile(dst, []byte("old content"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := WriteAtomic(dst, strings.NewReader("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "new" {
		t.Fatalf("got %q", got)
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	if !Exists(dir) {
		t.Fatal("expected directory to exist")
	}
	if Exists(filepath.Join(dir, "missing")) {
		t.Fatal("expected missing file to not exist")
	}
}

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")

	content := []byte("verified copy content")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}
	n, digest, err := CopyFileVerified(src, dst)
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(len(content)) || len(digest) != 64 {
		t.Fatalf("unexpected size %d or digest %q", n, digest)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}
}

func TestCopyFileVerified_MissingSource(t *testing.T) {
	dir := t.TempDir()
	_, _, err := CopyFileVerified(filepath.Join(dir, "nope"), filepath.Join(dir, "dst"))
	if err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "a.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := ListFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.pdf")}
	if strings.Join(files, ",") != strings.Join(want, ",") {
		t.Fatalf("ListFiles = %v, want %v", files, want)
	}

	missing, err := ListFiles(filepath.Join(dir, "missing"))
	if err != nil || missing != nil {
		t.Fatalf("missing dir: files=%v err=%v", missing, err)
	}
}
