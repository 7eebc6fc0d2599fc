package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Exists reports whether path names an existing file or directory.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// WriteAtomic streams r into a temporary file next to dst and renames it into
// place once the content is synced. Parent directories are created as needed.
// It returns the number of bytes written and their SHA256 digest.
func WriteAtomic(dst string, r io.Reader, mode os.FileMode) (int64, string, error) {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, "", fmt.Errorf("create parent: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*.part")
	if err != nil {
		return 0, "", fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(tmp, hasher), r)
	if err != nil {
		return 0, "", fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return 0, "", fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return 0, "", fmt.Errorf("chmod temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, "", fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return 0, "", fmt.Errorf("rename: %w", err)
	}
	committed = true
	return written, hex.EncodeToString(hasher.Sum(nil)), nil
}

// CopyFileVerified streams src to dst atomically with SHA256 + size
// verification against the source. It returns the size and digest of the
// copy.
func CopyFileVerified(src, dst string) (int64, string, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, "", fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, "", err
	}
	defer in.Close()

	srcHasher := sha256.New()
	written, digest, err := WriteAtomic(dst, io.TeeReader(in, srcHasher), 0o644)
	if err != nil {
		return 0, "", err
	}
	if written != srcInfo.Size() {
		_ = os.Remove(dst)
		return 0, "", fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), written)
	}
	if hex.EncodeToString(srcHasher.Sum(nil)) != digest {
		_ = os.Remove(dst)
		return 0, "", errors.New("copy hash mismatch: file corrupted during copy")
	}
	return written, digest, nil
}

// ListFiles returns the regular files directly inside dir, sorted by name.
// A missing directory yields no files and no error.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}
