package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gvault/internal/gv"
)

// FilesystemTarget stores database snapshots as files in a directory,
// typically the vault's own backups/ area or an external drive.
type FilesystemTarget struct {
	dir string
}

var _ gv.BackupTarget = (*FilesystemTarget)(nil)

// NewFilesystemTarget creates a filesystem target rooted at dir.
func NewFilesystemTarget(dir string) (*FilesystemTarget, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	return &FilesystemTarget{dir: dir}, nil
}

// PutSnapshot writes the snapshot atomically (temp file + rename), so a
// crash mid-write never leaves a truncated snapshot under its final name.
func (t *FilesystemTarget) PutSnapshot(_ context.Context, name string, r io.Reader, size int64) error {
	destPath := filepath.Join(t.dir, name)

	tmpFile, err := os.CreateTemp(t.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if written != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// GetSnapshot reads a named snapshot and writes it to w.
func (t *FilesystemTarget) GetSnapshot(_ context.Context, name string, w io.Writer) error {
	f, err := os.Open(filepath.Join(t.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("snapshot not found: %s", name)
		}
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	return nil
}

// ValidateSetup verifies the backup directory exists and is a directory.
func (t *FilesystemTarget) ValidateSetup(context.Context) error {
	info, err := os.Stat(t.dir)
	if err != nil {
		return fmt.Errorf("backup directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("backup path is not a directory: %s", t.dir)
	}
	return nil
}
