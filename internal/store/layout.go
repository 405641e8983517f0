package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// DatabaseFileName is the embedded database file inside the vault's data
// directory.
const DatabaseFileName = "gvault.db"

// Layout resolves the on-disk directory structure of a vault root:
//
//	<vault_root>/
//	  data/        embedded database file
//	  encrypted/   encrypted artifact bytes
//	  thumbnails/  derived preview artifacts
//	  temp/        scratch space
//	  backups/     export/backup artifacts
type Layout struct {
	Root string
}

func NewLayout(root string) Layout { return Layout{Root: root} }

func (l Layout) DataDir() string      { return filepath.Join(l.Root, "data") }
func (l Layout) EncryptedDir() string { return filepath.Join(l.Root, "encrypted") }
func (l Layout) ThumbnailDir() string { return filepath.Join(l.Root, "thumbnails") }
func (l Layout) TempDir() string      { return filepath.Join(l.Root, "temp") }
func (l Layout) BackupDir() string    { return filepath.Join(l.Root, "backups") }

// DatabasePath returns the full path of the embedded database file.
func (l Layout) DatabasePath() string {
	return filepath.Join(l.DataDir(), DatabaseFileName)
}

// Ensure creates the vault directory tree with create-if-absent semantics.
// Existing directories are never an error; directories that cannot be
// created are.
func (l Layout) Ensure() error {
	dirs := []string{
		l.Root,
		l.DataDir(),
		l.EncryptedDir(),
		l.ThumbnailDir(),
		l.TempDir(),
		l.BackupDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating vault directory %s: %w", dir, err)
		}
	}
	return nil
}

// Exists reports whether a vault (directory tree plus database file) is
// already present at the root.
func (l Layout) Exists() bool {
	if _, err := os.Stat(l.DatabasePath()); err != nil {
		return false
	}
	return true
}

// VaultExists reports whether a vault is already present at vaultRoot.
func VaultExists(vaultRoot string) bool {
	return NewLayout(vaultRoot).Exists()
}
