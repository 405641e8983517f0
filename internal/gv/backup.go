package gv

import (
	"context"
	"io"
)

// BackupTarget stores database snapshots produced by Store.BackupTo.
// All operations stream through io.Reader/io.Writer so large snapshots
// never need to fit in memory.
type BackupTarget interface {
	// PutSnapshot stores a named snapshot. size is the number of bytes that
	// will be read from r.
	PutSnapshot(ctx context.Context, name string, r io.Reader, size int64) error

	// GetSnapshot retrieves a named snapshot and writes it to w.
	GetSnapshot(ctx context.Context, name string, w io.Writer) error

	// ValidateSetup verifies that the target is accessible and writable.
	ValidateSetup(ctx context.Context) error
}
