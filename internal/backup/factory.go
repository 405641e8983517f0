package backup

import (
	"context"
	"fmt"
	"path/filepath"

	"gvault/internal/config"
	"gvault/internal/gv"
)

// NewTargetFromConfig creates a BackupTarget based on the backup config type.
func NewTargetFromConfig(ctx context.Context, cfg config.BackupConfig, vaultRoot string) (gv.BackupTarget, error) {
	switch cfg.Type {
	case "filesystem", "":
		dir := cfg.Dir
		if dir == "" {
			dir = filepath.Join(vaultRoot, "backups")
		}
		return NewFilesystemTarget(dir)
	case "s3":
		return NewS3Target(ctx, cfg)
	case "memory":
		return NewMemoryTarget(), nil
	default:
		return nil, fmt.Errorf("unknown backup target type: %s", cfg.Type)
	}
}
