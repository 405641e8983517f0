package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"gvault/internal/config"
)

func TestNewTargetFromConfig(t *testing.T) {
	t.Run("memory target", func(t *testing.T) {
		got, err := NewTargetFromConfig(context.Background(), config.BackupConfig{Type: "memory"}, "/vault")
		if err != nil {
			t.Fatalf("NewTargetFromConfig() error = %v", err)
		}
		if got == nil {
			t.Fatal("NewTargetFromConfig() returned nil")
		}
		if err := got.ValidateSetup(context.Background()); err != nil {
			t.Errorf("ValidateSetup() error = %v", err)
		}
	})

	t.Run("filesystem target with explicit dir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "backups")
		got, err := NewTargetFromConfig(context.Background(), config.BackupConfig{Type: "filesystem", Dir: dir}, "/vault")
		if err != nil {
			t.Fatalf("NewTargetFromConfig() error = %v", err)
		}
		if err := got.ValidateSetup(context.Background()); err != nil {
			t.Errorf("ValidateSetup() error = %v", err)
		}
		if _, err := os.Stat(dir); err != nil {
			t.Errorf("backup dir was not created: %v", err)
		}
	})

	t.Run("empty type defaults to filesystem under the vault root", func(t *testing.T) {
		vaultRoot := t.TempDir()
		got, err := NewTargetFromConfig(context.Background(), config.BackupConfig{}, vaultRoot)
		if err != nil {
			t.Fatalf("NewTargetFromConfig() error = %v", err)
		}
		if got == nil {
			t.Fatal("NewTargetFromConfig() returned nil")
		}
		if _, err := os.Stat(filepath.Join(vaultRoot, "backups")); err != nil {
			t.Errorf("default backup dir was not created: %v", err)
		}
	})

	t.Run("unknown target type", func(t *testing.T) {
		_, err := NewTargetFromConfig(context.Background(), config.BackupConfig{Type: "tape"}, "/vault")
		if err == nil {
			t.Error("NewTargetFromConfig() with unknown type: expected error, got nil")
		}
	})
}
