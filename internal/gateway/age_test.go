package gateway

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gvault/internal/gv"
)

func TestAgeGateway_EncryptDecrypt(t *testing.T) {
	t.Run("round-trips file content", func(t *testing.T) {
		vaultRoot := t.TempDir()
		g := NewAgeGateway(vaultRoot)

		src := filepath.Join(t.TempDir(), "photo.jpg")
		if err := os.WriteFile(src, []byte("original bytes"), 0600); err != nil {
			t.Fatalf("writing source: %v", err)
		}

		storagePath, err := g.EncryptFile(context.Background(), src, "hunter2")
		if err != nil {
			t.Fatalf("EncryptFile() error = %v", err)
		}
		if !strings.HasPrefix(storagePath, "encrypted"+string(filepath.Separator)) {
			t.Errorf("storage path = %q, want under encrypted/", storagePath)
		}

		// The artifact must not contain the plaintext.
		raw, err := os.ReadFile(filepath.Join(vaultRoot, storagePath))
		if err != nil {
			t.Fatalf("reading artifact: %v", err)
		}
		if strings.Contains(string(raw), "original bytes") {
			t.Error("artifact contains plaintext")
		}

		out := filepath.Join(t.TempDir(), "restored.jpg")
		if err := g.DecryptFile(context.Background(), storagePath, "hunter2", out); err != nil {
			t.Fatalf("DecryptFile() error = %v", err)
		}

		restored, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("reading restored file: %v", err)
		}
		if string(restored) != "original bytes" {
			t.Errorf("restored content = %q, want %q", restored, "original bytes")
		}
	})

	t.Run("wrong password fails to decrypt", func(t *testing.T) {
		g := NewAgeGateway(t.TempDir())

		src := filepath.Join(t.TempDir(), "photo.jpg")
		if err := os.WriteFile(src, []byte("secret"), 0600); err != nil {
			t.Fatalf("writing source: %v", err)
		}

		storagePath, err := g.EncryptFile(context.Background(), src, "hunter2")
		if err != nil {
			t.Fatalf("EncryptFile() error = %v", err)
		}

		out := filepath.Join(t.TempDir(), "restored.jpg")
		err = g.DecryptFile(context.Background(), storagePath, "wrong", out)
		if !errors.Is(err, gv.ErrCollaborator) {
			t.Errorf("DecryptFile() error = %v, want ErrCollaborator", err)
		}
	})

	t.Run("missing source fails", func(t *testing.T) {
		g := NewAgeGateway(t.TempDir())

		_, err := g.EncryptFile(context.Background(), "/nonexistent/file", "hunter2")
		if !errors.Is(err, gv.ErrCollaborator) {
			t.Errorf("EncryptFile() error = %v, want ErrCollaborator", err)
		}
	})
}

func TestAgeGateway_VaultLifecycle(t *testing.T) {
	t.Run("initialize then unlock with correct password", func(t *testing.T) {
		g := NewAgeGateway(t.TempDir())

		if err := g.InitializeVault(context.Background(), "hunter2"); err != nil {
			t.Fatalf("InitializeVault() error = %v", err)
		}
		if err := g.UnlockVault(context.Background(), "hunter2"); err != nil {
			t.Errorf("UnlockVault() error = %v", err)
		}
		if err := g.LockVault(context.Background()); err != nil {
			t.Errorf("LockVault() error = %v", err)
		}
	})

	t.Run("unlock with wrong password fails", func(t *testing.T) {
		g := NewAgeGateway(t.TempDir())

		if err := g.InitializeVault(context.Background(), "hunter2"); err != nil {
			t.Fatalf("InitializeVault() error = %v", err)
		}
		err := g.UnlockVault(context.Background(), "wrong")
		if !errors.Is(err, gv.ErrCollaborator) {
			t.Errorf("UnlockVault() error = %v, want ErrCollaborator", err)
		}
	})

	t.Run("unlock before initialize fails", func(t *testing.T) {
		g := NewAgeGateway(t.TempDir())

		err := g.UnlockVault(context.Background(), "hunter2")
		if !errors.Is(err, gv.ErrCollaborator) {
			t.Errorf("UnlockVault() error = %v, want ErrCollaborator", err)
		}
	})

	t.Run("initializing twice fails", func(t *testing.T) {
		g := NewAgeGateway(t.TempDir())

		if err := g.InitializeVault(context.Background(), "hunter2"); err != nil {
			t.Fatalf("first InitializeVault() error = %v", err)
		}
		err := g.InitializeVault(context.Background(), "other")
		if !errors.Is(err, gv.ErrCollaborator) {
			t.Errorf("second InitializeVault() error = %v, want ErrCollaborator", err)
		}
	})
}
