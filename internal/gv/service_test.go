package gv_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gvault/internal/gv"
	"gvault/internal/testutil"
)

func newTestService(t *testing.T) (*gv.VaultService, gv.Store) {
	t.Helper()
	st := testutil.NewTestStore(t, testutil.FixedClock(), testutil.NewStubIDGenerator())
	svc := gv.NewVaultService(st, testutil.NewTestGateway(), testutil.NewTestBackupTarget(), gv.NewNopLogger(), testutil.FixedClock())
	return svc, st
}

// writeSourceFile creates a file with the given content and returns its path.
func writeSourceFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photo.jpg")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing source file: %v", err)
	}
	return path
}

func TestVaultService_Ingest(t *testing.T) {
	t.Run("encrypts and catalogs a new file", func(t *testing.T) {
		svc, _ := newTestService(t)
		src := writeSourceFile(t, "holiday photo bytes")

		id, err := svc.Ingest(context.Background(), src, "hunter2")
		if err != nil {
			t.Fatalf("Ingest() error = %v", err)
		}

		asset, err := svc.GetAsset(id)
		if err != nil {
			t.Fatalf("GetAsset() error = %v", err)
		}
		if want := testutil.SHA256Hex([]byte("holiday photo bytes")); asset.ContentHash != want {
			t.Errorf("ContentHash = %q, want %q", asset.ContentHash, want)
		}
		if asset.SizeBytes != int64(len("holiday photo bytes")) {
			t.Errorf("SizeBytes = %d, want %d", asset.SizeBytes, len("holiday photo bytes"))
		}
		if asset.StoragePath == "" {
			t.Error("StoragePath is empty")
		}
	})

	t.Run("rejects a file whose content is already cataloged", func(t *testing.T) {
		st := testutil.NewTestStore(t, testutil.FixedClock(), testutil.NewStubIDGenerator())
		gw := testutil.NewTestGateway()
		svc := gv.NewVaultService(st, gw, testutil.NewTestBackupTarget(), gv.NewNopLogger(), testutil.FixedClock())

		src := writeSourceFile(t, "same bytes")
		if _, err := svc.Ingest(context.Background(), src, "hunter2"); err != nil {
			t.Fatalf("first Ingest() error = %v", err)
		}

		// Same content from a different path still collides.
		other := filepath.Join(t.TempDir(), "copy.jpg")
		if err := os.WriteFile(other, []byte("same bytes"), 0600); err != nil {
			t.Fatalf("writing copy: %v", err)
		}

		_, err := svc.Ingest(context.Background(), other, "hunter2")
		if !errors.Is(err, gv.ErrDuplicateHash) {
			t.Fatalf("second Ingest() error = %v, want ErrDuplicateHash", err)
		}

		// The duplicate was caught before encryption.
		encrypts := 0
		for _, call := range gw.Calls {
			if strings.HasPrefix(call, "encrypt:") {
				encrypts++
			}
		}
		if encrypts != 1 {
			t.Errorf("gateway encrypt calls = %d, want 1", encrypts)
		}
	})

	t.Run("audits and aborts on gateway failure", func(t *testing.T) {
		st := testutil.NewTestStore(t, testutil.FixedClock(), testutil.NewStubIDGenerator())
		gw := testutil.NewTestGateway()
		gw.FailWith = fmt.Errorf("%w: collaborator crashed", gv.ErrTransport)
		svc := gv.NewVaultService(st, gw, testutil.NewTestBackupTarget(), gv.NewNopLogger(), testutil.FixedClock())

		src := writeSourceFile(t, "bytes")
		_, err := svc.Ingest(context.Background(), src, "hunter2")
		if !errors.Is(err, gv.ErrTransport) {
			t.Fatalf("Ingest() error = %v, want ErrTransport", err)
		}

		count, err := st.CountActiveAssets()
		if err != nil {
			t.Fatalf("CountActiveAssets() error = %v", err)
		}
		if count != 0 {
			t.Errorf("assets after failed ingest = %d, want 0", count)
		}

		events, err := svc.Audit(10)
		if err != nil {
			t.Fatalf("Audit() error = %v", err)
		}
		if len(events) != 1 || events[0].EventType != "image_added" || events[0].Status != "failure" {
			t.Errorf("audit events = %+v, want one failed image_added", events)
		}
	})
}

func TestVaultService_GetAsset(t *testing.T) {
	t.Run("unknown id yields ErrNotFound", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.GetAsset(42)
		if !errors.Is(err, gv.ErrNotFound) {
			t.Errorf("GetAsset() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("unknown hash yields ErrNotFound", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.GetAssetByHash("deadbeef")
		if !errors.Is(err, gv.ErrNotFound) {
			t.Errorf("GetAssetByHash() error = %v, want ErrNotFound", err)
		}
	})
}

func TestVaultService_DeleteAsset(t *testing.T) {
	t.Run("soft-deletes and audits", func(t *testing.T) {
		svc, _ := newTestService(t)

		id, err := svc.AddAsset("abc123", "a.age", "encrypted/a.age", 1)
		if err != nil {
			t.Fatalf("AddAsset() error = %v", err)
		}

		if err := svc.DeleteAsset(id); err != nil {
			t.Fatalf("DeleteAsset() error = %v", err)
		}

		if _, err := svc.GetAsset(id); !errors.Is(err, gv.ErrNotFound) {
			t.Errorf("GetAsset() after delete error = %v, want ErrNotFound", err)
		}

		events, err := svc.Audit(10)
		if err != nil {
			t.Fatalf("Audit() error = %v", err)
		}
		if len(events) == 0 || events[0].EventType != "image_deleted" {
			t.Errorf("latest audit event = %+v, want image_deleted", events)
		}
	})

	t.Run("unknown asset yields ErrNotFound", func(t *testing.T) {
		svc, _ := newTestService(t)

		err := svc.DeleteAsset(42)
		if !errors.Is(err, gv.ErrNotFound) {
			t.Errorf("DeleteAsset() error = %v, want ErrNotFound", err)
		}
	})
}

// failingAuditStore wraps a Store and refuses every audit write.
type failingAuditStore struct {
	gv.Store
}

func (s *failingAuditStore) RecordEvent(eventType, status, details string) error {
	return fmt.Errorf("audit table unavailable")
}

func TestVaultService_AuditIsBestEffort(t *testing.T) {
	t.Run("asset insert survives a failed audit write", func(t *testing.T) {
		st := testutil.NewTestStore(t, testutil.FixedClock(), testutil.NewStubIDGenerator())
		wrapped := &failingAuditStore{Store: st}
		svc := gv.NewVaultService(wrapped, testutil.NewTestGateway(), testutil.NewTestBackupTarget(), gv.NewNopLogger(), testutil.FixedClock())

		id, err := svc.AddAsset("abc123", "a.age", "encrypted/a.age", 1)
		if err != nil {
			t.Fatalf("AddAsset() error = %v", err)
		}

		asset, err := svc.GetAsset(id)
		if err != nil {
			t.Fatalf("GetAsset() error = %v", err)
		}
		if asset.ContentHash != "abc123" {
			t.Errorf("ContentHash = %q, want %q", asset.ContentHash, "abc123")
		}
	})

	t.Run("delete survives a failed audit write", func(t *testing.T) {
		st := testutil.NewTestStore(t, testutil.FixedClock(), testutil.NewStubIDGenerator())
		wrapped := &failingAuditStore{Store: st}
		svc := gv.NewVaultService(wrapped, testutil.NewTestGateway(), testutil.NewTestBackupTarget(), gv.NewNopLogger(), testutil.FixedClock())

		id, err := svc.AddAsset("abc123", "a.age", "encrypted/a.age", 1)
		if err != nil {
			t.Fatalf("AddAsset() error = %v", err)
		}
		if err := svc.DeleteAsset(id); err != nil {
			t.Errorf("DeleteAsset() error = %v, want nil", err)
		}
	})
}

func TestVaultService_Info(t *testing.T) {
	t.Run("assembles identity and live count", func(t *testing.T) {
		svc, _ := newTestService(t)

		if _, err := svc.AddAsset("hash-1", "a.age", "encrypted/a.age", 1); err != nil {
			t.Fatalf("AddAsset() error = %v", err)
		}
		if _, err := svc.AddAsset("hash-2", "b.age", "encrypted/b.age", 2); err != nil {
			t.Fatalf("AddAsset() error = %v", err)
		}

		info, err := svc.Info()
		if err != nil {
			t.Fatalf("Info() error = %v", err)
		}
		if info.VaultID != "id-1" {
			t.Errorf("VaultID = %q, want %q", info.VaultID, "id-1")
		}
		if info.SchemaVersion != "1" {
			t.Errorf("SchemaVersion = %q, want %q", info.SchemaVersion, "1")
		}
		if info.ActiveAssets != 2 {
			t.Errorf("ActiveAssets = %d, want 2", info.ActiveAssets)
		}
		if info.Status != "active" {
			t.Errorf("Status = %q, want %q", info.Status, "active")
		}
		if info.CreatedAt == "" {
			t.Error("CreatedAt is empty")
		}
	})
}

func TestVaultService_VaultLifecycle(t *testing.T) {
	t.Run("audits unlock failures", func(t *testing.T) {
		st := testutil.NewTestStore(t, testutil.FixedClock(), testutil.NewStubIDGenerator())
		gw := testutil.NewTestGateway()
		svc := gv.NewVaultService(st, gw, testutil.NewTestBackupTarget(), gv.NewNopLogger(), testutil.FixedClock())

		if err := svc.InitializeVault(context.Background(), "hunter2"); err != nil {
			t.Fatalf("InitializeVault() error = %v", err)
		}

		err := svc.UnlockVault(context.Background(), "wrong")
		if !errors.Is(err, gv.ErrCollaborator) {
			t.Fatalf("UnlockVault() error = %v, want ErrCollaborator", err)
		}

		events, err := svc.Audit(10)
		if err != nil {
			t.Fatalf("Audit() error = %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("audit events = %d, want 2", len(events))
		}
		if events[0].EventType != "vault_unlocked" || events[0].Status != "failure" {
			t.Errorf("events[0] = %+v, want failed vault_unlocked", events[0])
		}
		if events[1].EventType != "vault_created" || events[1].Status != "success" {
			t.Errorf("events[1] = %+v, want successful vault_created", events[1])
		}
	})

	t.Run("audits lock and unlock success", func(t *testing.T) {
		svc, _ := newTestService(t)

		if err := svc.InitializeVault(context.Background(), "hunter2"); err != nil {
			t.Fatalf("InitializeVault() error = %v", err)
		}
		if err := svc.UnlockVault(context.Background(), "hunter2"); err != nil {
			t.Fatalf("UnlockVault() error = %v", err)
		}
		if err := svc.LockVault(context.Background()); err != nil {
			t.Fatalf("LockVault() error = %v", err)
		}

		events, err := svc.Audit(10)
		if err != nil {
			t.Fatalf("Audit() error = %v", err)
		}
		want := []string{"vault_locked", "vault_unlocked", "vault_created"}
		if len(events) != len(want) {
			t.Fatalf("audit events = %d, want %d", len(events), len(want))
		}
		for i, w := range want {
			if events[i].EventType != w {
				t.Errorf("events[%d].EventType = %q, want %q", i, events[i].EventType, w)
			}
		}
	})
}

func TestVaultService_Backup(t *testing.T) {
	t.Run("stores a timestamped snapshot", func(t *testing.T) {
		st := testutil.NewTestStore(t, testutil.FixedClock(), testutil.NewStubIDGenerator())
		target := testutil.NewTestBackupTarget()
		svc := gv.NewVaultService(st, testutil.NewTestGateway(), target, gv.NewNopLogger(), testutil.FixedClock())

		if _, err := svc.AddAsset("abc123", "a.age", "encrypted/a.age", 1); err != nil {
			t.Fatalf("AddAsset() error = %v", err)
		}

		name, err := svc.Backup(context.Background())
		if err != nil {
			t.Fatalf("Backup() error = %v", err)
		}
		if want := "gvault-20250310T091500Z.db"; name != want {
			t.Errorf("snapshot name = %q, want %q", name, want)
		}

		names := target.Names()
		if len(names) != 1 || names[0] != name {
			t.Errorf("stored snapshots = %v, want [%s]", names, name)
		}
	})
}
