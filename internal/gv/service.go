package gv

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Reserved vault_meta keys, seeded once at schema initialization and never
// overwritten by the schema manager afterwards.
const (
	MetaSchemaVersion = "schema_version"
	MetaVaultID       = "vault_id"
	MetaCreatedAt     = "created_at"
)

// VaultService is the orchestration layer that coordinates the store, the
// encryption gateway and the backup target to perform the high-level vault
// operations needed by the CLI. One service call maps to one catalog, tag,
// annotation or metadata operation, optionally followed by an audit write.
type VaultService struct {
	store   Store
	gateway Gateway
	backups BackupTarget
	logger  Logger
	clock   Clock
}

// NewVaultService creates a new VaultService with the provided dependencies.
func NewVaultService(store Store, gateway Gateway, backups BackupTarget, logger Logger, clock Clock) *VaultService {
	return &VaultService{
		store:   store,
		gateway: gateway,
		backups: backups,
		logger:  logger,
		clock:   clock,
	}
}

// recordAudit appends an audit event. Audit logging is best-effort relative
// to the primary action: a failed write is reported but never unwinds the
// operation it describes.
func (s *VaultService) recordAudit(eventType, status, details string) {
	if err := s.store.RecordEvent(eventType, status, details); err != nil {
		s.logger.Warn("audit write failed", "event_type", eventType, "error", err)
	}
}

// AddAsset records an already-encrypted artifact in the catalog and audits
// the ingest. A duplicate content hash surfaces as ErrDuplicateHash so the
// caller can report "already exists" instead of a generic storage error.
func (s *VaultService) AddAsset(contentHash, encryptedName, storagePath string, sizeBytes int64) (int64, error) {
	id, err := s.store.InsertAsset(contentHash, encryptedName, storagePath, sizeBytes)
	if err != nil {
		return 0, fmt.Errorf("inserting asset: %w", err)
	}

	s.recordAudit("image_added", "success", fmt.Sprintf("asset id %d", id))
	s.logger.Info("asset added", "id", id, "storage_path", storagePath)
	return id, nil
}

// Ingest encrypts the file at sourcePath through the gateway and records the
// resulting artifact in the catalog. The catalog never sees the password; it
// only stores the opaque storage reference the collaborator returns.
func (s *VaultService) Ingest(ctx context.Context, sourcePath, password string) (int64, error) {
	hash, size, err := hashFile(sourcePath)
	if err != nil {
		return 0, fmt.Errorf("hashing source file: %w", err)
	}

	existing, err := s.store.GetAssetByHash(hash)
	if err != nil {
		return 0, fmt.Errorf("checking for existing asset: %w", err)
	}
	if existing != nil {
		return 0, fmt.Errorf("asset %d: %w", existing.ID, ErrDuplicateHash)
	}

	storagePath, err := s.gateway.EncryptFile(ctx, sourcePath, password)
	if err != nil {
		s.recordAudit("image_added", "failure", err.Error())
		return 0, fmt.Errorf("encrypting file: %w", err)
	}

	return s.AddAsset(hash, filepath.Base(storagePath), storagePath, size)
}

// ListAssets returns all active assets, most recent first.
func (s *VaultService) ListAssets() ([]*Asset, error) {
	return s.store.ListActiveAssets()
}

// GetAsset returns an active asset by id. Soft-deleted and missing assets
// both yield ErrNotFound.
func (s *VaultService) GetAsset(id int64) (*Asset, error) {
	asset, err := s.store.GetAssetByID(id)
	if err != nil {
		return nil, fmt.Errorf("getting asset: %w", err)
	}
	if asset == nil {
		return nil, fmt.Errorf("asset %d: %w", id, ErrNotFound)
	}
	return asset, nil
}

// GetAssetByHash returns an active asset by content hash, or ErrNotFound.
func (s *VaultService) GetAssetByHash(hash string) (*Asset, error) {
	asset, err := s.store.GetAssetByHash(hash)
	if err != nil {
		return nil, fmt.Errorf("getting asset by hash: %w", err)
	}
	if asset == nil {
		return nil, fmt.Errorf("hash %s: %w", hash, ErrNotFound)
	}
	return asset, nil
}

// DeleteAsset soft-deletes an asset and audits the deletion. The encrypted
// artifact and the asset's tags stay in place; only the catalog visibility
// changes.
func (s *VaultService) DeleteAsset(id int64) error {
	asset, err := s.store.GetAssetByID(id)
	if err != nil {
		return fmt.Errorf("checking asset: %w", err)
	}
	if asset == nil {
		return fmt.Errorf("asset %d: %w", id, ErrNotFound)
	}

	if err := s.store.SoftDeleteAsset(id); err != nil {
		return fmt.Errorf("deleting asset: %w", err)
	}

	s.recordAudit("image_deleted", "success", fmt.Sprintf("asset id %d", id))
	s.logger.Info("asset deleted", "id", id)
	return nil
}

// AddTag attaches a tag to an asset. kind may be empty.
func (s *VaultService) AddTag(assetID int64, name, kind string) (int64, error) {
	id, err := s.store.AddTag(assetID, name, kind)
	if err != nil {
		return 0, fmt.Errorf("adding tag: %w", err)
	}
	return id, nil
}

// ListTags returns an asset's tags, oldest first.
func (s *VaultService) ListTags(assetID int64) ([]*Tag, error) {
	return s.store.ListTags(assetID)
}

// AddAnnotation attaches a free-text note to an asset.
func (s *VaultService) AddAnnotation(assetID int64, note string) (int64, error) {
	id, err := s.store.AddAnnotation(assetID, note)
	if err != nil {
		return 0, fmt.Errorf("adding annotation: %w", err)
	}
	return id, nil
}

// ListAnnotations returns an asset's annotations, oldest first.
func (s *VaultService) ListAnnotations(assetID int64) ([]*Annotation, error) {
	return s.store.ListAnnotations(assetID)
}

// SetSetting upserts an arbitrary vault setting. Reserved keys are not
// protected here; the schema manager only guarantees they are seeded once.
func (s *VaultService) SetSetting(key, value string) error {
	return s.store.SetMeta(key, value)
}

// GetSetting reads a vault setting, or ErrNotFound.
func (s *VaultService) GetSetting(key string) (string, error) {
	return s.store.GetMeta(key)
}

// VaultID returns the vault's stable unique identifier.
func (s *VaultService) VaultID() (string, error) {
	return s.store.GetMeta(MetaVaultID)
}

// CreatedAt returns the vault's creation timestamp as stored.
func (s *VaultService) CreatedAt() (string, error) {
	return s.store.GetMeta(MetaCreatedAt)
}

// SchemaVersion returns the stored schema version.
func (s *VaultService) SchemaVersion() (string, error) {
	return s.store.GetMeta(MetaSchemaVersion)
}

// Info assembles the read-only composite vault view. The active-asset count
// is computed from the catalog rather than stored, so it can never drift.
func (s *VaultService) Info() (*VaultInfo, error) {
	vaultID, err := s.VaultID()
	if err != nil {
		return nil, fmt.Errorf("reading vault id: %w", err)
	}
	createdAt, err := s.CreatedAt()
	if err != nil {
		return nil, fmt.Errorf("reading creation time: %w", err)
	}
	version, err := s.SchemaVersion()
	if err != nil {
		return nil, fmt.Errorf("reading schema version: %w", err)
	}
	count, err := s.store.CountActiveAssets()
	if err != nil {
		return nil, fmt.Errorf("counting assets: %w", err)
	}

	return &VaultInfo{
		VaultID:       vaultID,
		CreatedAt:     createdAt,
		SchemaVersion: version,
		ActiveAssets:  count,
		Status:        "active",
	}, nil
}

// EncryptFile delegates to the collaborator and audits the outcome.
func (s *VaultService) EncryptFile(ctx context.Context, sourcePath, password string) (string, error) {
	out, err := s.gateway.EncryptFile(ctx, sourcePath, password)
	if err != nil {
		s.recordAudit("file_encrypted", "failure", err.Error())
		return "", err
	}
	s.recordAudit("file_encrypted", "success", out)
	return out, nil
}

// DecryptFile delegates to the collaborator and audits the outcome.
func (s *VaultService) DecryptFile(ctx context.Context, encryptedPath, password, outputPath string) error {
	if err := s.gateway.DecryptFile(ctx, encryptedPath, password, outputPath); err != nil {
		s.recordAudit("file_decrypted", "failure", err.Error())
		return err
	}
	s.recordAudit("file_decrypted", "success", outputPath)
	return nil
}

// InitializeVault performs first-time collaborator setup.
func (s *VaultService) InitializeVault(ctx context.Context, password string) error {
	if err := s.gateway.InitializeVault(ctx, password); err != nil {
		s.recordAudit("vault_created", "failure", err.Error())
		return err
	}
	s.recordAudit("vault_created", "success", "")
	return nil
}

// UnlockVault opens a collaborator session with the given password.
func (s *VaultService) UnlockVault(ctx context.Context, password string) error {
	if err := s.gateway.UnlockVault(ctx, password); err != nil {
		s.recordAudit("vault_unlocked", "failure", err.Error())
		return err
	}
	s.recordAudit("vault_unlocked", "success", "")
	return nil
}

// LockVault closes the collaborator session.
func (s *VaultService) LockVault(ctx context.Context) error {
	if err := s.gateway.LockVault(ctx); err != nil {
		s.recordAudit("vault_locked", "failure", err.Error())
		return err
	}
	s.recordAudit("vault_locked", "success", "")
	return nil
}

// Audit returns the most recent audit events, newest first.
func (s *VaultService) Audit(limit int) ([]*AuditEvent, error) {
	return s.store.ListEvents(limit)
}

// Backup snapshots the database and streams it to the backup target. The
// snapshot name carries a UTC timestamp so successive backups never collide.
func (s *VaultService) Backup(ctx context.Context) (string, error) {
	tmpFile, err := os.CreateTemp("", "gvault-backup-*.db")
	if err != nil {
		return "", fmt.Errorf("creating temp file for snapshot: %w", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	// VACUUM INTO refuses to overwrite; reserve the name, then free it.
	os.Remove(tmpPath)
	defer os.Remove(tmpPath)

	if err := s.store.BackupTo(tmpPath); err != nil {
		return "", fmt.Errorf("snapshotting database: %w", err)
	}

	f, err := os.Open(tmpPath)
	if err != nil {
		return "", fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat snapshot: %w", err)
	}

	name := "gvault-" + s.clock.Now().UTC().Format("20060102T150405Z") + ".db"
	if err := s.backups.PutSnapshot(ctx, name, f, info.Size()); err != nil {
		return "", fmt.Errorf("uploading snapshot: %w", err)
	}

	s.logger.Info("database backed up", "snapshot", name)
	return name, nil
}

// hashFile returns the SHA-256 hex digest and size of the file at path.
func hashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), size, nil
}
