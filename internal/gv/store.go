package gv

// Store provides the persistent metadata operations backing a vault.
// Implementations own the connection lifetime; all methods are short-lived
// single statements (or one transaction) against the embedded database.
type Store interface {
	// Asset catalog

	// InsertAsset creates a new catalog row with created_at = updated_at = now
	// and deleted = false, returning the assigned id. Returns ErrDuplicateHash
	// (wrapped) if the content hash already exists, including on rows that
	// were soft-deleted.
	InsertAsset(contentHash, encryptedName, storagePath string, sizeBytes int64) (int64, error)

	// ListActiveAssets returns all non-deleted assets, most recent first.
	ListActiveAssets() ([]*Asset, error)

	// GetAssetByID returns the asset only if it is not soft-deleted.
	// A missing or soft-deleted asset yields (nil, nil).
	GetAssetByID(id int64) (*Asset, error)

	// GetAssetByHash is the dedup lookup; same visibility rule as GetAssetByID.
	GetAssetByHash(contentHash string) (*Asset, error)

	// SoftDeleteAsset marks the asset deleted and bumps updated_at.
	// Deleting a missing or already-deleted id is not an error.
	SoftDeleteAsset(id int64) error

	// CountActiveAssets returns the number of non-deleted assets.
	CountActiveAssets() (int64, error)

	// Tags and annotations

	// AddTag attaches a tag to an asset. kind may be empty. Returns
	// ErrAssetMissing (wrapped) if no asset row with that id exists.
	AddTag(assetID int64, name, kind string) (int64, error)

	// ListTags returns an asset's tags ordered oldest first.
	ListTags(assetID int64) ([]*Tag, error)

	// AddAnnotation attaches a free-text note to an asset. Returns
	// ErrAssetMissing (wrapped) if no asset row with that id exists.
	AddAnnotation(assetID int64, note string) (int64, error)

	// ListAnnotations returns an asset's annotations ordered oldest first.
	ListAnnotations(assetID int64) ([]*Annotation, error)

	// Vault metadata

	// SetMeta inserts or overwrites a key, updating last_updated.
	SetMeta(key, value string) error

	// GetMeta returns the value for key, or ErrNotFound (wrapped).
	GetMeta(key string) (string, error)

	// DeleteMeta removes a key. Missing keys are not an error.
	DeleteMeta(key string) error

	// Audit log

	// RecordEvent appends one row to the audit ledger. details may be empty.
	RecordEvent(eventType, status, details string) error

	// ListEvents returns the most recent audit events, newest first.
	ListEvents(limit int) ([]*AuditEvent, error)

	// Maintenance

	// BackupTo writes a consistent snapshot of the database to destPath.
	BackupTo(destPath string) error

	// Close releases the underlying connection.
	Close() error
}
