package gv

import "time"

// Asset is one ingested file tracked by the catalog. The true filename is
// never stored in clear; EncryptedName is opaque ciphertext produced by the
// encryption collaborator.
type Asset struct {
	ID            int64
	ContentHash   string // immutable after creation, unique across all rows
	EncryptedName string
	StoragePath   string // relative to the vault root
	CreatedAt     time.Time
	UpdatedAt     time.Time
	SizeBytes     int64
	Deleted       bool
}

// Tag is a label attached to exactly one asset. Kind is an optional
// classifier; duplicates of the same name on one asset are permitted.
type Tag struct {
	ID        int64
	AssetID   int64
	Name      string
	Kind      string // empty when unset
	CreatedAt time.Time
}

// Annotation is a free-text note attached to exactly one asset.
type Annotation struct {
	ID        int64
	AssetID   int64
	Note      string
	CreatedAt time.Time
}

// AuditEvent is one row of the append-only security event ledger.
type AuditEvent struct {
	ID        int64
	EventType string // e.g. "image_added", "image_deleted", "vault_unlocked"
	Timestamp time.Time
	Status    string // "success", "failure"
	Details   string // empty when unset
}

// VaultInfo is a read-only composite view over the vault metadata.
// ActiveAssets is computed from the catalog, never stored.
type VaultInfo struct {
	VaultID       string
	CreatedAt     string
	SchemaVersion string
	ActiveAssets  int64
	Status        string
}
