package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"gvault/internal/gv"
	"gvault/internal/store/migrations"
)

// timeLayout is the persisted timestamp format: ISO-8601 UTC with a fixed
// nine-digit fraction so lexicographic order of the TEXT column matches
// chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// sanityKey is a scratch vault_meta key written and removed during the
// first-run check.
const sanityKey = "sanity_check"

// SQLiteStore implements gv.Store on an embedded SQLite database.
type SQLiteStore struct {
	db    *sql.DB
	path  string
	clock gv.Clock
	idgen gv.IDGenerator
}

var _ gv.Store = (*SQLiteStore)(nil)

// Open initializes the vault rooted at vaultRoot: ensures the directory
// tree, opens (or creates) the database file, runs migrations and seeds the
// reserved metadata keys on first run. Safe to call on every launch. Any
// failure here is fatal to startup; the application cannot proceed without
// a working store.
//
// clock and idgen may be nil, in which case real implementations are used.
func Open(vaultRoot string, clock gv.Clock, idgen gv.IDGenerator) (*SQLiteStore, error) {
	layout := NewLayout(vaultRoot)
	if err := layout.Ensure(); err != nil {
		return nil, fmt.Errorf("creating vault layout: %w", err)
	}
	return NewSQLiteStore(layout.DatabasePath(), clock, idgen)
}

// NewSQLiteStore opens a store at an explicit database path and brings the
// schema up to date. path can be ":memory:" for an in-memory database.
func NewSQLiteStore(path string, clock gv.Clock, idgen gv.IDGenerator) (*SQLiteStore, error) {
	if clock == nil {
		clock = gv.RealClock{}
	}
	if idgen == nil {
		idgen = gv.UUIDGenerator{}
	}

	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	s := &SQLiteStore{db: db, path: path, clock: clock, idgen: idgen}

	if err := s.seedVaultMeta(); err != nil {
		db.Close()
		return nil, fmt.Errorf("seeding vault metadata: %w", err)
	}

	return s, nil
}

// OpenConnection opens and configures a SQLite connection with the vault's
// durability and performance PRAGMAs. Most are applied through DSN
// parameters so they bind once per connection before first use; the
// remainder are issued on the single pooled connection after open.
func OpenConnection(path string) (*sql.DB, error) {
	dsn := path + "?_foreign_keys=on" +
		"&_journal_mode=WAL" +
		"&_synchronous=NORMAL" +
		"&_secure_delete=on" +
		"&_auto_vacuum=incremental" +
		"&_cache_size=-64000" +
		"&_busy_timeout=5000"

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The embedded engine serializes writers anyway; a single pooled
	// connection keeps the remaining PRAGMAs bound to the connection that
	// executes every statement (and keeps :memory: databases stable).
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA page_size = 4096",
		"PRAGMA temp_store = MEMORY",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %s: %w", pragma, err)
		}
	}

	return db, nil
}

// seedVaultMeta populates the reserved keys exactly once. The check and the
// inserts run in one transaction with INSERT OR IGNORE, so two concurrent
// first launches cannot produce conflicting vault ids.
func (s *SQLiteStore) seedVaultMeta() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	var count int64
	if err := tx.QueryRow(
		"SELECT COUNT(*) FROM vault_meta WHERE key = ?", gv.MetaSchemaVersion,
	).Scan(&count); err != nil {
		return fmt.Errorf("checking for existing seed: %w", err)
	}

	firstRun := count == 0
	if firstRun {
		now := s.formatTime(s.clock.Now())
		vaultID := s.idgen.New()

		seed := [][3]string{
			{gv.MetaSchemaVersion, "1", now},
			{gv.MetaVaultID, vaultID, now},
			{gv.MetaCreatedAt, now, now},
		}
		for _, row := range seed {
			if _, err := tx.Exec(
				"INSERT OR IGNORE INTO vault_meta (key, value, last_updated) VALUES (?, ?, ?)",
				row[0], row[1], row[2],
			); err != nil {
				return fmt.Errorf("seeding %s: %w", row[0], err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed: %w", err)
	}

	if firstRun {
		return s.sanityCheck()
	}
	return nil
}

// sanityCheck verifies the fresh database round-trips a metadata write,
// then removes the scratch key.
func (s *SQLiteStore) sanityCheck() error {
	probe := s.idgen.New()
	if err := s.SetMeta(sanityKey, probe); err != nil {
		return fmt.Errorf("sanity write: %w", err)
	}
	got, err := s.GetMeta(sanityKey)
	if err != nil {
		return fmt.Errorf("sanity read: %w", err)
	}
	if got != probe {
		return fmt.Errorf("sanity check mismatch: wrote %q, read %q", probe, got)
	}
	if err := s.DeleteMeta(sanityKey); err != nil {
		return fmt.Errorf("sanity cleanup: %w", err)
	}
	return nil
}

// Asset catalog

func (s *SQLiteStore) InsertAsset(contentHash, encryptedName, storagePath string, sizeBytes int64) (int64, error) {
	now := s.formatTime(s.clock.Now())

	res, err := s.db.Exec(`
		INSERT INTO images (file_hash, file_name, storage_path, created_at, updated_at, file_size, is_deleted)
		VALUES (?, ?, ?, ?, ?, ?, 0)`,
		contentHash, encryptedName, storagePath, now, now, sizeBytes,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting asset: %w", mapConstraintErr(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading new asset id: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) ListActiveAssets() ([]*gv.Asset, error) {
	rows, err := s.db.Query(`
		SELECT id, file_hash, file_name, storage_path, created_at, updated_at, file_size, is_deleted
		FROM images
		WHERE is_deleted = 0
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	defer rows.Close()

	var assets []*gv.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	return assets, nil
}

func (s *SQLiteStore) GetAssetByID(id int64) (*gv.Asset, error) {
	row := s.db.QueryRow(`
		SELECT id, file_hash, file_name, storage_path, created_at, updated_at, file_size, is_deleted
		FROM images
		WHERE id = ? AND is_deleted = 0`, id)

	asset, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // soft-deleted rows are absent to callers
	}
	if err != nil {
		return nil, fmt.Errorf("getting asset by id: %w", err)
	}
	return asset, nil
}

func (s *SQLiteStore) GetAssetByHash(contentHash string) (*gv.Asset, error) {
	row := s.db.QueryRow(`
		SELECT id, file_hash, file_name, storage_path, created_at, updated_at, file_size, is_deleted
		FROM images
		WHERE file_hash = ? AND is_deleted = 0`, contentHash)

	asset, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting asset by hash: %w", err)
	}
	return asset, nil
}

func (s *SQLiteStore) SoftDeleteAsset(id int64) error {
	now := s.formatTime(s.clock.Now())

	// Idempotent: a missing or already-deleted row simply updates nothing.
	if _, err := s.db.Exec(
		"UPDATE images SET is_deleted = 1, updated_at = ? WHERE id = ? AND is_deleted = 0",
		now, id,
	); err != nil {
		return fmt.Errorf("soft-deleting asset: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CountActiveAssets() (int64, error) {
	var count int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM images WHERE is_deleted = 0").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting assets: %w", err)
	}
	return count, nil
}

// Tags and annotations

func (s *SQLiteStore) AddTag(assetID int64, name, kind string) (int64, error) {
	now := s.formatTime(s.clock.Now())

	res, err := s.db.Exec(
		"INSERT INTO tags (image_id, tag_name, tag_type, created_at) VALUES (?, ?, ?, ?)",
		assetID, name, nullable(kind), now,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting tag: %w", mapConstraintErr(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading new tag id: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) ListTags(assetID int64) ([]*gv.Tag, error) {
	rows, err := s.db.Query(`
		SELECT id, image_id, tag_name, tag_type, created_at
		FROM tags
		WHERE image_id = ?
		ORDER BY created_at ASC`, assetID)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer rows.Close()

	var tags []*gv.Tag
	for rows.Next() {
		var (
			tag       gv.Tag
			kind      sql.NullString
			createdAt string
		)
		if err := rows.Scan(&tag.ID, &tag.AssetID, &tag.Name, &kind, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tag.Kind = kind.String
		if tag.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parsing tag timestamp: %w", err)
		}
		tags = append(tags, &tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	return tags, nil
}

func (s *SQLiteStore) AddAnnotation(assetID int64, note string) (int64, error) {
	now := s.formatTime(s.clock.Now())

	res, err := s.db.Exec(
		"INSERT INTO annotations (image_id, note, created_at) VALUES (?, ?, ?)",
		assetID, note, now,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting annotation: %w", mapConstraintErr(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading new annotation id: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) ListAnnotations(assetID int64) ([]*gv.Annotation, error) {
	rows, err := s.db.Query(`
		SELECT id, image_id, note, created_at
		FROM annotations
		WHERE image_id = ?
		ORDER BY created_at ASC`, assetID)
	if err != nil {
		return nil, fmt.Errorf("listing annotations: %w", err)
	}
	defer rows.Close()

	var notes []*gv.Annotation
	for rows.Next() {
		var (
			ann       gv.Annotation
			createdAt string
		)
		if err := rows.Scan(&ann.ID, &ann.AssetID, &ann.Note, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning annotation: %w", err)
		}
		if ann.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parsing annotation timestamp: %w", err)
		}
		notes = append(notes, &ann)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing annotations: %w", err)
	}
	return notes, nil
}

// Vault metadata

func (s *SQLiteStore) SetMeta(key, value string) error {
	now := s.formatTime(s.clock.Now())

	if _, err := s.db.Exec(
		"INSERT OR REPLACE INTO vault_meta (key, value, last_updated) VALUES (?, ?, ?)",
		key, value, now,
	); err != nil {
		return fmt.Errorf("setting vault meta: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM vault_meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("meta key %q: %w", key, gv.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("getting vault meta: %w", err)
	}
	return value, nil
}

func (s *SQLiteStore) DeleteMeta(key string) error {
	if _, err := s.db.Exec("DELETE FROM vault_meta WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting vault meta: %w", err)
	}
	return nil
}

// Audit log

func (s *SQLiteStore) RecordEvent(eventType, status, details string) error {
	now := s.formatTime(s.clock.Now())

	if _, err := s.db.Exec(
		"INSERT INTO auth_logs (event_type, timestamp, status, details) VALUES (?, ?, ?, ?)",
		eventType, now, status, nullable(details),
	); err != nil {
		return fmt.Errorf("recording audit event: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListEvents(limit int) ([]*gv.AuditEvent, error) {
	rows, err := s.db.Query(`
		SELECT id, event_type, timestamp, status, details
		FROM auth_logs
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing audit events: %w", err)
	}
	defer rows.Close()

	var events []*gv.AuditEvent
	for rows.Next() {
		var (
			ev      gv.AuditEvent
			ts      string
			details sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.EventType, &ts, &ev.Status, &details); err != nil {
			return nil, fmt.Errorf("scanning audit event: %w", err)
		}
		ev.Details = details.String
		if ev.Timestamp, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("parsing audit timestamp: %w", err)
		}
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing audit events: %w", err)
	}
	return events, nil
}

// Maintenance

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteStore) BackupTo(destPath string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.CheckStatus(s.db)
}

// Path returns the database file path (or ":memory:").
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// helpers

func (s *SQLiteStore) formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		// Rows written by other tooling may carry a plain RFC 3339 stamp.
		return time.Parse(time.RFC3339Nano, value)
	}
	return t, nil
}

// nullable maps an empty string to SQL NULL.
func nullable(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (*gv.Asset, error) {
	var (
		asset                gv.Asset
		createdAt, updatedAt string
	)
	if err := row.Scan(
		&asset.ID, &asset.ContentHash, &asset.EncryptedName, &asset.StoragePath,
		&createdAt, &updatedAt, &asset.SizeBytes, &asset.Deleted,
	); err != nil {
		return nil, err
	}

	var err error
	if asset.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if asset.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &asset, nil
}

// mapConstraintErr converts SQLite constraint violations into the store's
// typed errors so callers can distinguish "already ingested" and "no such
// asset" from generic storage failures.
func mapConstraintErr(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %v", gv.ErrDuplicateHash, err)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %v", gv.ErrAssetMissing, err)
		}
	}
	return err
}
