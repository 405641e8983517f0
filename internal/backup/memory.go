package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"gvault/internal/gv"
)

// MemoryTarget is an in-memory implementation of the BackupTarget interface,
// useful for testing. Safe for concurrent use.
type MemoryTarget struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

var _ gv.BackupTarget = (*MemoryTarget)(nil)

// NewMemoryTarget creates a new in-memory backup target.
func NewMemoryTarget() *MemoryTarget {
	return &MemoryTarget{snapshots: make(map[string][]byte)}
}

// PutSnapshot stores a named snapshot in memory.
func (t *MemoryTarget) PutSnapshot(_ context.Context, name string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.snapshots[name] = data
	return nil
}

// GetSnapshot retrieves a named snapshot.
func (t *MemoryTarget) GetSnapshot(_ context.Context, name string, w io.Writer) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	data, ok := t.snapshots[name]
	if !ok {
		return fmt.Errorf("snapshot not found: %s", name)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Names returns the stored snapshot names. Test helper.
func (t *MemoryTarget) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.snapshots))
	for name := range t.snapshots {
		names = append(names, name)
	}
	return names
}

// ValidateSetup always succeeds for the in-memory target.
func (t *MemoryTarget) ValidateSetup(context.Context) error {
	return nil
}
