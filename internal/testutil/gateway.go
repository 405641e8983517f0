package testutil

import (
	"gvault/internal/backup"
	"gvault/internal/gateway"
)

// NewTestGateway creates an in-memory encryption gateway for testing.
func NewTestGateway() *gateway.TestGateway {
	return gateway.NewTestGateway()
}

// NewTestBackupTarget creates an in-memory backup target for testing.
func NewTestBackupTarget() *backup.MemoryTarget {
	return backup.NewMemoryTarget()
}
