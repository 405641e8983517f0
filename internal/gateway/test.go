package gateway

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"gvault/internal/gv"
)

// TestGateway is a deterministic in-memory collaborator for tests. It
// records every invocation and "encrypts" by remembering the source path
// under a generated storage reference. Set FailWith to force a failure.
type TestGateway struct {
	mu       sync.Mutex
	counter  int
	password string // set by InitializeVault
	Calls    []string
	FailWith error
}

var _ gv.Gateway = (*TestGateway)(nil)

func NewTestGateway() *TestGateway {
	return &TestGateway{}
}

func (g *TestGateway) record(call string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls = append(g.Calls, call)
	return g.FailWith
}

func (g *TestGateway) EncryptFile(_ context.Context, sourcePath, password string) (string, error) {
	if err := g.record("encrypt:" + sourcePath); err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return filepath.Join("encrypted", fmt.Sprintf("enc_%d.bin", g.counter)), nil
}

func (g *TestGateway) DecryptFile(_ context.Context, encryptedPath, password, outputPath string) error {
	return g.record("decrypt:" + encryptedPath)
}

func (g *TestGateway) InitializeVault(_ context.Context, password string) error {
	if err := g.record("initialize"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.password = password
	return nil
}

func (g *TestGateway) UnlockVault(_ context.Context, password string) error {
	if err := g.record("unlock"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.password != "" && g.password != password {
		return fmt.Errorf("%w: incorrect password", gv.ErrCollaborator)
	}
	return nil
}

func (g *TestGateway) LockVault(context.Context) error {
	return g.record("lock")
}
