package gateway

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"filippo.io/age"
	"github.com/google/uuid"

	"gvault/internal/gv"
)

// keyCheckFileName holds a random token encrypted with the master password.
// Unlock verifies the password by decrypting it.
const keyCheckFileName = "keycheck.age"

// AgeGateway is the in-process encryption collaborator, built on age's
// scrypt-based passphrase encryption. It implements the same contract the
// exec gateway speaks over a process boundary, so the two are
// interchangeable; cmd/gvault-cryptd wraps this type behind the subprocess
// envelope.
type AgeGateway struct {
	vaultRoot string
}

var _ gv.Gateway = (*AgeGateway)(nil)

// NewAgeGateway creates an in-process collaborator for the given vault root.
func NewAgeGateway(vaultRoot string) *AgeGateway {
	return &AgeGateway{vaultRoot: vaultRoot}
}

func (g *AgeGateway) encryptedDir() string { return filepath.Join(g.vaultRoot, "encrypted") }
func (g *AgeGateway) keyCheckPath() string {
	return filepath.Join(g.vaultRoot, "data", keyCheckFileName)
}

// EncryptFile encrypts sourcePath into the vault's encrypted storage area
// under a random artifact name and returns the storage path relative to the
// vault root. The plaintext filename never reaches disk.
func (g *AgeGateway) EncryptFile(_ context.Context, sourcePath, password string) (string, error) {
	recipient, err := age.NewScryptRecipient(password)
	if err != nil {
		return "", fmt.Errorf("%w: creating recipient: %v", gv.ErrCollaborator, err)
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("%w: opening source file: %v", gv.ErrCollaborator, err)
	}
	defer src.Close()

	if err := os.MkdirAll(g.encryptedDir(), 0700); err != nil {
		return "", fmt.Errorf("%w: creating encrypted directory: %v", gv.ErrCollaborator, err)
	}

	name := uuid.New().String() + ".age"
	destPath := filepath.Join(g.encryptedDir(), name)

	dest, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", fmt.Errorf("%w: creating encrypted file: %v", gv.ErrCollaborator, err)
	}
	defer dest.Close()

	w, err := age.Encrypt(dest, recipient)
	if err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("%w: creating encrypted writer: %v", gv.ErrCollaborator, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("%w: encrypting data: %v", gv.ErrCollaborator, err)
	}
	if err := w.Close(); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("%w: finalizing encryption: %v", gv.ErrCollaborator, err)
	}

	return filepath.Join("encrypted", name), nil
}

// DecryptFile decrypts an artifact to outputPath. encryptedPath may be
// relative to the vault root (as stored in the catalog) or absolute.
func (g *AgeGateway) DecryptFile(_ context.Context, encryptedPath, password, outputPath string) error {
	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return fmt.Errorf("%w: creating identity: %v", gv.ErrCollaborator, err)
	}

	if !filepath.IsAbs(encryptedPath) {
		encryptedPath = filepath.Join(g.vaultRoot, encryptedPath)
	}

	src, err := os.Open(encryptedPath)
	if err != nil {
		return fmt.Errorf("%w: opening encrypted file: %v", gv.ErrCollaborator, err)
	}
	defer src.Close()

	r, err := age.Decrypt(src, identity)
	if err != nil {
		return fmt.Errorf("%w: %v", gv.ErrCollaborator, err)
	}

	dest, err := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("%w: creating output file: %v", gv.ErrCollaborator, err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, r); err != nil {
		return fmt.Errorf("%w: decrypting data: %v", gv.ErrCollaborator, err)
	}
	return nil
}

// InitializeVault writes the key-check token. Initializing twice is an
// error: it would silently re-key the password verification material.
func (g *AgeGateway) InitializeVault(_ context.Context, password string) error {
	if _, err := os.Stat(g.keyCheckPath()); err == nil {
		return fmt.Errorf("%w: vault already initialized", gv.ErrCollaborator)
	}

	recipient, err := age.NewScryptRecipient(password)
	if err != nil {
		return fmt.Errorf("%w: creating recipient: %v", gv.ErrCollaborator, err)
	}

	if err := os.MkdirAll(filepath.Dir(g.keyCheckPath()), 0700); err != nil {
		return fmt.Errorf("%w: creating data directory: %v", gv.ErrCollaborator, err)
	}

	f, err := os.OpenFile(g.keyCheckPath(), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("%w: creating key check file: %v", gv.ErrCollaborator, err)
	}
	defer f.Close()

	w, err := age.Encrypt(f, recipient)
	if err != nil {
		return fmt.Errorf("%w: creating encrypted writer: %v", gv.ErrCollaborator, err)
	}
	if _, err := io.WriteString(w, uuid.New().String()+"\n"); err != nil {
		return fmt.Errorf("%w: writing key check token: %v", gv.ErrCollaborator, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: finalizing key check file: %v", gv.ErrCollaborator, err)
	}

	return nil
}

// UnlockVault verifies the password against the key-check token.
func (g *AgeGateway) UnlockVault(_ context.Context, password string) error {
	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return fmt.Errorf("%w: creating identity: %v", gv.ErrCollaborator, err)
	}

	f, err := os.Open(g.keyCheckPath())
	if err != nil {
		return fmt.Errorf("%w: vault not initialized: %v", gv.ErrCollaborator, err)
	}
	defer f.Close()

	r, err := age.Decrypt(f, identity)
	if err != nil {
		return fmt.Errorf("%w: incorrect password: %v", gv.ErrCollaborator, err)
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return fmt.Errorf("%w: reading key check token: %v", gv.ErrCollaborator, err)
	}
	return nil
}

// LockVault is a no-op for the in-process collaborator: no key material is
// held between calls, the password is required on every operation.
func (g *AgeGateway) LockVault(context.Context) error {
	return nil
}
