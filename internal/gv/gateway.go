package gv

import "context"

// Gateway is the client boundary to the external encryption collaborator.
// Each call is a single blocking invocation with no implicit timeout and no
// automatic retries: a repeated password-bearing call has security
// implications, so retry policy belongs to the caller, as does bounding
// latency via the context.
type Gateway interface {
	// EncryptFile asks the collaborator to encrypt the file at sourcePath
	// into the vault's encrypted storage area. Returns the resulting storage
	// reference (path relative to the vault root on success).
	EncryptFile(ctx context.Context, sourcePath, password string) (string, error)

	// DecryptFile asks the collaborator to decrypt encryptedPath to
	// outputPath.
	DecryptFile(ctx context.Context, encryptedPath, password, outputPath string) error

	// InitializeVault performs first-time collaborator setup for the vault
	// (key material derivation and storage).
	InitializeVault(ctx context.Context, password string) error

	// UnlockVault verifies the password and opens a collaborator session.
	UnlockVault(ctx context.Context, password string) error

	// LockVault closes the collaborator session and clears key material.
	LockVault(ctx context.Context) error
}

// GatewayResponse is the structured success/failure envelope every
// collaborator invocation must produce on stdout.
type GatewayResponse struct {
	Success       bool   `json:"success"`
	EncryptedPath string `json:"encrypted_path,omitempty"`
	Data          string `json:"data,omitempty"`
	Error         string `json:"error,omitempty"`
}
