package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"gvault/internal/gv"
)

// ExecGateway invokes an external encryption collaborator as a subprocess
// and normalizes its JSON envelope into the Gateway contract. It never
// retries: a repeated password-bearing invocation is the caller's decision.
//
// The collaborator contract: one operation per invocation, arguments via
// flags, a single JSON envelope {success, encrypted_path?, data?, error?}
// on stdout, diagnostics on stderr.
type ExecGateway struct {
	binaryPath string
	vaultRoot  string
}

var _ gv.Gateway = (*ExecGateway)(nil)

// NewExecGateway creates a gateway that shells out to the collaborator
// binary at binaryPath, passing vaultRoot on every call.
func NewExecGateway(binaryPath, vaultRoot string) *ExecGateway {
	return &ExecGateway{binaryPath: binaryPath, vaultRoot: vaultRoot}
}

func (g *ExecGateway) EncryptFile(ctx context.Context, sourcePath, password string) (string, error) {
	resp, err := g.invoke(ctx,
		"encrypt_file",
		"--vault-path", g.vaultRoot,
		"--file-path", sourcePath,
		"--password", password,
	)
	if err != nil {
		return "", err
	}
	if resp.EncryptedPath == "" {
		return "", fmt.Errorf("%w: collaborator returned no encrypted path", gv.ErrTransport)
	}
	return resp.EncryptedPath, nil
}

func (g *ExecGateway) DecryptFile(ctx context.Context, encryptedPath, password, outputPath string) error {
	_, err := g.invoke(ctx,
		"decrypt_file",
		"--vault-path", g.vaultRoot,
		"--file-path", encryptedPath,
		"--password", password,
		"--output-path", outputPath,
	)
	return err
}

func (g *ExecGateway) InitializeVault(ctx context.Context, password string) error {
	_, err := g.invoke(ctx,
		"initialize",
		"--vault-path", g.vaultRoot,
		"--password", password,
	)
	return err
}

func (g *ExecGateway) UnlockVault(ctx context.Context, password string) error {
	_, err := g.invoke(ctx,
		"unlock",
		"--vault-path", g.vaultRoot,
		"--password", password,
	)
	return err
}

func (g *ExecGateway) LockVault(ctx context.Context) error {
	_, err := g.invoke(ctx,
		"lock",
		"--vault-path", g.vaultRoot,
	)
	return err
}

// invoke runs one collaborator operation, capturing both output channels.
// Failure taxonomy: a process that cannot be started, times out, produces
// an empty success response or unparseable output is a transport error; a
// process that runs and reports failure (non-zero exit, or success=false in
// the envelope) is a collaborator failure carrying its error text verbatim.
func (g *ExecGateway) invoke(ctx context.Context, operation string, args ...string) (*gv.GatewayResponse, error) {
	cmd := exec.CommandContext(ctx, g.binaryPath, append([]string{operation}, args...)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %s: %v", gv.ErrTransport, operation, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: %s: %s", gv.ErrCollaborator, operation,
				strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("%w: starting %s: %v", gv.ErrTransport, operation, err)
	}

	out := bytes.TrimSpace(stdout.Bytes())
	if len(out) == 0 {
		// A silent success is ambiguous; treat it as unreachable.
		return nil, fmt.Errorf("%w: %s: collaborator returned empty response (stderr: %s)",
			gv.ErrTransport, operation, strings.TrimSpace(stderr.String()))
	}

	var resp gv.GatewayResponse
	if err := json.Unmarshal(out, &resp); err != nil {
		return nil, fmt.Errorf("%w: %s: unparseable collaborator response: %v", gv.ErrTransport, operation, err)
	}

	if !resp.Success {
		reason := resp.Error
		if reason == "" {
			reason = "unknown error"
		}
		return nil, fmt.Errorf("%w: %s: %s", gv.ErrCollaborator, operation, reason)
	}

	return &resp, nil
}
