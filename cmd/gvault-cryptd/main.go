// gvault-cryptd is the standalone encryption collaborator. It performs one
// operation per invocation and prints a single JSON envelope on stdout:
//
//	{"success": true, "encrypted_path": "...", "data": "...", "error": ""}
//
// Handled failures (wrong password, missing file) are reported in the
// envelope with success=false and exit code 0; only usage errors exit
// non-zero. This is the binary the exec gateway shells out to.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"gvault/internal/gateway"
	"gvault/internal/gv"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gvault-cryptd OPERATION [flags]")
		os.Exit(2)
	}

	operation := os.Args[1]

	flags := flag.NewFlagSet(operation, flag.ExitOnError)
	vaultPath := flags.String("vault-path", "", "vault root directory")
	filePath := flags.String("file-path", "", "file to operate on")
	password := flags.String("password", "", "vault password")
	outputPath := flags.String("output-path", "", "where to write decrypted output")
	if err := flags.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	if *vaultPath == "" {
		fmt.Fprintln(os.Stderr, "gvault-cryptd: --vault-path is required")
		os.Exit(2)
	}

	resp := run(operation, *vaultPath, *filePath, *password, *outputPath)

	enc := json.NewEncoder(os.Stdout)
	if err := enc.Encode(resp); err != nil {
		fmt.Fprintf(os.Stderr, "gvault-cryptd: writing response: %v\n", err)
		os.Exit(1)
	}
}

func run(operation, vaultPath, filePath, password, outputPath string) *gv.GatewayResponse {
	ctx := context.Background()
	g := gateway.NewAgeGateway(vaultPath)

	switch operation {
	case "encrypt_file":
		encPath, err := g.EncryptFile(ctx, filePath, password)
		if err != nil {
			return failure(err)
		}
		return &gv.GatewayResponse{Success: true, EncryptedPath: encPath}

	case "decrypt_file":
		if err := g.DecryptFile(ctx, filePath, password, outputPath); err != nil {
			return failure(err)
		}
		return &gv.GatewayResponse{Success: true, Data: outputPath}

	case "initialize":
		if err := g.InitializeVault(ctx, password); err != nil {
			return failure(err)
		}
		return &gv.GatewayResponse{Success: true}

	case "unlock":
		if err := g.UnlockVault(ctx, password); err != nil {
			return failure(err)
		}
		return &gv.GatewayResponse{Success: true}

	case "lock":
		if err := g.LockVault(ctx); err != nil {
			return failure(err)
		}
		return &gv.GatewayResponse{Success: true}

	default:
		return &gv.GatewayResponse{Success: false, Error: fmt.Sprintf("unknown operation %q", operation)}
	}
}

func failure(err error) *gv.GatewayResponse {
	return &gv.GatewayResponse{Success: false, Error: err.Error()}
}
