package gateway

import (
	"fmt"

	"gvault/internal/config"
	"gvault/internal/gv"
)

// NewGatewayFromConfig creates a Gateway based on the configuration type.
func NewGatewayFromConfig(cfg config.GatewayConfig, vaultRoot string) (gv.Gateway, error) {
	switch cfg.Type {
	case "age", "":
		return NewAgeGateway(vaultRoot), nil
	case "exec":
		if cfg.BinaryPath == "" {
			return nil, fmt.Errorf("exec gateway requires binary_path to be set")
		}
		return NewExecGateway(cfg.BinaryPath, vaultRoot), nil
	case "test":
		return NewTestGateway(), nil
	default:
		return nil, fmt.Errorf("unknown gateway type: %q", cfg.Type)
	}
}
