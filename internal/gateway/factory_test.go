package gateway

import (
	"testing"

	"gvault/internal/config"
)

func TestNewGatewayFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.GatewayConfig
		wantErr bool
		wantNil bool
	}{
		{
			name:    "age gateway",
			cfg:     config.GatewayConfig{Type: "age"},
			wantErr: false,
			wantNil: false,
		},
		{
			name:    "empty type defaults to age",
			cfg:     config.GatewayConfig{},
			wantErr: false,
			wantNil: false,
		},
		{
			name: "exec gateway with binary path",
			cfg: config.GatewayConfig{
				Type:       "exec",
				BinaryPath: "/usr/local/bin/gvault-cryptd",
			},
			wantErr: false,
			wantNil: false,
		},
		{
			name:    "exec gateway without binary path",
			cfg:     config.GatewayConfig{Type: "exec"},
			wantErr: true,
			wantNil: true,
		},
		{
			name:    "test gateway",
			cfg:     config.GatewayConfig{Type: "test"},
			wantErr: false,
			wantNil: false,
		},
		{
			name:    "unknown gateway type",
			cfg:     config.GatewayConfig{Type: "vaporware"},
			wantErr: true,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewGatewayFromConfig(tt.cfg, "/vault/root")

			if (err != nil) != tt.wantErr {
				t.Errorf("NewGatewayFromConfig() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if (got == nil) != tt.wantNil {
				t.Errorf("NewGatewayFromConfig() returned nil = %v, wantNil %v", got == nil, tt.wantNil)
			}
		})
	}
}
