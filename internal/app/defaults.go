package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults resolves the default paths the application falls back to when
// no explicit configuration is given. GVAULT_CONFIG_PATH overrides the
// config location, GVAULT_HOME overrides the vault root.
func GetDefaults() (map[string]string, error) {
	defaults := make(map[string]string)

	if p := os.Getenv("GVAULT_CONFIG_PATH"); p != "" {
		defaults["config_path"] = p
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		defaults["config_path"] = filepath.Join(home, ".config", "gvault.toml")
	}

	if p := os.Getenv("GVAULT_HOME"); p != "" {
		defaults["vault_root"] = p
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		defaults["vault_root"] = filepath.Join(home, ".local", "share", "gvault")
	}

	return defaults, nil
}
