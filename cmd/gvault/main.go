package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gvault/internal/app"
	"gvault/internal/config"
	"gvault/internal/gv"
	"gvault/internal/store"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a GVApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Ingest", "Backup").
func newApp(cmd *cobra.Command, operation string) (*app.GVApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewGVApp(cmd.Context(), cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// readPassword prompts on stderr and reads a password from the terminal
// without echo.
func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

func parseAssetID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid asset id %q", arg)
	}
	return id, nil
}

var rootCmd = &cobra.Command{
	Use:   "gvault",
	Short: "Encrypted file vault",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["vault_root"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Vault Root: %s\n", defaults["vault_root"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Vault Root: %s\n", cfg.VaultRoot)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Gateway:    %s\n", cfg.Gateway.Type)
		fmt.Printf("Backup:     %s\n", cfg.Backup.Type)
		return nil
	},
}

// vault command
var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Manage the vault",
}

var vaultInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("getting defaults: %w", err)
		}
		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}

		// Opening the app below creates the database, so check first.
		if store.VaultExists(cfg.VaultRoot) {
			fmt.Printf("Using existing vault at %s\n", cfg.VaultRoot)
		}

		a, err := app.NewGVApp(cmd.Context(), cfg, "InitializeVault")
		if err != nil {
			return fmt.Errorf("initializing app: %w", err)
		}
		defer a.Close()

		pw, err := readPassword("Vault password: ")
		if err != nil {
			return err
		}
		confirm, err := readPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if pw != confirm {
			return fmt.Errorf("passwords do not match")
		}

		if err := a.Service().InitializeVault(cmd.Context(), pw); err != nil {
			return fmt.Errorf("initializing vault: %w", err)
		}

		fmt.Println("Vault initialized.")
		return nil
	},
}

var vaultUnlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Unlock the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "UnlockVault")
		if err != nil {
			return err
		}
		defer a.Close()

		pw, err := readPassword("Vault password: ")
		if err != nil {
			return err
		}

		if err := a.Service().UnlockVault(cmd.Context(), pw); err != nil {
			return fmt.Errorf("unlocking vault: %w", err)
		}

		fmt.Println("Vault unlocked.")
		return nil
	},
}

var vaultLockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Lock the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "LockVault")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service().LockVault(cmd.Context()); err != nil {
			return fmt.Errorf("locking vault: %w", err)
		}

		fmt.Println("Vault locked.")
		return nil
	},
}

// add command
var addCmd = &cobra.Command{
	Use:   "add PATH",
	Short: "Encrypt a file and add it to the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Ingest")
		if err != nil {
			return err
		}
		defer a.Close()

		absPath, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}

		pw, err := readPassword("Vault password: ")
		if err != nil {
			return err
		}

		id, err := a.Service().Ingest(cmd.Context(), absPath, pw)
		if err != nil {
			return fmt.Errorf("adding file: %w", err)
		}

		fmt.Printf("Added asset #%d\n", id)
		return nil
	},
}

// list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List active assets",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "ListAssets")
		if err != nil {
			return err
		}
		defer a.Close()

		assets, err := a.Service().ListAssets()
		if err != nil {
			return err
		}

		if len(assets) == 0 {
			fmt.Println("No assets in vault.")
			return nil
		}

		for _, as := range assets {
			fmt.Printf("#%d  %s  %d  %s\n",
				as.ID,
				as.ContentHash[:12],
				as.SizeBytes,
				as.CreatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		return nil
	},
}

// get command
var getCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Show asset details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		byHash, _ := cmd.Flags().GetBool("hash")

		a, err := newApp(cmd, "GetAsset")
		if err != nil {
			return err
		}
		defer a.Close()

		var asset *gv.Asset
		if byHash {
			asset, err = a.Service().GetAssetByHash(args[0])
		} else {
			var id int64
			id, err = parseAssetID(args[0])
			if err != nil {
				return err
			}
			asset, err = a.Service().GetAsset(id)
		}
		if err != nil {
			return err
		}

		fmt.Printf("ID:           %d\n", asset.ID)
		fmt.Printf("Content Hash: %s\n", asset.ContentHash)
		fmt.Printf("Name:         %s\n", asset.EncryptedName)
		fmt.Printf("Storage Path: %s\n", asset.StoragePath)
		fmt.Printf("Size:         %d\n", asset.SizeBytes)
		fmt.Printf("Created:      %s\n", asset.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Updated:      %s\n", asset.UpdatedAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

// delete command
var deleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Remove an asset from the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "DeleteAsset")
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := parseAssetID(args[0])
		if err != nil {
			return err
		}

		if err := a.Service().DeleteAsset(id); err != nil {
			return fmt.Errorf("deleting asset: %w", err)
		}

		fmt.Printf("Deleted asset #%d\n", id)
		return nil
	},
}

// tag command
var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Manage asset tags",
}

var tagAddCmd = &cobra.Command{
	Use:   "add ID NAME",
	Short: "Tag an asset",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")

		a, err := newApp(cmd, "AddTag")
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := parseAssetID(args[0])
		if err != nil {
			return err
		}

		tagID, err := a.Service().AddTag(id, args[1], kind)
		if err != nil {
			return fmt.Errorf("adding tag: %w", err)
		}

		fmt.Printf("Added tag #%d to asset #%d\n", tagID, id)
		return nil
	},
}

var tagListCmd = &cobra.Command{
	Use:   "list ID",
	Short: "List an asset's tags",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "ListTags")
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := parseAssetID(args[0])
		if err != nil {
			return err
		}

		tags, err := a.Service().ListTags(id)
		if err != nil {
			return err
		}

		if len(tags) == 0 {
			fmt.Println("No tags.")
			return nil
		}

		for _, t := range tags {
			kind := t.Kind
			if kind == "" {
				kind = "-"
			}
			fmt.Printf("#%d  %-20s  %s\n", t.ID, t.Name, kind)
		}
		return nil
	},
}

// note command
var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage asset annotations",
}

var noteAddCmd = &cobra.Command{
	Use:   "add ID TEXT",
	Short: "Annotate an asset",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "AddAnnotation")
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := parseAssetID(args[0])
		if err != nil {
			return err
		}

		noteID, err := a.Service().AddAnnotation(id, args[1])
		if err != nil {
			return fmt.Errorf("adding annotation: %w", err)
		}

		fmt.Printf("Added annotation #%d to asset #%d\n", noteID, id)
		return nil
	},
}

var noteListCmd = &cobra.Command{
	Use:   "list ID",
	Short: "List an asset's annotations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "ListAnnotations")
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := parseAssetID(args[0])
		if err != nil {
			return err
		}

		notes, err := a.Service().ListAnnotations(id)
		if err != nil {
			return err
		}

		if len(notes) == 0 {
			fmt.Println("No annotations.")
			return nil
		}

		for _, n := range notes {
			fmt.Printf("#%d  %s  %s\n", n.ID, n.CreatedAt.Format("2006-01-02 15:04:05"), n.Note)
		}
		return nil
	},
}

// meta command
var metaCmd = &cobra.Command{
	Use:   "meta",
	Short: "Manage vault settings",
}

var metaSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a vault setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "SetSetting")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service().SetSetting(args[0], args[1]); err != nil {
			return fmt.Errorf("setting %q: %w", args[0], err)
		}

		fmt.Printf("Set %s\n", args[0])
		return nil
	},
}

var metaGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Read a vault setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "GetSetting")
		if err != nil {
			return err
		}
		defer a.Close()

		value, err := a.Service().GetSetting(args[0])
		if err != nil {
			return err
		}

		fmt.Println(value)
		return nil
	},
}

// info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show vault status",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Info")
		if err != nil {
			return err
		}
		defer a.Close()

		info, err := a.Service().Info()
		if err != nil {
			return err
		}

		fmt.Printf("Vault ID:       %s\n", info.VaultID)
		fmt.Printf("Created:        %s\n", info.CreatedAt)
		fmt.Printf("Schema Version: %s\n", info.SchemaVersion)
		fmt.Printf("Active Assets:  %d\n", info.ActiveAssets)
		fmt.Printf("Status:         %s\n", info.Status)
		return nil
	},
}

// encrypt command
var encryptCmd = &cobra.Command{
	Use:   "encrypt PATH",
	Short: "Encrypt a file without cataloging it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "EncryptFile")
		if err != nil {
			return err
		}
		defer a.Close()

		absPath, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}

		pw, err := readPassword("Vault password: ")
		if err != nil {
			return err
		}

		encPath, err := a.Service().EncryptFile(cmd.Context(), absPath, pw)
		if err != nil {
			return fmt.Errorf("encrypting: %w", err)
		}

		fmt.Printf("Encrypted to %s\n", encPath)
		return nil
	},
}

// decrypt command
var decryptCmd = &cobra.Command{
	Use:   "decrypt ENCRYPTED_PATH OUTPUT_PATH",
	Short: "Decrypt a vault file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "DecryptFile")
		if err != nil {
			return err
		}
		defer a.Close()

		pw, err := readPassword("Vault password: ")
		if err != nil {
			return err
		}

		if err := a.Service().DecryptFile(cmd.Context(), args[0], pw, args[1]); err != nil {
			return fmt.Errorf("decrypting: %w", err)
		}

		fmt.Printf("Decrypted to %s\n", args[1])
		return nil
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot the vault database to the backup target",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Backup")
		if err != nil {
			return err
		}
		defer a.Close()

		name, err := a.Service().Backup(cmd.Context())
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}

		fmt.Printf("Backed up database as %s\n", name)
		return nil
	},
}

// audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "View the vault audit log",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd, "Audit")
		if err != nil {
			return err
		}
		defer a.Close()

		events, err := a.Service().Audit(limit)
		if err != nil {
			return err
		}

		if len(events) == 0 {
			fmt.Println("No audit events recorded.")
			return nil
		}

		for _, e := range events {
			details := ""
			if e.Details != "" {
				details = "  " + e.Details
			}
			fmt.Printf("#%d  %s  %-16s  %-8s%s\n",
				e.ID,
				e.Timestamp.Format("2006-01-02 15:04:05"),
				e.EventType,
				e.Status,
				details,
			)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	vaultCmd.AddCommand(vaultInitCmd)
	vaultCmd.AddCommand(vaultUnlockCmd)
	vaultCmd.AddCommand(vaultLockCmd)

	tagCmd.AddCommand(tagAddCmd)
	tagCmd.AddCommand(tagListCmd)
	tagAddCmd.Flags().String("kind", "", "Tag kind (e.g. category, label)")

	noteCmd.AddCommand(noteAddCmd)
	noteCmd.AddCommand(noteListCmd)

	metaCmd.AddCommand(metaSetCmd)
	metaCmd.AddCommand(metaGetCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(vaultCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().Bool("hash", false, "Look up by content hash instead of id")
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(noteCmd)
	rootCmd.AddCommand(metaCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(encryptCmd)
	rootCmd.AddCommand(decryptCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().IntP("limit", "n", 50, "Maximum number of events to show")
}
