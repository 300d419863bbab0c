package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/soyeahso/backoffice/internal/config"
	"github.com/soyeahso/backoffice/internal/store"
	"github.com/soyeahso/backoffice/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show backoffice status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("backoffice %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Printf("Config:   %s\n", paths.Config)
			fmt.Printf("Data:     %s\n", paths.Data)
			fmt.Printf("Logs:     %s\n", paths.Logs)
			fmt.Println()

			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Printf("Config:   error loading: %v\n", err)
				return nil
			}
			if _, err := os.Stat(paths.Config); os.IsNotExist(err) {
				fmt.Println("Config:   not found (using defaults)")
			}

			fmt.Printf("Gateway:  port=%d bind=%s auth=%s tls=%v\n",
				cfg.Gateway.Port, cfg.Gateway.Bind, cfg.Gateway.Auth.Mode, cfg.Gateway.TLS.Enabled)
			fmt.Printf("Locale:   %s\n", cfg.I18n.Locale)
			fmt.Printf("Cache:    %s\n", paths.CacheDir(cfg))

			dbPath := paths.DatabasePath(cfg)
			if _, err := os.Stat(dbPath); err != nil {
				fmt.Printf("Database: %s (not created yet)\n", dbPath)
			} else if err := printCounts(cmd.Context(), dbPath); err != nil {
				fmt.Printf("Database: %s (error: %v)\n", dbPath, err)
			}

			if len(cfg.Modules) > 0 {
				fmt.Printf("Declared: %d module(s)\n", len(cfg.Modules))
				for _, m := range cfg.Modules {
					fmt.Printf("  - %s (%d listener(s))\n", m.Code, len(m.Listeners))
				}
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Printf("\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Printf("  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	return cmd
}

func printCounts(ctx context.Context, dbPath string) error {
	db, err := store.Open(dbPath, log)
	if err != nil {
		return err
	}
	defer db.Close()
	st := store.New(db)

	modules, err := st.Modules.List(ctx)
	if err != nil {
		return err
	}
	hooks, err := st.Hooks.List(ctx)
	if err != nil {
		return err
	}
	bindings, err := st.ModuleHooks.List(ctx, store.Filter{})
	if err != nil {
		return err
	}
	schema, err := db.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	active := 0
	for _, mh := range bindings {
		if mh.Active && mh.ModuleActive && mh.HookActive {
			active++
		}
	}
	fmt.Printf("Database: %s (schema v%d)\n", dbPath, schema)
	fmt.Printf("          modules=%d hooks=%d module-hooks=%d (enabled %d)\n",
		len(modules), len(hooks), len(bindings), active)
	return nil
}
