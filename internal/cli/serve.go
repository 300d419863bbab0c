package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/soyeahso/backoffice/internal/config"
	"github.com/soyeahso/backoffice/internal/gateway"
	"github.com/soyeahso/backoffice/internal/logging"
	"github.com/soyeahso/backoffice/internal/plugin"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port   int
		bind   string
		noSync bool
	)

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"gateway"},
		Short:   "Start the admin gateway server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if logLevel == "" {
				closeLog, err := openLogFromConfig()
				if err != nil {
					return err
				}
				defer closeLog()
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			cfg := a.cfg
			if port != 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}

			// Raw config backs config.get / config.set over RPC
			raw, err := config.LoadRaw(paths.Config)
			if err != nil {
				raw = make(map[string]any)
			}

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			plugins := plugin.NewRegistry(a.admin.Events(), a.admin.Store(), log)
			for _, entry := range cfg.Modules {
				if err := plugins.Register(plugin.FromConfig(entry)); err != nil {
					return err
				}
			}
			if err := plugins.InitAll(ctx); err != nil {
				return fmt.Errorf("initializing modules: %w", err)
			}
			defer plugins.CloseAll()

			if !noSync {
				if _, err := plugins.Sync(ctx); err != nil {
					return fmt.Errorf("syncing module hooks: %w", err)
				}
			}

			srv := gateway.New(cfg, log,
				gateway.WithConfigRaw(raw),
				gateway.WithAdmin(a.admin),
			)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override gateway port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (auto, lan, loopback, custom)")
	cmd.Flags().BoolVar(&noSync, "no-sync", false, "do not bind declared module listeners on start")

	return cmd
}

// openLogFromConfig replaces the root logger with one built from the
// logging section of the config file.
func openLogFromConfig() (func() error, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return nil, err
	}
	file := cfg.Logging.File
	if file != "" && !filepath.IsAbs(file) {
		file = filepath.Join(paths.Logs, file)
	}
	root, closeLog, err := logging.Open(logging.Options{
		Level: cfg.Logging.Level,
		Style: cfg.Logging.ConsoleStyle,
		File:  file,
	})
	if err != nil {
		return nil, err
	}
	log = root
	return closeLog, nil
}
