package cli

import (
	"fmt"

	"github.com/soyeahso/backoffice/internal/config"
	"github.com/soyeahso/backoffice/internal/logging"
	"github.com/spf13/cobra"
)

// Persistent flags and the state PersistentPreRunE derives from them.
var (
	cfgFile  string
	logLevel string
	output   string

	paths config.Paths
	log   *logging.Logger
)

const defaultCLILogLevel = "warn"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backoffice",
		Short: "Back-office administration of modules, hooks and coupons",
		Long: "backoffice manages which module listeners are bound to which hooks, " +
			"keeps the listener cache in sync and serves the admin API.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}
			switch output {
			case "text", "yaml", "json":
			default:
				return fmt.Errorf("unknown output format %q (want text, yaml or json)", output)
			}
			level := logLevel
			if level == "" {
				level = defaultCLILogLevel
			}
			log = logging.New(nil, level)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.backoffice/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")
	cmd.PersistentFlags().StringVarP(&output, "output", "o", "text", "output format (text, yaml, json)")

	cmd.AddCommand(
		newServeCmd(),
		newWatchCmd(),
		newModuleCmd(),
		newHookCmd(),
		newModuleHookCmd(),
		newCouponCmd(),
		newConfigCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return cmd
}

// Execute runs the command line in os.Args.
func Execute() error {
	return newRootCmd().Execute()
}
