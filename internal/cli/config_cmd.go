package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/soyeahso/backoffice/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// restartKeys are read once by serve.
var restartKeys = []string{"gateway", "database", "modules"}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and edit config.yaml",
		Long: `Keys are dotted paths into config.yaml, e.g. gateway.port or
i18n.locale. Values given to set are parsed as YAML, so 8080 is a number,
true is a boolean and [a, b] is a list.`,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print a configuration value",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				path, raw, err := loadKey(args[0])
				if err != nil {
					return err
				}
				val, ok := config.GetValueAtPath(raw, path)
				if !ok {
					return fmt.Errorf("key %q not found", args[0])
				}
				return render(val, func(w io.Writer) { printValue(w, val) })
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Set a configuration value",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				value := parseValue(args[1])
				err := editKey(args[0], func(raw map[string]any, path []string) error {
					config.SetValueAtPath(raw, path, value)
					return nil
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Set %s = %v\n", args[0], value)
				if isRestartKey(args[0]) {
					fmt.Fprintln(out, "Restart the server for this change to take effect.")
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "unset <key>",
			Short: "Remove a configuration value",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				err := editKey(args[0], func(raw map[string]any, path []string) error {
					if !config.UnsetValueAtPath(raw, path) {
						return fmt.Errorf("key %q not found", args[0])
					}
					return nil
				})
				if err == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", args[0])
				}
				return err
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), paths.Config)
			},
		},
	)
	return cmd
}

func loadKey(key string) ([]string, map[string]any, error) {
	path, err := config.ParseConfigPath(key)
	if err != nil {
		return nil, nil, err
	}
	raw, err := config.LoadRaw(paths.Config)
	if err != nil {
		return nil, nil, err
	}
	return path, raw, nil
}

// editKey loads the raw config, applies fn at key and saves the result.
func editKey(key string, fn func(raw map[string]any, path []string) error) error {
	path, raw, err := loadKey(key)
	if err != nil {
		return err
	}
	if err := fn(raw, path); err != nil {
		return err
	}
	return config.SaveRaw(paths.Config, raw)
}

func printValue(w io.Writer, v any) {
	switch v.(type) {
	case map[string]any, []any:
		data, err := yaml.Marshal(v)
		if err != nil {
			fmt.Fprintln(w, v)
			return
		}
		fmt.Fprint(w, string(data))
	default:
		fmt.Fprintln(w, v)
	}
}

// parseValue decodes s as a YAML scalar or collection. Anything that does
// not decode, and null, is kept as the literal string.
func parseValue(s string) any {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil || v == nil {
		return s
	}
	return v
}

func isRestartKey(key string) bool {
	for _, prefix := range restartKeys {
		if key == prefix || strings.HasPrefix(key, prefix+".") {
			return true
		}
	}
	return false
}
