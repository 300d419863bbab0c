package cli

import (
	"fmt"
	"io"

	"github.com/soyeahso/backoffice/internal/admin"
	"github.com/soyeahso/backoffice/internal/domain"
	"github.com/soyeahso/backoffice/internal/store"
	"github.com/spf13/cobra"
)

func newModuleHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "module-hook",
		Aliases: []string{"mh"},
		Short:   "Manage bindings of module listeners to hooks",
	}

	cmd.AddCommand(newModuleHookListCmd())
	cmd.AddCommand(newModuleHookCreateCmd())
	cmd.AddCommand(newModuleHookUpdateCmd())
	cmd.AddCommand(newModuleHookDeleteCmd())
	cmd.AddCommand(newModuleHookToggleCmd())
	cmd.AddCommand(newModuleHookPositionCmd())
	return cmd
}

func printModuleHooks(list []domain.ModuleHook) error {
	return render(list, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tMODULE\tHOOK\tPOS\tCLASSNAME\tMETHOD\tACTIVE\tMODULE ACTIVE\tHOOK ACTIVE")
		for _, mh := range list {
			fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
				mh.ID, mh.ModuleID, mh.HookID, mh.Position, mh.Classname, mh.Method,
				yesNo(mh.Active), yesNo(mh.ModuleActive), yesNo(mh.HookActive))
		}
	})
}

func newModuleHookListCmd() *cobra.Command {
	var moduleRef, hookRef string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List module hooks, ordered by hook and position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				ctx := cmd.Context()
				var f store.Filter
				if moduleRef != "" {
					m, err := a.admin.ModuleByRef(ctx, moduleRef)
					if err != nil {
						return err
					}
					f.ModuleID = m.ID
				}
				if hookRef != "" {
					h, err := a.admin.HookByRef(ctx, hookRef)
					if err != nil {
						return err
					}
					f.HookID = h.ID
				}
				list, err := a.admin.ListModuleHooks(ctx, f)
				if err != nil {
					return err
				}
				return printModuleHooks(list)
			})
		},
	}

	cmd.Flags().StringVar(&moduleRef, "module", "", "only bindings of this module (id or code)")
	cmd.Flags().StringVar(&hookRef, "hook", "", "only bindings on this hook (id or code)")
	return cmd
}

func newModuleHookCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <module> <hook> <classname> <method>",
		Short: "Bind a module listener to a hook (created inactive)",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				ctx := cmd.Context()
				m, err := a.admin.ModuleByRef(ctx, args[0])
				if err != nil {
					return err
				}
				h, err := a.admin.HookByRef(ctx, args[1])
				if err != nil {
					return err
				}
				mh, err := a.admin.CreateModuleHook(ctx, admin.ModuleHookInput{
					ModuleID:  m.ID,
					HookID:    h.ID,
					Classname: args[2],
					Method:    args[3],
				})
				if err != nil {
					return err
				}
				return printModuleHooks([]domain.ModuleHook{*mh})
			})
		},
	}
}

func newModuleHookUpdateCmd() *cobra.Command {
	var (
		moduleRef, hookRef string
		classname, method  string
		active             bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a module hook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(func(a *app) error {
				ctx := cmd.Context()
				var p admin.ModuleHookPatch
				if moduleRef != "" {
					m, err := a.admin.ModuleByRef(ctx, moduleRef)
					if err != nil {
						return err
					}
					p.ModuleID = &m.ID
				}
				if hookRef != "" {
					h, err := a.admin.HookByRef(ctx, hookRef)
					if err != nil {
						return err
					}
					p.HookID = &h.ID
				}
				flags := cmd.Flags()
				if flags.Changed("classname") {
					p.Classname = &classname
				}
				if flags.Changed("method") {
					p.Method = &method
				}
				if flags.Changed("active") {
					p.Active = &active
				}

				mh, err := a.admin.UpdateModuleHook(ctx, id, p)
				if err != nil {
					return err
				}
				return printModuleHooks([]domain.ModuleHook{*mh})
			})
		},
	}

	cmd.Flags().StringVar(&moduleRef, "module", "", "move the binding to this module (id or code)")
	cmd.Flags().StringVar(&hookRef, "hook", "", "move the binding to this hook (id or code)")
	cmd.Flags().StringVar(&classname, "classname", "", "listener class name")
	cmd.Flags().StringVar(&method, "method", "", "listener method")
	cmd.Flags().BoolVar(&active, "active", false, "binding activation flag")
	return cmd
}

func newModuleHookDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a module hook; module sync will not recreate it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(func(a *app) error {
				mh, err := a.admin.DeleteModuleHook(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Printf("Deleted module hook %d (%s::%s)\n", mh.ID, mh.Classname, mh.Method)
				return nil
			})
		},
	}
}

func newModuleHookToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Activate or deactivate a module hook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(func(a *app) error {
				mh, err := a.admin.ToggleModuleHook(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printModuleHooks([]domain.ModuleHook{*mh})
			})
		},
	}
}

func newModuleHookPositionCmd() *cobra.Command {
	var position int

	cmd := &cobra.Command{
		Use:   "position <id> <up|down|absolute>",
		Short: "Move a module hook within its hook",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(func(a *app) error {
				mh, err := a.admin.MoveModuleHook(cmd.Context(), id, args[1], position)
				if err != nil {
					return err
				}
				return printModuleHooks([]domain.ModuleHook{*mh})
			})
		},
	}

	cmd.Flags().IntVar(&position, "position", 0, "target position in absolute mode")
	return cmd
}
