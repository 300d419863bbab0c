package cli

import (
	"fmt"
	"io"

	"github.com/soyeahso/backoffice/internal/admin"
	"github.com/soyeahso/backoffice/internal/domain"
	"github.com/spf13/cobra"
)

func newHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Manage hooks",
	}

	cmd.AddCommand(newHookListCmd())
	cmd.AddCommand(newHookAddCmd())
	cmd.AddCommand(newHookToggleCmd())
	cmd.AddCommand(newHookListenersCmd())
	return cmd
}

func printHooks(list []domain.Hook) error {
	return render(list, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tCODE\tTYPE\tTITLE\tACTIVE\tNATIVE\tBLOCK")
		for _, h := range list {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
				h.ID, h.Code, h.Type, h.Title, yesNo(h.Active), yesNo(h.Native), yesNo(h.Block))
		}
	})
}

func newHookListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List hooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				list, err := a.admin.ListHooks(cmd.Context())
				if err != nil {
					return err
				}
				return printHooks(list)
			})
		},
	}
}

func newHookAddCmd() *cobra.Command {
	var (
		in       admin.HookInput
		hookType string
	)

	cmd := &cobra.Command{
		Use:   "add <code>",
		Short: "Declare a hook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Code = args[0]
			in.Type = domain.HookType(hookType)
			return withApp(func(a *app) error {
				h, err := a.admin.CreateHook(cmd.Context(), in)
				if err != nil {
					return err
				}
				return printHooks([]domain.Hook{*h})
			})
		},
	}

	cmd.Flags().StringVar(&hookType, "type", string(domain.HookTypeFront), "hook type (front, back, pdf, email)")
	cmd.Flags().StringVar(&in.Title, "title", "", "display title")
	cmd.Flags().BoolVar(&in.Active, "active", true, "create the hook active")
	cmd.Flags().BoolVar(&in.Native, "native", false, "mark the hook as native")
	cmd.Flags().BoolVar(&in.Block, "block", false, "mark the hook as a block hook")
	return cmd
}

func newHookToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id|code>",
		Short: "Activate or deactivate a hook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				h, err := a.admin.HookByRef(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				h, err = a.admin.ToggleHook(cmd.Context(), h.ID)
				if err != nil {
					return err
				}
				return printHooks([]domain.Hook{*h})
			})
		},
	}
}

func newHookListenersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listeners <code>",
		Short: "Show the enabled listeners of a hook in call order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				list, err := a.admin.HookListeners(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return render(list, func(w io.Writer) {
					fmt.Fprintln(w, "POSITION\tMODULE\tCLASSNAME\tMETHOD")
					for _, l := range list {
						fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", l.Position, l.ModuleCode, l.Classname, l.Method)
					}
				})
			})
		},
	}
}
