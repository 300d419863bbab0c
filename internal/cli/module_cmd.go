package cli

import (
	"fmt"
	"io"

	"github.com/soyeahso/backoffice/internal/admin"
	"github.com/soyeahso/backoffice/internal/domain"
	"github.com/spf13/cobra"
)

func newModuleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "module",
		Short: "Manage modules",
	}

	cmd.AddCommand(newModuleListCmd())
	cmd.AddCommand(newModuleAddCmd())
	cmd.AddCommand(newModuleToggleCmd())
	cmd.AddCommand(newModuleDeleteCmd())
	return cmd
}

func printModules(list []domain.Module) error {
	return render(list, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tCODE\tTITLE\tVERSION\tACTIVE")
		for _, m := range list {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", m.ID, m.Code, m.Title, m.Version, yesNo(m.Active))
		}
	})
}

func newModuleListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				list, err := a.admin.ListModules(cmd.Context())
				if err != nil {
					return err
				}
				return printModules(list)
			})
		},
	}
}

func newModuleAddCmd() *cobra.Command {
	var in admin.ModuleInput

	cmd := &cobra.Command{
		Use:   "add <code>",
		Short: "Register a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Code = args[0]
			return withApp(func(a *app) error {
				m, err := a.admin.CreateModule(cmd.Context(), in)
				if err != nil {
					return err
				}
				return printModules([]domain.Module{*m})
			})
		},
	}

	cmd.Flags().StringVar(&in.Title, "title", "", "display title (defaults to the code)")
	cmd.Flags().StringVar(&in.Version, "version", "", "module version")
	cmd.Flags().BoolVar(&in.Active, "active", false, "create the module active")
	return cmd
}

func newModuleToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id|code>",
		Short: "Activate or deactivate a module and its hook bindings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				m, err := a.admin.ModuleByRef(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				m, err = a.admin.ToggleModule(cmd.Context(), m.ID)
				if err != nil {
					return err
				}
				return printModules([]domain.Module{*m})
			})
		},
	}
}

func newModuleDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id|code>",
		Short: "Delete a module and all its hook bindings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				m, err := a.admin.ModuleByRef(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := a.admin.DeleteModule(cmd.Context(), m.ID); err != nil {
					return err
				}
				fmt.Printf("Deleted module %s\n", m.Code)
				return nil
			})
		},
	}
}
