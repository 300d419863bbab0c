package cli

import (
	"fmt"
	"io"

	"github.com/soyeahso/backoffice/internal/version"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b := version.Current()
			return render(b, func(w io.Writer) { fmt.Fprintln(w, b) })
		},
	}
}
