package commands

import (
	"github.com/spf13/cobra"

	"github.com/quarrypkg/quarry/internal/core/domain"
)

func (c *CLI) newResolveCmd() *cobra.Command {
	var version string

	cmd := &cobra.Command{
		Use:   "resolve <package>",
		Short: "Resolve a package's dependency closure without installing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			var res *domain.Resolution
			var err error
			if version != "" {
				res, err = c.app.ResolveVersion(cmd.Context(), name, version)
			} else {
				res, err = c.app.Resolve(cmd.Context(), name)
			}
			if err != nil {
				return err
			}

			// Dependencies print before their dependents, mirroring install
			// order.
			for pkg := range res.Walk() {
				cmd.Println(pkg.Spec.ID())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "Resolve a specific version instead of the newest")
	return cmd
}
