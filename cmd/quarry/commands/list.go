package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := c.app.ListInstalled(cmd.Context())
			if err != nil {
				return err
			}
			for _, rec := range records {
				cmd.Printf("%s@%s\n", rec.Name, rec.Version)
			}
			return nil
		},
	}
}
