package commands

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/quarrypkg/quarry/internal/core/domain"
)

func (c *CLI) newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install [packages...]",
		Short: "Resolve and install packages with their dependencies",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				// Display command usage help without returning an error
				return cmd.Help()
			}

			var failed bool
			for _, name := range args {
				report, err := c.app.Install(cmd.Context(), name)
				if report != nil {
					printReport(cmd, report)
				}
				if err != nil {
					failed = true
					if report == nil {
						return err
					}
				}
			}
			if failed {
				return domain.ErrInstallFailed
			}
			return nil
		},
	}
}

func printReport(cmd *cobra.Command, report *domain.InstallReport) {
	results := report.Results()
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		r := results[name]
		switch {
		case r.Cached:
			cmd.Printf("%s: already installed\n", name)
		case r.Stage == domain.StageInstalled:
			cmd.Printf("%s: installed\n", name)
		case r.Stage == domain.StageBlocked:
			cmd.Printf("%s: blocked by %s\n", name, r.BlockedBy)
		case r.Stage == domain.StageFailed:
			cmd.Printf("%s: failed during %s: %s\n", name, r.FailedAt, errMessage(r.Err))
		default:
			cmd.Printf("%s: %s\n", name, r.Stage)
		}
	}
}

func errMessage(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
