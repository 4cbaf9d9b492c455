package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"budgetreport/internal/cli"
	"budgetreport/internal/core"
)

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived report runs",
		Long: `List archived report runs, newest first.

Requires ARCHIVE_DB_PATH.

Example:
  budget-report history --limit 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := cli.OpenArchive(root.logger, root.cfg.ArchiveDBPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			runs, err := repo.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs archived yet.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tGENERATED\tOUTPUT\tROWS\tBUDGET\tACTUAL\tVARIANCE\tINVARIANTS")
			for _, r := range runs {
				status := "PASS"
				if !r.InvariantsOK {
					status = "FAIL " + strings.Join(r.FailedRollups, ",")
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
					r.ID, r.GeneratedAt.Local().Format(time.DateTime), r.OutputPath, r.JoinedRows,
					core.FormatAmount(r.BudgetTotal), core.FormatAmount(r.ActualTotal), core.FormatAmount(r.VarianceTotal),
					status)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs to show (0 for all)")
	return cmd
}
