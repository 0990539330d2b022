package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd(s *session) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show finished phases, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			phases, err := s.client.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if s.asJSON {
				return s.printJSON(cmd, phases)
			}
			if len(phases) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No phases recorded yet.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ENDED\tPHASE\tCYCLE\tTIME\tSTATUS")
			for _, p := range phases {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s/%s\t%s\n",
					p.EndedAt.Local().Format(time.DateTime),
					p.SessionType,
					p.Cycle,
					formatClock(p.ActualSeconds),
					formatClock(p.PlannedSeconds),
					p.Status,
				)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of phases to show")
	return cmd
}
