package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAlarmCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:       "alarm <on|off>",
		Short:     "Turn the end-of-phase alarm on or off",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := s.client.SetAlarm(cmd.Context(), args[0] == "on")
			if err != nil {
				return err
			}
			if s.asJSON {
				return s.printJSON(cmd, view)
			}
			state := "off"
			if view.AlarmEnabled {
				state = "on"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "alarm: %s\n", state)
			return nil
		},
	}
}
