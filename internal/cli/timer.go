package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"pomodisc/backend/internal/model"
)

func newStatusCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the timer, decks and alarm",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := s.client.State(cmd.Context())
			if err != nil {
				return err
			}
			return s.printView(cmd, view)
		},
	}
}

func newActionCmd(s *session, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := s.client.Action(cmd.Context(), action)
			if err != nil {
				return fmt.Errorf("%s: %w", action, err)
			}
			return s.printView(cmd, view)
		},
	}
}

func newWatchCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow timer changes as they happen",
		Long: `Follow the daemon's state stream and print one line per change.
Stops when the daemon closes the stream or on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.client.Watch(cmd.Context(), func(view StateView) error {
				if s.asJSON {
					return s.printJSON(cmd, view)
				}
				fmt.Fprintln(cmd.OutOrStdout(), timerLine(view.State))
				return nil
			})
		},
	}
}

func newClearErrorCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-error",
		Short: "Dismiss the latched player error",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := s.client.ClearPlayerError(cmd.Context())
			if err != nil {
				return err
			}
			return s.printView(cmd, view)
		},
	}
}

func (s *session) printView(cmd *cobra.Command, view *StateView) error {
	if s.asJSON {
		return s.printJSON(cmd, view)
	}
	writeView(cmd.OutOrStdout(), view)
	return nil
}

func writeView(w io.Writer, view *StateView) {
	fmt.Fprintln(w, timerLine(view.State))
	fmt.Fprintf(w, "durations: work %dm, short break %dm", view.State.WorkMinutes, view.State.ShortBreakMinutes)
	if view.State.ThreePhase {
		fmt.Fprintf(w, ", long break %dm every %d", view.State.LongBreakMinutes, view.State.LongBreakInterval)
	}
	fmt.Fprintln(w)

	for _, d := range view.Decks {
		marker := " "
		if d.Active {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-10s %-8s %s\n", marker, d.SessionType, d.SourceKind, deckSource(d))
		if d.URLError != nil {
			fmt.Fprintf(w, "    ! %s\n", *d.URLError)
		}
	}

	alarm := "off"
	if view.AlarmEnabled {
		alarm = "on"
	}
	fmt.Fprintf(w, "alarm: %s\n", alarm)
	if view.PlayerError != nil {
		fmt.Fprintf(w, "player error: %s\n", *view.PlayerError)
	}
}

func timerLine(st model.TimerState) string {
	if st.IsComplete {
		return fmt.Sprintf("complete (%d cycles)", st.TotalCycles)
	}
	return fmt.Sprintf("%s %s %s  cycle %d/%d",
		st.SessionType, st.Status, formatClock(st.RemainingSeconds), st.CurrentCycle, st.TotalCycles)
}

func deckSource(d model.DeckView) string {
	if d.SourceKind == model.SourceLibrary {
		return d.LibraryTrackID
	}
	if d.URL == "" {
		return "(no url)"
	}
	return d.URL
}

// formatClock renders seconds as MM:SS.
func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
