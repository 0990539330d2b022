package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newDeckCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deck",
		Short: "Inspect and configure the per-phase decks",
	}
	cmd.AddCommand(newDeckListCmd(s), newDeckSetCmd(s))
	return cmd
}

func newDeckListCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every deck with its source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := s.client.State(cmd.Context())
			if err != nil {
				return err
			}
			if s.asJSON {
				return s.printJSON(cmd, view.Decks)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DECK\tSOURCE\tTRACK/URL\tSTATE")
			for _, d := range view.Decks {
				state := "-"
				switch {
				case d.URLError != nil:
					state = *d.URLError
				case d.Active:
					state = "active"
				case d.Created:
					state = "ready"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.SessionType, d.SourceKind, deckSource(d), state)
			}
			return tw.Flush()
		},
	}
}

func newDeckSetCmd(s *session) *cobra.Command {
	var url, source, track string

	cmd := &cobra.Command{
		Use:   "set <work|shortBreak|longBreak>",
		Short: "Change a deck's source, URL or library track",
		Long: `Change a deck's source, URL or library track. The source switch is
applied first, so one call can move a deck to the library and pick a track.

Examples:
  pomoctl deck set work --url https://youtu.be/dQw4w9WgXcQ
  pomoctl deck set longBreak --source library --track jazz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch DeckPatch
			flags := cmd.Flags()
			if flags.Changed("source") {
				patch.Source = &source
			}
			if flags.Changed("url") {
				patch.URL = &url
			}
			if flags.Changed("track") {
				patch.LibraryTrackID = &track
			}
			if patch == (DeckPatch{}) {
				return errors.New("nothing to change: pass --url, --source or --track")
			}

			deck, err := s.client.UpdateDeck(cmd.Context(), args[0], patch)
			if err != nil {
				return fmt.Errorf("updating deck %s: %w", args[0], err)
			}
			if s.asJSON {
				return s.printJSON(cmd, deck)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s %s\n", deck.SessionType, deck.SourceKind, deckSource(*deck))
			if deck.URLError != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "  ! %s\n", *deck.URLError)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "YouTube URL or video id (empty clears)")
	cmd.Flags().StringVar(&source, "source", "", "source kind: youtube or library")
	cmd.Flags().StringVar(&track, "track", "", "library track id")
	return cmd
}

func newTracksCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "tracks",
		Short: "List the built-in library tracks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tracks, err := s.client.Tracks(cmd.Context())
			if err != nil {
				return err
			}
			if s.asJSON {
				return s.printJSON(cmd, tracks)
			}
			for _, t := range tracks {
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", t.ID, t.Label)
			}
			return nil
		},
	}
}
