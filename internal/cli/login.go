package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLoginCmd(s *session) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "login <password>",
		Short: "Exchange the daemon's access password for a token",
		Long: `Exchange the daemon's access password for a bearer token.

With --save the token is written to the config file so later commands
pick it up without --token.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := s.client.Login(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			if s.asJSON {
				return s.printJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			if !save {
				fmt.Fprintln(out, result.Token)
				return nil
			}
			path, err := s.saveToken(result.Token)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Token saved to %s (expires %s)\n", path, result.ExpiresAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "store the token in the config file")
	return cmd
}
