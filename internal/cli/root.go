package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	defaultServer = "http://localhost:8080"
	configName    = ".pomoctl"
	envPrefix     = "POMOCTL"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// session is shared by every subcommand of one invocation.
type session struct {
	configFile string
	asJSON     bool

	v      *viper.Viper
	client *Client
}

// load resolves server and token from flags, POMOCTL_* variables and the
// config file, in that order of precedence.
func (s *session) load(root *cobra.Command) error {
	v := viper.New()
	v.SetDefault("server", defaultServer)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if s.configFile != "" {
		v.SetConfigFile(s.configFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	if err := v.ReadInConfig(); err != nil && !configMissing(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	for _, key := range []string{"server", "token"} {
		if err := v.BindPFlag(key, root.PersistentFlags().Lookup(key)); err != nil {
			return fmt.Errorf("binding --%s: %w", key, err)
		}
	}

	s.v = v
	s.client = NewClient(v.GetString("server"), v.GetString("token"))
	return nil
}

func configMissing(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

// saveToken persists a token to the config file in use.
func (s *session) saveToken(token string) (string, error) {
	path := s.v.ConfigFileUsed()
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("locating home directory: %w", err)
		}
		path = filepath.Join(home, configName+".yaml")
	}
	s.v.Set("token", token)
	if err := s.v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func (s *session) printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRootCmd() *cobra.Command {
	s := &session{}

	root := &cobra.Command{
		Use:   "pomoctl",
		Short: "Control a running pomodisc daemon",
		Long: `pomoctl drives the pomodisc timer daemon over its HTTP API.

The daemon address and access token come from --server and --token, the
POMOCTL_SERVER and POMOCTL_TOKEN environment variables, or ~/.pomoctl.yaml.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.load(cmd.Root())
		},
	}

	root.PersistentFlags().StringVar(&s.configFile, "config", "", "config file (default $HOME/.pomoctl.yaml)")
	root.PersistentFlags().String("server", defaultServer, "daemon base URL")
	root.PersistentFlags().String("token", "", "access token for a password-protected daemon")
	root.PersistentFlags().BoolVar(&s.asJSON, "json", false, "print raw JSON responses")

	root.AddCommand(
		newVersionCmd(),
		newStatusCmd(s),
		newActionCmd(s, "start", "Start a run from idle"),
		newActionCmd(s, "pause", "Pause the running phase"),
		newActionCmd(s, "resume", "Resume a paused phase"),
		newActionCmd(s, "reset", "Stop the run and return to the first work phase"),
		newWatchCmd(s),
		newSettingsCmd(s),
		newDeckCmd(s),
		newTracksCmd(s),
		newAlarmCmd(s),
		newClearErrorCmd(s),
		newHistoryCmd(s),
		newLoginCmd(s),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// Skip the root's config loading.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pomoctl %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
		},
	}
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
