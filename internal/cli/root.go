// Package cli wires the todo command: configuration, logging and the terminal UI.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Isingizwe12/taskboard/internal/board"
	"github.com/Isingizwe12/taskboard/internal/client"
	"github.com/Isingizwe12/taskboard/internal/logging"
)

var (
	appVersion = "dev"
	appCommit  = "none"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit string) {
	appVersion = version
	appCommit = commit
}

// Settings is the resolved client configuration.
type Settings struct {
	Server   string
	LogFile  string
	LogLevel string
}

// loadSettings resolves flags, TASKBOARD_* variables and the optional
// ~/.taskboard.yaml, in that order of precedence.
func loadSettings(v *viper.Viper, configFile string) (Settings, error) {
	v.SetDefault("server", client.DefaultBaseURL)
	v.SetDefault("log-level", "info")
	v.SetEnvPrefix("taskboard")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".taskboard")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("reading config: %w", err)
		}
	}
	return Settings{
		Server:   strings.TrimRight(v.GetString("server"), "/"),
		LogFile:  v.GetString("log-file"),
		LogLevel: v.GetString("log-level"),
	}, nil
}

// NewRootCmd builds the todo command tree.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	var configFile string

	root := &cobra.Command{
		Use:   "todo",
		Short: "Terminal client for the taskboard server",
		Long: `todo signs you in to a taskboard server and opens your task board.

The server address comes from --server, TASKBOARD_SERVER or the "server" key
in ~/.taskboard.yaml.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(v, configFile)
			if err != nil {
				return err
			}
			logger, closeLog, err := openLogger(s)
			if err != nil {
				return err
			}
			defer closeLog()
			return runBoard(cmd, s, logger)
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (default $HOME/.taskboard.yaml)")
	root.PersistentFlags().String("server", client.DefaultBaseURL, "taskboard server base URL")
	root.PersistentFlags().String("log-file", "", "write client logs to this file")
	root.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	_ = v.BindPFlag("server", root.PersistentFlags().Lookup("server"))
	_ = v.BindPFlag("log-file", root.PersistentFlags().Lookup("log-file"))
	_ = v.BindPFlag("log-level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "todo %s\ncommit: %s\n", appVersion, appCommit)
		},
	})
	return root
}

// openLogger logs to the configured file; the terminal belongs to the UI.
func openLogger(s Settings) (*log.Logger, func(), error) {
	if s.LogFile == "" {
		return logging.Discard(), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(s.LogFile), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(s.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return logging.New(f, s.LogLevel, "todo"), func() { _ = f.Close() }, nil
}

func runBoard(cmd *cobra.Command, s Settings, logger *log.Logger) error {
	api := client.NewClient(s.Server, nil)
	gateway := client.NewGateway(api, nil)
	app := board.NewApp(board.Deps{Tasks: api, Identity: gateway, Logger: logger})
	defer app.Close()

	logger.Info("starting client", "server", s.Server)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.OutOrStdout()))
	final, err := p.Run()
	if a, ok := final.(board.App); ok {
		a.Close()
	}
	return err
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
