package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	agentoauth "tonearm/internal/agent/oauth"
	"tonearm/internal/client"
	"tonearm/internal/config"
	"tonearm/pkg/logging"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates a command needs a refresh token and has none.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates the browser login or the host's exchange failed.
	ExitCodeAuthFailed = 3
)

// errAuthRequired is returned when no refresh token is configured.
var errAuthRequired = errors.New("not logged in: run 'tonearm login' and set TONEARM_CLIENT_REFRESH_TOKEN")

var (
	configPath string
	logLevel   string
	quiet      bool

	// cfg is loaded before any subcommand runs.
	cfg config.Config
)

// rootCmd represents the base command for the tonearm application.
var rootCmd = &cobra.Command{
	Use:   "tonearm",
	Short: "Remote control for a voice-channel music bot",
	Long: `tonearm pairs a desktop remote with a music bot host.

The host owns the player and exchanges Discord logins for the client; the
client logs in through the browser, then watches and controls playback.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "tonearm version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	if errors.Is(err, errAuthRequired) {
		return ExitCodeAuthRequired
	}

	authFailures := []error{
		client.ErrAuthRejected,
		agentoauth.ErrMismatchCSRF,
		agentoauth.ErrNoCodeInResponse,
		agentoauth.ErrNoCSRFInResponse,
		agentoauth.ErrCaptureTimeout,
		agentoauth.ErrBrowserOpen,
		agentoauth.ErrAlreadyRunning,
	}
	for _, target := range authFailures {
		if errors.Is(err, target) {
			return ExitCodeAuthFailed
		}
	}

	return ExitCodeError
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") || loaded.LogLevel == "" {
		loaded.LogLevel = logLevel
	}

	level, err := logging.ParseLevel(loaded.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if quiet {
		level = logging.LevelError
	}
	logging.InitForCLI(level, cmd.ErrOrStderr())

	cfg = loaded
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is $HOME/.config/tonearm/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only print errors and results")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newHostCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newControlCmd())
	rootCmd.AddCommand(newStatusCmd())
}
