package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"neo-trader/internal/broker"
	"neo-trader/internal/config"
	"neo-trader/internal/logging"
	"neo-trader/internal/session"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies. The session manager is built
// once here and passed into every command; commands ask it for the
// authenticated handle instead of reaching for process-wide state.
type App struct {
	Config    *config.Config
	ConfigDir string
	Logger    zerolog.Logger
	Sessions  *session.Manager
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, configDir string, logger zerolog.Logger) *cobra.Command {
	client := broker.NewNeoClient(broker.NeoConfig{
		ConsumerKey: cfg.Credentials.ConsumerKey,
	})

	store := session.NewStore(config.SessionPath(configDir))

	var otp session.OTPSource
	if cfg.Credentials.TOTPSecret != "" {
		otp = session.TOTPSource(cfg.Credentials.TOTPSecret)
		logger.Debug().Msg("Using configured TOTP secret for login")
	} else {
		otp = session.PromptSource(os.Stdin, os.Stderr)
	}

	app := &App{
		Config:    cfg,
		ConfigDir: configDir,
		Logger:    logger,
		Sessions:  session.NewManager(client, store, cfg.Credentials, otp, logger),
	}

	rootCmd := &cobra.Command{
		Use:   "neotrader",
		Short: "Neo Trader - Kotak Neo trading CLI",
		Long: `Neo Trader is a trading CLI for the Kotak Neo brokerage API.

It reuses a persisted session across runs, places and tracks orders to
completion, and computes decimal-safe position metrics.

Use 'neotrader help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/neo-trader)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	addAuthCommands(rootCmd, app)
	addAccountCommands(rootCmd, app)
	addTradingCommands(rootCmd, app)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("Neo Trader v%s\n", Version)
			}
		},
	}
}
