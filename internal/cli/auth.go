package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"neo-trader/internal/config"
	"neo-trader/internal/logging"
	"neo-trader/internal/session"
)

// addAuthCommands adds authentication commands.
func addAuthCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newLoginCmd(app))
	rootCmd.AddCommand(newLogoutCmd(app))
	rootCmd.AddCommand(newAuthStatusCmd(app))
}

func newLoginCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the broker",
		Long: `Authenticate with the Kotak Neo API.

A persisted session from a previous run is reused when it still passes a
liveness check; otherwise the full TOTP + MPIN handshake runs and the new
session is saved.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			if _, err := app.Sessions.Handle(ctx); err != nil {
				output.Error("Login failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]bool{"authenticated": true})
			}
			output.Success("Logged in")
			return nil
		},
	}
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Invalidate the session and remove the saved record",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			if err := app.Sessions.Logout(ctx); err != nil {
				output.Error("Logout failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]bool{"logged_out": true})
			}
			output.Success("Logged out")
			return nil
		},
	}
}

func newAuthStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the persisted session status",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			store := session.NewStore(config.SessionPath(app.ConfigDir))
			rec, state := store.Load()

			if output.IsJSON() {
				result := map[string]interface{}{"state": state.String()}
				if state == session.StateValid {
					result["token"] = logging.MaskToken(rec.Data.Token)
					result["sid"] = rec.Data.SID
					result["data_center"] = rec.Data.DataCenter
				}
				return output.JSON(result)
			}

			if state != session.StateValid {
				output.Warning("No usable session record (run 'neotrader login')")
				return nil
			}
			output.Success("Session record present")
			output.Printf("  Token:       %s\n", logging.MaskToken(rec.Data.Token))
			output.Printf("  SID:         %s\n", rec.Data.SID)
			output.Printf("  Data center: %s\n", rec.Data.DataCenter)
			output.Dim("Whether it is still live is decided at first use.")
			return nil
		},
	}
}
