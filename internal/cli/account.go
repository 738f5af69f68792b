package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"neo-trader/internal/broker"
	"neo-trader/internal/errors"
	"neo-trader/internal/positions"
	"neo-trader/pkg/utils"
)

// addAccountCommands adds read-only account commands.
func addAccountCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newPositionsCmd(app))
	rootCmd.AddCommand(newLimitsCmd(app))
}

func newPositionsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "positions",
		Short: "Show positions with computed metrics",
		Long: `Fetch positions and compute aggregated metrics per position:
quantities (lot-normalized for derivatives), amounts, average prices, and
PnL, all in exact decimal arithmetic.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			handle, err := app.Sessions.Handle(ctx)
			if err != nil {
				output.Error("Authentication failed: %v", err)
				return err
			}

			resp, err := utils.RetryWithResult(ctx, utils.DefaultRetryConfig(), func() (*broker.PositionsResponse, error) {
				return handle.Positions(ctx)
			})
			if err != nil {
				return err
			}
			if resp.StCode != broker.StatusOK {
				return errors.NewBrokerError("positions", resp.StCode, "unexpected status", nil)
			}

			metrics := positions.ComputeAll(resp.Data)
			if output.IsJSON() {
				return output.JSON(metrics)
			}

			if len(metrics) == 0 {
				output.Info("No positions")
				return nil
			}

			table := NewTable(output, "SYMBOL", "NET QTY", "BUY AVG", "SELL AVG", "AVG", "PNL")
			for _, m := range metrics {
				table.AddRow(m.Symbol, m.NetQty, m.BuyAvgPrice, m.SellAvgPrice,
					m.AvgPrice, output.FormatPnL(m.PnL))
			}
			table.Render()
			return nil
		},
	}
}

func newLimitsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "limits",
		Short: "Show account limits",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			handle, err := app.Sessions.Handle(ctx)
			if err != nil {
				output.Error("Authentication failed: %v", err)
				return err
			}

			resp, err := handle.Limits(ctx)
			if err != nil {
				return err
			}
			if resp.StCode != broker.StatusOK {
				return errors.NewBrokerError("limits", resp.StCode, "unexpected status", nil)
			}

			return output.JSON(resp.Data)
		},
	}
}
