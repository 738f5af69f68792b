package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"neo-trader/internal/broker"
	"neo-trader/internal/config"
	"neo-trader/internal/models"
	"neo-trader/internal/store"
	"neo-trader/internal/trading"
	"neo-trader/pkg/utils"
)

// addTradingCommands adds order and strategy commands.
func addTradingCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newOrdersCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))
	rootCmd.AddCommand(newStepCmd(app))
	rootCmd.AddCommand(newJournalCmd(app))
}

func newOrdersCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "Show the day's order report",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			handle, err := app.Sessions.Handle(ctx)
			if err != nil {
				output.Error("Authentication failed: %v", err)
				return err
			}

			report, err := utils.RetryWithResult(ctx, utils.DefaultRetryConfig(), func() (*broker.OrderReportResponse, error) {
				return handle.OrderReport(ctx)
			})
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(report.Data)
			}

			if len(report.Data) == 0 {
				output.Info("No orders today")
				return nil
			}

			table := NewTable(output, "ORDER NO", "SYMBOL", "SIDE", "QTY", "STATUS", "AVG PRICE", "REJECT REASON")
			for _, e := range report.Data {
				table.AddRow(e.OrderNo, e.Symbol, e.Side, e.Quantity, e.Status, e.AvgPrice, e.RejectReason)
			}
			table.Render()
			return nil
		},
	}
}

func newHistoryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "history <order-no>",
		Short: "Show the history of one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			handle, err := app.Sessions.Handle(ctx)
			if err != nil {
				output.Error("Authentication failed: %v", err)
				return err
			}

			history, err := handle.OrderHistory(ctx, args[0])
			if err != nil {
				return err
			}
			return output.JSON(history.Data)
		},
	}
}

func newStepCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step <symbol>",
		Short: "Run the alternating sell/buy price stepper",
		Long: `Run the price-stepper strategy: sell at the start price, wait for the
fill, buy at the realized average minus the down offset, wait, sell at the
realized average plus the up offset, and repeat.

Without --cycles the loop runs until interrupted (Ctrl-C).`,
		Example: `  neotrader step SILVERMIC27FEB26FUT --price 320000
  neotrader step SILVERMIC27FEB26FUT --price 320000 --down 300 --up 150 --cycles 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			startPrice, err := decimal.NewFromString(cmd.Flag("price").Value.String())
			if err != nil {
				output.Error("Invalid --price: %v", err)
				return err
			}
			down, err := decimal.NewFromString(stringFlagOr(cmd, "down", app.Config.Strategy.DownOffset))
			if err != nil {
				output.Error("Invalid --down: %v", err)
				return err
			}
			up, err := decimal.NewFromString(stringFlagOr(cmd, "up", app.Config.Strategy.UpOffset))
			if err != nil {
				output.Error("Invalid --up: %v", err)
				return err
			}
			cycles, _ := cmd.Flags().GetInt("cycles")
			quantity, _ := cmd.Flags().GetString("quantity")

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			handle, err := app.Sessions.Handle(ctx)
			if err != nil {
				output.Error("Authentication failed: %v", err)
				return err
			}

			pollInterval, perr := time.ParseDuration(app.Config.Strategy.PollInterval)
			if perr != nil {
				pollInterval = trading.DefaultPollConfig().Interval
			}

			journal, jerr := store.NewJournal(config.JournalPath(app.ConfigDir))
			if jerr != nil {
				app.Logger.Warn().Err(jerr).Msg("Journal unavailable, legs will not be recorded")
			} else {
				defer journal.Close()
			}

			exec := trading.NewExecutor(handle, trading.PollConfig{
				Interval: pollInterval,
				MaxPolls: app.Config.Strategy.MaxPolls,
			}, app.Logger)

			var recorder trading.LegRecorder
			if journal != nil {
				recorder = journal
			}

			stepper := trading.NewStepper(exec, recorder, trading.StepperConfig{
				Order: models.Order{
					Symbol:          args[0],
					ExchangeSegment: app.Config.Trading.ExchangeSegment,
					Product:         app.Config.Trading.Product,
					Validity:        app.Config.Trading.Validity,
					Quantity:        quantity,
					TriggerPrice:    "0",
					DisclosedQty:    "0",
				},
				StartPrice: startPrice,
				DownOffset: down,
				UpOffset:   up,
				MaxCycles:  cycles,
			}, app.Logger)

			output.Info("Starting price stepper on %s (Ctrl-C to stop)", args[0])
			if err := stepper.Run(ctx); err != nil && ctx.Err() == nil {
				output.Error("Strategy stopped: %v", err)
				return err
			}
			output.Success("Strategy finished")
			return nil
		},
	}

	cmd.Flags().String("price", "", "start price for the first sell leg (required)")
	cmd.Flags().String("down", "", "offset subtracted from realized sell price (default from config)")
	cmd.Flags().String("up", "", "offset added to realized buy price (default from config)")
	cmd.Flags().Int("cycles", 0, "sell/buy pairs to run, 0 = until interrupted")
	cmd.Flags().String("quantity", "1", "order quantity in lots")
	cmd.MarkFlagRequired("price")

	return cmd
}

func newJournalCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show recorded strategy legs",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			limit, _ := cmd.Flags().GetInt("limit")

			journal, err := store.NewJournal(config.JournalPath(app.ConfigDir))
			if err != nil {
				return err
			}
			defer journal.Close()

			legs, err := journal.Legs(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(legs)
			}

			if len(legs) == 0 {
				output.Info("No recorded legs")
				return nil
			}

			table := NewTable(output, "PLACED", "ORDER NO", "SYMBOL", "SIDE", "QTY", "PRICE", "AVG PRICE", "STATUS")
			for _, leg := range legs {
				table.AddRow(leg.PlacedAt.Format("02-Jan 15:04:05"), leg.OrderNo, leg.Symbol,
					string(leg.Side), leg.Quantity, leg.Price, leg.AvgPrice, leg.Status)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().Int("limit", 50, "maximum legs to show")
	return cmd
}

// stringFlagOr returns the flag value when set, the fallback otherwise.
func stringFlagOr(cmd *cobra.Command, name, fallback string) string {
	if v, err := cmd.Flags().GetString(name); err == nil && v != "" {
		return v
	}
	return fallback
}
