package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"stockmon/internal/app"
)

var (
	notifyTicker string
	notifyType   string
	notifyPrice  float64
)

var notifyTestCmd = &cobra.Command{
	Use:   "notify-test",
	Short: "Send a synthetic alert through the configured channels",
	RunE: func(cmd *cobra.Command, args []string) error {
		if notifyTicker == "" {
			return errors.New("--ticker must not be empty")
		}
		if notifyPrice < 0 {
			return errors.New("--price must not be negative")
		}

		return getApp().NotifyTest(cmd.Context(), app.NotifyTestOptions{
			Ticker: notifyTicker,
			Type:   notifyType,
			Price:  notifyPrice,
		})
	},
}

func init() {
	notifyTestCmd.Flags().StringVar(&notifyTicker, "ticker", "TEST", "Ticker symbol of the synthetic alert")
	notifyTestCmd.Flags().StringVar(&notifyType, "type", "buy", "Alert type: buy or sell")
	notifyTestCmd.Flags().Float64Var(&notifyPrice, "price", 100, "Price shown in the alert")
}
