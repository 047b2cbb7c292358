package alerting

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"stockmon/internal/domain"
)

// AlertMessage renders a threshold alert.
func AlertMessage(alert domain.Alert, recipient string) Message {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("Ticker: %s\n", alert.Ticker))
	builder.WriteString(fmt.Sprintf("Type: %s\n", alert.Type.Label()))
	builder.WriteString(fmt.Sprintf("Threshold: $%s\n", money(alert.Threshold)))
	builder.WriteString(fmt.Sprintf("Reached: $%s\n", money(alert.Reached)))
	builder.WriteString(fmt.Sprintf("Current: $%s\n", money(alert.Current)))
	builder.WriteString("\n---\nGenerated by StockMon")

	return Message{
		Recipient: recipient,
		Subject:   fmt.Sprintf("StockMon Alert: %s %s signal", alert.Ticker, alert.Type),
		Body:      builder.String(),
	}
}

// DegradedMessage renders the warning sent when every ticker failed.
func DegradedMessage(failed int, recipient string) Message {
	return Message{
		Recipient: recipient,
		Subject:   "StockMon: Service degraded - check API",
		Body: fmt.Sprintf("The market data provider appears to be down: all %d tickers failed.\n"+
			"The evaluation API dependencies probably need an update.", failed),
	}
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
