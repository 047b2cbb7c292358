package app

import (
	"context"
	"fmt"
	"text/tabwriter"

	"stockmon/internal/service"
)

// Check runs one evaluation, deduplication and notification pass.
func (a *App) Check(ctx context.Context, opts CheckOptions) error {
	ctx, cancel := signalContext(ctx)
	defer cancel()

	svc, err := a.newService(opts.DryRun)
	if err != nil {
		return err
	}

	report, err := svc.RunOnce(ctx)
	a.Logger.Info().
		Str("outcome", string(report.Outcome)).
		Int("attempts", report.Attempts).
		Int("alerts", len(report.Result.Alerts)).
		Int("errors", len(report.Result.Errors)).
		Bool("dry_run", opts.DryRun).
		Msg("check finished")

	if opts.DryRun {
		a.printReport(report)
	}
	return err
}

func (a *App) printReport(report service.Report) {
	fmt.Fprintf(a.Out, "Outcome: %s\n", report.Outcome)
	if report.Outcome == service.OutcomeShortCircuit {
		fmt.Fprintln(a.Out, "Market closed: nothing evaluated")
		return
	}
	if report.Outcome != service.OutcomeDone {
		return
	}

	for _, tickerErr := range report.Result.Errors {
		fmt.Fprintf(a.Out, "Error: %s: %s\n", tickerErr.Ticker, sanitizeInline(tickerErr.Reason))
	}
	if len(report.Decisions) == 0 {
		fmt.Fprintln(a.Out, "No alerts")
		return
	}

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Key\tDecision\tSubject")
	for _, d := range report.Decisions {
		decision := "suppressed"
		if d.Notify {
			decision = "would notify"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\n", d.Key, decision, d.Message.Subject)
	}
	writer.Flush()

	for _, d := range report.Decisions {
		if !d.Notify {
			continue
		}
		fmt.Fprintf(a.Out, "\n--- %s ---\n%s\n", d.Message.Subject, d.Message.Body)
	}
}
