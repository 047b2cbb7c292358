package app

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"stockmon/internal/dedup"
	"stockmon/internal/storage"
)

// ShowState prints the persisted notification state.
func (a *App) ShowState() error {
	store := a.newStore()
	state := store.Load()
	if len(state) == 0 {
		fmt.Fprintf(a.Out, "no notifications recorded in %s\n", store.Path())
		return nil
	}

	now := a.now()
	d := dedup.New(a.Config.SilenceWindow())

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Key\tLast notified (UTC)\tAge\tEligible")
	for _, entry := range storage.Entries(state) {
		eligible := "no"
		if d.ShouldNotify(state, entry.Key, now) {
			eligible = "yes"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n",
			entry.Key,
			entry.LastNotified.UTC().Format(time.RFC3339),
			now.Sub(entry.LastNotified).Truncate(time.Minute),
			eligible,
		)
	}
	return writer.Flush()
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
