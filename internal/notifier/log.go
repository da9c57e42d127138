package notifier

import (
	"context"
	"log/slog"

	"github.com/amishk599/atsprobe/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes batch summaries to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each batch via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the batch totals, then one line per company that changed or failed.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(_ context.Context, report model.BatchReport) error {
	n.logger.Info("batch summary",
		"processed", report.Processed,
		"discovered", report.Discovered,
		"skipped", report.Skipped,
		"errors", report.Errors,
		"created", report.Totals.Created,
		"updated", report.Totals.Updated,
		"deactivated", report.Totals.Deactivated,
	)
	for _, c := range report.Companies {
		switch {
		case c.Err != "":
			n.logger.Warn("company failed", "domain", c.Domain, "provider", c.Provider, "error", c.Err)
		case !c.Delta.IsZero():
			n.logger.Info("company changed",
				"domain", c.Domain,
				"provider", c.Provider,
				"created", c.Delta.Created,
				"updated", c.Delta.Updated,
				"deactivated", c.Delta.Deactivated,
			)
		}
	}
	return nil
}
