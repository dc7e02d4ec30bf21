package outbound

import (
	"context"

	"github.com/botmarket/server/internal/model"
)

// ReportArchivePort stores reconciliation summaries for audit.
type ReportArchivePort interface {
	// Save writes the summary and returns the object key.
	Save(ctx context.Context, summary *model.ReconcileSummary) (string, error)
}
