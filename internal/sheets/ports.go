package sheets

import (
	"context"

	"bikedash/internal/core"
)

// ReportPublisher writes a dashboard to a spreadsheet and returns a
// reference to where it landed.
type ReportPublisher interface {
	PublishReport(ctx context.Context, d core.Dashboard) (ref string, err error)
}
