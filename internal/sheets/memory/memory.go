// Package memory keeps published reports in process, for local runs and
// tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"bikedash/internal/core"
	"bikedash/internal/sheets"
)

var _ sheets.ReportPublisher = (*Publisher)(nil)

type Publisher struct {
	mu      sync.Mutex
	reports []core.Dashboard
}

func New() *Publisher {
	return &Publisher{}
}

// PublishReport stores d and returns a synthetic reference.
func (p *Publisher) PublishReport(ctx context.Context, d core.Dashboard) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reports = append(p.reports, d)
	return fmt.Sprintf("mem:%d", len(p.reports)), nil
}

// Published returns a copy of the stored reports in publish order.
func (p *Publisher) Published() []core.Dashboard {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]core.Dashboard(nil), p.reports...)
}
