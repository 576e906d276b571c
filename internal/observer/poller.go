package observer

import (
	"context"
	"time"

	"github.com/sitepilot/crm-backend/internal/application/consts"
	"github.com/sitepilot/crm-backend/internal/application/dto"
)

const DefaultInterval = 2 * time.Second

// LogSource is anything that can replay an order's log in append order.
type LogSource interface {
	ReadLog(ctx context.Context, orderID uint64) ([]dto.LogEntryView, error)
}

// IsTerminal mirrors the run-terminality rule: sentinel step or a
// success/error status finishes the run.
func IsTerminal(entry dto.LogEntryView) bool {
	return entry.Step == consts.LogStepSuccess || entry.Step == consts.LogStepError ||
		entry.Status == string(consts.LogStatusSuccess) || entry.Status == string(consts.LogStatusError)
}

// Poller re-fetches the full log at a fixed interval until a terminal entry
// appears. Pull-based on purpose: an observer that disconnects and comes
// back resumes from the stored log with no missed-event problem. Entries
// are delivered in append order exactly once and never regress; OnDone
// fires exactly once, with the terminal entry.
type Poller struct {
	Source   LogSource
	Interval time.Duration
	OnEntry  func(entry dto.LogEntryView)
	OnDone   func(terminal dto.LogEntryView)
}

func NewPoller(source LogSource) *Poller {
	return &Poller{Source: source, Interval: DefaultInterval}
}

func (p *Poller) Run(ctx context.Context, orderID uint64) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	var lastSeen uint64
	for {
		entries, err := p.Source.ReadLog(ctx, orderID)
		if err != nil {
			return err
		}

		for _, entry := range entries {
			if entry.ID <= lastSeen {
				continue
			}
			lastSeen = entry.ID
			if p.OnEntry != nil {
				p.OnEntry(entry)
			}
			if IsTerminal(entry) {
				if p.OnDone != nil {
					p.OnDone(entry)
				}
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
