package scheduler

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/sitepilot/crm-backend/internal/application/consts"
	"github.com/sitepilot/crm-backend/internal/application/interfaces"
	"github.com/sitepilot/crm-backend/internal/infra/db"
	"github.com/sitepilot/crm-backend/internal/infra/db/repo"
	dbs "github.com/sitepilot/crm-backend/pkg/db"
	"github.com/sitepilot/crm-backend/pkg/env"
)

// CompletionPoller advances orders whose run finished. The worker only
// writes the terminal log entry; this poller notices it and performs the
// generating -> review transition server-side, so completion never depends
// on a client staying connected.
type CompletionPoller struct {
	uowFactory *dbs.UOWFactory
	cfg        *CompletionConfig
	notifier   interfaces.Notifier
	stop       chan struct{}
}

type CompletionConfig struct {
	limit    uint8
	interval uint16
}

func NewCompletionConfig() *CompletionConfig {
	limit, err := strconv.Atoi(env.GetEnv("SCHEDULER_LIMIT", "10"))
	if err != nil {
		limit = 10
	}

	interval, err := strconv.Atoi(env.GetEnv("SCHEDULER_INTERVAL", "5"))
	if err != nil {
		interval = 5
	}
	return &CompletionConfig{
		limit:    uint8(limit),
		interval: uint16(interval),
	}
}

func NewCompletionPoller(uowFactory *dbs.UOWFactory, cfg *CompletionConfig, notifier interfaces.Notifier) *CompletionPoller {
	return &CompletionPoller{uowFactory: uowFactory, cfg: cfg, notifier: notifier, stop: make(chan struct{})}
}

func (p *CompletionPoller) Start() {
	slog.Info("Starting completion poller...")
	t := time.NewTimer(time.Duration(p.cfg.interval) * time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	for {
		select {
		case <-t.C:
			p.pollOrders(ctx)
			t = time.NewTimer(time.Duration(p.cfg.interval) * time.Second)
		case <-p.stop:
			slog.Info("Cancelling current execution")
			cancel()
			return
		}
	}
}

func (p *CompletionPoller) Stop() {
	close(p.stop)
}

// RunOnce performs a single poll cycle outside the timer loop.
func (p *CompletionPoller) RunOnce(ctx context.Context) {
	p.pollOrders(ctx)
}

type finishedOrder struct {
	id      uint64
	details json.RawMessage
}

func (p *CompletionPoller) pollOrders(ctx context.Context) {
	uow := p.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		slog.Error("error in poller", "err", err)
		return
	}

	// last live entry per generating order; terminal means the run is over
	query := `SELECT o.id, l.step, l.status, l.details
		FROM crm.site_orders o
		JOIN LATERAL (
			SELECT step, status, details FROM crm.generation_logs
			WHERE order_id = o.id AND NOT archived
			ORDER BY id DESC LIMIT 1
		) l ON true
		WHERE o.status = $1 AND (l.step = $2 OR l.status = $3)
		LIMIT $4`
	rows, err := tx.Query(ctx, query, consts.OrderStatusGenerating,
		consts.LogStepSuccess, consts.LogStatusSuccess, p.cfg.limit)
	if err != nil {
		slog.Error("error in poller", "err", err)
		_ = uow.Rollback()
		return
	}

	var finished []finishedOrder
	for rows.Next() {
		var (
			f      finishedOrder
			step   string
			status consts.LogStatus
		)
		if err := rows.Scan(&f.id, &step, &status, &f.details); err != nil {
			slog.Error("error in poller", "err", err)
			continue
		}
		finished = append(finished, f)
	}
	if err := rows.Err(); err != nil {
		slog.Error("error reading result sets", "err", err)
	}
	rows.Close()
	_ = uow.Rollback()

	for _, f := range finished {
		if err := p.complete(ctx, f); err != nil {
			slog.Error("completion error", "orderID", f.id, "err", err)
		}
	}
}

func (p *CompletionPoller) complete(ctx context.Context, f finishedOrder) error {
	uow := p.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return err
	}
	defer uow.Rollback()

	orderRepo := repo.NewOrderRepo(tx)
	updated, err := orderRepo.UpdateStatusIf(ctx, f.id, consts.OrderStatusGenerating, consts.OrderStatusReview)
	if err != nil {
		return err
	}
	if !updated {
		// a reset or a concurrent poll got here first
		return nil
	}

	success := db.MapDetailsToSuccess(f.details)
	if success.SiteURL != "" || success.RepositoryURL != "" {
		if err := orderRepo.SetSiteURLs(ctx, f.id, success.SiteURL, success.RepositoryURL); err != nil {
			return err
		}
	}

	if err := uow.Commit(); err != nil {
		return err
	}
	slog.Info("order moved to review", "orderID", f.id)

	if p.notifier != nil {
		if err := p.notifier.NotifySiteReady(ctx, f.id); err != nil {
			slog.Warn("review mail not sent", "orderID", f.id, "err", err)
		}
	}
	return nil
}
