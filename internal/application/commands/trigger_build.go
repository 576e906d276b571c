package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/sitepilot/crm-backend/internal/application/consts"
	"github.com/sitepilot/crm-backend/internal/application/errs"
	"github.com/sitepilot/crm-backend/internal/application/interfaces"
	"github.com/sitepilot/crm-backend/internal/infra/db/repo"
	dbs "github.com/sitepilot/crm-backend/pkg/db"
)

// TriggerBuild moves an order into `generating` and hands it to the worker.
// The call returns once the transition is committed; it never waits for the
// run. At most one build is in flight per order: the transition is a
// compare-and-set on the status row, and a re-trigger while already
// generating is an idempotent success so the UI may retry safely.
type TriggerBuild struct {
	uowFactory *dbs.UOWFactory
	runner     interfaces.BuildRunner
}

func NewTriggerBuild(uowFactory *dbs.UOWFactory, runner interfaces.BuildRunner) *TriggerBuild {
	return &TriggerBuild{uowFactory: uowFactory, runner: runner}
}

func (c *TriggerBuild) Execute(ctx context.Context, orderID uint64) (consts.OrderStatus, error) {
	uow := c.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return "", err
	}
	defer uow.Rollback()

	orderRepo := repo.NewOrderRepo(tx)
	order, err := orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", errs.NotFoundError{Entity: "order", ID: orderID}
		}
		return "", fmt.Errorf("loading order, %v", err)
	}

	if order.Status == consts.OrderStatusGenerating {
		// a worker already owns this order, do not start a second one
		slog.Info("build already in flight", "orderID", orderID)
		return order.Status, nil
	}
	if !consts.Retriggerable(order.Status) {
		return "", errs.InvalidStateError{OrderID: orderID, Current: order.Status, Requested: consts.OrderStatusGenerating}
	}

	onboarded, err := orderRepo.HasOnboarding(ctx, orderID)
	if err != nil {
		return "", fmt.Errorf("checking onboarding, %v", err)
	}
	if !onboarded {
		return "", errs.InvalidStateError{OrderID: orderID, Current: order.Status, Requested: consts.OrderStatusGenerating}
	}

	// retire leftovers of any previous run before the new one writes
	if err := repo.NewDeliverableRepo(tx).RetireLive(ctx, orderID); err != nil {
		return "", fmt.Errorf("retiring deliverables, %v", err)
	}
	if err := repo.NewLogRepo(tx).ArchiveLive(ctx, orderID); err != nil {
		return "", fmt.Errorf("archiving log, %v", err)
	}

	updated, err := orderRepo.UpdateStatusIf(ctx, orderID, order.Status, consts.OrderStatusGenerating)
	if err != nil {
		return "", fmt.Errorf("transitioning order, %v", err)
	}
	if !updated {
		// someone else transitioned the row between read and write
		fresh, err := orderRepo.GetOrderByID(ctx, orderID)
		if err != nil {
			return "", fmt.Errorf("re-reading order, %v", err)
		}
		if fresh.Status == consts.OrderStatusGenerating {
			return fresh.Status, nil
		}
		return "", errs.InvalidStateError{OrderID: orderID, Current: fresh.Status, Requested: consts.OrderStatusGenerating}
	}

	if err := uow.Commit(); err != nil {
		return "", err
	}

	go func() {
		if err := c.runner.Run(context.Background(), orderID); err != nil {
			slog.Error("generation run failed", "orderID", orderID, "err", err)
		}
	}()

	return consts.OrderStatusGenerating, nil
}
