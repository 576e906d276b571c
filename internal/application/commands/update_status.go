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

// UpdateStatus is the administrative override for non-generation
// transitions, e.g. review -> delivered. Entering `generating` is reserved
// for TriggerBuild and rejected here.
type UpdateStatus struct {
	uowFactory *dbs.UOWFactory
	notifier   interfaces.Notifier
}

func NewUpdateStatus(uowFactory *dbs.UOWFactory, notifier interfaces.Notifier) *UpdateStatus {
	return &UpdateStatus{uowFactory: uowFactory, notifier: notifier}
}

func (c *UpdateStatus) Execute(ctx context.Context, orderID uint64, target consts.OrderStatus) (consts.OrderStatus, error) {
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

	if target == consts.OrderStatusGenerating || !consts.CanTransition(order.Status, target) {
		return "", errs.InvalidStateError{OrderID: orderID, Current: order.Status, Requested: target}
	}

	updated, err := orderRepo.UpdateStatusIf(ctx, orderID, order.Status, target)
	if err != nil {
		return "", fmt.Errorf("transitioning order, %v", err)
	}
	if !updated {
		fresh, err := orderRepo.GetOrderByID(ctx, orderID)
		if err != nil {
			return "", fmt.Errorf("re-reading order, %v", err)
		}
		return "", errs.InvalidStateError{OrderID: orderID, Current: fresh.Status, Requested: target}
	}

	switch target {
	case consts.OrderStatusPaid:
		err = orderRepo.StampPaid(ctx, orderID)
	case consts.OrderStatusDelivered:
		err = orderRepo.StampDelivered(ctx, orderID)
	}
	if err != nil {
		return "", fmt.Errorf("stamping timestamp, %v", err)
	}

	if err := uow.Commit(); err != nil {
		return "", err
	}

	if target == consts.OrderStatusDelivered && c.notifier != nil {
		if err := c.notifier.NotifyDelivered(ctx, orderID); err != nil {
			slog.Warn("delivery mail not sent", "orderID", orderID, "err", err)
		}
	}
	return target, nil
}
