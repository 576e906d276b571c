package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sitepilot/crm-backend/internal/application/consts"
	"github.com/sitepilot/crm-backend/internal/application/dto"
	"github.com/sitepilot/crm-backend/internal/application/errs"
	"github.com/sitepilot/crm-backend/internal/infra/db"
	"github.com/sitepilot/crm-backend/internal/infra/db/repo"
	dbs "github.com/sitepilot/crm-backend/pkg/db"
)

// SubmitOnboarding stores the customer's business facts. The profile is
// written once and never updated; a second submission is a conflict.
type SubmitOnboarding struct {
	uowFactory *dbs.UOWFactory
}

func NewSubmitOnboarding(uowFactory *dbs.UOWFactory) *SubmitOnboarding {
	return &SubmitOnboarding{uowFactory: uowFactory}
}

func (c *SubmitOnboarding) Execute(ctx context.Context, orderID uint64, req *dto.SubmitOnboardingRequest) error {
	uow := c.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return err
	}
	defer uow.Rollback()

	orderRepo := repo.NewOrderRepo(tx)
	order, err := orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.NotFoundError{Entity: "order", ID: orderID}
		}
		return fmt.Errorf("loading order, %v", err)
	}

	exists, err := orderRepo.HasOnboarding(ctx, orderID)
	if err != nil {
		return fmt.Errorf("checking onboarding, %v", err)
	}
	if exists {
		return fmt.Errorf("order %d already onboarded", orderID)
	}

	onboarding := db.Onboarding{
		OrderID:      orderID,
		BusinessName: req.BusinessName,
		Niche:        req.Niche,
		Location:     req.Location,
		Services:     req.Services,
		Tone:         req.Tone,
		PrimaryCTA:   req.PrimaryCTA,
		CreatedAt:    time.Now(),
	}
	if err := orderRepo.InsertOnboarding(ctx, onboarding); err != nil {
		return fmt.Errorf("insert failed: %v", err)
	}
	if err := orderRepo.StampOnboarded(ctx, orderID); err != nil {
		return fmt.Errorf("stamping timestamp, %v", err)
	}

	if order.Status == consts.OrderStatusOnboardingPending {
		if _, err := orderRepo.UpdateStatusIf(ctx, orderID, consts.OrderStatusOnboardingPending, consts.OrderStatusPaid); err != nil {
			return fmt.Errorf("transitioning order, %v", err)
		}
	}

	return uow.Commit()
}
