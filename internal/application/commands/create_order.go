package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/sitepilot/crm-backend/internal/application/consts"
	"github.com/sitepilot/crm-backend/internal/application/dto"
	"github.com/sitepilot/crm-backend/internal/infra/db"
	"github.com/sitepilot/crm-backend/internal/infra/db/repo"
	dbs "github.com/sitepilot/crm-backend/pkg/db"
)

// CreateOrder records a checkout. Orders are born awaiting payment; the
// payment webhook moves them forward.
type CreateOrder struct {
	uowFactory *dbs.UOWFactory
}

func NewCreateOrder(uowFactory *dbs.UOWFactory) *CreateOrder {
	return &CreateOrder{uowFactory: uowFactory}
}

func (c *CreateOrder) Execute(ctx context.Context, req *dto.CreateOrderRequest) (uint64, error) {
	uow := c.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return 0, err
	}
	defer uow.Rollback()

	now := time.Now()
	newOrder := db.SiteOrder{
		CustomerID:    req.CustomerID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Status:        consts.OrderStatusPendingPayment,
		BasePrice:     req.BasePrice,
		TotalPrice:    req.TotalPrice,
		DeliveryDays:  req.DeliveryDays,
		RevisionsLeft: 2,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	id, err := repo.NewOrderRepo(tx).InsertOrder(ctx, newOrder)
	if err != nil {
		return 0, fmt.Errorf("insert failed: %v", err)
	}

	if err := uow.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}
