package query

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/sitepilot/crm-backend/internal/application/dto"
	"github.com/sitepilot/crm-backend/internal/application/errs"
	"github.com/sitepilot/crm-backend/internal/infra/db"
	"github.com/sitepilot/crm-backend/internal/infra/db/repo"
	dbs "github.com/sitepilot/crm-backend/pkg/db"
)

type GetOrder struct {
	uowFactory *dbs.UOWFactory
}

func NewGetOrder(uowFactory *dbs.UOWFactory) *GetOrder {
	return &GetOrder{uowFactory: uowFactory}
}

func (q *GetOrder) Query(ctx context.Context, orderID uint64) (*dto.OrderResponse, error) {
	uow := q.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	orderRepo := repo.NewOrderRepo(tx)
	order, err := orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NotFoundError{Entity: "order", ID: orderID}
		}
		return nil, err
	}
	onboarded, err := orderRepo.HasOnboarding(ctx, orderID)
	if err != nil {
		return nil, err
	}

	resp := db.MapOrderToResponse(*order, onboarded)
	return &resp, nil
}
