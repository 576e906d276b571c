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

// ReadLog replays the current run's log in append order. The log is small
// (bounded phase count), so observers re-fetch it wholesale while polling.
type ReadLog struct {
	uowFactory *dbs.UOWFactory
}

func NewReadLog(uowFactory *dbs.UOWFactory) *ReadLog {
	return &ReadLog{uowFactory: uowFactory}
}

func (q *ReadLog) Query(ctx context.Context, orderID uint64) (*dto.LogResponse, error) {
	uow := q.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if _, err := repo.NewOrderRepo(tx).GetOrderByID(ctx, orderID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NotFoundError{Entity: "order", ID: orderID}
		}
		return nil, err
	}

	entries, err := repo.NewLogRepo(tx).ListLive(ctx, orderID)
	if err != nil {
		return nil, err
	}

	resp := dto.LogResponse{Entries: make([]dto.LogEntryView, 0, len(entries))}
	for _, entry := range entries {
		resp.Entries = append(resp.Entries, db.MapLogEntryToView(entry))
	}
	return &resp, nil
}
