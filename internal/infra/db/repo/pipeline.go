package repo

import (
	"context"
	"time"

	"github.com/sitepilot/crm-backend/internal/application/consts"
	"github.com/sitepilot/crm-backend/internal/application/interfaces"
	"github.com/sitepilot/crm-backend/internal/infra/db"
	dbs "github.com/sitepilot/crm-backend/pkg/db"
)

// PipelineStore gives the generation worker durable writes outside the
// request path. Every call commits its own transaction, so each log entry
// and deliverable lands before the next phase starts.
type PipelineStore struct {
	uowFactory *dbs.UOWFactory
}

var _ interfaces.PipelineStore = (*PipelineStore)(nil)

func NewPipelineStore(uowFactory *dbs.UOWFactory) *PipelineStore {
	return &PipelineStore{uowFactory: uowFactory}
}

func (s *PipelineStore) OrderSnapshot(ctx context.Context, orderID uint64) (*db.SiteOrder, *db.Onboarding, error) {
	uow := s.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return nil, nil, err
	}
	defer uow.Rollback()

	orderRepo := NewOrderRepo(tx)
	order, err := orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	onboarding, err := orderRepo.GetOnboarding(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	return order, onboarding, nil
}

func (s *PipelineStore) AppendLog(ctx context.Context, orderID uint64, step string, status consts.LogStatus, message string, details any) error {
	uow := s.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		"INSERT INTO crm.generation_logs(order_id, step, status, message, details, created_at) VALUES ($1,$2,$3,$4,$5,$6)",
		orderID, step, status, message, db.MapToRawMessage(details), time.Now())
	if err != nil {
		_ = uow.Rollback()
		return err
	}
	return uow.Commit()
}

func (s *PipelineStore) CreateDeliverable(ctx context.Context, orderID uint64, t consts.DeliverableType) (uint64, error) {
	uow := s.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return 0, err
	}
	var id uint64
	err = tx.QueryRow(ctx,
		"INSERT INTO crm.deliverables(order_id, type, status, content, created_at) VALUES ($1,$2,$3,'',$4) RETURNING id",
		orderID, t, consts.DeliverableStatusGenerating, time.Now()).Scan(&id)
	if err != nil {
		_ = uow.Rollback()
		return 0, err
	}
	return id, uow.Commit()
}

func (s *PipelineStore) CompleteDeliverable(ctx context.Context, deliverableID uint64, content string) error {
	uow := s.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		"UPDATE crm.deliverables SET status = $1, content = $2 WHERE id = $3",
		consts.DeliverableStatusReady, content, deliverableID)
	if err != nil {
		_ = uow.Rollback()
		return err
	}
	return uow.Commit()
}
