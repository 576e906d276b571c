package query

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/sitepilot/crm-backend/internal/application/consts"
	"github.com/sitepilot/crm-backend/internal/application/dto"
	"github.com/sitepilot/crm-backend/internal/application/errs"
	"github.com/sitepilot/crm-backend/internal/infra/db"
	"github.com/sitepilot/crm-backend/internal/infra/db/repo"
	dbs "github.com/sitepilot/crm-backend/pkg/db"
)

const (
	StepCompleted = "completed"
	StepActive    = "active"
	StepPending   = "pending"
)

// GetProgress derives the display-step view from the live deliverables.
// The mapping is read-only; order status is never mutated from it.
type GetProgress struct {
	uowFactory *dbs.UOWFactory
}

func NewGetProgress(uowFactory *dbs.UOWFactory) *GetProgress {
	return &GetProgress{uowFactory: uowFactory}
}

func (q *GetProgress) Query(ctx context.Context, orderID uint64) (*dto.ProgressResponse, error) {
	uow := q.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	order, err := repo.NewOrderRepo(tx).GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NotFoundError{Entity: "order", ID: orderID}
		}
		return nil, err
	}

	deliverables, err := repo.NewDeliverableRepo(tx).ListLive(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return &dto.ProgressResponse{
		Status: string(order.Status),
		Steps:  BuildSteps(order.Status, deliverables),
	}, nil
}

// BuildSteps maps live deliverables onto the fixed phase list. A step with
// no deliverable row yet is shown active only when it is the first such
// step and a build is underway; this is a display heuristic, the worker may
// simply not have written its row yet.
func BuildSteps(status consts.OrderStatus, deliverables []db.Deliverable) []dto.StepView {
	byType := make(map[consts.DeliverableType]db.Deliverable, len(deliverables))
	for _, d := range deliverables {
		byType[d.Type] = d
	}

	building := status == consts.OrderStatusBuilding || status == consts.OrderStatusGenerating
	steps := make([]dto.StepView, 0, len(consts.GenerationPhases))
	activeAssigned := false
	for _, phase := range consts.GenerationPhases {
		state := StepPending
		if d, ok := byType[phase]; ok {
			switch d.Status {
			case consts.DeliverableStatusReady, consts.DeliverableStatusApproved:
				state = StepCompleted
			case consts.DeliverableStatusGenerating:
				state = StepActive
				activeAssigned = true
			}
		} else if building && !activeAssigned {
			state = StepActive
			activeAssigned = true
		}
		steps = append(steps, dto.StepView{Type: string(phase), State: state})
	}
	return steps
}
