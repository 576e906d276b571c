package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/sitepilot/crm-backend/internal/application/consts"
	"github.com/sitepilot/crm-backend/internal/application/dto"
	"github.com/sitepilot/crm-backend/internal/application/errs"
	"github.com/sitepilot/crm-backend/internal/infra/db/repo"
	dbs "github.com/sitepilot/crm-backend/pkg/db"
)

// ResetGeneration repairs a stuck order: retires the dead run's artifacts
// and returns the order to `building` so it can be triggered again. It
// assumes the worker is already gone and only fixes the record; nothing is
// signalled. Safe against the scan/reset race: if the order finished in
// between, the precondition fails with a conflict and nothing is mutated.
type ResetGeneration struct {
	uowFactory *dbs.UOWFactory
}

func NewResetGeneration(uowFactory *dbs.UOWFactory) *ResetGeneration {
	return &ResetGeneration{uowFactory: uowFactory}
}

func (c *ResetGeneration) Execute(ctx context.Context, orderID uint64) error {
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
	if order.Status != consts.OrderStatusGenerating {
		return errs.InvalidStateError{OrderID: orderID, Current: order.Status, Requested: consts.OrderStatusBuilding}
	}

	// a finished run must not be wiped: between the worker's terminal
	// SUCCESS entry and the completion poller's promotion the order still
	// reads `generating`, but it is not empty. Only runs with no success
	// entry and no live code deliverable may be reset.
	entries, err := repo.NewLogRepo(tx).ListLive(ctx, orderID)
	if err != nil {
		return fmt.Errorf("reading log, %v", err)
	}
	if n := len(entries); n > 0 {
		last := entries[n-1]
		if last.Step == consts.LogStepSuccess || last.Status == consts.LogStatusSuccess {
			return errs.InvalidStateError{OrderID: orderID, Current: order.Status, Requested: consts.OrderStatusBuilding}
		}
	}
	codeCount, err := repo.NewDeliverableRepo(tx).CountLiveByType(ctx, orderID, consts.DeliverableCode)
	if err != nil {
		return fmt.Errorf("checking deliverables, %v", err)
	}
	if codeCount > 0 {
		return errs.InvalidStateError{OrderID: orderID, Current: order.Status, Requested: consts.OrderStatusBuilding}
	}

	if err := repo.NewDeliverableRepo(tx).RetireLive(ctx, orderID); err != nil {
		return fmt.Errorf("retiring deliverables, %v", err)
	}
	if err := repo.NewLogRepo(tx).ArchiveLive(ctx, orderID); err != nil {
		return fmt.Errorf("archiving log, %v", err)
	}

	updated, err := orderRepo.UpdateStatusIf(ctx, orderID, consts.OrderStatusGenerating, consts.OrderStatusBuilding)
	if err != nil {
		return fmt.Errorf("transitioning order, %v", err)
	}
	if !updated {
		// the run completed between our read and write, leave it alone
		fresh, err := orderRepo.GetOrderByID(ctx, orderID)
		if err != nil {
			return fmt.Errorf("re-reading order, %v", err)
		}
		return errs.InvalidStateError{OrderID: orderID, Current: fresh.Status, Requested: consts.OrderStatusBuilding}
	}

	return uow.Commit()
}

// EmptyScanner is satisfied by query.ScanEmptyGenerations.
type EmptyScanner interface {
	Query(ctx context.Context) (dto.ScanEmptyResponse, error)
}

// ResetAllEmpty is the batch form of ResetGeneration over the audit scan.
// Orders are processed independently: one failed reset never aborts the
// rest, and the result counts only orders actually reset.
type ResetAllEmpty struct {
	scanner EmptyScanner
	reset   *ResetGeneration
}

func NewResetAllEmpty(scanner EmptyScanner, reset *ResetGeneration) *ResetAllEmpty {
	return &ResetAllEmpty{scanner: scanner, reset: reset}
}

func (c *ResetAllEmpty) Execute(ctx context.Context) (int, error) {
	scan, err := c.scanner.Query(ctx)
	if err != nil {
		return 0, fmt.Errorf("scanning empty generations, %v", err)
	}

	var resetCount int
	for _, order := range scan.EmptyOrders {
		if order.FilesCount != 0 {
			// output exists, or the count is unverified (-1): either way
			// emptiness is not confirmed, the operator decides manually
			continue
		}
		if err := c.reset.Execute(ctx, order.OrderID); err != nil {
			slog.Error("reset failed", "orderID", order.OrderID, "err", err)
			continue
		}
		resetCount++
	}
	return resetCount, nil
}
