package query

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sitepilot/crm-backend/internal/application/consts"
	"github.com/sitepilot/crm-backend/internal/application/dto"
	"github.com/sitepilot/crm-backend/internal/application/interfaces"
	"github.com/sitepilot/crm-backend/internal/infra/config"
	dbs "github.com/sitepilot/crm-backend/pkg/db"
)

// ScanEmptyGenerations finds orders stuck at `generating` with no code
// deliverable from the current run. For each candidate the output store is
// consulted as well; files_count lets the operator tell a truly dead run
// (zero files) from one that produced something before crashing.
type ScanEmptyGenerations struct {
	uowFactory *dbs.UOWFactory
	files      interfaces.FileStore
	cfg        *config.GenerationConfig
}

func NewScanEmptyGenerations(uowFactory *dbs.UOWFactory, files interfaces.FileStore, cfg *config.GenerationConfig) *ScanEmptyGenerations {
	return &ScanEmptyGenerations{uowFactory: uowFactory, files: files, cfg: cfg}
}

func (q *ScanEmptyGenerations) Query(ctx context.Context) (dto.ScanEmptyResponse, error) {
	resp := dto.ScanEmptyResponse{EmptyOrders: []dto.EmptyOrder{}}

	uow := q.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return resp, err
	}
	defer uow.Rollback()

	query := `SELECT o.id, o.customer_name FROM crm.site_orders o
		WHERE o.status = $1
		AND NOT EXISTS (
			SELECT 1 FROM crm.deliverables d
			WHERE d.order_id = o.id AND d.type = $2 AND d.retired_at IS NULL
		)
		ORDER BY o.id`
	rows, err := tx.Query(ctx, query, consts.OrderStatusGenerating, consts.DeliverableCode)
	if err != nil {
		return resp, fmt.Errorf("scanning orders, %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var order dto.EmptyOrder
		if err := rows.Scan(&order.OrderID, &order.CustomerName); err != nil {
			return resp, err
		}
		resp.EmptyOrders = append(resp.EmptyOrders, order)
	}
	if err := rows.Err(); err != nil {
		return resp, err
	}

	for i := range resp.EmptyOrders {
		count, err := q.files.CountFiles(ctx, q.cfg.OrderPrefix(resp.EmptyOrders[i].OrderID))
		if err != nil {
			// storage being down should not hide stuck orders, but it must
			// not vouch for emptiness either: -1 marks the count unverified
			slog.Error("counting output files", "orderID", resp.EmptyOrders[i].OrderID, "err", err)
			resp.EmptyOrders[i].FilesCount = -1
			continue
		}
		resp.EmptyOrders[i].FilesCount = count
	}

	resp.EmptyGenerations = len(resp.EmptyOrders)
	return resp, nil
}
