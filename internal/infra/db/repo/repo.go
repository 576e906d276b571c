package repo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/sitepilot/crm-backend/internal/application/consts"
	"github.com/sitepilot/crm-backend/internal/application/interfaces"
	"github.com/sitepilot/crm-backend/internal/infra/db"
)

const orderColumns = `id, customer_id, customer_name, customer_email, status, base_price, total_price,
	delivery_days, revisions_left, COALESCE(site_url, ''), COALESCE(repository_url, ''),
	created_at, paid_at, onboarded_at, delivered_at, updated_at`

type OrderRepo struct {
	tx pgx.Tx
}

var _ interfaces.OrderRepo = (*OrderRepo)(nil)

func NewOrderRepo(tx pgx.Tx) *OrderRepo {
	return &OrderRepo{tx: tx}
}

func scanOrder(row pgx.Row) (*db.SiteOrder, error) {
	var order db.SiteOrder
	err := row.Scan(&order.ID, &order.CustomerID, &order.CustomerName, &order.CustomerEmail, &order.Status,
		&order.BasePrice, &order.TotalPrice, &order.DeliveryDays, &order.RevisionsLeft,
		&order.SiteURL, &order.RepositoryURL, &order.CreatedAt, &order.PaidAt, &order.OnboardedAt,
		&order.DeliveredAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepo) GetOrderByID(ctx context.Context, id uint64) (*db.SiteOrder, error) {
	query := "SELECT " + orderColumns + " FROM crm.site_orders WHERE id = $1"
	return scanOrder(r.tx.QueryRow(ctx, query, id))
}

func (r *OrderRepo) InsertOrder(ctx context.Context, order db.SiteOrder) (uint64, error) {
	query := `INSERT INTO crm.site_orders(customer_id, customer_name, customer_email, status, base_price,
			total_price, delivery_days, revisions_left, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id`
	var id uint64
	err := r.tx.QueryRow(ctx, query, order.CustomerID, order.CustomerName, order.CustomerEmail, order.Status,
		order.BasePrice, order.TotalPrice, order.DeliveryDays, order.RevisionsLeft,
		order.CreatedAt, order.UpdatedAt).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *OrderRepo) HasOnboarding(ctx context.Context, orderID uint64) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM crm.onboardings WHERE order_id = $1)", orderID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *OrderRepo) GetOnboarding(ctx context.Context, orderID uint64) (*db.Onboarding, error) {
	var onboarding db.Onboarding
	query := `SELECT order_id, business_name, niche, location, services, tone, primary_cta, created_at
		FROM crm.onboardings WHERE order_id = $1`
	err := r.tx.QueryRow(ctx, query, orderID).Scan(&onboarding.OrderID, &onboarding.BusinessName,
		&onboarding.Niche, &onboarding.Location, &onboarding.Services, &onboarding.Tone,
		&onboarding.PrimaryCTA, &onboarding.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &onboarding, nil
}

func (r *OrderRepo) InsertOnboarding(ctx context.Context, onboarding db.Onboarding) error {
	query := `INSERT INTO crm.onboardings(order_id, business_name, niche, location, services, tone, primary_cta, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.tx.Exec(ctx, query, onboarding.OrderID, onboarding.BusinessName, onboarding.Niche,
		onboarding.Location, onboarding.Services, onboarding.Tone, onboarding.PrimaryCTA, onboarding.CreatedAt)
	return err
}

func (r *OrderRepo) UpdateStatusIf(ctx context.Context, id uint64, from, to consts.OrderStatus) (bool, error) {
	tag, err := r.tx.Exec(ctx,
		"UPDATE crm.site_orders SET status = $1, updated_at = now() WHERE id = $2 AND status = $3",
		to, id, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *OrderRepo) StampPaid(ctx context.Context, id uint64) error {
	_, err := r.tx.Exec(ctx, "UPDATE crm.site_orders SET paid_at = now() WHERE id = $1 AND paid_at IS NULL", id)
	return err
}

func (r *OrderRepo) StampOnboarded(ctx context.Context, id uint64) error {
	_, err := r.tx.Exec(ctx, "UPDATE crm.site_orders SET onboarded_at = now() WHERE id = $1 AND onboarded_at IS NULL", id)
	return err
}

func (r *OrderRepo) StampDelivered(ctx context.Context, id uint64) error {
	_, err := r.tx.Exec(ctx, "UPDATE crm.site_orders SET delivered_at = now() WHERE id = $1 AND delivered_at IS NULL", id)
	return err
}

func (r *OrderRepo) SetSiteURLs(ctx context.Context, id uint64, siteURL, repositoryURL string) error {
	_, err := r.tx.Exec(ctx,
		"UPDATE crm.site_orders SET site_url = NULLIF($1, ''), repository_url = NULLIF($2, ''), updated_at = now() WHERE id = $3",
		siteURL, repositoryURL, id)
	return err
}

type DeliverableRepo struct {
	tx pgx.Tx
}

var _ interfaces.DeliverableRepo = (*DeliverableRepo)(nil)

func NewDeliverableRepo(tx pgx.Tx) *DeliverableRepo {
	return &DeliverableRepo{tx: tx}
}

func (r *DeliverableRepo) ListLive(ctx context.Context, orderID uint64) ([]db.Deliverable, error) {
	query := `SELECT id, order_id, type, status, content, created_at, retired_at
		FROM crm.deliverables WHERE order_id = $1 AND retired_at IS NULL ORDER BY id`
	rows, err := r.tx.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deliverables []db.Deliverable
	for rows.Next() {
		var d db.Deliverable
		if err := rows.Scan(&d.ID, &d.OrderID, &d.Type, &d.Status, &d.Content, &d.CreatedAt, &d.RetiredAt); err != nil {
			return nil, err
		}
		deliverables = append(deliverables, d)
	}
	return deliverables, rows.Err()
}

func (r *DeliverableRepo) CountLiveByType(ctx context.Context, orderID uint64, t consts.DeliverableType) (int, error) {
	var count int
	err := r.tx.QueryRow(ctx,
		"SELECT count(*) FROM crm.deliverables WHERE order_id = $1 AND type = $2 AND retired_at IS NULL",
		orderID, t).Scan(&count)
	return count, err
}

// RetireLive soft-invalidates the previous run's artifacts. Nothing is
// hard-deleted.
func (r *DeliverableRepo) RetireLive(ctx context.Context, orderID uint64) error {
	_, err := r.tx.Exec(ctx,
		"UPDATE crm.deliverables SET retired_at = now() WHERE order_id = $1 AND retired_at IS NULL", orderID)
	return err
}

type LogRepo struct {
	tx pgx.Tx
}

var _ interfaces.LogRepo = (*LogRepo)(nil)

func NewLogRepo(tx pgx.Tx) *LogRepo {
	return &LogRepo{tx: tx}
}

func (r *LogRepo) ListLive(ctx context.Context, orderID uint64) ([]db.LogEntry, error) {
	query := `SELECT id, order_id, step, status, message, details, archived, created_at
		FROM crm.generation_logs WHERE order_id = $1 AND NOT archived ORDER BY id`
	rows, err := r.tx.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []db.LogEntry
	for rows.Next() {
		var e db.LogEntry
		if err := rows.Scan(&e.ID, &e.OrderID, &e.Step, &e.Status, &e.Message, &e.Details, &e.Archived, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *LogRepo) ArchiveLive(ctx context.Context, orderID uint64) error {
	_, err := r.tx.Exec(ctx,
		"UPDATE crm.generation_logs SET archived = true WHERE order_id = $1 AND NOT archived", orderID)
	return err
}
