package repo_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sitepilot/crm-backend/internal/application/consts"
	"github.com/sitepilot/crm-backend/internal/infra/db"
	"github.com/sitepilot/crm-backend/internal/infra/db/repo"
	"github.com/sitepilot/crm-backend/internal/testinfra"
	dbs "github.com/sitepilot/crm-backend/pkg/db"
	"github.com/stretchr/testify/require"
)

var uowFactory *dbs.UOWFactory

func TestMain(m *testing.M) {
	ctx := context.Background()

	uowFactory = dbs.NewUoWFactory(testinfra.Pool)
	code := m.Run()

	cleanup(ctx)

	os.Exit(code)
}

func newOrder(status consts.OrderStatus) db.SiteOrder {
	now := time.Now()
	return db.SiteOrder{
		CustomerID:    uuid.New(),
		CustomerName:  "Acme Plumbing",
		CustomerEmail: "owner@acme.test",
		Status:        status,
		BasePrice:     499,
		TotalPrice:    599,
		DeliveryDays:  7,
		RevisionsLeft: 2,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestInsertAndGetOrder(t *testing.T) {
	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)
	defer uow.Rollback()

	ctx := context.Background()
	orderRepo := repo.NewOrderRepo(tx)

	id, err := orderRepo.InsertOrder(ctx, newOrder(consts.OrderStatusPendingPayment))
	require.NoError(t, err)
	require.NotZero(t, id)

	order, err := orderRepo.GetOrderByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, consts.OrderStatusPendingPayment, order.Status)
	require.Equal(t, "Acme Plumbing", order.CustomerName)
	require.Nil(t, order.PaidAt)
}

func TestUpdateStatusIfIsCompareAndSet(t *testing.T) {
	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)
	defer uow.Rollback()

	ctx := context.Background()
	orderRepo := repo.NewOrderRepo(tx)

	id, err := orderRepo.InsertOrder(ctx, newOrder(consts.OrderStatusPaid))
	require.NoError(t, err)

	updated, err := orderRepo.UpdateStatusIf(ctx, id, consts.OrderStatusPaid, consts.OrderStatusGenerating)
	require.NoError(t, err)
	require.True(t, updated)

	// expected value no longer matches, the write must not apply
	updated, err = orderRepo.UpdateStatusIf(ctx, id, consts.OrderStatusPaid, consts.OrderStatusGenerating)
	require.NoError(t, err)
	require.False(t, updated)

	order, err := orderRepo.GetOrderByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, consts.OrderStatusGenerating, order.Status)
}

func TestLogAppendReadOrderAndArchive(t *testing.T) {
	ctx := context.Background()

	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)
	orderRepo := repo.NewOrderRepo(tx)
	id, err := orderRepo.InsertOrder(ctx, newOrder(consts.OrderStatusGenerating))
	require.NoError(t, err)
	require.NoError(t, uow.Commit())

	store := repo.NewPipelineStore(uowFactory)
	require.NoError(t, store.AppendLog(ctx, id, "briefing", consts.LogStatusInfo, "starting briefing", nil))
	require.NoError(t, store.AppendLog(ctx, id, "sitemap", consts.LogStatusInfo, "starting sitemap", nil))
	require.NoError(t, store.AppendLog(ctx, id, consts.LogStepSuccess, consts.LogStatusSuccess, "done",
		db.SuccessDetails{SiteURL: "https://a.test"}))

	uow = uowFactory.GetUoW()
	tx, err = uow.Begin()
	require.NoError(t, err)
	defer uow.Rollback()

	logRepo := repo.NewLogRepo(tx)
	entries, err := logRepo.ListLive(ctx, id)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i := 1; i < len(entries); i++ {
		require.Greater(t, entries[i].ID, entries[i-1].ID, "entries must come back in append order")
	}
	require.True(t, entries[2].Terminal())
	require.Equal(t, "https://a.test", db.MapDetailsToSuccess(entries[2].Details).SiteURL)

	require.NoError(t, logRepo.ArchiveLive(ctx, id))
	entries, err = logRepo.ListLive(ctx, id)
	require.NoError(t, err)
	require.Empty(t, entries, "archived entries leave the live view")
}

func TestDeliverableLifecycleAndRetire(t *testing.T) {
	ctx := context.Background()

	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)
	id, err := repo.NewOrderRepo(tx).InsertOrder(ctx, newOrder(consts.OrderStatusGenerating))
	require.NoError(t, err)
	require.NoError(t, uow.Commit())

	store := repo.NewPipelineStore(uowFactory)
	deliverableID, err := store.CreateDeliverable(ctx, id, consts.DeliverableBriefing)
	require.NoError(t, err)
	require.NoError(t, store.CompleteDeliverable(ctx, deliverableID, "the briefing"))

	uow = uowFactory.GetUoW()
	tx, err = uow.Begin()
	require.NoError(t, err)
	defer uow.Rollback()

	deliverableRepo := repo.NewDeliverableRepo(tx)
	live, err := deliverableRepo.ListLive(ctx, id)
	require.NoError(t, err)
	require.Len(t, live, 1)
	require.Equal(t, consts.DeliverableStatusReady, live[0].Status)
	require.Equal(t, "the briefing", live[0].Content)

	count, err := deliverableRepo.CountLiveByType(ctx, id, consts.DeliverableBriefing)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.NoError(t, deliverableRepo.RetireLive(ctx, id))
	live, err = deliverableRepo.ListLive(ctx, id)
	require.NoError(t, err)
	require.Empty(t, live, "retired deliverables leave the live view")
}

func cleanup(ctx context.Context) {
	for _, table := range []string{"crm.generation_logs", "crm.deliverables", "crm.onboardings", "crm.site_orders"} {
		if _, err := testinfra.Pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			log.Panicf("err cleaning up repo test %v", err)
		}
	}
}
