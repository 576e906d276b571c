package worker_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sitepilot/crm-backend/internal/application/consts"
	"github.com/sitepilot/crm-backend/internal/infra/config"
	"github.com/sitepilot/crm-backend/internal/infra/db"
	"github.com/sitepilot/crm-backend/internal/infra/worker"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	order       db.SiteOrder
	onboarding  db.Onboarding
	logs        []db.LogEntry
	deliverable map[uint64]*db.Deliverable
	nextID      uint64
}

func newMemStore(status consts.OrderStatus) *memStore {
	return &memStore{
		order: db.SiteOrder{ID: 42, CustomerID: uuid.New(), CustomerName: "Acme", Status: status},
		onboarding: db.Onboarding{
			OrderID: 42, BusinessName: "Acme Plumbing", Niche: "plumbing",
			Location: "Lisbon", Services: "repairs", Tone: "friendly", PrimaryCTA: "Call now",
		},
		deliverable: make(map[uint64]*db.Deliverable),
	}
}

func (s *memStore) OrderSnapshot(ctx context.Context, orderID uint64) (*db.SiteOrder, *db.Onboarding, error) {
	order, onboarding := s.order, s.onboarding
	return &order, &onboarding, nil
}

func (s *memStore) AppendLog(ctx context.Context, orderID uint64, step string, status consts.LogStatus, message string, details any) error {
	s.nextID++
	s.logs = append(s.logs, db.LogEntry{
		ID: s.nextID, OrderID: orderID, Step: step, Status: status,
		Message: message, Details: db.MapToRawMessage(details), CreatedAt: time.Now(),
	})
	return nil
}

func (s *memStore) CreateDeliverable(ctx context.Context, orderID uint64, t consts.DeliverableType) (uint64, error) {
	s.nextID++
	s.deliverable[s.nextID] = &db.Deliverable{
		ID: s.nextID, OrderID: orderID, Type: t, Status: consts.DeliverableStatusGenerating,
	}
	return s.nextID, nil
}

func (s *memStore) CompleteDeliverable(ctx context.Context, deliverableID uint64, content string) error {
	d, ok := s.deliverable[deliverableID]
	if !ok {
		return errors.New("no such deliverable")
	}
	d.Status = consts.DeliverableStatusReady
	d.Content = content
	return nil
}

type scriptedContent struct {
	calls    int
	failCall int // 0 means never fail
}

func (c *scriptedContent) Generate(ctx context.Context, prompt string) (string, error) {
	c.calls++
	if c.failCall != 0 && c.calls == c.failCall {
		return "", errors.New("model unavailable")
	}
	return fmt.Sprintf("content %d", c.calls), nil
}

type memFiles struct {
	uploads []string
}

func (f *memFiles) UploadFile(ctx context.Context, key string, contentType *string, body io.Reader) (string, error) {
	f.uploads = append(f.uploads, key)
	return "https://cdn.example.com/" + key, nil
}

func (f *memFiles) CountFiles(ctx context.Context, prefix string) (int, error) {
	return len(f.uploads), nil
}

func testConfig() *config.GenerationConfig {
	return &config.GenerationConfig{OutputPrefix: "orders/", RepoBaseURL: "https://git.example.com/sites"}
}

func TestRunProducesAllPhasesAndTerminalSuccess(t *testing.T) {
	store := newMemStore(consts.OrderStatusGenerating)
	files := &memFiles{}
	g := worker.NewGenerator(store, &scriptedContent{}, files, testConfig())

	require.NoError(t, g.Run(context.Background(), 42))

	// one ready deliverable per phase, created in phase order
	var types []consts.DeliverableType
	for id := uint64(1); id <= store.nextID; id++ {
		if d, ok := store.deliverable[id]; ok {
			require.Equal(t, consts.DeliverableStatusReady, d.Status)
			require.NotEmpty(t, d.Content)
			types = append(types, d.Type)
		}
	}
	require.Equal(t, consts.GenerationPhases, types)

	last := store.logs[len(store.logs)-1]
	require.Equal(t, consts.LogStepSuccess, last.Step)
	require.Equal(t, consts.LogStatusSuccess, last.Status)
	success := db.MapDetailsToSuccess(last.Details)
	require.Equal(t, "https://cdn.example.com/orders/42/site/index.html", success.SiteURL)
	require.Equal(t, "https://git.example.com/sites/42", success.RepositoryURL)

	require.Equal(t, []string{"orders/42/site/index.html"}, files.uploads)
}

func TestReadyDeliverableAlwaysHasLogTrail(t *testing.T) {
	store := newMemStore(consts.OrderStatusGenerating)
	g := worker.NewGenerator(store, &scriptedContent{}, &memFiles{}, testConfig())
	require.NoError(t, g.Run(context.Background(), 42))

	// for every ready deliverable there is an earlier "starting" entry of its step
	for _, d := range store.deliverable {
		var found bool
		for _, entry := range store.logs {
			if entry.ID < d.ID && entry.Step == string(d.Type) {
				found = true
				break
			}
		}
		require.True(t, found, "deliverable %s has no preceding log entry", d.Type)
	}
}

func TestRunFailureWritesTerminalErrorOnly(t *testing.T) {
	store := newMemStore(consts.OrderStatusGenerating)
	// third generate call fails, inside content_plan
	g := worker.NewGenerator(store, &scriptedContent{failCall: 3}, &memFiles{}, testConfig())

	require.Error(t, g.Run(context.Background(), 42))

	last := store.logs[len(store.logs)-1]
	require.Equal(t, consts.LogStepError, last.Step)
	require.Equal(t, consts.LogStatusError, last.Status)

	for _, entry := range store.logs[:len(store.logs)-1] {
		require.NotEqual(t, consts.LogStepSuccess, entry.Step)
	}

	var ready, generating int
	for _, d := range store.deliverable {
		switch d.Status {
		case consts.DeliverableStatusReady:
			ready++
		case consts.DeliverableStatusGenerating:
			generating++
		}
	}
	require.Equal(t, 2, ready, "briefing and sitemap finished before the failure")
	require.Equal(t, 1, generating, "content_plan was left mid-flight")
}

func TestRunAbortsWhenOrderNoLongerGenerating(t *testing.T) {
	store := newMemStore(consts.OrderStatusBuilding)
	content := &scriptedContent{}
	g := worker.NewGenerator(store, content, &memFiles{}, testConfig())

	require.NoError(t, g.Run(context.Background(), 42))
	require.Zero(t, content.calls, "no phase may run after a concurrent reset")
	require.Empty(t, store.logs)
}
