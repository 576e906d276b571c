package interfaces

import (
	"context"
	"io"

	"github.com/sitepilot/crm-backend/internal/application/consts"
	"github.com/sitepilot/crm-backend/internal/infra/db"
)

// Tx-scoped repositories. A command opens a unit of work and constructs
// repos over its transaction.

type OrderRepo interface {
	GetOrderByID(ctx context.Context, id uint64) (*db.SiteOrder, error)
	InsertOrder(ctx context.Context, order db.SiteOrder) (uint64, error)
	HasOnboarding(ctx context.Context, orderID uint64) (bool, error)
	GetOnboarding(ctx context.Context, orderID uint64) (*db.Onboarding, error)
	InsertOnboarding(ctx context.Context, onboarding db.Onboarding) error
	// UpdateStatusIf is the compare-and-set every status transition goes
	// through: the write applies only when the row still holds `from`.
	UpdateStatusIf(ctx context.Context, id uint64, from, to consts.OrderStatus) (bool, error)
	StampPaid(ctx context.Context, id uint64) error
	StampOnboarded(ctx context.Context, id uint64) error
	StampDelivered(ctx context.Context, id uint64) error
	SetSiteURLs(ctx context.Context, id uint64, siteURL, repositoryURL string) error
}

type DeliverableRepo interface {
	ListLive(ctx context.Context, orderID uint64) ([]db.Deliverable, error)
	CountLiveByType(ctx context.Context, orderID uint64, t consts.DeliverableType) (int, error)
	RetireLive(ctx context.Context, orderID uint64) error
}

type LogRepo interface {
	ListLive(ctx context.Context, orderID uint64) ([]db.LogEntry, error)
	ArchiveLive(ctx context.Context, orderID uint64) error
}

// PipelineStore is the generation worker's durable write access. Each call
// is its own short transaction so progress survives a worker crash.
type PipelineStore interface {
	OrderSnapshot(ctx context.Context, orderID uint64) (*db.SiteOrder, *db.Onboarding, error)
	AppendLog(ctx context.Context, orderID uint64, step string, status consts.LogStatus, message string, details any) error
	CreateDeliverable(ctx context.Context, orderID uint64, t consts.DeliverableType) (uint64, error)
	CompleteDeliverable(ctx context.Context, deliverableID uint64, content string) error
}

// BuildRunner is the orchestrator's handle on the worker. TriggerBuild
// fires it and does not wait.
type BuildRunner interface {
	Run(ctx context.Context, orderID uint64) error
}

type FileStore interface {
	UploadFile(ctx context.Context, key string, contentType *string, body io.Reader) (string, error)
	CountFiles(ctx context.Context, prefix string) (int, error)
}

// ContentClient produces one phase's output. The generation algorithm
// behind it is opaque to the orchestration layer.
type ContentClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Mailer interface {
	SendMail(to []string, subject, body string) error
}

// Notifier sends customer-facing mails on milestone transitions. Errors are
// the caller's to log; a failed mail never rolls a transition back.
type Notifier interface {
	NotifySiteReady(ctx context.Context, orderID uint64) error
	NotifyDelivered(ctx context.Context, orderID uint64) error
}
