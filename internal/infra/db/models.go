package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sitepilot/crm-backend/internal/application/consts"
)

type SiteOrder struct {
	ID            uint64             `db:"id"`
	CustomerID    uuid.UUID          `db:"customer_id"`
	CustomerName  string             `db:"customer_name"`
	CustomerEmail string             `db:"customer_email"`
	Status        consts.OrderStatus `db:"status"`
	BasePrice     float64            `db:"base_price"`
	TotalPrice    float64            `db:"total_price"`
	DeliveryDays  int                `db:"delivery_days"`
	RevisionsLeft int                `db:"revisions_left"`
	SiteURL       string             `db:"site_url"`
	RepositoryURL string             `db:"repository_url"`
	CreatedAt     time.Time          `db:"created_at"`
	PaidAt        *time.Time         `db:"paid_at"`
	OnboardedAt   *time.Time         `db:"onboarded_at"`
	DeliveredAt   *time.Time         `db:"delivered_at"`
	UpdatedAt     time.Time          `db:"updated_at"`
}

type Onboarding struct {
	OrderID      uint64    `db:"order_id"`
	BusinessName string    `db:"business_name"`
	Niche        string    `db:"niche"`
	Location     string    `db:"location"`
	Services     string    `db:"services"`
	Tone         string    `db:"tone"`
	PrimaryCTA   string    `db:"primary_cta"`
	CreatedAt    time.Time `db:"created_at"`
}

type Deliverable struct {
	ID        uint64                   `db:"id"`
	OrderID   uint64                   `db:"order_id"`
	Type      consts.DeliverableType   `db:"type"`
	Status    consts.DeliverableStatus `db:"status"`
	Content   string                   `db:"content"`
	CreatedAt time.Time                `db:"created_at"`
	RetiredAt *time.Time               `db:"retired_at"`
}

type LogEntry struct {
	ID        uint64           `db:"id"`
	OrderID   uint64           `db:"order_id"`
	Step      string           `db:"step"`
	Status    consts.LogStatus `db:"status"`
	Message   string           `db:"message"`
	Details   json.RawMessage  `db:"details"`
	Archived  bool             `db:"archived"`
	CreatedAt time.Time        `db:"created_at"`
}

type Mail struct {
	ID         uint64    `db:"id"`
	MailType   string    `db:"type"`
	Recipients string    `db:"recipients"`
	Subject    string    `db:"subject"`
	Content    string    `db:"content"`
	SentAt     time.Time `db:"sent_at"`
}

// Terminal reports whether the entry finishes a run.
func (l LogEntry) Terminal() bool {
	return l.Step == consts.LogStepSuccess || l.Step == consts.LogStepError ||
		l.Status == consts.LogStatusSuccess || l.Status == consts.LogStatusError
}
