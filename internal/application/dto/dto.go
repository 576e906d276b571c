package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type CreateOrderRequest struct {
	CustomerID    uuid.UUID `json:"customerId"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	BasePrice     float64   `json:"basePrice"`
	TotalPrice    float64   `json:"totalPrice"`
	DeliveryDays  int       `json:"deliveryDays"`
}

type CreateOrderResponse struct {
	OrderID uint64 `json:"orderId"`
}

type SubmitOnboardingRequest struct {
	BusinessName string `json:"businessName"`
	Niche        string `json:"niche"`
	Location     string `json:"location"`
	Services     string `json:"services"`
	Tone         string `json:"tone"`
	PrimaryCTA   string `json:"primaryCta"`
}

type OrderResponse struct {
	ID            uint64     `json:"id"`
	CustomerID    uuid.UUID  `json:"customerId"`
	CustomerName  string     `json:"customerName"`
	CustomerEmail string     `json:"customerEmail"`
	Status        string     `json:"status"`
	BasePrice     float64    `json:"basePrice"`
	TotalPrice    float64    `json:"totalPrice"`
	DeliveryDays  int        `json:"deliveryDays"`
	SiteURL       string     `json:"siteUrl,omitempty"`
	RepositoryURL string     `json:"repositoryUrl,omitempty"`
	Onboarded     bool       `json:"onboarded"`
	CreatedAt     time.Time  `json:"createdAt"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
	OnboardedAt   *time.Time `json:"onboardedAt,omitempty"`
	DeliveredAt   *time.Time `json:"deliveredAt,omitempty"`
}

type TriggerBuildResponse struct {
	Status string `json:"status"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type UpdateStatusResponse struct {
	Status string `json:"status"`
}

type LogEntryView struct {
	ID        uint64          `json:"id"`
	Step      string          `json:"step"`
	Status    string          `json:"status"`
	Message   string          `json:"message"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

type LogResponse struct {
	Entries []LogEntryView `json:"entries"`
}

// StepView is the derived, read-only progress mapping of one display step.
type StepView struct {
	Type  string `json:"type"`
	State string `json:"state"` // completed | active | pending
}

type ProgressResponse struct {
	Status string     `json:"status"`
	Steps  []StepView `json:"steps"`
}

type EmptyOrder struct {
	OrderID      uint64 `json:"order_id"`
	CustomerName string `json:"customer_name"`
	FilesCount   int    `json:"files_count"`
}

type ScanEmptyResponse struct {
	EmptyGenerations int          `json:"empty_generations"`
	EmptyOrders      []EmptyOrder `json:"empty_orders"`
}

type ResetAllResponse struct {
	ResetCount int `json:"reset_count"`
}

type ResetOneResponse struct {
	OK bool `json:"ok"`
}
