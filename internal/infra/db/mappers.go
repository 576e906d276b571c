package db

import (
	"encoding/json"
	"log/slog"

	"github.com/sitepilot/crm-backend/internal/application/dto"
)

func MapOrderToResponse(order SiteOrder, onboarded bool) dto.OrderResponse {
	return dto.OrderResponse{
		ID:            order.ID,
		CustomerID:    order.CustomerID,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		Status:        string(order.Status),
		BasePrice:     order.BasePrice,
		TotalPrice:    order.TotalPrice,
		DeliveryDays:  order.DeliveryDays,
		SiteURL:       order.SiteURL,
		RepositoryURL: order.RepositoryURL,
		Onboarded:     onboarded,
		CreatedAt:     order.CreatedAt,
		PaidAt:        order.PaidAt,
		OnboardedAt:   order.OnboardedAt,
		DeliveredAt:   order.DeliveredAt,
	}
}

func MapLogEntryToView(entry LogEntry) dto.LogEntryView {
	return dto.LogEntryView{
		ID:        entry.ID,
		Step:      entry.Step,
		Status:    string(entry.Status),
		Message:   entry.Message,
		Details:   entry.Details,
		CreatedAt: entry.CreatedAt,
	}
}

// SuccessDetails is the structured payload the worker attaches to the
// terminal SUCCESS entry.
type SuccessDetails struct {
	SiteURL       string `json:"siteUrl"`
	RepositoryURL string `json:"repositoryUrl"`
}

func MapDetailsToSuccess(details json.RawMessage) SuccessDetails {
	var out SuccessDetails
	if len(details) == 0 {
		return out
	}
	if err := json.Unmarshal(details, &out); err != nil {
		slog.Error("error unmarshaling log details", "err", err)
	}
	return out
}

func MapToRawMessage(data any) json.RawMessage {
	if data == nil {
		return nil
	}
	bytes, err := json.Marshal(data)
	if err != nil {
		slog.Error("error marshaling details", "err", err)
		return nil
	}
	return bytes
}
