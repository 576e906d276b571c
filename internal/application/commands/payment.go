package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/sitepilot/crm-backend/internal/application/consts"
	"github.com/sitepilot/crm-backend/internal/infra/db/repo"
	dbs "github.com/sitepilot/crm-backend/pkg/db"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

type PaymentConfig struct {
	apiKey     string
	webhookKey string
}

func NewPaymentConfig() *PaymentConfig {
	return &PaymentConfig{
		apiKey:     os.Getenv("STRIPE_KEY"),
		webhookKey: os.Getenv("STRIPE_WEBHOOK"),
	}
}

// Payment handles the payment-confirmation callback. Capture itself lives
// with the payment provider; only the confirmation event lands here and
// drives pending_payment -> paid.
type Payment struct {
	uowFactory *dbs.UOWFactory
	cfg        *PaymentConfig
}

func NewPayment(uowFactory *dbs.UOWFactory, cfg *PaymentConfig) *Payment {
	stripe.Key = cfg.apiKey
	stripe.SetHTTPClient(&http.Client{Timeout: 10 * time.Second})
	return &Payment{
		uowFactory: uowFactory,
		cfg:        cfg,
	}
}

func (c *Payment) Webhook(ctx context.Context, req []byte, stripeHeader string) error {
	event, err := webhook.ConstructEvent(req, stripeHeader, c.cfg.webhookKey)
	if err != nil {
		return fmt.Errorf("error constructing event, %v", err)
	}

	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return fmt.Errorf("error parsing session, %v", err)
		}

		orderID, err := strconv.ParseUint(session.ClientReferenceID, 10, 64)
		if err != nil {
			return fmt.Errorf("session %s has no order reference, %v", session.ID, err)
		}
		return c.confirm(ctx, orderID)
	default:
		slog.Debug("ignoring stripe event", "type", event.Type)
	}

	return nil
}

func (c *Payment) confirm(ctx context.Context, orderID uint64) error {
	uow := c.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return err
	}
	defer uow.Rollback()

	orderRepo := repo.NewOrderRepo(tx)
	updated, err := orderRepo.UpdateStatusIf(ctx, orderID, consts.OrderStatusPendingPayment, consts.OrderStatusPaid)
	if err != nil {
		return fmt.Errorf("transitioning order, %v", err)
	}
	if !updated {
		// webhook retries land here, payment was already recorded
		slog.Info("order already paid", "orderID", orderID)
		return nil
	}
	if err := orderRepo.StampPaid(ctx, orderID); err != nil {
		return fmt.Errorf("stamping timestamp, %v", err)
	}

	slog.Info("payment confirmed", "orderID", orderID)
	return uow.Commit()
}
