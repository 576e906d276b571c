package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sitepilot/crm-backend/internal/application/errs"
	"github.com/sitepilot/crm-backend/internal/application/interfaces"
	"github.com/sitepilot/crm-backend/internal/infra/db"
	"github.com/sitepilot/crm-backend/internal/infra/db/repo"
	"github.com/sitepilot/crm-backend/internal/infra/mail"
	dbs "github.com/sitepilot/crm-backend/pkg/db"
)

// Notify mails the customer when their order reaches a milestone. Every
// mail sent is journaled in crm.mails.
type Notify struct {
	mailer     interfaces.Mailer
	uowFactory *dbs.UOWFactory
}

func NewNotify(mailer interfaces.Mailer, uowFactory *dbs.UOWFactory) *Notify {
	return &Notify{mailer: mailer, uowFactory: uowFactory}
}

var _ interfaces.Notifier = (*Notify)(nil)

func (c *Notify) NotifySiteReady(ctx context.Context, orderID uint64) error {
	return c.send(ctx, orderID, func(order *db.SiteOrder) mail.MailData {
		return mail.SiteReadyData{
			CustomerName: order.CustomerName,
			SiteURL:      order.SiteURL,
			Year:         strconv.Itoa(time.Now().Year()),
		}
	})
}

func (c *Notify) NotifyDelivered(ctx context.Context, orderID uint64) error {
	return c.send(ctx, orderID, func(order *db.SiteOrder) mail.MailData {
		return mail.OrderDeliveredData{
			CustomerName:  order.CustomerName,
			SiteURL:       order.SiteURL,
			RepositoryURL: order.RepositoryURL,
			Year:          strconv.Itoa(time.Now().Year()),
		}
	})
}

func (c *Notify) send(ctx context.Context, orderID uint64, build func(*db.SiteOrder) mail.MailData) error {
	uow := c.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return err
	}
	defer uow.Rollback()

	order, err := repo.NewOrderRepo(tx).GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.NotFoundError{Entity: "order", ID: orderID}
		}
		return fmt.Errorf("loading order, %v", err)
	}
	mailData := build(order)

	var mailTemplate string
	err = tx.QueryRow(ctx, "SELECT content FROM crm.mail_templates WHERE type = $1", mailData.GetMailType()).Scan(&mailTemplate)
	if err != nil {
		return fmt.Errorf("loading mail template %v, %v", mailData.GetMailType(), err)
	}

	htmlBody, err := renderHTML(mailTemplate, mailData)
	if err != nil {
		return fmt.Errorf("error rendering html, %v", err)
	}

	record := db.Mail{
		MailType:   string(mailData.GetMailType()),
		Recipients: order.CustomerEmail,
		Subject:    mailData.GetSubject(),
		Content:    htmlBody,
		SentAt:     time.Now(),
	}
	_, err = tx.Exec(ctx, "INSERT INTO crm.mails(type, recipients, subject, content, sent_at) VALUES ($1,$2,$3,$4,$5)",
		record.MailType, record.Recipients, record.Subject, record.Content, record.SentAt,
	)
	if err != nil {
		return err
	}

	if err := c.mailer.SendMail([]string{order.CustomerEmail}, record.Subject, htmlBody); err != nil {
		return err
	}

	return uow.Commit()
}

func renderHTML(tmpl string, data mail.MailData) (string, error) {
	t, err := template.New("email").Parse(tmpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
