package mail

import (
	"os"

	"github.com/sitepilot/crm-backend/pkg/env"
)

type MailConfig struct {
	SMTPHost string
	SMTPPort string
	Username string
	Password string
}

func NewMailConfig() *MailConfig {
	return &MailConfig{
		SMTPHost: env.GetEnv("CRM_MAIL_HOST", "smtp.sitepilot.dev"),
		SMTPPort: env.GetEnv("CRM_MAIL_PORT", "587"),
		Username: os.Getenv("CRM_MAIL_USERNAME"),
		Password: os.Getenv("CRM_MAIL_PASSWORD"),
	}
}
