package application

import (
	"github.com/sitepilot/crm-backend/internal/application/commands"
	"github.com/sitepilot/crm-backend/internal/application/query"
)

type Handlers struct {
	CreateOrder      *commands.CreateOrder
	SubmitOnboarding *commands.SubmitOnboarding
	TriggerBuild     *commands.TriggerBuild
	UpdateStatus     *commands.UpdateStatus
	ResetGeneration  *commands.ResetGeneration
	ResetAllEmpty    *commands.ResetAllEmpty
	Payment          *commands.Payment
	GetOrder         *query.GetOrder
	ReadLog          *query.ReadLog
	GetProgress      *query.GetProgress
	ScanEmpty        *query.ScanEmptyGenerations
}
