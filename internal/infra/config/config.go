package config

import (
	"strconv"

	"github.com/sitepilot/crm-backend/pkg/env"
)

type GenerationConfig struct {
	OutputPrefix string
	RepoBaseURL  string
}

func NewGenerationConfig() *GenerationConfig {
	return &GenerationConfig{
		OutputPrefix: env.GetEnv("GEN_OUTPUT_PREFIX", "orders/"),
		RepoBaseURL:  env.GetEnv("GEN_REPO_BASE_URL", "https://git.sitepilot.dev/sites"),
	}
}

// OrderPrefix is the object-store prefix holding one order's generated site.
func (c *GenerationConfig) OrderPrefix(orderID uint64) string {
	return c.OutputPrefix + strconv.FormatUint(orderID, 10) + "/site/"
}
