package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sitepilot/crm-backend/internal/application/consts"
	"github.com/sitepilot/crm-backend/internal/application/interfaces"
	"github.com/sitepilot/crm-backend/internal/infra/config"
	"github.com/sitepilot/crm-backend/internal/infra/db"
)

// Generator runs the build phases for one order. It owns no status
// transitions: outcomes are communicated exclusively through the log, the
// completion poller advances the order afterwards. If the process dies
// mid-run the order stays at `generating` with no terminal entry, which is
// what the consistency audit looks for.
type Generator struct {
	store   interfaces.PipelineStore
	content interfaces.ContentClient
	files   interfaces.FileStore
	cfg     *config.GenerationConfig
}

var _ interfaces.BuildRunner = (*Generator)(nil)

func NewGenerator(store interfaces.PipelineStore, content interfaces.ContentClient, files interfaces.FileStore, cfg *config.GenerationConfig) *Generator {
	return &Generator{store: store, content: content, files: files, cfg: cfg}
}

func (g *Generator) Run(ctx context.Context, orderID uint64) error {
	order, onboarding, err := g.store.OrderSnapshot(ctx, orderID)
	if err != nil {
		g.fail(ctx, orderID, fmt.Errorf("loading order, %v", err))
		return err
	}
	if order.Status != consts.OrderStatusGenerating {
		// trigger committed first, a mismatch means a concurrent reset won
		slog.Warn("order no longer generating, aborting run", "orderID", orderID, "status", order.Status)
		return nil
	}

	var codeContent string
	for _, phase := range consts.GenerationPhases {
		content, err := g.runPhase(ctx, orderID, phase, onboarding)
		if err != nil {
			g.fail(ctx, orderID, fmt.Errorf("phase %s, %v", phase, err))
			return err
		}
		if phase == consts.DeliverableCode {
			codeContent = content
		}
	}

	siteURL, err := g.publish(ctx, orderID, codeContent)
	if err != nil {
		g.fail(ctx, orderID, fmt.Errorf("publishing site, %v", err))
		return err
	}
	repoURL := g.cfg.RepoBaseURL + "/" + strconv.FormatUint(orderID, 10)

	details := db.SuccessDetails{SiteURL: siteURL, RepositoryURL: repoURL}
	if err := g.store.AppendLog(ctx, orderID, consts.LogStepSuccess, consts.LogStatusSuccess,
		"site generation finished", details); err != nil {
		return err
	}
	slog.Info("generation finished", "orderID", orderID, "siteURL", siteURL)
	return nil
}

func (g *Generator) runPhase(ctx context.Context, orderID uint64, phase consts.DeliverableType, onboarding *db.Onboarding) (string, error) {
	if err := g.store.AppendLog(ctx, orderID, string(phase), consts.LogStatusInfo,
		fmt.Sprintf("starting %s", phase), nil); err != nil {
		return "", err
	}

	deliverableID, err := g.store.CreateDeliverable(ctx, orderID, phase)
	if err != nil {
		return "", err
	}

	content, err := g.content.Generate(ctx, buildPrompt(phase, onboarding))
	if err != nil {
		return "", err
	}

	if err := g.store.CompleteDeliverable(ctx, deliverableID, content); err != nil {
		return "", err
	}
	return content, g.store.AppendLog(ctx, orderID, string(phase), consts.LogStatusInfo,
		fmt.Sprintf("%s ready", phase), nil)
}

func (g *Generator) publish(ctx context.Context, orderID uint64, code string) (string, error) {
	key := g.cfg.OrderPrefix(orderID) + "index.html"
	return g.files.UploadFile(ctx, key, nil, strings.NewReader(code))
}

// fail records the terminal ERROR entry. The order status is deliberately
// left at `generating`: errors are surfaced, not silently reverted.
func (g *Generator) fail(ctx context.Context, orderID uint64, cause error) {
	slog.Error("generation failed", "orderID", orderID, "err", cause)
	if err := g.store.AppendLog(ctx, orderID, consts.LogStepError, consts.LogStatusError,
		cause.Error(), nil); err != nil {
		slog.Error("could not record failure", "orderID", orderID, "err", err)
	}
}

func buildPrompt(phase consts.DeliverableType, ob *db.Onboarding) string {
	base := fmt.Sprintf("Business: %s. Niche: %s. Location: %s. Services: %s. Tone: %s. Primary call to action: %s.",
		ob.BusinessName, ob.Niche, ob.Location, ob.Services, ob.Tone, ob.PrimaryCTA)

	switch phase {
	case consts.DeliverableBriefing:
		return base + " Write a concise creative briefing for this business's website."
	case consts.DeliverableSitemap:
		return base + " Propose a sitemap for a one-page marketing site, as a list of sections."
	case consts.DeliverableContentPlan:
		return base + " Write the copy plan for each section of the site."
	case consts.DeliverableWireframe:
		return base + " Describe a wireframe layout for each section."
	case consts.DeliverableCode:
		return base + " Produce a complete single-file HTML page implementing the site."
	}
	return base
}
