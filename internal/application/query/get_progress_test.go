package query_test

import (
	"testing"

	"github.com/sitepilot/crm-backend/internal/application/consts"
	"github.com/sitepilot/crm-backend/internal/application/query"
	"github.com/sitepilot/crm-backend/internal/infra/db"
	"github.com/stretchr/testify/require"
)

func deliverable(t consts.DeliverableType, status consts.DeliverableStatus) db.Deliverable {
	return db.Deliverable{Type: t, Status: status}
}

func TestBuildStepsMidRun(t *testing.T) {
	steps := query.BuildSteps(consts.OrderStatusGenerating, []db.Deliverable{
		deliverable(consts.DeliverableBriefing, consts.DeliverableStatusReady),
		deliverable(consts.DeliverableSitemap, consts.DeliverableStatusGenerating),
	})

	require.Len(t, steps, len(consts.GenerationPhases))
	require.Equal(t, query.StepCompleted, steps[0].State)
	require.Equal(t, query.StepActive, steps[1].State)
	require.Equal(t, query.StepPending, steps[2].State)
	require.Equal(t, query.StepPending, steps[3].State)
	require.Equal(t, query.StepPending, steps[4].State)
}

func TestBuildStepsHeuristicActiveWithoutRow(t *testing.T) {
	// worker has not written its first deliverable yet: first gap shows active
	steps := query.BuildSteps(consts.OrderStatusGenerating, nil)
	require.Equal(t, query.StepActive, steps[0].State)
	for _, s := range steps[1:] {
		require.Equal(t, query.StepPending, s.State)
	}
}

func TestBuildStepsNoActiveOutsideBuild(t *testing.T) {
	steps := query.BuildSteps(consts.OrderStatusReview, []db.Deliverable{
		deliverable(consts.DeliverableBriefing, consts.DeliverableStatusApproved),
		deliverable(consts.DeliverableSitemap, consts.DeliverableStatusReady),
	})
	require.Equal(t, query.StepCompleted, steps[0].State)
	require.Equal(t, query.StepCompleted, steps[1].State)
	for _, s := range steps[2:] {
		require.Equal(t, query.StepPending, s.State)
	}
}

func TestBuildStepsRejectedIsNotCompleted(t *testing.T) {
	steps := query.BuildSteps(consts.OrderStatusGenerating, []db.Deliverable{
		deliverable(consts.DeliverableBriefing, consts.DeliverableStatusRejected),
	})
	require.Equal(t, query.StepPending, steps[0].State)
	// heuristic skips the rejected row's phase and lights the next gap
	require.Equal(t, query.StepActive, steps[1].State)
}
