package consts_test

import (
	"testing"

	"github.com/sitepilot/crm-backend/internal/application/consts"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionAllowsListedEdges(t *testing.T) {
	allowed := [][2]consts.OrderStatus{
		{consts.OrderStatusPendingPayment, consts.OrderStatusPaid},
		{consts.OrderStatusPaid, consts.OrderStatusOnboardingPending},
		{consts.OrderStatusOnboardingPending, consts.OrderStatusPaid},
		{consts.OrderStatusPaid, consts.OrderStatusBuilding},
		{consts.OrderStatusBuilding, consts.OrderStatusGenerating},
		{consts.OrderStatusGenerating, consts.OrderStatusReview},
		{consts.OrderStatusGenerating, consts.OrderStatusBuilding},
		{consts.OrderStatusReview, consts.OrderStatusBuilding},
		{consts.OrderStatusReview, consts.OrderStatusDelivered},
		{consts.OrderStatusPaid, consts.OrderStatusCancelled},
		{consts.OrderStatusGenerating, consts.OrderStatusCancelled},
	}
	for _, edge := range allowed {
		require.True(t, consts.CanTransition(edge[0], edge[1]), "%s -> %s should be legal", edge[0], edge[1])
	}
}

func TestCanTransitionRejectsIllegalEdges(t *testing.T) {
	rejected := [][2]consts.OrderStatus{
		{consts.OrderStatusDelivered, consts.OrderStatusBuilding},
		{consts.OrderStatusCancelled, consts.OrderStatusPaid},
		{consts.OrderStatusPendingPayment, consts.OrderStatusGenerating},
		{consts.OrderStatusPendingPayment, consts.OrderStatusBuilding},
		{consts.OrderStatusReview, consts.OrderStatusGenerating},
		{consts.OrderStatusDelivered, consts.OrderStatusCancelled},
	}
	for _, edge := range rejected {
		require.False(t, consts.CanTransition(edge[0], edge[1]), "%s -> %s should be rejected", edge[0], edge[1])
	}
}

func TestTerminalStatuses(t *testing.T) {
	require.True(t, consts.OrderStatusDelivered.IsTerminal())
	require.True(t, consts.OrderStatusCancelled.IsTerminal())
	require.False(t, consts.OrderStatusGenerating.IsTerminal())
}

func TestRetriggerable(t *testing.T) {
	require.True(t, consts.Retriggerable(consts.OrderStatusPaid))
	require.True(t, consts.Retriggerable(consts.OrderStatusBuilding))
	require.True(t, consts.Retriggerable(consts.OrderStatusGenerating))
	require.True(t, consts.Retriggerable(consts.OrderStatusReview))
	require.False(t, consts.Retriggerable(consts.OrderStatusPendingPayment))
	require.False(t, consts.Retriggerable(consts.OrderStatusDelivered))
}
