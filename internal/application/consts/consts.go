package consts

// OrderStatus is the single authoritative state of a site order.
type OrderStatus string

const (
	OrderStatusPendingPayment    OrderStatus = "pending_payment"
	OrderStatusPaid              OrderStatus = "paid"
	OrderStatusOnboardingPending OrderStatus = "onboarding_pending"
	OrderStatusBuilding          OrderStatus = "building"
	OrderStatusGenerating        OrderStatus = "generating"
	OrderStatusReview            OrderStatus = "review"
	OrderStatusDelivered         OrderStatus = "delivered"
	OrderStatusCancelled         OrderStatus = "cancelled"
)

var orderStatuses = map[OrderStatus]struct{}{
	OrderStatusPendingPayment:    {},
	OrderStatusPaid:              {},
	OrderStatusOnboardingPending: {},
	OrderStatusBuilding:          {},
	OrderStatusGenerating:        {},
	OrderStatusReview:            {},
	OrderStatusDelivered:         {},
	OrderStatusCancelled:         {},
}

func IsOrderStatus(s string) bool {
	_, ok := orderStatuses[OrderStatus(s)]
	return ok
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// transitions is the full edge list of the order state machine. Any status
// write not present here is rejected at the application boundary.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPendingPayment:    {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:              {OrderStatusOnboardingPending, OrderStatusBuilding, OrderStatusCancelled},
	OrderStatusOnboardingPending: {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusBuilding:          {OrderStatusBuilding, OrderStatusGenerating, OrderStatusCancelled},
	OrderStatusGenerating:        {OrderStatusReview, OrderStatusBuilding, OrderStatusCancelled},
	OrderStatusReview:            {OrderStatusDelivered, OrderStatusBuilding, OrderStatusCancelled},
	OrderStatusDelivered:         {},
	OrderStatusCancelled:         {},
}

func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Retriggerable reports whether a build may be (re)started from the status.
func Retriggerable(s OrderStatus) bool {
	switch s {
	case OrderStatusPaid, OrderStatusBuilding, OrderStatusGenerating, OrderStatusReview:
		return true
	}
	return false
}

type DeliverableType string

const (
	DeliverableBriefing    DeliverableType = "briefing"
	DeliverableSitemap     DeliverableType = "sitemap"
	DeliverableContentPlan DeliverableType = "content_plan"
	DeliverableWireframe   DeliverableType = "wireframe"
	DeliverableCode        DeliverableType = "code"
)

// GenerationPhases is the fixed phase order a build runs through. Each phase
// produces exactly one deliverable of the same type.
var GenerationPhases = []DeliverableType{
	DeliverableBriefing,
	DeliverableSitemap,
	DeliverableContentPlan,
	DeliverableWireframe,
	DeliverableCode,
}

type DeliverableStatus string

const (
	DeliverableStatusPending    DeliverableStatus = "pending"
	DeliverableStatusGenerating DeliverableStatus = "generating"
	DeliverableStatusReady      DeliverableStatus = "ready"
	DeliverableStatusApproved   DeliverableStatus = "approved"
	DeliverableStatusRejected   DeliverableStatus = "rejected"
)

type LogStatus string

const (
	LogStatusInfo    LogStatus = "info"
	LogStatusSuccess LogStatus = "success"
	LogStatusError   LogStatus = "error"
	LogStatusWarning LogStatus = "warning"
)

// Sentinel steps marking a run as finished.
const (
	LogStepSuccess = "SUCCESS"
	LogStepError   = "ERROR"
)
