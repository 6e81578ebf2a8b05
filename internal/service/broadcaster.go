package service

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToEditors(funnelID string, msgType string, payload interface{})
}

// Event types pushed to editors watching a funnel
const (
	EventClickRecorded   = "click_recorded"
	EventLeadCaptured    = "lead_captured"
	EventOutcomeResolved = "outcome_resolved"
	EventFunnelUpdated   = "funnel_updated"
)
