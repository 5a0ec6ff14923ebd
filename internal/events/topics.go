package events

// Topic constants for domain events emitted by the discount engine.
const (
	TopicCampaignSaved         = "campaign.saved"
	TopicCampaignDeleted       = "campaign.deleted"
	TopicOrderCreated          = "order.created"
	TopicOrderStatusChanged    = "order.status_changed"
	TopicCampaignUsageRecorded = "campaign.usage_recorded"
)

// CampaignPayload accompanies campaign.saved and campaign.deleted.
type CampaignPayload struct {
	CampaignID int64  `json:"campaign_id"`
	Action     string `json:"action"`
	Force      bool   `json:"force,omitempty"`
}

// OrderStatusPayload accompanies order.status_changed.
type OrderStatusPayload struct {
	OrderID   int64  `json:"order_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// UsagePayload accompanies campaign.usage_recorded.
type UsagePayload struct {
	OrderID    int64 `json:"order_id"`
	CampaignID int64 `json:"campaign_id"`
	Inserted   bool  `json:"inserted"`
}

// DefaultTopics returns the canonical list of topics the engine emits.
func DefaultTopics() []string {
	return []string{
		TopicCampaignSaved,
		TopicCampaignDeleted,
		TopicOrderCreated,
		TopicOrderStatusChanged,
		TopicCampaignUsageRecorded,
	}
}
