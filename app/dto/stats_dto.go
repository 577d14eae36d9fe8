package dto

// GetCampaignStatsRequest represents the request for campaign statistics
type GetCampaignStatsRequest struct {
	CampaignUUID string `json:"-"`
}

// CampaignStatsMetrics holds the event counts and rates for one slice
// (whole campaign or one variant).
type CampaignStatsMetrics struct {
	TotalSent       int64   `json:"total_sent"`
	Delivered       int64   `json:"delivered"`
	Opens           int64   `json:"opens"`
	UniqueOpens     int64   `json:"unique_opens"`
	Clicks          int64   `json:"clicks"`
	UniqueClicks    int64   `json:"unique_clicks"`
	Bounces         int64   `json:"bounces"`
	Unsubscribes    int64   `json:"unsubscribes"`
	Complaints      int64   `json:"complaints"`
	DeliveryRate    float64 `json:"delivery_rate"`
	OpenRate        float64 `json:"open_rate"`
	ClickRate       float64 `json:"click_rate"`
	BounceRate      float64 `json:"bounce_rate"`
	UnsubscribeRate float64 `json:"unsubscribe_rate"`
}

// VariantStats is the per-variant breakdown of campaign statistics
type VariantStats struct {
	Variant string               `json:"variant"`
	Metrics CampaignStatsMetrics `json:"metrics"`
}

// GetCampaignStatsResponse represents the aggregated statistics of a campaign
type GetCampaignStatsResponse struct {
	CampaignUUID string               `json:"campaign_uuid"`
	CampaignName string               `json:"campaign_name"`
	IsABTest     bool                 `json:"is_ab_test"`
	Metrics      CampaignStatsMetrics `json:"metrics"`
	Variants     []VariantStats       `json:"variants,omitempty"`
}
