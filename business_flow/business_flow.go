// Package businessflow contains the business logic for the campaign delivery engine.
package businessflow

import (
	"github.com/amirphl/Susanoo/models"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds caller-related information for logging and audit
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// RenderContext is the typed rendering context built per recipient. It is
// converted to the generic nested map only at the render boundary, so business
// logic never touches untyped map access.
type RenderContext struct {
	Contact      ContactContext      `json:"contact"`
	Organisation OrganisationContext `json:"organisation"`
	Campaign     CampaignContext     `json:"campaign"`
	Custom       map[string]any      `json:"custom,omitempty"`
	System       SystemContext       `json:"system"`
}

// ContactContext carries the recipient fields exposed to templates
type ContactContext struct {
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DisplayName string `json:"display_name"`
}

// OrganisationContext carries the organisation fields exposed to templates
type OrganisationContext struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

// CampaignContext carries the campaign fields exposed to templates
type CampaignContext struct {
	Name     string `json:"name"`
	FromName string `json:"from_name"`
}

// SystemContext carries engine-computed values exposed to templates
type SystemContext struct {
	UnsubscribeURL string `json:"unsubscribe_url"`
}

// ToMap flattens the typed context into the nested map the renderer walks.
func (rc *RenderContext) ToMap() map[string]any {
	m := map[string]any{
		"contact": map[string]any{
			"email":        rc.Contact.Email,
			"first_name":   rc.Contact.FirstName,
			"last_name":    rc.Contact.LastName,
			"display_name": rc.Contact.DisplayName,
		},
		"organisation": map[string]any{
			"name":   rc.Organisation.Name,
			"domain": rc.Organisation.Domain,
		},
		"campaign": map[string]any{
			"name":      rc.Campaign.Name,
			"from_name": rc.Campaign.FromName,
		},
		"system": map[string]any{
			"unsubscribe_url": rc.System.UnsubscribeURL,
		},
	}
	if len(rc.Custom) > 0 {
		m["custom"] = rc.Custom
	}
	return m
}

// renderContextFromMetadata rebuilds a typed context from the map stored in
// Send.Metadata at scheduling time. Values absent from the map stay zero so
// live data can fill the gaps at dispatch time.
func renderContextFromMetadata(meta models.JSONMap) RenderContext {
	var rc RenderContext

	if contact, ok := meta["contact"].(map[string]any); ok {
		rc.Contact.Email, _ = contact["email"].(string)
		rc.Contact.FirstName, _ = contact["first_name"].(string)
		rc.Contact.LastName, _ = contact["last_name"].(string)
		rc.Contact.DisplayName, _ = contact["display_name"].(string)
	}
	if org, ok := meta["organisation"].(map[string]any); ok {
		rc.Organisation.Name, _ = org["name"].(string)
		rc.Organisation.Domain, _ = org["domain"].(string)
	}
	if campaign, ok := meta["campaign"].(map[string]any); ok {
		rc.Campaign.Name, _ = campaign["name"].(string)
		rc.Campaign.FromName, _ = campaign["from_name"].(string)
	}
	if custom, ok := meta["custom"].(map[string]any); ok {
		rc.Custom = custom
	}
	if system, ok := meta["system"].(map[string]any); ok {
		rc.System.UnsubscribeURL, _ = system["unsubscribe_url"].(string)
	}

	return rc
}
