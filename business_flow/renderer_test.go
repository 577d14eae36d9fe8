package businessflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	context := map[string]any{
		"contact": map[string]any{
			"first_name":   "Jane",
			"last_name":    "Doe",
			"display_name": "Jane Doe",
			"email":        "jane@example.com",
		},
		"organisation": map[string]any{
			"name": "Acme Corp",
		},
		"campaign": map[string]any{
			"name": "Spring Launch",
		},
		"system": map[string]any{
			"unsubscribe_url": "https://mail.example.com/unsubscribe/abc",
		},
		"custom": map[string]any{
			"discount": 15,
		},
	}

	t.Run("SimpleSubstitution", func(t *testing.T) {
		out := Render("Hello {{contact.first_name}}!", context)
		assert.Equal(t, "Hello Jane!", out)
	})

	t.Run("MultiplePlaceholders", func(t *testing.T) {
		out := Render("{{contact.first_name}} {{contact.last_name}} works at {{organisation.name}}", context)
		assert.Equal(t, "Jane Doe works at Acme Corp", out)
	})

	t.Run("InnerSpacingAllowed", func(t *testing.T) {
		out := Render("Hello {{ contact.first_name }}!", context)
		assert.Equal(t, "Hello Jane!", out)
	})

	t.Run("MissingPathRendersEmpty", func(t *testing.T) {
		out := Render("Hello {{contact.prenom}} from {{organisation.nom}}!", context)
		assert.Equal(t, "Hello  from !", out)
	})

	t.Run("MissingBranchRendersEmpty", func(t *testing.T) {
		out := Render("Ref {{order.id}}", context)
		assert.Equal(t, "Ref ", out)
	})

	t.Run("BranchAsLeafRendersEmpty", func(t *testing.T) {
		out := Render("All about {{contact}}", context)
		assert.Equal(t, "All about ", out)
	})

	t.Run("NilValueRendersEmpty", func(t *testing.T) {
		out := Render("{{contact.phone}}", map[string]any{
			"contact": map[string]any{"phone": nil},
		})
		assert.Equal(t, "", out)
	})

	t.Run("NonStringLeafFormatted", func(t *testing.T) {
		out := Render("Save {{custom.discount}}%", context)
		assert.Equal(t, "Save 15%", out)
	})

	t.Run("SystemUnsubscribeURL", func(t *testing.T) {
		out := Render(`<a href="{{system.unsubscribe_url}}">Unsubscribe</a>`, context)
		assert.Equal(t, `<a href="https://mail.example.com/unsubscribe/abc">Unsubscribe</a>`, out)
	})

	t.Run("NoPlaceholders", func(t *testing.T) {
		out := Render("Plain text only.", context)
		assert.Equal(t, "Plain text only.", out)
	})

	t.Run("LiteralBracesNeverSurvive", func(t *testing.T) {
		out := Render("{{contact.first_name}}{{missing.path}}", context)
		assert.NotContains(t, out, "{{")
		assert.NotContains(t, out, "}}")
	})
}

func TestRenderContextRoundTrip(t *testing.T) {
	rc := RenderContext{
		Contact: ContactContext{
			Email:       "jane@example.com",
			FirstName:   "Jane",
			DisplayName: "Jane Doe",
		},
		Organisation: OrganisationContext{Name: "Acme Corp"},
		Campaign:     CampaignContext{Name: "Spring Launch", FromName: "Acme News"},
		Custom:       map[string]any{"plan": "pro"},
	}

	m := rc.ToMap()
	rebuilt := renderContextFromMetadata(m)

	assert.Equal(t, rc.Contact, rebuilt.Contact)
	assert.Equal(t, rc.Organisation, rebuilt.Organisation)
	assert.Equal(t, rc.Campaign, rebuilt.Campaign)
	assert.Equal(t, rc.Custom, rebuilt.Custom)
}
