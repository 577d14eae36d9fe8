package businessflow

import (
	"testing"

	"github.com/amirphl/Susanoo/models"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeEventName(t *testing.T) {
	t.Run("SendGridNames", func(t *testing.T) {
		cases := map[string]models.EventType{
			"delivered":   models.EventTypeDelivered,
			"open":        models.EventTypeOpened,
			"click":       models.EventTypeClicked,
			"bounce":      models.EventTypeBounced,
			"spamreport":  models.EventTypeComplained,
			"unsubscribe": models.EventTypeUnsubscribed,
			"dropped":     models.EventTypeDropped,
		}
		for wire, want := range cases {
			got, ok := NormalizeEventName("sendgrid", wire)
			assert.True(t, ok, wire)
			assert.Equal(t, want, got, wire)
		}
	})

	t.Run("ResendNames", func(t *testing.T) {
		cases := map[string]models.EventType{
			"email.delivered":  models.EventTypeDelivered,
			"email.opened":     models.EventTypeOpened,
			"email.clicked":    models.EventTypeClicked,
			"email.bounced":    models.EventTypeBounced,
			"email.complained": models.EventTypeComplained,
		}
		for wire, want := range cases {
			got, ok := NormalizeEventName("resend", wire)
			assert.True(t, ok, wire)
			assert.Equal(t, want, got, wire)
		}
	})

	t.Run("UnknownNameSkipped", func(t *testing.T) {
		_, ok := NormalizeEventName("sendgrid", "processed")
		assert.False(t, ok)

		_, ok = NormalizeEventName("resend", "email.sent")
		assert.False(t, ok)
	})

	t.Run("UnknownProviderUsesCanonicalNames", func(t *testing.T) {
		got, ok := NormalizeEventName("other", "delivered")
		assert.True(t, ok)
		assert.Equal(t, models.EventTypeDelivered, got)

		_, ok = NormalizeEventName("other", "open")
		assert.False(t, ok)
	})
}

func TestStripMessageIDSuffix(t *testing.T) {
	assert.Equal(t, "abc123", StripMessageIDSuffix("abc123.filterdrecv-1234"))
	assert.Equal(t, "abc123", StripMessageIDSuffix("abc123"))
	assert.Equal(t, "abc123", StripMessageIDSuffix("abc123.first.second"))
	assert.Equal(t, "", StripMessageIDSuffix(".leading"))
	assert.Equal(t, "", StripMessageIDSuffix(""))
}
