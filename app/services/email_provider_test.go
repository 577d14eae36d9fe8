package services

import (
	"context"
	"errors"
	"testing"

	"github.com/amirphl/Susanoo/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderRegistry(t *testing.T) {
	registry := NewProviderRegistry()
	mock := NewMockEmailProvider("sendgrid")
	registry.Register(models.CampaignProviderSendGrid, mock)

	t.Run("ResolveRegistered", func(t *testing.T) {
		adapter, err := registry.Resolve(models.CampaignProviderSendGrid)
		require.NoError(t, err)
		assert.Equal(t, "sendgrid", adapter.Name())
	})

	t.Run("ResolveUnregistered", func(t *testing.T) {
		_, err := registry.Resolve(models.CampaignProviderResend)
		require.Error(t, err)

		var provErr *ProviderError
		require.ErrorAs(t, err, &provErr)
		assert.Equal(t, ProviderErrorConfig, provErr.Kind)
	})
}

func TestMockEmailProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("RecordsMessages", func(t *testing.T) {
		mock := NewMockEmailProvider("sendgrid")

		id, err := mock.Send(ctx, OutboundMessage{
			FromEmail: "news@example.com",
			ToEmail:   "jane@example.com",
			Subject:   "Hello",
			HTMLBody:  "<p>Hi</p>",
			CustomArgs: map[string]string{
				"send_id": "abc",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "mock-1", id)

		require.Len(t, mock.SentMessages, 1)
		assert.Equal(t, "jane@example.com", mock.SentMessages[0].Message.ToEmail)
		assert.Equal(t, "abc", mock.SentMessages[0].Message.CustomArgs["send_id"])

		mock.ClearSentMessages()
		assert.Len(t, mock.SentMessages, 0)
	})

	t.Run("NextMessageID", func(t *testing.T) {
		mock := NewMockEmailProvider("resend")
		mock.NextMessageID = "fixed-id"

		id, err := mock.Send(ctx, OutboundMessage{ToEmail: "jane@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "fixed-id", id)
	})

	t.Run("FailWith", func(t *testing.T) {
		mock := NewMockEmailProvider("sendgrid")
		mock.FailWith = NewProviderTransportError("sendgrid", "service unavailable", errors.New("503"))

		_, err := mock.Send(ctx, OutboundMessage{ToEmail: "jane@example.com"})
		require.Error(t, err)
		assert.Len(t, mock.SentMessages, 0)

		var provErr *ProviderError
		require.ErrorAs(t, err, &provErr)
		assert.Equal(t, ProviderErrorTransport, provErr.Kind)
	})
}
