package models

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSendStatusPriority(t *testing.T) {
	ordered := []SendStatus{
		SendStatusQueued,
		SendStatusScheduled,
		SendStatusSending,
		SendStatusSent,
		SendStatusDelivered,
		SendStatusOpened,
		SendStatusClicked,
		SendStatusUnsubscribed,
		SendStatusComplained,
		SendStatusBounced,
		SendStatusFailed,
	}

	for i := 1; i < len(ordered); i++ {
		assert.Greater(t, ordered[i].Priority(), ordered[i-1].Priority(),
			"%s must outrank %s", ordered[i], ordered[i-1])
	}

	assert.Equal(t, -1, SendStatus("bogus").Priority())
	assert.False(t, SendStatus("bogus").Valid())
}

func TestApplyEventStatus(t *testing.T) {
	t.Run("HigherPriorityWins", func(t *testing.T) {
		send := &CampaignSend{Status: SendStatusSent}
		assert.True(t, send.ApplyEventStatus(SendStatusOpened))
		assert.Equal(t, SendStatusOpened, send.Status)
	})

	t.Run("LowerPriorityRejected", func(t *testing.T) {
		send := &CampaignSend{Status: SendStatusClicked}
		assert.False(t, send.ApplyEventStatus(SendStatusDelivered))
		assert.Equal(t, SendStatusClicked, send.Status)
	})

	t.Run("EqualPriorityReplayHarmless", func(t *testing.T) {
		send := &CampaignSend{Status: SendStatusOpened}
		assert.False(t, send.ApplyEventStatus(SendStatusOpened))
		assert.Equal(t, SendStatusOpened, send.Status)
	})

	t.Run("OutOfOrderSequenceConverges", func(t *testing.T) {
		// A click followed by a late-arriving delivered must stay clicked
		send := &CampaignSend{Status: SendStatusSent}
		send.ApplyEventStatus(SendStatusClicked)
		send.ApplyEventStatus(SendStatusDelivered)
		send.ApplyEventStatus(SendStatusOpened)
		assert.Equal(t, SendStatusClicked, send.Status)
	})

	t.Run("ShuffledSequencesEndAtMaxPriority", func(t *testing.T) {
		events := []SendStatus{
			SendStatusDelivered,
			SendStatusOpened,
			SendStatusClicked,
			SendStatusDelivered,
			SendStatusOpened,
		}
		for trial := 0; trial < 50; trial++ {
			shuffled := make([]SendStatus, len(events))
			copy(shuffled, events)
			rand.Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})

			send := &CampaignSend{Status: SendStatusSent}
			for _, st := range shuffled {
				send.ApplyEventStatus(st)
			}
			assert.Equal(t, SendStatusClicked, send.Status)
		}
	})
}

func TestIsDispatched(t *testing.T) {
	dispatched := []SendStatus{SendStatusSent, SendStatusDelivered, SendStatusOpened, SendStatusClicked}
	for _, st := range dispatched {
		send := &CampaignSend{Status: st}
		assert.True(t, send.IsDispatched(), st)
	}

	notDispatched := []SendStatus{
		SendStatusQueued, SendStatusScheduled, SendStatusSending,
		SendStatusBounced, SendStatusUnsubscribed, SendStatusComplained, SendStatusFailed,
	}
	for _, st := range notDispatched {
		send := &CampaignSend{Status: st}
		assert.False(t, send.IsDispatched(), st)
	}
}

func TestEventTypeCandidateStatus(t *testing.T) {
	cases := map[EventType]SendStatus{
		EventTypeDelivered:    SendStatusDelivered,
		EventTypeOpened:       SendStatusOpened,
		EventTypeClicked:      SendStatusClicked,
		EventTypeBounced:      SendStatusBounced,
		EventTypeComplained:   SendStatusComplained,
		EventTypeUnsubscribed: SendStatusUnsubscribed,
		EventTypeDropped:      SendStatusFailed,
	}
	for eventType, want := range cases {
		got, ok := eventType.CandidateStatus()
		assert.True(t, ok, eventType)
		assert.Equal(t, want, got, eventType)
	}

	_, ok := EventType("bogus").CandidateStatus()
	assert.False(t, ok)
}
