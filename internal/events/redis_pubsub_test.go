package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRedisPubSubRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Event, 1)
	sub := NewRedisSubscriber(client, zap.NewNop())
	require.NoError(t, sub.Subscribe(ctx, StreamLayout, func(e Event) { got <- e }))

	campaignID := uuid.New()
	pub := NewRedisPublisher(client, zap.NewNop())
	require.NoError(t, pub.Publish(ctx, StreamLayout, Event{
		Type:       EventPositionReserved,
		CampaignID: campaignID,
		Payload:    map[string]any{"position_id": "R1C1"},
	}))

	select {
	case e := <-got:
		assert.Equal(t, EventPositionReserved, e.Type)
		assert.Equal(t, campaignID, e.CampaignID)
		assert.Equal(t, "R1C1", e.Payload["position_id"])
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), StreamSponsorship, Event{Type: EventSponsorshipPaid}))
}
