package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sponsorwall/backend/internal/events"
	"go.uber.org/zap"
)

const (
	wsLocalCampaignID = "ws_campaign_id"
	wsSendBuffer      = 16
	wsWriteTimeout    = 5 * time.Second
)

type viewer struct {
	campaignID uuid.UUID
	send       chan []byte
}

// WSHub pushes layout events to the viewers of a campaign page.
type WSHub struct {
	subscriber events.Subscriber
	log        *zap.Logger
	mu         sync.RWMutex
	viewers    map[uuid.UUID]map[*viewer]struct{}
}

func NewWSHub(subscriber events.Subscriber, log *zap.Logger) *WSHub {
	return &WSHub{
		subscriber: subscriber,
		log:        log,
		viewers:    make(map[uuid.UUID]map[*viewer]struct{}),
	}
}

func (h *WSHub) Start(ctx context.Context) error {
	return h.subscriber.Subscribe(ctx, events.StreamLayout, h.Broadcast)
}

// Broadcast queues event for every viewer of its campaign. Viewers whose
// queue is full miss the event and pick up the state on their next poll.
func (h *WSHub) Broadcast(event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Warn("failed to encode ws event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for v := range h.viewers[event.CampaignID] {
		select {
		case v.send <- data:
		default:
			h.log.Debug("ws viewer is behind, event dropped",
				zap.Stringer("campaign_id", event.CampaignID),
				zap.String("type", event.Type),
			)
		}
	}
}

// Viewers returns how many connections watch a campaign.
func (h *WSHub) Viewers(campaignID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers[campaignID])
}

func (h *WSHub) register(campaignID uuid.UUID) *viewer {
	v := &viewer{campaignID: campaignID, send: make(chan []byte, wsSendBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.viewers[campaignID] == nil {
		h.viewers[campaignID] = make(map[*viewer]struct{})
	}
	h.viewers[campaignID][v] = struct{}{}
	return v
}

// unregister closes the viewer queue. Broadcast holds the read lock while
// sending, so no send can race the close.
func (h *WSHub) unregister(v *viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.viewers[v.campaignID]
	if _, ok := set[v]; !ok {
		return
	}
	delete(set, v)
	if len(set) == 0 {
		delete(h.viewers, v.campaignID)
	}
	close(v.send)
}

// WSUpgradeMiddleware checks for websocket upgrade and a campaign_id query.
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		id, err := uuid.Parse(c.Query("campaign_id"))
		if err != nil {
			return badRequest(c, "campaign_id is required")
		}
		c.Locals(wsLocalCampaignID, id)
		return c.Next()
	}
}

func (h *WSHub) HandleWS(conn *websocket.Conn) {
	campaignID, _ := conn.Locals(wsLocalCampaignID).(uuid.UUID)
	v := h.register(campaignID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for data := range v.send {
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.log.Debug("ws write failed", zap.Stringer("campaign_id", campaignID), zap.Error(err))
				_ = conn.Close()
				// drain until unregister closes the queue
				for range v.send {
				}
				return
			}
		}
	}()

	// Read loop (keep alive / pings)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.unregister(v)
	<-done
	_ = conn.Close()
}
