package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"tryon-widget-be/internal/pkg/logger"
)

// Hub fans session events out to connected retailer dashboards. One retailer
// may hold several connections (multiple dashboard tabs/operators).
type Hub struct {
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance fanout
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.RetailerID] = append(h.clients[client.RetailerID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Dashboard connected", map[string]interface{}{"retailer_id": client.RetailerID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.RetailerID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.RetailerID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.RetailerID]) == 0 {
					delete(h.clients, client.RetailerID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// SendToRetailer pushes a session event to every dashboard connection the
// retailer has, locally and (via redis) on other instances.
func (h *Hub) SendToRetailer(retailerID uuid.UUID, payload map[string]interface{}) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": "fit_session_event",
		"data": payload,
	})

	h.mu.RLock()
	clients, localFound := h.clients[retailerID]
	h.mu.RUnlock()

	if localFound {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				h.logger.Warn("Hub", "Client send buffer full, dropping connection",
					map[string]interface{}{"retailer_id": retailerID})
				close(client.Send)
				h.unregister <- client
			}
		}
	}

	if h.rdb != nil {
		envelope := map[string]interface{}{
			"target_retailer_id": retailerID.String(),
			"message":            json.RawMessage(data),
		}
		jsonPayload, _ := json.Marshal(envelope)
		h.rdb.Publish(context.Background(), "dashboard_events", jsonPayload)
	}
}

func (h *Hub) subscribeToRedis() {
	// Every instance subscribes to the shared channel; on delivery it checks
	// whether the target retailer has a local connection and forwards.
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "dashboard_events")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload struct {
			TargetRetailerID string          `json:"target_retailer_id"`
			Message          json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		retailerID, err := uuid.Parse(payload.TargetRetailerID)
		if err != nil {
			continue
		}

		h.mu.RLock()
		clients := h.clients[retailerID]
		h.mu.RUnlock()

		for _, client := range clients {
			select {
			case client.Send <- payload.Message:
			default:
			}
		}
	}
}
