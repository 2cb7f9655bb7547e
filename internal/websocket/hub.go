package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"donkey-remote-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisChannel carries telemetry between server instances.
const RedisChannel = "vehicle_events"

// AllVehicles is the subscription key of consoles watching every vehicle.
const AllVehicles = ""

type clusterMessage struct {
	Origin    string          `json:"origin"`
	VehicleID string          `json:"vehicle_id"`
	Message   json.RawMessage `json:"message"`
}

type Hub struct {
	// Subscribed clients: vehicle id (or AllVehicles) -> clients
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance fan-out, nil when running alone
	rdb *redis.Client

	// instanceID tags our own redis publishes so they are not delivered twice
	instanceID string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.VehicleID] = append(h.clients[client.VehicleID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{
				"client_id":  client.Id.String(),
				"vehicle_id": client.VehicleID,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			clients := h.clients[client.VehicleID]
			for i, c := range clients {
				if c == client {
					h.clients[client.VehicleID] = append(clients[:i], clients[i+1:]...)
					close(client.Send)
					break
				}
			}
			if len(h.clients[client.VehicleID]) == 0 {
				delete(h.clients, client.VehicleID)
			}
			h.mu.Unlock()
			h.logger.Info("Hub", "Client unregistered", map[string]interface{}{
				"client_id":  client.Id.String(),
				"vehicle_id": client.VehicleID,
			})
		}
	}
}

// Send delivers payload to local viewers of vehicleID and to consoles
// watching all vehicles, then relays it to other instances.
func (h *Hub) Send(vehicleID string, payload []byte) {
	h.deliver(vehicleID, payload)

	if h.rdb != nil {
		data, _ := json.Marshal(clusterMessage{
			Origin:    h.instanceID,
			VehicleID: vehicleID,
			Message:   payload,
		})
		if err := h.rdb.Publish(context.Background(), RedisChannel, data).Err(); err != nil {
			h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

// ClientCount returns the number of local clients subscribed to vehicleID.
func (h *Hub) ClientCount(vehicleID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[vehicleID])
}

func (h *Hub) deliver(vehicleID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	targets := h.clients[vehicleID]
	if vehicleID != AllVehicles {
		targets = append(targets[:len(targets):len(targets)], h.clients[AllVehicles]...)
	}

	for _, client := range targets {
		select {
		case client.Send <- payload:
		default:
			// Telemetry is lossy; a slow console just misses updates.
			h.logger.Warn("Hub", "Client send buffer full, dropping message", map[string]interface{}{
				"client_id":  client.Id.String(),
				"vehicle_id": vehicleID,
			})
		}
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, RedisChannel)
	defer pubsub.Close()

	h.logger.Info("Hub", "Subscribed to redis channel", map[string]interface{}{"channel": RedisChannel})

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload clusterMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if payload.Origin == h.instanceID {
				continue
			}
			h.deliver(payload.VehicleID, payload.Message)
		}
	}
}
