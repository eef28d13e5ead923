// Package ws streams live simulation frames to viewers over WebSocket.
// Viewers drive the speed: each sim:step command advances the shared
// kernel and triggers a broadcast frame.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"charging-robots/internal/model"
	"charging-robots/internal/sim"
)

// maxStepBatch bounds one sim:step command.
const maxStepBatch = 10000

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Simulation is the kernel surface the viewer needs.
type Simulation interface {
	Step() (bool, error)
	Vehicles() []model.Vehicle
	Robots() []model.Robot
	Batteries() []model.Battery
	CurrentTime() int
	CurrentStats() sim.Stats
	PolicyName() string
	Horizon() int
}

// Handler serves the viewer socket over one shared simulation. The kernel
// is single-threaded, so every step batch runs under the handler's lock.
type Handler struct {
	hub *Hub
	log logrus.FieldLogger

	mu   sync.Mutex
	sim  Simulation
	done bool
}

func NewHandler(hub *Hub, s Simulation, log logrus.FieldLogger) *Handler {
	return &Handler{hub: hub, sim: s, log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	h.hub.Register(client)
	go client.writePump()

	h.sendSnapshot(client)
	h.readPump(client)
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithError(err).Warn("websocket read error")
			}
			return
		}
		h.handleMessage(c, msg)
	}
}

func (h *Handler) handleMessage(c *Client, msg []byte) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		h.sendError(c, "invalid message")
		return
	}

	switch env.Type {
	case TypeSimStep:
		p := StepPayload{Count: 1}
		if len(env.Payload) > 0 {
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				h.sendError(c, "invalid step payload")
				return
			}
		}
		if p.Count < 1 {
			p.Count = 1
		}
		if p.Count > maxStepBatch {
			p.Count = maxStepBatch
		}
		if err := h.step(p.Count); err != nil {
			h.sendError(c, err.Error())
			return
		}
		h.broadcastSnapshot()

	default:
		h.sendError(c, "unknown message type "+env.Type)
	}
}

func (h *Handler) step(count int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := 0; i < count && !h.done; i++ {
		done, err := h.sim.Step()
		if err != nil {
			return err
		}
		h.done = done
	}
	return nil
}

func (h *Handler) snapshot() SnapshotPayload {
	h.mu.Lock()
	defer h.mu.Unlock()
	return SnapshotPayload{
		Policy:      h.sim.PolicyName(),
		CurrentTime: h.sim.CurrentTime(),
		Horizon:     h.sim.Horizon(),
		Done:        h.done,
		Vehicles:    h.sim.Vehicles(),
		Robots:      h.sim.Robots(),
		Batteries:   h.sim.Batteries(),
		Stats:       h.sim.CurrentStats(),
	}
}

func (h *Handler) broadcastSnapshot() {
	msg, err := NewEnvelope(TypeSimSnapshot, h.snapshot())
	if err != nil {
		h.log.WithError(err).Error("snapshot encode failed")
		return
	}
	h.hub.Broadcast(msg)
}

func (h *Handler) sendSnapshot(c *Client) {
	msg, err := NewEnvelope(TypeSimSnapshot, h.snapshot())
	if err != nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (h *Handler) sendError(c *Client, message string) {
	msg, err := NewEnvelope(TypeSimError, ErrorPayload{Message: message})
	if err != nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}
