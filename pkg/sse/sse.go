// Package sse streams the ambient threat score to clients that prefer plain
// server-sent events over a websocket (battery-constrained web UIs mostly).
package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const clientBuffer = 16

type client struct {
	id string
	ch chan string
}

// Hub fans events out to every connected SSE client. Slow clients drop
// events instead of blocking the broadcast.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	retryMs int
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*client), retryMs: 5000}
}

// Broadcast serializes the payload and queues it for every client.
func (h *Hub) Broadcast(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	frame := fmt.Sprintf("event: %s\ndata: %s\n\n", event, data)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.ch <- frame:
		default:
		}
	}
}

// ClientCount returns the number of open streams.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve writes the event stream until the client disconnects.
func (h *Hub) Serve(c *gin.Context) {
	cl := &client{id: uuid.NewString(), ch: make(chan string, clientBuffer)}
	h.mu.Lock()
	h.clients[cl.id] = cl
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.clients, cl.id)
		h.mu.Unlock()
	}()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteString(fmt.Sprintf("retry: %d\n\n", h.retryMs))
	c.Writer.Flush()

	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case frame, ok := <-cl.ch:
			if !ok {
				return false
			}
			_, err := io.WriteString(w, frame)
			return err == nil
		case <-heartbeat.C:
			_, err := io.WriteString(w, ": ping\n\n")
			return err == nil
		case <-c.Request.Context().Done():
			return false
		}
	})
}
