package api

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"fiddler/internal"
)

const pingInterval = 30 * time.Second

// ProgressEvent reports how far a generation run has got.
type ProgressEvent struct {
	Key       string    `json:"key"`
	Done      int       `json:"done"`
	Total     int       `json:"total"`
	Finished  bool      `json:"finished"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SSEHub fans generation progress out to Server-Sent Events clients. Clients
// subscribe to a progress key chosen by whoever starts the run.
type SSEHub struct {
	mu      sync.RWMutex
	clients map[string]map[chan ProgressEvent]bool
	logger  *internal.Logger
}

// NewSSEHub creates an empty hub.
func NewSSEHub(logger *internal.Logger) *SSEHub {
	return &SSEHub{
		clients: make(map[string]map[chan ProgressEvent]bool),
		logger:  logger.Named("sse"),
	}
}

// Subscribe registers a client for key and returns its channel.
func (h *SSEHub) Subscribe(key string) chan ProgressEvent {
	ch := make(chan ProgressEvent, 16)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[key] == nil {
		h.clients[key] = make(map[chan ProgressEvent]bool)
	}
	h.clients[key][ch] = true
	h.logger.Debug("client registered for %s (total clients: %d)", key, len(h.clients[key]))
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (h *SSEHub) Unsubscribe(key string, ch chan ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.clients[key]
	if !ok || !clients[ch] {
		return
	}
	delete(clients, ch)
	close(ch)
	if len(clients) == 0 {
		delete(h.clients, key)
	}
}

// Broadcast delivers event to every client of event.Key. Slow clients miss
// progress events rather than blocking the generator. A finished event is
// always delivered, displacing the oldest queued event if needed, and closes
// the key's clients.
func (h *SSEHub) Broadcast(event ProgressEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Finished {
		h.finish(event)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients[event.Key] {
		select {
		case ch <- event:
		default:
			h.logger.Warn("client channel full for %s, skipping event", event.Key)
		}
	}
}

// finish holds the write lock, so no other sender can refill a channel between
// dropping its oldest event and queueing the final one.
func (h *SSEHub) finish(event ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients[event.Key] {
		select {
		case ch <- event:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
		close(ch)
	}
	delete(h.clients, event.Key)
}

// ClientCount returns the number of clients listening on key.
func (h *SSEHub) ClientCount(key string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[key])
}

// HandleSSE streams the events of one key until the run finishes or the
// client goes away.
func (h *SSEHub) HandleSSE(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(400, gin.H{"error": "key parameter required"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ch := h.Subscribe(key)
	defer h.Unsubscribe(key, ch)

	ctx := c.Request.Context()
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-ch:
			if !ok {
				return false
			}
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to marshal event: %v", err)
				return true
			}
			c.SSEvent("progress", string(data))
			return !event.Finished
		case <-ping.C:
			c.SSEvent("ping", `{"status":"alive"}`)
			return true
		case <-ctx.Done():
			return false
		}
	})
}
