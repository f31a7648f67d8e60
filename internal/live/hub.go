// Package live fans location and status updates out to the websocket
// subscribers of a booking.  Delivery is best effort and at most once per
// publish: a slow or dead subscriber is dropped, never waited on, so the
// ingest path cannot block on broadcast.  Clients that reconnect catch up
// through the track history endpoint rather than replayed broadcasts.
package live

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/petmily/walk-service/internal/model"
)

// Topic names carried in every envelope.
const (
	TopicLocation = "location"
	TopicStatus   = "status"
)

// Envelope is the JSON frame every subscriber receives.
type Envelope struct {
	Topic     string    `json:"topic"`
	BookingID string    `json:"booking_id"`
	Status    string    `json:"status,omitempty"`
	Payload   any       `json:"payload"`
	SentAt    time.Time `json:"sent_at"`
}

// subscriber owns one websocket connection and its outbound buffer.
type subscriber struct {
	conn *websocket.Conn
	send chan Envelope
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() {
		close(s.send)
	})
}

// Hub tracks the live subscribers of each booking channel.  It implements
// walk.Broadcaster.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{} // bookingID -> subscriber set
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*subscriber]struct{})}
}

// Subscribe attaches a websocket connection to a booking's channel and
// blocks until the connection closes.  It runs the write pump in a
// goroutine and uses the read loop to detect disconnects.
func (h *Hub) Subscribe(bookingID string, conn *websocket.Conn) {
	sub := &subscriber{
		conn: conn,
		send: make(chan Envelope, 32),
	}

	h.mu.Lock()
	set, ok := h.subs[bookingID]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[bookingID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	go sub.writePump()

	// Read loop: the client sends nothing meaningful, but reading is how
	// closes and errors surface.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(bookingID, sub)
}

func (s *subscriber) writePump() {
	defer func() { _ = s.conn.Close() }()
	for env := range s.send {
		_ = s.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := s.conn.WriteJSON(env); err != nil {
			log.Printf("live: write failed, dropping subscriber - booking %s: %v", env.BookingID, err)
			return
		}
	}
	_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) drop(bookingID string, sub *subscriber) {
	h.mu.Lock()
	if set, ok := h.subs[bookingID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, bookingID)
		}
	}
	h.mu.Unlock()
	sub.close()
}

// PublishLocation fans the latest sample out to the booking's subscribers.
func (h *Hub) PublishLocation(bookingID string, point model.TrackPoint) {
	h.publish(bookingID, Envelope{
		Topic:     TopicLocation,
		BookingID: bookingID,
		Payload:   point,
		SentAt:    time.Now().UTC(),
	})
}

// PublishStatus fans a booking or walk status transition out to the
// booking's subscribers.
func (h *Hub) PublishStatus(bookingID string, status string, payload any) {
	h.publish(bookingID, Envelope{
		Topic:     TopicStatus,
		BookingID: bookingID,
		Status:    status,
		Payload:   payload,
		SentAt:    time.Now().UTC(),
	})
}

// publish delivers the envelope to every current subscriber without
// blocking: a full buffer means the frame is dropped for that subscriber.
func (h *Hub) publish(bookingID string, env Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[bookingID] {
		select {
		case sub.send <- env:
		default:
			log.Printf("live: subscriber buffer full, frame dropped - booking %s topic %s", bookingID, env.Topic)
		}
	}
}

// SubscriberCount reports how many connections watch a booking.  Used by
// the handler layer for diagnostics.
func (h *Hub) SubscriberCount(bookingID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[bookingID])
}
