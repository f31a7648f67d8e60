// Package queue defines message payloads exchanged over the message broker.
package queue

// NotificationQueueName is the durable queue notification events travel on.
const NotificationQueueName = "walk.notifications"

// WalkNotificationEvent is published for every outbound walk notification.
// It contains enough information for downstream delivery workers to push,
// text or log without querying the primary database.
type WalkNotificationEvent struct {
	BookingID string         `json:"booking_id"`
	Kind      string         `json:"kind"`
	Contact   string         `json:"contact"`
	Payload   map[string]any `json:"payload,omitempty"`
	SentAt    string         `json:"sent_at"`
}
