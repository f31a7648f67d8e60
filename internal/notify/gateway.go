package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/petmily/walk-service/internal/walk"
)

// LogGateway is the development sink: it writes every notification to the
// process log instead of delivering it.  It also stands in when the broker
// is unreachable.
type LogGateway struct{}

func (LogGateway) Send(_ context.Context, contact string, kind walk.NotificationKind, payload map[string]any) error {
	log.Printf("notify: [%s] to %s: %v", kind, contact, payload)
	return nil
}

// Gateway decorates a sink with per-booking notification history and the
// throttle cleanup that runs when a walk completes.  It implements
// walk.Notifier; errors from the underlying sink are returned so callers
// can log them, but history bookkeeping failures are swallowed here.
type Gateway struct {
	sink       walk.Notifier
	rdb        *redis.Client // nil disables history
	historyTTL time.Duration
}

// NewGateway wraps sink.  rdb may be nil, disabling history and cleanup.
func NewGateway(sink walk.Notifier, rdb *redis.Client, historyTTL time.Duration) *Gateway {
	if sink == nil {
		sink = LogGateway{}
	}
	if historyTTL <= 0 {
		historyTTL = 24 * time.Hour
	}
	return &Gateway{sink: sink, rdb: rdb, historyTTL: historyTTL}
}

func (g *Gateway) Send(ctx context.Context, contact string, kind walk.NotificationKind, payload map[string]any) error {
	if err := g.sink.Send(ctx, contact, kind, payload); err != nil {
		return err
	}

	bookingID, _ := payload["booking_id"].(string)
	if bookingID == "" {
		return nil
	}
	g.recordHistory(ctx, bookingID, kind)
	if kind == walk.NotifyWalkCompleted {
		g.cleanup(ctx, bookingID)
	}
	return nil
}

// recordHistory appends "<kind>:<timestamp>" to the booking's history list
// with a bounded TTL.
func (g *Gateway) recordHistory(ctx context.Context, bookingID string, kind walk.NotificationKind) {
	if g.rdb == nil {
		return
	}
	key := HistoryKey(bookingID)
	entry := fmt.Sprintf("%s:%s", kind, time.Now().UTC().Format(time.RFC3339))
	if err := g.rdb.RPush(ctx, key, entry).Err(); err != nil {
		log.Printf("notify: history write failed - booking %s: %v", bookingID, err)
		return
	}
	if err := g.rdb.Expire(ctx, key, g.historyTTL).Err(); err != nil {
		log.Printf("notify: history expire failed - booking %s: %v", bookingID, err)
	}
}

// cleanup drops the throttle markers and history of a finished walk.
func (g *Gateway) cleanup(ctx context.Context, bookingID string) {
	if g.rdb == nil {
		return
	}
	keys := []string{ProgressKey(bookingID), StationaryKey(bookingID), HistoryKey(bookingID)}
	if err := g.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Printf("notify: throttle cleanup failed - booking %s: %v", bookingID, err)
	}
}

// History returns the notification history entries recorded for a booking,
// oldest first.
func (g *Gateway) History(ctx context.Context, bookingID string) ([]string, error) {
	if g.rdb == nil {
		return nil, nil
	}
	return g.rdb.LRange(ctx, HistoryKey(bookingID), 0, -1).Result()
}
