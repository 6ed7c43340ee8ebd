package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/entity"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/messaging"
)

// Clock supplies the server's notion of now, already in the café's time zone.
// Promotion day and date windows are evaluated against it.
type Clock func() time.Time

// LocalClock returns a Clock reading wall time in loc.
func LocalClock(loc *time.Location) Clock {
	return func() time.Time { return time.Now().In(loc) }
}

// publishBestEffort sends an event after the state change it describes has
// committed. A broker failure is logged and never undoes that change.
func publishBestEffort(ctx context.Context, publisher messaging.Publisher, topic, key string, event entity.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.PublishEvent(ctx, topic, key, event); err != nil {
		slog.Error("Failed to publish event", "topic", topic, "event", event.EventType(), "key", key, "err", err)
	}
}
