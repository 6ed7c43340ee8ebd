package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/entity"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/repository"
)

type notificationRepository struct {
	mu            sync.RWMutex
	notifications []entity.Notification
}

// NewNotificationRepository creates an empty in-memory notification store.
func NewNotificationRepository() repository.NotificationRepository {
	return &notificationRepository{}
}

func (r *notificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, *n)
	return nil
}

// List returns newest first.
func (r *notificationRepository) List(ctx context.Context, unreadOnly bool) ([]entity.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.Notification, 0, len(r.notifications))
	for i := len(r.notifications) - 1; i >= 0; i-- {
		n := r.notifications[i]
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.notifications {
		if r.notifications[i].ID == id {
			r.notifications[i].Read = true
			return nil
		}
	}
	return fmt.Errorf("%w: %s", entity.ErrNotificationNotFound, id)
}
