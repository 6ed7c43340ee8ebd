package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/entity"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/messaging"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/repository"
)

// NotificationService persists back-office notifications and hands them to
// the broker. Delivery beyond the broker is someone else's job.
type NotificationService struct {
	repo      repository.NotificationRepository
	publisher messaging.Publisher
	now       Clock
}

func NewNotificationService(repo repository.NotificationRepository, publisher messaging.Publisher, now Clock) *NotificationService {
	return &NotificationService{repo: repo, publisher: publisher, now: now}
}

// Emit stores a notification and publishes NotificationCreated.
func (s *NotificationService) Emit(ctx context.Context, typ entity.NotificationType, message string) (*entity.Notification, error) {
	n := &entity.Notification{
		ID:        uuid.New().String(),
		Message:   message,
		Type:      typ,
		Read:      false,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	slog.Info("Notification created", "notification_id", n.ID, "type", n.Type)
	publishBestEffort(ctx, s.publisher, messaging.TopicNotifications, n.ID, entity.NotificationCreated{
		NotificationID: n.ID,
		Type:           n.Type,
		Message:        n.Message,
		CreatedAt:      n.CreatedAt,
	})
	return n, nil
}

// LowStock emits the low_stock notification for an item.
func (s *NotificationService) LowStock(ctx context.Context, item entity.InventoryItem) (*entity.Notification, error) {
	return s.Emit(ctx, entity.NotificationLowStock, entity.LowStockMessage(item))
}

func (s *NotificationService) List(ctx context.Context, unreadOnly bool) ([]entity.Notification, error) {
	return s.repo.List(ctx, unreadOnly)
}

func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	return s.repo.MarkRead(ctx, id)
}

// HandleOrderPlaced is triggered by the message broker when an order is placed.
func (s *NotificationService) HandleOrderPlaced(ctx context.Context, payload []byte) error {
	var event entity.OrderPlaced
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to decode OrderPlaced: %w", err)
	}

	msg := fmt.Sprintf("New order %s: %d line(s), total %s", event.OrderID, event.Lines, event.FinalTotal)
	_, err := s.Emit(ctx, entity.NotificationOrder, msg)
	return err
}

// HandleNotificationCreated is the delivery hook for the notifications topic.
// The kiosk has no push channel, so delivery is a log line.
func (s *NotificationService) HandleNotificationCreated(ctx context.Context, payload []byte) error {
	var event entity.NotificationCreated
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to decode NotificationCreated: %w", err)
	}
	slog.Info("Notification delivered", "notification_id", event.NotificationID, "type", event.Type, "message", event.Message)
	return nil
}
