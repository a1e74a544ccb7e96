package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"pethaven/internal/domain"
)

type NotificationService struct {
	notifications domain.NotificationRepository
	pusher        Pusher
	events        Publisher
	log           *slog.Logger

	Now func() time.Time
}

// NewNotificationService builds the notification store. pusher may be nil,
// in which case Notify only stores.
func NewNotificationService(
	notifications domain.NotificationRepository,
	pusher Pusher,
	events Publisher,
	log *slog.Logger,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		pusher:        orNopPusher(pusher),
		events:        orNopPublisher(events),
		log:           orDiscard(log),
		Now:           func() time.Time { return time.Now().UTC() },
	}
}

// Create stores an unread notification for recipientID.
func (s *NotificationService) Create(
	ctx context.Context,
	recipientID string,
	typ domain.NotificationType,
	message string,
	related domain.Related,
) (*domain.Notification, error) {
	verr := &domain.ValidationError{}
	if recipientID == "" {
		verr.Fields = append(verr.Fields, domain.FieldError{Field: "recipient_id", Message: "is required"})
	}
	if !typ.Valid() {
		verr.Fields = append(verr.Fields, domain.FieldError{Field: "type", Message: "is not a known notification type"})
	}
	if strings.TrimSpace(message) == "" {
		verr.Fields = append(verr.Fields, domain.FieldError{Field: "message", Message: "is required"})
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}
	if related.Kind == "" {
		related = domain.RelatedToSystem()
	}

	n := &domain.Notification{
		ID:          uuid.NewString(),
		RecipientID: recipientID,
		Type:        typ,
		Message:     message,
		Related:     related,
		CreatedAt:   s.Now(),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, domain.Persistence("create notification", err)
	}

	publish(ctx, s.events, s.log, Event{
		Type:       TopicNotificationCreated,
		Key:        n.RecipientID,
		Payload:    n,
		OccurredAt: n.CreatedAt,
	})
	return n, nil
}

// Notify creates a notification and pushes it to the recipient's live
// sessions. The push is dropped when the recipient is offline.
func (s *NotificationService) Notify(
	ctx context.Context,
	recipientID string,
	typ domain.NotificationType,
	message string,
	related domain.Related,
) (*domain.Notification, error) {
	n, err := s.Create(ctx, recipientID, typ, message, related)
	if err != nil {
		return nil, err
	}
	s.Push(ctx, n)
	return n, nil
}

// Push sends an already stored notification to its recipient.
func (s *NotificationService) Push(ctx context.Context, n *domain.Notification) int {
	reached := s.pusher.PushToUser(ctx, n.RecipientID, EventNotificationReceived, n)
	s.log.Debug("notification pushed", "notification_id", n.ID, "recipient_id", n.RecipientID, "sessions", reached)
	return reached
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string) ([]*domain.Notification, error) {
	list, err := s.notifications.ListForRecipient(ctx, userID)
	if err != nil {
		return nil, domain.Persistence("list notifications", err)
	}
	if list == nil {
		list = make([]*domain.Notification, 0)
	}
	return list, nil
}

// MarkRead flags a notification as read. Marking an already read
// notification succeeds without writing. Only the recipient may mark it.
func (s *NotificationService) MarkRead(ctx context.Context, actorID, id string) (*domain.Notification, error) {
	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return nil, domain.Persistence("get notification", err)
	}
	if n.RecipientID != actorID {
		return nil, domain.ErrForbidden
	}
	if n.Read {
		return n, nil
	}
	if err := s.notifications.MarkRead(ctx, id); err != nil {
		return nil, domain.Persistence("mark notification read", err)
	}
	n.Read = true
	return n, nil
}
