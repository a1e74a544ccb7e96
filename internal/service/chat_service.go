package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pethaven/internal/domain"
)

const previewLength = 30

// ChatService runs the realtime send path: store the message, record a
// notification for the receiver, then push both to the receiver only.
type ChatService struct {
	messages      *MessageService
	notifications *NotificationService
	users         domain.UserRepository
	pusher        Pusher
	log           *slog.Logger
}

func NewChatService(
	messages *MessageService,
	notifications *NotificationService,
	users domain.UserRepository,
	pusher Pusher,
	log *slog.Logger,
) *ChatService {
	return &ChatService{
		messages:      messages,
		notifications: notifications,
		users:         users,
		pusher:        orNopPusher(pusher),
		log:           orDiscard(log),
	}
}

type SendInput struct {
	SenderID   string
	SenderName string
	ReceiverID string
	PetID      string
	Content    string
}

type SendResult struct {
	Message      *domain.Message
	Notification *domain.Notification
	// Sessions of the receiver that got message_received.
	Delivered int
}

// Send stores the message and fans it out. The receiver must be a known
// user. A failure to store is returned and nothing is pushed. A failure to create the notification is logged and
// the message is still pushed.
func (s *ChatService) Send(ctx context.Context, in SendInput) (*SendResult, error) {
	if in.ReceiverID != "" && in.ReceiverID != in.SenderID {
		if _, err := s.users.GetByID(ctx, in.ReceiverID); err != nil {
			return nil, domain.Persistence("get receiver", err)
		}
	}

	msg, err := s.messages.Append(ctx, AppendInput{
		SenderID:   in.SenderID,
		ReceiverID: in.ReceiverID,
		PetID:      in.PetID,
		Content:    in.Content,
	})
	if err != nil {
		return nil, err
	}

	res := &SendResult{Message: msg}

	text := fmt.Sprintf("New message from %s: %s", s.senderName(ctx, in), Preview(msg.Content))
	n, err := s.notifications.Create(ctx, msg.ReceiverID, domain.NotificationNewMessage, text, domain.RelatedToChat(msg.ChatID))
	if err != nil {
		s.log.Error("create message notification", "message_id", msg.ID, "receiver_id", msg.ReceiverID, "err", err)
	}

	res.Delivered = s.pusher.PushToUser(ctx, msg.ReceiverID, EventMessageReceived, msg)
	if n != nil {
		res.Notification = n
		s.notifications.Push(ctx, n)
	}
	return res, nil
}

// senderName prefers the stored account name over the one the client sent.
func (s *ChatService) senderName(ctx context.Context, in SendInput) string {
	u, err := s.users.GetByID(ctx, in.SenderID)
	switch {
	case err == nil:
		return u.Name
	case !errors.Is(err, domain.ErrNotFound):
		s.log.Warn("resolve sender name", "sender_id", in.SenderID, "err", err)
	}
	if in.SenderName != "" {
		return in.SenderName
	}
	return "a user"
}

// Preview returns the first 30 characters of content, followed by "..."
// when anything was cut.
func Preview(content string) string {
	r := []rune(content)
	if len(r) <= previewLength {
		return content
	}
	return string(r[:previewLength]) + "..."
}
