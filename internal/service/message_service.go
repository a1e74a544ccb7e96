package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"pethaven/internal/domain"
	"pethaven/internal/security"
	"pethaven/internal/validator"
)

// MaxMessageLength is the longest accepted message body, in characters.
const MaxMessageLength = 5000

type MessageService struct {
	messages  domain.MessageRepository
	encryptor *security.Encryptor
	validate  *validator.Validator
	events    Publisher
	log       *slog.Logger

	// Now stamps new messages. Defaults to time.Now in UTC.
	Now func() time.Time
}

// NewMessageService builds the message store. A nil encryptor stores content
// as plain text.
func NewMessageService(
	messages domain.MessageRepository,
	encryptor *security.Encryptor,
	validate *validator.Validator,
	events Publisher,
	log *slog.Logger,
) *MessageService {
	return &MessageService{
		messages:  messages,
		encryptor: encryptor,
		validate:  validate,
		events:    orNopPublisher(events),
		log:       orDiscard(log),
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

type AppendInput struct {
	SenderID   string `json:"sender_id" validate:"required"`
	ReceiverID string `json:"receiver_id" validate:"required,nefield=SenderID"`
	PetID      string `json:"pet_id"`
	Content    string `json:"content" validate:"required,max=5000"`
}

// Append validates and stores a new message. The chat id and timestamp are
// assigned here. Nothing is stored when validation fails.
func (s *MessageService) Append(ctx context.Context, in AppendInput) (*domain.Message, error) {
	in.Content = strings.TrimSpace(in.Content)
	if err := s.validate.ValidateStruct(in); err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ID:         uuid.NewString(),
		SenderID:   in.SenderID,
		ReceiverID: in.ReceiverID,
		PetID:      in.PetID,
		Content:    in.Content,
		ChatID:     domain.ChatID(in.SenderID, in.ReceiverID, in.PetID),
		CreatedAt:  s.Now(),
	}

	stored := *msg
	if s.encryptor != nil {
		enc, err := s.encryptor.Encrypt(msg.Content)
		if err != nil {
			return nil, domain.Persistence("encrypt message", err)
		}
		stored.Content = enc
	}
	if err := s.messages.Create(ctx, &stored); err != nil {
		return nil, domain.Persistence("create message", err)
	}

	// The event carries the stored form, so content stays encrypted when
	// encryption is on.
	event := stored
	publish(ctx, s.events, s.log, Event{
		Type:       TopicMessageCreated,
		Key:        msg.ChatID,
		Payload:    &event,
		OccurredAt: msg.CreatedAt,
	})
	return msg, nil
}

// History returns the messages exchanged between myID and otherID, oldest
// first. A non-empty petID restricts the result to that pet.
func (s *MessageService) History(ctx context.Context, myID, otherID, petID string) ([]*domain.Message, error) {
	if otherID == "" {
		return nil, domain.NewValidationError("user_id", "is required")
	}
	msgs, err := s.messages.ListBetween(ctx, myID, otherID, petID)
	if err != nil {
		return nil, domain.Persistence("list messages", err)
	}
	return s.decryptAll(msgs), nil
}

// ListForUser returns every message myID sent or received, newest first.
func (s *MessageService) ListForUser(ctx context.Context, userID string) ([]*domain.Message, error) {
	msgs, err := s.messages.ListForUser(ctx, userID)
	if err != nil {
		return nil, domain.Persistence("list messages", err)
	}
	return s.decryptAll(msgs), nil
}

// MarkThreadRead flags as read what otherID sent to myID in the thread and
// returns how many messages changed.
func (s *MessageService) MarkThreadRead(ctx context.Context, myID, otherID, petID string) (int, error) {
	if otherID == "" {
		return 0, domain.NewValidationError("user_id", "is required")
	}
	n, err := s.messages.MarkRead(ctx, otherID, myID, petID)
	if err != nil {
		return 0, domain.Persistence("mark messages read", err)
	}
	return n, nil
}

func (s *MessageService) decryptAll(msgs []*domain.Message) []*domain.Message {
	if msgs == nil {
		msgs = make([]*domain.Message, 0)
	}
	if s.encryptor == nil {
		return msgs
	}
	for _, m := range msgs {
		plain, err := s.encryptor.Decrypt(m.Content)
		if err != nil {
			// Rows written before encryption was enabled are returned as is.
			s.log.Warn("message content not decryptable", "message_id", m.ID, "err", err)
			continue
		}
		m.Content = plain
	}
	return msgs
}
