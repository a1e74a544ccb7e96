package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pethaven/internal/domain"
)

// Conversation is a derived thread with its counterparty and pet resolved.
type Conversation struct {
	OtherUser   domain.UserProfile `json:"other_user"`
	Pet         *domain.PetSummary `json:"pet"`
	LastMessage *domain.Message    `json:"last_message"`
}

// ConversationService builds a user's conversation list from their messages.
// Nothing here is persisted.
type ConversationService struct {
	messages *MessageService
	users    domain.UserRepository
	pets     domain.PetRepository
	log      *slog.Logger
}

func NewConversationService(
	messages *MessageService,
	users domain.UserRepository,
	pets domain.PetRepository,
	log *slog.Logger,
) *ConversationService {
	return &ConversationService{
		messages: messages,
		users:    users,
		pets:     pets,
		log:      orDiscard(log),
	}
}

// ListForUser returns one entry per (counterparty, pet) pair, most recent
// first. Threads with a counterparty that no longer exists are left out; a
// pet that no longer exists leaves Pet nil.
func (s *ConversationService) ListForUser(ctx context.Context, userID string) ([]Conversation, error) {
	msgs, err := s.messages.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	threads := Summarize(msgs, userID)
	out := make([]Conversation, 0, len(threads))

	profiles := make(map[string]*domain.UserProfile)
	pets := make(map[string]*domain.PetSummary)

	for _, th := range threads {
		profile, ok := profiles[th.Key.Counterparty]
		if !ok {
			u, err := s.users.GetByID(ctx, th.Key.Counterparty)
			switch {
			case errors.Is(err, domain.ErrNotFound):
				s.log.Debug("conversation counterparty gone", "user_id", userID, "other_id", th.Key.Counterparty)
			case err != nil:
				return nil, fmt.Errorf("resolve counterparty: %w", err)
			default:
				p := u.Profile()
				profile = &p
			}
			profiles[th.Key.Counterparty] = profile
		}
		if profile == nil {
			continue
		}

		conv := Conversation{OtherUser: *profile, LastMessage: th.LastMessage}
		if petID := th.LastMessage.PetID; petID != "" {
			summary, ok := pets[petID]
			if !ok {
				pet, err := s.pets.GetByID(ctx, petID)
				switch {
				case errors.Is(err, domain.ErrNotFound):
				case err != nil:
					return nil, fmt.Errorf("resolve pet: %w", err)
				default:
					summary = pet.Summary()
				}
				pets[petID] = summary
			}
			conv.Pet = summary
		}
		out = append(out, conv)
	}
	return out, nil
}
