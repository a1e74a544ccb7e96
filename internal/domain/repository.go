package domain

import (
	"context"
	"time"
)

// Lookups return ErrNotFound when the record does not exist.

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// PetRepository defines persistence operations for pets.
type PetRepository interface {
	Create(ctx context.Context, p *Pet) error
	GetByID(ctx context.Context, id string) (*Pet, error)
	List(ctx context.Context, f PetFilter) ([]*Pet, error)
}

// MessageRepository defines persistence operations for chat messages.
type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	// ListForUser returns every message the user sent or received, newest first.
	ListForUser(ctx context.Context, userID string) ([]*Message, error)
	// ListBetween returns the messages exchanged by a and b in either
	// direction, oldest first. A non-empty petID restricts to that pet.
	ListBetween(ctx context.Context, a, b, petID string) ([]*Message, error)
	// MarkRead flags the messages sent by from to to as read and returns how
	// many changed. A non-empty petID restricts to that pet.
	MarkRead(ctx context.Context, from, to, petID string) (int, error)
}

// NotificationRepository defines persistence operations for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id string) (*Notification, error)
	// ListForRecipient returns the recipient's notifications, newest first.
	ListForRecipient(ctx context.Context, recipientID string) ([]*Notification, error)
	MarkRead(ctx context.Context, id string) error
}

// ApplicationRepository defines persistence operations for adoption applications.
type ApplicationRepository interface {
	Create(ctx context.Context, a *Application) error
	GetByID(ctx context.Context, id string) (*Application, error)
	FindByPetAndAdopter(ctx context.Context, petID, adopterID string) (*Application, error)
	ListByAdopter(ctx context.Context, adopterID string) ([]*Application, error)
	ListByShelter(ctx context.Context, shelterID string) ([]*Application, error)
	UpdateStatus(ctx context.Context, id string, status ApplicationStatus, updatedAt time.Time) error
}

// Store bundles the repositories of one storage backend.
type Store struct {
	Users         UserRepository
	Pets          PetRepository
	Messages      MessageRepository
	Notifications NotificationRepository
	Applications  ApplicationRepository

	// Ping checks the backend is reachable; Close releases it.
	Ping  func(ctx context.Context) error
	Close func() error
}
