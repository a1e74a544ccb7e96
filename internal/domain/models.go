package domain

import "time"

// Role is the account type of a user.
type Role string

const (
	RoleAdopter Role = "adopter"
	RoleShelter Role = "shelter"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdopter, RoleShelter, RoleAdmin:
		return true
	}
	return false
}

// User represents an application user.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           Role      `json:"role"`
	HashedPassword string    `json:"-"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// Profile returns the public projection of the user.
func (u *User) Profile() UserProfile {
	return UserProfile{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// UserProfile is what other users get to see about an account.
type UserProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// PetStatus is the adoption state of a listed pet.
type PetStatus string

const (
	PetAvailable PetStatus = "Available"
	PetPending   PetStatus = "Pending"
	PetAdopted   PetStatus = "Adopted"
)

// Pet is a listing owned by a shelter.
type Pet struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Breed     string    `json:"breed"`
	Category  string    `json:"category"`
	Age       int       `json:"age"`
	Images    []string  `json:"images"`
	Status    PetStatus `json:"status"`
	ShelterID string    `json:"shelter_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary returns the denormalized form attached to conversations.
func (p *Pet) Summary() *PetSummary {
	return &PetSummary{ID: p.ID, Name: p.Name, Images: p.Images}
}

// PetSummary is the short pet form shown next to a conversation.
type PetSummary struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Images []string `json:"images"`
}

// PetFilter narrows a pet listing. Empty fields match everything.
type PetFilter struct {
	Status   PetStatus
	Category string
}

// Message is a single chat message between two users, optionally about a pet.
// Only Read changes after creation.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	PetID      string    `json:"pet_id,omitempty"`
	Content    string    `json:"content"`
	ChatID     string    `json:"chat_id"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

// Counterparty returns the other participant of m as seen by viewerID.
func (m *Message) Counterparty(viewerID string) string {
	if m.SenderID == viewerID {
		return m.ReceiverID
	}
	return m.SenderID
}

// NotificationType classifies notifications.
type NotificationType string

const (
	NotificationNewMessage        NotificationType = "new_message"
	NotificationNewApplication    NotificationType = "new_application"
	NotificationApplicationStatus NotificationType = "application_status"
	NotificationSystem            NotificationType = "system"
)

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationNewMessage, NotificationNewApplication, NotificationApplicationStatus, NotificationSystem:
		return true
	}
	return false
}

// Notification is a one-way message to a single recipient.
type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipient_id"`
	Type        NotificationType `json:"type"`
	Message     string           `json:"message"`
	Related     Related          `json:"related"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"created_at"`
}

// ApplicationStatus is the review state of an adoption application.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "Pending"
	ApplicationApproved ApplicationStatus = "Approved"
	ApplicationRejected ApplicationStatus = "Rejected"
)

// Valid reports whether s is a known application status.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationApproved, ApplicationRejected:
		return true
	}
	return false
}

// Application is an adopter's request to adopt a pet.
type Application struct {
	ID        string            `json:"id"`
	AdopterID string            `json:"adopter_id"`
	PetID     string            `json:"pet_id"`
	ShelterID string            `json:"shelter_id"`
	Status    ApplicationStatus `json:"status"`
	Message   string            `json:"message"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
