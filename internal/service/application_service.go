package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"pethaven/internal/domain"
	"pethaven/internal/validator"
)

// ApplicationService manages adoption applications and notifies the other
// party of each change.
type ApplicationService struct {
	applications  domain.ApplicationRepository
	pets          domain.PetRepository
	notifications *NotificationService
	validate      *validator.Validator
	events        Publisher
	log           *slog.Logger

	Now func() time.Time
}

func NewApplicationService(
	applications domain.ApplicationRepository,
	pets domain.PetRepository,
	notifications *NotificationService,
	validate *validator.Validator,
	events Publisher,
	log *slog.Logger,
) *ApplicationService {
	return &ApplicationService{
		applications:  applications,
		pets:          pets,
		notifications: notifications,
		validate:      validate,
		events:        orNopPublisher(events),
		log:           orDiscard(log),
		Now:           func() time.Time { return time.Now().UTC() },
	}
}

type ApplicationCreateInput struct {
	PetID   string `json:"pet_id" validate:"required"`
	Message string `json:"message" validate:"required,max=2000"`
}

// Create files an application by adopter for a pet. An adopter may apply
// once per pet.
func (s *ApplicationService) Create(ctx context.Context, adopter *domain.User, in ApplicationCreateInput) (*domain.Application, error) {
	in.Message = strings.TrimSpace(in.Message)
	if err := s.validate.ValidateStruct(in); err != nil {
		return nil, err
	}

	pet, err := s.pets.GetByID(ctx, in.PetID)
	if err != nil {
		return nil, domain.Persistence("get pet", err)
	}
	if _, err := s.applications.FindByPetAndAdopter(ctx, pet.ID, adopter.ID); err == nil {
		return nil, domain.ErrConflict
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Persistence("find application", err)
	}

	now := s.Now()
	app := &domain.Application{
		ID:        uuid.NewString(),
		AdopterID: adopter.ID,
		PetID:     pet.ID,
		ShelterID: pet.ShelterID,
		Status:    domain.ApplicationPending,
		Message:   in.Message,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.applications.Create(ctx, app); err != nil {
		return nil, domain.Persistence("create application", err)
	}

	text := fmt.Sprintf("New adoption application for %s from %s", pet.Name, adopter.Name)
	if _, err := s.notifications.Notify(ctx, app.ShelterID, domain.NotificationNewApplication, text, domain.RelatedToApplication(app.ID)); err != nil {
		s.log.Error("notify shelter of application", "application_id", app.ID, "err", err)
	}
	publish(ctx, s.events, s.log, Event{Type: TopicApplicationCreated, Key: app.ID, Payload: app, OccurredAt: now})
	return app, nil
}

// ListMine returns the adopter's applications.
func (s *ApplicationService) ListMine(ctx context.Context, adopterID string) ([]*domain.Application, error) {
	list, err := s.applications.ListByAdopter(ctx, adopterID)
	return nonNil(list), domain.Persistence("list applications", err)
}

// ListForShelter returns applications for the shelter's pets.
func (s *ApplicationService) ListForShelter(ctx context.Context, shelterID string) ([]*domain.Application, error) {
	list, err := s.applications.ListByShelter(ctx, shelterID)
	return nonNil(list), domain.Persistence("list applications", err)
}

type StatusUpdateInput struct {
	Status domain.ApplicationStatus `json:"status" validate:"required,oneof=Pending Approved Rejected"`
}

// UpdateStatus lets the shelter that owns an application change its status.
// The adopter is notified.
func (s *ApplicationService) UpdateStatus(ctx context.Context, actor *domain.User, id string, in StatusUpdateInput) (*domain.Application, error) {
	if err := s.validate.ValidateStruct(in); err != nil {
		return nil, err
	}

	app, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return nil, domain.Persistence("get application", err)
	}
	if app.ShelterID != actor.ID {
		return nil, domain.ErrForbidden
	}

	now := s.Now()
	if err := s.applications.UpdateStatus(ctx, app.ID, in.Status, now); err != nil {
		return nil, domain.Persistence("update application", err)
	}
	app.Status = in.Status
	app.UpdatedAt = now

	petName := "your pet"
	if pet, err := s.pets.GetByID(ctx, app.PetID); err == nil {
		petName = pet.Name
	} else {
		s.log.Warn("resolve pet for status notification", "pet_id", app.PetID, "err", err)
	}
	text := fmt.Sprintf("Your application for %s has been %s", petName, in.Status)
	if _, err := s.notifications.Notify(ctx, app.AdopterID, domain.NotificationApplicationStatus, text, domain.RelatedToApplication(app.ID)); err != nil {
		s.log.Error("notify adopter of status", "application_id", app.ID, "err", err)
	}
	publish(ctx, s.events, s.log, Event{Type: TopicApplicationStatusChanged, Key: app.ID, Payload: app, OccurredAt: now})
	return app, nil
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return make([]T, 0)
	}
	return list
}
