package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"pethaven/internal/domain"
	"pethaven/internal/validator"
)

type PetService struct {
	pets     domain.PetRepository
	validate *validator.Validator

	Now func() time.Time
}

func NewPetService(pets domain.PetRepository, validate *validator.Validator) *PetService {
	return &PetService{
		pets:     pets,
		validate: validate,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

type PetCreateInput struct {
	Name     string   `json:"name" validate:"required,max=100"`
	Breed    string   `json:"breed" validate:"required,max=100"`
	Category string   `json:"category" validate:"required,max=50"`
	Age      int      `json:"age" validate:"gte=0,lte=50"`
	Images   []string `json:"images" validate:"omitempty,dive,url"`
}

// Create lists a new available pet owned by shelterID.
func (s *PetService) Create(ctx context.Context, shelterID string, in PetCreateInput) (*domain.Pet, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.ValidateStruct(in); err != nil {
		return nil, err
	}
	images := in.Images
	if images == nil {
		images = []string{}
	}
	pet := &domain.Pet{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Breed:     in.Breed,
		Category:  in.Category,
		Age:       in.Age,
		Images:    images,
		Status:    domain.PetAvailable,
		ShelterID: shelterID,
		CreatedAt: s.Now(),
	}
	if err := s.pets.Create(ctx, pet); err != nil {
		return nil, domain.Persistence("create pet", err)
	}
	return pet, nil
}

func (s *PetService) Get(ctx context.Context, id string) (*domain.Pet, error) {
	pet, err := s.pets.GetByID(ctx, id)
	if err != nil {
		return nil, domain.Persistence("get pet", err)
	}
	return pet, nil
}

// List returns pets matching f, newest first.
func (s *PetService) List(ctx context.Context, f domain.PetFilter) ([]*domain.Pet, error) {
	pets, err := s.pets.List(ctx, f)
	if err != nil {
		return nil, domain.Persistence("list pets", err)
	}
	if pets == nil {
		pets = make([]*domain.Pet, 0)
	}
	return pets, nil
}
