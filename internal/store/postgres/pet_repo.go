package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"pethaven/internal/domain"
)

type PetRepo struct {
	db *sql.DB
}

func NewPetRepo(db *sql.DB) *PetRepo {
	return &PetRepo{db: db}
}

var _ domain.PetRepository = (*PetRepo)(nil)

const petColumns = `id, name, breed, category, age, images, status, shelter_id, created_at`

func (r *PetRepo) Create(ctx context.Context, p *domain.Pet) error {
	images, err := json.Marshal(p.Images)
	if err != nil {
		return fmt.Errorf("encode images: %w", err)
	}
	query := `
		INSERT INTO pets (id, name, breed, category, age, images, status, shelter_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Breed, p.Category, p.Age, string(images), string(p.Status), p.ShelterID, p.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert pet: %w", err)
	}
	return nil
}

func (r *PetRepo) GetByID(ctx context.Context, id string) (*domain.Pet, error) {
	p, err := scanPet(r.db.QueryRowContext(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return p, err
}

func (r *PetRepo) List(ctx context.Context, f domain.PetFilter) ([]*domain.Pet, error) {
	var where []string
	var args []any
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	query := `SELECT ` + petColumns + ` FROM pets`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, seq DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pets: %w", err)
	}
	defer rows.Close()

	res := make([]*domain.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func scanPet(s scanner) (*domain.Pet, error) {
	p := &domain.Pet{}
	var images []byte
	var status string
	if err := s.Scan(&p.ID, &p.Name, &p.Breed, &p.Category, &p.Age, &images, &status, &p.ShelterID, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan pet: %w", err)
	}
	if err := json.Unmarshal(images, &p.Images); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	p.Status = domain.PetStatus(status)
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}
