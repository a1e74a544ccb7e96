package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pethaven/internal/domain"
)

type ApplicationRepo struct {
	db *sql.DB
}

func NewApplicationRepo(db *sql.DB) *ApplicationRepo {
	return &ApplicationRepo{db: db}
}

var _ domain.ApplicationRepository = (*ApplicationRepo)(nil)

const applicationColumns = `id, adopter_id, pet_id, shelter_id, status, message, created_at, updated_at`

func (r *ApplicationRepo) Create(ctx context.Context, a *domain.Application) error {
	query := `
		INSERT INTO applications (id, adopter_id, pet_id, shelter_id, status, message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.AdopterID, a.PetID, a.ShelterID, string(a.Status), a.Message, toUnix(a.CreatedAt), toUnix(a.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return domain.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (r *ApplicationRepo) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	return r.get(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = ?`, id)
}

func (r *ApplicationRepo) FindByPetAndAdopter(ctx context.Context, petID, adopterID string) (*domain.Application, error) {
	return r.get(ctx, `SELECT `+applicationColumns+` FROM applications WHERE pet_id = ? AND adopter_id = ?`, petID, adopterID)
}

func (r *ApplicationRepo) ListByAdopter(ctx context.Context, adopterID string) ([]*domain.Application, error) {
	return r.list(ctx, `SELECT `+applicationColumns+` FROM applications WHERE adopter_id = ? ORDER BY created_at DESC, rowid DESC`, adopterID)
}

func (r *ApplicationRepo) ListByShelter(ctx context.Context, shelterID string) ([]*domain.Application, error) {
	return r.list(ctx, `SELECT `+applicationColumns+` FROM applications WHERE shelter_id = ? ORDER BY created_at DESC, rowid DESC`, shelterID)
}

func (r *ApplicationRepo) UpdateStatus(ctx context.Context, id string, status domain.ApplicationStatus, updatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE applications SET status = ?, updated_at = ? WHERE id = ?`, string(status), toUnix(updatedAt), id)
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ApplicationRepo) get(ctx context.Context, query string, args ...any) (*domain.Application, error) {
	a, err := scanApplication(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

func (r *ApplicationRepo) list(ctx context.Context, query string, args ...any) ([]*domain.Application, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	res := make([]*domain.Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func scanApplication(s scanner) (*domain.Application, error) {
	a := &domain.Application{}
	var status string
	var created, updated int64
	if err := s.Scan(&a.ID, &a.AdopterID, &a.PetID, &a.ShelterID, &status, &a.Message, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan application: %w", err)
	}
	a.Status = domain.ApplicationStatus(status)
	a.CreatedAt = fromUnix(created)
	a.UpdatedAt = fromUnix(updated)
	return a, nil
}
