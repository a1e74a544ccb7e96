package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"pethaven/internal/domain"
)

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(colUsers)}
}

var _ domain.UserRepository = (*UserRepository)(nil)

type userDocument struct {
	ID             string `bson:"_id"`
	Name           string `bson:"name"`
	Email          string `bson:"email"`
	Role           string `bson:"role"`
	HashedPassword string `bson:"hashed_password"`
	IsActive       bool   `bson:"is_active"`
	CreatedAt      int64  `bson:"created_at"`
}

func newUserDocument(u *domain.User) userDocument {
	return userDocument{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Role:           string(u.Role),
		HashedPassword: u.HashedPassword,
		IsActive:       u.IsActive,
		CreatedAt:      toMillis(u.CreatedAt),
	}
}

func (d userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:             d.ID,
		Name:           d.Name,
		Email:          d.Email,
		Role:           domain.Role(d.Role),
		HashedPassword: d.HashedPassword,
		IsActive:       d.IsActive,
		CreatedAt:      fromMillis(d.CreatedAt),
	}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	if _, err := r.col.InsertOne(ctx, newUserDocument(u)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.toDomain(), nil
}
