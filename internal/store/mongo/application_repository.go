package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pethaven/internal/domain"
)

type ApplicationRepository struct {
	col *mongo.Collection
	seq *sequence
}

func NewApplicationRepository(db *mongo.Database, seq *sequence) *ApplicationRepository {
	return &ApplicationRepository{col: db.Collection(colApplications), seq: seq}
}

var _ domain.ApplicationRepository = (*ApplicationRepository)(nil)

type applicationDocument struct {
	ID        string `bson:"_id"`
	Seq       int64  `bson:"seq"`
	AdopterID string `bson:"adopter_id"`
	PetID     string `bson:"pet_id"`
	ShelterID string `bson:"shelter_id"`
	Status    string `bson:"status"`
	Message   string `bson:"message"`
	CreatedAt int64  `bson:"created_at"`
	UpdatedAt int64  `bson:"updated_at"`
}

func (d applicationDocument) toDomain() *domain.Application {
	return &domain.Application{
		ID:        d.ID,
		AdopterID: d.AdopterID,
		PetID:     d.PetID,
		ShelterID: d.ShelterID,
		Status:    domain.ApplicationStatus(d.Status),
		Message:   d.Message,
		CreatedAt: fromMillis(d.CreatedAt),
		UpdatedAt: fromMillis(d.UpdatedAt),
	}
}

func (r *ApplicationRepository) Create(ctx context.Context, a *domain.Application) error {
	n, err := r.seq.next(ctx, colApplications)
	if err != nil {
		return err
	}
	doc := applicationDocument{
		ID:        a.ID,
		Seq:       n,
		AdopterID: a.AdopterID,
		PetID:     a.PetID,
		ShelterID: a.ShelterID,
		Status:    string(a.Status),
		Message:   a.Message,
		CreatedAt: toMillis(a.CreatedAt),
		UpdatedAt: toMillis(a.UpdatedAt),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *ApplicationRepository) FindByPetAndAdopter(ctx context.Context, petID, adopterID string) (*domain.Application, error) {
	return r.findOne(ctx, bson.M{"pet_id": petID, "adopter_id": adopterID})
}

func (r *ApplicationRepository) ListByAdopter(ctx context.Context, adopterID string) ([]*domain.Application, error) {
	return r.find(ctx, bson.M{"adopter_id": adopterID})
}

func (r *ApplicationRepository) ListByShelter(ctx context.Context, shelterID string) ([]*domain.Application, error) {
	return r.find(ctx, bson.M{"shelter_id": shelterID})
}

func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status domain.ApplicationStatus, updatedAt time.Time) error {
	update := bson.M{"$set": bson.M{"status": string(status), "updated_at": toMillis(updatedAt)}}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ApplicationRepository) findOne(ctx context.Context, filter bson.M) (*domain.Application, error) {
	var doc applicationDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.toDomain(), nil
}

func (r *ApplicationRepository) find(ctx context.Context, filter bson.M) ([]*domain.Application, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "seq", Value: -1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	var docs []applicationDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode applications: %w", err)
	}
	res := make([]*domain.Application, 0, len(docs))
	for _, d := range docs {
		res = append(res, d.toDomain())
	}
	return res, nil
}
