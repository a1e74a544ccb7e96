package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pethaven/internal/domain"
)

type PetRepository struct {
	col *mongo.Collection
	seq *sequence
}

func NewPetRepository(db *mongo.Database, seq *sequence) *PetRepository {
	return &PetRepository{col: db.Collection(colPets), seq: seq}
}

var _ domain.PetRepository = (*PetRepository)(nil)

type petDocument struct {
	ID        string   `bson:"_id"`
	Seq       int64    `bson:"seq"`
	Name      string   `bson:"name"`
	Breed     string   `bson:"breed"`
	Category  string   `bson:"category"`
	Age       int      `bson:"age"`
	Images    []string `bson:"images"`
	Status    string   `bson:"status"`
	ShelterID string   `bson:"shelter_id"`
	CreatedAt int64    `bson:"created_at"`
}

func (d petDocument) toDomain() *domain.Pet {
	images := d.Images
	if images == nil {
		images = []string{}
	}
	return &domain.Pet{
		ID:        d.ID,
		Name:      d.Name,
		Breed:     d.Breed,
		Category:  d.Category,
		Age:       d.Age,
		Images:    images,
		Status:    domain.PetStatus(d.Status),
		ShelterID: d.ShelterID,
		CreatedAt: fromMillis(d.CreatedAt),
	}
}

func (r *PetRepository) Create(ctx context.Context, p *domain.Pet) error {
	n, err := r.seq.next(ctx, colPets)
	if err != nil {
		return err
	}
	doc := petDocument{
		ID:        p.ID,
		Seq:       n,
		Name:      p.Name,
		Breed:     p.Breed,
		Category:  p.Category,
		Age:       p.Age,
		Images:    p.Images,
		Status:    string(p.Status),
		ShelterID: p.ShelterID,
		CreatedAt: toMillis(p.CreatedAt),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert pet: %w", err)
	}
	return nil
}

func (r *PetRepository) GetByID(ctx context.Context, id string) (*domain.Pet, error) {
	var doc petDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.toDomain(), nil
}

func (r *PetRepository) List(ctx context.Context, f domain.PetFilter) ([]*domain.Pet, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "seq", Value: -1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list pets: %w", err)
	}
	var docs []petDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode pets: %w", err)
	}
	res := make([]*domain.Pet, 0, len(docs))
	for _, d := range docs {
		res = append(res, d.toDomain())
	}
	return res, nil
}
