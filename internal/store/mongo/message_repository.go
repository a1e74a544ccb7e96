package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pethaven/internal/domain"
)

type MessageRepository struct {
	col *mongo.Collection
	seq *sequence
}

func NewMessageRepository(db *mongo.Database, seq *sequence) *MessageRepository {
	return &MessageRepository{col: db.Collection(colMessages), seq: seq}
}

var _ domain.MessageRepository = (*MessageRepository)(nil)

type messageDocument struct {
	ID         string `bson:"_id"`
	Seq        int64  `bson:"seq"`
	SenderID   string `bson:"sender_id"`
	ReceiverID string `bson:"receiver_id"`
	PetID      string `bson:"pet_id"`
	Content    string `bson:"content"`
	ChatID     string `bson:"chat_id"`
	Read       bool   `bson:"read"`
	CreatedAt  int64  `bson:"created_at"`
}

func (d messageDocument) toDomain() *domain.Message {
	return &domain.Message{
		ID:         d.ID,
		SenderID:   d.SenderID,
		ReceiverID: d.ReceiverID,
		PetID:      d.PetID,
		Content:    d.Content,
		ChatID:     d.ChatID,
		Read:       d.Read,
		CreatedAt:  fromMillis(d.CreatedAt),
	}
}

func (r *MessageRepository) Create(ctx context.Context, m *domain.Message) error {
	n, err := r.seq.next(ctx, colMessages)
	if err != nil {
		return err
	}
	doc := messageDocument{
		ID:         m.ID,
		Seq:        n,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		PetID:      m.PetID,
		Content:    m.Content,
		ChatID:     m.ChatID,
		Read:       m.Read,
		CreatedAt:  toMillis(m.CreatedAt),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *MessageRepository) ListForUser(ctx context.Context, userID string) ([]*domain.Message, error) {
	filter := bson.M{"$or": bson.A{bson.M{"sender_id": userID}, bson.M{"receiver_id": userID}}}
	return r.find(ctx, filter, -1)
}

func (r *MessageRepository) ListBetween(ctx context.Context, a, b, petID string) ([]*domain.Message, error) {
	return r.find(ctx, betweenFilter(a, b, petID), 1)
}

func (r *MessageRepository) MarkRead(ctx context.Context, from, to, petID string) (int, error) {
	filter := bson.M{"sender_id": from, "receiver_id": to, "read": false}
	if petID != "" {
		filter["pet_id"] = petID
	}
	res, err := r.col.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}
	return int(res.ModifiedCount), nil
}

func betweenFilter(a, b, petID string) bson.M {
	filter := bson.M{"$or": bson.A{
		bson.M{"sender_id": a, "receiver_id": b},
		bson.M{"sender_id": b, "receiver_id": a},
	}}
	if petID != "" {
		filter["pet_id"] = petID
	}
	return filter
}

func (r *MessageRepository) find(ctx context.Context, filter bson.M, dir int) ([]*domain.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: dir}, {Key: "seq", Value: dir}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	var docs []messageDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	res := make([]*domain.Message, 0, len(docs))
	for _, d := range docs {
		res = append(res, d.toDomain())
	}
	return res, nil
}
