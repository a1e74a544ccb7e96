package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pethaven/internal/domain"
)

type NotificationRepository struct {
	col *mongo.Collection
	seq *sequence
}

func NewNotificationRepository(db *mongo.Database, seq *sequence) *NotificationRepository {
	return &NotificationRepository{col: db.Collection(colNotifications), seq: seq}
}

var _ domain.NotificationRepository = (*NotificationRepository)(nil)

type relatedDocument struct {
	Kind   string `bson:"kind"`
	ID     string `bson:"id,omitempty"`
	ChatID string `bson:"chat_id,omitempty"`
}

type notificationDocument struct {
	ID          string          `bson:"_id"`
	Seq         int64           `bson:"seq"`
	RecipientID string          `bson:"recipient_id"`
	Type        string          `bson:"type"`
	Message     string          `bson:"message"`
	Related     relatedDocument `bson:"related"`
	Read        bool            `bson:"read"`
	CreatedAt   int64           `bson:"created_at"`
}

func newNotificationDocument(n *domain.Notification, seq int64) notificationDocument {
	kind := n.Related.Kind
	if kind == "" {
		kind = domain.RelatedSystem
	}
	return notificationDocument{
		ID:          n.ID,
		Seq:         seq,
		RecipientID: n.RecipientID,
		Type:        string(n.Type),
		Message:     n.Message,
		Related:     relatedDocument{Kind: string(kind), ID: n.Related.ID, ChatID: n.Related.ChatID},
		Read:        n.Read,
		CreatedAt:   toMillis(n.CreatedAt),
	}
}

func (d notificationDocument) toDomain() (*domain.Notification, error) {
	ref := d.Related.ID
	if domain.RelatedKind(d.Related.Kind) == domain.RelatedChat {
		ref = d.Related.ChatID
	}
	related, err := domain.ParseRelated(d.Related.Kind, ref)
	if err != nil {
		return nil, err
	}
	return &domain.Notification{
		ID:          d.ID,
		RecipientID: d.RecipientID,
		Type:        domain.NotificationType(d.Type),
		Message:     d.Message,
		Related:     related,
		Read:        d.Read,
		CreatedAt:   fromMillis(d.CreatedAt),
	}, nil
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	seq, err := r.seq.next(ctx, colNotifications)
	if err != nil {
		return err
	}
	if _, err := r.col.InsertOne(ctx, newNotificationDocument(n, seq)); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	var doc notificationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.toDomain()
}

func (r *NotificationRepository) ListForRecipient(ctx context.Context, recipientID string) ([]*domain.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "seq", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"recipient_id": recipientID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	var docs []notificationDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	res := make([]*domain.Notification, 0, len(docs))
	for _, d := range docs {
		n, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		res = append(res, n)
	}
	return res, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
