package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pethaven/internal/domain"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("23505")))
	assert.False(t, isUniqueViolation(nil))
}

// Runs against a real server when POSTGRES_TEST_DSN is set.
func TestStore_Integration(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	db, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	s := NewStore(db)
	ctx := context.Background()
	a, b := uuid.NewString(), uuid.NewString()
	at := time.Now().UTC().Truncate(time.Microsecond)

	for i, id := range []string{"first", "second", "third"} {
		require.NoError(t, s.Messages.Create(ctx, &domain.Message{
			ID: uuid.NewString(), SenderID: a, ReceiverID: b, Content: id,
			ChatID: domain.ChatID(a, b, ""), CreatedAt: at.Add(time.Duration(i/2) * time.Second),
		}))
	}

	hist, err := s.Messages.ListBetween(ctx, b, a, "")
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, "first", hist[0].Content)
	assert.Equal(t, "second", hist[1].Content)
	assert.Equal(t, "third", hist[2].Content)

	n, err := s.Messages.MarkRead(ctx, a, b, "")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	notif := &domain.Notification{
		ID: uuid.NewString(), RecipientID: b, Type: domain.NotificationNewMessage,
		Message: "hi", Related: domain.RelatedToChat(domain.ChatID(a, b, "")), CreatedAt: at,
	}
	require.NoError(t, s.Notifications.Create(ctx, notif))
	got, err := s.Notifications.GetByID(ctx, notif.ID)
	require.NoError(t, err)
	assert.Equal(t, notif.Related, got.Related)

	u := &domain.User{ID: uuid.NewString(), Name: "N", Email: a + "@example.com", Role: domain.RoleAdopter, HashedPassword: "h", IsActive: true, CreatedAt: at}
	require.NoError(t, s.Users.Create(ctx, u))
	u.ID = uuid.NewString()
	assert.ErrorIs(t, s.Users.Create(ctx, u), domain.ErrConflict)
}
