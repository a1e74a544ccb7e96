package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pethaven/internal/domain"
)

func newTestStore(t *testing.T) *domain.Store {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db), "migrate must be idempotent")
	return NewStore(db)
}

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func TestUserRepo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := &domain.User{ID: "u1", Name: "Alice", Email: "alice@example.com", Role: domain.RoleAdopter, HashedPassword: "h", IsActive: true, CreatedAt: t0}
	require.NoError(t, s.Users.Create(ctx, u))

	got, err := s.Users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u, got)

	dup := *u
	dup.ID = "u2"
	assert.ErrorIs(t, s.Users.Create(ctx, &dup), domain.ErrConflict)

	_, err = s.Users.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPetRepo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Pets.Create(ctx, &domain.Pet{ID: "p1", Name: "Rex", Breed: "Lab", Category: "dog", Age: 2, Images: []string{"a.jpg"}, Status: domain.PetAvailable, ShelterID: "s1", CreatedAt: t0}))
	require.NoError(t, s.Pets.Create(ctx, &domain.Pet{ID: "p2", Name: "Tom", Breed: "Tabby", Category: "cat", Status: domain.PetAdopted, ShelterID: "s1", CreatedAt: t0.Add(time.Minute)}))

	p, err := s.Pets.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg"}, p.Images)

	all, err := s.Pets.List(ctx, domain.PetFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "p2", all[0].ID)
	assert.Equal(t, []string{}, all[0].Images)

	dogs, err := s.Pets.List(ctx, domain.PetFilter{Category: "dog", Status: domain.PetAvailable})
	require.NoError(t, err)
	require.Len(t, dogs, 1)
	assert.Equal(t, "Rex", dogs[0].Name)

	_, err = s.Pets.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func addMessage(t *testing.T, s *domain.Store, id, from, to, pet string, at time.Time) {
	t.Helper()
	require.NoError(t, s.Messages.Create(context.Background(), &domain.Message{
		ID: id, SenderID: from, ReceiverID: to, PetID: pet, Content: "c-" + id,
		ChatID: domain.ChatID(from, to, pet), CreatedAt: at,
	}))
}

func ids(msgs []*domain.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}

func TestMessageRepo_Ordering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	addMessage(t, s, "m1", "a", "b", "rex", t0)
	addMessage(t, s, "m2", "b", "a", "", t0.Add(time.Second))
	// same timestamp: insertion order decides
	addMessage(t, s, "m3", "a", "b", "rex", t0.Add(2*time.Second))
	addMessage(t, s, "m4", "b", "a", "rex", t0.Add(2*time.Second))
	addMessage(t, s, "m5", "c", "a", "", t0.Add(3*time.Second))

	between, err := s.Messages.ListBetween(ctx, "a", "b", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2", "m3", "m4"}, ids(between))

	scoped, err := s.Messages.ListBetween(ctx, "b", "a", "rex")
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m3", "m4"}, ids(scoped))

	forA, err := s.Messages.ListForUser(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"m5", "m4", "m3", "m2", "m1"}, ids(forA))
	assert.Equal(t, t0, forA[4].CreatedAt)
	assert.Equal(t, "a_b_rex", forA[4].ChatID)

	none, err := s.Messages.ListForUser(ctx, "z")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMessageRepo_MarkRead(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addMessage(t, s, "m1", "b", "a", "rex", t0)
	addMessage(t, s, "m2", "b", "a", "", t0.Add(time.Second))
	addMessage(t, s, "m3", "a", "b", "rex", t0.Add(2*time.Second))

	n, err := s.Messages.MarkRead(ctx, "b", "a", "rex")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.Messages.MarkRead(ctx, "b", "a", "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	msgs, err := s.Messages.ListBetween(ctx, "a", "b", "")
	require.NoError(t, err)
	read := map[string]bool{}
	for _, m := range msgs {
		read[m.ID] = m.Read
	}
	assert.Equal(t, map[string]bool{"m1": true, "m2": true, "m3": false}, read)
}

func TestNotificationRepo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	related := []domain.Related{
		domain.RelatedToApplication("app-1"),
		domain.RelatedToChat("a_b_rex"),
		domain.RelatedToSystem(),
	}
	for i, rel := range related {
		require.NoError(t, s.Notifications.Create(ctx, &domain.Notification{
			ID: string(rune('1' + i)), RecipientID: "a", Type: domain.NotificationSystem,
			Message: "n", Related: rel, CreatedAt: t0.Add(time.Duration(i) * time.Second),
		}))
	}

	list, err := s.Notifications.ListForRecipient(ctx, "a")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, related[2], list[0].Related)
	assert.Equal(t, related[1], list[1].Related)
	assert.Equal(t, related[0], list[2].Related)

	require.NoError(t, s.Notifications.MarkRead(ctx, "1"))
	require.NoError(t, s.Notifications.MarkRead(ctx, "1"))
	n, err := s.Notifications.GetByID(ctx, "1")
	require.NoError(t, err)
	assert.True(t, n.Read)

	assert.ErrorIs(t, s.Notifications.MarkRead(ctx, "missing"), domain.ErrNotFound)
	_, err = s.Notifications.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApplicationRepo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	app := &domain.Application{ID: "x1", AdopterID: "a", PetID: "p1", ShelterID: "s1", Status: domain.ApplicationPending, Message: "hi", CreatedAt: t0, UpdatedAt: t0}
	require.NoError(t, s.Applications.Create(ctx, app))

	dup := *app
	dup.ID = "x2"
	assert.ErrorIs(t, s.Applications.Create(ctx, &dup), domain.ErrConflict)

	found, err := s.Applications.FindByPetAndAdopter(ctx, "p1", "a")
	require.NoError(t, err)
	assert.Equal(t, app, found)

	later := t0.Add(time.Hour)
	require.NoError(t, s.Applications.UpdateStatus(ctx, "x1", domain.ApplicationRejected, later))
	got, err := s.Applications.GetByID(ctx, "x1")
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationRejected, got.Status)
	assert.Equal(t, later, got.UpdatedAt)

	byShelter, err := s.Applications.ListByShelter(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, byShelter, 1)
	byAdopter, err := s.Applications.ListByAdopter(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, byAdopter)

	assert.ErrorIs(t, s.Applications.UpdateStatus(ctx, "zzz", domain.ApplicationApproved, later), domain.ErrNotFound)
}
