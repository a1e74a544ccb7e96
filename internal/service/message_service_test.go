package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pethaven/internal/domain"
	"pethaven/internal/security"
	"pethaven/internal/service"
	"pethaven/internal/validator"
)

func TestAppend_AssignsChatIDAndTimestamp(t *testing.T) {
	f := newFixture(t)

	m := f.send(t, "bob", "alice", "rex", "  Rex is vaccinated  ")

	assert.NotEmpty(t, m.ID)
	assert.Equal(t, "alice_bob_rex", m.ChatID)
	assert.Equal(t, "Rex is vaccinated", m.Content)
	assert.False(t, m.Read)
	assert.False(t, m.CreatedAt.IsZero())
	assert.Equal(t, []string{service.TopicMessageCreated}, f.events.types())
}

func TestAppend_RejectsInvalidWithoutStoring(t *testing.T) {
	tests := []struct {
		name  string
		in    service.AppendInput
		field string
	}{
		{"empty content", service.AppendInput{SenderID: "alice", ReceiverID: "bob"}, "content"},
		{"blank content", service.AppendInput{SenderID: "alice", ReceiverID: "bob", Content: " \n\t "}, "content"},
		{"too long", service.AppendInput{SenderID: "alice", ReceiverID: "bob", Content: strings.Repeat("é", service.MaxMessageLength+1)}, "content"},
		{"no receiver", service.AppendInput{SenderID: "alice", Content: "hi"}, "receiver_id"},
		{"no sender", service.AppendInput{ReceiverID: "bob", Content: "hi"}, "sender_id"},
		{"to self", service.AppendInput{SenderID: "alice", ReceiverID: "alice", Content: "hi"}, "receiver_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			before := f.messages.len()

			m, err := f.msgSvc.Append(context.Background(), tt.in)

			assert.Nil(t, m)
			var ve *domain.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.field, ve.Fields[0].Field)
			assert.Equal(t, before, f.messages.len())
			assert.Empty(t, f.events.types())
		})
	}
}

func TestAppend_MaxLengthCountsCharacters(t *testing.T) {
	f := newFixture(t)
	_, err := f.msgSvc.Append(context.Background(), service.AppendInput{
		SenderID: "alice", ReceiverID: "bob", Content: strings.Repeat("é", service.MaxMessageLength),
	})
	assert.NoError(t, err)
}

func TestAppend_StoreFailureIsPersistenceError(t *testing.T) {
	f := newFixture(t)
	f.messages.err = errors.New("disk full")

	_, err := f.msgSvc.Append(context.Background(), service.AppendInput{SenderID: "alice", ReceiverID: "bob", Content: "hi"})

	var pe *domain.PersistenceError
	assert.True(t, errors.As(err, &pe))
}

func TestHistory_FilteredAndOrdered(t *testing.T) {
	f := newFixture(t)
	f.send(t, "alice", "bob", "rex", "1")
	f.send(t, "bob", "alice", "", "2")
	f.send(t, "carol", "alice", "rex", "3")
	f.send(t, "bob", "alice", "rex", "4")
	f.send(t, "alice", "bob", "tom", "5")

	ctx := context.Background()

	scoped, err := f.msgSvc.History(ctx, "alice", "bob", "rex")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "4"}, contents(scoped))
	for _, m := range scoped {
		assert.Equal(t, "rex", m.PetID)
	}

	all, err := f.msgSvc.History(ctx, "alice", "bob", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "4", "5"}, contents(all))
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedAt.Before(all[i-1].CreatedAt))
	}

	// Same pair seen from the other side.
	mirror, err := f.msgSvc.History(ctx, "bob", "alice", "")
	require.NoError(t, err)
	assert.Equal(t, contents(all), contents(mirror))

	none, err := f.msgSvc.History(ctx, "alice", "nobody", "")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestHistory_TiesKeepInsertionOrder(t *testing.T) {
	f := newFixture(t)
	fixed := f.msgSvc.Now()
	f.msgSvc.Now = func() time.Time { return fixed }

	for _, c := range []string{"a", "b", "c"} {
		f.send(t, "alice", "bob", "", c)
	}

	got, err := f.msgSvc.History(context.Background(), "bob", "alice", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, contents(got))
}

func TestMarkThreadRead(t *testing.T) {
	f := newFixture(t)
	f.send(t, "bob", "alice", "rex", "1")
	f.send(t, "bob", "alice", "", "2")
	f.send(t, "alice", "bob", "rex", "3")
	ctx := context.Background()

	n, err := f.msgSvc.MarkThreadRead(ctx, "alice", "bob", "rex")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = f.msgSvc.MarkThreadRead(ctx, "alice", "bob", "rex")
	require.NoError(t, err)
	assert.Zero(t, n)

	hist, err := f.msgSvc.History(ctx, "alice", "bob", "")
	require.NoError(t, err)
	read := map[string]bool{}
	for _, m := range hist {
		read[m.Content] = m.Read
	}
	assert.Equal(t, map[string]bool{"1": true, "2": false, "3": false}, read)
}

func TestMessageService_EncryptsAtRest(t *testing.T) {
	enc, err := security.NewEncryptor([]byte("k"))
	require.NoError(t, err)
	repo := &memMessages{}
	events := &recordingPublisher{}
	svc := service.NewMessageService(repo, enc, validator.New(), events, nil)
	ctx := context.Background()

	m, err := svc.Append(ctx, service.AppendInput{SenderID: "alice", ReceiverID: "bob", Content: "secret plans"})
	require.NoError(t, err)
	assert.Equal(t, "secret plans", m.Content)
	assert.NotEqual(t, "secret plans", repo.msgs[0].Content)

	require.Len(t, events.events, 1)
	published, ok := events.events[0].Payload.(*domain.Message)
	require.True(t, ok)
	assert.Equal(t, m.ID, published.ID)
	assert.Equal(t, repo.msgs[0].Content, published.Content)
	assert.NotContains(t, published.Content, "secret")

	hist, err := svc.History(ctx, "bob", "alice", "")
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "secret plans", hist[0].Content)
}

func contents(msgs []*domain.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Content)
	}
	return out
}
