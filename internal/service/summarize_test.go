package service_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"pethaven/internal/domain"
	"pethaven/internal/service"
)

func msgAt(id, from, to, pet string, minute int) *domain.Message {
	return &domain.Message{
		ID: id, SenderID: from, ReceiverID: to, PetID: pet,
		Content:   id,
		CreatedAt: time.Date(2024, 1, 1, 0, minute, 0, 0, time.UTC),
	}
}

func TestSummarize_Empty(t *testing.T) {
	got := service.Summarize(nil, "alice")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSummarize_OneThreadPerScope(t *testing.T) {
	// newest first
	msgs := []*domain.Message{
		msgAt("m6", "alice", "bob", "", 6),
		msgAt("m5", "bob", "alice", "rex", 5),
		msgAt("m4", "carol", "alice", "rex", 4),
		msgAt("m3", "alice", "bob", "rex", 3),
		msgAt("m2", "bob", "alice", "", 2),
		msgAt("m1", "alice", "carol", "rex", 1),
	}

	got := service.Summarize(msgs, "alice")

	type row struct{ Key, Last string }
	rows := make([]row, 0, len(got))
	for _, th := range got {
		rows = append(rows, row{Key: th.Key.String(), Last: th.LastMessage.ID})
	}
	want := []row{
		{Key: "bob_general", Last: "m6"},
		{Key: "bob_rex", Last: "m5"},
		{Key: "carol_rex", Last: "m4"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize_KeysAreUnique(t *testing.T) {
	msgs := make([]*domain.Message, 0, 40)
	peers := []string{"bob", "carol"}
	pets := []string{"", "rex", "tom"}
	for i := 40; i > 0; i-- {
		peer := peers[i%len(peers)]
		from, to := "alice", peer
		if i%3 == 0 {
			from, to = peer, "alice"
		}
		msgs = append(msgs, msgAt("m", from, to, pets[i%len(pets)], i))
	}

	got := service.Summarize(msgs, "alice")

	seen := map[domain.ScopeKey]bool{}
	for _, th := range got {
		assert.False(t, seen[th.Key], "duplicate key %s", th.Key)
		seen[th.Key] = true
	}
	assert.Len(t, got, len(peers)*len(pets))
}
