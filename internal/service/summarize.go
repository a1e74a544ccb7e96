package service

import "pethaven/internal/domain"

// Thread is one conversation as seen by a viewer, before its counterparty
// and pet are resolved.
type Thread struct {
	Key         domain.ScopeKey
	LastMessage *domain.Message
}

// Summarize groups messages into threads keyed by (counterparty, pet).
// messages must be newest first; the first message seen for a key becomes
// its LastMessage and the result keeps that encounter order.
func Summarize(messages []*domain.Message, viewerID string) []Thread {
	threads := make([]Thread, 0)
	seen := make(map[domain.ScopeKey]struct{}, len(messages))
	for _, m := range messages {
		key := domain.ScopeOf(m, viewerID)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		threads = append(threads, Thread{Key: key, LastMessage: m})
	}
	return threads
}
