package domain

import "strings"

// GeneralScope is the pet scope of a conversation that is not about a pet.
const GeneralScope = "general"

// ChatID builds the deterministic grouping key of a thread: the two user ids
// sorted and joined by "_", followed by "_<petID>" when the thread is about a
// pet. It is stored on messages for indexing only; conversation identity is
// always the ScopeKey.
func ChatID(a, b, petID string) string {
	if b < a {
		a, b = b, a
	}
	id := a + "_" + b
	if petID != "" {
		id += "_" + petID
	}
	return id
}

// ScopeKey identifies a conversation from one user's point of view.
type ScopeKey struct {
	Counterparty string
	Pet          string
}

// ScopeOf returns the scope key of m as seen by viewerID.
func ScopeOf(m *Message, viewerID string) ScopeKey {
	pet := m.PetID
	if pet == "" {
		pet = GeneralScope
	}
	return ScopeKey{Counterparty: m.Counterparty(viewerID), Pet: pet}
}

func (k ScopeKey) String() string {
	return strings.Join([]string{k.Counterparty, k.Pet}, "_")
}
