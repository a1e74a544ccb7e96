package domain

import (
	"encoding/json"
	"fmt"
)

// RelatedKind tags what a notification points at.
type RelatedKind string

const (
	RelatedApplication RelatedKind = "application"
	RelatedChat        RelatedKind = "chat"
	RelatedSystem      RelatedKind = "system"
)

// Related is the target of a notification: an application, a chat thread or
// nothing in particular. Exactly one of ID / ChatID is set, according to Kind.
type Related struct {
	Kind   RelatedKind
	ID     string
	ChatID string
}

func RelatedToApplication(id string) Related { return Related{Kind: RelatedApplication, ID: id} }
func RelatedToChat(chatID string) Related    { return Related{Kind: RelatedChat, ChatID: chatID} }
func RelatedToSystem() Related               { return Related{Kind: RelatedSystem} }

// Ref returns the single string stored alongside the kind.
func (r Related) Ref() string {
	switch r.Kind {
	case RelatedApplication:
		return r.ID
	case RelatedChat:
		return r.ChatID
	}
	return ""
}

// ParseRelated rebuilds a Related from its stored (kind, ref) pair.
// An empty kind is treated as system.
func ParseRelated(kind, ref string) (Related, error) {
	switch RelatedKind(kind) {
	case RelatedApplication:
		return RelatedToApplication(ref), nil
	case RelatedChat:
		return RelatedToChat(ref), nil
	case RelatedSystem, "":
		return RelatedToSystem(), nil
	}
	return Related{}, fmt.Errorf("unknown related kind %q", kind)
}

type relatedJSON struct {
	Kind   RelatedKind `json:"kind"`
	ID     string      `json:"id,omitempty"`
	ChatID string      `json:"chat_id,omitempty"`
}

func (r Related) MarshalJSON() ([]byte, error) {
	kind := r.Kind
	if kind == "" {
		kind = RelatedSystem
	}
	out := relatedJSON{Kind: kind}
	switch kind {
	case RelatedApplication:
		out.ID = r.ID
	case RelatedChat:
		out.ChatID = r.ChatID
	}
	return json.Marshal(out)
}

func (r *Related) UnmarshalJSON(b []byte) error {
	var in relatedJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	ref := in.ID
	if in.Kind == RelatedChat {
		ref = in.ChatID
	}
	parsed, err := ParseRelated(string(in.Kind), ref)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
