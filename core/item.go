package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Part represents a polymorphic segment of an Item. Concrete part types
// implement the unexported isPart marker enabling a closed set.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text     string         // Plain UTF-8 text
	Metadata map[string]any // Optional producer-provided metadata
}

// isPart implements the Part interface for TextPart.
func (TextPart) isPart() {}

// DataPart is a structured data segment (e.g., JSON object map).
type DataPart struct {
	Data     map[string]any // Structured key/value payload
	Metadata map[string]any
}

// isPart implements the Part interface for DataPart.
func (DataPart) isPart() {}

// ReasoningPart carries model reasoning emitted alongside an answer. It is
// preserved through persistence so paired reasoning/answer items stay
// together across turns.
type ReasoningPart struct {
	Text     string
	Metadata map[string]any
}

// isPart implements the Part interface for ReasoningPart.
func (ReasoningPart) isPart() {}

// Item is one ordered record of a conversation: a role plus heterogeneous
// parts. Items are treated as immutable once produced; helpers return copies
// rather than exposing internal slices.
type Item struct {
	ID    string `json:"id"`
	Role  string `json:"role"` // user, assistant, system,...
	Parts []Part `json:"parts"`
}

// NewUserItem wraps raw text input as a user-authored item.
func NewUserItem(text string) Item {
	return Item{ID: NewID(), Role: "user", Parts: []Part{TextPart{Text: text}}}
}

// NewAssistantItem wraps text as an assistant-authored item.
func NewAssistantItem(text string) Item {
	return Item{ID: NewID(), Role: "assistant", Parts: []Part{TextPart{Text: text}}}
}

// NewDataItem wraps a structured payload as an item with the given role.
func NewDataItem(role string, data map[string]any) Item {
	return Item{ID: NewID(), Role: role, Parts: []Part{DataPart{Data: data}}}
}

// Text concatenates all text parts of the item, ignoring reasoning and data
// segments.
func (i Item) Text() string {
	var sb strings.Builder
	for _, p := range i.Parts {
		if tp, ok := p.(TextPart); ok {
			sb.WriteString(tp.Text)
		}
	}
	return sb.String()
}

// Clone returns a copy with an independent parts slice. Part payloads are
// shared; parts are value types treated as immutable.
func (i Item) Clone() Item {
	c := i
	c.Parts = make([]Part, len(i.Parts))
	copy(c.Parts, i.Parts)
	return c
}

// CloneItems returns a defensive copy of an item slice.
func CloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	for n, it := range items {
		out[n] = it.Clone()
	}
	return out
}

// NewID generates a new unique identifier for items, events and boundaries.
func NewID() string { return uuid.NewString() }

// partEnvelope is the serialized form of a Part, discriminated by Type.
type partEnvelope struct {
	Type     string         `json:"type"`
	Text     string         `json:"text,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// MarshalJSON serializes the item with typed part envelopes so the closed
// part set survives persistence.
func (i Item) MarshalJSON() ([]byte, error) {
	envs := make([]partEnvelope, 0, len(i.Parts))
	for _, p := range i.Parts {
		switch v := p.(type) {
		case TextPart:
			envs = append(envs, partEnvelope{Type: "text", Text: v.Text, Metadata: v.Metadata})
		case DataPart:
			envs = append(envs, partEnvelope{Type: "data", Data: v.Data, Metadata: v.Metadata})
		case ReasoningPart:
			envs = append(envs, partEnvelope{Type: "reasoning", Text: v.Text, Metadata: v.Metadata})
		default:
			return nil, fmt.Errorf("unknown part type %T", p)
		}
	}
	return json.Marshal(struct {
		ID    string         `json:"id"`
		Role  string         `json:"role"`
		Parts []partEnvelope `json:"parts"`
	}{ID: i.ID, Role: i.Role, Parts: envs})
}

// UnmarshalJSON restores an item from its typed envelope form.
func (i *Item) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID    string         `json:"id"`
		Role  string         `json:"role"`
		Parts []partEnvelope `json:"parts"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	i.ID = raw.ID
	i.Role = raw.Role
	i.Parts = make([]Part, 0, len(raw.Parts))
	for _, env := range raw.Parts {
		switch env.Type {
		case "text":
			i.Parts = append(i.Parts, TextPart{Text: env.Text, Metadata: env.Metadata})
		case "data":
			i.Parts = append(i.Parts, DataPart{Data: env.Data, Metadata: env.Metadata})
		case "reasoning":
			i.Parts = append(i.Parts, ReasoningPart{Text: env.Text, Metadata: env.Metadata})
		default:
			return fmt.Errorf("unknown part type %q", env.Type)
		}
	}
	return nil
}
