package channel

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/semanticarchitectures/multi-agent-collab/protocol"
)

// Kind distinguishes the origin of a message.
type Kind string

const (
	// KindParticipant marks a message produced by a registered participant.
	KindParticipant Kind = "participant"
	// KindExternalInput marks input injected from outside the system (a user).
	KindExternalInput Kind = "external_input"
	// KindSystem marks messages authored by the system itself.
	KindSystem Kind = "system"
)

// Message is one immutable utterance on the channel. The Address field holds
// the parsed addressing metadata, computed exactly once when the message is
// appended.
type Message struct {
	ID             string           `json:"id"`
	Timestamp      time.Time        `json:"timestamp"`
	SenderID       string           `json:"sender_id"`
	SenderLabel    string           `json:"sender_label,omitempty"`
	RecipientLabel string           `json:"recipient_label,omitempty"`
	Body           string           `json:"body"`
	Kind           Kind             `json:"kind"`
	Metadata       map[string]any   `json:"metadata,omitempty"`
	Address        protocol.Address `json:"address"`
}

// NewMessage builds a message from raw body text, parsing its addressing.
func NewMessage(senderID, body, senderLabel string, kind Kind, metadata map[string]any) Message {
	addr := protocol.Parse(body)
	return Message{
		ID:             uuid.NewString(),
		Timestamp:      time.Now().UTC(),
		SenderID:       senderID,
		SenderLabel:    senderLabel,
		RecipientLabel: addr.Recipient,
		Body:           body,
		Kind:           kind,
		Metadata:       metadata,
		Address:        addr,
	}
}

// IsAddressedTo reports whether the message is directed at the given label,
// either explicitly or via a broadcast keyword. Unaddressed messages match
// nobody.
func (m Message) IsAddressedTo(label string) bool {
	if m.RecipientLabel == "" {
		return false
	}
	if m.IsBroadcast() {
		return true
	}
	return strings.EqualFold(m.RecipientLabel, label)
}

// IsBroadcast reports whether the message addresses every participant.
func (m Message) IsBroadcast() bool {
	return m.Address.IsBroadcast || protocol.IsBroadcastKeyword(m.RecipientLabel)
}

// FormatForDisplay renders the message as a single transcript line.
func (m Message) FormatForDisplay() string {
	ts := m.Timestamp.Format("15:04:05")
	if m.Kind == KindSystem {
		return fmt.Sprintf("[%s] [SYSTEM] %s", ts, m.Body)
	}
	label := m.SenderLabel
	if label == "" {
		label = m.SenderID
	}
	return fmt.Sprintf("[%s] %s: %s", ts, label, m.Body)
}
