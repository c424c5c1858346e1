// Package core holds the protocol primitives: the wire action envelope,
// the transport abstractions and the room fan-out machinery.
package core

import (
	"encoding/json"
	"strings"
	"unicode"

	"github.com/nickaroot/music-room/internal/domain"
)

// Frame is a raw wire payload.
type Frame []byte

// SessionID identifies one connection (client token), not a user: the
// same user may hold several connections.
type SessionID string

// ActionSystem is internal routing metadata. It never reaches the wire on
// responses; inbound metadata is accepted and echoed back only internally.
type ActionSystem struct {
	SID           SessionID     `json:"-"`
	InitiatorID   domain.UserID `json:"-"`
	CorrelationID string        `json:"correlation_id,omitempty"`
}

// Action is one inbound protocol message:
// { "event": <dot-separated-action-name>, "payload": {...}, "system": {...} }.
type Action struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
	System  ActionSystem    `json:"system,omitempty"`
}

// OutAction is one outbound protocol message. The system field is popped
// before serialization, so it carries only event and payload.
type OutAction struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

func (a OutAction) Wire() (Frame, error) {
	b, err := json.Marshal(a)
	return Frame(b), err
}

// CamelToDot converts a readable handler name to its wire identifier:
// "PlaylistChanged" -> "playlist.changed". Pure and stateless; applied
// once when the handler table is built.
func CamelToDot(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
