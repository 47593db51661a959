package chat

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxMessageLength bounds the text of a single message, in characters.
const MaxMessageLength = 1024

// Message is an immutable log entry in a room.
// SenderID is nil once the sending account no longer exists.
type Message struct {
	ID       int64     `db:"id" json:"id"`
	RoomID   int64     `db:"room_id" json:"room_id"`
	SenderID *int64    `db:"sender_id" json:"sender_id"`
	Text     string    `db:"text" json:"text"`
	SentAt   time.Time `db:"sent_at" json:"sent_at"`
}

// SentBy tells whether userID authored the message.
func (m Message) SentBy(userID int64) bool {
	return m.SenderID != nil && *m.SenderID == userID
}

// NewMessage validates the caller-supplied parts of a message. ID and SentAt
// are assigned by the store on append.
func NewMessage(roomID, senderID int64, text string) (*Message, error) {
	if roomID <= 0 || senderID <= 0 {
		return nil, fmt.Errorf("%w: room and sender are required", ErrInvalidArgument)
	}
	normalized, err := NormalizeText(text)
	if err != nil {
		return nil, err
	}
	sender := senderID
	return &Message{RoomID: roomID, SenderID: &sender, Text: normalized}, nil
}

// NormalizeText trims text and enforces the non-empty and length rules.
func NormalizeText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fmt.Errorf("%w: message text is empty", ErrInvalidArgument)
	}
	if utf8.RuneCountInString(trimmed) > MaxMessageLength {
		return "", fmt.Errorf("%w: message text exceeds %d characters", ErrInvalidArgument, MaxMessageLength)
	}
	return trimmed, nil
}
