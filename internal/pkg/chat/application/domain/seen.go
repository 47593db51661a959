package chat

import "time"

// SeenRecord acknowledges that ReaderID has observed MessageID.
// Primary key: (MessageID, ReaderID)
type SeenRecord struct {
	MessageID int64     `db:"message_id" json:"message_id"`
	ReaderID  int64     `db:"reader_id" json:"reader_id"`
	SeenAt    time.Time `db:"seen_at" json:"seen_at"`
}

// Unseen filters msgs down to those readerID still has to see: messages not
// authored by the reader and not present in seen.
func Unseen(msgs []Message, readerID int64, seen map[int64]struct{}) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.SentBy(readerID) {
			continue
		}
		if _, ok := seen[m.ID]; ok {
			continue
		}
		out = append(out, m)
	}
	return out
}
