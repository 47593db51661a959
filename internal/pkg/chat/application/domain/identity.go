package chat

import (
	"encoding/base64"
	"fmt"
	"strconv"
)

const (
	directKeyPrefix = "direct:"
	groupKeyPrefix  = "group:"
)

// DirectKey derives the canonical key of the direct room between a and b.
// The result does not depend on argument order.
func DirectKey(a, b int64) string {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	return encodeKey(directKeyPrefix + strconv.FormatInt(lo, 10) + "-" + strconv.FormatInt(hi, 10))
}

// DirectDisplayName names a direct room "<lower id username> - <higher id username>".
func DirectDisplayName(a, b User) string {
	if a.ID > b.ID {
		a, b = b, a
	}
	return a.Username + " - " + b.Username
}

// GroupKey derives the canonical key of a group room from its name.
// Two groups sharing a name share a key.
func GroupKey(name string) string {
	return encodeKey(groupKeyPrefix + name)
}

// DecodeKey reverses the opaque encoding of a canonical key.
func DecodeKey(key string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return "", fmt.Errorf("%w: malformed room key", ErrInvalidArgument)
	}
	return string(raw), nil
}

func encodeKey(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}
