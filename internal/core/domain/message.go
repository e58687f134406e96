package domain

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// MessageIDPrefix is the prefix of every message id.
const MessageIDPrefix = "msg-"

// messageIDLen is the prefix (4) plus a ULID (26).
const messageIDLen = len(MessageIDPrefix) + ulid.EncodedSize

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewMessageID generates a message id of the form msg-{ulid_lowercase}.
// Ids generated within the same millisecond sort in generation order.
func NewMessageID() (string, error) {
	entropyMu.Lock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	entropyMu.Unlock()
	if err != nil {
		return "", ErrInternal.WithCause(err)
	}
	return MessageIDPrefix + strings.ToLower(id.String()), nil
}

// MustNewMessageID is like NewMessageID but panics on failure.
func MustNewMessageID() string {
	id, err := NewMessageID()
	if err != nil {
		panic(err)
	}
	return id
}

// IsValidMessageID reports whether id is a well-formed message id.
func IsValidMessageID(id string) bool {
	if len(id) != messageIDLen || !strings.HasPrefix(id, MessageIDPrefix) {
		return false
	}
	_, err := ulid.ParseStrict(strings.ToUpper(id[len(MessageIDPrefix):]))
	return err == nil
}

// ValidateMessageID returns ErrMessageIDInvalid for malformed ids.
func ValidateMessageID(id string) error {
	if !IsValidMessageID(id) {
		return ErrMessageIDInvalid.WithDetails(id)
	}
	return nil
}

// MessageIDTime extracts the creation time encoded in a message id.
func MessageIDTime(id string) (time.Time, error) {
	if !IsValidMessageID(id) {
		return time.Time{}, ErrMessageIDInvalid.WithDetails(id)
	}
	u := ulid.MustParse(strings.ToUpper(id[len(MessageIDPrefix):]))
	return ulid.Time(u.Time()), nil
}
