package domain

import (
	"errors"
	"sort"
	"strings"
	"testing"
	"time"
)

func TestNewMessageID(t *testing.T) {
	id, err := NewMessageID()
	if err != nil {
		t.Fatalf("NewMessageID() error = %v", err)
	}

	if !strings.HasPrefix(id, MessageIDPrefix) {
		t.Errorf("id %q missing prefix %q", id, MessageIDPrefix)
	}
	if len(id) != 30 {
		t.Errorf("len(id) = %d, want 30", len(id))
	}
	if id != strings.ToLower(id) {
		t.Errorf("id %q should be lowercase", id)
	}
	if !IsValidMessageID(id) {
		t.Errorf("IsValidMessageID(%q) = false", id)
	}
}

func TestNewMessageID_Monotonic(t *testing.T) {
	ids := make([]string, 100)
	for i := range ids {
		ids[i] = MustNewMessageID()
	}

	if !sort.StringsAreSorted(ids) {
		t.Error("message ids should sort in generation order")
	}

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestIsValidMessageID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"valid", "msg-01arz3ndektsv4rrffq69g5fav", true},
		{"empty", "", false},
		{"wrong prefix", "sag-01arz3ndektsv4rrffq69g5fav", false},
		{"too short", "msg-01arz3ndektsv4rrffq69g5fa", false},
		{"bad ulid chars", "msg-01arz3ndektsv4rrffq69g5fau", false},
		{"overflow", "msg-81arz3ndektsv4rrffq69g5fav", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidMessageID(tt.id); got != tt.want {
				t.Errorf("IsValidMessageID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestValidateMessageID(t *testing.T) {
	if err := ValidateMessageID("nope"); !errors.Is(err, ErrMessageIDInvalid) {
		t.Errorf("ValidateMessageID(nope) = %v, want ErrMessageIDInvalid", err)
	}
	if err := ValidateMessageID(MustNewMessageID()); err != nil {
		t.Errorf("ValidateMessageID(valid) = %v", err)
	}
}

func TestMessageIDTime(t *testing.T) {
	before := time.Now().Add(-time.Second)
	id := MustNewMessageID()

	ts, err := MessageIDTime(id)
	if err != nil {
		t.Fatalf("MessageIDTime() error = %v", err)
	}
	if ts.Before(before) || ts.After(time.Now().Add(time.Second)) {
		t.Errorf("MessageIDTime() = %v, not near now", ts)
	}

	if _, err := MessageIDTime("bad"); !errors.Is(err, ErrMessageIDInvalid) {
		t.Errorf("MessageIDTime(bad) error = %v, want ErrMessageIDInvalid", err)
	}
}
