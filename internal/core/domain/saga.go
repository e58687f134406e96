package domain

import (
	"github.com/google/uuid"
)

// SagaID correlates all messages that belong to one saga instance.
type SagaID = uuid.UUID

// NewSagaID returns a random (version 4) saga id.
func NewSagaID() SagaID {
	return uuid.New()
}

// ParseSagaID parses the textual form of a saga id.
func ParseSagaID(s string) (SagaID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, ErrSagaIDInvalid.WithDetails(s).WithCause(err)
	}
	if id == uuid.Nil {
		return uuid.Nil, ErrSagaIDInvalid.WithDetails("nil uuid")
	}
	return id, nil
}

// ValidateSagaID rejects the nil uuid.
func ValidateSagaID(id SagaID) error {
	if id == uuid.Nil {
		return ErrSagaIDInvalid.WithDetails("nil uuid")
	}
	return nil
}
