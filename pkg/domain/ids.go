package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "vp-gateway/pkg/domain-errors"
)

// Typed identifiers keep request, entity and verifier references from being mixed
// up across layers.
type (
	RequestUUID      uuid.UUID
	PresentationID   uuid.UUID
	DeclinationID    uuid.UUID
	VerifierRecordID uuid.UUID
)

func (id RequestUUID) String() string      { return uuid.UUID(id).String() }
func (id RequestUUID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id PresentationID) String() string   { return uuid.UUID(id).String() }
func (id DeclinationID) String() string    { return uuid.UUID(id).String() }
func (id VerifierRecordID) String() string { return uuid.UUID(id).String() }
func (id VerifierRecordID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// RequestID is the stable, caller-facing identifier of a presentation request.
type RequestID string

func (id RequestID) String() string { return string(id) }
func (id RequestID) IsNil() bool    { return id == "" }

const maxRequestIDLength = 128

// ParseRequestUUID validates a presentation request UUID at a trust boundary.
// Nil UUIDs are rejected.
func ParseRequestUUID(s string) (RequestUUID, error) {
	parsed, err := parseUUID(s, "presentationRequestUuid")
	if err != nil {
		return RequestUUID{}, err
	}
	return RequestUUID(parsed), nil
}

// ParseRequestID validates a stable request identifier. Surrounding whitespace
// is trimmed; control characters are rejected.
func ParseRequestID(s string) (RequestID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "presentationRequestId is required")
	}
	if len(s) > maxRequestIDLength {
		return "", dErrors.New(dErrors.CodeValidation, "presentationRequestId is too long")
	}
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return "", dErrors.New(dErrors.CodeValidation, "presentationRequestId contains invalid characters")
		}
	}
	return RequestID(s), nil
}

func parseUUID(s, field string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, field+" is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, field+" must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, field+" must not be nil")
	}
	return parsed, nil
}
