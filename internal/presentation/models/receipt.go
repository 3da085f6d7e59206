package models

import (
	"encoding/json"
	"time"

	id "vp-gateway/pkg/domain"
)

// EncryptedPresentation is the opaque ciphertext envelope sent by holder apps and
// passed through to the verification service untouched.
type EncryptedPresentation = json.RawMessage

// CreateRequest is one inbound presentation submission.
type CreateRequest struct {
	EncryptedPresentation EncryptedPresentation
	RequestID             id.RequestID
	RequestUUID           id.RequestUUID
	Version               id.ProtocolVersion
}

// CredentialInfo summarises the credentials included in a presentation.
type CredentialInfo struct {
	SubjectDID      string
	CredentialTypes []string
	Issuers         []string
}

// ReceiptInfo is the analytics summary returned with every accepted submission.
// RequestUUID is only filled by the legacy generations.
type ReceiptInfo struct {
	SubjectDID      string
	CredentialTypes []string
	VerifierDID     string
	HolderApp       string
	Issuers         []string
	RequestID       string
	RequestUUID     string
}

// CreateResult is returned to the caller on success.
type CreateResult struct {
	IsVerified            bool
	Type                  PresentationType
	PresentationRequestID string
	ReceiptInfo           ReceiptInfo
}

// NotificationKind says what a notification carries.
type NotificationKind string

const (
	NotificationPresentation   NotificationKind = "presentation"
	NotificationDeclination    NotificationKind = "declination"
	NotificationRawDeclination NotificationKind = "declination_raw"
)

// Notification is pushed to the real-time channel after persistence.
// Version is empty for the unversioned generation.
type Notification struct {
	Kind                  NotificationKind `json:"kind"`
	PresentationRequestID string           `json:"presentationRequestId"`
	Version               string           `json:"version,omitempty"`
	Entity                any              `json:"entity"`
	CreatedAt             time.Time        `json:"createdAt"`
}
