package models

import (
	"time"

	id "vp-gateway/pkg/domain"
)

// PresentationRequest is a challenge previously issued to a holder. It is created
// upstream and only read here.
type PresentationRequest struct {
	ID              id.RequestID
	UUID            id.RequestUUID
	VerifierDID     string
	HolderAppUUID   string
	IssuerDIDs      []string
	CredentialTypes []string
	CreatedAt       time.Time
	ExpiresAt       *time.Time
}

// VerifierCredential holds the verifying party's identity and the rotating bearer
// token used against the verification service. Version increments on every
// token rotation and guards concurrent updates.
type VerifierCredential struct {
	ID                   id.VerifierRecordID
	DID                  string
	EncryptionPrivateKey string
	AuthToken            string
	Version              int64
	UpdatedAt            time.Time
}
