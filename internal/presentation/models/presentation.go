package models

import (
	"encoding/json"
	"time"

	id "vp-gateway/pkg/domain"
)

// PresentationType discriminates a full presentation from a declination.
type PresentationType string

const (
	TypeVerifiablePresentation PresentationType = "VerifiablePresentation"
	TypeDeclinedPresentation   PresentationType = "DeclinedPresentation"
)

// GenericCredentialType is carried by every credential and says nothing about its content.
const GenericCredentialType = "VerifiableCredential"

// Proof is a linked-data style signature block.
type Proof struct {
	Type               string `json:"type"`
	Created            string `json:"created,omitempty"`
	VerificationMethod string `json:"verificationMethod"`
	ProofPurpose       string `json:"proofPurpose,omitempty"`
	SignatureValue     string `json:"signatureValue"`
}

// Credential is a verifiable credential included in a presentation.
type Credential struct {
	Context           []string       `json:"@context"`
	ID                string         `json:"id"`
	Type              []string       `json:"type"`
	Issuer            string         `json:"issuer"`
	CredentialSubject map[string]any `json:"credentialSubject"`
	IssuanceDate      string         `json:"issuanceDate,omitempty"`
	ExpirationDate    string         `json:"expirationDate,omitempty"`
	Proof             Proof          `json:"proof"`
}

// SubjectDID returns the credential subject's id, or "" when absent.
func (c Credential) SubjectDID() string {
	if v, ok := c.CredentialSubject["id"].(string); ok {
		return v
	}
	return ""
}

// Presentation is the decrypted payload of a full presentation.
type Presentation struct {
	Context               []string     `json:"@context"`
	Type                  []string     `json:"type"`
	VerifiableCredential  []Credential `json:"verifiableCredential,omitempty"`
	Proof                 Proof        `json:"proof"`
	PresentationRequestID string       `json:"presentationRequestId"`
	VerifierDID           string       `json:"verifierDid"`
}

// Declination is the decrypted payload of a holder's signed refusal.
type Declination struct {
	Type                  []string `json:"type"`
	Proof                 Proof    `json:"proof"`
	HolderDID             string   `json:"holder"`
	PresentationRequestID string   `json:"presentationRequestId"`
	VerifierDID           string   `json:"verifierDid,omitempty"`
}

// DecryptedPresentation is the normalised verification result. Exactly one of
// Presentation and Declination is set when IsVerified is true; Raw always holds
// the decrypted JSON as returned by the verification service.
type DecryptedPresentation struct {
	IsVerified   bool
	Type         PresentationType
	Presentation *Presentation
	Declination  *Declination
	Raw          json.RawMessage
	Message      string
}

// IsDeclination reports whether the result is anything other than a full presentation.
func (d DecryptedPresentation) IsDeclination() bool {
	return d.Type != TypeVerifiablePresentation
}

// PresentationAttributes are the fields stored for an accepted presentation.
type PresentationAttributes struct {
	Context               []string     `json:"@context"`
	Type                  []string     `json:"type"`
	Credentials           []Credential `json:"verifiableCredential"`
	Proof                 Proof        `json:"proof"`
	PresentationRequestID string       `json:"presentationRequestId"`
	VerifierDID           string       `json:"verifierDid"`
	IsVerified            bool         `json:"isVerified"`
}

// PresentationRecord is a persisted presentation.
type PresentationRecord struct {
	ID id.PresentationID `json:"uuid"`
	PresentationAttributes
	CreatedAt time.Time `json:"createdAt"`
}

// DeclinationAttributes are the fields stored for a declination.
type DeclinationAttributes struct {
	Type                  []string `json:"type"`
	Proof                 Proof    `json:"proof"`
	HolderDID             string   `json:"holder"`
	PresentationRequestID string   `json:"presentationRequestId"`
	IsVerified            bool     `json:"isVerified"`
}

// DeclinationRecord is a persisted declination ("NoPresentation").
type DeclinationRecord struct {
	ID id.DeclinationID `json:"uuid"`
	DeclinationAttributes
	CreatedAt time.Time `json:"createdAt"`
}
