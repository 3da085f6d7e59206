// Package mapper turns decrypted presentation payloads into the attributes the
// stores persist and the credential summary receipts are built from.
package mapper

import (
	"vp-gateway/internal/presentation/models"
	"vp-gateway/pkg/platform/strings"
)

// PresentationAttributes maps a decrypted presentation to its stored form.
// A payload without credentials maps to an empty, non-nil credential list.
func PresentationAttributes(p models.Presentation, verified bool, verifierDID string) models.PresentationAttributes {
	creds := p.VerifiableCredential
	if creds == nil {
		creds = []models.Credential{}
	}
	return models.PresentationAttributes{
		Context:               p.Context,
		Type:                  p.Type,
		Credentials:           creds,
		Proof:                 p.Proof,
		PresentationRequestID: p.PresentationRequestID,
		VerifierDID:           verifierDID,
		IsVerified:            verified,
	}
}

// NoPresentationAttributes maps a decrypted declination to its stored form.
func NoPresentationAttributes(d models.Declination, verified bool) models.DeclinationAttributes {
	return models.DeclinationAttributes{
		Type:                  d.Type,
		Proof:                 d.Proof,
		HolderDID:             d.HolderDID,
		PresentationRequestID: d.PresentationRequestID,
		IsVerified:            verified,
	}
}

// CredentialInfo summarises the credentials of a presentation: the first
// subject DID found, the distinct specific credential types and the distinct
// issuers, both in order of appearance.
func CredentialInfo(p models.Presentation) models.CredentialInfo {
	var (
		subject string
		types   []string
		issuers []string
	)
	for _, c := range p.VerifiableCredential {
		if subject == "" {
			subject = c.SubjectDID()
		}
		types = append(types, c.Type...)
		if c.Issuer != "" {
			issuers = append(issuers, c.Issuer)
		}
	}
	info := models.CredentialInfo{
		SubjectDID:      subject,
		CredentialTypes: strings.DedupeExcluding(types, models.GenericCredentialType),
		Issuers:         strings.DedupeAndTrim(issuers),
	}
	if info.CredentialTypes == nil {
		info.CredentialTypes = []string{}
	}
	return info
}
