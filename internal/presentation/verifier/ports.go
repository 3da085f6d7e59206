package verifier

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks Client,CredentialStore

import (
	"context"

	"vp-gateway/internal/presentation/models"
	id "vp-gateway/pkg/domain"
)

// Client is the port to the external verification service. A non-nil response
// may accompany an error when the service answered with a failure status.
type Client interface {
	VerifyEncryptedPresentation(ctx context.Context, authToken string, req VerifyRequest) (*VerifyResponse, error)
}

// CredentialStore persists the verifier's rotating bearer token. PatchAuthToken
// only applies when the stored version still equals expectedVersion and returns
// sentinel.ErrConflict otherwise.
type CredentialStore interface {
	PatchAuthToken(ctx context.Context, credentialID id.VerifierRecordID, expectedVersion int64, authToken string) (*models.VerifierCredential, error)
}
