package service

import (
	"context"

	"vp-gateway/internal/presentation/models"
	id "vp-gateway/pkg/domain"
)

// RequestStore reads stored presentation requests.
type RequestStore interface {
	FindByID(ctx context.Context, requestID id.RequestID) (*models.PresentationRequest, error)
	FindByUUID(ctx context.Context, requestUUID id.RequestUUID) (*models.PresentationRequest, error)
}

// CredentialStore reads the default verifier credential.
type CredentialStore interface {
	GetDefault(ctx context.Context) (*models.VerifierCredential, error)
}

// PresentationStore persists accepted presentations.
type PresentationStore interface {
	Create(ctx context.Context, attrs models.PresentationAttributes) (*models.PresentationRecord, error)
}

// DeclinationStore persists declinations.
type DeclinationStore interface {
	Create(ctx context.Context, attrs models.DeclinationAttributes) (*models.DeclinationRecord, error)
}

// Verifier decrypts and verifies a submission and keeps the verifier token rotated.
type Verifier interface {
	Verify(ctx context.Context, cred models.VerifierCredential, encrypted models.EncryptedPresentation, req *models.PresentationRequest) (*models.DecryptedPresentation, string, error)
}

// Notifier hands a notification to the real-time channel without blocking.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) bool
}
