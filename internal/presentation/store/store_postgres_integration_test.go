//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"vp-gateway/internal/presentation/models"
	"vp-gateway/internal/presentation/store"
	id "vp-gateway/pkg/domain"
	"vp-gateway/pkg/platform/sentinel"
	"vp-gateway/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres      *containers.PostgresContainer
	requests      *store.PostgresRequestStore
	credentials   *store.PostgresCredentialStore
	presentations *store.PostgresPresentationStore
	declinations  *store.PostgresDeclinationStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.Require().NoError(store.Migrate(context.Background(), s.postgres.DB))
	s.requests = store.NewPostgresRequestStore(s.postgres.DB)
	s.credentials = store.NewPostgresCredentialStore(s.postgres.DB)
	s.presentations = store.NewPostgresPresentationStore(s.postgres.DB)
	s.declinations = store.NewPostgresDeclinationStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), store.Tables...)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) seedRequest(requestID string) models.PresentationRequest {
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond)
	req := models.PresentationRequest{
		ID:              id.RequestID(requestID),
		UUID:            id.RequestUUID(uuid.New()),
		VerifierDID:     "did:unum:verifier",
		HolderAppUUID:   "holder-app",
		IssuerDIDs:      []string{"did:unum:issuer"},
		CredentialTypes: []string{"EmailCredential"},
		ExpiresAt:       &expires,
	}
	s.Require().NoError(s.requests.Save(context.Background(), req))
	return req
}

func (s *PostgresStoreSuite) TestRequestLookup() {
	ctx := context.Background()
	req := s.seedRequest("req-lookup")

	byID, err := s.requests.FindByID(ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(req.UUID, byID.UUID)
	s.Equal([]string{"did:unum:issuer"}, byID.IssuerDIDs)
	s.Equal([]string{"EmailCredential"}, byID.CredentialTypes)
	s.Require().NotNil(byID.ExpiresAt)

	byUUID, err := s.requests.FindByUUID(ctx, req.UUID)
	s.Require().NoError(err)
	s.Equal(req.ID, byUUID.ID)

	_, err = s.requests.FindByID(ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.ErrorIs(s.requests.Save(ctx, req), sentinel.ErrConflict)
}

// TestConcurrentTokenRotation verifies that concurrent rotations from the same
// version have a single winner and every loser observes a conflict.
func (s *PostgresStoreSuite) TestConcurrentTokenRotation() {
	ctx := context.Background()
	cred, err := s.credentials.EnsureDefault(ctx, models.VerifierCredential{
		DID: "did:unum:verifier", EncryptionPrivateKey: "key", AuthToken: "Bearer t0",
	})
	s.Require().NoError(err)

	const goroutines = 20
	var (
		wg        sync.WaitGroup
		wins      atomic.Int32
		conflicts atomic.Int32
	)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.credentials.PatchAuthToken(ctx, cred.ID, cred.Version, "Bearer rotated")
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())

	stored, err := s.credentials.GetDefault(ctx)
	s.Require().NoError(err)
	s.Equal(cred.Version+1, stored.Version)
	s.Equal("Bearer rotated", stored.AuthToken)

	_, err = s.credentials.PatchAuthToken(ctx, id.VerifierRecordID(uuid.New()), 1, "x")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestCreateEntities() {
	ctx := context.Background()
	req := s.seedRequest("req-entities")

	pres, err := s.presentations.Create(ctx, models.PresentationAttributes{
		Context:               []string{"https://www.w3.org/2018/credentials/v1"},
		Type:                  []string{"VerifiablePresentation"},
		Credentials:           []models.Credential{{ID: "c1", Type: []string{"EmailCredential"}, Issuer: "did:unum:issuer"}},
		Proof:                 models.Proof{Type: "sig", SignatureValue: "abc"},
		PresentationRequestID: req.ID.String(),
		VerifierDID:           "did:unum:verifier",
		IsVerified:            true,
	})
	s.Require().NoError(err)
	s.NotEqual(uuid.Nil, uuid.UUID(pres.ID))

	_, err = s.declinations.Create(ctx, models.DeclinationAttributes{
		Type:                  []string{"DeclinedPresentation"},
		Proof:                 models.Proof{Type: "sig"},
		HolderDID:             "did:unum:holder",
		PresentationRequestID: req.ID.String(),
		IsVerified:            true,
	})
	s.Require().NoError(err)

	presentations, declinations, err := store.CountByRequest(ctx, s.postgres.DB, req.ID.String())
	s.Require().NoError(err)
	s.Equal(1, presentations)
	s.Equal(1, declinations)

	_, err = s.presentations.Create(ctx, models.PresentationAttributes{PresentationRequestID: "missing"})
	s.ErrorIs(err, sentinel.ErrNotFound)
}
