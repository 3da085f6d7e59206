package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vp-gateway/internal/presentation/models"
	id "vp-gateway/pkg/domain"
	"vp-gateway/pkg/platform/sentinel"
)

func TestInMemoryRequestStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryRequestStore()
	reqUUID := id.RequestUUID(uuid.New())
	require.NoError(t, s.Save(ctx, models.PresentationRequest{ID: "req-1", UUID: reqUUID, VerifierDID: "did:unum:v"}))

	t.Run("finds by id", func(t *testing.T) {
		req, err := s.FindByID(ctx, "req-1")
		require.NoError(t, err)
		assert.Equal(t, reqUUID, req.UUID)
	})

	t.Run("finds by uuid", func(t *testing.T) {
		req, err := s.FindByUUID(ctx, reqUUID)
		require.NoError(t, err)
		assert.Equal(t, id.RequestID("req-1"), req.ID)
	})

	t.Run("unknown references are not found", func(t *testing.T) {
		_, err := s.FindByID(ctx, "missing")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		_, err = s.FindByUUID(ctx, id.RequestUUID(uuid.New()))
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestInMemoryCredentialStore(t *testing.T) {
	ctx := context.Background()

	t.Run("no default credential is not found", func(t *testing.T) {
		_, err := NewInMemoryCredentialStore().GetDefault(ctx)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("EnsureDefault keeps the first credential", func(t *testing.T) {
		s := NewInMemoryCredentialStore()
		first, err := s.EnsureDefault(ctx, models.VerifierCredential{DID: "did:unum:first", AuthToken: "t1"})
		require.NoError(t, err)
		second, err := s.EnsureDefault(ctx, models.VerifierCredential{DID: "did:unum:second", AuthToken: "t2"})
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "did:unum:first", second.DID)
		assert.Equal(t, int64(1), second.Version)
	})

	t.Run("PatchAuthToken bumps the version", func(t *testing.T) {
		s := NewInMemoryCredentialStore()
		cred, _ := s.EnsureDefault(ctx, models.VerifierCredential{DID: "did:unum:v", AuthToken: "t1"})

		patched, err := s.PatchAuthToken(ctx, cred.ID, cred.Version, "t2")

		require.NoError(t, err)
		assert.Equal(t, "t2", patched.AuthToken)
		assert.Equal(t, cred.Version+1, patched.Version)
	})

	t.Run("PatchAuthToken with a stale version conflicts", func(t *testing.T) {
		s := NewInMemoryCredentialStore()
		cred, _ := s.EnsureDefault(ctx, models.VerifierCredential{DID: "did:unum:v", AuthToken: "t1"})
		_, err := s.PatchAuthToken(ctx, cred.ID, cred.Version, "t2")
		require.NoError(t, err)

		_, err = s.PatchAuthToken(ctx, cred.ID, cred.Version, "t3")

		assert.ErrorIs(t, err, sentinel.ErrConflict)
		stored, _ := s.GetDefault(ctx)
		assert.Equal(t, "t2", stored.AuthToken)
	})

	t.Run("concurrent patches from the same version have exactly one winner", func(t *testing.T) {
		s := NewInMemoryCredentialStore()
		cred, _ := s.EnsureDefault(ctx, models.VerifierCredential{DID: "did:unum:v", AuthToken: "t0"})

		const writers = 20
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.PatchAuthToken(ctx, cred.ID, cred.Version, "t"); err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, wins)
	})

	t.Run("unknown credential is not found", func(t *testing.T) {
		s := NewInMemoryCredentialStore()
		_, _ = s.EnsureDefault(ctx, models.VerifierCredential{DID: "did:unum:v"})
		_, err := s.PatchAuthToken(ctx, id.VerifierRecordID(uuid.New()), 1, "t")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestInMemoryEntityStores(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("presentations get an id and creation time", func(t *testing.T) {
		s := NewInMemoryPresentationStore()
		s.clock = func() time.Time { return fixed }

		rec, err := s.Create(ctx, models.PresentationAttributes{PresentationRequestID: "req-1", IsVerified: true})

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, uuid.UUID(rec.ID))
		assert.Equal(t, fixed, rec.CreatedAt)
		assert.Len(t, s.List(), 1)
	})

	t.Run("declinations get an id and creation time", func(t *testing.T) {
		s := NewInMemoryDeclinationStore()
		s.clock = func() time.Time { return fixed }

		rec, err := s.Create(ctx, models.DeclinationAttributes{HolderDID: "did:unum:h", PresentationRequestID: "req-1"})

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, uuid.UUID(rec.ID))
		assert.Equal(t, fixed, rec.CreatedAt)
		assert.Len(t, s.List(), 1)
	})
}
