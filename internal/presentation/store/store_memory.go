package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"vp-gateway/internal/presentation/models"
	id "vp-gateway/pkg/domain"
	"vp-gateway/pkg/platform/sentinel"
)

// InMemoryRequestStore holds presentation requests in memory.
type InMemoryRequestStore struct {
	mu     sync.RWMutex
	byID   map[id.RequestID]models.PresentationRequest
	byUUID map[id.RequestUUID]id.RequestID
}

// NewInMemoryRequestStore creates an empty request store.
func NewInMemoryRequestStore() *InMemoryRequestStore {
	return &InMemoryRequestStore{
		byID:   make(map[id.RequestID]models.PresentationRequest),
		byUUID: make(map[id.RequestUUID]id.RequestID),
	}
}

// Save inserts or replaces a request.
func (s *InMemoryRequestStore) Save(_ context.Context, req models.PresentationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[req.ID] = req
	if !req.UUID.IsNil() {
		s.byUUID[req.UUID] = req.ID
	}
	return nil
}

// FindByID returns a copy of the request, or sentinel.ErrNotFound.
func (s *InMemoryRequestStore) FindByID(_ context.Context, requestID id.RequestID) (*models.PresentationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.byID[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &req, nil
}

// FindByUUID returns a copy of the request, or sentinel.ErrNotFound.
func (s *InMemoryRequestStore) FindByUUID(_ context.Context, requestUUID id.RequestUUID) (*models.PresentationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	requestID, ok := s.byUUID[requestUUID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	req := s.byID[requestID]
	return &req, nil
}

// InMemoryCredentialStore holds the default verifier credential in memory.
type InMemoryCredentialStore struct {
	mu    sync.Mutex
	cred  *models.VerifierCredential
	clock Clock
}

// NewInMemoryCredentialStore creates a store with no default credential.
func NewInMemoryCredentialStore() *InMemoryCredentialStore {
	return &InMemoryCredentialStore{clock: time.Now}
}

// EnsureDefault stores cred as the default credential unless one exists, and
// returns the stored default.
func (s *InMemoryCredentialStore) EnsureDefault(_ context.Context, cred models.VerifierCredential) (*models.VerifierCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cred == nil {
		if cred.ID.IsNil() {
			cred.ID = id.VerifierRecordID(uuid.New())
		}
		if cred.Version == 0 {
			cred.Version = 1
		}
		cred.UpdatedAt = s.clock()
		s.cred = &cred
	}
	out := *s.cred
	return &out, nil
}

// GetDefault returns a copy of the default credential, or sentinel.ErrNotFound.
func (s *InMemoryCredentialStore) GetDefault(_ context.Context) (*models.VerifierCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cred == nil {
		return nil, sentinel.ErrNotFound
	}
	out := *s.cred
	return &out, nil
}

// PatchAuthToken replaces the token if the stored version matches expectedVersion.
func (s *InMemoryCredentialStore) PatchAuthToken(_ context.Context, credentialID id.VerifierRecordID, expectedVersion int64, authToken string) (*models.VerifierCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cred == nil || s.cred.ID != credentialID {
		return nil, sentinel.ErrNotFound
	}
	if s.cred.Version != expectedVersion {
		return nil, sentinel.ErrConflict
	}
	s.cred.AuthToken = authToken
	s.cred.Version++
	s.cred.UpdatedAt = s.clock()
	out := *s.cred
	return &out, nil
}

// InMemoryPresentationStore appends accepted presentations.
type InMemoryPresentationStore struct {
	mu      sync.RWMutex
	records []models.PresentationRecord
	clock   Clock
}

// NewInMemoryPresentationStore creates an empty presentation store.
func NewInMemoryPresentationStore() *InMemoryPresentationStore {
	return &InMemoryPresentationStore{clock: time.Now}
}

// Create appends a presentation with a fresh id. It never fails.
func (s *InMemoryPresentationStore) Create(_ context.Context, attrs models.PresentationAttributes) (*models.PresentationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := models.PresentationRecord{
		ID:                     id.PresentationID(uuid.New()),
		PresentationAttributes: attrs,
		CreatedAt:              s.clock(),
	}
	s.records = append(s.records, rec)
	return &rec, nil
}

// List returns a copy of every stored presentation.
func (s *InMemoryPresentationStore) List() []models.PresentationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.PresentationRecord(nil), s.records...)
}

// InMemoryDeclinationStore appends declinations.
type InMemoryDeclinationStore struct {
	mu      sync.RWMutex
	records []models.DeclinationRecord
	clock   Clock
}

// NewInMemoryDeclinationStore creates an empty declination store.
func NewInMemoryDeclinationStore() *InMemoryDeclinationStore {
	return &InMemoryDeclinationStore{clock: time.Now}
}

// Create appends a declination with a fresh id. It never fails.
func (s *InMemoryDeclinationStore) Create(_ context.Context, attrs models.DeclinationAttributes) (*models.DeclinationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := models.DeclinationRecord{
		ID:                    id.DeclinationID(uuid.New()),
		DeclinationAttributes: attrs,
		CreatedAt:             s.clock(),
	}
	s.records = append(s.records, rec)
	return &rec, nil
}

// List returns a copy of every stored declination.
func (s *InMemoryDeclinationStore) List() []models.DeclinationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.DeclinationRecord(nil), s.records...)
}
