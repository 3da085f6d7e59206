package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"vp-gateway/internal/platform/postgres"
	"vp-gateway/internal/presentation/models"
	id "vp-gateway/pkg/domain"
	"vp-gateway/pkg/platform/sentinel"
)

// PostgresOption configures the PostgreSQL stores.
type PostgresOption func(*postgresBase)

// WithPostgresClock sets the clock used for created_at and updated_at.
func WithPostgresClock(clock Clock) PostgresOption {
	return func(b *postgresBase) {
		if clock != nil {
			b.clock = clock
		}
	}
}

type postgresBase struct {
	db    *sql.DB
	clock Clock
}

func newPostgresBase(db *sql.DB, opts []PostgresOption) postgresBase {
	b := postgresBase{db: db, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&b)
		}
	}
	return b
}

// PostgresRequestStore reads presentation requests from PostgreSQL.
type PostgresRequestStore struct {
	postgresBase
}

// NewPostgresRequestStore creates a request store backed by db.
func NewPostgresRequestStore(db *sql.DB, opts ...PostgresOption) *PostgresRequestStore {
	return &PostgresRequestStore{postgresBase: newPostgresBase(db, opts)}
}

const selectRequest = `
	SELECT id, uuid, verifier_did, holder_app_uuid, issuer_dids, credential_types, created_at, expires_at
	FROM presentation_requests`

// Save inserts a request. A duplicate id or uuid returns sentinel.ErrConflict.
func (s *PostgresRequestStore) Save(ctx context.Context, req models.PresentationRequest) error {
	createdAt := req.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.clock()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO presentation_requests
			(id, uuid, verifier_did, holder_app_uuid, issuer_dids, credential_types, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		req.ID.String(), uuid.UUID(req.UUID), req.VerifierDID, req.HolderAppUUID,
		pq.Array(req.IssuerDIDs), pq.Array(req.CredentialTypes), createdAt, req.ExpiresAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("save presentation request: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("save presentation request: %w", err)
	}
	return nil
}

// FindByID returns the request with the given id, or sentinel.ErrNotFound.
func (s *PostgresRequestStore) FindByID(ctx context.Context, requestID id.RequestID) (*models.PresentationRequest, error) {
	row := s.db.QueryRowContext(ctx, selectRequest+` WHERE id = $1`, requestID.String())
	req, err := scanRequest(row)
	if err != nil {
		return nil, fmt.Errorf("find presentation request by id: %w", err)
	}
	return req, nil
}

// FindByUUID returns the request with the given uuid, or sentinel.ErrNotFound.
func (s *PostgresRequestStore) FindByUUID(ctx context.Context, requestUUID id.RequestUUID) (*models.PresentationRequest, error) {
	row := s.db.QueryRowContext(ctx, selectRequest+` WHERE uuid = $1`, uuid.UUID(requestUUID))
	req, err := scanRequest(row)
	if err != nil {
		return nil, fmt.Errorf("find presentation request by uuid: %w", err)
	}
	return req, nil
}

func scanRequest(row *sql.Row) (*models.PresentationRequest, error) {
	var (
		req       models.PresentationRequest
		reqID     string
		reqUUID   uuid.UUID
		expiresAt sql.NullTime
	)
	err := row.Scan(&reqID, &reqUUID, &req.VerifierDID, &req.HolderAppUUID,
		pq.Array(&req.IssuerDIDs), pq.Array(&req.CredentialTypes), &req.CreatedAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	req.ID = id.RequestID(reqID)
	req.UUID = id.RequestUUID(reqUUID)
	if expiresAt.Valid {
		t := expiresAt.Time
		req.ExpiresAt = &t
	}
	return &req, nil
}

// PostgresCredentialStore keeps the default verifier credential in PostgreSQL.
type PostgresCredentialStore struct {
	postgresBase
}

// NewPostgresCredentialStore creates a verifier credential store backed by db.
func NewPostgresCredentialStore(db *sql.DB, opts ...PostgresOption) *PostgresCredentialStore {
	return &PostgresCredentialStore{postgresBase: newPostgresBase(db, opts)}
}

const selectCredential = `
	SELECT id, did, encryption_private_key, auth_token, version, updated_at
	FROM verifier_credentials`

// EnsureDefault inserts cred as the default credential unless one exists, and
// returns the stored default.
func (s *PostgresCredentialStore) EnsureDefault(ctx context.Context, cred models.VerifierCredential) (*models.VerifierCredential, error) {
	if cred.ID.IsNil() {
		cred.ID = id.VerifierRecordID(uuid.New())
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO verifier_credentials
			(id, did, encryption_private_key, auth_token, version, is_default, updated_at)
		VALUES ($1, $2, $3, $4, 1, TRUE, $5)
		ON CONFLICT DO NOTHING`,
		uuid.UUID(cred.ID), cred.DID, cred.EncryptionPrivateKey, cred.AuthToken, s.clock(),
	)
	if err != nil {
		return nil, fmt.Errorf("ensure default verifier credential: %w", err)
	}
	return s.GetDefault(ctx)
}

// GetDefault returns the default credential, or sentinel.ErrNotFound if none was seeded.
func (s *PostgresCredentialStore) GetDefault(ctx context.Context) (*models.VerifierCredential, error) {
	row := s.db.QueryRowContext(ctx, selectCredential+` WHERE is_default`)
	cred, err := scanCredential(row)
	if err != nil {
		return nil, fmt.Errorf("get default verifier credential: %w", err)
	}
	return cred, nil
}

// PatchAuthToken replaces the token if the stored version matches
// expectedVersion, bumping the version. A mismatch returns sentinel.ErrConflict.
func (s *PostgresCredentialStore) PatchAuthToken(ctx context.Context, credentialID id.VerifierRecordID, expectedVersion int64, authToken string) (*models.VerifierCredential, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE verifier_credentials
		SET auth_token = $3, version = version + 1, updated_at = $4
		WHERE id = $1 AND version = $2
		RETURNING id, did, encryption_private_key, auth_token, version, updated_at`,
		uuid.UUID(credentialID), expectedVersion, authToken, s.clock(),
	)
	cred, err := scanCredential(row)
	if err == nil {
		return cred, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("patch verifier auth token: %w", err)
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM verifier_credentials WHERE id = $1)`,
		uuid.UUID(credentialID),
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("patch verifier auth token: %w", err)
	}
	if exists {
		return nil, sentinel.ErrConflict
	}
	return nil, sentinel.ErrNotFound
}

func scanCredential(row *sql.Row) (*models.VerifierCredential, error) {
	var (
		cred   models.VerifierCredential
		credID uuid.UUID
	)
	err := row.Scan(&credID, &cred.DID, &cred.EncryptionPrivateKey, &cred.AuthToken, &cred.Version, &cred.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	cred.ID = id.VerifierRecordID(credID)
	return &cred, nil
}

// PostgresPresentationStore appends accepted presentations.
type PostgresPresentationStore struct {
	postgresBase
}

// NewPostgresPresentationStore creates a presentation store backed by db.
func NewPostgresPresentationStore(db *sql.DB, opts ...PostgresOption) *PostgresPresentationStore {
	return &PostgresPresentationStore{postgresBase: newPostgresBase(db, opts)}
}

// Create inserts a presentation. An unknown request reference returns
// sentinel.ErrNotFound.
func (s *PostgresPresentationStore) Create(ctx context.Context, attrs models.PresentationAttributes) (*models.PresentationRecord, error) {
	credentials, err := json.Marshal(attrs.Credentials)
	if err != nil {
		return nil, fmt.Errorf("marshal credentials: %w", err)
	}
	proof, err := json.Marshal(attrs.Proof)
	if err != nil {
		return nil, fmt.Errorf("marshal proof: %w", err)
	}

	rec := models.PresentationRecord{
		ID:                     id.PresentationID(uuid.New()),
		PresentationAttributes: attrs,
		CreatedAt:              s.clock().UTC(),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO presentations
			(id, context, type, credentials, proof, presentation_request_id, verifier_did, is_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.UUID(rec.ID), pq.Array(attrs.Context), pq.Array(attrs.Type), credentials, proof,
		attrs.PresentationRequestID, attrs.VerifierDID, attrs.IsVerified, rec.CreatedAt,
	)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("create presentation: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("create presentation: %w", err)
	}
	return &rec, nil
}

// PostgresDeclinationStore appends declinations.
type PostgresDeclinationStore struct {
	postgresBase
}

// NewPostgresDeclinationStore creates a declination store backed by db.
func NewPostgresDeclinationStore(db *sql.DB, opts ...PostgresOption) *PostgresDeclinationStore {
	return &PostgresDeclinationStore{postgresBase: newPostgresBase(db, opts)}
}

// Create inserts a declination. An unknown request reference returns
// sentinel.ErrNotFound.
func (s *PostgresDeclinationStore) Create(ctx context.Context, attrs models.DeclinationAttributes) (*models.DeclinationRecord, error) {
	proof, err := json.Marshal(attrs.Proof)
	if err != nil {
		return nil, fmt.Errorf("marshal proof: %w", err)
	}

	rec := models.DeclinationRecord{
		ID:                    id.DeclinationID(uuid.New()),
		DeclinationAttributes: attrs,
		CreatedAt:             s.clock().UTC(),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO no_presentations
			(id, type, proof, holder_did, presentation_request_id, is_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(rec.ID), pq.Array(attrs.Type), proof, attrs.HolderDID,
		attrs.PresentationRequestID, attrs.IsVerified, rec.CreatedAt,
	)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("create declination: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("create declination: %w", err)
	}
	return &rec, nil
}

// CountByRequest returns the stored presentation and declination counts for a
// request reference.
func CountByRequest(ctx context.Context, db *sql.DB, requestID string) (presentations, declinations int, err error) {
	err = db.QueryRowContext(ctx, `
		SELECT
			(SELECT count(*) FROM presentations WHERE presentation_request_id = $1),
			(SELECT count(*) FROM no_presentations WHERE presentation_request_id = $1)`,
		requestID,
	).Scan(&presentations, &declinations)
	if err != nil {
		return 0, 0, fmt.Errorf("count entities by request: %w", err)
	}
	return presentations, declinations, nil
}
