// Package verifier adapts the external verification service: it sends the
// encrypted submission with the verifier's bearer token, normalises the
// decrypted result and persists the token the service rotates on every call.
package verifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"vp-gateway/internal/presentation/metrics"
	"vp-gateway/internal/presentation/models"
	"vp-gateway/pkg/platform/sentinel"
	"vp-gateway/pkg/requestcontext"
)

const bearerPrefix = "Bearer "

// Adapter wraps a Client and keeps the stored verifier token current.
type Adapter struct {
	client      Client
	credentials CredentialStore
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithMetrics enables verifier latency and token expiry metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Adapter) {
		a.metrics = m
	}
}

// WithLogger sets the adapter logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = l
	}
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(a *Adapter) {
		a.tracer = t
	}
}

// New creates an Adapter.
func New(client Client, credentials CredentialStore, opts ...Option) (*Adapter, error) {
	if client == nil {
		return nil, errors.New("verification client is required")
	}
	if credentials == nil {
		return nil, errors.New("credential store is required")
	}
	a := &Adapter{
		client:      client,
		credentials: credentials,
		logger:      slog.Default(),
		tracer:      otel.Tracer("vp-gateway/verifier"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// EnsureBearer prefixes token with the Bearer scheme unless it already has it.
func EnsureBearer(token string) string {
	if strings.HasPrefix(token, bearerPrefix) {
		return token
	}
	return bearerPrefix + token
}

// Verify submits the encrypted presentation on behalf of cred and returns the
// decrypted result together with the rotated token.
//
// Whenever the service answers, the rotated token is written back exactly once
// with a version check against cred. Losing that race keeps the newer stored
// token. Verification errors are returned unchanged; crypto failures are logged
// under their own category.
func (a *Adapter) Verify(ctx context.Context, cred models.VerifierCredential, encrypted models.EncryptedPresentation, req *models.PresentationRequest) (*models.DecryptedPresentation, string, error) {
	requestID := requestcontext.RequestID(ctx)
	ctx, span := a.tracer.Start(ctx, "verifier.Verify")
	defer span.End()

	token := EnsureBearer(cred.AuthToken)
	start := time.Now()
	resp, err := a.client.VerifyEncryptedPresentation(ctx, token, VerifyRequest{
		EncryptedPresentation: json.RawMessage(encrypted),
		VerifierDID:           cred.DID,
		EncryptionPrivateKey:  cred.EncryptionPrivateKey,
		PresentationRequest:   requestContextFor(req),
	})
	a.metrics.ObserveVerifierLatency(resultLabel(resp, err), time.Since(start))

	var (
		rotated  string
		patchErr error
	)
	if resp != nil {
		rotated, patchErr = a.rotate(ctx, cred, token, resp.AuthToken)
	}

	if err != nil {
		a.logger.ErrorContext(ctx, "verification failed",
			"request_id", requestID,
			"category", string(Categorize(err)),
			"error", err,
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(Categorize(err)))
		return nil, rotated, err
	}
	if patchErr != nil {
		return nil, rotated, patchErr
	}

	decrypted, err := normalize(resp)
	if err != nil {
		a.logger.ErrorContext(ctx, "verification response malformed",
			"request_id", requestID,
			"category", string(CategoryUpstream),
			"error", err,
		)
		return nil, rotated, err
	}
	span.SetAttributes(
		attribute.Bool("is_verified", decrypted.IsVerified),
		attribute.String("type", string(decrypted.Type)),
	)
	return decrypted, rotated, nil
}

// rotate writes the service's new token back to the credential store. A
// response without a token re-saves the one just used.
func (a *Adapter) rotate(ctx context.Context, cred models.VerifierCredential, used, issued string) (string, error) {
	requestID := requestcontext.RequestID(ctx)
	token := issued
	if token == "" {
		token = used
	}

	_, err := a.credentials.PatchAuthToken(ctx, cred.ID, cred.Version, token)
	switch {
	case err == nil:
		a.observeExpiry(token)
		return token, nil
	case errors.Is(err, sentinel.ErrConflict):
		a.logger.WarnContext(ctx, "verifier token updated concurrently, keeping stored token",
			"request_id", requestID,
			"credential_id", cred.ID.String(),
			"expected_version", cred.Version,
		)
		return token, nil
	default:
		a.logger.ErrorContext(ctx, "failed to persist rotated verifier token",
			"request_id", requestID,
			"credential_id", cred.ID.String(),
			"error", err,
		)
		return token, fmt.Errorf("persist rotated token: %w", err)
	}
}

func (a *Adapter) observeExpiry(token string) {
	if a.metrics == nil {
		return
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(strings.TrimPrefix(token, bearerPrefix), claims); err != nil {
		return
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		a.metrics.SetTokenExpiry(exp.Time)
	}
}

func normalize(resp *VerifyResponse) (*models.DecryptedPresentation, error) {
	out := &models.DecryptedPresentation{
		IsVerified: resp.IsVerified,
		Type:       models.PresentationType(resp.Type),
		Raw:        resp.Presentation,
		Message:    resp.Message,
	}
	if !resp.IsVerified {
		return out, nil
	}
	if out.Type == models.TypeVerifiablePresentation {
		var p models.Presentation
		if err := json.Unmarshal(resp.Presentation, &p); err != nil {
			return nil, fmt.Errorf("decode decrypted presentation: %w", err)
		}
		out.Presentation = &p
		return out, nil
	}
	var d models.Declination
	if err := json.Unmarshal(resp.Presentation, &d); err != nil {
		return nil, fmt.Errorf("decode decrypted declination: %w", err)
	}
	out.Declination = &d
	return out, nil
}

func requestContextFor(req *models.PresentationRequest) *RequestContext {
	if req == nil {
		return nil
	}
	rc := &RequestContext{
		ID:              req.ID.String(),
		VerifierDID:     req.VerifierDID,
		HolderAppUUID:   req.HolderAppUUID,
		CredentialTypes: req.CredentialTypes,
		IssuerDIDs:      req.IssuerDIDs,
	}
	if !req.UUID.IsNil() {
		rc.UUID = req.UUID.String()
	}
	return rc
}

func resultLabel(resp *VerifyResponse, err error) string {
	switch {
	case err != nil && IsCryptoError(err):
		return "crypto_error"
	case err != nil:
		return "error"
	case !resp.IsVerified:
		return "unverified"
	default:
		return "verified"
	}
}
