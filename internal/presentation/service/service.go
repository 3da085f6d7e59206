// Package service runs a presentation submission through lookup, verification,
// persistence, notification and receipt assembly. Each handler generation is the
// same pipeline with a different request lookup and receipt/notification shape.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"vp-gateway/internal/presentation/metrics"
	"vp-gateway/internal/presentation/models"
	dErrors "vp-gateway/pkg/domain-errors"
	"vp-gateway/pkg/platform/sentinel"
	"vp-gateway/pkg/requestcontext"
)

// Deps are the collaborators every generation shares.
type Deps struct {
	Requests      RequestStore
	Credentials   CredentialStore
	Presentations PresentationStore
	Declinations  DeclinationStore
	Verifier      Verifier
	Notifier      Notifier
}

// Pipeline holds the shared collaborators and ambient dependencies.
type Pipeline struct {
	requests      RequestStore
	credentials   CredentialStore
	presentations PresentationStore
	declinations  DeclinationStore
	verifier      Verifier
	notifier      Notifier
	logger        *slog.Logger
	metrics       *metrics.Metrics
	tracer        trace.Tracer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// WithMetrics enables outcome counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) {
		p.tracer = t
	}
}

// New validates deps and creates a Pipeline.
func New(deps Deps, opts ...Option) (*Pipeline, error) {
	switch {
	case deps.Requests == nil:
		return nil, errors.New("request store is required")
	case deps.Credentials == nil:
		return nil, errors.New("credential store is required")
	case deps.Presentations == nil:
		return nil, errors.New("presentation store is required")
	case deps.Declinations == nil:
		return nil, errors.New("declination store is required")
	case deps.Verifier == nil:
		return nil, errors.New("verifier is required")
	case deps.Notifier == nil:
		return nil, errors.New("notifier is required")
	}
	p := &Pipeline{
		requests:      deps.Requests,
		credentials:   deps.Credentials,
		presentations: deps.Presentations,
		declinations:  deps.Declinations,
		verifier:      deps.Verifier,
		notifier:      deps.Notifier,
		logger:        slog.Default(),
		tracer:        otel.Tracer("vp-gateway/presentation"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// lookupFunc loads the stored request a submission refers to.
type lookupFunc func(ctx context.Context, p *Pipeline, req models.CreateRequest) (*models.PresentationRequest, error)

func lookupByID(ctx context.Context, p *Pipeline, req models.CreateRequest) (*models.PresentationRequest, error) {
	if req.RequestID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "presentationRequestId is required")
	}
	stored, err := p.requests.FindByID(ctx, req.RequestID)
	return translateLookup(stored, err, req.RequestID.String())
}

func lookupByUUID(ctx context.Context, p *Pipeline, req models.CreateRequest) (*models.PresentationRequest, error) {
	if req.RequestUUID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "presentationRequestUuid is required")
	}
	stored, err := p.requests.FindByUUID(ctx, req.RequestUUID)
	return translateLookup(stored, err, req.RequestUUID.String())
}

func translateLookup(stored *models.PresentationRequest, err error, ref string) (*models.PresentationRequest, error) {
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "PresentationRequest "+ref+" not found")
		}
		return nil, err
	}
	return stored, nil
}

// defaultCredential loads the verifier identity used for every verification.
func (p *Pipeline) defaultCredential(ctx context.Context) (*models.VerifierCredential, error) {
	cred, err := p.credentials.GetDefault(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "default verifier credential is not configured")
		}
		return nil, err
	}
	return cred, nil
}

func (p *Pipeline) logError(ctx context.Context, msg string, args ...any) {
	p.logger.ErrorContext(ctx, msg, append([]any{"request_id", requestcontext.RequestID(ctx)}, args...)...)
}
