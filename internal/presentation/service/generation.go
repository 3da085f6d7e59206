package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"vp-gateway/internal/presentation/mapper"
	"vp-gateway/internal/presentation/models"
	dErrors "vp-gateway/pkg/domain-errors"
	"vp-gateway/pkg/platform/strings"
	"vp-gateway/pkg/requestcontext"
)

// Generation names.
const (
	GenerationOriginal = "original"
	GenerationLegacy   = "legacy"
	GenerationCurrent  = "current"
)

// Outcome labels recorded per submission.
const (
	outcomePresentation = "presentation"
	outcomeDeclination  = "declination"
	outcomeNotFound     = "not_found"
	outcomeUnverified   = "unverified"
	outcomeError        = "error"
)

// Handler is one handler generation.
type Handler struct {
	*Pipeline
	name               string
	lookup             lookupFunc
	receiptRequestUUID bool
	versionedNotify    bool
	publishRawDecl     bool
}

// NewOriginal returns the generation for holder apps that send no version or a
// pre-1.0 one. It looks requests up by id, puts the request uuid on receipts and
// sends unversioned notifications. With rawDeclination set, declinations are
// published as decrypted and not persisted.
func NewOriginal(p *Pipeline, rawDeclination bool) *Handler {
	return &Handler{
		Pipeline:           p,
		name:               GenerationOriginal,
		lookup:             lookupByID,
		receiptRequestUUID: true,
		publishRawDecl:     rawDeclination,
	}
}

// NewLegacy returns the 1.x generation: lookup by id, request uuid on receipts,
// versioned notifications.
func NewLegacy(p *Pipeline) *Handler {
	return &Handler{
		Pipeline:           p,
		name:               GenerationLegacy,
		lookup:             lookupByID,
		receiptRequestUUID: true,
		versionedNotify:    true,
	}
}

// NewCurrent returns the 2.x+ generation: lookup by uuid, versioned notifications.
func NewCurrent(p *Pipeline) *Handler {
	return &Handler{
		Pipeline:        p,
		name:            GenerationCurrent,
		lookup:          lookupByUUID,
		versionedNotify: true,
	}
}

// Generation returns the generation name.
func (h *Handler) Generation() string { return h.name }

// Create verifies, stores and announces one submission and returns its receipt.
// Exactly one presentation or declination is stored for a verified submission;
// nothing is stored otherwise.
func (h *Handler) Create(ctx context.Context, req models.CreateRequest) (*models.CreateResult, error) {
	ctx, span := h.tracer.Start(ctx, "presentation.Create",
		trace.WithAttributes(attribute.String("generation", h.name)))
	defer span.End()

	result, outcome, err := h.create(ctx, req)
	h.metrics.IncrementOutcome(h.name, outcome)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return nil, err
	}
	return result, nil
}

func (h *Handler) create(ctx context.Context, req models.CreateRequest) (*models.CreateResult, string, error) {
	stored, err := h.lookup(ctx, h.Pipeline, req)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.InfoContext(ctx, "presentation request not found",
				"request_id", requestcontext.RequestID(ctx),
				"generation", h.name,
			)
			return nil, outcomeNotFound, err
		}
		if !dErrors.HasCode(err, dErrors.CodeBadRequest) {
			h.logError(ctx, "presentation request lookup failed", "generation", h.name, "error", err)
		}
		return nil, outcomeError, err
	}

	cred, err := h.defaultCredential(ctx)
	if err != nil {
		h.logError(ctx, "failed to load verifier credential", "error", err)
		return nil, outcomeError, err
	}

	decrypted, _, err := h.verifier.Verify(ctx, *cred, req.EncryptedPresentation, stored)
	if err != nil {
		return nil, outcomeError, err
	}
	if !decrypted.IsVerified {
		h.logger.WarnContext(ctx, "presentation not verified",
			"request_id", requestcontext.RequestID(ctx),
			"generation", h.name,
			"presentation_request_id", stored.ID.String(),
			"message", decrypted.Message,
		)
		msg := decrypted.Message
		if msg == "" {
			msg = "presentation could not be verified"
		}
		return nil, outcomeUnverified, dErrors.New(dErrors.CodeBadRequest, "Verification failed: "+msg)
	}

	if decrypted.IsDeclination() {
		result, err := h.acceptDeclination(ctx, req, stored, cred, decrypted)
		if err != nil {
			return nil, outcomeError, err
		}
		return result, outcomeDeclination, nil
	}
	result, err := h.acceptPresentation(ctx, req, stored, cred, decrypted)
	if err != nil {
		return nil, outcomeError, err
	}
	return result, outcomePresentation, nil
}

func (h *Handler) acceptPresentation(ctx context.Context, req models.CreateRequest, stored *models.PresentationRequest, cred *models.VerifierCredential, decrypted *models.DecryptedPresentation) (*models.CreateResult, error) {
	if decrypted.Presentation == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "verified presentation has no payload")
	}
	attrs := mapper.PresentationAttributes(*decrypted.Presentation, decrypted.IsVerified, cred.DID)
	attrs.PresentationRequestID = h.requestReference(ctx, stored, attrs.PresentationRequestID)

	persistCtx, span := h.tracer.Start(ctx, "presentation.persist",
		trace.WithAttributes(attribute.String("path", outcomePresentation)))
	rec, err := h.presentations.Create(persistCtx, attrs)
	span.End()
	if err != nil {
		h.logError(ctx, "failed to persist entity", "path", outcomePresentation, "error", err)
		return nil, err
	}

	h.notify(ctx, req, stored, models.NotificationPresentation, rec, rec.CreatedAt)

	info := mapper.CredentialInfo(*decrypted.Presentation)
	receipt := h.receipt(stored, cred)
	receipt.SubjectDID = info.SubjectDID
	receipt.CredentialTypes = info.CredentialTypes
	if len(receipt.Issuers) == 0 {
		receipt.Issuers = info.Issuers
	}
	return &models.CreateResult{
		IsVerified:            true,
		Type:                  decrypted.Type,
		PresentationRequestID: stored.ID.String(),
		ReceiptInfo:           receipt,
	}, nil
}

func (h *Handler) acceptDeclination(ctx context.Context, req models.CreateRequest, stored *models.PresentationRequest, cred *models.VerifierCredential, decrypted *models.DecryptedPresentation) (*models.CreateResult, error) {
	if decrypted.Declination == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "verified declination has no payload")
	}

	if h.publishRawDecl {
		h.notify(ctx, req, stored, models.NotificationRawDeclination, decrypted.Raw, requestcontext.Now(ctx))
	} else {
		attrs := mapper.NoPresentationAttributes(*decrypted.Declination, decrypted.IsVerified)
		attrs.PresentationRequestID = h.requestReference(ctx, stored, attrs.PresentationRequestID)

		persistCtx, span := h.tracer.Start(ctx, "presentation.persist",
			trace.WithAttributes(attribute.String("path", outcomeDeclination)))
		rec, err := h.declinations.Create(persistCtx, attrs)
		span.End()
		if err != nil {
			h.logError(ctx, "failed to persist entity", "path", outcomeDeclination, "error", err)
			return nil, err
		}
		h.notify(ctx, req, stored, models.NotificationDeclination, rec, rec.CreatedAt)
	}

	receipt := h.receipt(stored, cred)
	receipt.SubjectDID = decrypted.Declination.HolderDID
	return &models.CreateResult{
		IsVerified:            true,
		Type:                  decrypted.Type,
		PresentationRequestID: stored.ID.String(),
		ReceiptInfo:           receipt,
	}, nil
}

// requestReference returns the id entities are stored under: always the
// looked-up request, whatever the holder put in the payload.
func (h *Handler) requestReference(ctx context.Context, stored *models.PresentationRequest, fromPayload string) string {
	ref := stored.ID.String()
	if fromPayload != "" && fromPayload != ref && fromPayload != stored.UUID.String() {
		h.logger.WarnContext(ctx, "payload request reference does not match looked-up request",
			"request_id", requestcontext.RequestID(ctx),
			"generation", h.name,
			"presentation_request_id", ref,
			"payload_reference", fromPayload,
		)
	}
	return ref
}

// receipt fills the request-derived receipt fields.
func (h *Handler) receipt(stored *models.PresentationRequest, cred *models.VerifierCredential) models.ReceiptInfo {
	verifierDID := stored.VerifierDID
	if verifierDID == "" {
		verifierDID = cred.DID
	}
	r := models.ReceiptInfo{
		CredentialTypes: strings.DedupeExcluding(stored.CredentialTypes, models.GenericCredentialType),
		VerifierDID:     verifierDID,
		HolderApp:       stored.HolderAppUUID,
		Issuers:         strings.DedupeAndTrim(stored.IssuerDIDs),
		RequestID:       stored.ID.String(),
	}
	if r.CredentialTypes == nil {
		r.CredentialTypes = []string{}
	}
	if h.receiptRequestUUID && !stored.UUID.IsNil() {
		r.RequestUUID = stored.UUID.String()
	}
	return r
}

func (h *Handler) notify(ctx context.Context, req models.CreateRequest, stored *models.PresentationRequest, kind models.NotificationKind, entity any, at time.Time) {
	n := models.Notification{
		Kind:                  kind,
		PresentationRequestID: stored.ID.String(),
		Entity:                entity,
		CreatedAt:             at,
	}
	if h.versionedNotify {
		n.Version = req.Version.String()
	}
	h.notifier.Notify(ctx, n)
}

