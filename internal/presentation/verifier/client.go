package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	dErrors "vp-gateway/pkg/domain-errors"
	"vp-gateway/pkg/platform/circuit"
)

const (
	verifyPath      = "/api/verifyEncryptedPresentation"
	authTokenHeader = "x-auth-token"
	maxResponseSize = 4 << 20
	cryptoErrorName = "CryptoError"
)

// RequestContext is the subset of the stored request sent along for verification.
type RequestContext struct {
	ID              string   `json:"id"`
	UUID            string   `json:"uuid,omitempty"`
	VerifierDID     string   `json:"verifier"`
	HolderAppUUID   string   `json:"holderAppUuid,omitempty"`
	CredentialTypes []string `json:"credentialTypes,omitempty"`
	IssuerDIDs      []string `json:"issuers,omitempty"`
}

// VerifyRequest is the body posted to the verification service.
type VerifyRequest struct {
	EncryptedPresentation json.RawMessage `json:"encryptedPresentation"`
	VerifierDID           string          `json:"verifier"`
	EncryptionPrivateKey  string          `json:"encryptionPrivateKey"`
	PresentationRequest   *RequestContext `json:"presentationRequest,omitempty"`
}

// VerifyResponse is the decoded response plus the rotated token header.
type VerifyResponse struct {
	IsVerified   bool            `json:"isVerified"`
	Type         string          `json:"type"`
	Presentation json.RawMessage `json:"presentation"`
	Message      string          `json:"message,omitempty"`
	AuthToken    string          `json:"-"`
}

type errorBody struct {
	Name    string `json:"name"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// HTTPClient calls the verification service over HTTP behind a circuit breaker.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *circuit.Breaker
	tracer     trace.Tracer
	logger     *slog.Logger
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(h *HTTPClient) {
		h.httpClient = c
	}
}

// WithBreaker sets the circuit breaker guarding the service.
func WithBreaker(b *circuit.Breaker) ClientOption {
	return func(h *HTTPClient) {
		h.breaker = b
	}
}

// WithTimeout sets the per-call timeout of the default *http.Client.
func WithTimeout(d time.Duration) ClientOption {
	return func(h *HTTPClient) {
		h.httpClient.Timeout = d
	}
}

// WithClientLogger sets the logger used for breaker transitions.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(h *HTTPClient) {
		h.logger = l
	}
}

// NewHTTPClient creates a client for the verification service at baseURL.
func NewHTTPClient(baseURL string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		breaker:    circuit.New("verifier"),
		tracer:     otel.Tracer("vp-gateway/verifier"),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// VerifyEncryptedPresentation posts the encrypted presentation for decryption and
// verification. Transport failures and 5xx answers count against the breaker;
// an open breaker fails fast with CodeUnavailable.
func (c *HTTPClient) VerifyEncryptedPresentation(ctx context.Context, authToken string, req VerifyRequest) (*VerifyResponse, error) {
	ctx, span := c.tracer.Start(ctx, "verifier.VerifyEncryptedPresentation")
	defer span.End()
	span.SetAttributes(attribute.String("verifier_did", req.VerifierDID))

	if !c.breaker.Allow() {
		span.SetStatus(codes.Error, "circuit open")
		return nil, dErrors.New(dErrors.CodeUnavailable, "verification service unavailable")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode verify request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+verifyPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build verify request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", authToken)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.recordFailure(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "verification service timed out")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "verification service unavailable")
	}
	defer httpResp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", httpResp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		c.recordFailure(ctx)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "read verification response")
	}

	resp := &VerifyResponse{AuthToken: httpResp.Header.Get(authTokenHeader)}

	switch {
	case httpResp.StatusCode >= http.StatusInternalServerError:
		c.recordFailure(ctx)
		span.SetStatus(codes.Error, "upstream 5xx")
		return resp, dErrors.New(dErrors.CodeUnavailable,
			fmt.Sprintf("verification service returned %d", httpResp.StatusCode))
	case httpResp.StatusCode >= http.StatusBadRequest:
		c.recordSuccess(ctx)
		span.SetStatus(codes.Error, "upstream 4xx")
		return resp, decodeFailure(httpResp.StatusCode, raw)
	}

	c.recordSuccess(ctx)
	if err := json.Unmarshal(raw, resp); err != nil {
		return resp, fmt.Errorf("decode verify response: %w", err)
	}
	span.SetAttributes(attribute.Bool("is_verified", resp.IsVerified), attribute.String("type", resp.Type))
	return resp, nil
}

func decodeFailure(status int, raw []byte) error {
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err != nil || eb.Message == "" {
		return fmt.Errorf("verification service returned %d", status)
	}
	if eb.Name == cryptoErrorName {
		code := eb.Code
		if code == 0 {
			code = status
		}
		return &CryptoError{Code: code, Message: eb.Message}
	}
	return fmt.Errorf("verification service returned %d: %s", status, eb.Message)
}

func (c *HTTPClient) recordFailure(ctx context.Context) {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "circuit breaker opened", "breaker", c.breaker.Name())
	}
}

func (c *HTTPClient) recordSuccess(ctx context.Context) {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "circuit breaker closed", "breaker", c.breaker.Name())
	}
}
