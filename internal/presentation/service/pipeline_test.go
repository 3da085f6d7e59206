package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"vp-gateway/internal/presentation/models"
	"vp-gateway/internal/presentation/store"
	"vp-gateway/internal/presentation/verifier"
	id "vp-gateway/pkg/domain"
	dErrors "vp-gateway/pkg/domain-errors"
	"vp-gateway/pkg/testutil"
)

// scriptedClient answers every verification with the same response and counts calls.
type scriptedClient struct {
	mu    sync.Mutex
	calls int
	resp  verifier.VerifyResponse
}

func (c *scriptedClient) VerifyEncryptedPresentation(_ context.Context, _ string, _ verifier.VerifyRequest) (*verifier.VerifyResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	resp := c.resp
	return &resp, nil
}

// countingCredentials counts token patches on top of the in-memory store.
type countingCredentials struct {
	*store.InMemoryCredentialStore
	mu      sync.Mutex
	patches int
}

func (c *countingCredentials) PatchAuthToken(ctx context.Context, credentialID id.VerifierRecordID, expectedVersion int64, authToken string) (*models.VerifierCredential, error) {
	c.mu.Lock()
	c.patches++
	c.mu.Unlock()
	return c.InMemoryCredentialStore.PatchAuthToken(ctx, credentialID, expectedVersion, authToken)
}

type discardNotifier struct{ count int }

func (n *discardNotifier) Notify(context.Context, models.Notification) bool {
	n.count++
	return true
}

type fixture struct {
	client        *scriptedClient
	credentials   *countingCredentials
	presentations *store.InMemoryPresentationStore
	declinations  *store.InMemoryDeclinationStore
	notifier      *discardNotifier
	pipeline      *Pipeline
	requestUUID   id.RequestUUID
}

func newFixture(t *testing.T, resp verifier.VerifyResponse, opts ...Option) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		client:        &scriptedClient{resp: resp},
		credentials:   &countingCredentials{InMemoryCredentialStore: store.NewInMemoryCredentialStore()},
		presentations: store.NewInMemoryPresentationStore(),
		declinations:  store.NewInMemoryDeclinationStore(),
		notifier:      &discardNotifier{},
		requestUUID:   id.RequestUUID(uuid.New()),
	}
	requests := store.NewInMemoryRequestStore()
	require.NoError(t, requests.Save(ctx, models.PresentationRequest{
		ID:              "req-1",
		UUID:            f.requestUUID,
		VerifierDID:     "did:unum:verifier",
		CredentialTypes: []string{"EmailCredential"},
	}))
	_, err := f.credentials.EnsureDefault(ctx, models.VerifierCredential{DID: "did:unum:verifier", AuthToken: "t0"})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	adapter, err := verifier.New(f.client, f.credentials, verifier.WithLogger(logger))
	require.NoError(t, err)
	f.pipeline, err = New(Deps{
		Requests:      requests,
		Credentials:   f.credentials,
		Presentations: f.presentations,
		Declinations:  f.declinations,
		Verifier:      adapter,
		Notifier:      f.notifier,
	}, append([]Option{WithLogger(logger)}, opts...)...)
	require.NoError(t, err)
	return f
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestPipelineEntityInvariants(t *testing.T) {
	ctx := context.Background()
	legacy := models.CreateRequest{
		EncryptedPresentation: models.EncryptedPresentation(`{}`),
		RequestID:             "req-1",
		Version:               id.MustProtocolVersion("1.0.0"),
	}

	testutil.Given(t, "a verified full presentation", func(t *testing.T) {
		f := newFixture(t, verifier.VerifyResponse{
			IsVerified:   true,
			Type:         "VerifiablePresentation",
			Presentation: mustJSON(t, models.Presentation{Type: []string{"VerifiablePresentation"}, PresentationRequestID: "req-1"}),
			AuthToken:    "Bearer t1",
		})

		testutil.When(t, "it is submitted", func(t *testing.T) {
			_, err := NewLegacy(f.pipeline).Create(ctx, legacy)
			require.NoError(t, err)

			testutil.Then(t, "exactly one presentation and no declination is stored", func(t *testing.T) {
				assert.Len(t, f.presentations.List(), 1)
				assert.Empty(t, f.declinations.List())
				assert.Equal(t, 1, f.notifier.count)
			})
			testutil.Then(t, "the credential is patched exactly once with the rotated token", func(t *testing.T) {
				assert.Equal(t, 1, f.credentials.patches)
				cred, err := f.credentials.GetDefault(ctx)
				require.NoError(t, err)
				assert.Equal(t, "Bearer t1", cred.AuthToken)
				assert.Equal(t, int64(2), cred.Version)
			})
		})
	})

	testutil.Given(t, "a verified declination", func(t *testing.T) {
		f := newFixture(t, verifier.VerifyResponse{
			IsVerified:   true,
			Type:         "DeclinedPresentation",
			Presentation: mustJSON(t, models.Declination{Type: []string{"DeclinedPresentation"}, HolderDID: "did:unum:holder"}),
			AuthToken:    "Bearer t1",
		})

		testutil.When(t, "it is submitted", func(t *testing.T) {
			_, err := NewLegacy(f.pipeline).Create(ctx, legacy)
			require.NoError(t, err)

			testutil.Then(t, "exactly one declination and no presentation is stored", func(t *testing.T) {
				assert.Empty(t, f.presentations.List())
				assert.Len(t, f.declinations.List(), 1)
				assert.Equal(t, 1, f.credentials.patches)
			})
		})
	})

	testutil.Given(t, "an unverified submission", func(t *testing.T) {
		f := newFixture(t, verifier.VerifyResponse{IsVerified: false, Message: "signature mismatch", AuthToken: "Bearer t1"})

		testutil.When(t, "it is submitted", func(t *testing.T) {
			_, err := NewLegacy(f.pipeline).Create(ctx, legacy)

			testutil.Then(t, "it fails with the upstream message and stores nothing", func(t *testing.T) {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
				assert.Contains(t, err.Error(), "signature mismatch")
				assert.Empty(t, f.presentations.List())
				assert.Empty(t, f.declinations.List())
				assert.Equal(t, 0, f.notifier.count)
				assert.Equal(t, 1, f.credentials.patches)
			})
		})
	})

	testutil.Given(t, "a submission for an unknown request", func(t *testing.T) {
		f := newFixture(t, verifier.VerifyResponse{IsVerified: true})

		testutil.When(t, "it is submitted", func(t *testing.T) {
			req := legacy
			req.RequestID = "unknown"
			_, err := NewLegacy(f.pipeline).Create(ctx, req)

			testutil.Then(t, "it is not found and verification is never attempted", func(t *testing.T) {
				assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
				assert.Equal(t, 0, f.client.calls)
				assert.Equal(t, 0, f.credentials.patches)
			})
		})
	})

	testutil.Given(t, "a current-generation submission", func(t *testing.T) {
		f := newFixture(t, verifier.VerifyResponse{
			IsVerified:   true,
			Type:         "VerifiablePresentation",
			Presentation: mustJSON(t, models.Presentation{Type: []string{"VerifiablePresentation"}}),
		})

		testutil.When(t, "it references the request by uuid", func(t *testing.T) {
			result, err := NewCurrent(f.pipeline).Create(ctx, models.CreateRequest{
				EncryptedPresentation: models.EncryptedPresentation(`{}`),
				RequestUUID:           f.requestUUID,
				Version:               id.MustProtocolVersion("2.1.0"),
			})

			testutil.Then(t, "the receipt has no request uuid", func(t *testing.T) {
				require.NoError(t, err)
				assert.Empty(t, result.ReceiptInfo.RequestUUID)
				assert.Equal(t, "req-1", result.PresentationRequestID)
			})
			testutil.Then(t, "the presentation is stored under the looked-up request id", func(t *testing.T) {
				stored := f.presentations.List()
				require.Len(t, stored, 1)
				assert.Equal(t, "req-1", stored[0].PresentationRequestID)
			})
		})
	})

	testutil.Given(t, "payloads naming a different request", func(t *testing.T) {
		presentation := newFixture(t, verifier.VerifyResponse{
			IsVerified:   true,
			Type:         "VerifiablePresentation",
			Presentation: mustJSON(t, models.Presentation{Type: []string{"VerifiablePresentation"}, PresentationRequestID: "req-other"}),
		})
		declination := newFixture(t, verifier.VerifyResponse{
			IsVerified:   true,
			Type:         "DeclinedPresentation",
			Presentation: mustJSON(t, models.Declination{Type: []string{"DeclinedPresentation"}, PresentationRequestID: "req-other"}),
		})

		testutil.When(t, "they are submitted", func(t *testing.T) {
			_, err := NewLegacy(presentation.pipeline).Create(ctx, legacy)
			require.NoError(t, err)
			_, err = NewLegacy(declination.pipeline).Create(ctx, legacy)
			require.NoError(t, err)

			testutil.Then(t, "both entities reference the request that was looked up", func(t *testing.T) {
				require.Len(t, presentation.presentations.List(), 1)
				assert.Equal(t, "req-1", presentation.presentations.List()[0].PresentationRequestID)
				require.Len(t, declination.declinations.List(), 1)
				assert.Equal(t, "req-1", declination.declinations.List()[0].PresentationRequestID)
			})
		})
	})
}

func TestPipelineSpans(t *testing.T) {
	ctx := context.Background()
	spans := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)).Tracer("pipeline-test")
	f := newFixture(t, verifier.VerifyResponse{
		IsVerified:   true,
		Type:         "VerifiablePresentation",
		Presentation: mustJSON(t, models.Presentation{Type: []string{"VerifiablePresentation"}}),
	}, WithTracer(tracer))

	_, err := NewLegacy(f.pipeline).Create(ctx, models.CreateRequest{
		EncryptedPresentation: models.EncryptedPresentation(`{}`),
		RequestID:             "req-1",
		Version:               id.MustProtocolVersion("1.2.0"),
	})
	require.NoError(t, err)
	_, err = NewLegacy(f.pipeline).Create(ctx, models.CreateRequest{
		EncryptedPresentation: models.EncryptedPresentation(`{}`),
		RequestID:             "unknown",
		Version:               id.MustProtocolVersion("1.2.0"),
	})
	require.Error(t, err)

	byName := map[string][]sdktrace.ReadOnlySpan{}
	for _, span := range spans.Ended() {
		byName[span.Name()] = append(byName[span.Name()], span)
	}
	require.Len(t, byName["presentation.persist"], 1)
	assert.Contains(t, byName["presentation.persist"][0].Attributes(), attribute.String("path", "presentation"))

	creates := byName["presentation.Create"]
	require.Len(t, creates, 2)
	assert.Contains(t, creates[0].Attributes(), attribute.String("generation", GenerationLegacy))
	assert.Equal(t, codes.Unset, creates[0].Status().Code)
	assert.Equal(t, codes.Error, creates[1].Status().Code)
	assert.Equal(t, "not_found", creates[1].Status().Description)
}
