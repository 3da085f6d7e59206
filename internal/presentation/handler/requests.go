package handler

import (
	"bytes"
	"encoding/json"
	"strings"

	id "vp-gateway/pkg/domain"
	dErrors "vp-gateway/pkg/domain-errors"
)

// maxVersionLength bounds the body version marker before parsing.
const maxVersionLength = 64

// CreatePresentationRequest is the HTTP request body for POST /presentation.
type CreatePresentationRequest struct {
	EncryptedPresentation   json.RawMessage `json:"encryptedPresentation"`
	PresentationRequestID   string          `json:"presentationRequestId"`
	PresentationRequestUUID string          `json:"presentationRequestUuid"`
	Version                 string          `json:"version"`

	// Parsed values (populated by Validate)
	parsedRequestID   id.RequestID
	parsedRequestUUID id.RequestUUID
	parsedVersion     id.ProtocolVersion
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreatePresentationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	payload := bytes.TrimSpace(r.EncryptedPresentation)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return dErrors.New(dErrors.CodeValidation, "encryptedPresentation is required")
	}

	r.PresentationRequestID = strings.TrimSpace(r.PresentationRequestID)
	r.PresentationRequestUUID = strings.TrimSpace(r.PresentationRequestUUID)
	if r.PresentationRequestID == "" && r.PresentationRequestUUID == "" {
		return dErrors.New(dErrors.CodeValidation, "presentationRequestId or presentationRequestUuid is required")
	}

	if r.PresentationRequestID != "" {
		requestID, err := id.ParseRequestID(r.PresentationRequestID)
		if err != nil {
			return err
		}
		r.parsedRequestID = requestID
	}
	if r.PresentationRequestUUID != "" {
		requestUUID, err := id.ParseRequestUUID(r.PresentationRequestUUID)
		if err != nil {
			return err
		}
		r.parsedRequestUUID = requestUUID
	}

	r.Version = strings.TrimSpace(r.Version)
	if len(r.Version) > maxVersionLength {
		return dErrors.New(dErrors.CodeBadRequest, "version must be at most 64 characters")
	}
	v, err := id.ParseProtocolVersion(r.Version)
	if err != nil {
		return err
	}
	r.parsedVersion = v

	return nil
}

// ParsedRequestID returns the validated request identifier, empty when absent.
func (r *CreatePresentationRequest) ParsedRequestID() id.RequestID {
	return r.parsedRequestID
}

// ParsedRequestUUID returns the validated request UUID, nil when absent.
func (r *CreatePresentationRequest) ParsedRequestUUID() id.RequestUUID {
	return r.parsedRequestUUID
}

// ParsedVersion returns the body version marker.
func (r *CreatePresentationRequest) ParsedVersion() id.ProtocolVersion {
	return r.parsedVersion
}
