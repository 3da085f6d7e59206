package handler

import "vp-gateway/internal/presentation/models"

// CreatePresentationResponse is the receipt returned for an accepted submission.
type CreatePresentationResponse struct {
	IsVerified            bool                `json:"isVerified"`
	Type                  string              `json:"type"`
	PresentationRequestID string              `json:"presentationRequestId"`
	ReceiptInfo           ReceiptInfoResponse `json:"receiptInfo"`
}

// ReceiptInfoResponse mirrors models.ReceiptInfo on the wire.
type ReceiptInfoResponse struct {
	SubjectDID      string   `json:"subjectDid,omitempty"`
	CredentialTypes []string `json:"credentialTypes"`
	VerifierDID     string   `json:"verifierDid"`
	HolderApp       string   `json:"holderApp,omitempty"`
	Issuers         []string `json:"issuers,omitempty"`
	RequestID       string   `json:"requestId"`
	RequestUUID     string   `json:"requestUuid,omitempty"`
}

// FromResult converts a pipeline result into its HTTP response.
func FromResult(result *models.CreateResult) *CreatePresentationResponse {
	if result == nil {
		return nil
	}
	types := result.ReceiptInfo.CredentialTypes
	if types == nil {
		types = []string{}
	}
	return &CreatePresentationResponse{
		IsVerified:            result.IsVerified,
		Type:                  string(result.Type),
		PresentationRequestID: result.PresentationRequestID,
		ReceiptInfo: ReceiptInfoResponse{
			SubjectDID:      result.ReceiptInfo.SubjectDID,
			CredentialTypes: types,
			VerifierDID:     result.ReceiptInfo.VerifierDID,
			HolderApp:       result.ReceiptInfo.HolderApp,
			Issuers:         result.ReceiptInfo.Issuers,
			RequestID:       result.ReceiptInfo.RequestID,
			RequestUUID:     result.ReceiptInfo.RequestUUID,
		},
	}
}
