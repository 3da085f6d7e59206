package verifier

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies verification failures for logging.
type ErrorCategory string

const (
	// CategoryCrypto covers decryption and signature failures raised by the
	// verification service.
	CategoryCrypto ErrorCategory = "crypto"

	// CategoryUpstream covers every other failure of the verification call.
	CategoryUpstream ErrorCategory = "upstream"
)

// CryptoError is returned when the verification service could not decrypt or
// cryptographically validate the submission.
type CryptoError struct {
	Code    int
	Message string
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("crypto error (%d): %s", e.Code, e.Message)
}

// IsCryptoError reports whether err is or wraps a *CryptoError.
func IsCryptoError(err error) bool {
	var ce *CryptoError
	return errors.As(err, &ce)
}

// Categorize returns the logging category for a verification failure.
func Categorize(err error) ErrorCategory {
	if IsCryptoError(err) {
		return CategoryCrypto
	}
	return CategoryUpstream
}
