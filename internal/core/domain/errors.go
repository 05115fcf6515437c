package domain

import "errors"

// Auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("missing or malformed authorization header")
	ErrInvalidSignature   = errors.New("token signature is invalid")
	ErrExpired            = errors.New("token has expired")
	ErrMalformed          = errors.New("token is malformed")
	ErrForbidden          = errors.New("access forbidden")

	ErrUserExists      = errors.New("username already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidRole     = errors.New("invalid role")
	ErrRoleNotAllowed  = errors.New("role cannot be self-assigned")
	ErrInvalidUserData = errors.New("username and password are required")
)

// Artifact errors.
var (
	ErrArtifactNotFound = errors.New("model artifact not found")
	ErrEmptyPayload     = errors.New("artifact payload is empty")
	ErrBadPayload       = errors.New("artifact payload could not be read")
	ErrIOFailure        = errors.New("artifact storage failure")
)

// Prediction errors.
var (
	ErrModelUnavailable = errors.New("model is not available")
	ErrShapeMismatch    = errors.New("feature vector length does not match model")
	ErrInferenceFailure = errors.New("inference failed")
)

// IsTokenError reports whether err came from token verification.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrMalformed)
}
