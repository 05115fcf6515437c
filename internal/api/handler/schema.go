package handler

import "time"

// --- Auth ---

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

type registerRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=admin user"`
}

type registerResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// --- Users ---

type profileResponse struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// --- Model artifact ---

type uploadResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
	Size    int64  `json:"size"`
	SHA256  string `json:"sha256"`
}

// --- Prediction ---

type spamCheckRequest struct {
	Data []float64 `json:"data" validate:"required,min=1"`
}

type spamCheckResponse struct {
	Success       bool      `json:"success"`
	Prediction    int       `json:"prediction"`
	Label         string    `json:"label,omitempty"`
	Probabilities []float64 `json:"probabilities"`
}

// errorResponse documents the envelope rendered by the API error handler.
type errorResponse struct {
	Error string `json:"error"`
}
