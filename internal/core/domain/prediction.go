package domain

// Prediction is the outcome of running the installed model on one feature vector.
type Prediction struct {
	Label         int       `json:"label"`
	Class         string    `json:"class,omitempty"`
	Probabilities []float64 `json:"probabilities"`
	ModelSHA256   string    `json:"model_sha256"`
}
