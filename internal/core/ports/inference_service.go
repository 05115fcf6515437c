package ports

import (
	"context"
	"time"

	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/domain"
)

// InferenceService runs the installed model.
type InferenceService interface {
	Predict(ctx context.Context, features []float64) (*domain.Prediction, error)
}

// PredictionCache memoises predictions per model digest. Implementations must
// treat a miss and a backend failure the same way from the caller's side: the
// caller logs the error and computes the prediction.
type PredictionCache interface {
	Get(ctx context.Context, modelSHA256 string, features []float64) (*domain.Prediction, bool, error)
	Set(ctx context.Context, modelSHA256 string, features []float64, p *domain.Prediction, ttl time.Duration) error
}
