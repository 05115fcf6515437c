package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/api/metrics"
	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/domain"
	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/ports"
)

// SpamHandler classifies feature vectors with the current model.
type SpamHandler struct {
	inference ports.InferenceService
}

func NewSpamHandler(inference ports.InferenceService) *SpamHandler {
	return &SpamHandler{inference: inference}
}

// Check handles POST /spam/check.
//
// @Summary      Classify a feature vector
// @Tags         spam
// @Accept       json
// @Produce      json
// @Param        body  body      spamCheckRequest  true  "Feature vector"
// @Success      200   {object}  spamCheckResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /spam/check [post]
func (h *SpamHandler) Check(c echo.Context) error {
	var req spamCheckRequest
	if err := c.Bind(&req); err != nil {
		metrics.PredictionsTotal.WithLabelValues("bad_request").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		metrics.PredictionsTotal.WithLabelValues("bad_request").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	start := time.Now()
	p, err := h.inference.Predict(c.Request().Context(), req.Data)
	outcome := predictionOutcome(err)
	metrics.PredictionDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	metrics.PredictionsTotal.WithLabelValues(outcome).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, spamCheckResponse{
		Success:       true,
		Prediction:    p.Label,
		Label:         p.Class,
		Probabilities: p.Probabilities,
	})
}

func predictionOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrModelUnavailable):
		return "model_unavailable"
	case errors.Is(err, domain.ErrShapeMismatch):
		return "shape_mismatch"
	default:
		return "error"
	}
}
