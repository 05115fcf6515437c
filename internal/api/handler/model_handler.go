package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/api/metrics"
	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/domain"
	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/ports"
)

const uploadField = "file"

// AuditRecorder is the interface the handler uses to record artifact access.
type AuditRecorder interface {
	Enqueue(event domain.ArtifactEvent) bool
}

// ModelHandler exposes the model artifact slot to administrators.
type ModelHandler struct {
	store ports.ArtifactStore
	audit AuditRecorder
	log   zerolog.Logger
}

// NewModelHandler creates a ModelHandler. audit may be nil.
func NewModelHandler(store ports.ArtifactStore, audit AuditRecorder, log zerolog.Logger) *ModelHandler {
	return &ModelHandler{store: store, audit: audit, log: log}
}

// Upload handles POST /admin/upload-model. The multipart part is streamed
// straight into the store without buffering the whole file.
//
// @Summary      Replace the model artifact
// @Tags         admin
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "Serialized model"
// @Success      200   {object}  uploadResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      413   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /admin/upload-model [post]
func (h *ModelHandler) Upload(c echo.Context) error {
	auth, err := authContext(c)
	if err != nil {
		return err
	}

	mr, err := c.Request().MultipartReader()
	if err != nil {
		metrics.ArtifactUploadsTotal.WithLabelValues("bad_request").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "expected a multipart/form-data body")
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			metrics.ArtifactUploadsTotal.WithLabelValues("bad_request").Inc()
			return echo.NewHTTPError(http.StatusBadRequest, "no file part")
		}
		if err != nil {
			return h.uploadFailed(err)
		}
		if part.FormName() != uploadField {
			_ = part.Close()
			continue
		}
		if part.FileName() == "" {
			_ = part.Close()
			metrics.ArtifactUploadsTotal.WithLabelValues("bad_request").Inc()
			return echo.NewHTTPError(http.StatusBadRequest, "no selected file")
		}

		ack, err := h.store.Upload(c.Request().Context(), part)
		_ = part.Close()
		if err != nil {
			return h.uploadFailed(err)
		}

		metrics.ArtifactUploadsTotal.WithLabelValues("ok").Inc()
		metrics.ArtifactBytes.Set(float64(ack.Size))
		h.record(domain.ArtifactEvent{
			Action:    domain.ArtifactUploaded,
			Username:  auth.Username,
			Size:      ack.Size,
			SHA256:    ack.SHA256,
			Filename:  part.FileName(),
			Timestamp: ack.CommittedAt,
		})
		h.log.Info().
			Str("username", auth.Username).
			Str("filename", part.FileName()).
			Str("sha256", ack.SHA256).
			Int64("size", ack.Size).
			Msg("model artifact replaced")

		return c.JSON(http.StatusOK, uploadResponse{
			Message: fmt.Sprintf("File %s uploaded successfully!", part.FileName()),
			ID:      ack.ID,
			Size:    ack.Size,
			SHA256:  ack.SHA256,
		})
	}
}

// Download handles GET /admin/download-model.
//
// @Summary      Download the model artifact
// @Tags         admin
// @Produce      octet-stream
// @Security     BearerAuth
// @Success      200  {file}    file
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /admin/download-model [get]
func (h *ModelHandler) Download(c echo.Context) error {
	auth, err := authContext(c)
	if err != nil {
		return err
	}

	rc, info, err := h.store.Download(c.Request().Context())
	if err != nil {
		if errors.Is(err, domain.ErrArtifactNotFound) {
			metrics.ArtifactDownloadsTotal.WithLabelValues("not_found").Inc()
		} else {
			metrics.ArtifactDownloadsTotal.WithLabelValues("error").Inc()
		}
		return err
	}
	defer rc.Close()

	metrics.ArtifactDownloadsTotal.WithLabelValues("ok").Inc()
	h.record(domain.ArtifactEvent{
		Action:    domain.ArtifactDownloaded,
		Username:  auth.Username,
		Size:      info.Size,
		Filename:  info.Name,
		Timestamp: time.Now().UTC(),
	})

	header := c.Response().Header()
	header.Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", info.Name))
	header.Set(echo.HeaderContentLength, strconv.FormatInt(info.Size, 10))
	return c.Stream(http.StatusOK, echo.MIMEOctetStream, rc)
}

func (h *ModelHandler) uploadFailed(err error) error {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge:
		metrics.ArtifactUploadsTotal.WithLabelValues("too_large").Inc()
		return he
	case errors.Is(err, domain.ErrEmptyPayload):
		metrics.ArtifactUploadsTotal.WithLabelValues("empty").Inc()
		return err
	case errors.Is(err, domain.ErrBadPayload):
		metrics.ArtifactUploadsTotal.WithLabelValues("bad_request").Inc()
		return err
	case errors.Is(err, domain.ErrIOFailure):
		metrics.ArtifactUploadsTotal.WithLabelValues("error").Inc()
		return err
	default:
		metrics.ArtifactUploadsTotal.WithLabelValues("bad_request").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "malformed multipart body").SetInternal(err)
	}
}

func (h *ModelHandler) record(event domain.ArtifactEvent) {
	if h.audit == nil {
		return
	}
	if !h.audit.Enqueue(event) {
		metrics.AuditEventsDroppedTotal.Inc()
	}
}
