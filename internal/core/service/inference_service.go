package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/domain"
	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/ports"
	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/pkg/gbt"
)

const defaultLoadTimeout = 5 * time.Second

// InferenceConfig tunes model loading and prediction caching.
type InferenceConfig struct {
	LoadTimeout time.Duration
	CacheTTL    time.Duration
}

type loadedModel struct {
	model      *gbt.Model
	sha256     string
	generation uint64
}

// InferenceService runs the model held by the artifact store.
//
// The decoded model is cached together with the store generation it was read
// at. Every Predict compares that generation with the store's current one, so
// the first prediction after a committed upload always reloads.
type InferenceService struct {
	store ports.ArtifactStore
	cache ports.PredictionCache
	cfg   InferenceConfig
	log   zerolog.Logger

	loads singleflight.Group

	mu      sync.RWMutex
	current *loadedModel
}

// NewInferenceService wires the service. cache may be nil.
func NewInferenceService(store ports.ArtifactStore, cache ports.PredictionCache, cfg InferenceConfig, log zerolog.Logger) *InferenceService {
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = defaultLoadTimeout
	}
	return &InferenceService{
		store: store,
		cache: cache,
		cfg:   cfg,
		log:   log.With().Str("component", "inference").Logger(),
	}
}

// Predict classifies one feature vector.
func (s *InferenceService) Predict(ctx context.Context, features []float64) (*domain.Prediction, error) {
	if !s.store.Exists() {
		return nil, domain.ErrModelUnavailable
	}

	lm, err := s.model(ctx)
	if err != nil {
		return nil, err
	}

	if len(features) != lm.model.NumFeatures {
		return nil, fmt.Errorf("%w: expected %d features, got %d", domain.ErrShapeMismatch, lm.model.NumFeatures, len(features))
	}

	if s.cache != nil {
		p, ok, err := s.cache.Get(ctx, lm.sha256, features)
		if err != nil {
			s.log.Warn().Err(err).Msg("prediction cache lookup failed")
		} else if ok {
			return p, nil
		}
	}

	out, err := evaluate(lm.model, features)
	if err != nil {
		s.log.Error().Err(err).Str("model_sha256", lm.sha256).Msg("model evaluation failed")
		return nil, err
	}

	p := &domain.Prediction{
		Label:         out.Label,
		Class:         out.Class,
		Probabilities: out.Probabilities,
		ModelSHA256:   lm.sha256,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, lm.sha256, features, p, s.cfg.CacheTTL); err != nil {
			s.log.Warn().Err(err).Msg("prediction cache store failed")
		}
	}
	return p, nil
}

// model returns the decoded model for the current store generation, loading
// it at most once per generation no matter how many requests ask.
func (s *InferenceService) model(ctx context.Context) (*loadedModel, error) {
	gen := s.store.Generation()

	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()
	if cur != nil && cur.generation >= gen {
		return cur, nil
	}

	ch := s.loads.DoChan(strconv.FormatUint(gen, 10), s.load)

	timer := time.NewTimer(s.cfg.LoadTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*loadedModel), nil
	case <-timer.C:
		s.log.Error().Dur("timeout", s.cfg.LoadTimeout).Uint64("generation", gen).Msg("model load timed out")
		return nil, fmt.Errorf("%w: model load exceeded %s", domain.ErrInferenceFailure, s.cfg.LoadTimeout)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", domain.ErrInferenceFailure, ctx.Err())
	}
}

// load reads and decodes the committed artifact. It is detached from any
// request context because its result is shared between callers.
func (s *InferenceService) load() (any, error) {
	rc, info, err := s.store.Download(context.Background())
	if err != nil {
		if errors.Is(err, domain.ErrArtifactNotFound) {
			return nil, domain.ErrModelUnavailable
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrInferenceFailure, err)
	}
	defer rc.Close()

	h := sha256.New()
	tee := io.TeeReader(rc, h)
	m, err := gbt.Decode(tee)
	if err != nil {
		s.log.Error().Err(err).Uint64("generation", info.Generation).Msg("model artifact rejected")
		return nil, fmt.Errorf("%w: %w", domain.ErrInferenceFailure, err)
	}
	if _, err := io.Copy(io.Discard, tee); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInferenceFailure, err)
	}

	lm := &loadedModel{
		model:      m,
		sha256:     hex.EncodeToString(h.Sum(nil)),
		generation: info.Generation,
	}

	s.mu.Lock()
	if s.current == nil || lm.generation >= s.current.generation {
		s.current = lm
	}
	s.mu.Unlock()

	s.log.Info().
		Str("model_sha256", lm.sha256).
		Uint64("generation", lm.generation).
		Int("num_features", m.NumFeatures).
		Int("trees", len(m.Trees)).
		Msg("model loaded")
	return lm, nil
}

func evaluate(m *gbt.Model, x []float64) (out *gbt.Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: panic: %v", domain.ErrInferenceFailure, r)
		}
	}()

	out, err = m.Predict(x)
	switch {
	case errors.Is(err, gbt.ErrFeatureCount):
		return nil, fmt.Errorf("%w: %w", domain.ErrShapeMismatch, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", domain.ErrInferenceFailure, err)
	}
	return out, nil
}
