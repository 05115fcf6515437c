package redis

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/domain"
)

const defaultPredictionTTL = 10 * time.Minute

// PredictionCache memoises predictions in Redis.
// Key format: predict:<model_sha256>:<sha256 of the little-endian float64 features>
//
// The model digest is part of the key, so replacing the artifact makes every
// earlier entry unreachable without an explicit flush.
type PredictionCache struct {
	client *redis.Client
}

// NewPredictionCache creates a PredictionCache wrapping the given Redis client.
func NewPredictionCache(client *redis.Client) *PredictionCache {
	return &PredictionCache{client: client}
}

// Get returns the cached prediction, if any.
func (c *PredictionCache) Get(ctx context.Context, modelSHA256 string, features []float64) (*domain.Prediction, bool, error) {
	raw, err := c.client.Get(ctx, c.key(modelSHA256, features)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("prediction cache get: %w", err)
	}

	var p domain.Prediction
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false, fmt.Errorf("prediction cache decode: %w", err)
	}
	return &p, true, nil
}

// Set stores p for ttl (defaultPredictionTTL when ttl <= 0).
func (c *PredictionCache) Set(ctx context.Context, modelSHA256 string, features []float64, p *domain.Prediction, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = defaultPredictionTTL
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("prediction cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.key(modelSHA256, features), raw, ttl).Err(); err != nil {
		return fmt.Errorf("prediction cache set: %w", err)
	}
	return nil
}

func (c *PredictionCache) key(modelSHA256 string, features []float64) string {
	h := sha256.New()
	var buf [8]byte
	for _, f := range features {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		_, _ = h.Write(buf[:])
	}
	return fmt.Sprintf("predict:%s:%s", modelSHA256, hex.EncodeToString(h.Sum(nil)))
}
