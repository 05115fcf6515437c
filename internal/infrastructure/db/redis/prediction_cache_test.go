package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/domain"
)

func newTestCache(t *testing.T) (*PredictionCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewPredictionCache(client), mr
}

func TestPredictionCache_SetGet(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	features := []float64{0.1, 2, 3.5}
	want := &domain.Prediction{Label: 1, Class: "spam", Probabilities: []float64{0.2, 0.8}, ModelSHA256: "abc"}

	if _, ok, err := cache.Get(ctx, "abc", features); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := cache.Set(ctx, "abc", features, want, time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	got, ok, err := cache.Get(ctx, "abc", features)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got.Label != 1 || got.Class != "spam" || len(got.Probabilities) != 2 || got.Probabilities[1] != 0.8 {
		t.Fatalf("unexpected prediction: %+v", got)
	}
}

func TestPredictionCache_KeyedByModelDigest(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	features := []float64{1, 2}
	if err := cache.Set(ctx, "old-model", features, &domain.Prediction{Label: 0}, time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	if _, ok, err := cache.Get(ctx, "new-model", features); err != nil || ok {
		t.Fatalf("entry of a replaced model must not be visible, got ok=%v err=%v", ok, err)
	}
	if _, ok, _ := cache.Get(ctx, "old-model", []float64{1, 2.0000001}); ok {
		t.Fatalf("different features must not share a key")
	}
}

func TestPredictionCache_TTL(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)

	if err := cache.Set(ctx, "m", []float64{1}, &domain.Prediction{}, 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	key := cache.key("m", []float64{1})
	if ttl := mr.TTL(key); ttl != defaultPredictionTTL {
		t.Fatalf("expected default ttl, got %v", ttl)
	}

	mr.FastForward(defaultPredictionTTL + time.Second)
	if _, ok, _ := cache.Get(ctx, "m", []float64{1}); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestPredictionCache_BackendDown(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)
	mr.Close()

	if _, _, err := cache.Get(ctx, "m", []float64{1}); err == nil {
		t.Fatalf("expected error when redis is unreachable")
	}
}
