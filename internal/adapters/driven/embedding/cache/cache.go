// Package cache decorates an embedding service with a content-addressed
// cache and bounded retry. Identical chunk text across re-indexing never
// re-embeds, and transient backend failures are retried with
// exponential backoff before surfacing as unavailable.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/inquora/inquora-cli/internal/core/domain"
	"github.com/inquora/inquora-cli/internal/core/ports/driven"
)

// Ensure Service implements the interface.
var _ driven.EmbeddingService = (*Service)(nil)

// Default retry policy.
const (
	// DefaultMaxRetries is how many times a failed embed is retried
	// after the first attempt.
	DefaultMaxRetries = 2

	// DefaultRetryDelay is the initial backoff, doubled per retry.
	// No jitter, so test runs are reproducible.
	DefaultRetryDelay = 200 * time.Millisecond
)

// Service wraps an inner EmbeddingService with caching and retry.
type Service struct {
	inner      driven.EmbeddingService
	maxRetries int
	retryDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error

	mu      sync.RWMutex
	vectors map[string][]float32
	hits    int
	misses  int
}

// Option configures the cached service.
type Option func(*Service)

// WithMaxRetries sets the retry budget for transient failures.
func WithMaxRetries(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithRetryDelay sets the initial backoff delay.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.retryDelay = d
		}
	}
}

// withSleep replaces the backoff sleeper, for tests.
func withSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Service) {
		s.sleep = fn
	}
}

// New creates a caching, retrying embedding service around inner.
func New(inner driven.EmbeddingService, opts ...Option) *Service {
	s := &Service{
		inner:      inner,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		sleep:      sleepCtx,
		vectors:    make(map[string][]float32),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key derives the content-addressed cache key: sha256 over the text
// with whitespace runs collapsed, so re-chunked but textually identical
// content always hits.
func Key(text string) string {
	normalized := strings.Join(strings.Fields(text), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Embed returns the cached vector for the text or embeds it through the
// inner service with bounded retry.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	key := Key(text)

	s.mu.RLock()
	vec, ok := s.vectors[key]
	s.mu.RUnlock()
	if ok {
		s.mu.Lock()
		s.hits++
		s.mu.Unlock()
		return cloneVector(vec), nil
	}

	vec, err := s.embedWithRetry(ctx, text)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.misses++
	s.vectors[key] = vec
	s.mu.Unlock()

	return cloneVector(vec), nil
}

// EmbedBatch embeds texts, serving cached entries and sending only the
// misses to the inner service in a single batch call.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int

	s.mu.RLock()
	for i, text := range texts {
		if vec, ok := s.vectors[Key(text)]; ok {
			out[i] = cloneVector(vec)
		} else {
			missTexts = append(missTexts, text)
			missIdx = append(missIdx, i)
		}
	}
	s.mu.RUnlock()

	s.mu.Lock()
	s.hits += len(texts) - len(missTexts)
	s.mu.Unlock()

	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := s.batchWithRetry(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts",
			domain.ErrEmbeddingUnavailable, len(vecs), len(missTexts))
	}

	s.mu.Lock()
	for i, vec := range vecs {
		if err := s.checkDimsLocked(vec); err != nil {
			s.mu.Unlock()
			return nil, err
		}
		s.misses++
		s.vectors[Key(missTexts[i])] = vec
		out[missIdx[i]] = cloneVector(vec)
	}
	s.mu.Unlock()

	return out, nil
}

// embedWithRetry runs one Embed with the retry policy.
func (s *Service) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	var lastErr error

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			delay := s.retryDelay << (attempt - 1)
			if err := s.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		vec, err := s.inner.Embed(ctx, text)
		if err == nil {
			s.mu.RLock()
			dimErr := s.checkDimsLocked(vec)
			s.mu.RUnlock()
			if dimErr != nil {
				// A wrong-sized vector is a contract violation, not a
				// transient fault. Never retried.
				return nil, dimErr
			}
			return vec, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("%w: %d attempts failed: %v",
		domain.ErrEmbeddingUnavailable, s.maxRetries+1, lastErr)
}

// batchWithRetry runs one EmbedBatch with the retry policy.
func (s *Service) batchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			delay := s.retryDelay << (attempt - 1)
			if err := s.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		vecs, err := s.inner.EmbedBatch(ctx, texts)
		if err == nil {
			return vecs, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("%w: %d attempts failed: %v",
		domain.ErrEmbeddingUnavailable, s.maxRetries+1, lastErr)
}

// checkDimsLocked validates a vector against the inner service's
// declared dimensionality.
func (s *Service) checkDimsLocked(vec []float32) error {
	want := s.inner.Dimensions()
	if want > 0 && len(vec) != want {
		return fmt.Errorf("%w: got %d dimensions, model %s declares %d",
			domain.ErrDimensionMismatch, len(vec), s.inner.ModelName(), want)
	}
	return nil
}

// Dimensions returns the inner service's vector size.
func (s *Service) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the inner service's model name.
func (s *Service) ModelName() string {
	return s.inner.ModelName()
}

// Hits returns the number of cache hits served.
func (s *Service) Hits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hits
}

// Misses returns the number of embeddings computed by the inner service.
func (s *Service) Misses() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.misses
}

// Close releases the inner service.
func (s *Service) Close() error {
	return s.inner.Close()
}

// sleepCtx waits for the duration or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
