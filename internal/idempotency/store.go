// Package idempotency stores the first response to a mutating request so a
// retried request with the same key is answered without running it again.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayo6706/mobile-money-ledger/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	ErrNotFound     = errors.New("idempotency key not found")
	ErrHashMismatch = errors.New("idempotency key body mismatch")
	ErrInProgress   = errors.New("idempotency key in progress")
)

const (
	cachePrefix  = "idempotency"
	pollInterval = 50 * time.Millisecond

	ServedByCache    = "redis"
	ServedByDatabase = "postgres"
)

// KeyQueries is the subset of repository.Queries the store needs.
type KeyQueries interface {
	GetIdempotencyKey(ctx context.Context, key string) (repository.IdempotencyKey, error)
	ReserveIdempotencyKey(ctx context.Context, arg repository.ReserveIdempotencyKeyParams) (repository.IdempotencyKey, error)
	FinalizeIdempotencyKey(ctx context.Context, arg repository.FinalizeIdempotencyKeyParams) (repository.IdempotencyKey, error)
	ReleaseIdempotencyKey(ctx context.Context, key, requestHash string) error
}

// Request identifies one client attempt. Scope is the caller's account id, so
// two callers may use the same Idempotency-Key without colliding.
type Request struct {
	Scope  string
	Key    string
	Hash   string
	Method string
	Path   string
}

func (r Request) storageKey() string {
	if r.Scope == "" {
		return r.Key
	}
	return r.Scope + ":" + r.Key
}

// Record is a finished response. It is also the Redis cache payload.
type Record struct {
	Key         string `json:"key"`
	RequestHash string `json:"hash"`
	Status      int    `json:"status"`
	Body        []byte `json:"body"`
	ContentType string `json:"content_type"`
	ServedBy    string `json:"-"`
}

func fromRow(row repository.IdempotencyKey) Record {
	return Record{
		Key:         row.IdempotencyKey,
		RequestHash: row.RequestHash,
		Status:      int(row.ResponseStatus),
		Body:        row.ResponseBody,
		ContentType: row.ContentType,
		ServedBy:    ServedByDatabase,
	}
}

// Store keeps records in Postgres. Finished records are also written to Redis
// for ttl when a client is configured; Postgres stays authoritative for
// reservations.
type Store struct {
	cache   redis.Cmdable
	queries KeyQueries
	ttl     time.Duration
}

func NewStore(cache redis.Cmdable, queries KeyQueries, ttl time.Duration) *Store {
	return &Store{cache: cache, queries: queries, ttl: ttl}
}

// Lookup returns the finished record for req. ErrNotFound means the key is
// free, ErrInProgress that another attempt holds it.
func (s *Store) Lookup(ctx context.Context, req Request) (*Record, error) {
	key := req.storageKey()
	if rec, ok := s.cached(ctx, key); ok {
		if rec.RequestHash != req.Hash {
			return nil, ErrHashMismatch
		}
		return rec, nil
	}

	row, err := s.queries.GetIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup idempotency key: %w", err)
	}
	if row.RequestHash != req.Hash {
		return nil, ErrHashMismatch
	}
	if row.InProgress {
		return nil, ErrInProgress
	}
	rec := fromRow(row)
	s.store(ctx, rec)
	return &rec, nil
}

// Reserve claims req's key. It reports false when another attempt already
// holds it.
func (s *Store) Reserve(ctx context.Context, req Request) (bool, error) {
	_, err := s.queries.ReserveIdempotencyKey(ctx, repository.ReserveIdempotencyKeyParams{
		IdempotencyKey: req.storageKey(),
		RequestHash:    req.Hash,
		Method:         req.Method,
		Path:           req.Path,
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, pgx.ErrNoRows):
		return false, nil
	}
	return false, fmt.Errorf("reserve idempotency key: %w", err)
}

func (s *Store) Finalize(ctx context.Context, req Request, status int, body []byte, contentType string) (*Record, error) {
	row, err := s.queries.FinalizeIdempotencyKey(ctx, repository.FinalizeIdempotencyKeyParams{
		ResponseStatus: int32(status),
		ResponseBody:   body,
		ContentType:    contentType,
		IdempotencyKey: req.storageKey(),
		RequestHash:    req.Hash,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("finalize idempotency key: %w", err)
	}
	rec := fromRow(row)
	s.store(ctx, rec)
	return &rec, nil
}

// Release drops an unfinished reservation so the request can be retried.
// Finished records are never released.
func (s *Store) Release(ctx context.Context, req Request) error {
	if err := s.queries.ReleaseIdempotencyKey(ctx, req.storageKey(), req.Hash); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

// WaitForCompletion polls until the attempt holding req's key finishes. A
// released key surfaces as ErrNotFound.
func (s *Store) WaitForCompletion(ctx context.Context, req Request) (*Record, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		rec, err := s.Lookup(ctx, req)
		if !errors.Is(err, ErrInProgress) {
			return rec, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Store) cached(ctx context.Context, key string) (*Record, bool) {
	if s.cache == nil {
		return nil, false
	}
	val, err := s.cache.Get(ctx, cacheKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zap.L().Warn("redis idempotency lookup failed", zap.Error(err))
		}
		return nil, false
	}
	var rec Record
	if err := json.Unmarshal(val, &rec); err != nil {
		zap.L().Warn("discarding malformed idempotency cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	rec.ServedBy = ServedByCache
	return &rec, true
}

func (s *Store) store(ctx context.Context, rec Record) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		zap.L().Warn("marshal idempotency cache", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, cacheKey(rec.Key), payload, s.ttl).Err(); err != nil {
		zap.L().Warn("redis idempotency cache set failed", zap.Error(err))
	}
}

func cacheKey(key string) string {
	return cachePrefix + ":" + key
}
