// Package memstore holds in-memory stand-ins for storage interfaces used by
// handler-level unit tests.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/ayo6706/mobile-money-ledger/internal/repository"
	"github.com/jackc/pgx/v5"
)

// Keys is an in-memory idempotency key table with the same no-rows
// semantics as the SQL queries.
type Keys struct {
	mu   sync.Mutex
	rows map[string]repository.IdempotencyKey
}

func NewKeys() *Keys {
	return &Keys{rows: make(map[string]repository.IdempotencyKey)}
}

func (m *Keys) GetIdempotencyKey(_ context.Context, key string) (repository.IdempotencyKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[key]
	if !ok {
		return repository.IdempotencyKey{}, pgx.ErrNoRows
	}
	return row, nil
}

func (m *Keys) ReserveIdempotencyKey(_ context.Context, arg repository.ReserveIdempotencyKeyParams) (repository.IdempotencyKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[arg.IdempotencyKey]; ok {
		return repository.IdempotencyKey{}, pgx.ErrNoRows
	}
	row := repository.IdempotencyKey{
		IdempotencyKey: arg.IdempotencyKey,
		RequestHash:    arg.RequestHash,
		Method:         arg.Method,
		Path:           arg.Path,
		InProgress:     true,
		CreatedAt:      time.Now(),
	}
	m.rows[arg.IdempotencyKey] = row
	return row, nil
}

func (m *Keys) FinalizeIdempotencyKey(_ context.Context, arg repository.FinalizeIdempotencyKeyParams) (repository.IdempotencyKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[arg.IdempotencyKey]
	if !ok || row.RequestHash != arg.RequestHash {
		return repository.IdempotencyKey{}, pgx.ErrNoRows
	}
	row.ResponseStatus = arg.ResponseStatus
	row.ResponseBody = arg.ResponseBody
	row.ContentType = arg.ContentType
	row.InProgress = false
	m.rows[arg.IdempotencyKey] = row
	return row, nil
}

func (m *Keys) ReleaseIdempotencyKey(_ context.Context, key, requestHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.rows[key]; ok && row.RequestHash == requestHash && row.InProgress {
		delete(m.rows, key)
	}
	return nil
}
