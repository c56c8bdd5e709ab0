package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound            = errors.New("record not found")
	ErrDuplicate           = errors.New("record already exists")
	ErrInsufficientBalance = errors.New("balance would become negative")
	ErrOutOfRange          = errors.New("value out of range")
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
	pgOutOfRange      = "22003"
)

// translate maps driver errors onto the storage sentinels above.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrDuplicate
		case pgOutOfRange:
			return ErrOutOfRange
		case pgCheckViolation:
			if pgErr.ConstraintName == "accounts_balance_non_negative" {
				return ErrInsufficientBalance
			}
		}
	}
	return err
}
