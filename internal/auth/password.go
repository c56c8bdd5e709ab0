package auth

import (
	"errors"
	"fmt"

	"github.com/ayo6706/mobile-money-ledger/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost matches the work factor existing password hashes were created with.
const DefaultBcryptCost = 10

// Passwords hashes and verifies account passwords with bcrypt.
type Passwords struct {
	cost int
}

func NewPasswords(cost int) *Passwords {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &Passwords{cost: cost}
}

func (p *Passwords) Hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password is too long", domain.ErrInvalidInput)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Check returns domain.ErrBadPassword when password does not match hash.
func (p *Passwords) Check(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return domain.ErrBadPassword
	default:
		return fmt.Errorf("compare password: %w", err)
	}
}
