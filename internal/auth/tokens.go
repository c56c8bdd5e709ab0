package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ayo6706/mobile-money-ledger/internal/domain"
	"github.com/ayo6706/mobile-money-ledger/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTTL is the lifetime of every issued access token.
const TokenTTL = time.Hour

// MinSecretLength is the shortest HMAC secret Tokens accepts.
const MinSecretLength = 32

// Identity is the authenticated caller attached to a request.
type Identity struct {
	AccountID   uuid.UUID
	Role        domain.Role
	PhoneNumber string
}

type claims struct {
	UserID      string `json:"user_id"`
	Role        string `json:"role"`
	PhoneNumber string `json:"phone_number"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 access tokens.
type Tokens struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

func NewTokens(secret, issuer, audience string) (*Tokens, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters", MinSecretLength)
	}
	return &Tokens{
		secret:   []byte(secret),
		issuer:   strings.TrimSpace(issuer),
		audience: strings.TrimSpace(audience),
		now:      time.Now,
	}, nil
}

// Issue signs a token for account that expires TokenTTL from now.
func (t *Tokens) Issue(account models.Account) (string, error) {
	now := t.now()
	c := claims{
		UserID:      account.ID.String(),
		Role:        string(account.Role),
		PhoneNumber: account.PhoneNumber,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID.String(),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	if t.audience != "" {
		c.Audience = jwt.ClaimStrings{t.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Authenticate verifies tokenString and returns the caller it identifies.
// Every failure is reported as domain.ErrUnauthorized.
func (t *Tokens) Authenticate(tokenString string) (Identity, error) {
	if tokenString == "" {
		return Identity{}, domain.ErrUnauthorized
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}
	if t.audience != "" {
		opts = append(opts, jwt.WithAudience(t.audience))
	}

	c := &claims{}
	token, err := jwt.ParseWithClaims(tokenString, c, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return t.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, tokenError(err))
	}

	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: invalid user_id claim", domain.ErrUnauthorized)
	}
	if c.Subject != "" && c.Subject != c.UserID {
		return Identity{}, fmt.Errorf("%w: subject mismatch", domain.ErrUnauthorized)
	}
	role, err := domain.ParseRole(c.Role)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: invalid role claim", domain.ErrUnauthorized)
	}

	return Identity{AccountID: id, Role: role, PhoneNumber: c.PhoneNumber}, nil
}

func tokenError(err error) error {
	switch {
	case err == nil:
		return errors.New("invalid token")
	case errors.Is(err, jwt.ErrTokenExpired):
		return errors.New("token expired")
	default:
		return err
	}
}
