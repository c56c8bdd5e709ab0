package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/ayo6706/mobile-money-ledger/internal/domain"
	"github.com/ayo6706/mobile-money-ledger/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testAccount(role domain.Role) models.Account {
	return models.Account{ID: uuid.New(), PhoneNumber: "+254700000001", Role: role}
}

func TestNewTokensRejectsShortSecret(t *testing.T) {
	_, err := NewTokens("short", "", "")
	require.Error(t, err)
}

func TestIssueAndAuthenticate(t *testing.T) {
	tokens, err := NewTokens(testSecret, "ledger", "ledger-api")
	require.NoError(t, err)

	acct := testAccount(domain.RoleAgent)
	token, err := tokens.Issue(acct)
	require.NoError(t, err)

	id, err := tokens.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, acct.ID, id.AccountID)
	assert.Equal(t, domain.RoleAgent, id.Role)
	assert.Equal(t, acct.PhoneNumber, id.PhoneNumber)
}

func TestAuthenticateExpiredToken(t *testing.T) {
	tokens, err := NewTokens(testSecret, "", "")
	require.NoError(t, err)

	issuedAt := time.Now().Add(-2 * TokenTTL)
	tokens.now = func() time.Time { return issuedAt }
	token, err := tokens.Issue(testAccount(domain.RoleClient))
	require.NoError(t, err)

	tokens.now = time.Now
	_, err = tokens.Authenticate(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthenticateRejectsTampering(t *testing.T) {
	tokens, err := NewTokens(testSecret, "ledger", "ledger-api")
	require.NoError(t, err)
	other, err := NewTokens("ffffffffffffffffffffffffffffffff", "ledger", "ledger-api")
	require.NoError(t, err)
	wrongAudience, err := NewTokens(testSecret, "ledger", "someone-else")
	require.NoError(t, err)

	forged, err := other.Issue(testAccount(domain.RoleAdmin))
	require.NoError(t, err)
	misaddressed, err := wrongAudience.Issue(testAccount(domain.RoleAdmin))
	require.NoError(t, err)

	unknownRole := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: uuid.NewString(),
		Role:   "superuser",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "ledger",
			Audience:  jwt.ClaimStrings{"ledger-api"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	badRole, err := unknownRole.SignedString([]byte(testSecret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":        "",
		"garbage":      "not-a-jwt",
		"wrong secret": forged,
		"wrong aud":    misaddressed,
		"unknown role": badRole,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := tokens.Authenticate(token)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		role    domain.Role
		allowed []domain.Role
		ok      bool
	}{
		{domain.RoleClient, TransferRoles, true},
		{domain.RoleAgent, TransferRoles, true},
		{domain.RoleAdmin, TransferRoles, false},
		{domain.RoleAdmin, AdminRoles, true},
		{domain.RoleAgent, AdminRoles, false},
		{domain.Role("root"), AnyRole, false},
		{domain.Role(""), AnyRole, false},
	}
	for _, tc := range tests {
		err := Authorize(tc.role, tc.allowed...)
		if tc.ok {
			assert.NoError(t, err, tc.role)
		} else {
			assert.True(t, errors.Is(err, domain.ErrForbidden), tc.role)
		}
	}
}

func TestPasswords(t *testing.T) {
	p := NewPasswords(4)

	hash, err := p.Hash("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.NoError(t, p.Check(hash, "s3cret"))
	assert.ErrorIs(t, p.Check(hash, "wrong"), domain.ErrBadPassword)

	_, err = p.Hash("")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewPasswordsClampsCost(t *testing.T) {
	assert.Equal(t, DefaultBcryptCost, NewPasswords(0).cost)
	assert.Equal(t, DefaultBcryptCost, NewPasswords(99).cost)
	assert.Equal(t, 12, NewPasswords(12).cost)
}
