package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	v := NewVerifier("secret")
	token, err := v.Issue("user-1", []string{"acme"}, time.Minute)
	require.NoError(t, err)

	claims, err := v.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.True(t, claims.Allows("acme"))
	assert.False(t, claims.Allows("globex"))
}

func TestAllowsWildcard(t *testing.T) {
	c := &Claims{Tenants: []string{AllTenants}}
	assert.True(t, c.Allows("anything"))
	assert.False(t, (&Claims{}).Allows("acme"))
}

func TestValidate_Rejects(t *testing.T) {
	v := NewVerifier("secret")

	other, err := NewVerifier("other").Issue("user-1", []string{"acme"}, time.Minute)
	require.NoError(t, err)
	_, err = v.Validate(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Validate("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	past := NewVerifier("secret")
	past.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, err := past.Issue("user-1", []string{"acme"}, time.Minute)
	require.NoError(t, err)
	_, err = v.Validate(expired)
	assert.ErrorIs(t, err, ErrExpiredToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "x"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = v.Validate(none)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaimsContext(t *testing.T) {
	_, ok := ClaimsFrom(context.Background())
	assert.False(t, ok)

	ctx := WithClaims(context.Background(), &Claims{UserID: "u"})
	c, ok := ClaimsFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, "u", c.UserID)
}
