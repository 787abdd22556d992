package token_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webcore/internal/domain"
	"webcore/internal/token"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

var fixedTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func testConfig() *token.Config {
	return &token.Config{Secret: testSecret, ExpirationInMinutes: 60}
}

func newIssuer(t *testing.T, cfg *token.Config, opts ...token.Option) *token.Issuer {
	t.Helper()
	iss, err := token.NewIssuer(cfg, opts...)
	require.NoError(t, err)
	return iss
}

func parseUnverified(t *testing.T, raw string) (*token.Claims, map[string]any) {
	t.Helper()
	claims := &token.Claims{}
	_, _, err := jwt.NewParser().ParseUnverified(raw, claims)
	require.NoError(t, err)
	mc := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(raw, mc)
	require.NoError(t, err)
	return claims, mc
}

func TestIssueRoundTrip(t *testing.T) {
	now := fixedTime.Add(750 * time.Millisecond)
	iss := newIssuer(t, testConfig())

	tok, err := iss.Issue("user@example.com", now)
	require.NoError(t, err)

	claims, raw := parseUnverified(t, tok.AccessToken)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Unix(), claims.NotBefore.Unix())
	assert.NotContains(t, raw, "sub")
	assert.NotContains(t, raw, "iss")
}

func TestIssueForUserSetsSubject(t *testing.T) {
	iss := newIssuer(t, testConfig())

	tok, err := iss.IssueForUser("user@example.com", 42, fixedTime)
	require.NoError(t, err)

	claims, _ := parseUnverified(t, tok.AccessToken)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "user@example.com", claims.Email)
}

func TestIssueForUUIDSetsSubject(t *testing.T) {
	id := uuid.MustParse("8f14e45f-ceea-467a-9575-1b1a7e5c3a21")
	iss := newIssuer(t, testConfig())

	tok, err := iss.IssueForUUID("user@example.com", id, fixedTime)
	require.NoError(t, err)

	claims, _ := parseUnverified(t, tok.AccessToken)
	assert.Equal(t, "8f14e45f-ceea-467a-9575-1b1a7e5c3a21", claims.Subject)
}

func TestIssueExpiry(t *testing.T) {
	iss := newIssuer(t, testConfig())

	tok, err := iss.Issue("user@example.com", fixedTime)
	require.NoError(t, err)

	claims, _ := parseUnverified(t, tok.AccessToken)
	want := fixedTime.Add(60 * time.Minute)
	assert.Equal(t, want.Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, 60, tok.ExpiresIn)
	assert.True(t, tok.ExpiresAt.Equal(want))
}

func TestIssueExpirySubSecond(t *testing.T) {
	iss := newIssuer(t, testConfig())
	now := fixedTime.Add(750 * time.Millisecond)

	tok, err := iss.Issue("user@example.com", now)
	require.NoError(t, err)

	claims, _ := parseUnverified(t, tok.AccessToken)
	want := fixedTime.Add(60 * time.Minute)
	assert.True(t, tok.ExpiresAt.Equal(want), "ExpiresAt %s", tok.ExpiresAt)
	assert.True(t, tok.ExpiresAt.Equal(claims.ExpiresAt.Time))
	assert.Equal(t, 60*time.Minute, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestIssueIsDeterministic(t *testing.T) {
	iss := newIssuer(t, testConfig())

	a, err := iss.IssueForUser("user@example.com", 7, fixedTime)
	require.NoError(t, err)
	b, err := iss.IssueForUser("user@example.com", 7, fixedTime)
	require.NoError(t, err)

	assert.Equal(t, a.AccessToken, b.AccessToken)
}

func TestIssueUsesClockForZeroTime(t *testing.T) {
	iss := newIssuer(t, testConfig(), token.WithClock(func() time.Time { return fixedTime }))

	tok, err := iss.Issue("user@example.com", time.Time{})
	require.NoError(t, err)

	claims, _ := parseUnverified(t, tok.AccessToken)
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
}

func TestIssueIncludesConfiguredIssuer(t *testing.T) {
	cfg := testConfig()
	cfg.Issuer = "webcore-test"
	iss := newIssuer(t, cfg)

	tok, err := iss.Issue("user@example.com", fixedTime)
	require.NoError(t, err)

	claims, _ := parseUnverified(t, tok.AccessToken)
	assert.Equal(t, "webcore-test", claims.Issuer)
}

func TestIssueRequiresEmail(t *testing.T) {
	iss := newIssuer(t, testConfig())

	_, err := iss.IssueForUser("", 1, fixedTime)

	require.ErrorIs(t, err, domain.ErrInvalidArgument)
	var argErr *domain.ArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "email", argErr.Param)
}

func TestNewIssuerValidatesConfig(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *token.Config
		wantParam string
		wantErr   error
	}{
		{"nil config", nil, "config", domain.ErrInvalidArgument},
		{"empty secret", &token.Config{ExpirationInMinutes: 60}, "secret", domain.ErrInvalidConfig},
		{"zero expiration", &token.Config{Secret: testSecret}, "expirationInMinutes", domain.ErrInvalidConfig},
		{"negative expiration", &token.Config{Secret: testSecret, ExpirationInMinutes: -5}, "expirationInMinutes", domain.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iss, err := token.NewIssuer(tt.cfg)

			assert.Nil(t, iss)
			require.ErrorIs(t, err, tt.wantErr)
			var argErr *domain.ArgumentError
			require.ErrorAs(t, err, &argErr)
			assert.Equal(t, tt.wantParam, argErr.Param)
		})
	}
}
