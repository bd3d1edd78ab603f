package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func newTestIssuer(t *testing.T, clock *fakeClock) *Issuer {
	t.Helper()
	iss, err := NewIssuer("test-secret", 7*24*time.Hour, clock.Now)
	require.NoError(t, err)
	return iss
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	iss := newTestIssuer(t, clock)

	tok, exp, err := iss.Issue(42, "alice", []string{"SHIPPER", "USER"})
	require.NoError(t, err)
	assert.Equal(t, clock.t.Add(7*24*time.Hour), exp)

	got, err := iss.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.UserID)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, []string{"SHIPPER", "USER"}, got.Roles)
	assert.Equal(t, clock.t, got.IssuedAt)
	assert.Equal(t, exp, got.ExpiresAt)
	assert.NotEmpty(t, got.JWTID)
}

func TestIssueVerify_EmptyRoles(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	iss := newTestIssuer(t, clock)

	tok, _, err := iss.Issue(1, "bob", nil)
	require.NoError(t, err)

	got, err := iss.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, []string{}, got.Roles)
}

func TestVerify_Expired(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	iss := newTestIssuer(t, clock)

	tok, exp, err := iss.Issue(1, "bob", []string{"USER"})
	require.NoError(t, err)

	clock.t = exp.Add(-time.Second)
	_, err = iss.Verify(tok)
	require.NoError(t, err)

	clock.t = exp
	_, err = iss.Verify(tok)
	assert.ErrorIs(t, err, ErrCredentialExpired)

	clock.t = exp.Add(time.Hour)
	_, err = iss.Verify(tok)
	assert.ErrorIs(t, err, ErrCredentialExpired)
}

func TestVerify_WrongSecret(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	iss := newTestIssuer(t, clock)
	other, err := NewIssuer("other-secret", time.Hour, clock.Now)
	require.NoError(t, err)

	tok, _, err := other.Issue(1, "bob", []string{"ADMIN"})
	require.NoError(t, err)

	_, err = iss.Verify(tok)
	assert.ErrorIs(t, err, ErrCredentialInvalid)
}

func TestVerify_TamperedPayload(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	iss := newTestIssuer(t, clock)

	tok, _, err := iss.Issue(1, "bob", []string{"USER"})
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	forged, _, err := iss.Issue(2, "mallory", []string{"ADMIN"})
	require.NoError(t, err)
	// 別トークンのペイロードに元の署名を付ける
	parts[1] = strings.Split(forged, ".")[1]

	_, err = iss.Verify(strings.Join(parts, "."))
	assert.ErrorIs(t, err, ErrCredentialInvalid)
}

func TestVerify_WrongType(t *testing.T) {
	now := time.Now()
	iss := newTestIssuer(t, &fakeClock{t: now})

	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		UserID: 1,
		Type:   "refresh",
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = iss.Verify(tok)
	assert.ErrorIs(t, err, ErrCredentialInvalid)
}

func TestVerify_WrongAlgorithm(t *testing.T) {
	now := time.Now()
	iss := newTestIssuer(t, &fakeClock{t: now})

	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		UserID: 1,
		Type:   accessType,
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = iss.Verify(tok)
	assert.ErrorIs(t, err, ErrCredentialInvalid)
}

func TestVerify_Malformed(t *testing.T) {
	iss := newTestIssuer(t, &fakeClock{t: time.Now()})

	for _, raw := range []string{"", "   ", "abc", "a.b.c", "Bearer x.y.z"} {
		_, err := iss.Verify(raw)
		assert.ErrorIs(t, err, ErrCredentialInvalid, raw)
	}
}

func TestNewIssuer_Validation(t *testing.T) {
	_, err := NewIssuer("", time.Hour, nil)
	assert.Error(t, err)

	_, err = NewIssuer("s", 0, nil)
	assert.Error(t, err)
}
