package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vjranagit/graphcalc/pkg/types"
)

func testAuthenticator() *Authenticator {
	return New(Config{
		Secret:     []byte("test-secret-0123456789"),
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
	})
}

func TestPasswordRoundTrip(t *testing.T) {
	a := testAuthenticator()

	hash, err := a.HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)

	assert.NoError(t, a.CheckPassword(hash, "hunter22"))
	assert.Equal(t, ErrInvalidCredentials, a.CheckPassword(hash, "hunter23"))
}

func TestIssueAndVerify(t *testing.T) {
	a := testAuthenticator()
	user := &types.User{ID: "user-1", Username: "ada"}

	token, issued, err := a.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, issued.Id)

	claims, err := a.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "ada", claims.Username)
	assert.Equal(t, issued.Id, claims.Id)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.Expiry(), 5*time.Second)
}

func TestVerifyRejects(t *testing.T) {
	a := testAuthenticator()
	user := &types.User{ID: "user-1", Username: "ada"}

	other := New(Config{Secret: []byte("another-secret-987654"), TokenTTL: time.Hour, BcryptCost: bcrypt.MinCost})
	foreign, _, err := other.Issue(user)
	require.NoError(t, err)

	expiredAuth := testAuthenticator()
	expiredAuth.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	expired, _, err := expiredAuth.Issue(user)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not.a.token",
		"wrong secret": foreign,
		"expired":      expired,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := a.Verify(token)
			require.Error(t, err)
			assert.Equal(t, ErrInvalidToken, errors.Cause(err))
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		err    error
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", nil},
		{"bearer   tok ", "tok", nil},
		{"", "", ErrMissingToken},
		{"Basic dXNlcjpwYXNz", "", ErrMissingToken},
		{"Bearer ", "", ErrMissingToken},
	}

	for _, tc := range tests {
		r := httptest.NewRequest("GET", "/users", nil)
		if tc.header != "" {
			r.Header.Set("Authorization", tc.header)
		}
		got, err := BearerToken(r)
		assert.Equal(t, tc.err, err, tc.header)
		assert.Equal(t, tc.want, got, tc.header)
	}
}
