package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signHS256(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestJWTAuth_RequiresKeyMaterial(t *testing.T) {
	_, err := JWTAuth(JWTConfig{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestJWTAuth_HMAC(t *testing.T) {
	mw, err := JWTAuth(JWTConfig{Secret: "s3cret"}, zerolog.Nop())
	require.NoError(t, err)

	var principal string
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal = PrincipalFromContext(r.Context())
	}))

	exp := time.Now().Add(time.Hour).Unix()
	cases := []struct {
		name   string
		token  string
		status int
	}{
		{"valid", signHS256(t, "s3cret", jwt.MapClaims{"sub": "alice", "exp": exp}), http.StatusOK},
		{"wrong secret", signHS256(t, "other", jwt.MapClaims{"sub": "alice", "exp": exp}), http.StatusUnauthorized},
		{"expired", signHS256(t, "s3cret", jwt.MapClaims{"sub": "alice", "exp": time.Now().Add(-time.Hour).Unix()}), http.StatusUnauthorized},
		{"no exp", signHS256(t, "s3cret", jwt.MapClaims{"sub": "alice"}), http.StatusUnauthorized},
		{"no subject", signHS256(t, "s3cret", jwt.MapClaims{"exp": exp}), http.StatusUnauthorized},
		{"garbage", "not-a-jwt", http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			principal = ""
			req := httptest.NewRequest(http.MethodGet, "/token", nil)
			req.Header.Set("Authorization", "Bearer "+tc.token)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "alice", principal)
			}
		})
	}
}
