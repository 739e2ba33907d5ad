package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

type principalKey struct{}

// TokenVerifier 校验 bearer token，由 service.TokenService 实现。
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (bool, error)
}

// BearerAuth 要求请求头 Authorization: Bearer <token>，
// token 必须已登记在 tokens 表中。通过后 token 存入 context。
func BearerAuth(verifier TokenVerifier, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(w, r)
			if !ok {
				return
			}

			valid, err := verifier.Verify(r.Context(), token)
			if err != nil {
				logger.Error().Err(err).Msg("verify bearer token")
				writeAuthError(w, http.StatusInternalServerError, "unable to verify token")
				return
			}
			if !valid {
				writeAuthError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), token)))
		})
	}
}

// bearerToken 解析 Authorization 头，失败时已写出 401。
func bearerToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		writeAuthError(w, http.StatusUnauthorized, "missing Authorization header")
		return "", false
	}

	const prefix = "Bearer "
	if len(authHeader) < len(prefix) || !strings.EqualFold(authHeader[:len(prefix)], prefix) {
		writeAuthError(w, http.StatusUnauthorized, "invalid Authorization format, expected: Bearer <token>")
		return "", false
	}

	token := strings.TrimSpace(authHeader[len(prefix):])
	if token == "" {
		writeAuthError(w, http.StatusUnauthorized, "empty token")
		return "", false
	}
	return token, true
}

// WithPrincipal 把鉴权主体（token 或 JWT subject）放入 context。
func WithPrincipal(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// PrincipalFromContext 返回鉴权中间件放入的主体，未鉴权时为空。
func PrincipalFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(principalKey{}).(string); ok {
		return v
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="quill"`)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
