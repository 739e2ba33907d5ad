package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// JWTConfig 配置 JWT 校验方式：HMAC 密钥、JWKS 地址，至少提供一个。
type JWTConfig struct {
	Secret  string
	JWKSURL string
}

// JWTAuth 校验 Bearer JWT，HS* 使用共享密钥，其余算法走 JWKS。
// 通过后 sub 声明作为鉴权主体存入 context。
func JWTAuth(cfg JWTConfig, logger zerolog.Logger) (func(http.Handler) http.Handler, error) {
	if cfg.Secret == "" && cfg.JWKSURL == "" {
		return nil, errors.New("jwt auth requires JWT_SECRET or JWKS_URL")
	}

	var jwks *keyfunc.JWKS
	if cfg.JWKSURL != "" {
		var err error
		jwks, err = keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
			RefreshInterval:   time.Hour,
			RefreshUnknownKID: true,
			RefreshErrorHandler: func(err error) {
				logger.Warn().Err(err).Str("url", cfg.JWKSURL).Msg("jwks refresh failed")
			},
		})
		if err != nil {
			return nil, fmt.Errorf("load jwks %s: %w", cfg.JWKSURL, err)
		}
	}

	keyFunc := func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); ok {
			if cfg.Secret == "" {
				return nil, errors.New("hmac token but no secret configured")
			}
			return []byte(cfg.Secret), nil
		}
		if jwks == nil {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return jwks.Keyfunc(token)
	}
	parser := jwt.NewParser(jwt.WithExpirationRequired(), jwt.WithLeeway(30*time.Second))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(w, r)
			if !ok {
				return
			}

			token, err := parser.Parse(raw, keyFunc)
			if err != nil || !token.Valid {
				logger.Debug().Err(err).Msg("jwt rejected")
				writeAuthError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			sub, err := token.Claims.GetSubject()
			if err != nil || sub == "" {
				writeAuthError(w, http.StatusUnauthorized, "token has no subject")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), sub)))
		})
	}, nil
}
