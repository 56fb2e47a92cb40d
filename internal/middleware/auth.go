package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/qiniu/zabbixboard/internal/dashboard/client"
	"github.com/qiniu/zabbixboard/internal/dashboard/model"
	"github.com/qiniu/zabbixboard/internal/dashboard/service/rbac"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")

	// ErrIdentityUnavailable means the backend could not be asked who owns a token.
	ErrIdentityUnavailable = errors.New("identity backend unavailable")
)

const principalKey = "zabbixboard.principal"

// Claims are the claims the backend puts into its access tokens.
type Claims struct {
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller of a request.
type Principal struct {
	Subject string
	UserID  int
	Role    rbac.Role
	Token   string
}

// IdentityFunc asks the backend which account owns token.
type IdentityFunc func(ctx context.Context, token string) (model.User, error)

type confirmedIdentity struct {
	claims  Claims
	expires time.Time
}

// TokenVerifier authenticates access tokens. With a secret the signature is
// checked locally. Without one every token is confirmed by the backend and the
// confirmed account, not the token's claims, identifies the caller.
type TokenVerifier struct {
	secret []byte
	now    func() time.Time

	identity IdentityFunc
	ttl      time.Duration
	group    singleflight.Group

	mu        sync.Mutex
	confirmed map[string]confirmedIdentity
}

// VerifierOption customizes a TokenVerifier.
type VerifierOption func(*TokenVerifier)

// WithBackendIdentity confirms tokens through fn when no secret is configured.
// A confirmed identity is reused for ttl, never past the token's expiry.
func WithBackendIdentity(fn IdentityFunc, ttl time.Duration) VerifierOption {
	return func(v *TokenVerifier) {
		v.identity = fn
		if ttl > 0 {
			v.ttl = ttl
		}
	}
}

// WithVerifierClock overrides time.Now.
func WithVerifierClock(now func() time.Time) VerifierOption {
	return func(v *TokenVerifier) { v.now = now }
}

func NewTokenVerifier(secret string, opts ...VerifierOption) *TokenVerifier {
	v := &TokenVerifier{
		secret:    []byte(secret),
		now:       time.Now,
		ttl:       time.Minute,
		confirmed: make(map[string]confirmedIdentity),
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Verify authenticates token and returns the caller's claims.
func (v *TokenVerifier) Verify(ctx context.Context, token string) (*Claims, error) {
	if len(v.secret) > 0 {
		return v.Parse(token)
	}
	if v.identity == nil {
		return nil, ErrInvalidToken
	}
	unverified, err := v.peek(token)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256([]byte(token))
	key := hex.EncodeToString(sum[:])
	now := v.now()
	v.mu.Lock()
	hit, ok := v.confirmed[key]
	v.mu.Unlock()
	if ok && now.Before(hit.expires) {
		claims := hit.claims
		return &claims, nil
	}

	res, err, _ := v.group.Do(key, func() (interface{}, error) {
		user, err := v.identity(ctx, token)
		if err != nil {
			if client.IsAuth(err) || errors.Is(err, client.ErrForbidden) {
				return nil, ErrInvalidToken
			}
			return nil, fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
		}
		if strings.TrimSpace(user.Email) == "" {
			return nil, ErrInvalidToken
		}
		claims := Claims{UserID: user.ID, Role: user.Role}
		claims.Subject = user.Email
		expires := v.now().Add(v.ttl)
		if unverified.ExpiresAt != nil && unverified.ExpiresAt.Time.Before(expires) {
			expires = unverified.ExpiresAt.Time
		}
		v.remember(key, confirmedIdentity{claims: claims, expires: expires})
		return claims, nil
	})
	if err != nil {
		return nil, err
	}
	claims := res.(Claims)
	return &claims, nil
}

func (v *TokenVerifier) remember(key string, id confirmedIdentity) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.confirmed) >= 1024 {
		now := v.now()
		for k, e := range v.confirmed {
			if !now.Before(e.expires) {
				delete(v.confirmed, k)
			}
		}
	}
	v.confirmed[key] = id
}

// Parse checks token against the configured secret and returns its claims.
func (v *TokenVerifier) Parse(token string) (*Claims, error) {
	if len(v.secret) == 0 {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// peek reads claims without checking the signature, only to turn away
// malformed and expired tokens before asking the backend.
func (v *TokenVerifier) peek(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt != nil && !v.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrExpiredToken
	}
	return claims, nil
}

// Authentication rejects requests without a usable bearer token and stores
// the Principal for the handlers.
func Authentication(v *TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			abortUnauthenticated(c, ErrMissingToken)
			return
		}
		claims, err := v.Verify(c.Request.Context(), token)
		if errors.Is(err, ErrIdentityUnavailable) {
			log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("could not confirm token")
			c.AbortWithStatusJSON(http.StatusBadGateway, model.ErrorResponse{Error: model.ErrorDetail{
				Code:    model.CodeBackendError,
				Message: "The monitoring backend is unavailable, please try again.",
			}})
			return
		}
		if err != nil {
			abortUnauthenticated(c, err)
			return
		}
		c.Set(principalKey, Principal{
			Subject: claims.Subject,
			UserID:  claims.UserID,
			Role:    rbac.ParseRole(claims.Role),
			Token:   token,
		})
		c.Next()
	}
}

// RequireRole rejects callers below required.
func RequireRole(required rbac.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			abortUnauthenticated(c, ErrMissingToken)
			return
		}
		if !rbac.CanPerform(p.Role, required) {
			log.Warn().Str("subject", p.Subject).Str("role", p.Role.String()).Str("required", required.String()).
				Str("path", c.FullPath()).Msg("insufficient role")
			c.AbortWithStatusJSON(http.StatusForbidden, model.ErrorResponse{Error: model.ErrorDetail{
				Code:    model.CodeInsufficientRole,
				Message: "this action requires the " + required.String() + " role or higher",
			}})
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the caller stored by Authentication.
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

func extractBearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

func abortUnauthenticated(c *gin.Context, err error) {
	log.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("authentication failed")
	c.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{Error: model.ErrorDetail{
		Code:    model.CodeUnauthenticated,
		Message: "Your session has expired, please log in again.",
	}})
}
