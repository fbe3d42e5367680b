package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const identityKey contextKey = "identity"

// Roles from the account service's token claims.
const (
	RoleEmployee     = "employee"
	RoleCompanyAdmin = "company_admin"
	RoleSuperAdmin   = "super_admin"
)

// Identity is the caller resolved from a bearer token. The gamification
// core trusts it without re-validating.
type Identity struct {
	UserID    int64
	CompanyID int64
	Role      string
}

func (id Identity) IsAdmin() bool {
	return id.Role == RoleCompanyAdmin || id.Role == RoleSuperAdmin
}

// JWTAuth validates HS256 bearer tokens minted by the account service.
type JWTAuth struct {
	secret []byte
}

func NewJWTAuth(secret string) *JWTAuth {
	return &JWTAuth{secret: []byte(secret)}
}

// Sign mints a token; used by tests and local tooling.
func (j *JWTAuth) Sign(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":    id.UserID,
		"company_id": id.CompanyID,
		"role":       id.Role,
		"iat":        now.Unix(),
		"exp":        now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}

// Middleware authenticates the request and stashes the Identity in context.
// WebSocket clients cannot set headers from browsers, so a token query
// parameter is accepted as a fallback.
func (j *JWTAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Missing authorization token")
			return
		}
		id, err := j.parse(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
	})
}

func (j *JWTAuth) parse(raw string) (Identity, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return j.secret, nil
	})
	if err != nil {
		return Identity{}, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("invalid claims")
	}
	id := Identity{
		UserID:    claimInt64(claims, "user_id"),
		CompanyID: claimInt64(claims, "company_id"),
	}
	id.Role, _ = claims["role"].(string)
	if id.UserID == 0 {
		return Identity{}, fmt.Errorf("token missing user_id")
	}
	return id, nil
}

func claimInt64(claims jwt.MapClaims, key string) int64 {
	// JSON numbers decode as float64.
	if v, ok := claims[key].(float64); ok {
		return int64(v)
	}
	return 0
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// IdentityFrom extracts the authenticated caller from the request context.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
