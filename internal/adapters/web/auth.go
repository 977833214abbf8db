package web

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"lotledger/internal/core"
)

type authClaimsKey struct{}

// AuthClaims holds the authenticated user's identity extracted from the JWT.
// LocationID is nil for super admins.
type AuthClaims struct {
	UserID     int
	LocationID *int
	Role       string
}

// authFromContext returns the auth claims stored in ctx, or nil.
func authFromContext(ctx context.Context) *AuthClaims {
	v, _ := ctx.Value(authClaimsKey{}).(*AuthClaims)
	return v
}

// jwtClaims is the JWT payload struct used for signing and parsing.
type jwtClaims struct {
	UserID     int    `json:"user_id"`
	LocationID *int   `json:"location_id"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// RequireAuth is chi middleware that validates the auth_token cookie and injects
// AuthClaims into the request context. Returns 401 if the token is absent or invalid.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("auth_token")
		if err != nil {
			writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		claims := &jwtClaims{}
		token, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(h.jwtSecret), nil
		})
		if err != nil || !token.Valid {
			writeError(w, r, "invalid or expired token", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), authClaimsKey{}, &AuthClaims{
			UserID:     claims.UserID,
			LocationID: claims.LocationID,
			Role:       claims.Role,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole restricts a route to the named roles. Runs after RequireAuth.
func (h *Handler) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := authFromContext(r.Context())
			if claims == nil {
				writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, r, "insufficient permissions", "FORBIDDEN", http.StatusForbidden)
		})
	}
}

// effectiveLocation resolves the location a request operates on. Regular
// users are pinned to their own location; super admins may act on any
// location by sending X-Location-Id.
func effectiveLocation(r *http.Request) (*int, error) {
	claims := authFromContext(r.Context())
	if claims == nil {
		return nil, core.Forbiddenf("authentication required")
	}
	if claims.Role == core.RoleSuperAdmin {
		if raw := r.Header.Get("X-Location-Id"); raw != "" {
			id, err := strconv.Atoi(raw)
			if err != nil || id < 1 {
				return nil, core.BadRequestf("invalid X-Location-Id header")
			}
			return &id, nil
		}
		return nil, nil
	}
	if claims.LocationID == nil {
		return nil, core.Forbiddenf("user has no assigned location")
	}
	return claims.LocationID, nil
}

// requireLocation is effectiveLocation for routes that cannot run unscoped.
func requireLocation(r *http.Request) (int, error) {
	loc, err := effectiveLocation(r)
	if err != nil {
		return 0, err
	}
	if loc == nil {
		return 0, core.BadRequestf("X-Location-Id header is required")
	}
	return *loc, nil
}

// requestScope builds the tenancy scope for read operations.
func requestScope(r *http.Request) (core.Scope, error) {
	claims := authFromContext(r.Context())
	if claims == nil {
		return core.Scope{}, core.Forbiddenf("authentication required")
	}
	if claims.Role == core.RoleSuperAdmin {
		scope := core.AdminScope()
		loc, err := effectiveLocation(r)
		if err != nil {
			return core.Scope{}, err
		}
		scope.LocationID = loc
		return scope, nil
	}
	if claims.LocationID == nil {
		return core.Scope{}, core.Forbiddenf("user has no assigned location")
	}
	return core.LocationScope(*claims.LocationID), nil
}

// login handles POST /api/auth/login.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.svc.Users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, "invalid username or password", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}

	claims := &jwtClaims{
		UserID:     user.ID,
		LocationID: user.LocationID,
		Role:       user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(12 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		writeError(w, r, "token generation failed", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   12 * 3600,
	})
	writeJSON(w, user)
}

// logout handles POST /api/auth/logout and clears the auth cookie.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

// me handles GET /api/auth/me and returns the current user's profile.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	if claims == nil {
		writeError(w, r, "not authenticated", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}

	user, err := h.svc.Users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, user)
}
