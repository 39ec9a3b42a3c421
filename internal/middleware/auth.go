package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/nikhil/sharenet/internal/apperrors"
	"github.com/nikhil/sharenet/internal/logger"
	usermodels "github.com/nikhil/sharenet/internal/models/users"
)

type ContextKey string

const UserContextKey ContextKey = "currentUser"

// Authenticator resolves a bearer token to a live user record.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*usermodels.User, error)
}

// Auth guards routes with bearer tokens.
type Auth struct {
	authn Authenticator
	log   *logger.Logger
}

func NewAuth(authn Authenticator, log *logger.Logger) *Auth {
	return &Auth{authn: authn, log: log.Named("auth-middleware")}
}

// CurrentUser returns the user attached by the auth middleware.
func CurrentUser(ctx context.Context) (*usermodels.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*usermodels.User)
	return user, ok && user != nil
}

// WithUser attaches user to ctx the way the auth middleware does.
func WithUser(ctx context.Context, user *usermodels.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// AuthMiddleware requires "Authorization: Bearer <token>" and reloads the
// user on every request so deleted accounts lose access immediately.
func (a *Auth) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if authHeader == "" || tokenStr == authHeader || tokenStr == "" {
			writeError(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}
		a.serve(w, r, next, tokenStr)
	})
}

// WebSocketAuthMiddleware reads the token from the "token" query parameter,
// since browsers cannot set headers on websocket upgrades.
func (a *Auth) WebSocketAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" {
			writeError(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}
		a.serve(w, r, next, tokenStr)
	})
}

func (a *Auth) serve(w http.ResponseWriter, r *http.Request, next http.Handler, token string) {
	user, err := a.authn.Authenticate(r.Context(), token)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindAuth {
			writeError(w, http.StatusUnauthorized, apperrors.PublicMessage(err))
			return
		}
		a.log.WithContext(r.Context()).Error("Failed to authenticate request", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
}

// RequireAdmin lets only admin accounts through. It must run after
// AuthMiddleware.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireUserType(usermodels.UserTypeAdmin)(next)
}

// RequireUserType lets through accounts of any of the given tiers. It must
// run after AuthMiddleware.
func RequireUserType(allowed ...usermodels.UserType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := CurrentUser(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "No token, authorization denied")
				return
			}
			for _, t := range allowed {
				if user.UserType == t {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "Access denied, admin rights required")
		})
	}
}

func ResponseWrapperMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
