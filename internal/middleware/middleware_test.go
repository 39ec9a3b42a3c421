package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nikhil/sharenet/internal/apperrors"
	"github.com/nikhil/sharenet/internal/logger"
	usermodels "github.com/nikhil/sharenet/internal/models/users"
)

type stubAuthn map[string]*usermodels.User

func (s stubAuthn) Authenticate(_ context.Context, token string) (*usermodels.User, error) {
	if token == "broken" {
		return nil, errors.New("db down")
	}
	if u, ok := s[token]; ok {
		return u, nil
	}
	return nil, apperrors.Auth("Token is not valid")
}

var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r.Context())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(user.ID))
})

func newAuth() *Auth {
	return NewAuth(stubAuthn{
		"good":  {ID: "u1", UserType: usermodels.UserTypeUser},
		"admin": {ID: "a1", UserType: usermodels.UserTypeAdmin},
		"owner": {ID: "o1", UserType: usermodels.UserTypeOwner},
	}, logger.Nop())
}

func TestAuthMiddleware(t *testing.T) {
	h := newAuth().AuthMiddleware(echoUser)
	cases := []struct {
		header string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"good", http.StatusUnauthorized},
		{"Bearer nope", http.StatusUnauthorized},
		{"Bearer broken", http.StatusInternalServerError},
		{"Bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, tc.status, rec.Code, tc.header)
	}
}

func TestWebSocketAuthMiddleware(t *testing.T) {
	h := newAuth().WebSocketAuthMiddleware(echoUser)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?token=good", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "u1", rec.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	h := newAuth().AuthMiddleware(RequireAdmin(echoUser))

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req.Header.Set("Authorization", "Bearer owner")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req.Header.Set("Authorization", "Bearer admin")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireUserTypeAdmitsListedTiers(t *testing.T) {
	h := newAuth().AuthMiddleware(RequireUserType(usermodels.UserTypeAdmin, usermodels.UserTypeOwner)(echoUser))
	for token, want := range map[string]int{
		"good":  http.StatusForbidden,
		"admin": http.StatusOK,
		"owner": http.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, want, rec.Code, token)
	}

	rec := httptest.NewRecorder()
	RequireUserType(usermodels.UserTypeAdmin)(echoUser).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(10)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	other := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	require.Equal(t, http.StatusNoContent, rec.Code)

	require.Nil(t, NewRateLimiter(0))
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	var seen string
	h := RequestLogger(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)
	require.NotEmpty(t, seen)
	require.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "abc", seen)
}
