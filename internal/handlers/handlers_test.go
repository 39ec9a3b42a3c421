package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nikhil/sharenet/internal/apperrors"
	"github.com/nikhil/sharenet/internal/logger"
	"github.com/nikhil/sharenet/internal/middleware"
	"github.com/nikhil/sharenet/internal/models"
	usermodels "github.com/nikhil/sharenet/internal/models/users"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestRespondWithAppError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		key  string
		msg  string
	}{
		{"validation", apperrors.Validation("Invalid email address."), http.StatusBadRequest, "msg", "Invalid email address."},
		{"duplicate", apperrors.DuplicateInvite("This email has already been invited."), http.StatusBadRequest, "msg", "This email has already been invited."},
		{"not found", apperrors.NotFound("Team not found"), http.StatusNotFound, "msg", "Team not found"},
		{"auth", apperrors.Auth("Invalid email or password"), http.StatusUnauthorized, "error", "Invalid email or password"},
		{"forbidden", apperrors.Forbidden("You are not a member of this team"), http.StatusForbidden, "error", "You are not a member of this team"},
		{"store", apperrors.Store("insert team", errors.New("disk full")), http.StatusInternalServerError, "error", "Something went wrong"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "error", "Something went wrong"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			respondWithAppError(rec, req, logger.Nop(), tc.err)
			require.Equal(t, tc.code, rec.Code)
			require.Equal(t, tc.msg, decodeBody(t, rec)[tc.key])
		})
	}
}

func TestDecodeAndValidate(t *testing.T) {
	var req signupRequest

	rec := httptest.NewRecorder()
	ok := decodeAndValidate(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{")), &req)
	require.False(t, ok)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid request payload", decodeBody(t, rec)["msg"])

	rec = httptest.NewRecorder()
	body := `{"email":"a@x.com","password":"123","firstName":"A","lastName":"B"}`
	ok = decodeAndValidate(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), &req)
	require.False(t, ok)
	require.Equal(t, "password must be at least 6 characters", decodeBody(t, rec)["msg"])

	rec = httptest.NewRecorder()
	body = `{"email":"nope","password":"123456","firstName":"A","lastName":"B"}`
	ok = decodeAndValidate(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), &req)
	require.False(t, ok)
	require.Equal(t, "Invalid email address.", decodeBody(t, rec)["msg"])

	rec = httptest.NewRecorder()
	body = `{"email":"a@x.com","password":"123456","firstName":"A","lastName":"B"}`
	ok = decodeAndValidate(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), &req)
	require.True(t, ok)
	require.Equal(t, "a@x.com", req.Email)
}

func TestOriginChecker(t *testing.T) {
	withOrigin := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	open := originChecker(nil)
	require.True(t, open(withOrigin("https://evil.example")))

	wildcard := originChecker([]string{"https://app.example", "*"})
	require.True(t, wildcard(withOrigin("https://evil.example")))

	strict := originChecker([]string{"https://app.example"})
	require.True(t, strict(withOrigin("https://app.example")))
	require.True(t, strict(withOrigin("")))
	require.False(t, strict(withOrigin("https://evil.example")))
}

type membership map[string]bool

func (m membership) IsMember(_ context.Context, teamID, userID string) (bool, error) {
	return m[teamID+"/"+userID], nil
}

func TestWebSocketRejectsNonMembers(t *testing.T) {
	h := NewWebSocketHandler(models.NewHub(), membership{"t1/alice": true}, nil, logger.Nop())

	req := httptest.NewRequest(http.MethodGet, "/ws?team_id=t1", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), &usermodels.User{ID: "bob"}))
	rec := httptest.NewRecorder()
	h.HandleWebSocket(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "You are not a member of this team", decodeBody(t, rec)["error"])

	rec = httptest.NewRecorder()
	h.HandleWebSocket(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
