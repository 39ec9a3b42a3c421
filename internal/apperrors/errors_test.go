package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("send invite: %w", DuplicateInvite("This email has already been invited."))

	require.ErrorIs(t, err, ErrDuplicateInvite)
	require.NotErrorIs(t, err, ErrAlreadyMember)
	require.Equal(t, KindDuplicateInvite, KindOf(err))
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{DuplicateInvite("dup"), http.StatusBadRequest},
		{AlreadyMember("member"), http.StatusBadRequest},
		{InvalidRole("role"), http.StatusBadRequest},
		{InvalidType("type"), http.StatusBadRequest},
		{Auth("token"), http.StatusUnauthorized},
		{Forbidden("admin"), http.StatusForbidden},
		{Store("insert team", errors.New("boom")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestStoreErrorsHideCause(t *testing.T) {
	err := Store("load team", errors.New("dial tcp: refused"))
	require.ErrorIs(t, err, ErrStore)
	require.Equal(t, "Something went wrong", PublicMessage(err))
	require.Nil(t, Store("noop", nil))
}
