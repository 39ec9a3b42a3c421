package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nikhil/sharenet/internal/apperrors"
	"github.com/nikhil/sharenet/internal/logger"
	"github.com/nikhil/sharenet/internal/store/sqlstore/sqlstoretest"
	"github.com/nikhil/sharenet/pkg/utils"
)

func newService(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(sqlstoretest.New(t), utils.NewTokenIssuer("test-secret", time.Hour), logger.Nop())
}

func TestSignupLoginAuthenticate(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	user, token, err := s.Signup(ctx, SignupInput{Email: " Bob@X.com ", Password: "password1", FirstName: "Bob", LastName: "Jones"})
	require.NoError(t, err)
	require.Equal(t, "bob@x.com", user.Email)
	require.NotEqual(t, "password1", user.PasswordHash)
	require.NotEmpty(t, token)

	_, _, err = s.Signup(ctx, SignupInput{Email: "bob@x.com", Password: "password2", FirstName: "B", LastName: "J"})
	require.ErrorIs(t, err, apperrors.ErrValidation)

	token, logged, err := s.Login(ctx, "BOB@x.com", "password1")
	require.NoError(t, err)
	require.Equal(t, user.ID, logged.ID)

	current, err := s.Authenticate(ctx, token)
	require.NoError(t, err)
	require.Equal(t, user.ID, current.ID)
}

func TestLoginFailures(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	_, _, err := s.Signup(ctx, SignupInput{Email: "bob@x.com", Password: "password1", FirstName: "Bob", LastName: "Jones"})
	require.NoError(t, err)

	_, _, err = s.Login(ctx, "bob@x.com", "wrong")
	require.ErrorIs(t, err, apperrors.ErrAuth)
	_, _, err = s.Login(ctx, "nobody@x.com", "password1")
	require.ErrorIs(t, err, apperrors.ErrAuth)

	_, err = s.Authenticate(ctx, "garbage")
	require.ErrorIs(t, err, apperrors.ErrAuth)

	orphan, err := s.Tokens.GenerateJWT("deleted-user", "gone@x.com")
	require.NoError(t, err)
	_, err = s.Authenticate(ctx, orphan)
	require.ErrorIs(t, err, apperrors.ErrAuth)
}
