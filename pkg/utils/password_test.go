package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	hashed, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-pass", hashed)
	require.NoError(t, CheckPassword(hashed, "s3cret-pass"))
	require.Error(t, CheckPassword(hashed, "wrong"))
}
