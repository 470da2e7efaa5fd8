package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPasswordBounds(t *testing.T) {
	require.Error(t, ValidatePassword("short"))
	require.NoError(t, ValidatePassword("contraseña"))
	require.ErrorIs(t, ValidatePassword(strings.Repeat("a", 73)), ErrPasswordTooLong)

	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	require.True(t, CheckPassword(hash, "correct horse"))
	require.False(t, CheckPassword(hash, "correct horsE"))

	_, err = HashPassword(strings.Repeat("a", 73))
	require.ErrorIs(t, err, ErrPasswordTooLong)
}
