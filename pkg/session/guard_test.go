package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/regmap.go/pkg/register"
)

func TestPasswordFlow(t *testing.T) {
	secret := "abc123"
	g := NewGuard(&secret)
	require.Equal(t, None, g.Level())

	require.Equal(t, register.ErrBadPassword, g.CheckPassword("wrong"))
	require.Equal(t, None, g.Level())
	require.False(t, g.CanWrite(register.WriteProtected))
	require.False(t, g.CanRead(register.WriteProtected))

	require.NoError(t, g.CheckPassword("abc123"))
	require.Equal(t, Elevated, g.Level())
	require.True(t, g.CanWrite(register.WriteProtected))
	require.True(t, g.CanRead(register.ReadWriteProtected))

	g.Demote()
	require.Equal(t, None, g.Level())
	require.False(t, g.CanWrite(register.WriteProtected))
}

func TestPasswordReprovision(t *testing.T) {
	secret := "abc123"
	g := NewGuard(&secret)
	require.NoError(t, g.CheckPassword("abc123"))
	require.NoError(t, g.CheckPassword("n3w"))
	require.Equal(t, "n3w", secret)
	g.Reset()
	require.Equal(t, register.ErrBadPassword, g.CheckPassword("abc123"))
	require.NoError(t, g.CheckPassword("n3w"))
}

func TestPasswordTooLong(t *testing.T) {
	secret := "abc123"
	g := NewGuard(&secret)
	require.NoError(t, g.CheckPassword("abc123"))
	require.Equal(t, register.ErrBadValue, g.CheckPassword("0123456789abcdefghijk"))
	require.Equal(t, "abc123", secret)
}

func TestLongCandidateIsBadPassword(t *testing.T) {
	secret := "abc123"
	g := NewGuard(&secret)
	require.Equal(t, register.ErrBadPassword, g.CheckPassword("0123456789abcdefghijk"))
	require.Equal(t, None, g.Level())
}

func TestPermissions(t *testing.T) {
	secret := ""
	g := NewGuard(&secret)
	testCases := []struct {
		level       Level
		prot        register.Protection
		read, write bool
	}{
		{None, register.NoProtection, true, true},
		{None, register.WriteProtected, false, false},
		{None, register.ReadWriteProtected, false, false},
		{Elevated, register.NoProtection, true, true},
		{Elevated, register.WriteProtected, true, true},
		{Elevated, register.ReadWriteProtected, true, true},
	}
	for _, tc := range testCases {
		g.level = tc.level
		require.Equal(t, tc.read, g.CanRead(tc.prot), "read %s/%d", tc.level, tc.prot)
		require.Equal(t, tc.write, g.CanWrite(tc.prot), "write %s/%d", tc.level, tc.prot)
	}
}
