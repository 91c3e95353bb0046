package rawsql

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNullLimiter(t *testing.T) {
	l := &nullLimiter{}
	require.False(t, l.LimitReached(1000000))
}

func TestMaxRows(t *testing.T) {
	l := MaxRows(2)
	require.False(t, l.LimitReached(1))
	require.False(t, l.LimitReached(2))
	require.True(t, l.LimitReached(3))
}
