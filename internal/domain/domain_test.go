package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestNodeConnectTokenRoundTrip reproduces spec.md §8's round-trip law:
// NodeConnectTokenFromBytes(t.Bytes()) == (t, true) for every 16-byte token.
func TestNodeConnectTokenRoundTrip(t *testing.T) {
	tokens := []NodeConnectToken{
		{},
		{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
	}

	for _, want := range tokens {
		got, ok := NodeConnectTokenFromBytes(want.Bytes())
		require.True(t, ok)
		require.Equal(t, want, got)
	}
}

// TestNodeConnectTokenFromBytesLength asserts ok is false iff len(v) != 16.
func TestNodeConnectTokenFromBytesLength(t *testing.T) {
	cases := []struct {
		name string
		n    int
	}{
		{"empty", 0},
		{"one_short", 15},
		{"exact", 16},
		{"one_over", 17},
		{"much_longer", 64},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := make([]byte, tc.n)
			for i := range v {
				v[i] = byte(i)
			}

			token, ok := NodeConnectTokenFromBytes(v)
			if tc.n == 16 {
				require.True(t, ok)
				require.Equal(t, v, token.Bytes())
			} else {
				require.False(t, ok)
				require.Equal(t, NodeConnectToken{}, token)
			}
		})
	}
}
