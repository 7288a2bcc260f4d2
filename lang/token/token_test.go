package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	for k := Kind(0); k < maxKind; k++ {
		if k.String() == "" {
			t.Errorf("missing string representation of kind %d", k)
		}
	}
}

func TestLookupKw(t *testing.T) {
	for k := Kind(0); k < maxKind; k++ {
		expect := k >= kwStart && k <= kwEnd
		val := LookupKw(k.String())
		if expect {
			require.Equal(t, k, val)
		} else {
			require.Equal(t, IDENT, val)
		}
	}
	require.Equal(t, IDENT, LookupKw("foo"))
	require.Equal(t, IDENT, LookupKw("Trace"))
}

func TestLookupPunct(t *testing.T) {
	for k := Kind(0); k < maxKind; k++ {
		expect := k >= punctStart && k <= punctEnd
		val := LookupPunct(k.String())
		if expect {
			require.Equal(t, k, val)
		} else {
			require.Equal(t, ILLEGAL, val)
		}
	}
}

func TestIsAugAssign(t *testing.T) {
	for k := Kind(0); k < maxKind; k++ {
		expect := k >= augopStart && k <= augopEnd
		require.Equal(t, expect, k.IsAugAssign(), "kind %s", k)
	}
}

func TestGoString(t *testing.T) {
	require.Equal(t, "'+='", PLUS_EQ.GoString())
	require.Equal(t, "'('", LPAREN.GoString())
	require.Equal(t, "identifier", IDENT.GoString())
	require.Equal(t, "while", WHILE.GoString())
}
