package netstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeName(t *testing.T) {
	assert.Equal(t, "global", ScopeName(0))
	assert.Equal(t, "link", ScopeName(253))
	assert.Equal(t, "host", ScopeName(254))
	assert.Equal(t, "nowhere", ScopeName(255))
	// unnamed codes round-trip as decimal
	assert.Equal(t, "200", ScopeName(200))
}

func TestScopeCode(t *testing.T) {
	for name, want := range map[string]uint8{
		"":        0,
		"global":  0,
		"link":    253,
		"host":    254,
		"nowhere": 255,
		"200":     200,
	} {
		got, err := ScopeCode(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ScopeCode("galactic")
	assert.Error(t, err)
	_, err = ScopeCode("300")
	assert.Error(t, err)
	_, err = ScopeCode("-1")
	assert.Error(t, err)
}

func TestScopeRoundTrip(t *testing.T) {
	for _, code := range []uint8{0, 200, 253, 254, 255} {
		got, err := ScopeCode(ScopeName(code))
		require.NoError(t, err)
		assert.Equal(t, code, got)
	}
}
