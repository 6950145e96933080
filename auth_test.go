// PureSNMP-Go - SNMP client library for Go
// License: MIT
package puresnmp

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Key localization vectors from RFC 3414 appendix A.3.
func TestLocalizeKeyVectors(t *testing.T) {
	engineID := []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 2}

	tests := []struct {
		method string
		want   string
	}{
		{"md5", "526f5eed9fcce26f8964c2930787d82b"},
		{"sha1", "6695febc9288e36282235fc7151f128497b38f3f"},
	}
	for _, tc := range tests {
		t.Run(tc.method, func(t *testing.T) {
			p, err := authProviderByName(tc.method)
			require.NoError(t, err)
			got := p.LocalizeKey([]byte("maplesyrup"), engineID)
			assert.Equal(t, tc.want, hex.EncodeToString(got))
		})
	}
}

func TestDigestLengths(t *testing.T) {
	tests := []struct {
		method string
		want   int
	}{
		{"md5", 12},
		{"sha1", 12},
		{"sha224", 16},
		{"sha256", 24},
		{"sha384", 32},
		{"sha512", 48},
	}
	for _, tc := range tests {
		p, err := authProviderByName(tc.method)
		require.NoError(t, err)
		assert.Equal(t, tc.want, p.DigestLength(), tc.method)
		assert.Len(t, p.Digest([]byte("payload"), []byte("0123456789abcdef")), tc.want, tc.method)
	}
}

func TestAuthProviderUnknown(t *testing.T) {
	_, err := authProviderByName("sha3")
	assert.ErrorIs(t, err, ErrUnknownAuthMethod)
}
