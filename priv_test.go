// PureSNMP-Go - SNMP client library for Go
// License: MIT
package puresnmp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEngineID = []byte{0x80, 0x00, 0x1f, 0x88, 0x80, 0xe9, 0x63, 0x00, 0x00, 0x53, 0xe3, 0x03}

func testPrivKey(t *testing.T, method string) (PrivProvider, []byte) {
	t.Helper()
	priv, err := privProviderByName(method)
	require.NoError(t, err)
	auth, err := authProviderByName("sha1")
	require.NoError(t, err)
	base := auth.LocalizeKey([]byte("privpassword"), testEngineID)
	key, err := priv.ExtendKey(base, auth, testEngineID)
	require.NoError(t, err)
	return priv, key
}

func TestPrivRoundTrip(t *testing.T) {
	plaintexts := [][]byte{
		[]byte("exactly sixteen!"),
		[]byte("short"),
		[]byte("a plaintext that is not aligned to any cipher block size at all..."),
	}
	for _, method := range []string{"des", "aes", "aes192", "aes256", "aes192a", "aes256a"} {
		t.Run(method, func(t *testing.T) {
			priv, key := testPrivKey(t, method)
			for _, pt := range plaintexts {
				ct, salt, err := priv.Encrypt(append([]byte(nil), pt...), key, 7, 12345)
				require.NoError(t, err)
				require.NotEmpty(t, salt)
				assert.False(t, bytes.Contains(ct, pt), "ciphertext leaks plaintext")

				got, err := priv.Decrypt(ct, key, salt, 7, 12345)
				require.NoError(t, err)
				// block ciphers may keep their padding; the prefix must survive
				require.GreaterOrEqual(t, len(got), len(pt))
				assert.Equal(t, pt, got[:len(pt)])
			}
		})
	}
}

func TestPrivSaltAdvances(t *testing.T) {
	priv, key := testPrivKey(t, "aes")
	_, salt1, err := priv.Encrypt([]byte("some scoped pdu"), key, 1, 2)
	require.NoError(t, err)
	_, salt2, err := priv.Encrypt([]byte("some scoped pdu"), key, 1, 2)
	require.NoError(t, err)
	assert.NotEqual(t, salt1, salt2)
}

func TestExtendKeyLengths(t *testing.T) {
	auth, err := authProviderByName("md5")
	require.NoError(t, err)
	base := auth.LocalizeKey([]byte("privpassword"), testEngineID)
	require.Len(t, base, 16)

	tests := []struct {
		method string
		want   int
	}{
		{"des", 16},
		{"aes", 16},
		{"aes192", 24},
		{"aes256", 32},
		{"aes192a", 24},
		{"aes256a", 32},
	}
	for _, tc := range tests {
		priv, err := privProviderByName(tc.method)
		require.NoError(t, err)
		key, err := priv.ExtendKey(base, auth, testEngineID)
		require.NoError(t, err, tc.method)
		assert.Len(t, key, tc.want, tc.method)
		// the extension must keep the localized prefix
		assert.Equal(t, base[:min(len(base), tc.want)], key[:min(len(base), tc.want)], tc.method)
	}
}

func TestDesPadsWithZeroOctets(t *testing.T) {
	priv, key := testPrivKey(t, "des")
	pt := []byte("short")
	ct, salt, err := priv.Encrypt(append([]byte(nil), pt...), key, 3, 4)
	require.NoError(t, err)
	require.Len(t, ct, 8)

	got, err := priv.Decrypt(ct, key, salt, 3, 4)
	require.NoError(t, err)
	require.Len(t, got, 8)
	assert.Equal(t, pt, got[:len(pt)])
	assert.Equal(t, []byte{0, 0, 0}, got[len(pt):])
}

func TestDesRejectsShortKey(t *testing.T) {
	priv, err := privProviderByName("des")
	require.NoError(t, err)
	_, err = priv.ExtendKey(make([]byte, 8), AuthProvider{}, testEngineID)
	var encErr EncryptionError
	assert.ErrorAs(t, err, &encErr)
}

func TestDesRejectsRaggedCiphertext(t *testing.T) {
	priv, key := testPrivKey(t, "des")
	_, err := priv.Decrypt([]byte{1, 2, 3}, key, make([]byte, 8), 0, 0)
	var decErr DecryptionError
	assert.ErrorAs(t, err, &decErr)
}
