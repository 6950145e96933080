// PureSNMP-Go - SNMP client library for Go
// License: MIT
package puresnmp

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	ASNber "github.com/OlegPowerC/asn1modsnmp"
)

// AuthProvider implements one USM authentication protocol: RFC 3414
// password-to-key localization plus the truncated HMAC over the whole
// message. Providers are stateless; look them up by name in the static
// registry.
type AuthProvider struct {
	Name      string
	newHash   func() hash.Hash
	digestLen int
}

// Truncation lengths per RFC 3414 (MD5/SHA-1) and RFC 7860 (SHA-2).
var authRegistry = map[string]AuthProvider{
	"md5":    {Name: "md5", newHash: md5.New, digestLen: 12},
	"sha1":   {Name: "sha1", newHash: sha1.New, digestLen: 12},
	"sha224": {Name: "sha224", newHash: sha256.New224, digestLen: 16},
	"sha256": {Name: "sha256", newHash: sha256.New, digestLen: 24},
	"sha384": {Name: "sha384", newHash: sha512.New384, digestLen: 32},
	"sha512": {Name: "sha512", newHash: sha512.New, digestLen: 48},
}

func authProviderByName(name string) (AuthProvider, error) {
	p, ok := authRegistry[name]
	if !ok {
		return AuthProvider{}, fmt.Errorf("%w: %q", ErrUnknownAuthMethod, name)
	}
	return p, nil
}

// LocalizeKey derives the engine-bound key from a password (RFC 3414
// §2.6): hash a 1 MiB cyclic repetition of the password, then hash
// digest | engineID | digest.
func (p AuthProvider) LocalizeKey(password, engineID []byte) []byte {
	h := p.newHash()

	buf := make([]byte, 64)
	passIndex := 0
	for count := 0; count < 1048576; count += 64 {
		for i := range buf {
			buf[i] = password[passIndex%len(password)]
			passIndex++
		}
		h.Write(buf)
	}
	ku := h.Sum(nil)

	h.Reset()
	h.Write(ku)
	h.Write(engineID)
	h.Write(ku)
	return h.Sum(nil)
}

// Digest computes the truncated HMAC over the whole encoded message.
// The message must carry a zero-filled msgAuthenticationParameters
// field of the provider's digest length.
func (p AuthProvider) Digest(wholeMsg, localizedKey []byte) []byte {
	mac := hmac.New(p.newHash, localizedKey)
	mac.Write(wholeMsg)
	return mac.Sum(nil)[:p.digestLen]
}

// DigestLength is the size of the truncated digest on the wire.
func (p AuthProvider) DigestLength() int { return p.digestLen }

// VerifyPacket checks the digest of a received packet in place: it
// locates the msgAuthenticationParameters field in the raw bytes,
// zero-fills it on a copy and compares the recomputed HMAC against the
// received digest.
func (p AuthProvider) VerifyPacket(packet, digest, localizedKey []byte) error {
	offset, aplen, err := ASNber.FindSNMPv3AuthParamsOffset(packet)
	if err != nil {
		return AuthenticationError{Message: "cannot locate auth params", Cause: err}
	}
	if offset == 0 || offset+aplen > len(packet) {
		return AuthenticationError{Message: "auth params not found in packet"}
	}
	cp := make([]byte, len(packet))
	copy(cp, packet)
	for i := 0; i < aplen; i++ {
		cp[offset+i] = 0x00
	}
	if !hmac.Equal(p.Digest(cp, localizedKey), digest) {
		return AuthenticationError{Message: "message digest mismatch"}
	}
	return nil
}
