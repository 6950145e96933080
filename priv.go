// PureSNMP-Go - SNMP client library for Go
// License: MIT
package puresnmp

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync/atomic"
)

// PrivProvider implements one USM privacy protocol. Encrypt returns the
// ciphertext together with the msgPrivacyParameters (salt) that must
// travel in the message header; Decrypt needs the salt and the engine
// boots/time of the received message to rebuild the IV.
//
// Providers carry a per-instance salt counter, so one instance belongs
// to one session. The counter is seeded randomly and increments
// atomically; it wraps at its integer boundary, at which point salts
// repeat under the same key.
type PrivProvider interface {
	Name() string
	// ExtendKey derives the privacy key of the required length from the
	// localized key, extending it when the auth hash is too short.
	ExtendKey(localized []byte, auth AuthProvider, engineID []byte) ([]byte, error)
	Encrypt(plaintext, key []byte, boots, engineTime int32) (ciphertext, privParams []byte, err error)
	Decrypt(ciphertext, key, privParams []byte, boots, engineTime int32) ([]byte, error)
}

type privFactory func() PrivProvider

var privRegistry = map[string]privFactory{
	"des":     func() PrivProvider { return &desPriv{salt: rand.Uint32()} },
	"aes":     func() PrivProvider { return &aesPriv{name: "aes", keyLen: 16, salt: rand.Uint64()} },
	"aes192":  func() PrivProvider { return &aesPriv{name: "aes192", keyLen: 24, salt: rand.Uint64()} },
	"aes256":  func() PrivProvider { return &aesPriv{name: "aes256", keyLen: 32, salt: rand.Uint64()} },
	"aes192a": func() PrivProvider { return &aesPriv{name: "aes192a", keyLen: 24, agentpp: true, salt: rand.Uint64()} },
	"aes256a": func() PrivProvider { return &aesPriv{name: "aes256a", keyLen: 32, agentpp: true, salt: rand.Uint64()} },
}

func privProviderByName(name string) (PrivProvider, error) {
	f, ok := privRegistry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPrivMethod, name)
	}
	return f(), nil
}

// desPriv is DES-CBC per RFC 3414 §8. The localized key provides both
// the DES key (first 8 octets) and the pre-IV (next 8); the IV is the
// pre-IV XORed with the salt, and the salt itself is the privacy
// parameter on the wire.
type desPriv struct {
	salt uint32
}

func (*desPriv) Name() string { return "des" }

func (*desPriv) ExtendKey(localized []byte, _ AuthProvider, _ []byte) ([]byte, error) {
	if len(localized) < 16 {
		return nil, EncryptionError{Cause: fmt.Errorf("DES needs 16 localized key octets, have %d", len(localized))}
	}
	return localized[:16], nil
}

func (p *desPriv) Encrypt(plaintext, key []byte, boots, _ int32) ([]byte, []byte, error) {
	if len(key) < 16 {
		return nil, nil, EncryptionError{Cause: fmt.Errorf("short DES key")}
	}
	salt := make([]byte, 8)
	binary.BigEndian.PutUint32(salt[:4], uint32(boots))
	binary.BigEndian.PutUint32(salt[4:], atomic.AddUint32(&p.salt, 1))

	iv := make([]byte, 8)
	preIV := key[8:16]
	for i := range iv {
		iv[i] = preIV[i] ^ salt[i]
	}

	block, err := des.NewCipher(key[:8])
	if err != nil {
		return nil, nil, EncryptionError{Cause: err}
	}
	padded := padBlock(plaintext, block.BlockSize())
	ct := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)
	return ct, salt, nil
}

func (*desPriv) Decrypt(ciphertext, key, privParams []byte, _, _ int32) ([]byte, error) {
	if len(key) < 16 {
		return nil, DecryptionError{Cause: fmt.Errorf("short DES key")}
	}
	if len(privParams) != 8 {
		return nil, DecryptionError{Cause: fmt.Errorf("DES salt must be 8 octets, got %d", len(privParams))}
	}
	if len(ciphertext) == 0 || len(ciphertext)%8 != 0 {
		return nil, DecryptionError{Cause: fmt.Errorf("ciphertext length %d not a multiple of the DES block", len(ciphertext))}
	}
	iv := make([]byte, 8)
	preIV := key[8:16]
	for i := range iv {
		iv[i] = preIV[i] ^ privParams[i]
	}
	block, err := des.NewCipher(key[:8])
	if err != nil {
		return nil, DecryptionError{Cause: err}
	}
	pt := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(pt, ciphertext)
	if len(pt) == 0 {
		return nil, DecryptionError{Cause: fmt.Errorf("empty plaintext")}
	}
	return pt, nil
}

// aesPriv is AES-CFB128 per RFC 3826, extended to 192/256-bit keys.
// The IV is boots | engineTime | salt64; only the salt travels on the
// wire, the peer rebuilds the rest from the message header.
type aesPriv struct {
	name    string
	keyLen  int
	agentpp bool
	salt    uint64
}

func (p *aesPriv) Name() string { return p.name }

func (p *aesPriv) ExtendKey(localized []byte, auth AuthProvider, engineID []byte) ([]byte, error) {
	if len(localized) >= p.keyLen {
		return localized[:p.keyLen], nil
	}
	out := make([]byte, p.keyLen)
	copy(out, localized)
	if p.agentpp {
		// Agent++/Huawei scheme: append octets of hash(key)
		h := auth.newHash()
		h.Write(localized)
		ext := h.Sum(nil)
		need := p.keyLen - len(localized)
		if need > len(ext) {
			need = len(ext)
		}
		copy(out[len(localized):], ext[:need])
		return out, nil
	}
	// standard scheme: localize the key itself once more
	ext := auth.LocalizeKey(localized, engineID)
	need := p.keyLen - len(localized)
	if need > len(ext) {
		need = len(ext)
	}
	copy(out[len(localized):], ext[:need])
	return out, nil
}

func (p *aesPriv) iv(boots, engineTime int32, salt []byte) []byte {
	iv := make([]byte, 16)
	binary.BigEndian.PutUint32(iv[0:4], uint32(boots))
	binary.BigEndian.PutUint32(iv[4:8], uint32(engineTime))
	copy(iv[8:], salt)
	return iv
}

func (p *aesPriv) Encrypt(plaintext, key []byte, boots, engineTime int32) ([]byte, []byte, error) {
	if len(plaintext) == 0 {
		return nil, nil, EncryptionError{Cause: fmt.Errorf("empty plaintext")}
	}
	if len(key) != p.keyLen {
		return nil, nil, EncryptionError{Cause: fmt.Errorf("AES key must be %d octets, got %d", p.keyLen, len(key))}
	}
	salt := make([]byte, 8)
	binary.BigEndian.PutUint64(salt, atomic.AddUint64(&p.salt, 1))

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, EncryptionError{Cause: err}
	}
	ct := make([]byte, len(plaintext))
	cipher.NewCFBEncrypter(block, p.iv(boots, engineTime, salt)).XORKeyStream(ct, plaintext)
	return ct, salt, nil
}

func (p *aesPriv) Decrypt(ciphertext, key, privParams []byte, boots, engineTime int32) ([]byte, error) {
	if len(ciphertext) == 0 {
		return nil, DecryptionError{Cause: fmt.Errorf("empty ciphertext")}
	}
	if len(key) != p.keyLen {
		return nil, DecryptionError{Cause: fmt.Errorf("AES key must be %d octets, got %d", p.keyLen, len(key))}
	}
	if len(privParams) != 8 {
		return nil, DecryptionError{Cause: fmt.Errorf("AES salt must be 8 octets, got %d", len(privParams))}
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, DecryptionError{Cause: err}
	}
	pt := make([]byte, len(ciphertext))
	cipher.NewCFBDecrypter(block, p.iv(boots, engineTime, privParams)).XORKeyStream(pt, ciphertext)
	if len(pt) == 0 {
		return nil, DecryptionError{Cause: fmt.Errorf("empty plaintext")}
	}
	return pt, nil
}

// padBlock pads to the block size with zero octets. Block-aligned input
// passes through untouched; the BER length inside the plaintext makes
// the trailing pad octets harmless on decode.
func padBlock(src []byte, blockSize int) []byte {
	rem := len(src) % blockSize
	if rem == 0 {
		return src
	}
	return append(src, make([]byte, blockSize-rem)...)
}
