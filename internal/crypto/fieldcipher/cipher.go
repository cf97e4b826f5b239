// Package fieldcipher implements authenticated encryption for individual
// sensitive string fields (contact email, phone). Ciphertext is printable and
// self-authenticating, suitable for storage in a text column.
package fieldcipher

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/chacha20poly1305"
)

func randBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// KeyLen is the required encryption key length in bytes.
const KeyLen = chacha20poly1305.KeySize

// Cipher encrypts and decrypts field values with a single process-wide key.
// The key is immutable after construction; Cipher is safe for concurrent use.
type Cipher struct {
	key []byte
	log *zap.Logger
}

// New constructs a Cipher. The key must be exactly KeyLen bytes.
func New(key []byte, log *zap.Logger) (*Cipher, error) {
	if len(key) != KeyLen {
		return nil, fmt.Errorf("fieldcipher: key must be %d bytes, got %d", KeyLen, len(key))
	}
	if log == nil {
		log = zap.NewNop()
	}
	k := make([]byte, KeyLen)
	copy(k, key)
	return &Cipher{key: k, log: log}, nil
}

// Encrypt seals plaintext with XChaCha20-Poly1305 and returns
// base64(nonce || ciphertext). Empty input is returned unchanged: absent
// values are not wrapped.
func (c *Cipher) Encrypt(plaintext string) string {
	if plaintext == "" {
		return ""
	}
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		// key length is checked in New; this cannot happen at runtime
		c.log.Warn("field encryption failed", zap.Error(err))
		return plaintext
	}
	nonce, err := randBytes(chacha20poly1305.NonceSizeX)
	if err != nil {
		c.log.Warn("field encryption failed", zap.Error(err))
		return plaintext
	}
	out := make([]byte, 0, len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, nonce...)
	out = append(out, aead.Seal(nil, nonce, []byte(plaintext), nil)...)
	return base64.StdEncoding.EncodeToString(out)
}

// Decrypt reverses Encrypt. It never surfaces an error: malformed, foreign,
// or tampered input is returned unchanged and logged at Warn, so a read path
// degrades to showing the stored value instead of failing.
func (c *Cipher) Decrypt(ciphertext string) string {
	if ciphertext == "" {
		return ""
	}
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		c.log.Warn("field decryption failed: not base64", zap.Error(err))
		return ciphertext
	}
	if len(raw) < chacha20poly1305.NonceSizeX {
		c.log.Warn("field decryption failed: input too short")
		return ciphertext
	}
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		c.log.Warn("field decryption failed", zap.Error(err))
		return ciphertext
	}
	nonce := raw[:chacha20poly1305.NonceSizeX]
	ct := raw[chacha20poly1305.NonceSizeX:]
	plain, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		c.log.Warn("field decryption failed: authentication error", zap.Error(err))
		return ciphertext
	}
	return string(plain)
}
