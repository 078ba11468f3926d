// Package cryptox implements the cipher service guarding memory plaintext:
// AES-GCM encryption into self-describing tokens, argon2id key derivation,
// and key-material lifecycle (see keyring.go).
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/zynoxlab/zynox-cloud/internal/common"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// tokenVersion identifies the token layout: version byte || nonce || ciphertext.
const tokenVersion = 0x01

// ErrDecryptionFailed is returned when a ciphertext token is malformed, was
// produced under a different key, or failed authentication. Bulk scans
// should treat it as "skip this record"; single-record reads should surface
// it as a server-side fault.
var ErrDecryptionFailed = errors.New("decryption failed")

// Cipher encrypts and decrypts memory payloads with a single symmetric key.
// Construct one explicitly and inject it; there is no package-level instance.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a Cipher from a 32-byte AES key.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid key length %d, want %d", len(key), KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce and returns an opaque
// base64url token carrying the layout version, the nonce and the
// authenticated ciphertext. Decryption needs nothing besides the token and
// the key.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := common.GenerateRandByteArray(c.aead.NonceSize())

	buf := make([]byte, 0, 1+len(nonce)+len(plaintext)+c.aead.Overhead())
	buf = append(buf, tokenVersion)
	buf = append(buf, nonce...)
	buf = c.aead.Seal(buf, nonce, []byte(plaintext), nil)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Decrypt opens a token produced by Encrypt. Any malformed input, version
// mismatch, key mismatch or tamper yields an error wrapping
// ErrDecryptionFailed.
func (c *Cipher) Decrypt(token string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: bad encoding: %v", ErrDecryptionFailed, err)
	}
	if len(raw) < 1+c.aead.NonceSize() {
		return "", fmt.Errorf("%w: token too short", ErrDecryptionFailed)
	}
	if raw[0] != tokenVersion {
		return "", fmt.Errorf("%w: unknown token version %d", ErrDecryptionFailed, raw[0])
	}

	nonce := raw[1 : 1+c.aead.NonceSize()]
	ciphertext := raw[1+c.aead.NonceSize():]

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return string(plaintext), nil
}

// DeriveMasterKey stretches a password into a 32-byte key with argon2id.
// The same password and salt always yield the same key.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, KeySize)
}
