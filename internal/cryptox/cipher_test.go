package cryptox

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zynoxlab/zynox-cloud/internal/common"
)

func newTestCipher(t *testing.T) *Cipher {
	t.Helper()
	c, err := NewCipher(common.GenerateRandByteArray(KeySize))
	require.NoError(t, err)
	return c
}

func TestNewCipher_RejectsBadKeyLength(t *testing.T) {
	for _, n := range []int{0, 16, 31, 33, 64} {
		_, err := NewCipher(make([]byte, n))
		require.Error(t, err, "key length %d must be rejected", n)
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	c := newTestCipher(t)

	for _, plaintext := range []string{
		"",
		"I feel so lonely today",
		strings.Repeat("long memory ", 1024),
		"ünïcödé ✓ 记忆",
	} {
		token, err := c.Encrypt(plaintext)
		require.NoError(t, err)

		got, err := c.Decrypt(token)
		require.NoError(t, err)
		require.Equal(t, plaintext, got)
	}
}

func TestEncrypt_NonDeterministic(t *testing.T) {
	c := newTestCipher(t)

	t1, err := c.Encrypt("same text")
	require.NoError(t, err)
	t2, err := c.Encrypt("same text")
	require.NoError(t, err)
	require.NotEqual(t, t1, t2, "fresh nonce per encryption")
}

func TestDecrypt_TamperDetection(t *testing.T) {
	c := newTestCipher(t)

	token, err := c.Encrypt("integrity matters")
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)

	// Flipping any single byte must fail authentication, never return
	// corrupted plaintext.
	for i := range raw {
		mutated := bytes.Clone(raw)
		mutated[i] ^= 0x01
		_, err := c.Decrypt(base64.RawURLEncoding.EncodeToString(mutated))
		require.Error(t, err, "byte %d flipped", i)
		require.ErrorIs(t, err, ErrDecryptionFailed)
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	a := newTestCipher(t)
	b := newTestCipher(t)

	token, err := a.Encrypt("secret")
	require.NoError(t, err)

	_, err = b.Decrypt(token)
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecrypt_MalformedTokens(t *testing.T) {
	c := newTestCipher(t)

	for name, token := range map[string]string{
		"empty":       "",
		"not base64":  "!!!not-base64!!!",
		"too short":   base64.RawURLEncoding.EncodeToString([]byte{tokenVersion, 1, 2}),
		"bad version": base64.RawURLEncoding.EncodeToString(append([]byte{0x7f}, make([]byte, 40)...)),
	} {
		_, err := c.Decrypt(token)
		require.Error(t, err, name)
		require.True(t, errors.Is(err, ErrDecryptionFailed), name)
	}
}

func TestDeriveMasterKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveMasterKey(password, salt)
	key2 := DeriveMasterKey(password, salt)
	require.Equal(t, key1, key2, "same inputs must derive the same key")
	require.Len(t, key1, KeySize)
}

func TestDeriveMasterKey_DifferentSalts(t *testing.T) {
	password := []byte("secret-password")

	key1 := DeriveMasterKey(password, []byte("salt-1"))
	key2 := DeriveMasterKey(password, []byte("salt-2"))
	require.NotEqual(t, key1, key2, "different salts must derive different keys")
}
