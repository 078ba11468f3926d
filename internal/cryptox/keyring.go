package cryptox

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zynoxlab/zynox-cloud/internal/common"
	"github.com/zynoxlab/zynox-cloud/internal/filex"
)

// Environment variables consulted for key material, in order of precedence.
const (
	EnvMasterKey      = "ZYNX_MASTER_KEY"      // base64 of a 32-byte key
	EnvMasterPassword = "ZYNX_MASTER_PASSWORD" // passphrase, argon2id-derived
)

const (
	keyFileName  = "secret.key"
	saltFileName = "secret.salt"
	saltSize     = 16
)

// KeySource reports where the master key came from.
type KeySource string

const (
	SourceEnv       KeySource = "env"
	SourcePassword  KeySource = "password"
	SourceFile      KeySource = "file"
	SourceGenerated KeySource = "generated"
)

// LoadOrCreateKey resolves the process-wide master key. Precedence:
//
//  1. ZYNX_MASTER_KEY: base64-encoded 32-byte key.
//  2. ZYNX_MASTER_PASSWORD: argon2id-derived; the salt is persisted in the
//     data directory so the derivation is stable across restarts.
//  3. An existing key file in the data directory.
//  4. A freshly generated key, persisted with owner-only permissions.
//
// There is no rotation path: replacing the key orphans every ciphertext
// written under the old one.
func LoadOrCreateKey(dataDir string) ([]byte, KeySource, error) {
	if encoded := os.Getenv(EnvMasterKey); encoded != "" {
		key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
		if err != nil {
			return nil, "", fmt.Errorf("%s is not valid base64: %w", EnvMasterKey, err)
		}
		if len(key) != KeySize {
			return nil, "", fmt.Errorf("%s decodes to %d bytes, want %d", EnvMasterKey, len(key), KeySize)
		}
		return key, SourceEnv, nil
	}

	dir, err := filex.EnsureDir(dataDir)
	if err != nil {
		return nil, "", err
	}

	if password := os.Getenv(EnvMasterPassword); password != "" {
		salt, err := loadOrCreateSalt(filepath.Join(dir, saltFileName))
		if err != nil {
			return nil, "", err
		}
		return DeriveMasterKey([]byte(password), salt), SourcePassword, nil
	}

	keyPath := filepath.Join(dir, keyFileName)
	if data, err := os.ReadFile(keyPath); err == nil {
		key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, "", fmt.Errorf("key file %s is not valid base64: %w", keyPath, err)
		}
		if len(key) != KeySize {
			return nil, "", fmt.Errorf("key file %s decodes to %d bytes, want %d", keyPath, len(key), KeySize)
		}
		return key, SourceFile, nil
	} else if !os.IsNotExist(err) {
		return nil, "", fmt.Errorf("read key file: %w", err)
	}

	key := common.GenerateRandByteArray(KeySize)
	encoded := base64.StdEncoding.EncodeToString(key)
	if err := filex.WriteSecret(keyPath, []byte(encoded)); err != nil {
		return nil, "", err
	}
	return key, SourceGenerated, nil
}

func loadOrCreateSalt(path string) ([]byte, error) {
	if data, err := os.ReadFile(path); err == nil {
		salt, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("salt file %s is not valid base64: %w", path, err)
		}
		return salt, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read salt file: %w", err)
	}

	salt := common.GenerateRandByteArray(saltSize)
	if err := filex.WriteSecret(path, []byte(base64.StdEncoding.EncodeToString(salt))); err != nil {
		return nil, err
	}
	return salt, nil
}
