// Package secrets encrypts investor-only MT5 credentials at rest.
// The credential is write-only: it is encrypted on the way into the database
// and never included in any API response.
package secrets

import (
	"fmt"

	"github.com/fernet/fernet-go"
)

// Encryptor wraps a fernet key.
type Encryptor struct {
	key *fernet.Key
}

// NewEncryptor creates an Encryptor from a base64-encoded fernet key.
func NewEncryptor(encodedKey string) (*Encryptor, error) {
	key, err := fernet.DecodeKey(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("invalid fernet key: %w", err)
	}
	return &Encryptor{key: key}, nil
}

// GenerateKey creates a new random fernet key, encoded for storage in config.
func GenerateKey() (string, error) {
	var key fernet.Key
	if err := key.Generate(); err != nil {
		return "", fmt.Errorf("failed to generate fernet key: %w", err)
	}
	return key.Encode(), nil
}

// Encrypt returns the fernet token for a plaintext credential.
// Empty credentials pass through untouched.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	token, err := fernet.EncryptAndSign([]byte(plaintext), e.key)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt credential: %w", err)
	}
	return string(token), nil
}

// Decrypt verifies and decrypts a fernet token. A zero TTL means tokens never
// expire; credentials stay valid until rotated.
func (e *Encryptor) Decrypt(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	msg := fernet.VerifyAndDecrypt([]byte(token), 0, []*fernet.Key{e.key})
	if msg == nil {
		return "", fmt.Errorf("failed to decrypt credential")
	}
	return string(msg), nil
}
