// Package services holds session handling for connected storage credentials.
package services

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// SessionKeySize is the AES-256 key length required for session sealing.
const SessionKeySize = 32

var (
	ErrMalformedSession = errors.New("malformed session")
	ErrMissingEndpoint  = errors.New("endpoint is required")
	ErrMissingKeys      = errors.New("access key and secret key are required")
)

// Credentials are the storage connection details a session carries.
type Credentials struct {
	Driver       string `json:"driver,omitempty"`
	Endpoint     string `json:"endpoint"`
	Region       string `json:"region,omitempty"`
	AccessKey    string `json:"accessKey"`
	SecretKey    string `json:"secretKey"`
	SessionToken string `json:"sessionToken,omitempty"` // For STS/OIDC
}

// Validate checks the fields every driver needs. The s3 driver may omit the
// endpoint to target AWS itself.
func (c Credentials) Validate() error {
	if c.Endpoint == "" && c.Driver != "s3" {
		return ErrMissingEndpoint
	}
	if c.AccessKey == "" || c.SecretKey == "" {
		return ErrMissingKeys
	}
	return nil
}

// Empty reports whether no connection details are set at all.
func (c Credentials) Empty() bool {
	return c.Endpoint == "" && c.AccessKey == "" && c.SecretKey == ""
}

// String hides the secret so credentials are safe to log.
func (c Credentials) String() string {
	driver := c.Driver
	if driver == "" {
		driver = "minio"
	}
	return fmt.Sprintf("%s://%s@%s", driver, c.AccessKey, c.Endpoint)
}

// AuthService seals credentials into an opaque session token and back.
type AuthService struct {
	encryptionKey []byte
}

// NewAuthService creates an auth service from a configured key. An empty key
// generates an ephemeral one, so sessions do not survive a restart.
func NewAuthService(key string, logger *zap.Logger) (*AuthService, error) {
	if key == "" {
		newKey := make([]byte, SessionKeySize)
		if _, err := io.ReadFull(rand.Reader, newKey); err != nil {
			return nil, fmt.Errorf("generate session key: %w", err)
		}
		if logger != nil {
			logger.Warn("session.key not set; using an ephemeral key")
		}
		return &AuthService{encryptionKey: newKey}, nil
	}
	if len(key) != SessionKeySize {
		return nil, fmt.Errorf("session key must be %d bytes, got %d", SessionKeySize, len(key))
	}
	return &AuthService{encryptionKey: []byte(key)}, nil
}

// EncryptCredentials serializes and encrypts credentials into a cookie value.
func (s *AuthService) EncryptCredentials(creds Credentials) (string, error) {
	data, err := json.Marshal(creds)
	if err != nil {
		return "", err
	}

	gcm, err := s.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, data, nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// DecryptCredentials opens a cookie value produced by EncryptCredentials.
func (s *AuthService) DecryptCredentials(encrypted string) (*Credentials, error) {
	sealed, err := base64.URLEncoding.DecodeString(strings.TrimSpace(encrypted))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSession, err)
	}

	gcm, err := s.aead()
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, ErrMalformedSession
	}

	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSession, err)
	}

	var creds Credentials
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSession, err)
	}
	return &creds, nil
}

func (s *AuthService) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
