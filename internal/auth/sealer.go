package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// sealedPrefix marks values produced by Seal so plaintext rows written before a
// key was configured can still be read.
const sealedPrefix = "enc:v1:"

// ErrSealKeyMissing is returned when a sealed value is read without a key.
var ErrSealKeyMissing = errors.New("auth: sealed value but no encryption key configured")

// Sealer encrypts provider access tokens before they reach the user store.
//
// The stored form is sealedPrefix + base64(nonce || ciphertext), using
// XChaCha20-Poly1305 so random 24-byte nonces are safe. A Sealer built from an
// empty key is a pass-through.
type Sealer struct {
	key []byte
}

// NewSealer derives a 32-byte key from passphrase with SHA-256.
func NewSealer(passphrase string) *Sealer {
	if passphrase == "" {
		return &Sealer{}
	}
	sum := sha256.Sum256([]byte(passphrase))
	return &Sealer{key: sum[:]}
}

// Enabled reports whether values are actually encrypted.
func (s *Sealer) Enabled() bool {
	return len(s.key) > 0
}

// Seal encrypts plaintext. Empty input stays empty.
func (s *Sealer) Seal(plaintext string) (string, error) {
	if plaintext == "" || !s.Enabled() {
		return plaintext, nil
	}

	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", fmt.Errorf("auth: creating cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("auth: generating nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. Values without the sealed prefix are returned unchanged.
func (s *Sealer) Open(stored string) (string, error) {
	if !strings.HasPrefix(stored, sealedPrefix) {
		return stored, nil
	}
	if !s.Enabled() {
		return "", ErrSealKeyMissing
	}

	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(stored, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("auth: decoding sealed value: %w", err)
	}

	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", fmt.Errorf("auth: creating cipher: %w", err)
	}
	if len(raw) < aead.NonceSize() {
		return "", errors.New("auth: sealed value too short")
	}

	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("auth: opening sealed value: %w", err)
	}
	return string(plain), nil
}
