// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kv

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// =============================================================================
// ENCRYPTION CONSTANTS
// =============================================================================

const (
	// PBKDF2Iterations per OWASP 2023 recommendation for SHA-256.
	PBKDF2Iterations = 600000
	// KeySize for AES-256.
	KeySize = 32
	// NonceSize for GCM.
	NonceSize = 12
	// SaltSize for PBKDF2.
	SaltSize = 32
	// encryptedPrefix marks a value as an encrypted envelope.
	encryptedPrefix = "ENC:"
)

var (
	// ErrInvalidCiphertext indicates a malformed encrypted envelope.
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	// ErrDecryptionFailed indicates authentication failure on decrypt.
	ErrDecryptionFailed = errors.New("decryption failed")
)

// =============================================================================
// SECURE STORE
// =============================================================================

// SecureStore wraps another Store and encrypts values at rest with
// AES-256-GCM. The cipher key is derived from the master key with
// PBKDF2-SHA-256; a fresh salt and nonce are generated per write, so the
// same plaintext never produces the same envelope twice.
type SecureStore struct {
	inner     Store
	masterKey string
}

// NewSecureStore wraps inner with encryption keyed by the key store's
// master key, provisioning one on first use.
func NewSecureStore(inner Store, ks KeyStore) (*SecureStore, error) {
	key, err := LoadOrCreateKey(ks)
	if err != nil {
		return nil, fmt.Errorf("load master key: %w", err)
	}
	return &SecureStore{inner: inner, masterKey: key}, nil
}

// Get reads and decrypts the value for key. Plaintext values written
// before encryption was enabled pass through unchanged.
func (s *SecureStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}
	if len(value) < len(encryptedPrefix) || value[:len(encryptedPrefix)] != encryptedPrefix {
		return value, true, nil
	}

	plain, err := decrypt(value, s.masterKey)
	if err != nil {
		return "", false, err
	}
	return plain, true, nil
}

// Set encrypts value and stores the envelope under key.
func (s *SecureStore) Set(ctx context.Context, key, value string) error {
	envelope, err := encrypt(value, s.masterKey)
	if err != nil {
		return err
	}
	return s.inner.Set(ctx, key, envelope)
}

// Delete removes key from the underlying store.
func (s *SecureStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

// Close closes the underlying store.
func (s *SecureStore) Close() error {
	return s.inner.Close()
}

// =============================================================================
// CIPHER PRIMITIVES
// =============================================================================

// deriveKey stretches the master key into an AES-256 key.
func deriveKey(masterKey string, salt []byte) []byte {
	return pbkdf2.Key([]byte(masterKey), salt, PBKDF2Iterations, KeySize, sha256.New)
}

// encrypt seals plaintext into an "ENC:" envelope:
// base64(salt || nonce || ciphertext).
func encrypt(plaintext, masterKey string) (string, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	block, err := aes.NewCipher(deriveKey(masterKey, salt))
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)

	payload := make([]byte, 0, SaltSize+NonceSize+len(sealed))
	payload = append(payload, salt...)
	payload = append(payload, nonce...)
	payload = append(payload, sealed...)

	return encryptedPrefix + base64.StdEncoding.EncodeToString(payload), nil
}

// decrypt opens an "ENC:" envelope produced by encrypt.
func decrypt(envelope, masterKey string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(envelope[len(encryptedPrefix):])
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	if len(raw) < SaltSize+NonceSize+1 {
		return "", ErrInvalidCiphertext
	}

	salt := raw[:SaltSize]
	nonce := raw[SaltSize : SaltSize+NonceSize]
	sealed := raw[SaltSize+NonceSize:]

	block, err := aes.NewCipher(deriveKey(masterKey, salt))
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plain), nil
}
