// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kv

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// =============================================================================
// MASTER KEY STORE
// =============================================================================

// MasterKeySize is the size of the random master key in bytes (256 bits).
const MasterKeySize = 32

// ErrKeyNotFound indicates no master key has been provisioned yet.
var ErrKeyNotFound = errors.New("master key not found")

// KeyStore persists the master key that SecureStore derives its cipher
// key from.
type KeyStore interface {
	// LoadKey returns the stored master key.
	LoadKey() (string, error)
	// StoreKey persists the master key.
	StoreKey(key string) error
	// HasKey reports whether a master key exists.
	HasKey() bool
}

// FileKeyStore keeps the master key in a mode-0600 file inside the data
// directory. This protects the payload files from casual reads but not
// from an attacker with the same filesystem access.
type FileKeyStore struct {
	path string
}

// NewFileKeyStore creates a key store at dir/master.key.
func NewFileKeyStore(dir string) (*FileKeyStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create key dir: %w", err)
	}
	return &FileKeyStore{path: filepath.Join(dir, "master.key")}, nil
}

// LoadKey reads the master key from disk.
func (ks *FileKeyStore) LoadKey() (string, error) {
	data, err := os.ReadFile(ks.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("read master key: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// StoreKey writes the master key with owner-only permissions.
func (ks *FileKeyStore) StoreKey(key string) error {
	if err := os.WriteFile(ks.path, []byte(key), 0600); err != nil {
		return fmt.Errorf("write master key: %w", err)
	}
	return nil
}

// HasKey reports whether a master key file exists.
func (ks *FileKeyStore) HasKey() bool {
	_, err := os.Stat(ks.path)
	return err == nil
}

// LoadOrCreateKey returns the existing master key, generating and storing
// a fresh one on first use.
func LoadOrCreateKey(ks KeyStore) (string, error) {
	if ks.HasKey() {
		return ks.LoadKey()
	}

	key, err := GenerateMasterKey()
	if err != nil {
		return "", err
	}
	if err := ks.StoreKey(key); err != nil {
		return "", err
	}
	return key, nil
}

// GenerateMasterKey returns a new random master key, base64-encoded.
func GenerateMasterKey() (string, error) {
	raw := make([]byte, MasterKeySize)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", fmt.Errorf("generate master key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
