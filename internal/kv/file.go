// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kv

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/gatechat/internal/util"
)

// =============================================================================
// FILE STORE
// =============================================================================

// FileStore keeps one file per key under a base directory.
// Writes are atomic (temp file + fsync + rename) so a crash never leaves a
// partially written payload behind.
type FileStore struct {
	baseDir string
}

// NewFileStore creates a file-backed store rooted at baseDir.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, err
	}
	return &FileStore{baseDir: baseDir}, nil
}

// Get reads the blob stored for key. A missing file means "absent", not
// an error.
func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

// Set writes the blob for key atomically.
func (s *FileStore) Set(ctx context.Context, key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return util.AtomicWriteFile(s.path(key), []byte(value), 0600)
}

// Delete removes the blob for key. Absent keys are a no-op.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Close implements Store. File stores hold no resources.
func (s *FileStore) Close() error {
	return nil
}

// path returns the file path for a namespace key.
func (s *FileStore) path(key string) string {
	return filepath.Join(s.baseDir, key+".json")
}

// validateKey rejects keys that would escape the base directory.
func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}
