// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kv

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newSecureStore(t *testing.T) (*SecureStore, string) {
	t.Helper()
	dir := t.TempDir()

	inner, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	ks, err := NewFileKeyStore(dir)
	if err != nil {
		t.Fatalf("NewFileKeyStore failed: %v", err)
	}
	s, err := NewSecureStore(inner, ks)
	if err != nil {
		t.Fatalf("NewSecureStore failed: %v", err)
	}
	return s, dir
}

func TestSecureStore_RoundTrip(t *testing.T) {
	s, _ := newSecureStore(t)
	ctx := context.Background()

	plain := `{"state":{"apiKey":"vck_secret"},"version":0}`
	if err := s.Set(ctx, "global-store", plain); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok, err := s.Get(ctx, "global-store")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got != plain {
		t.Errorf("Get = %q, want original plaintext", got)
	}
}

func TestSecureStore_CiphertextNotPlaintext(t *testing.T) {
	s, dir := newSecureStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "global-store", "vck_secret_credential"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "global-store.json"))
	if err != nil {
		t.Fatalf("read payload file: %v", err)
	}
	if !strings.HasPrefix(string(raw), "ENC:") {
		t.Error("stored payload should carry the ENC: prefix")
	}
	if strings.Contains(string(raw), "vck_secret_credential") {
		t.Error("plaintext credential leaked into the payload file")
	}
}

func TestSecureStore_FreshSaltPerWrite(t *testing.T) {
	s, _ := newSecureStore(t)

	a, err := encrypt("same plaintext", s.masterKey)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	b, err := encrypt("same plaintext", s.masterKey)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if a == b {
		t.Error("two encryptions of the same plaintext should differ")
	}
}

func TestSecureStore_PlaintextPassthrough(t *testing.T) {
	s, _ := newSecureStore(t)
	ctx := context.Background()

	// Simulates a payload written before encryption was enabled.
	if err := s.inner.Set(ctx, "chat-store", `{"state":{},"version":0}`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok, err := s.Get(ctx, "chat-store")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got != `{"state":{},"version":0}` {
		t.Errorf("Get = %q, want passthrough plaintext", got)
	}
}

func TestDecrypt_RejectsTampering(t *testing.T) {
	s, _ := newSecureStore(t)

	envelope, err := encrypt("payload", s.masterKey)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	tampered := envelope[:len(envelope)-2] + "AA"
	if _, err := decrypt(tampered, s.masterKey); err == nil {
		t.Error("tampered envelope should fail to decrypt")
	}

	if _, err := decrypt("ENC:not-base64!!!", s.masterKey); err != ErrInvalidCiphertext {
		t.Errorf("malformed envelope = %v, want ErrInvalidCiphertext", err)
	}
	if _, err := decrypt("ENC:QUFB", s.masterKey); err != ErrInvalidCiphertext {
		t.Errorf("short envelope = %v, want ErrInvalidCiphertext", err)
	}
}

func TestDecrypt_WrongKeyFails(t *testing.T) {
	envelope, err := encrypt("payload", "key-one")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if _, err := decrypt(envelope, "key-two"); err != ErrDecryptionFailed {
		t.Errorf("wrong key = %v, want ErrDecryptionFailed", err)
	}
}
