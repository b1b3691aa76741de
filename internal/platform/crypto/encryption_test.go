package crypto

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func TestEncryptRoundTrip(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, keySize))
	svc, err := New(key)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !svc.Configured() {
		t.Fatal("expected configured service")
	}
	sealed, err := svc.EncryptString("buyer@example.com")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Contains(sealed, []byte("buyer")) {
		t.Fatal("ciphertext leaks plaintext")
	}
	plain, err := svc.DecryptString(sealed)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if plain != "buyer@example.com" {
		t.Fatalf("got %q", plain)
	}
	if _, err := svc.Decrypt([]byte{1, 2}); err != ErrCiphertextTooShort {
		t.Fatalf("expected short ciphertext error, got %v", err)
	}
}

func TestPassthroughWithoutKey(t *testing.T) {
	svc, err := New("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	sealed, _ := svc.EncryptString("x@y.z")
	if string(sealed) != "x@y.z" {
		t.Fatalf("expected passthrough, got %q", sealed)
	}
}

func TestRejectsShortKey(t *testing.T) {
	if _, err := New("short"); err == nil {
		t.Fatal("expected key length error")
	}
}

func TestLookupHashStable(t *testing.T) {
	if LookupHash("a") != LookupHash("a") || LookupHash("a") == LookupHash("b") {
		t.Fatal("lookup hash not stable")
	}
	if len(LookupHash("a")) != 64 {
		t.Fatal("expected hex sha256")
	}
}
