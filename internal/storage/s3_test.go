package storage

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"testing"

	"golang.org/x/crypto/pbkdf2"
)

func TestEncryptGCMContainerLayout(t *testing.T) {
	plain := []byte("compressed pdf payload")
	out, err := encryptGCM(plain, "secret")
	if err != nil {
		t.Fatalf("encryptGCM: %v", err)
	}
	if !bytes.HasPrefix(out, []byte(gcmMagic)) {
		t.Fatal("container must start with the format magic")
	}
	// magic(8) + salt(16) + nonce(12) + ciphertext + tag(16)
	want := len(gcmMagic) + saltLen + 12 + len(plain) + 16
	if len(out) != want {
		t.Errorf("container length %d, want %d", len(out), want)
	}
}

func TestEncryptGCMDecryptable(t *testing.T) {
	plain := []byte("round trip body")
	out, err := encryptGCM(plain, "pw")
	if err != nil {
		t.Fatal(err)
	}

	salt := out[len(gcmMagic) : len(gcmMagic)+saltLen]
	nonce := out[len(gcmMagic)+saltLen : len(gcmMagic)+saltLen+12]
	ct := out[len(gcmMagic)+saltLen+12:]

	key := pbkdf2.Key([]byte("pw"), salt, pbkdf2Iterations, keyLen, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatal(err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		t.Fatal(err)
	}
	got, err := gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		t.Fatalf("payload does not decrypt: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Errorf("decrypted %q, want %q", got, plain)
	}
}

func TestEncryptGCMUniqueSalts(t *testing.T) {
	a, err := encryptGCM([]byte("same"), "pw")
	if err != nil {
		t.Fatal(err)
	}
	b, err := encryptGCM([]byte("same"), "pw")
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a, b) {
		t.Error("two encryptions of the same payload must differ")
	}
}
