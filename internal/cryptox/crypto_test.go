package cryptox

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/dpetrovs/trimirror/internal/common"
)

func testKey() []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key := testKey()

	payloads := [][]byte{
		[]byte("hello-netapp"),
		[]byte(""),
		bytes.Repeat([]byte{0xAB}, 1<<16),
	}

	for _, plaintext := range payloads {
		env, err := Encrypt(plaintext, key)
		if err != nil {
			t.Fatalf("encrypt error: %v", err)
		}

		got, err := Decrypt(env, key)
		if err != nil {
			t.Fatalf("decrypt error: %v", err)
		}
		if !bytes.Equal(plaintext, got) {
			t.Errorf("round trip mismatch: want %d bytes, got %d", len(plaintext), len(got))
		}
	}
}

func TestEncrypt_FreshNoncePerCall(t *testing.T) {
	key := testKey()

	env1, err := Encrypt([]byte("same payload"), key)
	if err != nil {
		t.Fatal(err)
	}
	env2, err := Encrypt([]byte("same payload"), key)
	if err != nil {
		t.Fatal(err)
	}

	if bytes.Equal(env1.Nonce, env2.Nonce) {
		t.Error("expected different nonces for repeated encryptions")
	}
	if bytes.Equal(env1.Ciphertext, env2.Ciphertext) {
		t.Error("expected different ciphertexts for repeated encryptions")
	}
}

func TestDecrypt_WrongKeyFails(t *testing.T) {
	env, err := Encrypt([]byte("secret"), testKey())
	if err != nil {
		t.Fatal(err)
	}

	other := testKey()
	other[0] ^= 0xFF

	if _, err := Decrypt(env, other); !errors.Is(err, common.ErrDecryption) {
		t.Errorf("expected ErrDecryption, got %v", err)
	}
}

func TestDecrypt_TamperDetection(t *testing.T) {
	key := testKey()
	env, err := Encrypt([]byte("tamper-evident payload"), key)
	if err != nil {
		t.Fatal(err)
	}
	wire := env.Marshal()

	// Flip a single bit at every byte position past the header; each
	// mutation must fail decryption, never return corrupted plaintext.
	for pos := 2; pos < len(wire); pos++ {
		mutated := bytes.Clone(wire)
		mutated[pos] ^= 0x01

		if _, err := DecryptBytes(mutated, key); !errors.Is(err, common.ErrDecryption) {
			t.Fatalf("bit flip at %d: expected ErrDecryption, got %v", pos, err)
		}
	}
}

func TestUnmarshalEnvelope_Malformed(t *testing.T) {
	key := testKey()

	cases := [][]byte{
		nil,
		{},
		{AlgorithmAESGCM},
		{0x7F, 12, 1, 2, 3},              // unknown algorithm
		{AlgorithmAESGCM, 12, 1, 2, 3},   // truncated nonce
	}

	for _, data := range cases {
		if _, err := DecryptBytes(data, key); !errors.Is(err, common.ErrDecryption) {
			t.Errorf("DecryptBytes(%v): expected ErrDecryption, got %v", data, err)
		}
	}
}

func TestMarshalUnmarshal_Envelope(t *testing.T) {
	env, err := Encrypt([]byte("wire format"), testKey())
	if err != nil {
		t.Fatal(err)
	}

	back, err := UnmarshalEnvelope(env.Marshal())
	if err != nil {
		t.Fatal(err)
	}
	if back.Algorithm != env.Algorithm {
		t.Errorf("algorithm mismatch: %x vs %x", back.Algorithm, env.Algorithm)
	}
	if !bytes.Equal(back.Nonce, env.Nonce) || !bytes.Equal(back.Ciphertext, env.Ciphertext) {
		t.Error("envelope fields did not survive the wire format")
	}
}

func TestEncrypt_BadKeyLength(t *testing.T) {
	if _, err := Encrypt([]byte("x"), []byte("short")); !errors.Is(err, common.ErrEncryption) {
		t.Errorf("expected ErrEncryption, got %v", err)
	}
}

func TestDeriveMasterKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveMasterKey(password, salt)
	key2 := DeriveMasterKey(password, salt)

	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}
	if len(key1) != KeySize {
		t.Errorf("expected %d-byte key, got %d", KeySize, len(key1))
	}
}

func TestDeriveMasterKey_DifferentSalts(t *testing.T) {
	password := []byte("secret-password")

	key1 := DeriveMasterKey(password, []byte("salt-1"))
	key2 := DeriveMasterKey(password, []byte("salt-2"))

	if bytes.Equal(key1, key2) {
		t.Errorf("expected different results for different salts, got same")
	}
}

func TestDecodeMasterKey(t *testing.T) {
	key := testKey()
	encoded := base64.StdEncoding.EncodeToString(key)

	got, err := DecodeMasterKey(encoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(key, got) {
		t.Error("decoded key mismatch")
	}

	if _, err := DecodeMasterKey(""); !errors.Is(err, common.ErrNoMasterKey) {
		t.Errorf("expected ErrNoMasterKey, got %v", err)
	}
	if _, err := DecodeMasterKey("!!!"); !errors.Is(err, common.ErrInvalidMasterKey) {
		t.Errorf("expected ErrInvalidMasterKey, got %v", err)
	}
	if _, err := DecodeMasterKey(base64.StdEncoding.EncodeToString([]byte("short"))); !errors.Is(err, common.ErrInvalidMasterKey) {
		t.Errorf("expected ErrInvalidMasterKey, got %v", err)
	}
}
