// Package cryptox implements the application-level encryption envelope.
// Every payload is sealed with AES-256-GCM before any storage backend sees
// it; the resulting envelope is self-describing and can only be opened with
// the matching key. Backend-managed encryption at rest is a second,
// independent layer on top of this one.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"

	"github.com/dpetrovs/trimirror/internal/common"
	"golang.org/x/crypto/argon2"
)

// AlgorithmAESGCM identifies AES-256-GCM in the envelope header.
const AlgorithmAESGCM byte = 0x01

// KeySize is the required master key length in bytes (AES-256).
const KeySize = 32

const nonceSize = 12

// Envelope is a self-contained encrypted payload: algorithm identifier,
// nonce, and ciphertext (which includes the GCM authentication tag).
type Envelope struct {
	Algorithm  byte
	Nonce      []byte
	Ciphertext []byte
}

// Marshal renders the envelope in its binary wire form:
// one algorithm byte, one nonce-length byte, nonce, ciphertext.
func (e *Envelope) Marshal() []byte {
	out := make([]byte, 0, 2+len(e.Nonce)+len(e.Ciphertext))
	out = append(out, e.Algorithm, byte(len(e.Nonce)))
	out = append(out, e.Nonce...)
	out = append(out, e.Ciphertext...)
	return out
}

// UnmarshalEnvelope parses the binary wire form produced by Marshal.
// A truncated or unrecognized buffer fails with ErrDecryption.
func UnmarshalEnvelope(data []byte) (*Envelope, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: envelope truncated", common.ErrDecryption)
	}
	if data[0] != AlgorithmAESGCM {
		return nil, fmt.Errorf("%w: unknown algorithm 0x%02x", common.ErrDecryption, data[0])
	}
	nl := int(data[1])
	if len(data) < 2+nl {
		return nil, fmt.Errorf("%w: envelope truncated", common.ErrDecryption)
	}
	return &Envelope{
		Algorithm:  data[0],
		Nonce:      data[2 : 2+nl],
		Ciphertext: data[2+nl:],
	}, nil
}

// Encrypt seals plaintext with AES-256-GCM under key. A fresh random nonce
// is generated per call. Failures wrap ErrEncryption.
func Encrypt(plaintext, key []byte) (*Envelope, error) {
	aesgcm, err := newGCM(key, common.ErrEncryption)
	if err != nil {
		return nil, err
	}

	nonce := common.GenerateRandByteArray(nonceSize)
	ciphertext := aesgcm.Seal(nil, nonce, plaintext, nil)

	return &Envelope{Algorithm: AlgorithmAESGCM, Nonce: nonce, Ciphertext: ciphertext}, nil
}

// Decrypt opens the envelope with key. Any bit-flip in the nonce, ciphertext
// or tag, and any wrong key, fails with ErrDecryption; corrupted plaintext is
// never returned.
func Decrypt(env *Envelope, key []byte) ([]byte, error) {
	if env.Algorithm != AlgorithmAESGCM {
		return nil, fmt.Errorf("%w: unknown algorithm 0x%02x", common.ErrDecryption, env.Algorithm)
	}
	aesgcm, err := newGCM(key, common.ErrDecryption)
	if err != nil {
		return nil, err
	}
	if len(env.Nonce) != aesgcm.NonceSize() {
		return nil, fmt.Errorf("%w: bad nonce length %d", common.ErrDecryption, len(env.Nonce))
	}

	plaintext, err := aesgcm.Open(nil, env.Nonce, env.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	return plaintext, nil
}

// DecryptBytes parses an envelope wire form and opens it in one step.
func DecryptBytes(data, key []byte) ([]byte, error) {
	env, err := UnmarshalEnvelope(data)
	if err != nil {
		return nil, err
	}
	return Decrypt(env, key)
}

func newGCM(key []byte, sentinel error) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", sentinel, KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sentinel, err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sentinel, err)
	}
	return aesgcm, nil
}

// DeriveMasterKey derives a 32-byte key from a passphrase and salt using
// Argon2id. Same inputs always produce the same key.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, KeySize)
}

// DecodeMasterKey decodes a base64 (std encoding) master key supplied by an
// external secret source and validates its length.
func DecodeMasterKey(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, common.ErrNoMasterKey
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidMasterKey, err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", common.ErrInvalidMasterKey, KeySize, len(key))
	}
	return key, nil
}
