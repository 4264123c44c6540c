package keystore

import (
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

// ErrDecryption is returned when a stored key blob fails authentication,
// i.e. it was tampered with, corrupted, or encrypted under a different secret.
var ErrDecryption = errors.New("keystore: decryption failed")

const saltLen = 16

var scryptParams = struct{ N, R, P int }{N: 1 << 15, R: 8, P: 1}

// Keystore encrypts custodial private keys at rest. Each blob is
// salt || nonce || ciphertext with a per-blob scrypt-derived AEAD key, so no
// key material is reusable across records.
type Keystore struct {
	secret []byte
}

func New(secret string) *Keystore {
	return &Keystore{secret: []byte(secret)}
}

// Encrypt seals a raw 32-byte private key for storage.
func (k *Keystore) Encrypt(plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("keystore: generate salt: %w", err)
	}
	aead, err := k.aead(salt)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("keystore: generate nonce: %w", err)
	}
	blob := make([]byte, 0, saltLen+len(nonce)+len(plaintext)+aead.Overhead())
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	return aead.Seal(blob, nonce, plaintext, nil), nil
}

// Decrypt opens a stored blob. Any authentication failure maps to
// ErrDecryption; the error never carries key material.
func (k *Keystore) Decrypt(blob []byte) ([]byte, error) {
	if len(blob) < saltLen+chacha20poly1305.NonceSize {
		return nil, ErrDecryption
	}
	salt := blob[:saltLen]
	aead, err := k.aead(salt)
	if err != nil {
		return nil, err
	}
	nonce := blob[saltLen : saltLen+aead.NonceSize()]
	ciphertext := blob[saltLen+aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryption
	}
	return plaintext, nil
}

// DecryptKey opens a blob and parses it as a secp256k1 private key. The
// caller must discard the key as soon as the signing call returns.
func (k *Keystore) DecryptKey(blob []byte) (*ecdsa.PrivateKey, error) {
	raw, err := k.Decrypt(blob)
	if err != nil {
		return nil, err
	}
	defer zero(raw)
	key, err := crypto.ToECDSA(raw)
	if err != nil {
		return nil, ErrDecryption
	}
	return key, nil
}

func (k *Keystore) aead(salt []byte) (cipher.AEAD, error) {
	derived, err := scrypt.Key(k.secret, salt, scryptParams.N, scryptParams.R, scryptParams.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("keystore: derive key: %w", err)
	}
	defer zero(derived)
	return chacha20poly1305.New(derived)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
