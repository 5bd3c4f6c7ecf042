package syncstore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// Legacy encrypted-drafts extension (protocol revision 1.x). Current stores
// keep drafts local-only, but a consumer pointed at an old store can still
// read its drafts sub-tree: AES-256-GCM, key derived with PBKDF2-SHA256, and
// a per-file random nonce prefixed to the ciphertext.

const draftKDF = "pbkdf2-sha256"

var (
	ErrUnsupportedKDF   = errors.New("syncstore: unsupported draft key derivation")
	ErrDraftCiphertext  = errors.New("syncstore: draft ciphertext too short")
	ErrDraftDecryptFail = errors.New("syncstore: draft decryption failed (wrong password or corrupt file)")
)

// DeriveDraftKey derives the 32-byte draft key from a password and the
// manifest's encryption parameters.
func DeriveDraftKey(password string, enc *EncryptionInfo) ([]byte, error) {
	if enc.KDF != draftKDF {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKDF, enc.KDF)
	}
	salt, err := base64.StdEncoding.DecodeString(enc.Salt)
	if err != nil {
		return nil, fmt.Errorf("syncstore: decode draft salt: %w", err)
	}
	return pbkdf2.Key([]byte(password), salt, enc.Iterations, 32, sha256.New), nil
}

// DecryptDraft opens one encrypted draft file.
func DecryptDraft(key, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(data) < gcm.NonceSize() {
		return nil, ErrDraftCiphertext
	}
	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDraftDecryptFail
	}
	return plaintext, nil
}

// EncryptDraft seals one draft file with a fresh random nonce. Kept for
// interoperability tests against revision 1.x stores; the current generator
// never emits encrypted drafts.
func EncryptDraft(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}
