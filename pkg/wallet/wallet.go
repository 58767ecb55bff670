package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrUnavailable is returned whenever a signing handle cannot be constructed
// from the stored credential. Callers surface it as a WalletUnavailable
// condition; the underlying cause stays wrapped for logging.
var ErrUnavailable = errors.New("wallet: unavailable")

// Handle is an opaque signing capability scoped to one trade flow. It is
// rebuilt on every request and must never be cached as a live object.
type Handle interface {
	// Address returns the account address the handle signs for.
	Address() common.Address
	// SignHash signs a 32-byte digest with the account key.
	SignHash(digest []byte) ([]byte, error)
}

// Provider derives signing handles from encrypted credentials.
type Provider interface {
	HandleFor(encryptedCredential string) (Handle, error)
}

// KeystoreProvider decrypts AES-256-GCM sealed private keys with a master
// secret and wraps them in ECDSA signing handles.
type KeystoreProvider struct {
	masterKey [32]byte
}

// NewKeystoreProvider derives the sealing key from the master secret.
func NewKeystoreProvider(masterSecret string) (*KeystoreProvider, error) {
	if strings.TrimSpace(masterSecret) == "" {
		return nil, fmt.Errorf("%w: empty master secret", ErrUnavailable)
	}
	return &KeystoreProvider{masterKey: sha256.Sum256([]byte(masterSecret))}, nil
}

// HandleFor decrypts the credential and constructs a fresh signing handle.
// The credential format is hex(nonce || ciphertext) produced by Seal.
func (p *KeystoreProvider) HandleFor(encryptedCredential string) (Handle, error) {
	if p == nil {
		return nil, ErrUnavailable
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(encryptedCredential), "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: decode credential: %v", ErrUnavailable, err)
	}
	gcm, err := p.aead()
	if err != nil {
		return nil, err
	}
	if len(raw) < gcm.NonceSize() {
		return nil, fmt.Errorf("%w: credential too short", ErrUnavailable)
	}
	nonce, sealed := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	keyBytes, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: open credential: %v", ErrUnavailable, err)
	}
	key, err := crypto.ToECDSA(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: parse key: %v", ErrUnavailable, err)
	}
	return &ecdsaHandle{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// Seal encrypts a raw 32-byte private key for storage. The inverse of
// HandleFor's decryption step; exposed for provisioning and tests.
func (p *KeystoreProvider) Seal(privateKey []byte, nonce []byte) (string, error) {
	gcm, err := p.aead()
	if err != nil {
		return "", err
	}
	if len(nonce) != gcm.NonceSize() {
		return "", fmt.Errorf("%w: nonce must be %d bytes", ErrUnavailable, gcm.NonceSize())
	}
	sealed := gcm.Seal(nil, nonce, privateKey, nil)
	return hex.EncodeToString(append(append([]byte{}, nonce...), sealed...)), nil
}

func (p *KeystoreProvider) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(p.masterKey[:])
	if err != nil {
		return nil, fmt.Errorf("%w: cipher: %v", ErrUnavailable, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: gcm: %v", ErrUnavailable, err)
	}
	return gcm, nil
}

type ecdsaHandle struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

func (h *ecdsaHandle) Address() common.Address { return h.addr }

func (h *ecdsaHandle) SignHash(digest []byte) ([]byte, error) {
	if len(digest) != 32 {
		return nil, fmt.Errorf("wallet: digest must be 32 bytes, got %d", len(digest))
	}
	return crypto.Sign(digest, h.key)
}
