package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/dialoguetree/pkg/domain"
	"github.com/aretw0/dialoguetree/pkg/ports"
)

// EnvelopePrefix marks an authoring blob that holds an encrypted asset.
const EnvelopePrefix = "enc:v1:"

// ErrMissingEnvelope is returned when an encrypted store reads a plain asset.
var ErrMissingEnvelope = errors.New("asset is missing encrypted data envelope")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.AssetStore
	config EncryptionConfig
}

// sealed is the plaintext inside an envelope.
type sealed struct {
	AuthoringData string `json:"authoring_data"`
	RuntimeData   string `json:"runtime_data"`
}

// NewEncryptionMiddleware creates a middleware that encrypts both streams of an asset
// with AES-GCM. The asset id is bound as additional data, so an envelope copied under
// another id does not open.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, errors.New("active key must be 32 bytes (AES-256)")
	}
	for i, k := range config.FallbackKeys {
		if len(k) != 32 {
			return nil, fmt.Errorf("fallback key %d must be 32 bytes (AES-256)", i)
		}
	}
	return func(next ports.AssetStore) ports.AssetStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}, nil
}

func (m *encryptionMiddleware) Save(ctx context.Context, asset *domain.Asset) error {
	if asset == nil {
		return errors.New("cannot save nil asset")
	}

	// 1. Serialize both streams
	plainText, err := json.Marshal(sealed{AuthoringData: asset.AuthoringData, RuntimeData: asset.RuntimeData})
	if err != nil {
		return fmt.Errorf("failed to marshal asset: %w", err)
	}

	// 2. Encrypt
	ciphertext, err := encrypt(plainText, m.config.ActiveKey, []byte(asset.ID))
	if err != nil {
		return fmt.Errorf("failed to encrypt asset: %w", err)
	}

	// 3. Create envelope. Id and timestamp stay readable for listing and monitoring.
	envelope := &domain.Asset{
		ID:            asset.ID,
		AuthoringData: EnvelopePrefix + base64.StdEncoding.EncodeToString(ciphertext),
		UpdatedAt:     asset.UpdatedAt,
	}
	return m.next.Save(ctx, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, id string) (*domain.Asset, error) {
	// 1. Load envelope
	envelope, err := m.next.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	// 2. Extract ciphertext
	encoded, ok := strings.CutPrefix(envelope.AuthoringData, EnvelopePrefix)
	if !ok {
		// Fail secure: a configured key means every asset is expected to be encrypted.
		return nil, fmt.Errorf("%w: %s", ErrMissingEnvelope, id)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	// 3. Decrypt (Try Active, then Fallback)
	plainText, err := decryptWithRotation(ciphertext, []byte(envelope.ID), m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt asset %s: %w", id, err)
	}

	// 4. Deserialize
	var s sealed
	if err := json.Unmarshal(plainText, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted asset: %w", err)
	}

	return &domain.Asset{
		ID:            envelope.ID,
		AuthoringData: s.AuthoringData,
		RuntimeData:   s.RuntimeData,
		UpdatedAt:     envelope.UpdatedAt,
	}, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func encrypt(plaintext, key, additional []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, additional), nil
}

func decryptWithRotation(ciphertext, additional, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	// Try active key first
	if plain, err := decrypt(ciphertext, additional, activeKey); err == nil {
		return plain, nil
	}

	// Try fallbacks in order
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, additional, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext, additional, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], additional)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
