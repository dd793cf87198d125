package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "tagnotes"

// KeyringService stores provider API keys in the OS credential store, one
// item per provider id.
type KeyringService struct {
	ring keyring.Keyring
}

// NewKeyringService opens the platform keyring. Backends that prompt for a
// passphrase are not allowed, so CI hosts without a keyring fail fast.
func NewKeyringService() (*KeyringService, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.KWalletBackend,
			keyring.PassBackend,
		},
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return NewKeyringServiceWith(ring), nil
}

func NewKeyringServiceWith(ring keyring.Keyring) *KeyringService {
	return &KeyringService{ring: ring}
}

func (s *KeyringService) StoreApiKey(provider string, apiKey []byte) error {
	provider = strings.TrimSpace(provider)
	if len(apiKey) == 0 {
		return errors.New("API key is empty")
	}
	if provider == "" {
		return errors.New("provider is required")
	}
	return s.ring.Set(keyring.Item{
		Key:         provider,
		Data:        apiKey,
		Label:       provider + " API key",
		Description: "API key for " + provider + " used by tagnotes",
	})
}

// GetApiKey returns ErrCredentialNotFound when no key is stored.
func (s *KeyringService) GetApiKey(provider string) (string, error) {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return "", errors.New("provider is required")
	}
	item, err := s.ring.Get(provider)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", fmt.Errorf("%w: %s", ErrCredentialNotFound, provider)
		}
		return "", err
	}
	key := strings.TrimSpace(string(item.Data))
	if key == "" {
		return "", fmt.Errorf("%w: %s", ErrCredentialNotFound, provider)
	}
	return key, nil
}

func (s *KeyringService) DeleteApiKey(provider string) error {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return errors.New("provider is required")
	}
	if err := s.ring.Remove(provider); err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrCredentialNotFound, provider)
		}
		return err
	}
	return nil
}

// ListProviders returns the provider ids with a stored key, sorted.
func (s *KeyringService) ListProviders() ([]string, error) {
	keys, err := s.ring.Keys()
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}
