// secrets.go stores provider API keys in the OS keychain so they do not
// have to live in config.json or the shell environment.
package config

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

// KeychainService identifies our keychain/credential store namespace.
const KeychainService = "chatdb"

// ErrSecretNotFound is returned when no secret is stored under a key.
var ErrSecretNotFound = errors.New("secret not found")

// SecretProviders lists the providers whose API keys can be stored.
var SecretProviders = []string{"openai", "anthropic", "gemini"}

// SecretStore reads and writes named secrets.
type SecretStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Keychain is a SecretStore backed by the OS keyring.
type Keychain struct {
	ring keyring.Keyring
}

var _ SecretStore = (*Keychain)(nil)

// OpenKeychain opens the OS keyring (macOS Keychain, Windows Credential
// Manager, Secret Service, KWallet or pass, whichever is available).
func OpenKeychain() (*Keychain, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName:              KeychainService,
		KeychainTrustApplication: true,
		LibSecretCollectionName:  "login",
	})
	if err != nil {
		return nil, fmt.Errorf("open keychain: %w", err)
	}
	return &Keychain{ring: ring}, nil
}

func (k *Keychain) Get(key string) (string, error) {
	item, err := k.ring.Get(secretKey(key))
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrSecretNotFound
		}
		return "", err
	}
	return string(item.Data), nil
}

func (k *Keychain) Set(key, value string) error {
	return k.ring.Set(keyring.Item{
		Key:         secretKey(key),
		Data:        []byte(value),
		Label:       "chatdb " + key + " API key",
		Description: "API key used by chatdb",
	})
}

func (k *Keychain) Delete(key string) error {
	err := k.ring.Remove(secretKey(key))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return ErrSecretNotFound
	}
	return err
}

// ApplySecrets fills API keys that are still empty after file and env
// loading from the secret store. Missing entries are not an error.
func ApplySecrets(cfg *AIConfig, store SecretStore) error {
	targets := map[string]*string{
		"openai":    &cfg.OpenAI.APIKey,
		"anthropic": &cfg.Anthropic.APIKey,
		"gemini":    &cfg.Gemini.APIKey,
	}
	for _, name := range SecretProviders {
		dst := targets[name]
		if *dst != "" {
			continue
		}
		v, err := store.Get(name)
		if err != nil {
			if errors.Is(err, ErrSecretNotFound) {
				continue
			}
			return fmt.Errorf("read %s key: %w", name, err)
		}
		*dst = v
	}
	return nil
}

// IsSecretProvider reports whether name is a provider with a storable key.
func IsSecretProvider(name string) bool {
	for _, p := range SecretProviders {
		if p == name {
			return true
		}
	}
	return false
}

func secretKey(provider string) string {
	return provider + "_api_key"
}
