// Package credentials keeps the generator provider API keys, sealed at rest.
package credentials

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"

	qerrors "github.com/taskventure/backend/internal/errors"
	"github.com/taskventure/backend/internal/generator"
	"github.com/taskventure/backend/internal/kv"
)

// scrypt cost parameters for deriving the sealing key from the secret.
const (
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	saltSize     = 16
	sealedKeyLen = 32
)

// Names the browser client and older config files used for provider keys.
var legacyNames = map[string]string{
	"next_public_openrouter_api_key": generator.KeyOpenRouter,
	"openrouter_api_key":             generator.KeyOpenRouter,
	"anthropic_api_key":              generator.KeyAnthropic,
}

// sealedBlob is the persisted form under kv.KeyAPIKeys.
type sealedBlob struct {
	Salt  []byte `json:"salt"`
	Nonce []byte `json:"nonce"`
	Box   []byte `json:"box"`
}

// Vault resolves provider keys from the environment first, then from the
// sealed store. It implements generator.KeyProvider.
type Vault struct {
	mu     sync.Mutex
	kv     kv.Store
	secret []byte
	env    map[string]string
	stored map[string]string
	logger *slog.Logger
}

// NewVault builds a vault. An empty secret leaves the vault read-only: env keys
// still resolve, but nothing can be saved or opened.
func NewVault(store kv.Store, secret string, env map[string]string, logger *slog.Logger) *Vault {
	cleaned := make(map[string]string, len(env))
	for provider, key := range env {
		if key = strings.TrimSpace(key); key != "" {
			cleaned[provider] = key
		}
	}
	return &Vault{
		kv:     store,
		secret: []byte(secret),
		env:    cleaned,
		stored: map[string]string{},
		logger: logger.With("component", "credentials"),
	}
}

// NormalizeProvider maps a provider or legacy key name to its provider name.
func NormalizeProvider(name string) (string, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if legacy, ok := legacyNames[n]; ok {
		return legacy, true
	}
	switch n {
	case generator.KeyAnthropic, generator.KeyOpenRouter:
		return n, true
	}
	return "", false
}

// Load opens the sealed keys. A missing blob is an empty vault.
func (v *Vault) Load(ctx context.Context) error {
	var blob sealedBlob
	found, err := kv.GetJSON(ctx, v.kv, kv.KeyAPIKeys, &blob)
	if err != nil {
		return qerrors.ErrPersistence("load api keys", err)
	}
	if !found {
		return nil
	}
	if len(v.secret) == 0 {
		v.logger.Warn("stored api keys ignored: TASKVENTURE_SECRET is not set")
		return qerrors.ErrConfiguration("stored API keys need TASKVENTURE_SECRET to be opened")
	}

	keys, err := v.open(blob)
	if err != nil {
		v.logger.Warn("stored api keys could not be opened", "error", err)
		return qerrors.New(qerrors.CodeConfiguration, "stored API keys cannot be opened with this TASKVENTURE_SECRET", err)
	}

	v.mu.Lock()
	v.stored = keys
	v.mu.Unlock()
	return nil
}

// Save merges keys into the stored set. An empty value removes that provider.
func (v *Vault) Save(ctx context.Context, keys map[string]string) error {
	if len(v.secret) == 0 {
		return qerrors.ErrConfiguration("TASKVENTURE_SECRET must be set to store API keys")
	}

	updates := make(map[string]string, len(keys))
	for name, key := range keys {
		provider, ok := NormalizeProvider(name)
		if !ok {
			return qerrors.ErrInvalidArgument("keys", fmt.Sprintf("unknown provider %q", name))
		}
		updates[provider] = strings.TrimSpace(key)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	next := make(map[string]string, len(v.stored)+len(updates))
	for p, k := range v.stored {
		next[p] = k
	}
	for p, k := range updates {
		if k == "" {
			delete(next, p)
			continue
		}
		next[p] = k
	}

	blob, err := v.seal(next)
	if err != nil {
		return fmt.Errorf("seal api keys: %w", err)
	}
	v.stored = next

	if err := kv.PutJSON(ctx, v.kv, kv.KeyAPIKeys, blob); err != nil {
		v.logger.Error("failed to persist api keys", "error", err)
		return qerrors.ErrPersistence("save api keys", err)
	}
	v.logger.Info("api keys saved", "providers", len(next))
	return nil
}

// APIKey returns the key for provider, preferring the environment.
func (v *Vault) APIKey(_ context.Context, provider string) (string, bool) {
	if key, ok := v.env[provider]; ok {
		return key, true
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	key, ok := v.stored[provider]
	return key, ok && key != ""
}

// Providers lists the providers that currently have a key, sorted.
func (v *Vault) Providers() []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	set := make(map[string]bool, len(v.env)+len(v.stored))
	for p := range v.env {
		set[p] = true
	}
	for p, k := range v.stored {
		if k != "" {
			set[p] = true
		}
	}
	providers := make([]string, 0, len(set))
	for p := range set {
		providers = append(providers, p)
	}
	sort.Strings(providers)
	return providers
}

func (v *Vault) seal(keys map[string]string) (sealedBlob, error) {
	plain, err := json.Marshal(keys)
	if err != nil {
		return sealedBlob{}, err
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return sealedBlob{}, err
	}
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return sealedBlob{}, err
	}

	key, err := v.deriveKey(salt)
	if err != nil {
		return sealedBlob{}, err
	}
	return sealedBlob{
		Salt:  salt,
		Nonce: nonce[:],
		Box:   secretbox.Seal(nil, plain, &nonce, key),
	}, nil
}

func (v *Vault) open(blob sealedBlob) (map[string]string, error) {
	if len(blob.Nonce) != 24 {
		return nil, fmt.Errorf("nonce has %d bytes", len(blob.Nonce))
	}
	var nonce [24]byte
	copy(nonce[:], blob.Nonce)

	key, err := v.deriveKey(blob.Salt)
	if err != nil {
		return nil, err
	}
	plain, ok := secretbox.Open(nil, blob.Box, &nonce, key)
	if !ok {
		return nil, fmt.Errorf("authentication failed")
	}

	keys := map[string]string{}
	if err := json.Unmarshal(plain, &keys); err != nil {
		return nil, fmt.Errorf("decode api keys: %w", err)
	}
	return keys, nil
}

func (v *Vault) deriveKey(salt []byte) (*[sealedKeyLen]byte, error) {
	derived, err := scrypt.Key(v.secret, salt, scryptN, scryptR, scryptP, sealedKeyLen)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	var key [sealedKeyLen]byte
	copy(key[:], derived)
	return &key, nil
}
