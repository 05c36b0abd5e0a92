// Package accounts loads the Solcast accounts to monitor from YAML/JSON files.
package accounts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultAccountID names the account synthesised from a bare API key.
const DefaultAccountID = "default"

// Account is one Solcast API key to poll.
type Account struct {
	ID               string `json:"id" yaml:"id"`
	Name             string `json:"name" yaml:"name"`
	APIKey           string `json:"api_key" yaml:"api_key"`
	APIKeyEnv        string `json:"api_key_env" yaml:"api_key_env"`
	RequestTimeoutMs int    `json:"request_timeout_ms" yaml:"request_timeout_ms"`
	Enabled          *bool  `json:"enabled" yaml:"enabled"`
}

type fileRegistry struct {
	Accounts []Account `json:"accounts" yaml:"accounts"`
}

// Registry holds the loaded accounts in file order.
type Registry struct {
	mu       sync.RWMutex
	accounts []Account
	idx      map[string]Account
}

// FromToken builds a registry with a single account for the given key.
func FromToken(token string, timeout time.Duration) (*Registry, error) {
	acc := sanitizeAccount(Account{
		ID:               DefaultAccountID,
		Name:             "Default account",
		APIKey:           token,
		RequestTimeoutMs: int(timeout / time.Millisecond),
	})
	if err := validateAccount(acc); err != nil {
		return nil, err
	}
	return &Registry{
		accounts: []Account{acc},
		idx:      map[string]Account{acc.ID: acc},
	}, nil
}

// LoadRegistry loads the accounts registry from file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("accounts file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open accounts file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read accounts file: %w", err)
	}

	fileReg, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(fileReg.Accounts) == 0 {
		return nil, errors.New("accounts file contains no accounts entries")
	}

	reg := &Registry{
		accounts: make([]Account, len(fileReg.Accounts)),
		idx:      make(map[string]Account, len(fileReg.Accounts)),
	}
	for i := range fileReg.Accounts {
		acc := sanitizeAccount(fileReg.Accounts[i])
		if err := validateAccount(acc); err != nil {
			return nil, fmt.Errorf("account[%d]: %w", i, err)
		}
		if _, exists := reg.idx[acc.ID]; exists {
			return nil, fmt.Errorf("duplicate account id %q", acc.ID)
		}
		reg.accounts[i] = acc
		reg.idx[acc.ID] = acc
	}

	return reg, nil
}

type unmarshalFn func([]byte, any) error

func parseRegistry(data []byte, ext string) (fileRegistry, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var reg fileRegistry
		if err := d.fn(data, &reg); err == nil {
			return reg, nil
		}
	}

	return fileRegistry{}, errors.New("accounts file format not recognized (expected YAML or JSON)")
}

func sanitizeAccount(a Account) Account {
	a.ID = strings.TrimSpace(a.ID)
	a.Name = strings.TrimSpace(a.Name)
	a.APIKey = strings.TrimSpace(a.APIKey)
	a.APIKeyEnv = strings.TrimSpace(a.APIKeyEnv)
	if a.Name == "" {
		a.Name = a.ID
	}
	if a.Enabled == nil {
		def := true
		a.Enabled = &def
	}
	return a
}

func validateAccount(a Account) error {
	if a.ID == "" {
		return errors.New("id is required")
	}
	if a.APIKey == "" && a.APIKeyEnv == "" {
		return fmt.Errorf("api_key or api_key_env is required for account %q", a.ID)
	}
	if a.RequestTimeoutMs < 0 {
		return fmt.Errorf("request_timeout_ms must not be negative for account %q", a.ID)
	}
	return nil
}

// Token resolves the API key, preferring the inline value.
func (a Account) Token() (string, error) {
	if a.APIKey != "" {
		return a.APIKey, nil
	}
	if v := strings.TrimSpace(os.Getenv(a.APIKeyEnv)); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("account %q: environment variable %s is empty", a.ID, a.APIKeyEnv)
}

// RequestTimeout returns the per-request timeout, or zero to use the client default.
func (a Account) RequestTimeout() time.Duration {
	if a.RequestTimeoutMs <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutMs) * time.Millisecond
}

// EnabledValue returns enabled flag defaulting to true.
func (a Account) EnabledValue() bool {
	if a.Enabled == nil {
		return true
	}
	return *a.Enabled
}

// ByID returns the account by id.
func (r *Registry) ByID(id string) (Account, bool) {
	if r == nil {
		return Account{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Account{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.idx[id]
	return a, ok
}

// All returns all configured accounts.
func (r *Registry) All() []Account {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Account, len(r.accounts))
	copy(out, r.accounts)
	return out
}

// Enabled returns accounts that are enabled.
func (r *Registry) Enabled() []Account {
	all := r.All()
	if len(all) == 0 {
		return nil
	}
	out := make([]Account, 0, len(all))
	for _, a := range all {
		if a.EnabledValue() {
			out = append(out, a)
		}
	}
	return out
}
