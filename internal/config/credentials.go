package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/snakeladder-arena/internal/commentary"
)

// CredentialStore holds one API key per provider. Keys are opaque: they are
// never logged and never leave the store except to build a client.
type CredentialStore interface {
	Get(p commentary.Provider) (string, bool)
	Set(p commentary.Provider, key string) error
	Providers() []commentary.Provider
}

// MemoryStore is a CredentialStore that lives only in memory.
type MemoryStore struct {
	mu   sync.RWMutex
	keys map[commentary.Provider]string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{keys: make(map[commentary.Provider]string)}
}

func (s *MemoryStore) Get(p commentary.Provider) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.keys[p]
	return key, ok && key != ""
}

// Set stores key for p. An empty key removes the entry.
func (s *MemoryStore) Set(p commentary.Provider, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(p, key)
	return nil
}

func (s *MemoryStore) set(p commentary.Provider, key string) {
	key = strings.TrimSpace(key)
	if key == "" {
		delete(s.keys, p)
		return
	}
	s.keys[p] = key
}

func (s *MemoryStore) Providers() []commentary.Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedProviders(s.keys)
}

// FileStore is a CredentialStore persisted as YAML with owner-only
// permissions. It loads on open and saves after every change.
type FileStore struct {
	MemoryStore
	path string
}

type credentialFile struct {
	Keys map[string]string `yaml:"keys"`
}

// DefaultCredentialsPath is ~/.snakeladder/credentials.yaml.
func DefaultCredentialsPath() string {
	return UserPath("credentials.yaml")
}

// OpenFileStore loads the store at path. A missing file is an empty store.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		MemoryStore: MemoryStore{keys: make(map[commentary.Provider]string)},
		path:        ExpandHome(path),
	}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: cannot read credentials: %w", err)
	}
	var f credentialFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: cannot parse credentials %s: %w", s.path, err)
	}
	for name, key := range f.Keys {
		p, err := commentary.ParseProvider(name)
		if err != nil {
			continue
		}
		s.set(p, key)
	}
	return s, nil
}

// Path returns the file backing the store.
func (s *FileStore) Path() string { return s.path }

// Set stores key for p and rewrites the file.
func (s *FileStore) Set(p commentary.Provider, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(p, key)
	return s.save()
}

func (s *FileStore) save() error {
	f := credentialFile{Keys: make(map[string]string, len(s.keys))}
	for p, key := range s.keys {
		f.Keys[string(p)] = key
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("config: cannot encode credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("config: cannot create directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("config: cannot write credentials: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("config: cannot write credentials: %w", err)
	}
	return nil
}

// envCredentials maps the conventional provider variables.
type envCredentials struct {
	OpenAI     string `env:"OPENAI_API_KEY"`
	Anthropic  string `env:"ANTHROPIC_API_KEY"`
	Gemini     string `env:"GEMINI_API_KEY"`
	OpenRouter string `env:"OPENROUTER_API_KEY"`
	Groq       string `env:"GROQ_API_KEY"`
	Grok       string `env:"XAI_API_KEY"`
}

func (e envCredentials) byProvider() map[commentary.Provider]string {
	return map[commentary.Provider]string{
		commentary.OpenAI:     e.OpenAI,
		commentary.Anthropic:  e.Anthropic,
		commentary.Gemini:     e.Gemini,
		commentary.OpenRouter: e.OpenRouter,
		commentary.Groq:       e.Groq,
		commentary.Grok:       e.Grok,
	}
}

// overlayStore answers from environment keys first and writes to base.
type overlayStore struct {
	base CredentialStore
	env  map[commentary.Provider]string
}

// WithEnv layers the *_API_KEY environment variables over base. A nil
// environ reads the process environment.
func WithEnv(base CredentialStore, environ map[string]string) (CredentialStore, error) {
	var e envCredentials
	if err := env.ParseWithOptions(&e, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	keys := make(map[commentary.Provider]string)
	for p, key := range e.byProvider() {
		if key = strings.TrimSpace(key); key != "" {
			keys[p] = key
		}
	}
	return &overlayStore{base: base, env: keys}, nil
}

func (s *overlayStore) Get(p commentary.Provider) (string, bool) {
	if key, ok := s.env[p]; ok {
		return key, true
	}
	return s.base.Get(p)
}

func (s *overlayStore) Set(p commentary.Provider, key string) error {
	return s.base.Set(p, key)
}

func (s *overlayStore) Providers() []commentary.Provider {
	all := make(map[commentary.Provider]string, len(s.env))
	for p, key := range s.env {
		all[p] = key
	}
	for _, p := range s.base.Providers() {
		all[p] = ""
	}
	return sortedProviders(all)
}

func sortedProviders[V any](m map[commentary.Provider]V) []commentary.Provider {
	out := make([]commentary.Provider, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
