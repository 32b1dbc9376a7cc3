package gmail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// CredentialStore persists the token bundle between runs.
// Load returns nil, nil when nothing has been stored yet.
type CredentialStore interface {
	Load(ctx context.Context) (*TokenBundle, error)
	Save(ctx context.Context, bundle *TokenBundle) error
}

// FileStore keeps the bundle as JSON on local disk. It does no locking; one
// writer per file is assumed.
type FileStore struct {
	Path string
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Load(_ context.Context) (*TokenBundle, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("unable to open token file: %w", err)
	}
	defer f.Close()

	bundle := &TokenBundle{}
	if err := json.NewDecoder(f).Decode(bundle); err != nil {
		return nil, fmt.Errorf("unable to decode token file %s: %w", s.Path, err)
	}
	return bundle, nil
}

func (s *FileStore) Save(_ context.Context, bundle *TokenBundle) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("unable to create token directory: %w", err)
	}
	f, err := os.OpenFile(s.Path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("unable to save oauth token: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(bundle); err != nil {
		return fmt.Errorf("unable to encode oauth token: %w", err)
	}
	return nil
}

// MemoryStore holds the bundle in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	bundle *TokenBundle
	saves  int
}

// NewMemoryStore returns a store seeded with initial, which may be nil.
func NewMemoryStore(initial *TokenBundle) *MemoryStore {
	s := &MemoryStore{}
	if initial != nil {
		s.bundle = initial.clone()
	}
	return s
}

func (s *MemoryStore) Load(_ context.Context) (*TokenBundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bundle == nil {
		return nil, nil
	}
	return s.bundle.clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, bundle *TokenBundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundle = bundle.clone()
	s.saves++
	return nil
}

// Saves reports how many times Save has been called.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
