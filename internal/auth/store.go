package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Store is a durable key-value slot backed by a single JSON file. Writes go
// through a temp file and rename so a crash never leaves a torn file.
type Store struct {
	path string
}

// NewStore places the credentials file under dir, creating dir if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create credentials dir: %w", err)
	}
	return &Store{path: filepath.Join(dir, "credentials.json")}, nil
}

// Get returns the stored value for key and whether it was present.
func (s *Store) Get(key string) (string, bool, error) {
	values, err := s.read()
	if err != nil {
		return "", false, err
	}
	value, ok := values[key]
	return value, ok, nil
}

// Set persists value under key.
func (s *Store) Set(key, value string) error {
	values, err := s.read()
	if err != nil {
		return err
	}
	values[key] = value
	return s.write(values)
}

// Remove deletes key. Removing an absent key is not an error.
func (s *Store) Remove(key string) error {
	values, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return s.write(values)
}

func (s *Store) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return values, nil
}

func (s *Store) write(values map[string]string) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(s.path), "cred-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp credentials: %w", err)
	}
	encoder := json.NewEncoder(tmpFile)
	if err := encoder.Encode(values); err != nil {
		tmpFile.Close()
		_ = os.Remove(tmpFile.Name())
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpFile.Name())
		return fmt.Errorf("close temp credentials: %w", err)
	}
	if err := os.Chmod(tmpFile.Name(), 0o600); err != nil {
		_ = os.Remove(tmpFile.Name())
		return fmt.Errorf("chmod credentials: %w", err)
	}
	return os.Rename(tmpFile.Name(), s.path)
}
