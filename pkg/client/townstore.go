package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// TownStore remembers the town the user is shopping in between runs.
type TownStore interface {
	Town() (string, error)
	SetTown(name string) error
	ClearTown() error
}

type MemoryTownStore struct {
	mu   sync.RWMutex
	town string
}

func (m *MemoryTownStore) Town() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.town, nil
}

func (m *MemoryTownStore) SetTown(name string) error {
	m.mu.Lock()
	m.town = strings.TrimSpace(name)
	m.mu.Unlock()
	return nil
}

func (m *MemoryTownStore) ClearTown() error {
	return m.SetTown("")
}

// FileTownStore keeps the selection in a small JSON file. Writes go through a
// temp file and rename so a crash never leaves a half-written file.
type FileTownStore struct {
	path string
	mu   sync.Mutex
}

type townFile struct {
	Town      string    `json:"town"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewFileTownStore(path string) (*FileTownStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("town store path is required")
	}
	return &FileTownStore{path: path}, nil
}

func (f *FileTownStore) Town() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read town store: %w", err)
	}
	var tf townFile
	if err := json.Unmarshal(raw, &tf); err != nil {
		return "", fmt.Errorf("decode town store: %w", err)
	}
	return tf.Town, nil
}

func (f *FileTownStore) SetTown(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := json.Marshal(townFile{Town: strings.TrimSpace(name), UpdatedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create town store dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write town store: %w", err)
	}
	return os.Rename(tmp, f.path)
}

func (f *FileTownStore) ClearTown() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear town store: %w", err)
	}
	return nil
}
