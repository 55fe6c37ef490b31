// Package localsession persists the device-local patient pointer as a small
// JSON file, surviving restarts the way a browser's local storage would.
package localsession

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"memorylane/config"
	"memorylane/internal/domain/entity"
	"memorylane/internal/domain/service"
)

// filePointerStore implements service.PointerStore on a JSON file.
type filePointerStore struct {
	mu   sync.Mutex
	path string
}

// NewFilePointerStore is the constructor for filePointerStore.
func NewFilePointerStore(cfg *config.Config) service.PointerStore {
	return &filePointerStore{path: cfg.Session.PointerPath}
}

// Load reads the saved pointer. A missing file means no pointer: (nil, nil).
func (s *filePointerStore) Load() (*entity.PatientPointer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "failed to read pointer file")
	}

	var ptr entity.PatientPointer
	if err := json.Unmarshal(raw, &ptr); err != nil {
		return nil, errors.Wrap(err, "pointer file is corrupt")
	}
	if ptr.PatientUID == "" {
		return nil, nil
	}

	return &ptr, nil
}

// Save writes the pointer atomically via a temp file rename.
func (s *filePointerStore) Save(ptr *entity.PatientPointer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(ptr)
	if err != nil {
		return errors.Wrap(err, "failed to encode pointer")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create pointer directory")
	}

	tmp, err := os.CreateTemp(dir, ".pointer-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return errors.Wrap(err, "failed to write pointer")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return errors.Wrap(err, "failed to close temp file")
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())

		return errors.Wrap(err, "failed to replace pointer file")
	}

	return nil
}

// Clear removes the saved pointer. Clearing an absent pointer is a no-op.
func (s *filePointerStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove pointer file")
	}

	return nil
}
