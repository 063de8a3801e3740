// Package configstore persists an optional local overlay over the
// environment-derived config (internal/config): operators can pin values
// like the registry URL or the auto-create-session policy without setting
// env vars on every invocation. Stored as TOML via pelletier/go-toml/v2,
// written atomically.
package configstore

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

const fileName = "config.toml"

// Overlay holds the subset of config a deployer may want to pin outside
// of the environment. Zero values mean "defer to internal/config".
type Overlay struct {
	RegistryURL       string `toml:"registry_url"`
	RecordsServiceURL string `toml:"records_service_url"`
	AutoCreateSession bool   `toml:"auto_create_session"`
	LegacyPort        int    `toml:"legacy_port"`
}

type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

// LoadOrInit reads the overlay file, creating an empty one if absent.
func (s *Store) LoadOrInit() (Overlay, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Overlay{}, err
	}

	path := filepath.Join(s.dir, fileName)
	b, err := os.ReadFile(path)
	if err == nil {
		var ov Overlay
		if err := toml.Unmarshal(b, &ov); err != nil {
			return Overlay{}, err
		}
		return ov, nil
	}
	if !os.IsNotExist(err) {
		return Overlay{}, err
	}

	ov := Overlay{}
	if err := s.writeAtomically(ov); err != nil {
		return Overlay{}, err
	}
	return ov, nil
}

// Save persists the overlay, replacing the file atomically.
func (s *Store) Save(ov Overlay) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	return s.writeAtomically(ov)
}

func (s *Store) writeAtomically(ov Overlay) error {
	b, err := toml.Marshal(ov)
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, fileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
