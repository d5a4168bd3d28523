package device

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const idFileName = "device-id"

// DefaultIDPath is where LoadOrCreateID keeps the device id unless told
// otherwise.
func DefaultIDPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}
	return filepath.Join(dir, "nomad", idFileName), nil
}

// LoadOrCreateID returns the device id stored at path, creating and storing
// a new random one when the file is missing or unreadable as a UUID.
func LoadOrCreateID(path string) (uuid.UUID, error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if id, parseErr := uuid.ParseBytes(bytes.TrimSpace(data)); parseErr == nil {
			return id, nil
		}
	case !errors.Is(err, fs.ErrNotExist):
		return uuid.Nil, fmt.Errorf("read device id: %w", err)
	}

	id := uuid.New()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return uuid.Nil, fmt.Errorf("create device id dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(id.String()+"\n"), 0o600); err != nil {
		return uuid.Nil, fmt.Errorf("write device id: %w", err)
	}
	return id, nil
}
