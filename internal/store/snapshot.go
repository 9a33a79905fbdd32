package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/defensuk/defens/internal/casefile"
)

// SessionSnapshot is one live session flattened for restart survival: the
// record plus where the wizard stood.
type SessionSnapshot struct {
	Record  *casefile.CaseRecord `json:"record"`
	Screen  string               `json:"screen"`
	History []string             `json:"history"`
}

type Snapshot struct {
	Sessions map[string]SessionSnapshot `json:"sessions"`
}

func LoadSnapshot(path string) (Snapshot, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{Sessions: map[string]SessionSnapshot{}}, nil
		}
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		return Snapshot{}, err
	}
	if snap.Sessions == nil {
		snap.Sessions = map[string]SessionSnapshot{}
	}
	return snap, nil
}

func SaveSnapshot(path string, snap Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	blob, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
