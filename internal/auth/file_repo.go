package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileRepository stores the candidate allowlist as a JSON array on disk.
type FileRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileRepository(path string) (*FileRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure allowlist dir: %w", err)
	}
	return &FileRepository{path: path}, nil
}

func (r *FileRepository) LoadAll() ([]Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadUnlocked()
}

func (r *FileRepository) Upsert(c Candidate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cs, err := r.loadUnlocked()
	if err != nil {
		return err
	}
	replaced := false
	for i, existing := range cs {
		if existing.ID == c.ID {
			cs[i] = c
			replaced = true
			break
		}
	}
	if !replaced {
		cs = append(cs, c)
	}
	return r.saveUnlocked(cs)
}

func (r *FileRepository) Remove(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cs, err := r.loadUnlocked()
	if err != nil {
		return err
	}
	out := cs[:0]
	for _, c := range cs {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return r.saveUnlocked(out)
}

// loadUnlocked treats a missing or malformed file as an empty allowlist.
func (r *FileRepository) loadUnlocked() ([]Candidate, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read allowlist: %w", err)
	}
	var cs []Candidate
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, nil
	}
	return cs, nil
}

func (r *FileRepository) saveUnlocked(cs []Candidate) error {
	data, err := json.MarshalIndent(cs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal allowlist: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write allowlist: %w", err)
	}
	return nil
}
