package record

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ai-interviewer/internal/interview"
)

// FileStore keeps one JSON document per interview under dir.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure records dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, "interview_"+id+".json")
}

func (s *FileStore) Create(ctx context.Context, rec *interview.Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.Status = interview.StatusDraft
	rec.CreatedAt = time.Now()
	if err := s.write(rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*interview.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(id)
}

func (s *FileStore) Complete(ctx context.Context, id string, answers []interview.Answer,
	textFeedbacks []*interview.TextFeedback, voiceFeedbacks []*interview.VoiceFeedback) (*interview.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.read(id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	rec.Status = interview.StatusCompleted
	rec.Answers = answers
	rec.TextFeedbacks = textFeedbacks
	rec.VoiceFeedbacks = voiceFeedbacks
	rec.CompletedAt = &now
	if err := s.write(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *FileStore) ListByStatus(ctx context.Context, status interview.Status) ([]*interview.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read records dir: %w", err)
	}

	var out []*interview.Record
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "interview_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(name, "interview_"), ".json")
		rec, err := s.read(id)
		if err != nil {
			continue
		}
		if rec.Status == status {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *FileStore) read(id string) (*interview.Record, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read record %s: %w", id, err)
	}
	var rec interview.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record %s: %w", id, err)
	}
	return &rec, nil
}

func (s *FileStore) write(rec *interview.Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := os.WriteFile(s.path(rec.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}
