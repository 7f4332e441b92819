package preference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bz888/tsdr/internal/logger"
	"go.uber.org/zap"
)

const fileName = "preferences.json"

var errCorrupt = errors.New("preferences file corrupt")

// FileStore keeps all values in a single JSON object on disk.
type FileStore struct {
	mu     sync.Mutex
	file   string
	logger *zap.Logger
}

func NewFileStore(file string) *FileStore {
	return &FileStore{file: file, logger: logger.NewLogger("preference")}
}

// DefaultFilePath returns preferences.json under the user config directory.
func DefaultFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "tsdr", fileName), nil
}

func (s *FileStore) Path() string {
	return s.file
}

func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.readAll()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.readAll()
	if errors.Is(err, errCorrupt) {
		s.logger.Warn("Preferences file unreadable, starting over", zap.String("file", s.file), zap.Error(err))
		values = map[string]string{}
	} else if err != nil {
		return err
	}
	values[key] = value
	return s.saveAll(values)
}

func (s *FileStore) readAll() (map[string]string, error) {
	data, err := os.ReadFile(s.file)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read preferences: %w", err)
	}

	values := map[string]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errCorrupt, s.file, err)
	}
	return values, nil
}

func (s *FileStore) saveAll(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.file), 0755); err != nil {
		return fmt.Errorf("create preferences dir: %w", err)
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.file, data, 0600)
}
