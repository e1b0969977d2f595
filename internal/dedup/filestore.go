package dedup

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// FileStore keeps uploaded keys in a newline-delimited file. The whole
// set is loaded once at open; each Mark appends one line and syncs, so
// concurrent completing tasks never clobber previously persisted keys.
type FileStore struct {
	mu   sync.Mutex
	path string
	file *os.File
	keys map[string]struct{}
}

func OpenFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create dedup directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open dedup store: %w", err)
	}

	keys := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.Contains(line, "/") {
			log.Warn().Str("line", line).Msg("Skipping malformed dedup entry")
			continue
		}
		keys[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to read dedup store: %w", err)
	}

	return &FileStore{path: path, file: file, keys: keys}, nil
}

func (s *FileStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[key]
	return ok
}

func (s *FileStore) Mark(key string) error {
	if key == "" || strings.ContainsAny(key, "\n\r") {
		return fmt.Errorf("invalid dedup key: %q", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys[key]; ok {
		return nil
	}

	if _, err := s.file.WriteString(key + "\n"); err != nil {
		return fmt.Errorf("failed to append dedup key: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("failed to flush dedup store: %w", err)
	}

	s.keys[key] = struct{}{}
	return nil
}

func (s *FileStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
