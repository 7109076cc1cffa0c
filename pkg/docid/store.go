package docid

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"threadscli/pkg/logger"
)

// Record is the on-disk form of a discovered Set
type Record struct {
	ProtocolIDs map[Query]string `json:"protocolIds"`
	// Timestamp is the discovery time in Unix milliseconds
	Timestamp    int64  `json:"timestamp"`
	SessionToken string `json:"sessionToken,omitempty"`
}

// Time returns the discovery time
func (r *Record) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// Store persists a Record as a JSON file
type Store struct {
	path   string
	logger logger.Logger
}

// NewStore creates a store at path. The parent directory is created on first save.
func NewStore(path string, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Store{path: path, logger: log}
}

// Path returns the cache file location
func (s *Store) Path() string {
	return s.path
}

// Load reads the record. A missing or unreadable file yields nil, nil.
func (s *Store) Load() (*Record, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read doc id cache: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(content, &rec); err != nil || rec.Timestamp <= 0 || len(rec.ProtocolIDs) == 0 {
		s.logger.WarnWithFields("ignoring corrupt doc id cache", map[string]interface{}{
			"path":  s.path,
			"error": err,
		})
		return nil, nil
	}

	s.logger.DebugWithFields("doc id cache loaded", map[string]interface{}{
		"path":       s.path,
		"ids":        len(rec.ProtocolIDs),
		"discovered": rec.Time(),
	})
	return &rec, nil
}

// Save writes the record atomically through a temporary file
func (s *Store) Save(rec *Record) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tempPath := s.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary cache file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(rec); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode doc id cache: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync cache file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close cache file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace cache file: %w", err)
	}

	s.logger.DebugWithFields("doc id cache saved", map[string]interface{}{
		"path": s.path,
		"ids":  len(rec.ProtocolIDs),
	})
	return nil
}

// Delete removes the cache file
func (s *Store) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete doc id cache: %w", err)
	}
	return nil
}
