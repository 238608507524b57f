package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"metaregistryCheck/internal/model"
)

// JsonlStorage writes case results to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

var _ Sink = (*JsonlStorage)(nil)

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutResults appends a batch of results as JSON lines.
func (s *JsonlStorage) PutResults(_ context.Context, results []model.CaseResult) error {
	if len(results) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range results {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal case result: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write case result: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
