package writer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Deadletter appends records that survived reconciliation unsaved to a JSONL
// file for offline replay.
type Deadletter struct {
	path string
	mu   sync.Mutex
}

func NewDeadletter(path string) *Deadletter {
	return &Deadletter{path: path}
}

// Append writes one record as a JSON line.
func (d *Deadletter) Append(record any) error {
	dir := filepath.Dir(d.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dead-letter dir: %w", err)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	file, err := os.OpenFile(d.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open dead-letter file: %w", err)
	}
	defer file.Close()

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	line = append(line, '\n')
	if _, err := file.Write(line); err != nil {
		return fmt.Errorf("write record: %w", err)
	}

	return nil
}
