package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ArchivedLog tracks which game IDs have already reached the parquet
// archive, backed by an append-only file with one ID per line.
//
// On startup the file is read into memory for fast dedupe; every Add
// appends and fsyncs. A crash mid-write at worst leaves a partial final
// line, which the next startup skips. This is a dedupe list, not a
// general-purpose WAL.
type ArchivedLog struct {
	mu       sync.RWMutex
	path     string
	file     *os.File
	archived map[string]struct{}
}

func OpenArchivedLog(path string) (*ArchivedLog, error) {
	if path == "" {
		return nil, fmt.Errorf("ledger path is required")
	}

	archived := make(map[string]struct{})

	// Best-effort load of existing IDs.
	if f, err := os.Open(path); err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			id := strings.TrimSpace(scanner.Text())
			if id == "" {
				continue
			}
			archived[id] = struct{}{}
		}
		_ = f.Close()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	return &ArchivedLog{
		path:     path,
		file:     file,
		archived: archived,
	}, nil
}

func (l *ArchivedLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *ArchivedLog) Has(gameID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.archived[gameID]
	return ok
}

func (l *ArchivedLog) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.archived)
}

func (l *ArchivedLog) Add(gameID string) error {
	if gameID == "" {
		return fmt.Errorf("gameID is empty")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.archived[gameID]; ok {
		return nil
	}
	if l.file == nil {
		return fmt.Errorf("ledger is closed")
	}

	if _, err := l.file.WriteString(gameID + "\n"); err != nil {
		return fmt.Errorf("append ledger: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync ledger: %w", err)
	}

	l.archived[gameID] = struct{}{}
	return nil
}

// AddMany appends several IDs and syncs once, skipping ones already known.
func (l *ArchivedLog) AddMany(gameIDs []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return fmt.Errorf("ledger is closed")
	}

	added := 0
	for _, id := range gameIDs {
		if id == "" {
			continue
		}
		if _, ok := l.archived[id]; ok {
			continue
		}
		if _, err := l.file.WriteString(id + "\n"); err != nil {
			return fmt.Errorf("append ledger: %w", err)
		}
		l.archived[id] = struct{}{}
		added++
	}

	if added == 0 {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync ledger: %w", err)
	}
	return nil
}
