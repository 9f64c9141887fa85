//go:generate go run go.uber.org/mock/mockgen -source=history.go -destination=../mocks/mock_history.go -package=mocks
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"
)

const timestampLayout = "2006.01.02 15:04"

type IHistoryStore interface {
	Append(line string) error
	ReadAll() ([]string, error)
}

// HistoryStore is the append-only plain-text chat log. Every Append is an
// independent open/write/close cycle, so concurrent writers are serialized
// by the filesystem rather than by a shared handle.
type HistoryStore struct {
	path string
	log  *slog.Logger
}

func NewHistoryStore(path string, log *slog.Logger) HistoryStore {
	return HistoryStore{path: path, log: log}
}

func (h HistoryStore) Append(line string) error {
	file, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	_, writeErr := file.WriteString(line + "\n")
	closeErr := file.Close()
	if writeErr != nil {
		return fmt.Errorf("append history: %w", writeErr)
	}
	return closeErr
}

// ReadAll returns every persisted line in file order. A missing file is not
// an error: it simply means there is no history yet.
func (h HistoryStore) ReadAll() ([]string, error) {
	data, err := os.ReadFile(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		h.log.Debug("No history file yet", "path", h.path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n"), nil
}

// Timestamped prefixes a message the way the listener logs it, e.g.
// "[2026.08.30 13:45] hello".
func Timestamped(at time.Time, message string) string {
	return fmt.Sprintf("[%s] %s", at.Format(timestampLayout), message)
}
