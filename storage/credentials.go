package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"minechat/domain"
)

// CredentialsStore persists registered credentials, one JSON object per
// nickname, under a single directory. File names follow the historical
// "creds <nickname>" convention.
type CredentialsStore struct {
	dir string
	log *slog.Logger
}

func NewCredentialsStore(dir string, log *slog.Logger) CredentialsStore {
	return CredentialsStore{dir: dir, log: log}
}

// Save writes the credentials file and returns its path.
func (s CredentialsStore) Save(creds domain.Credentials) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("credentials dir: %w", err)
	}
	data, err := json.Marshal(creds)
	if err != nil {
		return "", err
	}
	path := s.pathFor(creds.Nickname)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write credentials: %w", err)
	}
	s.log.Info("Credentials saved", "path", path)
	return path, nil
}

func (s CredentialsStore) Load(nickname string) (domain.Credentials, error) {
	data, err := os.ReadFile(s.pathFor(nickname))
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("read credentials: %w", err)
	}
	var creds domain.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return domain.Credentials{}, fmt.Errorf("parse credentials: %w", err)
	}
	return creds, nil
}

func (s CredentialsStore) pathFor(nickname string) string {
	// Keep the deterministic name flat even for hostile nicknames.
	safe := strings.ReplaceAll(nickname, string(os.PathSeparator), " ")
	return filepath.Join(s.dir, "creds "+safe)
}
