//go:generate go run go.uber.org/mock/mockgen -source=archive.go -destination=../mocks/mock_archive.go -package=mocks
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const archivePrefix = "msg:"

type ArchivedMessage struct {
	ID   uuid.UUID `json:"id"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

type IArchiveRepository interface {
	Store(message ArchivedMessage) error
	Recent(limit int) ([]ArchivedMessage, error)
	Search(ctx context.Context, query string, limit int) ([]ArchivedMessage, error)
}

// ArchiveRepository keeps every observed message in BadgerDB and mirrors its
// text into a bluge index so the viewer can search history offline.
type ArchiveRepository struct {
	db    *badger.DB
	index *bluge.Writer
	log   *slog.Logger
}

func NewArchiveRepository(db *badger.DB, index *bluge.Writer, log *slog.Logger) *ArchiveRepository {
	return &ArchiveRepository{db: db, index: index, log: log}
}

// Store persists one message.
// The key is formatted as "msg:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
func (a *ArchiveRepository) Store(message ArchivedMessage) error {
	key := archiveKey(message)
	value, err := json.Marshal(message)
	if err != nil {
		return err
	}

	err = a.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return err
	}

	doc := bluge.NewDocument(key).
		AddField(bluge.NewTextField("text", message.Text).StoreValue()).
		AddField(bluge.NewDateTimeField("at", message.At))
	return a.index.Update(doc.ID(), doc)
}

// Recent returns up to limit archived messages, oldest first.
// Thanks to the padded timestamp in the key, a reverse prefix scan yields
// the newest entries; the slice is flipped back to chronological order.
func (a *ArchiveRepository) Recent(limit int) ([]ArchivedMessage, error) {
	var values [][]byte
	err := a.db.View(func(txn *badger.Txn) error {
		prefix := []byte(archivePrefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible key, then walk backwards.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(values) == limit {
				break
			}
			err := it.Item().Value(func(value []byte) error {
				values = append(values, append([]byte{}, value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages, err := decodeAll(values)
	if err != nil {
		return nil, err
	}
	return lo.Reverse(messages), nil
}

// Search runs a full-text match query over archived message text.
func (a *ArchiveRepository) Search(ctx context.Context, query string, limit int) ([]ArchivedMessage, error) {
	reader, err := a.index.Reader()
	if err != nil {
		return nil, fmt.Errorf("open index reader: %w", err)
	}
	defer reader.Close()

	match := bluge.NewMatchQuery(query).SetField("text")
	request := bluge.NewTopNSearch(limit, match)
	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	var keys []string
	for {
		next, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if next == nil {
			break
		}
		err = next.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				keys = append(keys, string(value))
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}

	return a.fetch(keys)
}

func (a *ArchiveRepository) fetch(keys []string) ([]ArchivedMessage, error) {
	var values [][]byte
	err := a.db.View(func(txn *badger.Txn) error {
		for _, key := range keys {
			item, err := txn.Get([]byte(key))
			if err != nil {
				// The index may briefly know keys badger already dropped.
				a.log.Debug("Indexed key missing from archive", "key", key)
				continue
			}
			err = item.Value(func(value []byte) error {
				values = append(values, append([]byte{}, value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decodeAll(values)
}

func archiveKey(message ArchivedMessage) string {
	return fmt.Sprintf("%s%019d:%s", archivePrefix, message.At.UnixNano(), message.ID)
}

func decodeAll(values [][]byte) ([]ArchivedMessage, error) {
	messages := make([]ArchivedMessage, 0, len(values))
	for _, value := range values {
		var message ArchivedMessage
		if err := json.Unmarshal(value, &message); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}
