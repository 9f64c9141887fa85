package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"minechat/storage"
)

type Config struct {
	ArchiveDir string `env:"ARCHIVE_DIR,default=archive"`
	LogLevel   string `env:"LOG_LEVEL,default=WARN"`
}

// The viewer browses the indexed message archive offline: recent messages
// by default, full-text search with --search.
func main() {
	search := flag.String("search", "", "full-text query over archived messages")
	limit := flag.Int("limit", 20, "maximum number of messages to show")
	flag.Parse()

	// 1. Load config
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	// 2. Open Badger in Read-Only mode
	// Note: BypassLockGuard allows opening while the chat client holds the lock
	opts := badger.DefaultOptions(filepath.Join(config.ArchiveDir, "badger")).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open archive: %v", err)
	}
	defer db.Close()

	index, err := bluge.OpenWriter(bluge.DefaultConfig(filepath.Join(config.ArchiveDir, "index")))
	if err != nil {
		log.Fatalf("Failed to open index: %v", err)
	}
	defer index.Close()

	repository := storage.NewArchiveRepository(db, index, logger)

	// 3. Query
	var messages []storage.ArchivedMessage
	if *search != "" {
		messages, err = repository.Search(context.Background(), *search, *limit)
		color.Cyan.Printf("Search %q — %d result(s)\n", *search, len(messages))
	} else {
		messages, err = repository.Recent(*limit)
		color.Cyan.Printf("Last %d archived message(s)\n", len(messages))
	}
	if err != nil {
		log.Fatalf("Archive query failed: %v", err)
	}

	// 4. Render
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"At", "Message"})
	table.SetAutoWrapText(false)
	for _, row := range lo.Map(messages, toRow) {
		table.Append(row)
	}
	table.Render()
}

func toRow(message storage.ArchivedMessage, _ int) []string {
	return []string{
		message.At.Format("2006.01.02 15:04:05"),
		message.Text,
	}
}
