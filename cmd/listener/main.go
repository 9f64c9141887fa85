package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"minechat/retry"
	"minechat/storage"
	"minechat/transport"
)

// Exit codes for the listener application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the listener-side environment variables.
type Config struct {
	Host        string `env:"HOST,default=minechat.dvmn.org"`
	ListenPort  int    `env:"LISTEN_PORT,default=5000"`
	HistoryFile string `env:"HISTORY_FILE,default=minechat.history"`
	LogLevel    string `env:"LOG_LEVEL,default=INFO"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Listener error: %v\n", err)
	}
	os.Exit(code)
}

// run connects to the read-only chat port and logs every broadcast line,
// timestamped, to the console and the history file. It reconnects on
// transient network failures until interrupted.
func run() (int, error) {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	history := storage.NewHistoryStore(config.HistoryFile, log)
	address := fmt.Sprintf("%s:%d", config.Host, config.ListenPort)
	policy := retry.NewPolicy(log, 0)

	log.Info("Listening started", "address", address)
	err := policy.Do(ctx, func(ctx context.Context) error {
		return listen(ctx, address, history, log)
	})
	if ctx.Err() != nil {
		log.Info("Listening cancelled")
		return exitOK, nil
	}
	return exitRuntime, err
}

func listen(ctx context.Context, address string, history storage.HistoryStore, log *slog.Logger) error {
	t, err := transport.Dial(ctx, address)
	if err != nil {
		return err
	}
	unregister := context.AfterFunc(ctx, func() { _ = t.Close() })
	defer unregister()
	defer t.Close()

	for {
		message, err := t.ReadLine()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		line := storage.Timestamped(time.Now(), message)
		fmt.Println(line)
		if err := history.Append(line); err != nil {
			log.Error("History append failed", "error", err)
		}
	}
}
