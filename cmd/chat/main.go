package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-playground/validator/v10"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"minechat/domain"
	"minechat/domain/event"
	"minechat/moderation"
	"minechat/runtime"
	"minechat/storage"
	"minechat/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the client lifecycle, and
// centralizes error reporting, so every defer (badger, bluge) executes
// before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := validator.New().Struct(config); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Token resolution: explicit TOKEN wins, otherwise reuse the
	// credentials saved by a previous registration.
	token := config.Token
	if token == "" {
		credsStore := storage.NewCredentialsStore(config.CredentialsDir, log)
		creds, err := credsStore.Load(config.Nickname)
		if err != nil {
			return fmt.Errorf("no token configured and no saved credentials for %q "+
				"(register with the sender tool first): %w", config.Nickname, err)
		}
		token = creds.AccountHash
		log.Info("Using saved credentials", "nickname", creds.Nickname)
	}

	// 4. Optional moderation
	var moderator moderation.Moderator
	if config.ModerationWordsFile != "" {
		words, err := moderation.LoadWords(config.ModerationWordsFile)
		if err != nil {
			return fmt.Errorf("moderation words: %w", err)
		}
		censoredChar, err := config.CharacterRune()
		if err != nil {
			return err
		}
		moderator, err = moderation.NewModerator(words, censoredChar, log)
		if err != nil {
			return fmt.Errorf("moderation automaton: %w", err)
		}
		log.Info("Moderation enabled", "words", len(words))
	}

	// 5. Optional archive (BadgerDB + bluge index)
	var archive storage.IArchiveRepository
	if config.ArchiveDir != "" {
		db, err := badger.Open(badger.DefaultOptions(filepath.Join(config.ArchiveDir, "badger")).
			WithLoggingLevel(badger.WARNING))
		if err != nil {
			return fmt.Errorf("archive database: %w", err)
		}
		defer func() {
			log.Info("Closing BadgerDB...")
			_ = db.Close()
		}()

		index, err := bluge.OpenWriter(bluge.DefaultConfig(filepath.Join(config.ArchiveDir, "index")))
		if err != nil {
			return fmt.Errorf("archive index: %w", err)
		}
		defer func() {
			log.Info("Closing bluge index...")
			_ = index.Close()
		}()

		archive = storage.NewArchiveRepository(db, index, log)
	}

	// 6. Orchestration
	sup := runtime.NewSupervisor(log, 0)
	orchestrator := runtime.NewOrchestrator(log, sup, runtime.Options{
		ReadAddress:       fmt.Sprintf("%s:%d", config.Host, config.ListenPort),
		WriteAddress:      fmt.Sprintf("%s:%d", config.Host, config.SendPort),
		Token:             token,
		Dialer:            transport.NetDialer{},
		History:           storage.NewHistoryStore(config.HistoryFile, log),
		Archive:           archive,
		Moderator:         moderator,
		RetryInterval:     config.RetryInterval,
		TelemetryInterval: config.TelemetryInterval,
	})
	if err := orchestrator.Start(ctx); err != nil {
		return fmt.Errorf("orchestrator failed to start: %w", err)
	}

	// 7. Console presentation: drain display and status, feed stdin into
	// the outbound queue.
	go printMessages(ctx, orchestrator)
	go printStatus(ctx, orchestrator)
	go readInput(orchestrator)

	// 8. Wait for Ctrl+C, then drain cleanly.
	<-ctx.Done()
	log.Info("Shutting down gracefully...")
	orchestrator.Stop()
	log.Info("Program stopped cleanly")
	return nil
}

func printMessages(ctx context.Context, o *runtime.Orchestrator) {
	for {
		line, err := o.Display.Pop(ctx)
		if err != nil {
			return
		}
		fmt.Println(line)
	}
}

func printStatus(ctx context.Context, o *runtime.Orchestrator) {
	for {
		evt, err := o.Status.Next(ctx)
		if err != nil {
			return
		}
		label := fmt.Sprintf("[%s] %s", evt.Role, evt.State)
		switch evt.State {
		case domain.StateEstablished:
			color.Green.Println(label)
		case domain.StateClosed:
			color.Yellow.Println(label)
		case domain.StateFailed:
			color.Red.Println(label + ": " + failureReason(evt))
		default:
			color.Gray.Println(label)
		}
	}
}

func failureReason(evt event.ConnectionEvent) string {
	if evt.Reason == "" {
		return "session failed"
	}
	return evt.Reason
}

func readInput(o *runtime.Orchestrator) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := scanner.Text()
		if text == "" {
			continue
		}
		o.Outbound.Push(text)
	}
}
