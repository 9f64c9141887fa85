package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"minechat/domain"
	"minechat/protocol"
	"minechat/storage"
	"minechat/transport"
)

// Exit codes for the sender application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the sender-side environment variables. The message itself
// comes from the command line.
type Config struct {
	Host           string `env:"HOST,default=minechat.dvmn.org"`
	SendPort       int    `env:"SEND_PORT,default=5050"`
	Nickname       string `env:"NICKNAME,default=Anonymous"`
	Token          string `env:"TOKEN"`
	CredentialsDir string `env:"CREDENTIALS_DIR,default=."`
	LogLevel       string `env:"LOG_LEVEL,default=INFO"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Sender error: %v\n", err)
	}
	os.Exit(code)
}

// run sends one message to the chat. Without a token it registers the
// configured nickname first and saves the returned credentials for reuse.
func run() (int, error) {
	message := flag.String("message", "", "message that will be sent to the chat")
	flag.Parse()
	if *message == "" {
		return exitConfig, fmt.Errorf("--message is required")
	}

	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	address := fmt.Sprintf("%s:%d", config.Host, config.SendPort)
	proto := protocol.NewClient(log)

	token := config.Token
	if token == "" {
		credsStore := storage.NewCredentialsStore(config.CredentialsDir, log)
		creds, err := register(ctx, proto, address, config.Nickname)
		if err != nil {
			return exitRuntime, fmt.Errorf("registration failed: %w", err)
		}
		if _, err := credsStore.Save(creds); err != nil {
			return exitRuntime, fmt.Errorf("saving credentials: %w", err)
		}
		token = creds.AccountHash
	}

	if err := send(ctx, proto, address, token, *message); err != nil {
		return exitRuntime, fmt.Errorf("sending failed: %w", err)
	}
	log.Info("Message sent", "length", len(*message))
	return exitOK, nil
}

func register(ctx context.Context, proto protocol.Client, address, nickname string) (domain.Credentials, error) {
	t, err := transport.Dial(ctx, address)
	if err != nil {
		return domain.Credentials{}, err
	}
	defer t.Close()
	return proto.Register(t, nickname)
}

func send(ctx context.Context, proto protocol.Client, address, token, message string) error {
	t, err := transport.Dial(ctx, address)
	if err != nil {
		return err
	}
	defer t.Close()

	if _, err := proto.Authorize(t, token); err != nil {
		return err
	}
	return proto.Send(t, message)
}
