package main

import (
	"fmt"
	"time"
)

type Config struct {
	Host                string        `env:"HOST,default=minechat.dvmn.org" validate:"required,hostname|ip"`
	ListenPort          int           `env:"LISTEN_PORT,default=5000" validate:"gte=1,lte=65535"`
	SendPort            int           `env:"SEND_PORT,default=5050" validate:"gte=1,lte=65535"`
	Nickname            string        `env:"NICKNAME,default=Anonymous" validate:"required"`
	Token               string        `env:"TOKEN"`
	HistoryFile         string        `env:"HISTORY_FILE,default=minechat.history" validate:"required"`
	CredentialsDir      string        `env:"CREDENTIALS_DIR,default=."`
	RetryInterval       time.Duration `env:"RETRY_INTERVAL,default=10s"`
	TelemetryInterval   time.Duration `env:"TELEMETRY_INTERVAL"`
	ArchiveDir          string        `env:"ARCHIVE_DIR"`
	ModerationWordsFile string        `env:"MODERATION_WORDS_FILE"`
	ModerationChar      string        `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`
	LogLevel            string        `env:"LOG_LEVEL,default=INFO"`
}

func (c Config) CharacterRune() (rune, error) {
	r := []rune(c.ModerationChar)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"MODERATION_CHARACTER_REPLACEMENT must be a single character, got %q",
			c.ModerationChar,
		)
	}
	return r[0], nil
}
