// Package protocol speaks the application side of the chat wire format:
// registration, token authorization and the acknowledged send exchange.
// It never dials or retries; it operates on an already open transport.
package protocol

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"minechat/contract"
	"minechat/domain"
	apperrors "minechat/errors"
)

type Client struct {
	log *slog.Logger
}

func NewClient(log *slog.Logger) Client {
	return Client{log: log}
}

// Register obtains fresh credentials for a nickname on a freshly opened
// transport. An empty line requests registration, the prompt is discarded,
// and the server answers with one JSON credentials record.
func (c Client) Register(t contract.LineTransport, nickname string) (domain.Credentials, error) {
	// The server treats an embedded newline as end of nickname.
	nickname = strings.ReplaceAll(nickname, "\n", " ")

	if err := t.WriteLine(""); err != nil {
		return domain.Credentials{}, err
	}

	prompt, err := t.ReadLine()
	if err != nil {
		return domain.Credentials{}, err
	}
	c.log.Debug("Received", "line", prompt)

	if err := t.WriteLine(nickname); err != nil {
		return domain.Credentials{}, err
	}

	reply, err := t.ReadLine()
	if err != nil {
		return domain.Credentials{}, err
	}

	creds, err := parseCredentials(reply)
	if err != nil {
		return domain.Credentials{}, err
	}
	c.log.Info("Registered new user", "nickname", creds.Nickname)
	return creds, nil
}

// Authorize validates a token on a freshly opened transport. On success the
// transport is positioned for regular chat traffic. A null reply means the
// token is unknown, which is terminal.
func (c Client) Authorize(t contract.LineTransport, token string) (domain.Credentials, error) {
	prompt, err := t.ReadLine()
	if err != nil {
		return domain.Credentials{}, err
	}
	c.log.Debug("Received", "line", prompt)

	if err := t.WriteLine(token); err != nil {
		return domain.Credentials{}, err
	}

	reply, err := t.ReadLine()
	if err != nil {
		return domain.Credentials{}, err
	}
	if isNullRecord(reply) {
		return domain.Credentials{}, apperrors.ErrInvalidToken
	}

	creds, err := parseCredentials(reply)
	if err != nil {
		return domain.Credentials{}, err
	}
	c.log.Debug("Logged in", "nickname", creds.Nickname)

	welcome, err := t.ReadLine()
	if err != nil {
		return domain.Credentials{}, err
	}
	c.log.Debug("Received", "line", welcome)

	return creds, nil
}

// Send delivers one message on an authorized transport. Embedded newlines
// split the message into independent protocol exchanges: each line goes out
// followed by a blank terminator and its acknowledgment is read before the
// next line is written.
func (c Client) Send(t contract.LineTransport, message string) error {
	for _, line := range strings.Split(message, "\n") {
		if err := t.WriteLine(line); err != nil {
			return err
		}
		if err := t.WriteLine(""); err != nil {
			return err
		}
		c.log.Debug("Sent", "line", line)

		ack, err := t.ReadLine()
		if err != nil {
			return err
		}
		c.log.Debug("Received", "line", ack)
	}
	return nil
}

func parseCredentials(reply string) (domain.Credentials, error) {
	if isNullRecord(reply) {
		return domain.Credentials{}, fmt.Errorf("%w: null credentials record", apperrors.ErrMalformedReply)
	}
	var creds domain.Credentials
	if err := json.Unmarshal([]byte(reply), &creds); err != nil {
		return domain.Credentials{}, fmt.Errorf("%w: %v", apperrors.ErrMalformedReply, err)
	}
	if creds.Nickname == "" || creds.AccountHash == "" {
		return domain.Credentials{}, fmt.Errorf("%w: missing credential fields", apperrors.ErrMalformedReply)
	}
	return creds, nil
}

func isNullRecord(reply string) bool {
	return strings.TrimSpace(reply) == "null"
}
