// Package smtp открывает SMTP-сессии для отправки писем. Режим шифрования
// и аутентификация задаются конфигурацией, поэтому тот же код работает и с
// почтовым провайдером, и с локальным ретранслятором без TLS.
package smtp

import (
	"context"
	"io"
)

// Session открытая SMTP-сессия, прошедшая рукопожатие.
type Session interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Dialer открывает сессии и знает адрес отправителя.
type Dialer interface {
	Open(ctx context.Context) (Session, error)
	From() string
}
