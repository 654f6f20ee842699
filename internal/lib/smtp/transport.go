package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"time"

	"github.com/magabrotheeeer/subscription-tracker/internal/config"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
)

// Режимы шифрования соединения.
const (
	// TLSStartTLS обычное соединение, которое переключается на TLS командой STARTTLS.
	TLSStartTLS = "starttls"
	// TLSImplicit TLS с первого байта, обычно порт 465.
	TLSImplicit = "implicit"
	// TLSNone без шифрования, для локальных ретрансляторов вроде MailHog.
	TLSNone = "none"
)

const defaultTimeout = 10 * time.Second

var (
	// ErrUnknownTLSMode в конфигурации указан неизвестный режим шифрования.
	ErrUnknownTLSMode = errors.New("unknown smtp tls mode")
	// ErrStartTLSUnsupported сервер не объявил STARTTLS.
	ErrStartTLSUnsupported = errors.New("smtp server does not support STARTTLS")
	// ErrAuthUnsupported задан пароль, но сервер не объявил AUTH.
	ErrAuthUnsupported = errors.New("smtp server does not support AUTH")
)

// Transport открывает SMTP-сессии по настройкам config.SMTP.
type Transport struct {
	cfg     config.SMTP
	mode    string
	from    string
	timeout time.Duration
	log     *slog.Logger
}

// NewTransport проверяет режим шифрования и создаёт Transport.
// Пустой режим означает STARTTLS, пустой from берётся из имени пользователя.
func NewTransport(cfg config.SMTP, log *slog.Logger) (*Transport, error) {
	const op = "smtp.NewTransport"
	mode := cfg.SMTPTLSMode
	if mode == "" {
		mode = TLSStartTLS
	}
	switch mode {
	case TLSStartTLS, TLSImplicit, TLSNone:
	default:
		return nil, fmt.Errorf("%s: %w: %q", op, ErrUnknownTLSMode, mode)
	}

	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SMTPUser
	}
	timeout := cfg.SMTPTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Transport{
		cfg:     cfg,
		mode:    mode,
		from:    from,
		timeout: timeout,
		log: log.With(
			slog.String("smtp_host", cfg.SMTPHost),
			slog.String("smtp_tls", mode),
		),
	}, nil
}

// From адрес отправителя писем.
func (t *Transport) From() string {
	return t.from
}

// Open подключается к серверу, при необходимости включает TLS и
// аутентифицируется. Аутентификация выполняется только если задан пароль.
// Вся сессия ограничена таймаутом из конфигурации.
func (t *Transport) Open(ctx context.Context) (Session, error) {
	const op = "smtp.Open"

	conn, err := t.dial(ctx)
	if err != nil {
		t.log.Error("failed to dial SMTP server", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := conn.SetDeadline(time.Now().Add(t.timeout)); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	client, err := smtp.NewClient(conn, t.cfg.SMTPHost)
	if err != nil {
		t.log.Error("failed to create SMTP client", sl.Err(err))
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := t.handshake(client); err != nil {
		t.log.Error("smtp handshake failed", sl.Err(err))
		if closeErr := client.Close(); closeErr != nil {
			t.log.Warn("failed to close client", sl.Err(closeErr))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return client, nil
}

func (t *Transport) dial(ctx context.Context) (net.Conn, error) {
	addr := net.JoinHostPort(t.cfg.SMTPHost, t.cfg.SMTPPort)
	d := &net.Dialer{Timeout: t.timeout}
	if t.mode == TLSImplicit {
		td := &tls.Dialer{NetDialer: d, Config: t.tlsConfig()}
		return td.DialContext(ctx, "tcp", addr)
	}
	return d.DialContext(ctx, "tcp", addr)
}

func (t *Transport) handshake(c *smtp.Client) error {
	if t.mode == TLSStartTLS {
		if ok, _ := c.Extension("STARTTLS"); !ok {
			return ErrStartTLSUnsupported
		}
		if err := c.StartTLS(t.tlsConfig()); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if t.cfg.SMTPPass == "" {
		return nil
	}
	if ok, _ := c.Extension("AUTH"); !ok {
		return ErrAuthUnsupported
	}
	if err := c.Auth(smtp.PlainAuth("", t.cfg.SMTPUser, t.cfg.SMTPPass, t.cfg.SMTPHost)); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	return nil
}

func (t *Transport) tlsConfig() *tls.Config {
	return &tls.Config{
		ServerName: t.cfg.SMTPHost,
		MinVersion: tls.VersionTLS12,
	}
}
