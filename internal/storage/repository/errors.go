package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound запись не найдена.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate нарушено ограничение уникальности.
	ErrDuplicate = errors.New("record already exists")
)

const (
	uniqueViolation = "23505"
	// invalidTextRepresentation приходит, когда id не является UUID.
	invalidTextRepresentation = "22P02"
)

// mapError переводит ошибки драйвера в ошибки пакета.
// Некорректный UUID означает, что такой записи быть не может, поэтому это ErrNotFound.
func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return ErrDuplicate
		case invalidTextRepresentation:
			return ErrNotFound
		}
	}
	return err
}
