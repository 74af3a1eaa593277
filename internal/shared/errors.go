package shared

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound indicates resource not found or inactive.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates invalid caller input.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a unique constraint violation.
	ErrConflict = errors.New("already exists")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// ValidationError wraps ErrValidation with a caller-facing message.
func ValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// MapPgError translates Postgres constraint violations into domain errors.
func MapPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		case "23503":
			return fmt.Errorf("%w: %s", ErrNotFound, pgErr.ConstraintName)
		}
	}
	return err
}

// UserSafeMessage converts an error into a message safe to show to users.
// Domain errors keep their text, anything else collapses into a generic line.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return err.Error()
	case errors.Is(err, ErrConflict):
		return "Un enregistrement identique existe déjà"
	case errors.Is(err, ErrNotFound):
		return "Enregistrement introuvable"
	case errors.Is(err, ErrInvalidCredentials):
		return "Email ou mot de passe invalide"
	default:
		return "Une erreur interne est survenue"
	}
}
