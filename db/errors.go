package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"google.golang.org/api/googleapi"
)

// Kind categorises a warehouse error without exposing driver codes.
type Kind int

const (
	KindUnknown          Kind = iota
	KindNotFound              // unknown table, dataset or row
	KindConnectionFailed      // cannot reach the warehouse
	KindTimeout               // context deadline or cancellation
	KindQueryFailed           // SQL rejected or failed at runtime
	KindInvalidInput          // bad arguments from the caller
	KindPermissionDenied      // access denied or auth failure
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConnectionFailed:
		return "connection_failed"
	case KindTimeout:
		return "timeout"
	case KindQueryFailed:
		return "query_failed"
	case KindInvalidInput:
		return "invalid_input"
	case KindPermissionDenied:
		return "permission_denied"
	default:
		return "unknown"
	}
}

// Error is returned by every Warehouse method.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an *Error without a cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an *Error around a driver error.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

func IsNotFound(err error) bool         { return KindOf(err) == KindNotFound }
func IsTimeout(err error) bool          { return KindOf(err) == KindTimeout }
func IsConnectionFailed(err error) bool { return KindOf(err) == KindConnectionFailed }
func IsQueryFailed(err error) bool      { return KindOf(err) == KindQueryFailed }
func IsPermissionDenied(err error) bool { return KindOf(err) == KindPermissionDenied }

// KindOf extracts the Kind from any error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// classify maps a driver error to a Kind and wraps it with msg.
// fallback applies when nothing more specific is recognised.
func classify(msg string, err error, fallback Kind) error {
	if err == nil {
		return nil
	}
	var already *Error
	if errors.As(err, &already) {
		return err
	}
	return Wrap(kindFor(err, fallback), msg, err)
}

func kindFor(err error, fallback Kind) Kind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTimeout
	}
	if errors.Is(err, sql.ErrNoRows) {
		return KindNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "42P01" || pgErr.Code == "3F000":
			return KindNotFound
		case strings.HasPrefix(pgErr.Code, "28") || pgErr.Code == "42501":
			return KindPermissionDenied
		case strings.HasPrefix(pgErr.Code, "08"):
			return KindConnectionFailed
		case pgErr.Code == "57014":
			return KindTimeout
		default:
			return KindQueryFailed
		}
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1146, 1049:
			return KindNotFound
		case 1044, 1045, 1142:
			return KindPermissionDenied
		default:
			return KindQueryFailed
		}
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		switch gErr.Code {
		case http.StatusNotFound:
			return KindNotFound
		case http.StatusUnauthorized, http.StatusForbidden:
			return KindPermissionDenied
		case http.StatusBadRequest:
			return KindQueryFailed
		}
	}
	return fallback
}
