package database

import (
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ConnKind classifies connectivity failures.
type ConnKind int

const (
	// ConnOther covers transient failures that are retried by the wake-up policy.
	ConnOther ConnKind = iota
	// ConnActivationTimeout means the backing store never came up within the
	// bounded retry budget (scale-to-zero compute that failed to resume).
	ConnActivationTimeout
	// ConnDNSFailure means the host could not be resolved. Not retryable.
	ConnDNSFailure
	// ConnAuthFailure means credentials were rejected. Not retryable.
	ConnAuthFailure
)

func (k ConnKind) String() string {
	switch k {
	case ConnActivationTimeout:
		return "activation_timeout"
	case ConnDNSFailure:
		return "dns_failure"
	case ConnAuthFailure:
		return "auth_failure"
	default:
		return "other"
	}
}

// ConnectivityError is returned when the database cannot be reached.
type ConnectivityError struct {
	Kind     ConnKind
	Attempts int
	Err      error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("database connectivity (%s) after %d attempt(s): %v", e.Kind, e.Attempts, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// Retryable reports whether the wake-up policy may retry this failure.
func (e *ConnectivityError) Retryable() bool {
	return e.Kind != ConnDNSFailure && e.Kind != ConnAuthFailure
}

// ConstraintViolation is a unique or check constraint breach surfaced to the
// caller. Keys carries the offending column names, never their values, so the
// error is safe to log.
type ConstraintViolation struct {
	Op         string
	Table      string
	Constraint string
	Keys       []string
	Err        error
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("%s on %s violates constraint %q (keys: %s)",
		e.Op, e.Table, e.Constraint, strings.Join(e.Keys, ", "))
}

func (e *ConstraintViolation) Unwrap() error { return e.Err }

// MigrationError wraps a failure inside a migration's up or down step. The
// runner does not record the version as applied or rolled back in this case.
type MigrationError struct {
	Version   string
	Direction string
	Err       error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration %s %s failed: %v", e.Version, e.Direction, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

// SQLSTATE classes of interest.
const (
	sqlstateUniqueViolation = "23505"
	sqlstateCheckViolation  = "23514"
	sqlstateFKViolation     = "23503"
	sqlstateInvalidPassword = "28P01"
	sqlstateInvalidAuthSpec = "28000"
)

// WrapConstraint converts an integrity-class Postgres error into a
// ConstraintViolation with enough structured detail (operation, table, keys)
// to log without leaking statement text. Other errors pass through unchanged.
func WrapConstraint(op, table string, keys []string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlstateUniqueViolation, sqlstateCheckViolation, sqlstateFKViolation:
			return &ConstraintViolation{
				Op:         op,
				Table:      table,
				Constraint: pgErr.ConstraintName,
				Keys:       keys,
				Err:        err,
			}
		}
	}
	return err
}

// IsNotFound reports whether err is the no-rows sentinel. Lookup operations in
// this layer return (nil, nil) instead, so this exists for raw scan sites.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// ClassifyConnError buckets a connection-stage error into a ConnKind.
func ClassifyConnError(err error) ConnKind {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ConnDNSFailure
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlstateInvalidPassword, sqlstateInvalidAuthSpec:
			return ConnAuthFailure
		}
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no such host"), strings.Contains(msg, "could not translate host name"):
		return ConnDNSFailure
	case strings.Contains(msg, "password authentication failed"), strings.Contains(msg, "authentication failed"):
		return ConnAuthFailure
	}
	return ConnOther
}
