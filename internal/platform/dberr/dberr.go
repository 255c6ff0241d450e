// Copyright (c) 2026 Folivafy authors. All rights reserved.

// Package dberr provides a bridge between low-level Postgres errors and the
// service core's [apperr.AppError] taxonomy.
package dberr

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ErikWegner/folivafy-go/internal/platform/apperr"
)

// Wrap inspects a Postgres error and classifies it into an [apperr.AppError].
//
// A unique-violation (SQLSTATE 23505) becomes Conflict; a missing row
// becomes NotFound; everything else becomes an internal server error.
// what is used in the NotFound message when the error is pgx.ErrNoRows;
// dupMessage is used for the Conflict message.
func Wrap(err error, what, dupMessage string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(what)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return apperr.Conflict(dupMessage)
	}

	return apperr.Internal(err)
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation, regardless of which constraint fired. Callers that need to
// distinguish which unique index tripped (collection name vs document id)
// inspect pgErr.ConstraintName themselves before falling back to Wrap.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
