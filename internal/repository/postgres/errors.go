package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the schema's constraints can raise.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsPgDuplicateError reports whether err is a unique constraint
// violation: a duplicate section key, project name or version number.
func IsPgDuplicateError(err error) bool {
	return pgErrCode(err) == codeUniqueViolation
}

// IsPgForeignKeyError reports whether err is a foreign key violation,
// a row referencing a project or section that no longer exists.
func IsPgForeignKeyError(err error) bool {
	return pgErrCode(err) == codeForeignKeyViolation
}

// IsPgNoRowsError reports whether err is pgx's no-rows sentinel.
func IsPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
