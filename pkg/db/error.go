package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes the ingestion path reacts to.
const (
	PGUniqueViolation      = "23505"
	PGLockNotAvailable     = "55P03"
	PGSerializationFailure = "40001"
)

// PGCode returns the SQLSTATE of a postgres error anywhere in err's chain.
func PGCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsDuplicateKeyErr reports a unique-key violation from any supported dialect.
// Natural-key inserts use ON CONFLICT DO NOTHING, so this only fires on
// upload_runs ids or a store without conflict support.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || PGCode(err) == PGUniqueViolation {
		return true
	}
	msg := err.Error()
	for _, marker := range []string{
		"duplicate key value violates unique constraint", // postgres without pgconn
		"Error 1062",                                     // mysql
		"UNIQUE constraint failed",                       // sqlite
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// IsLockTimeout reports a postgres lock_timeout while waiting on a table lock,
// typically a roster replace racing another replace.
func IsLockTimeout(err error) bool {
	return PGCode(err) == PGLockNotAvailable
}

func IsSerializationFailure(err error) bool {
	return PGCode(err) == PGSerializationFailure
}
