package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
)

// Violation is the class of a database constraint or concurrency failure.
type Violation string

const (
	ViolationNone          Violation = ""
	ViolationUnique        Violation = "unique"
	ViolationForeignKey    Violation = "foreign_key"
	ViolationCheck         Violation = "check"
	ViolationNotNull       Violation = "not_null"
	ViolationSerialization Violation = "serialization"
)

var sqlStates = map[string]Violation{
	"23505": ViolationUnique,
	"23503": ViolationForeignKey,
	"23514": ViolationCheck,
	"23502": ViolationNotNull,
	"40001": ViolationSerialization,
	"40P01": ViolationSerialization,
}

var sqliteMessages = []struct {
	fragment  string
	violation Violation
}{
	{"UNIQUE constraint failed", ViolationUnique},
	{"FOREIGN KEY constraint failed", ViolationForeignKey},
	{"CHECK constraint failed", ViolationCheck},
	{"NOT NULL constraint failed", ViolationNotNull},
	{"database is locked", ViolationSerialization},
}

// Classify returns the violation class of err and the constraint name when
// the driver reports one.
func Classify(err error) (Violation, string) {
	if err == nil {
		return ViolationNone, ""
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return sqlStates[pgErr.Code], pgErr.ConstraintName
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return sqlStates[string(pqErr.Code)], pqErr.Constraint
	}

	msg := err.Error()
	if strings.Contains(msg, "duplicate key value") {
		return ViolationUnique, ""
	}
	for _, m := range sqliteMessages {
		if strings.Contains(msg, m.fragment) {
			return m.violation, ""
		}
	}
	return ViolationNone, ""
}

// IsUniqueViolation reports whether err is a unique constraint violation. A
// non-empty constraintName must also match.
func IsUniqueViolation(err error, constraintName string) bool {
	v, constraint := Classify(err)
	if v != ViolationUnique {
		return false
	}
	if constraintName == "" {
		return true
	}
	if constraint != "" {
		return constraint == constraintName
	}
	return strings.Contains(err.Error(), constraintName)
}

// AsAppError maps a write failure onto the API error codes. Anything that is
// not a constraint failure is reported as a dependency error.
func AsAppError(err error, message string) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	switch v, _ := Classify(err); v {
	case ViolationUnique:
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, message)
	case ViolationForeignKey, ViolationCheck, ViolationNotNull:
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, message)
	case ViolationSerialization:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
	}
}
