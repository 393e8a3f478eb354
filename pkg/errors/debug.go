package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump is the log-side view of an error. It never reaches clients.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`
	Retryable  bool   `json:"retryable,omitempty"`
	RootCause  string `json:"root_cause,omitempty"`

	Chain []string `json:"chain,omitempty"`

	Driver       string `json:"driver,omitempty"`
	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`
}

// maxChain caps the unwrapped chain so a deeply wrapped error cannot flood a log line.
const maxChain = 8

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
		d.Retryable = MetadataFor(te.Code()).Retryable
	}

	var root error
	for e := err; e != nil; e = errors.Unwrap(e) {
		root = e
		if len(d.Chain) < maxChain {
			d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
		}
	}
	if root != nil && root != err {
		d.RootCause = root.Error()
	}

	d.addDatabase(err)
	return d
}

func (d *ErrorDump) addDatabase(err error) {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		d.Driver = "pgx"
		d.PGCode = pgxErr.Code
		d.PGConstraint = pgxErr.ConstraintName
		d.PGTable = pgxErr.TableName
		d.PGColumn = pgxErr.ColumnName
		d.PGDetail = pgxErr.Detail
		d.PGMessage = pgxErr.Message
		return
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		d.Driver = "pq"
		d.PGCode = string(pqErr.Code)
		d.PGConstraint = pqErr.Constraint
		d.PGTable = pqErr.Table
		d.PGColumn = pqErr.Column
		d.PGDetail = pqErr.Detail
		d.PGMessage = pqErr.Message
		return
	}

	// The sqlite driver used in dev and tests only exposes a message.
	if msg := err.Error(); strings.Contains(msg, "constraint failed") {
		d.Driver = "sqlite"
		d.PGMessage = msg
	}
}
