package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	zlog "github.com/rs/zerolog/log"

	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
	"github.com/yourwae/fastget-backend/pkg/logger"
	"github.com/yourwae/fastget-backend/pkg/pagination"
	"github.com/yourwae/fastget-backend/pkg/types"
)

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Success: true, Data: data})
}

// WriteList writes a collection with its element count.
func WriteList(w http.ResponseWriter, data any, count int) {
	writeJSON(w, http.StatusOK, types.SuccessEnvelope{Success: true, Data: data, Count: &count})
}

// WritePage writes one page of a cursor listing.
func WritePage[T any](w http.ResponseWriter, page pagination.Page[T]) {
	count := len(page.Items)
	writeJSON(w, http.StatusOK, types.SuccessEnvelope{
		Success:    true,
		Data:       page.Items,
		Count:      &count,
		NextCursor: page.NextCursor,
	})
}

// WriteError renders err as the error envelope. Untyped errors become
// INTERNAL_ERROR. Client-facing messages come from the typed error only for
// codes the caller can act on; everything else gets the generic wording.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	if exposesMessage[typed.Code()] && typed.Message() != "" {
		msg = typed.Message()
	}
	apiErr := types.APIError{Code: string(typed.Code()), Message: msg}
	if meta.DetailsAllowed {
		apiErr.Details = typed.Details()
	}

	if logg != nil {
		logError(ctx, logg, err, meta.HTTPStatus)
	}
	writeJSON(w, meta.HTTPStatus, types.ErrorEnvelope{Success: false, Message: msg, Error: apiErr})
}

var exposesMessage = map[pkgerrors.Code]bool{
	pkgerrors.CodeValidation:    true,
	pkgerrors.CodeUnauthorized:  true,
	pkgerrors.CodeForbidden:     true,
	pkgerrors.CodeNotFound:      true,
	pkgerrors.CodeConflict:      true,
	pkgerrors.CodeStateConflict: true,
	pkgerrors.CodeIdempotency:   true,
	pkgerrors.CodeRateLimit:     true,
}

func logError(ctx context.Context, logg *logger.Logger, err error, status int) {
	dump := pkgerrors.Dump(err)
	fields := map[string]any{
		"status":      status,
		"error":       dump.TopMessage,
		"error_code":  dump.Code,
		"error_chain": dump.Chain,
	}
	if dump.RootCause != "" {
		fields["root_cause"] = dump.RootCause
	}
	if dump.Driver != "" {
		fields["db_driver"] = dump.Driver
		fields["pg_code"] = dump.PGCode
		fields["pg_constraint"] = dump.PGConstraint
		fields["pg_table"] = dump.PGTable
		fields["pg_column"] = dump.PGColumn
		fields["pg_detail"] = dump.PGDetail
		fields["pg_message"] = dump.PGMessage
	}

	ctx = logg.WithFields(ctx, fields)
	if status >= http.StatusInternalServerError {
		logg.Error(ctx, "request.error", err)
		return
	}
	logg.Warn(ctx, "request.rejected")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zlog.Error().Err(err).Int("status", status).Msg("response.encode_failed")
	}
}
