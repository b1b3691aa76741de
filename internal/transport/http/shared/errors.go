package shared

import (
	"errors"
	"log/slog"
	"net/http"

	"paystub/internal/domain/payments"
	"paystub/internal/domain/payroll"
	"paystub/internal/domain/stubs"
	"paystub/internal/transport/http/api"
)

// WriteError maps a domain error onto the API envelope. Unknown errors are
// logged and reported as a generic 500.
func WriteError(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, payroll.ErrInvalidArgument),
		errors.Is(err, payments.ErrInvalidEmail),
		errors.Is(err, ErrUnsupportedPayload):
		api.Fail(w, http.StatusBadRequest, "invalid_argument", err.Error(), requestID)
	case errors.Is(err, payroll.ErrOutOfRange):
		api.Fail(w, http.StatusUnprocessableEntity, "out_of_range", err.Error(), requestID)
	case errors.Is(err, payments.ErrTokenInvalid):
		api.Fail(w, http.StatusForbidden, "token_invalid", "payment token is invalid, expired or already used", requestID)
	case errors.Is(err, payments.ErrTokenNotFound), errors.Is(err, payments.ErrSessionNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, stubs.ErrDocumentFillFailed):
		logFailure(err, requestID)
		api.Fail(w, http.StatusInternalServerError, "document_fill_failed", "could not fill the stub template", requestID)
	case errors.Is(err, stubs.ErrDocumentConversionFailed):
		logFailure(err, requestID)
		api.Fail(w, http.StatusInternalServerError, "document_conversion_failed", "could not convert a stub to PDF", requestID)
	case errors.Is(err, stubs.ErrArchiveFailed):
		logFailure(err, requestID)
		api.Fail(w, http.StatusInternalServerError, "archive_failed", "could not build the archive", requestID)
	default:
		logFailure(err, requestID)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal error", requestID)
	}
}

func logFailure(err error, requestID string) {
	slog.Error("request failed", "requestId", requestID, "err", err)
}
