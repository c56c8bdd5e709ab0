package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ayo6706/mobile-money-ledger/internal/api/middleware"
	"github.com/ayo6706/mobile-money-ledger/internal/api/problem"
	"github.com/ayo6706/mobile-money-ledger/internal/auth"
	"github.com/ayo6706/mobile-money-ledger/internal/domain"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// RespondJSON writes a JSON response.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// RespondError writes an error response.
func RespondError(w http.ResponseWriter, r *http.Request, status int, problemType, message string) {
	problem.Write(w, r, status, problem.Type(problemType), http.StatusText(status), message)
}

// writeError maps err onto a problem response. Business errors keep their
// message and code; anything else is logged and hidden behind a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	de, ok := domain.AsError(err)
	if !ok {
		zap.L().Error("request failed",
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("trace_id", middleware.TraceIDFromContext(r.Context())))
		RespondError(w, r, http.StatusInternalServerError, "internal/unexpected", "internal server error")
		return
	}

	status := statusForKind(de.Kind)
	problem.WriteDetails(w, r, problem.Details{
		Type:   problem.Type(de.Code),
		Status: status,
		Detail: err.Error(),
		Code:   de.Code,
	})
}

func statusForKind(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation, domain.KindInsufficientFunds:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a single JSON object into dst. Malformed bodies and
// malformed amounts surface as validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, domain.ErrInvalidAmount) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return domain.ErrInvalidInput
		}
		return fmt.Errorf("%w: malformed JSON body", domain.ErrInvalidInput)
	}
	return nil
}

// caller returns the authenticated identity. Routes that reach a handler
// without one are misconfigured.
func caller(r *http.Request) (auth.Identity, error) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return auth.Identity{}, domain.ErrUnauthorized
	}
	return identity, nil
}
