package api

import (
	"errors"
	"net/http"

	"shareit/internal/domain"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// httpStatus maps a service error to its response code. Unknown errors are
// internal.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotAvailable),
		errors.Is(err, domain.ErrInvalidValidation),
		errors.Is(err, domain.ErrUnknownState):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func grpcCode(err error) codes.Code {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return codes.NotFound
	case errors.Is(err, domain.ErrNotAvailable):
		return codes.FailedPrecondition
	case errors.Is(err, domain.ErrInvalidValidation),
		errors.Is(err, domain.ErrUnknownState):
		return codes.InvalidArgument
	case errors.Is(err, domain.ErrConflict):
		return codes.AlreadyExists
	default:
		return codes.Internal
	}
}

// writeServiceError renders err with the mapped status. Internal errors are
// logged and replaced by a generic message.
func writeServiceError(w http.ResponseWriter, logger *zerolog.Logger, err error) {
	code := httpStatus(err)
	if code == http.StatusInternalServerError {
		logger.Error().Err(err).Msg("request failed")
		writeError(w, code, "internal server error")
		return
	}
	writeError(w, code, err.Error())
}

func grpcError(logger *zerolog.Logger, err error) error {
	code := grpcCode(err)
	if code == codes.Internal {
		logger.Error().Err(err).Msg("rpc failed")
		return status.Error(code, "internal error")
	}
	return status.Error(code, err.Error())
}
