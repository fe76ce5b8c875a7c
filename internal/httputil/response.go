// Package httputil provides HTTP utility functions for request and response handling.
package httputil

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/credentials/internal/errors"
)

// ErrorResponse is the body of every failed request. Message is the part the
// client shows to its user; Error is a stable machine-readable code.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type errorMapping struct {
	kind    error
	status  int
	code    string
	message string
}

var errorMappings = []errorMapping{
	{apperrors.ErrBadRequest, http.StatusBadRequest, "bad_request", "The request cannot be served"},
	{apperrors.ErrNotFound, http.StatusNotFound, "not_found", "The requested resource was not found"},
	{apperrors.ErrConflict, http.StatusConflict, "conflict", "A conflict occurred with existing data"},
	{apperrors.ErrInvalidInput, http.StatusUnprocessableEntity, "invalid_input", "The request contains invalid data"},
	{apperrors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", "Authentication failed"},
}

// HandleErrorGin maps domain errors to HTTP status codes and writes an ErrorResponse.
//
// A curated message attached with apperrors.NewPublic replaces the default
// text for its kind. Unknown errors become 500 without detail. The full error
// chain is only logged.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	statusCode := http.StatusInternalServerError
	errorResponse := ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	}

	for _, m := range errorMappings {
		if apperrors.Is(err, m.kind) {
			statusCode = m.status
			errorResponse = ErrorResponse{Error: m.code, Message: m.message}
			if msg, ok := apperrors.PublicMessage(err); ok {
				errorResponse.Message = msg
			}
			break
		}
	}

	if logger != nil {
		level := slog.LevelWarn
		if statusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request failed",
			slog.Int("status_code", statusCode),
			slog.String("error_code", errorResponse.Error),
			slog.Any("error", err),
		)
	}

	c.JSON(statusCode, errorResponse)
}

// HandleBadRequestGin writes a 400 Bad Request response for malformed JSON or parameters.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("bad request", slog.Any("error", err))
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "bad_request",
		Message: err.Error(),
	})
}

// HandleValidationErrorGin writes a 422 Unprocessable Entity response for validation errors.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("validation failed", slog.Any("error", err))
	}

	c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
	})
}
