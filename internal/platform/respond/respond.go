// Copyright (c) 2026 Folivafy authors. All rights reserved.

/*
Package respond writes HTTP responses for the API layer.

Unlike a generic platform envelope, every response here is the bare
resource — a list object, a detail object, or for the "text" success
responses a plain created-id string — because the wire contract this
repository implements returns bare JSON, not a data/meta wrapper.
*/
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ErikWegner/folivafy-go/internal/platform/apperr"
	"github.com/ErikWegner/folivafy-go/internal/platform/ctxkey"
)

// # Response Helpers

// JSON writes a JSON response with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// OK writes a 200 OK response with the payload as bare JSON.
func OK(writer http.ResponseWriter, data interface{}) {
	JSON(writer, http.StatusOK, data)
}

// Created writes a 201 Created response with the payload as bare JSON.
func Created(writer http.ResponseWriter, data interface{}) {
	JSON(writer, http.StatusCreated, data)
}

// CreatedText writes a 201 Created response whose body is a plain text
// identifier (the create/update/event endpoints return the document id
// as text, not a JSON object).
func CreatedText(writer http.ResponseWriter, text string) {
	writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	writer.WriteHeader(http.StatusCreated)
	_, _ = writer.Write([]byte(text))
}

// NoContent writes a 204 No Content response.
func NoContent(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusNoContent)
}

// # Error Handling

// Error converts any Go error into the standard JSON error body and
// writes it with the status code the underlying [apperr.AppError] carries.
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	var appError *apperr.AppError

	if !errors.As(err, &appError) {
		logger := getLoggerFromContext(request)
		logger.ErrorContext(request.Context(), "unhandled_error_swallowed",
			slog.String("error", err.Error()),
			slog.String("span_id", getSpanIDFromContext(request)),
		)
		appError = apperr.Internal(err)
	}

	if appError.HTTPStatus >= 500 {
		logger := getLoggerFromContext(request)
		logger.ErrorContext(request.Context(), "api_server_error",
			slog.String("code", appError.Code),
			slog.String("span_id", getSpanIDFromContext(request)),
			slog.Any("cause", appError.Cause),
		)
	}

	JSON(writer, appError.HTTPStatus, appError)
}

func getLoggerFromContext(request *http.Request) *slog.Logger {
	if logger, ok := request.Context().Value(ctxkey.KeyLogger).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

func getSpanIDFromContext(request *http.Request) string {
	if id, ok := request.Context().Value(ctxkey.KeySpanID).(string); ok {
		return id
	}
	return ""
}
