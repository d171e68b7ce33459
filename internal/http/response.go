package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"expensetracker/internal/errs"
	"expensetracker/internal/log"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// ResponseBuilder provides a fluent API for JSON responses.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

// NewResponse creates a builder with a 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// Data wraps v in a success envelope.
func (b *ResponseBuilder) Data(v any) *ResponseBuilder {
	b.body = struct {
		Status string `json:"status"`
		Data   any    `json:"data"`
	}{statusSuccess, v}
	return b
}

// Message sets a {status, message} envelope.
func (b *ResponseBuilder) Message(status, msg string) *ResponseBuilder {
	b.body = struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}{status, msg}
	return b
}

// Write sends the response. A nil body writes headers only.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// WriteSuccess writes {status:"success", data}.
func WriteSuccess(w http.ResponseWriter, code int, data any) {
	NewResponse().Status(code).Data(data).Write(w)
}

// WriteError writes {status:"error", message}.
func WriteError(w http.ResponseWriter, code int, msg string) {
	NewResponse().Status(code).Message(statusError, msg).Write(w)
}

// HandleError maps err onto the error envelope. Internal causes are logged,
// never sent.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	var (
		validation *errs.ValidationError
		notFound   *errs.NotFoundError
		database   *errs.DatabaseError
	)
	switch {
	case errors.As(err, &validation):
		logger.WarnContext(ctx, "Request rejected",
			log.FieldErrorType, log.ErrorTypeValidation, log.FieldError, err.Error())
		WriteError(w, http.StatusBadRequest, validation.Message)
	case errors.As(err, &notFound):
		logger.WarnContext(ctx, "Resource not found",
			log.FieldErrorType, log.ErrorTypeNotFound, log.FieldError, err.Error())
		WriteError(w, http.StatusNotFound, notFound.Message)
	case errors.As(err, &database):
		log.NewStructuredLogger(logger).LogError(ctx, "Database error", err,
			logger.Component(), database.Operation,
			log.NewFields().WithErrorType(log.ErrorTypeDatabase))
		WriteError(w, http.StatusInternalServerError, "An error occurred")
	default:
		log.NewStructuredLogger(logger).LogError(ctx, "Unexpected error", err,
			logger.Component(), "",
			log.NewFields().WithErrorType(errorType(err)))
		WriteError(w, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

func errorType(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return log.ErrorTypeTimeout
	}
	return log.ErrorTypeInternal
}
