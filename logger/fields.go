package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for structured logging.
// Use these constants instead of raw strings to keep log queries stable.
const (
	// Identity and context
	FieldRequestID = "request_id"
	FieldSessionID = "session_id"

	// Components
	FieldComponent = "component"
	FieldTool      = "tool"

	// Operations
	FieldOperation = "operation"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldURL       = "url"
	FieldQuery     = "query"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError  = "error"
	FieldStatus = "status"

	// Counts
	FieldCount      = "count"
	FieldLimit      = "limit"
	FieldPage       = "page"
	FieldTotalCount = "total_count"

	// Network
	FieldAddress   = "address"
	FieldTransport = "transport"

	// Catalog and search
	FieldFile               = "file"
	FieldExerciseTemplateID = "exercise_template_id"
	FieldTranslatedQuery    = "translated_query"
	FieldTopScore           = "top_score"
)

type contextKey string

const (
	requestIDKey contextKey = "logger_request_id"
	componentKey contextKey = "logger_component"
)

// WithRequestID adds a request ID to the context for logging
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// RequestIDFromContext returns the request ID stored by WithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey).(string)
	return requestID
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		fields = append(fields, FieldRequestID, requestID)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}

	return fields
}

// LoggerFromContext returns the global logger enriched with fields from ctx.
func LoggerFromContext(ctx context.Context) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return Logger
	}
	return Logger.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	store := catalog.NewStore(paths, logger.ComponentLogger("catalog"))
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
