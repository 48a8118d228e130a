package logging

import (
	"context"
	"log/slog"
)

// Standard attribute keys.
const (
	FieldComponent = "component"
	// FieldRunID identifies one end-to-end generation run.
	FieldRunID = "run_id"
	// FieldOperation names the pipeline operation (trim, extract_audio, burn_subtitles).
	FieldOperation = "operation"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint carries the suggested next step for a warning or error.
	FieldErrorHint = "error_hint"
	// FieldImpact says what a warning means for the produced clip.
	FieldImpact = "impact"
	// FieldSourceStream is the source container stream index a line refers to.
	FieldSourceStream = "source_stream"
)

type ctxKey int

const (
	runIDKey ctxKey = iota
	operationKey
)

// contextKeys pairs each context key with the attribute it becomes.
var contextKeys = []struct {
	key   ctxKey
	field string
}{
	{runIDKey, FieldRunID},
	{operationKey, FieldOperation},
}

// WithRunID stores the run identifier on ctx.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// WithOperation stores the active pipeline operation on ctx.
func WithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, operationKey, op)
}

// ContextFields returns the run and operation attributes stored on ctx.
func ContextFields(ctx context.Context) []Attr {
	if ctx == nil {
		return nil
	}
	var fields []Attr
	for _, k := range contextKeys {
		if v, ok := ctx.Value(k.key).(string); ok && v != "" {
			fields = append(fields, slog.String(k.field, v))
		}
	}
	return fields
}

// WithContext returns logger tagged with the fields from ContextFields.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
