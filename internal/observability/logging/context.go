package logging

import (
	"context"
	"regexp"

	"github.com/google/uuid"
)

type Module string

const (
	ModuleReminder   Module = "reminder"
	ModuleDispatch   Module = "dispatch"
	ModuleSuggestion Module = "suggestion"
	ModuleTrigger    Module = "trigger"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	moduleKey
)

var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{8,128}$`)

// ValidateAndExtractRequestID keeps a caller supplied request id when it is
// safe to log and otherwise issues a fresh one.
func ValidateAndExtractRequestID(header string) string {
	if requestIDPattern.MatchString(header) {
		return header
	}

	return uuid.Must(uuid.NewV7()).String()
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}

	return ""
}

func WithModule(ctx context.Context, module Module) context.Context {
	return context.WithValue(ctx, moduleKey, module)
}

func ModuleFromContext(ctx context.Context) Module {
	if v, ok := ctx.Value(moduleKey).(Module); ok {
		return v
	}

	return ""
}
