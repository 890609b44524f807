package logging

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type (
	Attr  = slog.Attr
	Value = slog.Value
)

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Float64(key string, value float64) Attr { return slog.Float64(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// Frame tags a record with the frame it concerns.
func Frame(frame int) Attr { return slog.Int(FieldFrame, frame) }

// Playhead tags a record with the playback position.
func Playhead(frame int) Attr { return slog.Int(FieldPlayhead, frame) }

// ByteSize is a byte count. The console prints it in IEC units and the JSON
// file keeps the integer.
type ByteSize int64

func (b ByteSize) String() string { return formatBytes(int64(b)) }

// Bytes records a byte count under key.
func Bytes(key string, n int64) Attr { return slog.Any(key, ByteSize(n)) }

// FrameSpan is the half-open frame range [Start, End).
type FrameSpan struct {
	Start  int  `json:"start"`
	End    int  `json:"end"`
	Locked bool `json:"locked,omitempty"`
}

func (s FrameSpan) String() string {
	text := fmt.Sprintf("[%d, %d)", s.Start, s.End)
	if s.Locked {
		text += " locked"
	}
	return text
}

// Frames records the range [start, end) under key.
func Frames(key string, start, end int) Attr {
	return slog.Any(key, FrameSpan{Start: start, End: end})
}

// Spans records a list of cached runs, such as the blocks left after an
// eviction, under key.
func Spans(key string, spans []FrameSpan) Attr { return slog.Any(key, spans) }

func joinSpans(spans []FrameSpan) string {
	if len(spans) == 0 {
		return "none"
	}
	parts := make([]string, len(spans))
	for i, span := range spans {
		parts[i] = span.String()
	}
	return strings.Join(parts, " ")
}

func Args(attrs ...Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}

func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger creates a logger with a standardized component attribute.
// If logger is nil, a no-op logger is used as the base.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// WarnWithContext logs a warning carrying event_type, error_hint and impact.
// Fields missing from attrs get defaults.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = withDefault(attrs, FieldEventType, eventType)
	attrs = withDefault(attrs, FieldErrorHint, defaultErrorHint)
	attrs = withDefault(attrs, FieldImpact, "frame cache keeps running")
	logger.Warn(msg, Args(attrs...)...)
}

// ErrorWithContext logs an error carrying event_type and error_hint.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = withDefault(attrs, FieldEventType, eventType)
	attrs = withDefault(attrs, FieldErrorHint, defaultErrorHint)
	logger.Error(msg, Args(attrs...)...)
}

const defaultErrorHint = "rerun with logging.level = \"debug\" for frame-level detail"

func withDefault(attrs []Attr, key, value string) []Attr {
	for _, a := range attrs {
		if a.Key == key {
			return attrs
		}
	}
	return append(attrs, String(key, value))
}
