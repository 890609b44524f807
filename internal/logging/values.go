package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	consoleTimeLayout = "2006-01-02 15:04:05"
	jsonTimeLayout    = "2006-01-02T15:04:05.000Z07:00"
)

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.In(time.Local).Format(consoleTimeLayout)
}

func formatBytes(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}

func formatDurationHuman(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return d.String()
	case d < time.Second:
		return d.Round(100 * time.Microsecond).String()
	default:
		return d.Round(time.Millisecond).String()
	}
}

// attrString renders v without quoting, for header fields.
func attrString(v slog.Value) string {
	text, _ := renderValue(v)
	return text
}

// formatValue renders v for the console. Free text is quoted when it would
// be ambiguous on a key: value line.
func formatValue(v slog.Value) string {
	text, freeText := renderValue(v)
	if freeText && needsQuotes(text) {
		return strconv.Quote(text)
	}
	return text
}

func renderValue(v slog.Value) (string, bool) {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String(), true
	case slog.KindBool:
		return strconv.FormatBool(v.Bool()), false
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10), false
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10), false
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64), false
	case slog.KindDuration:
		return formatDurationHuman(v.Duration()), false
	case slog.KindTime:
		return formatTimestamp(v.Time()), false
	case slog.KindAny:
		switch value := v.Any().(type) {
		case ByteSize:
			return value.String(), false
		case FrameSpan:
			return value.String(), false
		case []FrameSpan:
			return joinSpans(value), false
		case error:
			return value.Error(), true
		default:
			return fmt.Sprint(value), true
		}
	default:
		return v.String(), true
	}
}

// jsonValue converts values for the JSON file. Durations become strings such
// as "1.5ms" instead of nanosecond integers.
func jsonValue(v slog.Value) slog.Value {
	switch v.Kind() {
	case slog.KindDuration:
		return slog.StringValue(v.Duration().String())
	case slog.KindAny:
		if n, ok := v.Any().(ByteSize); ok {
			return slog.Int64Value(int64(n))
		}
	}
	return v
}

func needsQuotes(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			return true
		}
	}
	return false
}
