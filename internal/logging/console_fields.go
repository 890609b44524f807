package logging

import (
	"log/slog"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

type infoField struct {
	label string
	value string
}

const infoAttrLimit = 8

// infoHighlightKeys print first, in this order.
var infoHighlightKeys = []string{
	FieldAlert,
	FieldEventType,
	FieldStrategy,
	"frames_removed",
	"bytes_before",
	"bytes_after",
	"max_bytes",
	FieldFrame,
	FieldPlayhead,
	FieldProgressPhase,
	FieldProgressPercent,
	"error",
	FieldErrorHint,
	FieldImpact,
}

// selectInfoFields returns formatted info-level fields and a count of hidden entries.
// limit=0 means no limit.
func selectInfoFields(attrs []kv, limit int) ([]infoField, int) {
	if len(attrs) == 0 {
		return nil, 0
	}
	used := make([]bool, len(attrs))
	result := make([]infoField, 0, infoAttrLimit)
	hidden := 0

	add := func(idx int) {
		used[idx] = true
		attr := attrs[idx]
		if skipInfoKey(attr.key) {
			return
		}
		if isDebugOnlyKey(attr.key) {
			hidden++
			return
		}
		if limit > 0 && len(result) >= limit && !alwaysShowKey(attr.key) {
			hidden++
			return
		}
		result = append(result, infoField{label: displayLabel(attr.key), value: formatValueForKey(attr.key, attr.value)})
	}

	for _, key := range infoHighlightKeys {
		for idx, attr := range attrs {
			if !used[idx] && attr.key == key {
				add(idx)
				break
			}
		}
	}
	for idx := range attrs {
		if !used[idx] {
			add(idx)
		}
	}
	return result, hidden
}

// formatValueForKey renders sizes, durations, and percentages for humans.
func formatValueForKey(key string, v slog.Value) string {
	v = v.Resolve()

	if isByteSizeKey(key) {
		switch v.Kind() {
		case slog.KindInt64:
			return formatBytes(v.Int64())
		case slog.KindUint64:
			return formatBytes(int64(min(v.Uint64(), math.MaxInt64)))
		}
	}
	if v.Kind() == slog.KindDuration {
		return formatDurationHuman(v.Duration())
	}
	if isPercentKey(key) && v.Kind() == slog.KindFloat64 {
		return humanize.FtoaWithDigits(v.Float64(), 1) + "%"
	}
	if v.Kind() == slog.KindBool {
		if v.Bool() {
			return "yes"
		}
		return "no"
	}
	if v.Kind() == slog.KindInt64 && isCountKey(key) {
		return humanize.Comma(v.Int64())
	}
	return formatValue(v)
}

func isByteSizeKey(key string) bool {
	return strings.HasSuffix(key, "_bytes") || key == "size" || key == "bytes"
}

func isPercentKey(key string) bool {
	return strings.HasSuffix(key, "_percent")
}

func isCountKey(key string) bool {
	return strings.HasPrefix(key, "frames_") || strings.HasSuffix(key, "_frames") || key == "entries"
}

func skipInfoKey(key string) bool {
	switch key {
	case "", FieldComponent, FieldSessionID:
		return true
	default:
		return false
	}
}

func isDebugOnlyKey(key string) bool {
	return key == FieldRunID || strings.HasSuffix(key, "_path") || strings.HasSuffix(key, "_seq")
}

func alwaysShowKey(key string) bool {
	switch key {
	case FieldAlert, FieldEventType, "error", FieldErrorHint, FieldImpact:
		return true
	default:
		return false
	}
}

func alwaysShowLabel(label string) bool {
	switch label {
	case "Alert", "Event", "Error", "Hint", "Impact":
		return true
	default:
		return false
	}
}

func displayLabel(key string) string {
	switch key {
	case FieldAlert:
		return "Alert"
	case FieldEventType:
		return "Event"
	case FieldErrorHint:
		return "Hint"
	case FieldImpact:
		return "Impact"
	case "frames_removed":
		return "Removed"
	case "bytes_before":
		return "Before"
	case "bytes_after":
		return "After"
	case "max_bytes":
		return "Budget"
	case FieldPlayhead:
		return "Playhead"
	case FieldProgressPhase:
		return "Phase"
	case FieldProgressPercent:
		return "Progress"
	default:
		return titleizeKey(key)
	}
}

func titleizeKey(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	for i, part := range parts {
		parts[i] = capitalizeASCII(part)
	}
	return strings.Join(parts, " ")
}

func capitalizeASCII(value string) string {
	switch len(value) {
	case 0:
		return ""
	case 1:
		return strings.ToUpper(value)
	default:
		lower := strings.ToLower(value)
		return strings.ToUpper(lower[:1]) + lower[1:]
	}
}

func infoSummaryKey(component, sessionID string) string {
	switch {
	case sessionID != "":
		return component + "/" + sessionID
	default:
		return component
	}
}
