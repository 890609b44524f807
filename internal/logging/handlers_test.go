package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNewTeeHandlerCollapses(t *testing.T) {
	if _, ok := newTeeHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when both sides are nil")
	}

	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newTeeHandler(nil, inner); h != inner {
		t.Fatal("expected the file handler to be returned unwrapped")
	}
	if h := newTeeHandler(inner, nil); h != inner {
		t.Fatal("expected the console handler to be returned unwrapped")
	}
}

func TestTeeHandlerRespectsEachLevel(t *testing.T) {
	var consoleBuf, fileBuf bytes.Buffer
	h := newTeeHandler(
		slog.NewJSONHandler(&consoleBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&fileBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected tee to accept debug when the file side does")
	}

	logger := slog.New(h)
	logger.Debug("evicting", Frame(4))
	logger.Info("evicted", Frame(4))

	if strings.Contains(consoleBuf.String(), "evicting") {
		t.Fatal("console received a debug record")
	}
	if !strings.Contains(consoleBuf.String(), "evicted") {
		t.Fatal("console missed the info record")
	}
	if !strings.Contains(fileBuf.String(), "evicting") || !strings.Contains(fileBuf.String(), "evicted") {
		t.Fatalf("file missed records: %s", fileBuf.String())
	}
}

func TestTeeHandlerWithAttrsReachesBothSides(t *testing.T) {
	var a, b bytes.Buffer
	h := newTeeHandler(slog.NewJSONHandler(&a, nil), slog.NewJSONHandler(&b, nil))
	logger := slog.New(h).With(String(FieldComponent, "framecache")).WithGroup("report")
	logger.Info("done", Int("passes", 2))

	for name, buf := range map[string]*bytes.Buffer{"console": &a, "file": &b} {
		out := buf.String()
		if !strings.Contains(out, `"component":"framecache"`) || !strings.Contains(out, `"report":{"passes":2}`) {
			t.Fatalf("%s output missing attrs: %s", name, out)
		}
	}
}

func TestTeeHandlerWritesRecordOncePerSide(t *testing.T) {
	var a, b bytes.Buffer
	h := newTeeHandler(slog.NewJSONHandler(&a, nil), slog.NewJSONHandler(&b, nil))

	record := slog.NewRecord(time.Now(), slog.LevelInfo, "tick", 0)
	record.AddAttrs(Frame(7))
	if err := h.Handle(context.Background(), record); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if strings.Count(a.String(), `"frame":7`) != 1 || strings.Count(b.String(), `"frame":7`) != 1 {
		t.Fatalf("unexpected outputs %q / %q", a.String(), b.String())
	}
}

func TestJSONHandlerKeepsCacheValuesMachineReadable(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newJSONHandler(&buf, levelVar, false))
	logger.Info("frame cache eviction complete",
		Bytes("bytes_after", 3<<20),
		Frames("removed_range", 10, 20),
		Spans("blocks", []FrameSpan{{Start: 0, End: 4}, {Start: 9, End: 12, Locked: true}}),
		Duration("duration", 1500*time.Microsecond),
	)

	var record struct {
		TS       string      `json:"ts"`
		Level    string      `json:"level"`
		After    int64       `json:"bytes_after"`
		Removed  FrameSpan   `json:"removed_range"`
		Blocks   []FrameSpan `json:"blocks"`
		Duration string      `json:"duration"`
	}
	line := bytes.TrimSpace(buf.Bytes())
	if err := json.Unmarshal(line, &record); err != nil {
		t.Fatalf("decode %s: %v", line, err)
	}

	if record.Level != "info" || record.After != 3<<20 || record.Duration != "1.5ms" {
		t.Fatalf("unexpected record %s", line)
	}
	if record.Removed != (FrameSpan{Start: 10, End: 20}) {
		t.Fatalf("removed_range = %+v", record.Removed)
	}
	if len(record.Blocks) != 2 || !record.Blocks[1].Locked {
		t.Fatalf("blocks = %+v", record.Blocks)
	}
	if _, err := time.Parse(jsonTimeLayout, record.TS); err != nil {
		t.Fatalf("ts %q: %v", record.TS, err)
	}
}

func TestFormatValueRendersCacheValues(t *testing.T) {
	cases := []struct {
		attr Attr
		want string
	}{
		{Bytes("bytes_after", 9216), "9.0 KiB"},
		{Frames("range", 3, 8), "[3, 8)"},
		{Spans("blocks", []FrameSpan{{Start: 0, End: 2}, {Start: 5, End: 6, Locked: true}}), "[0, 2) [5, 6) locked"},
		{Spans("blocks", nil), "none"},
		{String("hint", "unlock frames"), `"unlock frames"`},
		{Duration("duration", 2500*time.Microsecond), "2.5ms"},
	}
	for _, tc := range cases {
		if got := formatValue(tc.attr.Value); got != tc.want {
			t.Fatalf("formatValue(%s) = %q, want %q", tc.attr.Key, got, tc.want)
		}
	}
	if got := attrString(slog.StringValue("framecache playback")); got != "framecache playback" {
		t.Fatalf("attrString quoted header text: %q", got)
	}
}
