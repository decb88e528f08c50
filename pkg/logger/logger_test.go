package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestFromContextEnrichesFields(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "debug", "json")
	defer Init("info", "json")

	ctx := WithContext(context.Background(), RequestIDKey, "req-1")
	ctx = WithContext(ctx, UserIDKey, "u-9")
	Error(ctx, "feed failed", errors.New("boom"), "history", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not json: %v (%s)", err, buf.String())
	}
	for key, want := range map[string]any{
		"msg":        "feed failed",
		"request_id": "req-1",
		"user_id":    "u-9",
		"error":      "boom",
		"level":      "ERROR",
	} {
		if entry[key] != want {
			t.Errorf("%s = %v, want %v", key, entry[key], want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "DEBUG"},
		{"WARNING", "WARN"},
		{"error", "ERROR"},
		{"bogus", "INFO"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseLevel(tt.in).String(); got != tt.want {
				t.Errorf("parseLevel(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestContextFieldsAndSource(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "info", "json")
	defer Init("info", "json")

	ctx := WithScene(context.Background(), "similar")
	ctx = WithContext(ctx, DestinationKey, int64(12))
	ctx = WithContext(ctx, SceneKey, "feed")
	Info(ctx, "recommend done")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not json: %v (%s)", err, buf.String())
	}
	if entry["scene"] != "feed" {
		t.Errorf("scene = %v, want the last value", entry["scene"])
	}
	if entry["destination_id"] != float64(12) {
		t.Errorf("destination_id = %v", entry["destination_id"])
	}
	src, _ := entry["source"].(map[string]any)
	if file, _ := src["file"].(string); !strings.HasSuffix(file, "logger_test.go") {
		t.Errorf("source file = %v, want the caller", src["file"])
	}
}

func TestDebugSuppressedAtInfo(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "info", "text")
	defer Init("info", "json")

	Debug(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug line written at info level: %s", buf.String())
	}
}
