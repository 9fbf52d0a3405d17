package logctx

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestHandler_AddsContextGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := New(slog.New(slog.NewJSONHandler(&buf, nil))).With("component", "test")

	ctx := WithRequestData(context.Background(), &RequestData{RequestID: "r-1", Method: "GET", Path: "/prompt"})
	ctx = WithUserData(ctx, &UserData{UserID: "u-1"})
	ctx = WithToolCallData(ctx, &ToolCallData{ToolName: "compose_frog_prompt"})
	logger.InfoContext(ctx, "http.prompt.ok")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v\n%s", err, buf.String())
	}
	if rec["component"] != "test" {
		t.Fatalf("With attrs lost: %v", rec)
	}
	req, _ := rec["req"].(map[string]any)
	if req["id"] != "r-1" || req["path"] != "/prompt" {
		t.Fatalf("req group = %v", rec["req"])
	}
	user, _ := rec["user"].(map[string]any)
	if user["id"] != "u-1" {
		t.Fatalf("user group = %v", rec["user"])
	}
	tool, _ := rec["tool"].(map[string]any)
	if tool["name"] != "compose_frog_prompt" {
		t.Fatalf("tool group = %v", rec["tool"])
	}
	if _, ok := rec["sess"]; ok {
		t.Fatalf("unexpected sess group: %v", rec["sess"])
	}
}

func TestNew_Idempotent(t *testing.T) {
	l := New(slog.Default())
	if New(l) != l {
		t.Fatalf("New wrapped an already wrapped logger")
	}
}
