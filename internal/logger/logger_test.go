package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "production").Info("started", "port", 3000)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "started" {
		t.Fatalf("unexpected msg %v", entry["msg"])
	}
}

func TestNewProductionDropsDebug(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "prod").Debug("noise")
	if buf.Len() != 0 {
		t.Fatalf("expected debug to be filtered, got %q", buf.String())
	}
}

func TestNewDevelopmentWritesText(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "development").Debug("details", "k", "v")
	if !strings.Contains(buf.String(), "msg=details") || !strings.Contains(buf.String(), "k=v") {
		t.Fatalf("unexpected text output %q", buf.String())
	}
}
