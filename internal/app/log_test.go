package app

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestGVHandler_Format(t *testing.T) {
	t.Run("writes tab-separated fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(&gvHandler{w: &buf, opID: "op-123"})

		logger.Info("asset added", "id", 7, "storage_path", "encrypted/a.age")

		line := strings.TrimRight(buf.String(), "\n")
		fields := strings.Split(line, "\t")
		if len(fields) != 6 {
			t.Fatalf("field count = %d, want 6 (line: %q)", len(fields), line)
		}
		if fields[1] != "INFO" {
			t.Errorf("level = %q, want INFO", fields[1])
		}
		if fields[2] != "op-123" {
			t.Errorf("opID = %q, want op-123", fields[2])
		}
		if fields[3] != "asset added" {
			t.Errorf("message = %q, want %q", fields[3], "asset added")
		}
		if fields[4] != "id=7" {
			t.Errorf("attr = %q, want id=7", fields[4])
		}
		if fields[5] != "storage_path=encrypted/a.age" {
			t.Errorf("attr = %q, want storage_path=encrypted/a.age", fields[5])
		}
	})

	t.Run("carries pre-set attrs through With", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(&gvHandler{w: &buf, opID: "op-123"}).With("op", "Ingest")

		logger.Warn("audit write failed")

		if !strings.Contains(buf.String(), "op=Ingest") {
			t.Errorf("line %q missing pre-set attr op=Ingest", buf.String())
		}
		if !strings.Contains(buf.String(), "WARN") {
			t.Errorf("line %q missing level", buf.String())
		}
	})
}
