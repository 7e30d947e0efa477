package hooks

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeMarkerScript(t *testing.T, markerPath string) string {
	t.Helper()
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "marker.sh")
	script := "#!/bin/sh\necho \"$@\" > " + markerPath + "\n"
	if err := os.WriteFile(scriptPath, []byte(script), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return scriptPath
}

func waitForFile(t *testing.T, path string) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if b, err := os.ReadFile(path); err == nil {
			return string(b)
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", path)
	return ""
}

func TestFireConnectRunsProgram(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker.txt")
	script := writeMarkerScript(t, marker)

	h := New(Config{ConnPgm: script}, nil)
	h.FireConnect("N1", "31234")

	out := waitForFile(t, marker)
	if out != "N1 31234\n" {
		t.Fatalf("unexpected marker contents: %q", out)
	}
}

func TestFireDisconnectRunsProgram(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker.txt")
	script := writeMarkerScript(t, marker)

	h := New(Config{DiscPgm: script}, nil)
	h.FireDisconnect("N1", "31234")

	waitForFile(t, marker)
}

func TestPostStatsPostsToURL(t *testing.T) {
	received := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- body
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := New(Config{StatPostURL: srv.URL}, nil)
	h.PostStats("N1", []byte(`{"node":"N1"}`))

	select {
	case body := <-received:
		if string(body) != `{"node":"N1"}` {
			t.Fatalf("unexpected posted body: %s", body)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for stats POST")
	}
}

func TestHooksNoopWhenUnconfigured(t *testing.T) {
	h := New(Config{}, nil)
	h.FireConnect("N1", "31234")
	h.FireDisconnect("N1", "31234")
	h.PostStats("N1", nil)
}
