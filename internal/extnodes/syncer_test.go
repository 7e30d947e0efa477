package extnodes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeTempNodesFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "rpt_extnodes")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestSyncNowLocalFileOnly(t *testing.T) {
	path := writeTempNodesFile(t, "31234,WIDE1,10.0.0.1,44966,GSM\n")
	s := New(path, nil, 0, nil)
	if err := s.SyncNow(context.Background()); err != nil {
		t.Fatalf("SyncNow: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 node, got %d", s.Len())
	}
	e, ok := s.Lookup("31234")
	if !ok || e.Host != "10.0.0.1" {
		t.Fatalf("unexpected lookup result: %+v ok=%v", e, ok)
	}
}

func TestSyncNowMergesHTTPSource(t *testing.T) {
	path := writeTempNodesFile(t, "31234,WIDE1,10.0.0.1,44966,GSM\n")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("31235,WIDE2,10.0.0.2,44966\n"))
	}))
	defer srv.Close()

	s := New(path, []string{srv.URL}, 0, nil)
	if err := s.SyncNow(context.Background()); err != nil {
		t.Fatalf("SyncNow: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 merged nodes, got %d", s.Len())
	}
}

func TestSyncNowSkipsFailingHTTPSource(t *testing.T) {
	path := writeTempNodesFile(t, "31234,WIDE1,10.0.0.1,44966,GSM\n")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := New(path, []string{srv.URL}, 0, nil)
	if err := s.SyncNow(context.Background()); err != nil {
		t.Fatalf("SyncNow should tolerate a failing HTTP source: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected local-only fallback of 1 node, got %d", s.Len())
	}
}

func TestParseNodeNum(t *testing.T) {
	if _, err := ParseNodeNum("abc"); err == nil {
		t.Fatalf("expected rejection of non-numeric node")
	}
	n, err := ParseNodeNum(" 31234 ")
	if err != nil || n != "31234" {
		t.Fatalf("unexpected result: %q %v", n, err)
	}
}
