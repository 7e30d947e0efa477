package control

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dbehnke/rptd/internal/config"
	"github.com/dbehnke/rptd/internal/database"
	"github.com/dbehnke/rptd/internal/dtmf"
	"github.com/dbehnke/rptd/internal/rpt"
)

// fakeDispatch is a hand-rolled Dispatcher for exercising the verb table
// without a real Daemon/Node.
type fakeDispatch struct {
	nodes     []string
	snapshots map[string]rpt.Snapshot
	sentText  []string
	reloaded  []string
	restarted []string
}

func (f *fakeDispatch) NodeNames() []string { return f.nodes }

func (f *fakeDispatch) Snapshot(node string) (rpt.Snapshot, bool) {
	s, ok := f.snapshots[node]
	return s, ok
}

func (f *fakeDispatch) Stats(node string) (database.NodeStats, bool) {
	if node != "N1" {
		return database.NodeStats{}, false
	}
	return database.NodeStats{NodeName: "N1", TotalKeyups: 3}, true
}

func (f *fakeDispatch) AllStats() []database.NodeStats {
	return []database.NodeStats{{NodeName: "N1", TotalKeyups: 3}}
}

func (f *fakeDispatch) ExecuteDTMF(node string, src dtmf.Source, digits string) (dtmf.Result, error) {
	return dtmf.Complete, nil
}

func (f *fakeDispatch) SendText(node, line string) error {
	f.sentText = append(f.sentText, node+":"+line)
	return nil
}

func (f *fakeDispatch) SendAll(line string) error {
	f.sentText = append(f.sentText, "*:"+line)
	return nil
}

func (f *fakeDispatch) LocalPlay(node, sound string) error { return nil }

func (f *fakeDispatch) Reload(node string) error {
	f.reloaded = append(f.reloaded, node)
	return nil
}

func (f *fakeDispatch) Restart(node string) error {
	f.restarted = append(f.restarted, node)
	return nil
}

func (f *fakeDispatch) Sysstate(node string, index int) error { return nil }

func (f *fakeDispatch) Page(node, target string) error { return nil }

func (f *fakeDispatch) NodeDump() []RosterPeerInfo {
	return []RosterPeerInfo{{Callsign: "W1AW", NodeName: "N2", Host: "10.0.0.2", Port: 34001}}
}

func (f *fakeDispatch) NodeGet(num string) (config.NodeEntry, bool) {
	if num != "1999" {
		return config.NodeEntry{}, false
	}
	return config.NodeEntry{Number: "1999", Callsign: "W1AW", Host: "10.0.0.2", Port: 34001}, true
}

func testServer() (*Server, *fakeDispatch) {
	fd := &fakeDispatch{
		nodes: []string{"N1", "N2"},
		snapshots: map[string]rpt.Snapshot{
			"N1": {Name: "N1", Callsign: "W1AW", Links: 2},
		},
	}
	return New(fd, nil, nil), fd
}

func postControl(t *testing.T, srv *Server, req Request) Response {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/control", bytes.NewReader(body))
	srv.Handler().ServeHTTP(w, r)

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestDispatchNodes(t *testing.T) {
	srv, _ := testServer()
	resp := postControl(t, srv, Request{Verb: "nodes"})
	if !resp.OK {
		t.Fatalf("expected ok, got error %q", resp.Error)
	}
}

func TestDispatchShowUnknownNode(t *testing.T) {
	srv, _ := testServer()
	resp := postControl(t, srv, Request{Verb: "show", Node: "N9"})
	if resp.OK {
		t.Fatalf("expected failure for unknown node")
	}
}

func TestDispatchShowMissingNodeArg(t *testing.T) {
	srv, _ := testServer()
	resp := postControl(t, srv, Request{Verb: "show"})
	if resp.OK {
		t.Fatalf("expected failure when node argument is omitted")
	}
}

func TestDispatchFunRequiresDigits(t *testing.T) {
	srv, _ := testServer()
	resp := postControl(t, srv, Request{Verb: "fun", Node: "N1"})
	if resp.OK {
		t.Fatalf("expected failure when digits argument is omitted")
	}
}

func TestDispatchSendtextReachesDispatcher(t *testing.T) {
	srv, fd := testServer()
	resp := postControl(t, srv, Request{Verb: "sendtext", Node: "N1", Args: []string{"hello", "world"}})
	if !resp.OK {
		t.Fatalf("expected ok, got error %q", resp.Error)
	}
	if len(fd.sentText) != 1 || fd.sentText[0] != "N1:hello world" {
		t.Fatalf("expected sendtext to join args with spaces, got %v", fd.sentText)
	}
}

func TestDispatchUnknownVerb(t *testing.T) {
	srv, _ := testServer()
	resp := postControl(t, srv, Request{Verb: "bogus"})
	if resp.OK {
		t.Fatalf("expected failure for unknown verb")
	}
}

func TestDispatchNodeget(t *testing.T) {
	srv, _ := testServer()
	resp := postControl(t, srv, Request{Verb: "nodeget", Args: []string{"1999"}})
	if !resp.OK {
		t.Fatalf("expected ok, got error %q", resp.Error)
	}
}
