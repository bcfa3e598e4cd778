package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/relay-switch/internal/activity"
	"github.com/sweeney/relay-switch/internal/status"
	"github.com/sweeney/relay-switch/internal/syncer"
)

type fakeDevice struct {
	bodies  []string
	value   string
	logs    []activity.Entry
	cleared bool
	logging []bool
	updates int
	err     error
}

func (f *fakeDevice) Hello(body []byte) ([]byte, error) {
	f.bodies = append(f.bodies, string(body))
	if f.err != nil {
		return nil, f.err
	}
	return []byte(`{"id":"switch_1"}`), nil
}

func (f *fakeDevice) Set(body []byte) error {
	f.bodies = append(f.bodies, string(body))
	return f.err
}

func (f *fakeDevice) Value() string { return f.value }

func (f *fakeDevice) BasicData(body []byte) (BasicData, error) {
	f.bodies = append(f.bodies, string(body))
	ts := int64(1700000000)
	return BasicData{Offset: 3600, DST: true, Time: &ts}, f.err
}

func (f *fakeDevice) Logs(limit int) ([]activity.Entry, error) {
	if limit < len(f.logs) {
		return f.logs[len(f.logs)-limit:], nil
	}
	return f.logs, nil
}

func (f *fakeDevice) ClearLogs() error {
	f.cleared = true
	return nil
}

func (f *fakeDevice) SetLogging(enabled bool) { f.logging = append(f.logging, enabled) }

func (f *fakeDevice) CheckForUpdate() { f.updates++ }

func newTestServer(t *testing.T, metrics bool) (*httptest.Server, *status.Tracker, *fakeDevice) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := status.NewTracker(start, status.Config{Broker: "tcp://192.168.1.200:1883", HTTPAddr: ":8080"})
	dev := &fakeDevice{value: "0"}
	srv := New(":0", tr, dev, metrics)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, tr, dev
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHello(t *testing.T) {
	ts, _, dev := newTestServer(t, false)

	resp := do(t, http.MethodPost, ts.URL+"/hello", `{"val":"1"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"id":"switch_1"}` {
		t.Errorf("body: got %s", body)
	}
	if len(dev.bodies) != 1 || dev.bodies[0] != `{"val":"1"}` {
		t.Errorf("bodies: got %v", dev.bodies)
	}
}

func TestHelloParseError(t *testing.T) {
	ts, _, dev := newTestServer(t, false)
	dev.err = fmt.Errorf("%w: bad", syncer.ErrParse)

	resp := do(t, http.MethodPost, ts.URL+"/hello", `{`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", resp.StatusCode)
	}
}

func TestSetInternalError(t *testing.T) {
	ts, _, dev := newTestServer(t, false)
	dev.err = errors.New("disk")

	resp := do(t, http.MethodPut, ts.URL+"/set", `{}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", resp.StatusCode)
	}
}

func TestSetWrongMethod(t *testing.T) {
	ts, _, _ := newTestServer(t, false)

	resp := do(t, http.MethodPost, ts.URL+"/set", `{}`)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", resp.StatusCode)
	}
}

func TestState(t *testing.T) {
	ts, _, dev := newTestServer(t, false)
	dev.value = "12"

	resp := do(t, http.MethodGet, ts.URL+"/state", "")
	var got map[string]int
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got["state"] != 12 {
		t.Errorf("state: got %d, want 12", got["state"])
	}
}

func TestBasicData(t *testing.T) {
	ts, _, _ := newTestServer(t, false)

	resp := do(t, http.MethodPost, ts.URL+"/basicdata", `{"offset":3600}`)
	body, _ := io.ReadAll(resp.Body)
	want := `{"offset":3600,"dst":true,"time":1700000000}`
	if strings.TrimSpace(string(body)) != want {
		t.Errorf("body: got %s, want %s", body, want)
	}
}

func TestLogEndpoints(t *testing.T) {
	ts, _, dev := newTestServer(t, false)
	dev.logs = []activity.Entry{{ID: 1, Text: "a"}, {ID: 2, Text: "b"}}

	resp := do(t, http.MethodGet, ts.URL+"/log?limit=1", "")
	var entries []activity.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Text != "b" {
		t.Errorf("entries: got %+v", entries)
	}

	if resp := do(t, http.MethodGet, ts.URL+"/log?limit=x", ""); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad limit status: got %d", resp.StatusCode)
	}

	if resp := do(t, http.MethodDelete, ts.URL+"/log", ""); resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status: got %d", resp.StatusCode)
	}
	if !dev.cleared {
		t.Error("log not cleared")
	}
}

func TestAdminEndpoints(t *testing.T) {
	ts, _, dev := newTestServer(t, false)

	do(t, http.MethodPost, ts.URL+"/admin/log", "")
	do(t, http.MethodDelete, ts.URL+"/admin/log", "")
	resp := do(t, http.MethodPost, ts.URL+"/admin/update", "")

	if len(dev.logging) != 2 || !dev.logging[0] || dev.logging[1] {
		t.Errorf("logging: got %v, want [true false]", dev.logging)
	}
	if dev.updates != 1 || resp.StatusCode != http.StatusAccepted {
		t.Errorf("update: got %d calls, status %d", dev.updates, resp.StatusCode)
	}
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr, _ := newTestServer(t, false)
	tr.Update(status.Detail{ID: "switch_1", Value: 2})
	tr.SetMQTTConnected(true)

	resp := do(t, http.MethodGet, ts.URL+"/index.json", "")
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}
	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatal(err)
	}
	if sj.Status.Switch.Value != 2 || !sj.Status.MQTT.Connected {
		t.Errorf("status: got %+v", sj.Status)
	}
}

func TestIndexPage(t *testing.T) {
	ts, tr, _ := newTestServer(t, false)
	tr.Update(status.Detail{ID: "switch_1", Smart: "s1_480w", NextSunset: 1000, NextSunrise: -1})

	resp := do(t, http.MethodGet, ts.URL+"/", "")
	body, _ := io.ReadAll(resp.Body)
	html := string(body)

	for _, want := range []string{"switch_1", "s1_480w", "16:40", "unknown", "disconnected"} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestUnknownPath(t *testing.T) {
	ts, _, _ := newTestServer(t, false)

	if resp := do(t, http.MethodGet, ts.URL+"/nope", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestMetrics(t *testing.T) {
	ts, _, _ := newTestServer(t, true)
	if resp := do(t, http.MethodGet, ts.URL+"/metrics", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}

	off, _, _ := newTestServer(t, false)
	if resp := do(t, http.MethodGet, off.URL+"/metrics", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("disabled status: got %d, want 404", resp.StatusCode)
	}
}
