package internal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/relay-switch/internal/activity"
	"github.com/sweeney/relay-switch/internal/clock"
	"github.com/sweeney/relay-switch/internal/controller"
	"github.com/sweeney/relay-switch/internal/device"
	"github.com/sweeney/relay-switch/internal/gpio"
	"github.com/sweeney/relay-switch/internal/mqtt"
	"github.com/sweeney/relay-switch/internal/status"
	"github.com/sweeney/relay-switch/internal/store"
	"github.com/sweeney/relay-switch/internal/web"
)

type node struct {
	ctl    *controller.Controller
	relays *gpio.FakeRelays
	pub    *mqtt.FakePublisher
	log    *activity.Log
	state  *device.State
	http   *httptest.Server
	second chan time.Time
}

// startNode boots a switch on dir and serves it until the test ends.
func startNode(t *testing.T, dir string) *node {
	t.Helper()

	logDB, err := activity.Open(filepath.Join(t.TempDir(), "activity.sqlite"), true)
	if err != nil {
		t.Fatalf("open activity log: %v", err)
	}

	n := &node{
		relays: gpio.NewFakeRelays(),
		pub:    mqtt.NewFakePublisher(),
		log:    logDB,
		state:  device.New(),
		second: make(chan time.Time),
	}
	tracker := status.NewTracker(time.Now(), status.Config{})
	n.ctl = controller.New(controller.Config{
		ID:        "switch_it",
		Version:   "test",
		DataDir:   dir,
		Debounce:  50 * time.Millisecond,
		State:     n.state,
		Clock:     clock.NewFake(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)),
		Relays:    n.relays,
		Buttons:   gpio.NewFakeButtons([]gpio.Sample{{}}),
		Publisher: n.pub,
		Activity:  logDB,
		Tracker:   tracker,
	})
	n.ctl.Boot()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		n.ctl.Run(ctx, controller.Loop{Second: n.second})
		close(done)
	}()

	n.http = httptest.NewServer(web.New(":0", tracker, n.ctl.Device(ctx), false).Handler())
	t.Cleanup(func() {
		n.http.Close()
		cancel()
		<-done
		logDB.Close()
	})
	return n
}

func (n *node) put(t *testing.T, body string) {
	t.Helper()
	req, _ := http.NewRequest(http.MethodPut, n.http.URL+"/set", strings.NewReader(body))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT /set: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT /set %s: status %d", body, resp.StatusCode)
	}
}

func TestIntegrationSetPersistsAndRestores(t *testing.T) {
	dir := t.TempDir()
	n := startNode(t, dir)

	n.put(t, `{"smart":"480_s1wd-1020","restore":"1","val":"2"}`)

	if n.relays.State != [2]bool{false, true} {
		t.Errorf("relays: got %v, want [false true]", n.relays.State)
	}
	if len(n.pub.Deltas) != 1 || !strings.HasPrefix(n.pub.Deltas[0], "smart=s1_480-1020wd&val=2&detail=") {
		t.Errorf("deltas: got %v", n.pub.Deltas)
	}

	for _, name := range []string{store.PrimaryFile, store.BackupFile} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		var doc store.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			t.Fatalf("decode %s: %v", name, err)
		}
		if doc.Smart != "s1_480-1020wd" || !doc.Restore || doc.Light2 == nil || !*doc.Light2 {
			t.Errorf("%s: got %+v", name, doc)
		}
	}

	entries, err := n.log.Entries(50)
	if err != nil {
		t.Fatal(err)
	}
	var switched bool
	for _, e := range entries {
		if strings.HasPrefix(e.Text, "Switch (local)") {
			switched = true
		}
	}
	if !switched {
		t.Error("activity log has no local switch entry")
	}

	// A second boot on the same directory restores the lights silently.
	again := startNode(t, dir)
	if again.relays.State != [2]bool{false, true} {
		t.Errorf("restored relays: got %v, want [false true]", again.relays.State)
	}
	if len(again.pub.Deltas) != 0 {
		t.Errorf("restore pushed %v", again.pub.Deltas)
	}
	if again.state.Uprisings != 1 {
		t.Errorf("uprisings: got %d, want 1", again.state.Uprisings)
	}
}

func TestIntegrationTwilightPush(t *testing.T) {
	n := startNode(t, t.TempDir())

	n.put(t, `{"smart":"swn,s2wd"}`)
	n.pub.Reset()

	n.put(t, `{"light":"t"}`)

	if n.relays.State != [2]bool{true, true} {
		t.Errorf("relays: got %v, want [true true]", n.relays.State)
	}
	if len(n.pub.Deltas) != 1 || n.pub.Deltas[0] != "val=12" {
		t.Errorf("deltas: got %v, want [val=12]", n.pub.Deltas)
	}

	n.put(t, `{"light":"f"}`)
	if n.relays.State != [2]bool{true, false} {
		t.Errorf("relays after dawn: got %v, want [true false]", n.relays.State)
	}
}

func TestIntegrationIdenticalSetIsQuiet(t *testing.T) {
	n := startNode(t, t.TempDir())

	n.put(t, `{"smart":"s1_480w","dusk_delay":5}`)
	n.pub.Reset()
	before, _ := n.log.Entries(100)

	n.put(t, `{"smart":"s1_480w","dusk_delay":5}`)

	after, _ := n.log.Entries(100)
	if len(after) != len(before) {
		t.Errorf("activity entries: got %d, want %d", len(after), len(before))
	}
	if len(n.pub.Deltas) != 0 {
		t.Errorf("deltas: got %v", n.pub.Deltas)
	}
}
