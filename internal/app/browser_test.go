package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/five82/loom/internal/dom"
	"github.com/five82/loom/internal/prefs"
	"github.com/five82/loom/internal/protocol"
	"github.com/five82/loom/internal/session"
	"github.com/five82/loom/internal/state"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []protocol.Message
}

func (f *fakeSender) Send(message string) error {
	msg, err := protocol.Decode(message)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) byMethod(method protocol.Method) []protocol.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []protocol.Message
	for _, msg := range f.sent {
		if msg.Method == method {
			out = append(out, msg)
		}
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

type harness struct {
	browser *browser
	window  *session.Window
	store   *state.Store
	sender  *fakeSender
	out     *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := &state.Store{}
	logger := discardLogger()
	prefsPath := filepath.Join(t.TempDir(), "prefs.toml")
	b := newBrowser(context.Background(), store, logger, prefsPath, prefs.Prefs{})
	out := &bytes.Buffer{}
	b.out = out

	sender := &fakeSender{}
	w := session.New(1, dom.NewRoot("lona"), sender, session.Config{
		BaseURL:          "http://example.test/",
		UpdateAddressBar: true,
		UpdateTitle:      true,
		Logger:           logger,
	}, b.hooks())
	t.Cleanup(w.Close)
	b.window = w
	return &harness{browser: b, window: w, store: store, sender: sender, out: out}
}

func (h *harness) deliver(t *testing.T, raw string) {
	t.Helper()
	msg, err := protocol.Decode(raw)
	if err != nil {
		t.Fatalf("Decode(%s): %v", raw, err)
	}
	if err := h.window.HandleMessage(msg); err != nil {
		t.Fatalf("HandleMessage(%s) returned error: %v", raw, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := h.window.Flush(ctx); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
}

const formTree = `lona:[1,"rt1",203,["Form",[402,` +
	`[501,1,null,"div",[],[],{},{},[` +
	`[501,2,null,"button",[],[],{},{"data-lona-events":"301"},[[502,3,"go"]],null,null],` +
	`[501,4,null,"input",[],[],{},{"type":"text","data-lona-events":"302"},[],null,null]` +
	`],null,null]]]]`

func viewPaths(t *testing.T, msgs []protocol.Message) []string {
	t.Helper()
	var out []string
	for _, msg := range msgs {
		var payload []any
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			t.Fatalf("unmarshal view payload: %v", err)
		}
		out = append(out, payload[0].(string))
	}
	return out
}

func TestBrowser_NavigateAndBack(t *testing.T) {
	h := newHarness(t)

	if err := h.browser.Back(); !errors.Is(err, errNoHistory) {
		t.Fatalf("Back on empty history = %v, want errNoHistory", err)
	}
	for _, u := range []string{"/a", "/b", "/b"} {
		if err := h.browser.Navigate(u); err != nil {
			t.Fatalf("Navigate(%s) returned error: %v", u, err)
		}
	}
	if err := h.browser.Back(); err != nil {
		t.Fatalf("Back returned error: %v", err)
	}
	if err := h.browser.Back(); !errors.Is(err, errNoHistory) {
		t.Fatalf("second Back = %v, want errNoHistory", err)
	}

	want := []string{"/a", "/b", "/b", "/a"}
	if diff := cmp.Diff(want, viewPaths(t, h.sender.byMethod(protocol.MethodView))); diff != "" {
		t.Fatalf("view requests mismatch (-want +got):\n%s", diff)
	}
	if got := h.store.Snapshot().URL; got != "http://example.test/a" {
		t.Fatalf("snapshot url = %q, want http://example.test/a", got)
	}

	p, err := prefs.Load(h.browser.prefsPath)
	if err != nil {
		t.Fatalf("prefs.Load returned error: %v", err)
	}
	// Headless runs never write prefs.
	if p.LastURL != "" {
		t.Fatalf("prefs saved in headless mode: %+v", p)
	}
}

func TestBrowser_Reload(t *testing.T) {
	h := newHarness(t)
	if err := h.browser.Reload(); !errors.Is(err, errNoView) {
		t.Fatalf("Reload without view = %v, want errNoView", err)
	}
	if err := h.browser.Navigate("/a"); err != nil {
		t.Fatalf("Navigate returned error: %v", err)
	}
	if err := h.browser.Reload(); err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}
	if got := len(h.sender.byMethod(protocol.MethodView)); got != 2 {
		t.Fatalf("view requests = %d, want 2", got)
	}
}

func TestBrowser_RenderPublishesPage(t *testing.T) {
	h := newHarness(t)
	if err := h.browser.Navigate("/form"); err != nil {
		t.Fatalf("Navigate returned error: %v", err)
	}
	h.deliver(t, `lona:[1,"rt1",204,null]`)
	h.deliver(t, formTree)

	snap := h.store.Snapshot()
	if !snap.HasPage || snap.Renders != 1 {
		t.Fatalf("snapshot HasPage=%v Renders=%d, want a single render", snap.HasPage, snap.Renders)
	}
	if diff := cmp.Diff([]string{"[ go ] [_]"}, snap.Page.Lines); diff != "" {
		t.Fatalf("page lines mismatch (-want +got):\n%s", diff)
	}
	if snap.Title != "Form" || snap.WindowState != "view running" {
		t.Fatalf("snapshot title=%q state=%q", snap.Title, snap.WindowState)
	}
	if !strings.Contains(h.out.String(), "== Form (http://example.test/form) ==\n[ go ] [_]") {
		t.Fatalf("headless output = %q", h.out.String())
	}
}

func TestBrowser_ActionsSendInputEvents(t *testing.T) {
	h := newHarness(t)
	if err := h.browser.Navigate("/form"); err != nil {
		t.Fatalf("Navigate returned error: %v", err)
	}
	h.deliver(t, `lona:[1,"rt1",204,null]`)
	h.deliver(t, formTree)

	targets := h.store.Snapshot().Page.Targets
	if len(targets) != 2 {
		t.Fatalf("targets = %d, want 2", len(targets))
	}
	if err := h.browser.Activate(targets[0]); err != nil {
		t.Fatalf("Activate returned error: %v", err)
	}
	if err := h.browser.SetValue(targets[1], "hi"); err != nil {
		t.Fatalf("SetValue returned error: %v", err)
	}

	var got [][]any
	for _, msg := range h.sender.byMethod(protocol.MethodInputEvent) {
		var payload []any
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			t.Fatalf("unmarshal input event: %v", err)
		}
		got = append(got, payload[:3])
	}
	if len(got) != 2 {
		t.Fatalf("input events = %d, want 2", len(got))
	}
	want := [][]any{
		{float64(1), float64(protocol.EventClick), got[0][2]},
		{float64(2), float64(protocol.EventChange), "hi"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("input events mismatch (-want +got):\n%s", diff)
	}
}

func TestBrowser_CrashIsRecorded(t *testing.T) {
	h := newHarness(t)
	if err := h.browser.Navigate("/"); err != nil {
		t.Fatalf("Navigate returned error: %v", err)
	}
	_ = h.window.Crash(errors.New("boom"))

	snap := h.store.Snapshot()
	if !snap.Crashed || snap.LastError == nil || snap.WindowState != "crashed" {
		t.Fatalf("snapshot crashed=%v err=%v state=%q", snap.Crashed, snap.LastError, snap.WindowState)
	}
}

func TestStartURL(t *testing.T) {
	tests := []struct {
		flag string
		last string
		want string
	}{
		{"/x", "/y", "/x"},
		{"", "/y", "/y"},
		{"", "", "/"},
	}
	for _, tt := range tests {
		if got := startURL(tt.flag, prefs.Prefs{LastURL: tt.last}); got != tt.want {
			t.Fatalf("startURL(%q, %q) = %q, want %q", tt.flag, tt.last, got, tt.want)
		}
	}
}
