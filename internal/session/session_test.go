package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/five82/loom/internal/dom"
	"github.com/five82/loom/internal/events"
	"github.com/five82/loom/internal/protocol"
	"github.com/five82/loom/internal/widget"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSender) Send(message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, message)
	return nil
}

func (f *fakeSender) messages(t *testing.T) []protocol.Message {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]protocol.Message, 0, len(f.sent))
	for _, raw := range f.sent {
		msg, err := protocol.Decode(raw)
		if err != nil {
			t.Fatalf("Decode(%s): %v", raw, err)
		}
		out = append(out, msg)
	}
	return out
}

func (f *fakeSender) methods(t *testing.T) []protocol.Method {
	t.Helper()
	var out []protocol.Method
	for _, msg := range f.messages(t) {
		out = append(out, msg.Method)
	}
	return out
}

func newWindow(t *testing.T, cfg Config, hooks Hooks) (*Window, *fakeSender) {
	t.Helper()
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://example.test/"
	}
	sender := &fakeSender{}
	w := New(1, dom.NewRoot("lona"), sender, cfg, hooks)
	t.Cleanup(w.Close)
	return w, sender
}

func deliver(t *testing.T, w *Window, raw string) {
	t.Helper()
	msg, err := protocol.Decode(raw)
	if err != nil {
		t.Fatalf("Decode(%s): %v", raw, err)
	}
	if err := w.HandleMessage(msg); err != nil {
		t.Fatalf("HandleMessage(%s) returned error: %v", raw, err)
	}
}

func flush(t *testing.T, w *Window) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := w.Flush(ctx); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
}

func markup(t *testing.T, w *Window) string {
	t.Helper()
	var got string
	err := w.Inspect(context.Background(), func(doc *dom.Document) error {
		got = dom.InnerHTML(doc.Root())
		return nil
	})
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	return got
}

// startView runs a view and starts runtime rt on it.
func startView(t *testing.T, w *Window, rt string) {
	t.Helper()
	if err := w.RunView("/", nil); err != nil {
		t.Fatalf("RunView returned error: %v", err)
	}
	deliver(t, w, `lona:[1,"`+rt+`",204,null]`)
}

const helloTree = `lona:[1,"rt1",203,["Hello",[402,[501,1,null,"div",[],[],{},{},[[502,2,"hello"]],null,null]]]]`

func TestRunView_SendsRequestAndMovesState(t *testing.T) {
	var titles []string
	w, sender := newWindow(t, Config{Title: "Loading", UpdateTitle: true}, Hooks{
		OnTitle: func(_ *Window, title string) { titles = append(titles, title) },
	})

	if err := w.RunView("/items?page=2#top", map[string]any{"q": "x"}); err != nil {
		t.Fatalf("RunView returned error: %v", err)
	}
	if w.State() != StateViewRequested {
		t.Fatalf("state = %v, want view requested", w.State())
	}
	if w.URL() != "http://example.test/items?page=2#top" {
		t.Fatalf("url = %q", w.URL())
	}

	msgs := sender.messages(t)
	if len(msgs) != 1 || msgs[0].Method != protocol.MethodView {
		t.Fatalf("sent %v, want one view request", sender.methods(t))
	}
	var payload []any
	if err := json.Unmarshal(msgs[0].Payload, &payload); err != nil {
		t.Fatalf("unmarshal view payload: %v", err)
	}
	want := []any{"/items?page=2#top", map[string]any{"q": "x"}}
	if diff := cmp.Diff(want, payload); diff != "" {
		t.Fatalf("view payload mismatch (-want +got):\n%s", diff)
	}
	if msgs[0].WindowID != 1 || msgs[0].RuntimeID != "" {
		t.Fatalf("view request framed as window %d runtime %q", msgs[0].WindowID, msgs[0].RuntimeID)
	}
	if diff := cmp.Diff([]string{"Loading"}, titles); diff != "" {
		t.Fatalf("titles mismatch (-want +got):\n%s", diff)
	}

	deliver(t, w, `lona:[1,"rt1",204,null]`)
	if w.State() != StateViewRunning || w.RuntimeID() != "rt1" {
		t.Fatalf("state = %v runtime = %q, want running rt1", w.State(), w.RuntimeID())
	}
	deliver(t, w, `lona:[1,"old",205,null]`)
	if w.State() != StateViewRunning {
		t.Fatalf("view stop of another runtime changed state to %v", w.State())
	}
	deliver(t, w, `lona:[1,"rt1",205,null]`)
	if w.State() != StateViewStopped {
		t.Fatalf("state = %v, want view stopped", w.State())
	}
}

func TestHandleMessage_RendersDataForCurrentRuntime(t *testing.T) {
	rendered := 0
	w, _ := newWindow(t, Config{UpdateTitle: true}, Hooks{
		OnRendered: func(*Window, *dom.Document) { rendered++ },
	})
	startView(t, w, "rt1")

	deliver(t, w, helloTree)
	deliver(t, w, `lona:[1,"rt1",203,[null,[403,[["1",605,701,0,[502,"3","bye"]]]]]]`)
	flush(t, w)

	if got, want := markup(t, w), `<div data-lona-node-id="1">bye</div>`; got != want {
		t.Fatalf("markup = %s, want %s", got, want)
	}
	if w.Title() != "Hello" {
		t.Fatalf("title = %q, want Hello", w.Title())
	}
	if rendered != 2 {
		t.Fatalf("rendered %d times, want 2", rendered)
	}
}

func TestHandleMessage_DropsStaleData(t *testing.T) {
	rendered := 0
	w, _ := newWindow(t, Config{}, Hooks{OnRendered: func(*Window, *dom.Document) { rendered++ }})
	startView(t, w, "rt1")

	// Data from a runtime other than the current one never reaches the tree.
	deliver(t, w, strings.Replace(helloTree, "rt1", "rt0", 1))

	// Data accepted for rt1 but still queued when the next view starts is
	// skipped as well.
	release := make(chan struct{})
	w.queue.Submit(func() error { <-release; return nil })
	deliver(t, w, helloTree)
	if err := w.RunView("/next", nil); err != nil {
		t.Fatalf("RunView returned error: %v", err)
	}
	close(release)
	flush(t, w)

	if got := markup(t, w); got != "" {
		t.Fatalf("markup = %s, want empty tree", got)
	}
	if rendered != 0 {
		t.Fatalf("rendered %d times, want 0", rendered)
	}
	if w.Crashed() {
		t.Fatalf("window crashed on stale data: %v", w.Err())
	}
}

type blocker struct {
	started chan struct{}
	release chan struct{}
}

func (b *blocker) Setup(any) error {
	close(b.started)
	<-b.release
	return nil
}

func TestHandleMessage_PayloadsApplyInOrder(t *testing.T) {
	b := &blocker{started: make(chan struct{}), release: make(chan struct{})}
	w, _ := newWindow(t, Config{
		Registry: widget.Registry{"Slow": func(widget.Mount) widget.Component { return b }},
	}, Hooks{})
	startView(t, w, "rt1")

	deliver(t, w, `lona:[1,"rt1",203,[null,[402,[501,1,null,"div",[],[],{},{},[[503,"w","Slow",[[502,2,"a"]],null]],null,null]]]]`)
	<-b.started
	// Arrives while the first render is still inside a setup hook.
	deliver(t, w, `lona:[1,"rt1",203,[null,[403,[["w",605,704,1,[502,"3","b"]]]]]]`)
	close(b.release)
	flush(t, w)

	want := `<div data-lona-node-id="1"><!--lona-widget:w-->ab<!--end-lona-widget:w--></div>`
	if got := markup(t, w); got != want {
		t.Fatalf("markup = %s, want %s", got, want)
	}
}

const buttonTree = `lona:[1,"rt1",203,[null,[402,[501,1,null,"button",[],[],{},{"data-lona-events":"301"},[[502,2,"go"]],null,null]]]]`

func clickButton(t *testing.T, w *Window) {
	t.Helper()
	var button *html.Node
	err := w.Inspect(context.Background(), func(*dom.Document) error {
		n, ok := w.engine.Node("1")
		if !ok {
			return errors.New("button not rendered")
		}
		button = n
		return nil
	})
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if err := w.Dispatch(context.Background(), events.Interaction{Kind: events.Click, Target: button}); err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
}

func TestDispatch_ClickSendsInputEventAndAckClearsIt(t *testing.T) {
	timedOut := make(chan int, 1)
	w, sender := newWindow(t, Config{InputEventTimeout: time.Hour}, Hooks{
		OnInputEventTimeout: func(_ *Window, id int) { timedOut <- id },
	})
	startView(t, w, "rt1")
	deliver(t, w, buttonTree)
	flush(t, w)

	clickButton(t, w)

	msgs := sender.messages(t)
	last := msgs[len(msgs)-1]
	if last.Method != protocol.MethodInputEvent || last.RuntimeID != "rt1" {
		t.Fatalf("last message = %v for %q, want input event for rt1", last.Method, last.RuntimeID)
	}
	var payload []any
	if err := json.Unmarshal(last.Payload, &payload); err != nil {
		t.Fatalf("unmarshal input event: %v", err)
	}
	want := []any{
		float64(1), float64(301),
		map[string]any{"alt_key": false, "shift_key": false, "meta_key": false, "ctrl_key": false},
		[]any{"1", "BUTTON", "", ""},
		[]any{"1", "BUTTON", "", ""},
	}
	if diff := cmp.Diff(want, payload); diff != "" {
		t.Fatalf("input event mismatch (-want +got):\n%s", diff)
	}
	if w.PendingEvents() != 1 {
		t.Fatalf("pending events = %d, want 1", w.PendingEvents())
	}

	deliver(t, w, `lona:[1,"rt1",103,1]`)
	if w.PendingEvents() != 0 {
		t.Fatalf("pending events = %d after ack, want 0", w.PendingEvents())
	}
	select {
	case id := <-timedOut:
		t.Fatalf("acked event %d timed out", id)
	default:
	}
}

// formTree renders its controls from node specs, so value and checked live
// in the property table rather than in the markup.
const formTree = `lona:[1,"rt1",203,[null,[402,` +
	`[501,1,null,"form",[],[],{},{"data-lona-events":"303"},[` +
	`[501,2,null,"input",[],[],{},{"type":"checkbox","name":"agree","value":"yes","checked":true},[],null,null],` +
	`[501,3,null,"input",[],[],{},{"type":"radio","name":"size","value":"s"},[],null,null],` +
	`[501,4,null,"input",[],[],{},{"type":"radio","name":"size","value":"m","checked":true},[],null,null],` +
	`[501,5,null,"input",[],[],{},{"type":"checkbox","name":"plain","checked":true},[],null,null]` +
	`],null,null]]]]`

func TestDispatch_SubmitSerialisesRenderedControls(t *testing.T) {
	w, sender := newWindow(t, Config{InputEventTimeout: time.Hour}, Hooks{})
	startView(t, w, "rt1")
	deliver(t, w, formTree)
	flush(t, w)

	var form *html.Node
	err := w.Inspect(context.Background(), func(*dom.Document) error {
		n, ok := w.engine.Node("1")
		if !ok {
			return errors.New("form not rendered")
		}
		form = n
		return nil
	})
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if err := w.Dispatch(context.Background(), events.Interaction{Kind: events.Submit, Target: form}); err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}

	msgs := sender.messages(t)
	last := msgs[len(msgs)-1]
	if last.Method != protocol.MethodInputEvent {
		t.Fatalf("last message = %v, want input event", last.Method)
	}
	var payload []any
	if err := json.Unmarshal(last.Payload, &payload); err != nil {
		t.Fatalf("unmarshal input event: %v", err)
	}
	want := map[string]any{"agree": "yes", "size": "m", "plain": "on"}
	if diff := cmp.Diff([]any{float64(303), want}, payload[1:3]); diff != "" {
		t.Fatalf("submit event mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatch_MissingAckFiresHookOnly(t *testing.T) {
	timedOut := make(chan int, 1)
	w, sender := newWindow(t, Config{InputEventTimeout: 20 * time.Millisecond}, Hooks{
		OnInputEventTimeout: func(_ *Window, id int) { timedOut <- id },
	})
	startView(t, w, "rt1")
	deliver(t, w, buttonTree)
	flush(t, w)
	clickButton(t, w)
	sentBefore := len(sender.messages(t))

	select {
	case id := <-timedOut:
		if id != 1 {
			t.Fatalf("timed out event = %d, want 1", id)
		}
	case <-time.After(time.Second):
		t.Fatalf("input event timeout hook never fired")
	}
	if w.Crashed() || w.State() != StateViewRunning {
		t.Fatalf("state = %v after timeout, want view running", w.State())
	}
	if got := len(sender.messages(t)); got != sentBefore {
		t.Fatalf("timeout sent %d messages, want none", got-sentBefore)
	}
}

func TestRender_FailureCrashesWindowOnce(t *testing.T) {
	crashed := make(chan error, 2)
	w, sender := newWindow(t, Config{}, Hooks{
		OnCrash: func(_ *Window, err error) { crashed <- err },
	})
	startView(t, w, "rt1")

	deliver(t, w, `lona:[1,"rt1",203,[null,[403,[["missing",605,703]]]]]`)
	deliver(t, w, `lona:[1,"rt1",203,[null,[403,[["missing",605,703]]]]]`)
	flush(t, w)

	select {
	case err := <-crashed:
		if err == nil {
			t.Fatalf("crash hook got nil error")
		}
	case <-time.After(time.Second):
		t.Fatalf("crash hook never fired")
	}
	if !w.Crashed() {
		t.Fatalf("state = %v, want crashed", w.State())
	}

	// Give a second report the chance to run before counting.
	time.Sleep(20 * time.Millisecond)
	select {
	case err := <-crashed:
		t.Fatalf("crash reported twice: %v", err)
	default:
	}

	want := []protocol.Method{protocol.MethodView, protocol.MethodClientError}
	if diff := cmp.Diff(want, sender.methods(t)); diff != "" {
		t.Fatalf("sent methods mismatch (-want +got):\n%s", diff)
	}

	deliver(t, w, helloTree)
	deliver(t, w, `lona:[1,"rt2",204,null]`)
	if err := w.RunView("/again", nil); err != nil {
		t.Fatalf("RunView on crashed window returned error: %v", err)
	}
	flush(t, w)
	if diff := cmp.Diff(want, sender.methods(t)); diff != "" {
		t.Fatalf("crashed window sent more messages (-want +got):\n%s", diff)
	}
}

func TestHandleMessage_Redirects(t *testing.T) {
	var navigated []string
	hooks := Hooks{OnNavigate: func(_ *Window, url string) { navigated = append(navigated, url) }}

	w, sender := newWindow(t, Config{FollowRedirects: true, FollowHTTPRedirects: true}, hooks)
	startView(t, w, "rt1")
	deliver(t, w, `lona:[1,"rt1",201,"/elsewhere"]`)
	deliver(t, w, `lona:[1,"rt1",202,"https://other.test/"]`)

	if w.URL() != "http://example.test/elsewhere" || w.State() != StateViewRequested {
		t.Fatalf("url = %q state = %v, want new view request", w.URL(), w.State())
	}
	if got := sender.methods(t); len(got) != 2 || got[1] != protocol.MethodView {
		t.Fatalf("sent %v, want a second view request", got)
	}
	if diff := cmp.Diff([]string{"https://other.test/"}, navigated); diff != "" {
		t.Fatalf("navigations mismatch (-want +got):\n%s", diff)
	}

	navigated = nil
	w2, sender2 := newWindow(t, Config{}, hooks)
	startView(t, w2, "rt1")
	deliver(t, w2, `lona:[1,"rt1",201,"/elsewhere"]`)
	deliver(t, w2, `lona:[1,"rt1",202,"https://other.test/"]`)
	if got := sender2.methods(t); len(got) != 1 {
		t.Fatalf("sent %v, want only the first view request", got)
	}
	if len(navigated) != 0 || w2.State() != StateViewRunning {
		t.Fatalf("redirects followed while disabled: navigated=%v state=%v", navigated, w2.State())
	}
}

func TestRunView_StartTimeout(t *testing.T) {
	timedOut := make(chan struct{}, 2)
	w, _ := newWindow(t, Config{ViewStartTimeout: 20 * time.Millisecond}, Hooks{
		OnViewTimeout: func(*Window) { timedOut <- struct{}{} },
	})

	if err := w.RunView("/slow", nil); err != nil {
		t.Fatalf("RunView returned error: %v", err)
	}
	select {
	case <-timedOut:
	case <-time.After(time.Second):
		t.Fatalf("view start timeout never fired")
	}

	startView(t, w, "rt1")
	time.Sleep(60 * time.Millisecond)
	select {
	case <-timedOut:
		t.Fatalf("timeout fired after the view started")
	default:
	}
}
