package inspect

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/realdom/pkg/node"
	"github.com/vango-dev/realdom/pkg/realdom"
	"github.com/vango-dev/realdom/pkg/states"
	"github.com/vango-dev/realdom/pkg/telemetry"
	"github.com/vango-dev/realdom/pkg/tree"
)

type fixture struct {
	dom    *realdom.Dom
	lock   *sync.Mutex
	server *Server
	http   *httptest.Server
	button tree.NodeID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(telemetry.WithRegistry(reg))

	f := &fixture{lock: &sync.Mutex{}}
	f.server = New(Options{Lock: f.lock, Gatherer: reg, Logger: quiet})
	d, err := realdom.New(states.All(),
		realdom.WithLogger(quiet),
		realdom.WithRecorder(f.server),
		realdom.WithRecorder(metrics),
	)
	require.NoError(t, err)
	f.server.Attach(d)
	f.dom = d

	btn := d.CreateNode(node.Element("button").WithListener("click"))
	label := d.CreateNode(node.Text("OK"))
	btn.AddChild(label.ID())
	root, _ := d.GetMut(d.RootID())
	root.AddChild(btn.ID())
	f.button = btn.ID()
	d.Settle(context.Background(), nil, 8)

	f.http = httptest.NewServer(f.server.Handler())
	t.Cleanup(func() {
		f.server.Close()
		f.http.Close()
	})
	return f
}

func (f *fixture) get(t *testing.T, path string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(f.http.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestTree(t *testing.T) {
	f := newFixture(t)
	status, body := f.get(t, "/tree")
	require.Equal(t, http.StatusOK, status)

	var snap realdom.NodeSnapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	require.Equal(t, f.dom.RootID(), snap.ID)
	require.Len(t, snap.Children, 1)
	btn := snap.Children[0]
	require.Equal(t, "button", btn.Tag)
	require.Equal(t, []string{"click"}, btn.Listeners)
	require.Contains(t, btn.States["accessibility"], "Role:button")
	require.Empty(t, btn.Stale)
}

func TestNode(t *testing.T) {
	f := newFixture(t)

	status, body := f.get(t, "/nodes/"+strconv.FormatUint(uint64(f.button), 10))
	require.Equal(t, http.StatusOK, status)
	var snap realdom.NodeSnapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	require.Equal(t, f.button, snap.ID)
	require.Equal(t, "OK", snap.Children[0].Text)

	status, body = f.get(t, "/nodes/999")
	require.Equal(t, http.StatusNotFound, status)
	var e struct{ Code string }
	require.NoError(t, json.Unmarshal(body, &e))
	require.Equal(t, "E007", e.Code)

	status, _ = f.get(t, "/nodes/abc")
	require.Equal(t, http.StatusBadRequest, status)
}

func TestListeners(t *testing.T) {
	f := newFixture(t)
	status, body := f.get(t, "/listeners/click")
	require.Equal(t, http.StatusOK, status)

	var got struct {
		Event string
		Nodes []tree.NodeID
	}
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, "click", got.Event)
	require.Equal(t, []tree.NodeID{f.button}, got.Nodes)
}

func TestMetrics(t *testing.T) {
	f := newFixture(t)
	status, body := f.get(t, "/metrics")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, string(body), "realdom_cycles_total")
}

func TestDetached(t *testing.T) {
	s := New(Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tree", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "E141")
}

func TestWebSocketStreamsCycles(t *testing.T) {
	f := newFixture(t)
	url := "ws" + strings.TrimPrefix(f.http.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	read := func() Message {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var m Message
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	}

	hello := read()
	require.Equal(t, MessageHello, hello.Type)
	require.Equal(t, f.dom.ID().String(), hello.Dom)
	require.Eventually(t, func() bool { return f.server.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	f.lock.Lock()
	m, _ := f.dom.GetMut(f.button)
	el, _ := m.Element()
	el.SetAttribute("aria-hidden", "true")
	f.dom.Update(context.Background(), nil)
	cycle := f.dom.Cycle()
	f.lock.Unlock()

	msg := read()
	require.Equal(t, MessageCycle, msg.Type)
	report, ok := msg.Cycle.(map[string]any)
	require.True(t, ok)
	require.EqualValues(t, cycle, report["cycle"])
	require.EqualValues(t, 1, report["mutated"])

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return f.server.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.server.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe did not return")
	}
}
