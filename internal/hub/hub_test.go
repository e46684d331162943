package hub

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedEvent struct {
	Type  string `json:"type"`
	Value int    `json:"value"`
}

func (e namedEvent) EventName() string { return e.Type }

type gauge struct{ n atomic.Int64 }

func (g *gauge) ClientConnected()    { g.n.Add(1) }
func (g *gauge) ClientDisconnected() { g.n.Add(-1) }

func TestEncode(t *testing.T) {
	msg, err := encode(namedEvent{Type: "intents", Value: 1})
	require.NoError(t, err)
	assert.Equal(t, "event: intents\ndata: {\"type\":\"intents\",\"value\":1}\n\n", string(msg))

	msg, err = encode(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "data: {\"a\":1}\n\n", string(msg))
}

func TestHubBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New(nil)
	g := &gauge{}
	h.SetObserver(g)
	go h.Run(ctx)

	srv := httptest.NewServer(h)
	defer srv.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(1), g.n.Load())

	h.Broadcast(namedEvent{Type: "versions_changed", Value: 7})

	reader := bufio.NewReader(resp.Body)
	var eventLine, dataLine string
	for dataLine == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		switch {
		case strings.HasPrefix(line, "event: "):
			eventLine = strings.TrimSpace(line)
		case strings.HasPrefix(line, "data: "):
			dataLine = strings.TrimSpace(line)
		}
	}
	assert.Equal(t, "event: versions_changed", eventLine)
	assert.Equal(t, `data: {"type":"versions_changed","value":7}`, dataLine)
}

func readEvent(t *testing.T, reader *bufio.Reader) string {
	t.Helper()
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			return strings.TrimSpace(line)
		}
	}
}

func TestHubStreamOutlivesWriteTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New(nil)
	go h.Run(ctx)

	srv := httptest.NewUnstartedServer(h)
	srv.Config.WriteTimeout = 100 * time.Millisecond
	srv.Start()
	defer srv.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	time.Sleep(300 * time.Millisecond)
	h.Broadcast(namedEvent{Type: "intents", Value: 3})

	assert.Equal(t, `data: {"type":"intents","value":3}`, readEvent(t, bufio.NewReader(resp.Body)))
}

func TestHubShutdownClosesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := New(nil)
	go h.Run(ctx)

	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
