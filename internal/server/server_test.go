package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timewarplabs/timewarp/internal/warp"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type manualClock struct {
	t time.Time
}

func (c *manualClock) Now() time.Time { return c.t }

func startTestServer(t *testing.T, eng *warp.Engine) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New(ln.Addr().String(), eng, Options{Hub: NewHub(nil)})
	go srv.StartOnListener(ln)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return "http://" + ln.Addr().String()
}

func putMultiplier(t *testing.T, baseURL string, m float64) multiplierResponse {
	t.Helper()
	body, err := json.Marshal(map[string]float64{"multiplier": m})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPut, baseURL+"/api/multiplier", bytes.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out multiplierResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestServer_Root(t *testing.T) {
	eng := warp.NewEngine(warp.DefaultLimits(), &manualClock{t: epoch}, nil)
	baseURL := startTestServer(t, eng)

	resp, err := http.Get(baseURL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "timewarp", body["service"])
}

func TestServer_Health(t *testing.T) {
	eng := warp.NewEngine(warp.DefaultLimits(), &manualClock{t: epoch}, nil)
	baseURL := startTestServer(t, eng)

	resp, err := http.Get(baseURL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_GetMultiplier(t *testing.T) {
	eng := warp.NewEngine(warp.DefaultLimits(), &manualClock{t: epoch}, nil)
	eng.SetMultiplier(2.5)
	baseURL := startTestServer(t, eng)

	resp, err := http.Get(baseURL + "/api/multiplier")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out multiplierResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 2.5, out.Multiplier)
	assert.Equal(t, 0.0625, out.Min)
	assert.Equal(t, 16.0, out.Max)
}

func TestServer_PutMultiplier(t *testing.T) {
	eng := warp.NewEngine(warp.DefaultLimits(), &manualClock{t: epoch}, nil)
	baseURL := startTestServer(t, eng)

	out := putMultiplier(t, baseURL, 4.0)
	assert.Equal(t, 4.0, out.Multiplier)
	assert.Equal(t, 4.0, eng.Multiplier())
}

func TestServer_PutMultiplierReflectsClampedValue(t *testing.T) {
	eng := warp.NewEngine(warp.DefaultLimits(), &manualClock{t: epoch}, nil)
	baseURL := startTestServer(t, eng)

	// The response carries the installed value, not the request.
	out := putMultiplier(t, baseURL, 500)
	assert.Equal(t, 16.0, out.Multiplier)
}

func TestServer_PutMultiplierClampsNonPositive(t *testing.T) {
	// Out-of-range requests, zero and negative included, are never an
	// error: the response is the clamped value the engine installed.
	tests := []struct {
		name      string
		requested float64
	}{
		{"zero", 0},
		{"negative", -3},
		{"tiny", 0.001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := warp.NewEngine(warp.DefaultLimits(), &manualClock{t: epoch}, nil)
			baseURL := startTestServer(t, eng)

			out := putMultiplier(t, baseURL, tt.requested)
			assert.Equal(t, 0.0625, out.Multiplier)
			assert.Equal(t, 0.0625, eng.Multiplier())
		})
	}
}

func TestServer_PutMultiplierBadBody(t *testing.T) {
	eng := warp.NewEngine(warp.DefaultLimits(), &manualClock{t: epoch}, nil)
	baseURL := startTestServer(t, eng)

	for _, body := range []string{"{not-json", "{}"} {
		req, err := http.NewRequest(http.MethodPut, baseURL+"/api/multiplier", bytes.NewReader([]byte(body)))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body %q", body)
	}
	assert.Equal(t, 1.0, eng.Multiplier())
}

func TestServer_MultiplierMethodNotAllowed(t *testing.T) {
	eng := warp.NewEngine(warp.DefaultLimits(), &manualClock{t: epoch}, nil)
	baseURL := startTestServer(t, eng)

	req, err := http.NewRequest(http.MethodDelete, baseURL+"/api/multiplier", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServer_Time(t *testing.T) {
	eng := warp.NewEngine(warp.DefaultLimits(), &manualClock{t: epoch}, nil)
	baseURL := startTestServer(t, eng)

	resp, err := http.Get(baseURL + "/api/time")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Contains(t, out, "real")
	assert.Contains(t, out, "virtual")
	assert.Equal(t, 1.0, out["multiplier"])
}

func TestServer_Dashboard(t *testing.T) {
	eng := warp.NewEngine(warp.DefaultLimits(), &manualClock{t: epoch}, nil)
	baseURL := startTestServer(t, eng)

	resp, err := http.Get(baseURL + "/dashboard/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}

func TestHub_SerializesConcurrentBroadcasts(t *testing.T) {
	eng := warp.NewEngine(warp.DefaultLimits(), &manualClock{t: epoch}, nil)
	hub := NewHub(nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := New(ln.Addr().String(), eng, Options{Hub: hub})
	go srv.StartOnListener(ln)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	received := make(chan MultiplierEvent, 256)
	go func() {
		for {
			var ev MultiplierEvent
			if err := conn.ReadJSON(&ev); err != nil {
				close(received)
				return
			}
			received <- ev
		}
	}()

	const writers, perWriter = 8, 25
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(m float64) {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				hub.BroadcastMultiplier(m, epoch)
			}
		}(float64(i + 1))
	}
	wg.Wait()

	// Every frame from every racing broadcaster must arrive intact.
	for i := 0; i < writers*perWriter; i++ {
		select {
		case ev, ok := <-received:
			require.True(t, ok, "connection closed after %d frames", i)
			assert.Equal(t, "multiplier", ev.Type)
		case <-time.After(2 * time.Second):
			t.Fatalf("received %d frames, want %d", i, writers*perWriter)
		}
	}
}

func TestServer_NotFound(t *testing.T) {
	eng := warp.NewEngine(warp.DefaultLimits(), &manualClock{t: epoch}, nil)
	baseURL := startTestServer(t, eng)

	resp, err := http.Get(baseURL + "/nonexistent")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
