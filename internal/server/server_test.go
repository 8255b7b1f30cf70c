package server

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/parcomp/effect/params"
	"github.com/cwbudde/parcomp/effect/processor"
	"github.com/cwbudde/parcomp/effect/scope"
	"github.com/cwbudde/parcomp/internal/testutil"
)

type fakeSource struct {
	meters processor.Meters
	faults processor.Faults
}

func (f fakeSource) Meters() processor.Meters { return f.meters }
func (f fakeSource) Faults() processor.Faults { return f.faults }

func newTestServer(t *testing.T, opts ...Option) (*Server, *params.Store, *httptest.Server) {
	t.Helper()
	store := params.NewStore()
	s, err := New(store, opts...)
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, store, ts
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNilStore)
}

func TestListParams(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/api/params", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	list := decode[[]Param](t, resp)
	require.Len(t, list, int(params.Count))
	assert.Equal(t, "input gain", list[0].Name)
	assert.Equal(t, "ratio", list[2].Name)
	assert.Equal(t, 3.0, list[2].Value)
	assert.Equal(t, "3.0:1", list[2].Display)
	assert.Equal(t, "%", list[6].Unit)
}

func TestSetParams(t *testing.T) {
	_, store, ts := newTestServer(t)

	resp := do(t, http.MethodPut, ts.URL+"/api/params", `{"threshold": -18, "mixer": 250}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, -18.0, store.Get(params.Threshold))
	assert.Equal(t, 100.0, store.Get(params.Mixer))
}

func TestSetParamsRejectsUnknownBeforeWriting(t *testing.T) {
	_, store, ts := newTestServer(t)
	before := store.Version()

	resp := do(t, http.MethodPut, ts.URL+"/api/params", `{"threshold": -18, "drive": 3}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, before, store.Version())
	assert.Equal(t, 0.0, store.Get(params.Threshold))

	resp = do(t, http.MethodPut, ts.URL+"/api/params", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSingleParam(t *testing.T) {
	_, store, ts := newTestServer(t)

	resp := do(t, http.MethodPut, ts.URL+"/api/params/output%20gain", `{"value": -3}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	p := decode[Param](t, resp)
	assert.Equal(t, "-3.0 dB", p.Display)
	assert.Equal(t, -3.0, store.Get(params.OutputGain))

	resp = do(t, http.MethodPut, ts.URL+"/api/params/threshold", `{"value": -0}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, math.Signbit(store.Get(params.Threshold)))

	resp = do(t, http.MethodGet, ts.URL+"/api/params/attack", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "12.0 ms", decode[Param](t, resp).Display)

	resp = do(t, http.MethodGet, ts.URL+"/api/params/drive", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodPut, ts.URL+"/api/params/ratio", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPresets(t *testing.T) {
	_, store, ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/api/presets", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, decode[[]string](t, resp), "drums")

	resp = do(t, http.MethodPost, ts.URL+"/api/presets/drums", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 8.0, store.Get(params.Ratio))
	assert.Equal(t, 45.0, store.Get(params.Mixer))

	resp = do(t, http.MethodPost, ts.URL+"/api/presets/opera", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStateRoundTrip(t *testing.T) {
	_, store, ts := newTestServer(t)
	require.NoError(t, store.Set(params.Release, 7.25))

	resp := do(t, http.MethodGet, ts.URL+"/api/state", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))

	var doc bytes.Buffer
	_, err := doc.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, doc.String(), "release: 7.25")

	store.Reset()
	resp = do(t, http.MethodPut, ts.URL+"/api/state", doc.String())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 7.25, store.Get(params.Release))

	resp = do(t, http.MethodPut, ts.URL+"/api/state", "format: other\nparameters: {}\n")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatus(t *testing.T) {
	src := fakeSource{
		meters: processor.Meters{InputPeakDB: -6, GainReductionDB: 2.5, Blocks: 10},
		faults: processor.Faults{VisualizerPanics: 1},
	}
	_, _, ts := newTestServer(t, WithSource(src))

	resp := do(t, http.MethodGet, ts.URL+"/api/status", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	st := decode[Status](t, resp)
	require.NotNil(t, st.Meters)
	assert.Equal(t, 2.5, st.Meters.GainReductionDB)
	assert.Equal(t, uint64(10), st.Meters.Blocks)
	assert.Equal(t, uint64(1), st.Faults.Total())
}

func TestFrameWithoutSources(t *testing.T) {
	s, _, _ := newTestServer(t)
	f, err := s.Frame()
	require.NoError(t, err)
	assert.Nil(t, f.Waveform)
	assert.Nil(t, f.Meters)
}

func TestWebSocketStreamsFrames(t *testing.T) {
	sc, err := scope.New(scope.WithSamplesPerPoint(32))
	require.NoError(t, err)
	sc.SetNumChannels(2)
	sc.PushBuffer(testutil.Replicate(testutil.DeterministicSine(1000, 48000, 0.5, 4096), 2))

	src := fakeSource{meters: processor.Meters{OutputPeakDB: -3}}
	s, _, ts := newTestServer(t, WithScope(sc), WithSource(src), WithFrameRate(200))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.broadcastLoop(ctx)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var f Frame
	require.NoError(t, json.Unmarshal(data, &f))
	require.NotNil(t, f.Waveform)
	assert.Len(t, f.Waveform.Max, 2)
	assert.Len(t, f.Waveform.Max[0], 128)
	assert.Len(t, f.Spectrum, scope.SpectrumSize/2+1)
	require.NotNil(t, f.Meters)
	assert.Equal(t, -3.0, f.Meters.OutputPeakDB)
}

func TestSlowClientIsDropped(t *testing.T) {
	s, _, _ := newTestServer(t)

	c := &client{send: make(chan []byte, 1), server: s}
	s.addClient(c)

	s.broadcast([]byte("a"))
	assert.Equal(t, 1, s.clientCount())

	// The queue is full, so the next frame drops the client.
	s.broadcast([]byte("b"))
	assert.Zero(t, s.clientCount())

	msg, ok := <-c.send
	assert.True(t, ok)
	assert.Equal(t, "a", string(msg))
	_, ok = <-c.send
	assert.False(t, ok)

	// Removing an already dropped client is a no-op.
	s.removeClient(c)
}
