package remote

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"go.aimuz.me/interviewcoder/config"
	"go.aimuz.me/interviewcoder/internal/types"
)

type mockController struct {
	mu        sync.Mutex
	state     types.State
	shot      *types.Screenshot
	shotErr   error
	started   bool
	resets    int
	toggleErr error
	purges    int
	purgeErr  error
	cfg       config.Config
	saved     *config.Config
	saveErr   error
}

func (m *mockController) GetState() types.State { return m.state }
func (m *mockController) TakeScreenshot() (*types.Screenshot, error) {
	return m.shot, m.shotErr
}
func (m *mockController) ProcessQueue() bool { return m.started }
func (m *mockController) ResetAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
}
func (m *mockController) ToggleRecording() (types.RecordingState, error) {
	if m.toggleErr != nil {
		return types.RecordingState{}, m.toggleErr
	}
	return types.RecordingState{Recording: true}, nil
}
func (m *mockController) ResetAudio() {}
func (m *mockController) ClearCache() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purges++
	return m.purgeErr
}
func (m *mockController) GetHistory() []types.HistoryEntry { return nil }
func (m *mockController) GetConfig() config.Config         { return m.cfg }
func (m *mockController) SaveConfig(cfg config.Config) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = &cfg
	m.cfg = cfg
	return nil
}

func newTestServer(t *testing.T, ctrl *mockController) (*Server, *httptest.Server) {
	t.Helper()
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "test_total", Help: "test"}))
	s := New(ctrl, reg)
	ts := httptest.NewServer(s.Routes())
	t.Cleanup(func() {
		s.hub.Close()
		ts.Close()
	})
	return s, ts
}

func do(t *testing.T, method, url, body string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

func TestRoutes(t *testing.T) {
	ctrl := &mockController{
		state:   types.State{Queue: []types.Screenshot{{ID: 1}}, Provider: "openai:gpt-4o"},
		started: true,
	}
	_, ts := newTestServer(t, ctrl)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"state", http.MethodGet, "/api/v1/state", http.StatusOK, `"provider":"openai:gpt-4o"`},
		{"history empty", http.MethodGet, "/api/v1/history", http.StatusOK, `[]`},
		{"screenshot at capacity", http.MethodPost, "/api/v1/screenshots", http.StatusOK, `"added":false`},
		{"process", http.MethodPost, "/api/v1/process", http.StatusAccepted, `"started":true`},
		{"reset", http.MethodPost, "/api/v1/reset", http.StatusNoContent, ""},
		{"toggle", http.MethodPost, "/api/v1/recording/toggle", http.StatusOK, `"recording":true`},
		{"reset audio", http.MethodPost, "/api/v1/audio/reset", http.StatusNoContent, ""},
		{"clear cache", http.MethodDelete, "/api/v1/cache", http.StatusNoContent, ""},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK, "test_total"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, tt.method, ts.URL+tt.path, "")
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", status, tt.wantStatus, body)
			}
			if !strings.Contains(body, tt.wantBody) {
				t.Errorf("body = %s, want it to contain %s", body, tt.wantBody)
			}
		})
	}

	if ctrl.resets != 1 {
		t.Errorf("ResetAll calls = %d, want 1", ctrl.resets)
	}
	if ctrl.purges != 1 {
		t.Errorf("ClearCache calls = %d, want 1", ctrl.purges)
	}
}

func TestClearCache_Unavailable(t *testing.T) {
	ctrl := &mockController{purgeErr: fmt.Errorf("%w: cache not initialized", types.ErrCapabilityUnavailable)}
	_, ts := newTestServer(t, ctrl)

	status, body := do(t, http.MethodDelete, ts.URL+"/api/v1/cache", "")
	if status != http.StatusNotImplemented {
		t.Errorf("status = %d, want %d (body %s)", status, http.StatusNotImplemented, body)
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: already recording", types.ErrInvalidState), http.StatusConflict},
		{fmt.Errorf("%w: no audio recorder found", types.ErrCapabilityUnavailable), http.StatusNotImplemented},
		{fmt.Errorf("%w: empty", types.ErrRecordingFailed), http.StatusUnprocessableEntity},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			_, ts := newTestServer(t, &mockController{toggleErr: tt.err})
			status, body := do(t, http.MethodPost, ts.URL+"/api/v1/recording/toggle", "")
			if status != tt.want {
				t.Errorf("status = %d, want %d", status, tt.want)
			}
			if !strings.Contains(body, tt.err.Error()) {
				t.Errorf("body = %s", body)
			}
		})
	}
}

func TestConfig_MaskedRoundTrip(t *testing.T) {
	ctrl := &mockController{cfg: config.Config{
		Provider:     config.ProviderOpenAI,
		OpenAIAPIKey: "sk-1234567890abcd",
		Language:     "python",
	}}
	_, ts := newTestServer(t, ctrl)

	status, body := do(t, http.MethodGet, ts.URL+"/api/v1/config", "")
	if status != http.StatusOK {
		t.Fatalf("GET config status = %d", status)
	}
	if strings.Contains(body, "1234567890") {
		t.Fatalf("config leaks the api key: %s", body)
	}

	var got config.Config
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	got.Language = "go"
	put, _ := json.Marshal(got)

	status, body = do(t, http.MethodPut, ts.URL+"/api/v1/config", string(put))
	if status != http.StatusOK {
		t.Fatalf("PUT config status = %d, body %s", status, body)
	}
	if ctrl.saved == nil || ctrl.saved.OpenAIAPIKey != "sk-1234567890abcd" || ctrl.saved.Language != "go" {
		t.Errorf("saved config = %+v", ctrl.saved)
	}
}

func TestConfig_InvalidRejected(t *testing.T) {
	ctrl := &mockController{saveErr: fmt.Errorf("%w: openai api key required", types.ErrConfigInvalid)}
	_, ts := newTestServer(t, ctrl)

	status, _ := do(t, http.MethodPut, ts.URL+"/api/v1/config", `{"provider":"openai"}`)
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
	status, _ = do(t, http.MethodPut, ts.URL+"/api/v1/config", `not json`)
	if status != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", status)
	}
}

func TestEventsWebsocket(t *testing.T) {
	s, ts := newTestServer(t, &mockController{})

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for s.hub.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	s.Broadcast("audio-stream-chunk", "Hello ")
	s.Broadcast("audio-stream-chunk", "world")

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for _, want := range []string{"Hello ", "world"} {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Event != "audio-stream-chunk" || msg.Data != want {
			t.Errorf("message = %+v, want chunk %q", msg, want)
		}
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	h := NewHub()
	c := &client{send: make(chan []byte, 1)}
	h.add(c)

	h.Broadcast("a", nil)
	h.Broadcast("b", nil) // buffer full

	if h.Len() != 0 {
		t.Errorf("slow client should be removed, have %d", h.Len())
	}
	if _, ok := <-c.send; !ok {
		t.Error("first message should still be buffered")
	}
	if _, ok := <-c.send; ok {
		t.Error("send channel should be closed")
	}
}
