package httpapi

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"blackjack/internal/app"
	"blackjack/internal/domain"
	"blackjack/internal/ports/memstore"
	"blackjack/internal/records"
)

type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	_, srv := newServer(t, domain.Scenario{
		ID: "1", Type: "blackjack", Title: "Warm up", Difficulty: domain.DifficultyEasy,
		StartingAmount: 100, EndWithAmount: 200,
	}, func() time.Time { return start })
	return srv
}

func newServer(t *testing.T, scenario domain.Scenario, now func() time.Time) (*Server, *httptest.Server) {
	t.Helper()
	session, err := app.NewSession(context.Background(), app.SessionConfig{
		Scenarios:  []domain.Scenario{scenario},
		Repository: records.NewRepository(memstore.New(), noopLogger{}),
		Rng:        rand.New(rand.NewSource(7)),
		Now:        now,
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	server := New(session, noopLogger{}, now)
	srv := httptest.NewServer(server.Router())
	t.Cleanup(srv.Close)
	return server, srv
}

type roundBody struct {
	Snapshot struct {
		Phase      string `json:"phase"`
		Bankroll   int    `json:"bankroll"`
		CurrentBet int    `json:"currentBet"`
		Header     string `json:"header"`
		Intro      *struct {
			Message string `json:"message"`
		} `json:"intro"`
	} `json:"snapshot"`
	Events []struct {
		Kind string `json:"kind"`
	} `json:"events"`
	Error string `json:"error"`
}

func call(t *testing.T, srv *httptest.Server, method, path, body string) (int, roundBody) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out roundBody
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode %s %s: %v", method, path, err)
	}
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, err := srv.Client().Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestRoundFlow(t *testing.T) {
	srv := newTestServer(t)

	status, body := call(t, srv, http.MethodGet, "/api/round", "")
	if status != http.StatusOK || body.Snapshot.Phase != string(domain.PhaseAwaitingBet) {
		t.Fatalf("GET round = %d %+v", status, body.Snapshot)
	}
	if body.Snapshot.Header != "Level 1/1" {
		t.Fatalf("header = %q", body.Snapshot.Header)
	}
	if body.Snapshot.Intro == nil {
		t.Fatal("expected intro on a fresh store")
	}

	status, body = call(t, srv, http.MethodPost, "/api/round/bet", `{"denomination":10}`)
	if status != http.StatusOK {
		t.Fatalf("bet status = %d (%s)", status, body.Error)
	}
	if body.Snapshot.Bankroll != 90 || body.Snapshot.CurrentBet != 10 {
		t.Fatalf("after bet: %+v", body.Snapshot)
	}
	if len(body.Events) != 1 || body.Events[0].Kind != string(app.EventBetChanged) {
		t.Fatalf("events = %+v", body.Events)
	}

	status, body = call(t, srv, http.MethodPost, "/api/round/deal", "")
	if status != http.StatusOK {
		t.Fatalf("deal status = %d (%s)", status, body.Error)
	}
	if body.Snapshot.Phase == string(domain.PhaseAwaitingBet) {
		t.Fatalf("phase after deal = %s", body.Snapshot.Phase)
	}

	status, body = call(t, srv, http.MethodPost, "/api/intro/ack", "")
	if status != http.StatusOK || body.Snapshot.Intro != nil {
		t.Fatalf("intro ack = %d %+v", status, body.Snapshot)
	}
}

func TestPreconditionsAndBadInput(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"hit before deal", http.MethodPost, "/api/round/hit", "", http.StatusConflict},
		{"deal without bet", http.MethodPost, "/api/round/deal", "", http.StatusConflict},
		{"new game mid round", http.MethodPost, "/api/round/new-game", "", http.StatusConflict},
		{"unknown chip", http.MethodPost, "/api/round/bet", `{"denomination":7}`, http.StatusConflict},
		{"bet too large", http.MethodPost, "/api/round/bet", `{"denomination":500}`, http.StatusConflict},
		{"bet missing field", http.MethodPost, "/api/round/bet", `{}`, http.StatusBadRequest},
		{"bet not json", http.MethodPost, "/api/round/bet", `ten`, http.StatusBadRequest},
		{"menu missing field", http.MethodPost, "/api/menu", `{"shut":true}`, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, body := call(t, srv, tc.method, tc.path, tc.body)
			if status != tc.want {
				t.Fatalf("status = %d, want %d (%s)", status, tc.want, body.Error)
			}
			if body.Error == "" {
				t.Fatal("expected error message")
			}
		})
	}

	_, body := call(t, srv, http.MethodGet, "/api/round", "")
	if body.Snapshot.Bankroll != 100 || body.Snapshot.CurrentBet != 0 {
		t.Fatalf("rejected commands changed state: %+v", body.Snapshot)
	}
}

func TestProgressAndReset(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/api/progress")
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	var progress app.Progress
	if err := json.NewDecoder(resp.Body).Decode(&progress); err != nil {
		t.Fatalf("decode progress: %v", err)
	}
	resp.Body.Close()
	if len(progress.Levels) != 1 || progress.Levels[0].Status != app.LevelCurrent {
		t.Fatalf("progress = %+v", progress)
	}

	call(t, srv, http.MethodPost, "/api/round/bet", `{"denomination":50}`)
	status, body := call(t, srv, http.MethodDelete, "/api/progress", "")
	if status != http.StatusOK {
		t.Fatalf("reset status = %d", status)
	}
	if body.Snapshot.Bankroll != 100 || body.Snapshot.CurrentBet != 0 {
		t.Fatalf("after reset: %+v", body.Snapshot)
	}
}

func TestMenuToggle(t *testing.T) {
	srv := newTestServer(t)
	status, body := call(t, srv, http.MethodPost, "/api/menu", `{"open":true}`)
	if status != http.StatusOK || len(body.Events) != 1 || body.Events[0].Kind != string(app.EventMenuChanged) {
		t.Fatalf("menu = %d %+v", status, body.Events)
	}
}

func TestTimeoutEventsDelivered(t *testing.T) {
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }
	server, srv := newServer(t, domain.Scenario{
		ID: "1", Type: "blackjack", Title: "Against the Clock", Difficulty: domain.DifficultyEasy,
		StartingAmount: 100, EndWithAmount: 200, TimeLimit: domain.IntPtr(3),
	}, now)

	if status, body := call(t, srv, http.MethodPost, "/api/round/bet", `{"denomination":50}`); status != http.StatusOK {
		t.Fatalf("bet status = %d (%s)", status, body.Error)
	}
	for i := 0; i < 3; i++ {
		clock = clock.Add(time.Second)
		server.Tick(context.Background())
	}

	status, body := call(t, srv, http.MethodGet, "/api/round", "")
	if status != http.StatusOK {
		t.Fatalf("GET round = %d", status)
	}
	if body.Snapshot.Bankroll != 100 || body.Snapshot.CurrentBet != 0 {
		t.Fatalf("after timeout: %+v", body.Snapshot)
	}
	kinds := map[string]bool{}
	for _, ev := range body.Events {
		kinds[ev.Kind] = true
	}
	for _, want := range []app.EventKind{app.EventTimerTicked, app.EventLevelFailed, app.EventNotice} {
		if !kinds[string(want)] {
			t.Fatalf("missing %s in %+v", want, body.Events)
		}
	}

	_, body = call(t, srv, http.MethodGet, "/api/round", "")
	if len(body.Events) != 0 {
		t.Fatalf("events delivered twice: %+v", body.Events)
	}
}

func TestTickEventsKeptOnRejectedCommand(t *testing.T) {
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	server, srv := newServer(t, domain.Scenario{
		ID: "1", Type: "blackjack", Title: "Against the Clock", Difficulty: domain.DifficultyEasy,
		StartingAmount: 100, EndWithAmount: 200, TimeLimit: domain.IntPtr(30),
	}, func() time.Time { return clock })

	clock = clock.Add(time.Second)
	server.Tick(context.Background())

	if status, _ := call(t, srv, http.MethodPost, "/api/round/hit", ""); status != http.StatusConflict {
		t.Fatalf("hit status = %d", status)
	}
	status, body := call(t, srv, http.MethodPost, "/api/round/bet", `{"denomination":10}`)
	if status != http.StatusOK {
		t.Fatalf("bet status = %d (%s)", status, body.Error)
	}
	if len(body.Events) != 2 ||
		body.Events[0].Kind != string(app.EventTimerTicked) ||
		body.Events[1].Kind != string(app.EventBetChanged) {
		t.Fatalf("events = %+v", body.Events)
	}
}
