package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/heroiclabs/nakama-common/rtapi"
	"github.com/heroiclabs/nakama-go/v2"
)

const (
	ServerKey = "defaultkey"
	Host      = "127.0.0.1"
	Port      = 7350

	// EnvEnable must be set for these tests to talk to a running server.
	EnvEnable = "BLACKJACK_INTEGRATION"
)

type TestClient struct {
	Client  *nakama.Client
	Session *nakama.Session
	Socket  *nakama.Socket
	UserID  string

	matchData chan *rtapi.MatchData
}

func requireServer(t *testing.T) {
	t.Helper()
	if os.Getenv(EnvEnable) == "" {
		t.Skipf("set %s to run against a local Nakama server", EnvEnable)
	}
}

func NewTestClient(t *testing.T) *TestClient {
	requireServer(t)
	client := nakama.NewClient(ServerKey, Host, Port, false)

	deviceID := fmt.Sprintf("test_device_%d", time.Now().UnixNano())
	session, err := client.AuthenticateDevice(context.Background(), deviceID, true, "")
	if err != nil {
		t.Fatalf("Failed to authenticate: %v", err)
	}

	tc := &TestClient{
		Client:    client,
		Session:   session,
		UserID:    session.UserId,
		matchData: make(chan *rtapi.MatchData, 64),
	}
	socket := client.NewSocket()
	socket.OnMatchData = func(data *rtapi.MatchData) {
		select {
		case tc.matchData <- data:
		default:
		}
	}
	if err := socket.Connect(context.Background(), session, true); err != nil {
		t.Fatalf("Failed to connect socket: %v", err)
	}
	tc.Socket = socket
	return tc
}

func (tc *TestClient) Close() {
	if tc.Socket != nil {
		tc.Socket.Close()
	}
}

// StartAndJoinRun calls blackjack_start_run and joins the returned match.
func (tc *TestClient) StartAndJoinRun(t *testing.T) string {
	rpc, err := tc.Client.RpcFunc(context.Background(), tc.Session, "blackjack_start_run", "")
	if err != nil {
		t.Fatalf("RPC blackjack_start_run failed: %v", err)
	}
	var resp struct {
		MatchID string `json:"match_id"`
	}
	if err := json.Unmarshal([]byte(rpc.Payload), &resp); err != nil || resp.MatchID == "" {
		t.Fatalf("RPC blackjack_start_run returned %q: %v", rpc.Payload, err)
	}

	if _, err := tc.Socket.JoinMatch(context.Background(), nil, resp.MatchID, nil); err != nil {
		t.Fatalf("Failed to join match %s: %v", resp.MatchID, err)
	}
	return resp.MatchID
}

// WaitForMatchState returns the next message with opCode, dropping others.
func (tc *TestClient) WaitForMatchState(t *testing.T, opCode int64, timeout time.Duration) *rtapi.MatchData {
	deadline := time.After(timeout)
	for {
		select {
		case data := <-tc.matchData:
			if data.OpCode == opCode {
				return data
			}
		case <-deadline:
			t.Fatalf("Timeout waiting for OpCode %d", opCode)
			return nil
		}
	}
}
