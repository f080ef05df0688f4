package nakama

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

// recordingLogger keeps formatted Warn lines.
type recordingLogger struct {
	noopLogger
	warns *[]string
}

func newRecordingLogger() recordingLogger {
	return recordingLogger{warns: &[]string{}}
}

func (l recordingLogger) Warn(format string, v ...interface{}) {
	*l.warns = append(*l.warns, fmt.Sprintf(format, v...))
}

func (l recordingLogger) WithField(string, interface{}) runtime.Logger { return l }

func (l recordingLogger) WithFields(map[string]interface{}) runtime.Logger { return l }

type sentMessage struct {
	opCode     int64
	data       []byte
	recipients []runtime.Presence
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	sent         []sentMessage
	labelUpdates []string
	broadcastErr error
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	md.sent = append(md.sent, sentMessage{opCode: opCode, data: append([]byte(nil), data...), recipients: presences})
	return md.broadcastErr
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labelUpdates = append(md.labelUpdates, label)
	return nil
}

func (md *mockDispatcher) byOp(opCode int64) []sentMessage {
	var out []sentMessage
	for _, m := range md.sent {
		if m.opCode == opCode {
			out = append(out, m)
		}
	}
	return out
}

func (md *mockDispatcher) reset() { md.sent = nil }

type testPresence struct {
	userID string
}

func (p testPresence) GetHidden() bool                   { return false }
func (p testPresence) GetPersistence() bool              { return false }
func (p testPresence) GetUsername() string               { return p.userID }
func (p testPresence) GetStatus() string                 { return "" }
func (p testPresence) GetReason() runtime.PresenceReason { return runtime.PresenceReasonUnknown }
func (p testPresence) GetUserId() string                 { return p.userID }
func (p testPresence) GetSessionId() string              { return "session-" + p.userID }
func (p testPresence) GetNodeId() string                 { return "node" }

type testMatchData struct {
	testPresence
	opCode int64
	data   []byte
}

func (d testMatchData) GetOpCode() int64      { return d.opCode }
func (d testMatchData) GetData() []byte       { return d.data }
func (d testMatchData) GetReliable() bool     { return true }
func (d testMatchData) GetReceiveTime() int64 { return 0 }

// fakeNakama implements the parts of runtime.NakamaModule the adapters call.
// Anything else panics through the nil embedded interface.
type fakeNakama struct {
	runtime.NakamaModule

	mu        sync.Mutex
	objects   map[string]*api.StorageObject
	writeErr  error
	profiles  map[string]string
	matches   []*api.Match
	signals   map[string][]string
	createErr error
}

func newFakeNakama() *fakeNakama {
	return &fakeNakama{
		objects:  map[string]*api.StorageObject{},
		profiles: map[string]string{},
		signals:  map[string][]string{},
	}
}

func objectKey(collection, userID, key string) string {
	return collection + "/" + userID + "/" + key
}

func (f *fakeNakama) StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*api.StorageObject
	for _, r := range reads {
		if obj, ok := f.objects[objectKey(r.Collection, r.UserID, r.Key)]; ok {
			out = append(out, obj)
		}
	}
	return out, nil
}

func (f *fakeNakama) StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	acks := make([]*api.StorageObjectAck, 0, len(writes))
	for _, w := range writes {
		k := objectKey(w.Collection, w.UserID, w.Key)
		if _, exists := f.objects[k]; exists && w.Version == "*" {
			return nil, runtime.ErrStorageRejectedVersion
		}
		f.objects[k] = &api.StorageObject{
			Collection:      w.Collection,
			Key:             w.Key,
			UserId:          w.UserID,
			Value:           w.Value,
			PermissionRead:  int32(w.PermissionRead),
			PermissionWrite: int32(w.PermissionWrite),
		}
		acks = append(acks, &api.StorageObjectAck{Collection: w.Collection, Key: w.Key, UserId: w.UserID})
	}
	return acks, nil
}

func (f *fakeNakama) StorageDelete(ctx context.Context, deletes []*runtime.StorageDelete) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range deletes {
		delete(f.objects, objectKey(d.Collection, d.UserID, d.Key))
	}
	return nil
}

func (f *fakeNakama) AccountUpdateId(ctx context.Context, userID, username string, metadata map[string]interface{}, displayName, timezone, location, langTag, avatarUrl string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[userID] = displayName
	return nil
}

func (f *fakeNakama) MatchCreate(ctx context.Context, module string, params map[string]interface{}) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	owner, _ := params[MatchParamUserID].(string)
	label, err := matchLabel(owner, "")
	if err != nil {
		return "", err
	}
	id := "match-" + owner
	f.matches = append(f.matches, &api.Match{MatchId: id, Authoritative: true, Label: wrapperspb.String(label)})
	return id, nil
}

func (f *fakeNakama) MatchList(ctx context.Context, limit int, authoritative bool, label string, minSize, maxSize *int, query string) ([]*api.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*api.Match
	for _, m := range f.matches {
		if strings.Contains(query, strings.TrimPrefix(m.GetMatchId(), "match-")) {
			out = append(out, m)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeNakama) MatchSignal(ctx context.Context, id string, data string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signals[id] = append(f.signals[id], data)
	return "ok", nil
}
