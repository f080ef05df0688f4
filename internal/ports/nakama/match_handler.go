package nakama

import (
	"bytes"
	"context"
	"database/sql"
	"math/rand"
	"time"

	"blackjack/internal/app"
	"blackjack/internal/config"
	"blackjack/internal/records"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	// MatchParamUserID names the match param carrying the owning player.
	MatchParamUserID = "user_id"

	// signalReset asks a running match to wipe its player's progress.
	signalReset = "reset"

	tickRate = 1

	// joinTimeoutTicks terminates matches the owner never joined.
	joinTimeoutTicks = 30
)

// MatchState holds the authoritative runtime state for one player's run.
type MatchState struct {
	OwnerID    string           `json:"owner_id"`
	Presence   runtime.Presence `json:"-"` // nil while the owner is away
	Session    *app.Session     `json:"-"`
	Tick       int64            `json:"tick"`
	EmptyTicks int64            `json:"empty_ticks"` // ticks without the owner present
	LastHeader string           `json:"last_header"`

	// LastSnapshot is the last snapshot sent, for change detection.
	LastSnapshot []byte `json:"-"`
}

type matchHandler struct {
	now func() time.Time
	rng func() *rand.Rand
}

func newMatchHandler() *matchHandler {
	return &matchHandler{
		now: time.Now,
		rng: func() *rand.Rand { return rand.New(rand.NewSource(time.Now().UnixNano())) },
	}
}

// MatchInit builds the player's session from stored records.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	ownerID, _ := params[MatchParamUserID].(string)
	if ownerID == "" {
		logger.Error("MatchInit: missing %s param", MatchParamUserID)
		return nil, 0, ""
	}

	scenarios, err := config.LoadScenarios(scenariosPath(ctx))
	if err != nil {
		logger.Error("MatchInit: Could not load scenarios: %v", err)
		return nil, 0, ""
	}

	session, err := app.NewSession(ctx, app.SessionConfig{
		Scenarios:  scenarios,
		Repository: records.NewRepository(NewNakamaStorageAdapter(nk, ownerID), logger),
		Rng:        mh.rng(),
		Now:        mh.now,
	})
	if err != nil {
		logger.Error("MatchInit: Could not start session for %s: %v", ownerID, err)
		return nil, 0, ""
	}

	state := &MatchState{OwnerID: ownerID, Session: session}
	snap := session.Snapshot()
	state.LastHeader = snap.Header
	label, err := matchLabel(ownerID, snap.Header)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}
	logger.Debug("MatchInit: run for %s at %s", ownerID, snap.Header)
	return state, tickRate, label
}

// MatchJoinAttempt admits only the owner, once.
func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}
	if presence.GetUserId() != matchState.OwnerID {
		return state, false, "not your run"
	}
	if matchState.Presence != nil {
		return state, false, "already joined"
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}
	for _, p := range presences {
		if p.GetUserId() == matchState.OwnerID {
			matchState.Presence = p
			matchState.EmptyTicks = 0
		}
	}
	// A rejoining client needs the full view even if nothing changed.
	matchState.LastSnapshot = nil
	mh.broadcastSnapshot(matchState, dispatcher, logger)
	return matchState
}

// MatchLeave ends the run when its owner leaves.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}
	for _, p := range presences {
		if p.GetUserId() == matchState.OwnerID {
			logger.Info("MatchLeave: Owner %s left, terminating run.", matchState.OwnerID)
			return nil
		}
	}
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}
	matchState.Tick = tick

	if matchState.Presence == nil {
		matchState.EmptyTicks++
		if matchState.EmptyTicks >= joinTimeoutTicks {
			logger.Info("MatchLoop: Owner %s never joined, terminating run.", matchState.OwnerID)
			return nil
		}
		return matchState
	}

	for _, msg := range messages {
		if msg.GetUserId() != matchState.OwnerID {
			continue
		}
		mh.handleMessage(ctx, matchState, dispatcher, logger, msg)
	}

	events, err := matchState.Session.Tick(ctx, mh.now())
	if err != nil {
		logger.Error("MatchLoop: Tick failed: %v", err)
	}
	for _, ev := range events {
		mh.broadcastEvent(matchState, dispatcher, logger, ev)
	}

	mh.broadcastSnapshot(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) handleMessage(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	session := state.Session
	var (
		events []app.Event
		err    error
	)
	switch msg.GetOpCode() {
	case OpPlaceBet:
		payload, perr := decodePayload(msg.GetData())
		if perr == nil {
			var denomination int
			if denomination, perr = intField(payload, "denomination"); perr == nil {
				events, err = session.PlaceBet(ctx, denomination)
			}
		}
		if perr != nil {
			mh.sendError(state, dispatcher, logger, ErrCodeBadPayload, perr.Error())
			return
		}
	case OpClearBet:
		events, err = session.ClearBet(ctx)
	case OpAllIn:
		events, err = session.GoAllIn(ctx)
	case OpDeal:
		events, err = session.Deal(ctx)
	case OpHit:
		events, err = session.Hit(ctx)
	case OpStand:
		events, err = session.Stand(ctx)
	case OpNewGame:
		events, err = session.StartNewGame(ctx)
	case OpMenu:
		payload, perr := decodePayload(msg.GetData())
		if perr == nil {
			var open bool
			if open, perr = boolField(payload, "open"); perr == nil {
				events, err = session.SetMenuOpen(ctx, open)
			}
		}
		if perr != nil {
			mh.sendError(state, dispatcher, logger, ErrCodeBadPayload, perr.Error())
			return
		}
	case OpDismissDistraction:
		events, err = session.DismissDistraction(ctx)
	case OpAcknowledgeIntro:
		events, err = session.AcknowledgeIntro(ctx)
	default:
		logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		mh.sendError(state, dispatcher, logger, ErrCodeUnknownOp, "unknown opcode")
		return
	}

	if err != nil {
		if app.IsPrecondition(err) {
			logger.Debug("MatchLoop: op %d rejected for %s: %v", msg.GetOpCode(), state.OwnerID, err)
			mh.sendError(state, dispatcher, logger, ErrCodePrecondition, err.Error())
			return
		}
		logger.Error("MatchLoop: op %d failed for %s: %v", msg.GetOpCode(), state.OwnerID, err)
		mh.sendError(state, dispatcher, logger, ErrCodeInternal, "internal error")
		return
	}
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	if state.Presence == nil {
		return
	}
	data, err := encodeEvent(ev)
	if err != nil {
		logger.Error("Failed to encode event %s: %v", ev.Kind, err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpEvent, data, []runtime.Presence{state.Presence}, nil, true); err != nil {
		logger.Warn("Failed to send event %s: %v", ev.Kind, err)
	}
}

// broadcastSnapshot sends the snapshot when it differs from the last one sent.
func (mh *matchHandler) broadcastSnapshot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Presence == nil {
		return
	}
	snap := state.Session.Snapshot()
	data, err := encodeSnapshot(snap)
	if err != nil {
		logger.Error("Failed to encode snapshot: %v", err)
		return
	}
	if state.LastSnapshot != nil && bytes.Equal(data, state.LastSnapshot) {
		return
	}
	if err := dispatcher.BroadcastMessage(OpSnapshot, data, []runtime.Presence{state.Presence}, nil, true); err != nil {
		logger.Warn("Failed to send snapshot: %v", err)
		return
	}
	state.LastSnapshot = data

	if snap.Header != state.LastHeader {
		state.LastHeader = snap.Header
		mh.updateLabel(state, dispatcher, logger)
	}
}

// sendError sends an error message to the owner.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, code int, message string) {
	if state.Presence == nil {
		return
	}
	data, err := encodeError(code, message)
	if err != nil {
		logger.Error("Failed to encode error: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpError, data, []runtime.Presence{state.Presence}, nil, true); err != nil {
		logger.Warn("Failed to send error %d: %v", code, err)
	}
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := matchLabel(state.OwnerID, state.LastHeader)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated with %d seconds grace", graceSeconds)
	return state
}

// MatchSignal handles out-of-band requests from RPCs.
func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, ""
	}
	if data != signalReset {
		logger.Warn("MatchSignal: Unknown signal %q", data)
		return matchState, ""
	}
	events, err := matchState.Session.ResetProgress(ctx)
	if err != nil {
		logger.Error("MatchSignal: reset failed for %s: %v", matchState.OwnerID, err)
		return matchState, ""
	}
	for _, ev := range events {
		mh.broadcastEvent(matchState, dispatcher, logger, ev)
	}
	mh.broadcastSnapshot(matchState, dispatcher, logger)
	return matchState, "ok"
}

func scenariosPath(ctx context.Context) string {
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		if path := env[EnvScenariosPath]; path != "" {
			return path
		}
	}
	return defaultScenariosPath
}
