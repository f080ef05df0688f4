package nakama

import (
	"context"
	"database/sql"
	"fmt"

	"blackjack/internal/app"
	"blackjack/internal/config"
	"blackjack/internal/domain"
	"blackjack/internal/records"

	"github.com/heroiclabs/nakama-common/runtime"
)

var errNoUser = runtime.NewError("authenticated user required", 16) // UNAUTHENTICATED

// StartRunResponse is returned by blackjack_start_run.
type StartRunResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

// StatsResponse is returned by blackjack_stats.
type StatsResponse struct {
	Stats          domain.Stats `json:"stats"`
	WinRate        float64      `json:"winRate"`
	TotalTimeSpent string       `json:"totalTimeSpent"`
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	rpcs := map[string]func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error){
		RpcStartRun:      rpcStartRun,
		RpcProgress:      rpcProgress,
		RpcStats:         rpcStats,
		RpcResetProgress: rpcResetProgress,
	}
	for id, fn := range rpcs {
		if err := initializer.RegisterRpc(id, fn); err != nil {
			return fmt.Errorf("failed to register rpc %s: %w", id, err)
		}
	}
	return nil
}

// rpcStartRun returns the caller's running match, creating one if needed.
func rpcStartRun(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if !ok || userID == "" {
		return "", errNoUser
	}

	matchID, err := findRun(ctx, nk, userID)
	if err != nil {
		logger.Error("rpcStartRun [User:%s]: Failed to list matches: %v", userID, err)
		return "", err
	}
	if matchID != "" {
		logger.Info("rpcStartRun [User:%s]: Resuming match %s", userID, matchID)
		return jsonResponse(StartRunResponse{MatchID: matchID})
	}

	matchID, err = nk.MatchCreate(ctx, MatchNameBlackjack, map[string]interface{}{MatchParamUserID: userID})
	if err != nil {
		logger.Error("rpcStartRun [User:%s]: Failed to create match: %v", userID, err)
		return "", err
	}
	logger.Info("rpcStartRun [User:%s]: Created match %s", userID, matchID)
	return jsonResponse(StartRunResponse{MatchID: matchID, IsNew: true})
}

func rpcProgress(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if !ok || userID == "" {
		return "", errNoUser
	}
	scenarios, err := config.LoadScenarios(scenariosPath(ctx))
	if err != nil {
		logger.Error("rpcProgress: Could not load scenarios: %v", err)
		return "", err
	}
	repo := records.NewRepository(NewNakamaStorageAdapter(nk, userID), logger)
	progress, err := app.ReadProgress(ctx, repo, scenarios, nil)
	if err != nil {
		return "", err
	}
	return jsonResponse(progress)
}

func rpcStats(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if !ok || userID == "" {
		return "", errNoUser
	}
	stats := records.NewRepository(NewNakamaStorageAdapter(nk, userID), logger).LoadStats(ctx)
	return jsonResponse(StatsResponse{
		Stats:          stats,
		WinRate:        stats.WinRate(),
		TotalTimeSpent: domain.FormatDuration(stats.TotalTimeSpent),
	})
}

// rpcResetProgress resets inside the running match when there is one, so the
// live session does not write stale records back.
func rpcResetProgress(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if !ok || userID == "" {
		return "", errNoUser
	}

	matchID, err := findRun(ctx, nk, userID)
	if err != nil {
		logger.Error("rpcResetProgress [User:%s]: Failed to list matches: %v", userID, err)
		return "", err
	}
	if matchID != "" {
		_, serr := nk.MatchSignal(ctx, matchID, signalReset)
		if serr == nil {
			return jsonResponse(map[string]interface{}{"reset": true, "match_id": matchID})
		}
		// The match may have ended between listing and signalling.
		logger.Warn("rpcResetProgress [User:%s]: Failed to signal match %s: %v", userID, matchID, serr)
	}

	records.NewRepository(NewNakamaStorageAdapter(nk, userID), logger).Reset(ctx)
	logger.Info("rpcResetProgress [User:%s]: Progress reset", userID)
	return jsonResponse(map[string]interface{}{"reset": true})
}

// findRun returns the id of userID's running match, or "" if none.
func findRun(ctx context.Context, nk runtime.NakamaModule, userID string) (string, error) {
	query := fmt.Sprintf("+label.game:blackjack +label.owner:%s", userID)
	minSize := 0
	maxSize := 1
	matches, err := nk.MatchList(ctx, 1, true, "", &minSize, &maxSize, query)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", nil
	}
	return matches[0].GetMatchId(), nil
}
