package nakama

const (
	// MatchNameBlackjack is the authoritative match handler name registered with Nakama.
	MatchNameBlackjack = "blackjack_run"

	// StorageCollection holds every per-user record.
	StorageCollection = "blackjack"

	// EnvScenariosPath names the runtime env entry pointing at the scenario catalogue.
	EnvScenariosPath = "blackjack_scenarios_path"

	defaultScenariosPath = "data/scenarios.json"
)

// RPC ids.
const (
	RpcStartRun      = "blackjack_start_run"
	RpcProgress      = "blackjack_progress"
	RpcStats         = "blackjack_stats"
	RpcResetProgress = "blackjack_reset_progress"
)

// Op codes for client messages and server messages.
const (
	// Client -> Server
	OpPlaceBet           int64 = 1
	OpClearBet           int64 = 2
	OpAllIn              int64 = 3
	OpDeal               int64 = 4
	OpHit                int64 = 5
	OpStand              int64 = 6
	OpNewGame            int64 = 7
	OpMenu               int64 = 8
	OpDismissDistraction int64 = 9
	OpAcknowledgeIntro   int64 = 10

	// Server -> Client
	OpSnapshot int64 = 100
	OpEvent    int64 = 101
	OpError    int64 = 102
)

// Error codes carried by OpError.
const (
	ErrCodeBadPayload   = 1
	ErrCodePrecondition = 2
	ErrCodeInternal     = 3
	ErrCodeUnknownOp    = 4
)
