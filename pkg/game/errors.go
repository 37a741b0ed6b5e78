package game

// RuleError is a stable, user-facing rule violation. It carries a machine
// code and a short human message, per spec.md §7's requirement that every
// error surfaced to a client include both. It replaces the teacher's use of
// gRPC status.Error(codes.X, ...) (pkg/server/lobby.go) with a
// transport-agnostic equivalent the gateway maps onto a room:error frame.
type RuleError struct {
	Code    string
	Message string
}

func (e *RuleError) Error() string { return e.Message }

func newRuleError(code, message string) *RuleError {
	return &RuleError{Code: code, Message: message}
}

// Stable rule-violation codes, per spec.md §7 taxonomy.
var (
	ErrRoomNotFound              = newRuleError("ROOM_NOT_FOUND", "room not found")
	ErrGameInProgress            = newRuleError("GAME_IN_PROGRESS", "game already in progress")
	ErrRoomFull                  = newRuleError("ROOM_FULL", "room is full")
	ErrNameTaken                 = newRuleError("NAME_TAKEN", "player name already taken")
	ErrPlayerNotFound            = newRuleError("PLAYER_NOT_FOUND", "player not found")
	ErrNotHost                   = newRuleError("NOT_HOST", "only the host can do that")
	ErrCannotStart               = newRuleError("CANNOT_START", "room cannot start yet")
	ErrGameNotFound              = newRuleError("GAME_NOT_FOUND", "no active game for room")
	ErrInvalidPhase              = newRuleError("INVALID_PHASE", "event not valid in current phase")
	ErrNotYourTurn               = newRuleError("NOT_YOUR_TURN", "it is not your turn")
	ErrInvalidSelection          = newRuleError("INVALID_SELECTION", "selection must be exactly 3 unspent dice you own")
	ErrInvalidDie                = newRuleError("INVALID_DIE", "unknown die id")
	ErrDieAlreadySpent           = newRuleError("DIE_ALREADY_SPENT", "die already spent")
	ErrNoSelection               = newRuleError("NO_SELECTION", "no pending selection to confirm")
	ErrAlreadyConfirmed          = newRuleError("ALREADY_CONFIRMED", "selection already confirmed")
	ErrPredictionAlreadySubmitted = newRuleError("PREDICTION_ALREADY_SUBMITTED", "prediction already submitted")
)
