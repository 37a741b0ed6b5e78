package engine

import "github.com/dicearena/server/pkg/scoring"

// EventType names an event the engine can apply to a room, per the
// transition table in spec.md §4.4.
type EventType string

const (
	EventStartGame         EventType = "START_GAME"
	EventSubmitPrediction  EventType = "SUBMIT_PREDICTION"
	EventPredictionTimeout EventType = "PREDICTION_TIMEOUT"
	EventSelectDice        EventType = "SELECT_DICE"
	EventConfirmSelection  EventType = "CONFIRM_SELECTION"
	EventTurnTimeout       EventType = "TURN_TIMEOUT"
	EventNextSet           EventType = "NEXT_SET"
	EventNextRound         EventType = "NEXT_ROUND"
)

// Event is a single inbound occurrence applied to one room's state machine.
// Exactly one event is ever in flight per room, per spec.md §5.
type Event struct {
	Type       EventType
	PlayerID   string
	DieIDs     []string
	Prediction scoring.Prediction
}
