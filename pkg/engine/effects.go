package engine

import (
	"time"

	"github.com/dicearena/server/pkg/game"
)

// NotificationKind names the shape of a broadcast-worthy occurrence the
// engine produced while applying an event. The gateway maps each kind onto
// the server->client event names listed in spec.md §6.
type NotificationKind string

const (
	NotifyPhaseChange    NotificationKind = "phaseChange"
	NotifyInitialRoll    NotificationKind = "initialRoll"
	NotifyTurnStart      NotificationKind = "turnStart"
	NotifyDiceSelected   NotificationKind = "diceSelected"
	NotifyDiceConfirmed  NotificationKind = "diceConfirmed"
	NotifyPredictionSub  NotificationKind = "predictionSubmitted"
	NotifyAllPredicted   NotificationKind = "predictionAllSubmitted"
	NotifySetReveal      NotificationKind = "setReveal"
	NotifyRoundComplete  NotificationKind = "roundComplete"
	NotifyGameOver       NotificationKind = "gameOver"
)

// Notification is one effect the calling layer (the room actor) must
// broadcast after Apply returns. The engine builds these while applying an
// event but never sends them itself, keeping Apply free of suspension
// points per spec.md §5 ("Event application itself is pure and must not
// suspend").
type Notification struct {
	Kind NotificationKind
	// State is a deep-cloned snapshot of the room's state as of this
	// notification; the gateway applies its own per-recipient visibility
	// transform (hidden dice -> counts) before sending.
	State *game.GameState

	// Present only on NotifyTurnStart.
	TurnHolder     string
	SecondsRemaining int

	// Present only on NotifyDiceSelected / NotifyDiceConfirmed /
	// NotifyPredictionSub.
	ActingPlayer string

	// Present only on NotifyInitialRoll.
	InitialRolls []game.InitialRollResult

	// Present only on NotifySetReveal / NotifyRoundComplete.
	SetResults  []game.SetResult
	RoundResult *game.RoundResult

	// Present only on NotifyGameOver.
	FinalStandings []game.Player
}

// TimerAction names what the calling layer should do with a named timer.
type TimerAction string

const (
	TimerStart  TimerAction = "start"
	TimerCancel TimerAction = "cancel"
)

// TimerKind names one of the two engine-driven per-room countdowns from
// spec.md §4.5 (turn and prediction). The third, the results-ack timeout,
// is started and cancelled by the gateway, not through TimerCommand.
type TimerKind string

const (
	TimerTurn       TimerKind = "turn"
	TimerPrediction TimerKind = "prediction"
)

// TimerCommand instructs the calling layer to start or cancel a named
// timer. The engine decides when timers start/stop as a pure function of
// the transition it just ran; the actual goroutine/ticker lives in
// pkg/timer, driven by the room actor.
type TimerCommand struct {
	Action     TimerAction
	Kind       TimerKind
	Duration   time.Duration
	TurnHolder string // only meaningful for TimerTurn
}

// ApplyResult bundles everything Apply produced for one inbound event.
type ApplyResult struct {
	Notifications []Notification
	TimerCommands []TimerCommand
}

func (r *ApplyResult) notify(n Notification) {
	r.Notifications = append(r.Notifications, n)
}

func (r *ApplyResult) timer(cmd TimerCommand) {
	r.TimerCommands = append(r.TimerCommands, cmd)
}
