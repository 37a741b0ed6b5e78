package engine

import (
	"time"

	"github.com/dicearena/server/pkg/game"
	"github.com/dicearena/server/pkg/scoring"
)

func (e *Engine) turnDuration() time.Duration {
	return time.Duration(e.state.Config.TurnTimerSeconds) * time.Second
}

// predictionDuration reuses the turn timer's length for the prediction
// clock, per spec.md §9 Open Question (b): the source documents this as a
// deliberate contract, not an accident, so the redesign keeps it rather
// than introducing a separate configurable prediction timeout.
func (e *Engine) predictionDuration() time.Duration {
	return e.turnDuration()
}

// applyLobby handles START_GAME, the only event LOBBY accepts. Every other
// roster change (join/leave/ready) goes through the dedicated methods above,
// since those are registry-driven room-management actions rather than
// game-state-machine events per spec.md §4.3 vs §4.4.
func (e *Engine) applyLobby(ev Event, result *ApplyResult) error {
	if ev.Type != EventStartGame {
		return game.ErrInvalidPhase
	}
	if ev.PlayerID != e.state.HostID {
		return game.ErrNotHost
	}
	if !e.canStartLocked() {
		return game.ErrCannotStart
	}

	rolls := make([]scoring.RollResult, len(e.state.Players))
	e.state.InitialRollResults = make([]game.InitialRollResult, len(e.state.Players))
	for i, p := range e.state.Players {
		d1, d2 := e.rollDie(), e.rollDie()
		total := d1 + d2
		rolls[i] = scoring.RollResult{PlayerID: p.ID, Total: total}
		e.state.InitialRollResults[i] = game.InitialRollResult{PlayerID: p.ID, Dice: [2]int{d1, d2}, Total: total}
	}
	e.state.TurnOrder = scoring.InitialTurnOrder(rolls)
	e.state.InitialOrder = append([]string(nil), e.state.TurnOrder...)
	e.state.Phase = game.PhaseInitialRoll

	result.notify(Notification{
		Kind:         NotifyInitialRoll,
		State:        cloneState(e.state),
		InitialRolls: append([]game.InitialRollResult(nil), e.state.InitialRollResults...),
	})

	e.startRound(result)
	return nil
}

// startRound begins a fresh round: rolls 11 new dice per player, resets
// per-round scoring fields, and enters PREDICTION with its timer running.
func (e *Engine) startRound(result *ApplyResult) {
	e.state.CurrentRound++
	e.state.CurrentSet = 1
	e.state.CurrentTurnIndex = 0
	e.state.PendingSelections = map[string]*game.PendingSelection{}
	e.state.SetResults = nil
	e.state.PendingRoundResult = &game.RoundResult{Round: e.state.CurrentRound}

	for _, p := range e.state.Players {
		dice := scoring.NewRoundDice(e.dieID)
		dice = scoring.RollDice(dice, e.rollDie)
		p.ResetForRound(dice)
	}

	e.state.Phase = game.PhasePrediction

	result.notify(Notification{Kind: NotifyPhaseChange, State: cloneState(e.state)})
	result.timer(TimerCommand{Action: TimerStart, Kind: TimerPrediction, Duration: e.predictionDuration()})
}

// applyPrediction handles SUBMIT_PREDICTION and PREDICTION_TIMEOUT, the
// only two events valid during PREDICTION.
func (e *Engine) applyPrediction(ev Event, result *ApplyResult) error {
	switch ev.Type {
	case EventSubmitPrediction:
		p := e.state.PlayerByID(ev.PlayerID)
		if p == nil {
			return game.ErrPlayerNotFound
		}
		if p.Prediction != scoring.PredictionNone {
			return game.ErrPredictionAlreadySubmitted
		}
		p.Prediction = ev.Prediction
		result.notify(Notification{Kind: NotifyPredictionSub, State: cloneState(e.state), ActingPlayer: p.ID})

	case EventPredictionTimeout:
		available := scoring.AvailablePredictions(len(e.state.Players))
		for _, p := range e.state.Players {
			if p.Prediction == scoring.PredictionNone && len(available) > 0 {
				p.Prediction = available[e.rng.Intn(len(available))]
			}
		}

	default:
		return game.ErrInvalidPhase
	}

	if e.allPredicted() {
		e.enterSetSelection(result)
	}
	return nil
}

func (e *Engine) allPredicted() bool {
	for _, p := range e.state.Players {
		if p.Prediction == scoring.PredictionNone {
			return false
		}
	}
	return true
}

func (e *Engine) enterSetSelection(result *ApplyResult) {
	e.state.PendingSelections = map[string]*game.PendingSelection{}
	e.state.Phase = game.PhaseSetSelection

	result.timer(TimerCommand{Action: TimerCancel, Kind: TimerPrediction})
	result.notify(Notification{Kind: NotifyAllPredicted, State: cloneState(e.state)})
	e.startTurn(result)
}

func (e *Engine) startTurn(result *ApplyResult) {
	holder := e.state.CurrentTurnHolder()
	if holder == "" {
		return
	}
	result.timer(TimerCommand{Action: TimerStart, Kind: TimerTurn, Duration: e.turnDuration(), TurnHolder: holder})
	result.notify(Notification{
		Kind:             NotifyTurnStart,
		State:            cloneState(e.state),
		TurnHolder:       holder,
		SecondsRemaining: e.state.Config.TurnTimerSeconds,
	})
}

// applySetSelection handles SELECT_DICE, CONFIRM_SELECTION and
// TURN_TIMEOUT, the events valid during SET_SELECTION.
func (e *Engine) applySetSelection(ev Event, result *ApplyResult) error {
	switch ev.Type {
	case EventSelectDice:
		if ev.PlayerID != e.state.CurrentTurnHolder() {
			return game.ErrNotYourTurn
		}
		if err := e.validateSelection(ev.PlayerID, ev.DieIDs); err != nil {
			return err
		}
		e.state.PendingSelections[ev.PlayerID] = &game.PendingSelection{DieIDs: append([]string(nil), ev.DieIDs...)}
		result.notify(Notification{Kind: NotifyDiceSelected, State: cloneState(e.state), ActingPlayer: ev.PlayerID})
		return nil

	case EventConfirmSelection:
		sel, ok := e.state.PendingSelections[ev.PlayerID]
		if !ok {
			return game.ErrNoSelection
		}
		if sel.Confirmed {
			return game.ErrAlreadyConfirmed
		}
		sel.Confirmed = true
		result.notify(Notification{Kind: NotifyDiceConfirmed, State: cloneState(e.state), ActingPlayer: ev.PlayerID})
		if ev.PlayerID == e.state.CurrentTurnHolder() {
			e.advanceTurn(result)
		}

	case EventTurnTimeout:
		holder := e.state.CurrentTurnHolder()
		if holder == "" {
			return game.ErrInvalidPhase
		}
		player := e.state.PlayerByID(holder)
		auto := autoSelect(scoring.UnspentDice(player.Dice))
		e.state.PendingSelections[holder] = &game.PendingSelection{DieIDs: auto, Confirmed: true}
		result.notify(Notification{Kind: NotifyDiceSelected, State: cloneState(e.state), ActingPlayer: holder})
		result.notify(Notification{Kind: NotifyDiceConfirmed, State: cloneState(e.state), ActingPlayer: holder})
		e.advanceTurn(result)

	default:
		return game.ErrInvalidPhase
	}

	if e.allConfirmed() {
		e.enterSetReveal(result)
	}
	return nil
}

// autoSelect picks the first three unspent dice in hand order, the
// deterministic fallback applied on TURN_TIMEOUT.
func autoSelect(unspent []scoring.Die) []string {
	n := 3
	if len(unspent) < n {
		n = len(unspent)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = unspent[i].ID
	}
	return out
}

func (e *Engine) validateSelection(playerID string, dieIDs []string) error {
	if len(dieIDs) != 3 {
		return game.ErrInvalidSelection
	}
	player := e.state.PlayerByID(playerID)
	if player == nil {
		return game.ErrPlayerNotFound
	}
	seen := make(map[string]bool, len(dieIDs))
	for _, id := range dieIDs {
		if seen[id] {
			return game.ErrInvalidSelection
		}
		seen[id] = true
	}
	byID := make(map[string]*scoring.Die, len(player.Dice))
	for i := range player.Dice {
		byID[player.Dice[i].ID] = &player.Dice[i]
	}
	for _, id := range dieIDs {
		d, ok := byID[id]
		if !ok {
			return game.ErrInvalidDie
		}
		if d.Spent {
			return game.ErrDieAlreadySpent
		}
	}
	return nil
}

func (e *Engine) advanceTurn(result *ApplyResult) {
	result.timer(TimerCommand{Action: TimerCancel, Kind: TimerTurn})
	e.state.CurrentTurnIndex++
	if e.state.CurrentTurnIndex < len(e.state.TurnOrder) {
		e.startTurn(result)
	}
}

func (e *Engine) allConfirmed() bool {
	if len(e.state.PendingSelections) != len(e.state.Players) {
		return false
	}
	for _, sel := range e.state.PendingSelections {
		if !sel.Confirmed {
			return false
		}
	}
	return true
}

// enterSetReveal evaluates every player's confirmed hand, assigns
// placements/points, marks the spent dice revealed, and credits the
// current set's score onto each player.
func (e *Engine) enterSetReveal(result *ApplyResult) {
	result.timer(TimerCommand{Action: TimerCancel, Kind: TimerTurn})

	selections := make([]scoring.Selection, 0, len(e.state.Players))
	valuesByPlayer := make(map[string][]int, len(e.state.Players))
	for _, p := range e.state.Players {
		sel := e.state.PendingSelections[p.ID]
		dice := spendDice(p, sel.DieIDs)
		hand, err := scoring.Evaluate(dice)
		if err != nil {
			// Unreachable: validateSelection guarantees exactly 3 dice.
			continue
		}
		selections = append(selections, scoring.Selection{PlayerID: p.ID, Hand: hand})
		values := make([]int, len(dice))
		for i, d := range dice {
			values[i] = d.Value
		}
		valuesByPlayer[p.ID] = values
	}

	placements := scoring.AssignPlacements(selections, len(e.state.Players))
	handByPlayer := make(map[string]scoring.EvaluatedHand, len(selections))
	for _, s := range selections {
		handByPlayer[s.PlayerID] = s.Hand
	}

	e.state.SetResults = make([]game.SetResult, len(placements))
	for i, sp := range placements {
		player := e.state.PlayerByID(sp.PlayerID)
		sel := e.state.PendingSelections[sp.PlayerID]
		e.state.SetResults[i] = game.SetResult{
			PlayerID:  sp.PlayerID,
			Hand:      handByPlayer[sp.PlayerID],
			DieIDs:    append([]string(nil), sel.DieIDs...),
			DieValues: valuesByPlayer[sp.PlayerID],
			Placement: sp.Placement,
			Points:    sp.Points,
		}
		if e.state.CurrentSet == 1 {
			player.Set1Score = int(sp.Points)
		} else {
			player.Set2Score = int(sp.Points)
		}
		player.CurrentRoundScore = player.Set1Score + player.Set2Score
	}

	e.state.Phase = game.PhaseSetReveal
	result.notify(Notification{
		Kind:       NotifySetReveal,
		State:      cloneState(e.state),
		SetResults: append([]game.SetResult(nil), e.state.SetResults...),
	})
}

// spendDice marks the given die ids spent and revealed on the player and
// returns them in the order requested.
func spendDice(p *game.Player, dieIDs []string) []scoring.Die {
	byID := make(map[string]*scoring.Die, len(p.Dice))
	for i := range p.Dice {
		byID[p.Dice[i].ID] = &p.Dice[i]
	}
	out := make([]scoring.Die, len(dieIDs))
	for i, id := range dieIDs {
		d := byID[id]
		d.Spent = true
		d.Revealed = true
		out[i] = *d
	}
	return out
}

// applySetReveal handles NEXT_SET, the only event valid once a set's
// results have been posted; it is normally driven by the ack coordinator
// once every connected client has acknowledged the reveal.
func (e *Engine) applySetReveal(ev Event, result *ApplyResult) error {
	if ev.Type != EventNextSet {
		return game.ErrInvalidPhase
	}

	if e.state.CurrentSet == 1 {
		e.state.PendingRoundResult.Set1Results = append([]game.SetResult(nil), e.state.SetResults...)
		e.state.CurrentSet = 2
		e.state.CurrentTurnIndex = 0
		e.state.PendingSelections = map[string]*game.PendingSelection{}
		e.state.SetResults = nil
		e.state.Phase = game.PhaseSetSelection

		result.notify(Notification{Kind: NotifyPhaseChange, State: cloneState(e.state)})
		e.startTurn(result)
		return nil
	}

	e.state.PendingRoundResult.Set2Results = append([]game.SetResult(nil), e.state.SetResults...)
	e.finalizeRound(result)
	return nil
}

// finalizeRound applies prediction bonuses, credits cumulative scores,
// archives the round and either starts the next round or ends the game.
func (e *Engine) finalizeRound(result *ApplyResult) {
	outcomes := make([]game.PredictionOutcome, 0, len(e.state.Players))
	for _, p := range e.state.Players {
		bonus := scoring.PredictionBonus(p.Prediction, p.CurrentRoundScore, len(e.state.Players))
		p.CumulativeScore += p.CurrentRoundScore + bonus
		outcomes = append(outcomes, game.PredictionOutcome{PlayerID: p.ID, Prediction: p.Prediction, Bonus: bonus})
	}

	e.state.PendingRoundResult.Predictions = outcomes
	roundResult := *e.state.PendingRoundResult
	e.state.RoundHistory = append(e.state.RoundHistory, roundResult)
	e.state.PendingRoundResult = nil
	e.state.Phase = game.PhaseRoundSummary

	result.notify(Notification{
		Kind:        NotifyRoundComplete,
		State:       cloneState(e.state),
		RoundResult: &roundResult,
	})
}

// applyRoundSummary handles NEXT_ROUND, normally driven by the ack
// coordinator once every connected client has acknowledged the round
// summary.
func (e *Engine) applyRoundSummary(ev Event, result *ApplyResult) error {
	if ev.Type != EventNextRound {
		return game.ErrInvalidPhase
	}

	if e.state.CurrentRound >= e.state.Config.TotalRounds {
		e.state.Phase = game.PhaseGameOver
		standings := make([]game.Player, len(e.state.Players))
		for i, p := range e.state.Players {
			standings[i] = *p
		}
		result.notify(Notification{Kind: NotifyGameOver, State: cloneState(e.state), FinalStandings: standings})
		return nil
	}

	standings := make([]scoring.StandingsEntry, len(e.state.Players))
	for i, p := range e.state.Players {
		standings[i] = scoring.StandingsEntry{PlayerID: p.ID, CumulativeScore: p.CumulativeScore}
	}
	e.state.TurnOrder = scoring.SubsequentTurnOrder(standings, e.state.InitialOrder)

	e.startRound(result)
	return nil
}
