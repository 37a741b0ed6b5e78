package gateway

import (
	"encoding/json"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/dicearena/server/pkg/game"
)

// roomCodePattern matches spec.md §6's wire room-code format: exactly 6
// characters drawn from the unambiguous alphabet (no 0/O/1/I/L).
var roomCodePattern = regexp.MustCompile(`^[ABCDEFGHJKMNPQRSTUVWXYZ23456789]{6}$`)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("roomcode", func(fl validator.FieldLevel) bool {
		return roomCodePattern.MatchString(fl.Field().String())
	})
	return v
}

// Inbound payloads, one per spec.md §6 client->server event that carries
// fields. Events with no fields (room:leave, game:ready, game:unready,
// game:start, dice:confirm, game:acknowledgeResults) have no payload type.

type configOverridesPayload struct {
	MaxPlayers       int `json:"maxPlayers" validate:"omitempty,min=2,max=6"`
	TotalRounds      int `json:"totalRounds" validate:"omitempty,min=3,max=10"`
	TurnTimerSeconds int `json:"turnTimerSeconds" validate:"omitempty,min=15,max=60"`
}

func (p *configOverridesPayload) toGameConfig() *game.GameConfig {
	if p == nil {
		return nil
	}
	return &game.GameConfig{MaxPlayers: p.MaxPlayers, TotalRounds: p.TotalRounds, TurnTimerSeconds: p.TurnTimerSeconds}
}

type roomCreatePayload struct {
	PlayerName string                  `json:"playerName" validate:"required,min=1,max=20"`
	Config     *configOverridesPayload `json:"config"`
}

type roomJoinPayload struct {
	RoomCode   string `json:"roomCode" validate:"required,roomcode"`
	PlayerName string `json:"playerName" validate:"required,min=1,max=20"`
}

type roomReconnectPayload struct {
	Token string `json:"token" validate:"required"`
}

type updateConfigPayload struct {
	configOverridesPayload
}

type predictionSubmitPayload struct {
	Type string `json:"type" validate:"required"`
}

type diceSelectPayload struct {
	DieIDs []string `json:"dieIds" validate:"required,len=3,dive,required"`
}

// decodeAndValidate unmarshals raw into dst and runs struct validation,
// returning a generic validation failure; dispatch drops the frame
// silently on any such failure, per spec.md §7's taxonomy for malformed
// payloads.
func (h *Hub) decodeAndValidate(raw json.RawMessage, dst interface{}) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return err
	}
	return h.validate.Struct(dst)
}
