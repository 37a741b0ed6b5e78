package gateway

// Subsystem tags for the named slog.Logger instances this service hands
// out, mirroring the teacher's pattern of per-component loggers (TABLE,
// GAME, SERVER in pkg/server/server.go) generalized to this service's own
// components, per SPEC_FULL.md §3's ambient logging stack.
const (
	SubsystemRoom    = "ROOM"
	SubsystemEngine  = "ENGINE"
	SubsystemGateway = "GATEWAY"
	SubsystemTimer   = "TIMER"
	SubsystemStore   = "STORE"
)
