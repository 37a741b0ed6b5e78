// Package config loads the session gateway's environment-driven
// configuration, per spec.md §6 ("Environment" table): PORT, CORS_ORIGIN,
// REDIS_URL and a NODE_ENV-like environment tag, plus a -debuglevel flag.
// It generalizes the teacher's flag-only cmd/pokersrv/main.go (which reads
// -db, -host, -port, -debuglevel directly off the flag package) into the
// pack's more common viper/pflag-based loader, grounded on Seednode-
// partybox's use of spf13/viper for its own environment-driven server
// config.
package config

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is everything the gateway needs to boot, per spec.md §6 and §9
// Design Notes' ambient-stack carryover.
type Config struct {
	// Port is the TCP port the HTTP/WebSocket listener binds, default 3001
	// per spec.md §6.
	Port int
	// CORSOrigins is the comma-separated allow-list from CORS_ORIGIN,
	// split into individual origins. Defaults to ["*"] in development.
	CORSOrigins []string
	// RedisURL is the state store's DSN. Empty means "use the in-process
	// fallback" per spec.md §4.2.
	RedisURL string
	// Environment is the NODE_ENV-like tag echoed verbatim by GET /health.
	Environment string
	// Version is the build-reported version string, also echoed by
	// GET /health.
	Version string
	// DebugLevel is the slog level name (trace/debug/info/warn/error),
	// mirroring cmd/pokersrv/main.go's -debuglevel flag.
	DebugLevel string
}

// defaults mirrors the teacher's zero-value-config pattern
// (game.DefaultGameConfig) but for process-level configuration.
func defaults() Config {
	return Config{
		Port:        3001,
		CORSOrigins: []string{"*"},
		Environment: "development",
		Version:     "dev",
		DebugLevel:  "info",
	}
}

// Load reads configuration from the process environment (PORT, CORS_ORIGIN,
// REDIS_URL, NODE_ENV) via viper, and from a -debuglevel command-line flag
// via pflag. args is typically os.Args[1:]; passing a flag set explicitly
// keeps Load callable from tests without touching the global flag.CommandLine.
func Load(args []string) (Config, error) {
	cfg := defaults()

	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()
	v.SetDefault("PORT", cfg.Port)
	v.SetDefault("CORS_ORIGIN", strings.Join(cfg.CORSOrigins, ","))
	v.SetDefault("NODE_ENV", cfg.Environment)

	flags := pflag.NewFlagSet("dicearena", pflag.ContinueOnError)
	debugLevel := flags.String("debuglevel", cfg.DebugLevel, "logging level: trace, debug, info, warn, error")
	version := flags.String("version", cfg.Version, "build version string reported by /health")
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}
	if err := v.BindPFlag("debuglevel", flags.Lookup("debuglevel")); err != nil {
		return Config{}, err
	}

	cfg.Port = v.GetInt("PORT")
	if origins := v.GetString("CORS_ORIGIN"); origins != "" {
		cfg.CORSOrigins = splitOrigins(origins)
	}
	cfg.RedisURL = v.GetString("REDIS_URL")
	cfg.Environment = v.GetString("NODE_ENV")
	cfg.DebugLevel = *debugLevel
	cfg.Version = *version

	return cfg, nil
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
