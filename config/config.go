package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/modsentry/moderation-api/logging"
)

// Config holds the project config values
type Config struct {
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string

	// Discord integration used by the notification and enforcement steps
	DiscordToken   string
	DiscordGuildID string

	// Orchestration tuning
	SettlingDelay      time.Duration
	DefaultMuteMinutes int
	StrictDurations    bool

	// ModeratorOverrides maps lower-cased staff emails to a preferred
	// display label, taking precedence over the session display name
	ModeratorOverrides map[string]string

	// StaleAppealAfter is how long an appeal may sit in pending before the
	// scheduler bumps its priority
	StaleAppealAfter time.Duration
}

// New sets up all config related services
func New() *Config {

	logger, err := logging.New(os.Getenv("APP_ENV"))
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:                os.Getenv("DB_URI"),
		DatabaseName:       os.Getenv("DB_NAME"),
		BaseURL:            os.Getenv("BASE_URL"),
		Port:               os.Getenv("PORT"),
		DiscordToken:       os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordGuildID:     os.Getenv("DISCORD_GUILD_ID"),
		SettlingDelay:      envDuration("SETTLING_DELAY_MS", 500*time.Millisecond),
		DefaultMuteMinutes: envInt("DEFAULT_MUTE_MINUTES", 60),
		StrictDurations:    envBool("STRICT_DURATIONS"),
		ModeratorOverrides: envOverrides("MODERATOR_OVERRIDES"),
		StaleAppealAfter:   envDuration("STALE_APPEAL_HOURS", 72*time.Hour),
	}
}

// envDuration reads an env var holding an integer count of the unit encoded in
// the var name (_MS or _HOURS) and falls back to def when unset or malformed
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		zap.S().Warnf("invalid %v=%q, using default of %v", key, v, def)
		return def
	}
	if strings.HasSuffix(key, "_HOURS") {
		return time.Duration(n) * time.Hour
	}
	return time.Duration(n) * time.Millisecond
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		zap.S().Warnf("invalid %v=%q, using default of %v", key, v, def)
		return def
	}
	return n
}

func envBool(key string) bool {
	return os.Getenv(key) == "true"
}

// envOverrides parses a JSON object of email -> display label
func envOverrides(key string) map[string]string {
	overrides := map[string]string{}
	v := os.Getenv(key)
	if v == "" {
		return overrides
	}
	if err := json.Unmarshal([]byte(v), &overrides); err != nil {
		zap.S().Warnf("invalid %v, ignoring: %v", key, err)
		return map[string]string{}
	}
	lowered := make(map[string]string, len(overrides))
	for email, label := range overrides {
		lowered[strings.ToLower(email)] = label
	}
	return lowered
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.WriteHeader(httpStatusCode)
	w.Write([]byte(fmt.Sprintf(`{"response": "%s, %v"}`, message, err)))
}
