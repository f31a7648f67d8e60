package config

// walk.go defines the tunables of the walk-monitoring subsystem.  Every
// threshold is configurable through environment variables with the
// defaults the service has always run with; deployments only set the ones
// they need to change.

import (
	"os"
	"strconv"
	"time"
)

// WalkConfig groups the anomaly, progress and stationary thresholds.
type WalkConfig struct {
	// MaxSpeedKMH is the implausible-jump ceiling.  Default 50.
	MaxSpeedKMH float64
	// FakeWindow is how many trailing samples the repeated-location check
	// inspects.  Default 5.
	FakeWindow int
	// FakeRadiusMeters is the spread under which those samples count as
	// one spot.  Default 5.
	FakeRadiusMeters float64

	// ProgressInterval is both the progress-pass cadence and the throttle
	// TTL for progress notifications.  Default 10m.
	ProgressInterval time.Duration
	// StationaryInterval is the stationary-pass cadence.  Default 5m.
	StationaryInterval time.Duration
	// StationaryWindow is how far back the stationary check looks.
	// Default 15m.
	StationaryWindow time.Duration
	// StationaryRadiusMeters is the no-movement radius.  Default 50.
	StationaryRadiusMeters float64
	// StationaryMinSamples skips the check below this sample count.
	// Default 3.
	StationaryMinSamples int
	// StationaryCooldown is the minimum gap between stationary alerts
	// for one booking.  Default 30m.
	StationaryCooldown time.Duration

	// HistoryTTL bounds the per-booking notification history.  Default 24h.
	HistoryTTL time.Duration
}

// LoadWalk reads WalkConfig from the environment, falling back to the
// documented defaults for anything unset or unparsable.
func LoadWalk() WalkConfig {
	return WalkConfig{
		MaxSpeedKMH:            envFloat("WALK_MAX_SPEED_KMH", 50),
		FakeWindow:             envInt("WALK_FAKE_WINDOW", 5),
		FakeRadiusMeters:       envFloat("WALK_FAKE_RADIUS_M", 5),
		ProgressInterval:       envDuration("WALK_PROGRESS_INTERVAL", 10*time.Minute),
		StationaryInterval:     envDuration("WALK_STATIONARY_INTERVAL", 5*time.Minute),
		StationaryWindow:       envDuration("WALK_STATIONARY_WINDOW", 15*time.Minute),
		StationaryRadiusMeters: envFloat("WALK_STATIONARY_RADIUS_M", 50),
		StationaryMinSamples:   envInt("WALK_STATIONARY_MIN_SAMPLES", 3),
		StationaryCooldown:     envDuration("WALK_STATIONARY_COOLDOWN", 30*time.Minute),
		HistoryTTL:             envDuration("WALK_NOTIFY_HISTORY_TTL", 24*time.Hour),
	}
}

func envFloat(key string, def float64) float64 {
	if s := os.Getenv(key); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
			return f
		}
	}
	return def
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if s := os.Getenv(key); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			return d
		}
	}
	return def
}
