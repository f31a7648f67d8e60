package walk

import (
	"fmt"
	"time"

	"github.com/petmily/walk-service/internal/geo"
	"github.com/petmily/walk-service/internal/model"
)

// AnomalyConfig holds the thresholds for the GPS plausibility heuristics.
// Zero values are replaced with the defaults below.
type AnomalyConfig struct {
	// MaxSpeedKMH is the implied-speed ceiling for the jump check.
	// Default 50 km/h, a dog at full sprint with margin.
	MaxSpeedKMH float64
	// RepeatWindow is how many trailing samples the repetition check
	// inspects.  Default 5.
	RepeatWindow int
	// RepeatRadiusMeters is the maximum spread under which trailing
	// samples count as "the same spot".  Default 5 m.
	RepeatRadiusMeters float64
	// RepeatMinSpan is the minimum time the window must cover before
	// identical-looking samples are suspicious.  Default 2 minutes.
	RepeatMinSpan time.Duration
}

func (c AnomalyConfig) withDefaults() AnomalyConfig {
	if c.MaxSpeedKMH <= 0 {
		c.MaxSpeedKMH = 50
	}
	if c.RepeatWindow <= 0 {
		c.RepeatWindow = 5
	}
	if c.RepeatRadiusMeters <= 0 {
		c.RepeatRadiusMeters = 5
	}
	if c.RepeatMinSpan <= 0 {
		c.RepeatMinSpan = 2 * time.Minute
	}
	return c
}

// AnomalyFlag is the advisory result of a plausibility check.  Flags are
// logged by callers; they never block ingestion.
type AnomalyFlag struct {
	Suspect bool
	Reason  string
}

// Detector runs the two GPS plausibility heuristics.  Both are advisory:
// output feeds logging, not the write path.
type Detector struct {
	cfg AnomalyConfig
}

// NewDetector builds a Detector, filling unset config fields with defaults.
func NewDetector(cfg AnomalyConfig) *Detector {
	return &Detector{cfg: cfg.withDefaults()}
}

// CheckJump flags the new sample when the distance from the previous one
// implies a speed above the configured ceiling.  A nil previous sample or a
// non-positive elapsed time yields no flag.
func (d *Detector) CheckJump(prev, next *model.TrackPoint) AnomalyFlag {
	if prev == nil || next == nil {
		return AnomalyFlag{}
	}
	elapsed := next.Timestamp.Sub(prev.Timestamp).Seconds()
	if elapsed <= 0 {
		return AnomalyFlag{}
	}
	meters := geo.Distance(prev.Latitude, prev.Longitude, next.Latitude, next.Longitude)
	speedKMH := meters / elapsed * 3.6
	if speedKMH > d.cfg.MaxSpeedKMH {
		return AnomalyFlag{
			Suspect: true,
			Reason: fmt.Sprintf("implausible jump: %.0f m in %.0f s (%.1f km/h, ceiling %.1f)",
				meters, elapsed, speedKMH, d.cfg.MaxSpeedKMH),
		}
	}
	return AnomalyFlag{}
}

// CheckRepetition flags a track whose trailing samples all sit within a
// small radius of the first sample in the window despite spanning a
// non-trivial amount of time, which suggests a stuck or faked GPS feed.
// Fewer than three samples in the window yields no flag.
func (d *Detector) CheckRepetition(recent []model.TrackPoint) AnomalyFlag {
	if len(recent) > d.cfg.RepeatWindow {
		recent = recent[len(recent)-d.cfg.RepeatWindow:]
	}
	if len(recent) < 3 {
		return AnomalyFlag{}
	}

	span := recent[len(recent)-1].Timestamp.Sub(recent[0].Timestamp)
	if span < d.cfg.RepeatMinSpan {
		return AnomalyFlag{}
	}

	base := recent[0]
	for _, p := range recent[1:] {
		if geo.Distance(base.Latitude, base.Longitude, p.Latitude, p.Longitude) > d.cfg.RepeatRadiusMeters {
			return AnomalyFlag{}
		}
	}
	return AnomalyFlag{
		Suspect: true,
		Reason: fmt.Sprintf("repeated location: %d samples within %.0f m over %s",
			len(recent), d.cfg.RepeatRadiusMeters, span.Round(time.Second)),
	}
}
