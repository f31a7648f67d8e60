package walk

import (
	"sort"
	"time"

	"github.com/petmily/walk-service/internal/geo"
	"github.com/petmily/walk-service/internal/model"
)

// PathStatistics summarizes a recorded walk track.
type PathStatistics struct {
	TotalDistanceKM float64       `json:"total_distance_km"`
	Duration        time.Duration `json:"-"`
	DurationMinutes int64         `json:"duration_minutes"`
	AverageSpeedKMH float64       `json:"average_speed_kmh"`
	MaxSpeedKMH     float64       `json:"max_speed_kmh"`
	TotalPoints     int           `json:"total_points"`
	StartTime       time.Time     `json:"start_time,omitzero"`
	EndTime         time.Time     `json:"end_time,omitzero"`
}

// ComputeStatistics derives distance, duration and speed figures from an
// ordered track.  Fewer than two points produces all-zero statistics.
// Total distance sums pairwise Haversine distances over consecutive points;
// duration is last minus first timestamp; average speed is distance over
// duration in hours (zero when the duration is zero); max speed is the
// largest device-reported instantaneous speed, ignoring points without one.
func ComputeStatistics(points []model.TrackPoint) PathStatistics {
	stats := PathStatistics{TotalPoints: len(points)}
	if len(points) < 2 {
		return stats
	}

	stats.TotalDistanceKM = TotalDistanceKM(points)
	stats.StartTime = points[0].Timestamp
	stats.EndTime = points[len(points)-1].Timestamp
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	stats.DurationMinutes = int64(stats.Duration / time.Minute)

	if hours := stats.Duration.Hours(); hours > 0 {
		stats.AverageSpeedKMH = stats.TotalDistanceKM / hours
	}

	for _, p := range points {
		if p.Speed != nil && *p.Speed > stats.MaxSpeedKMH {
			stats.MaxSpeedKMH = *p.Speed
		}
	}
	return stats
}

// TotalDistanceKM sums the pairwise great-circle distance over consecutive
// points, in kilometers.
func TotalDistanceKM(points []model.TrackPoint) float64 {
	var meters float64
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		meters += geo.Distance(prev.Latitude, prev.Longitude, cur.Latitude, cur.Longitude)
	}
	return meters / 1000
}

// SortByTimestamp orders points ascending by timestamp in place.  Stores
// sort on read, but callers holding points from mixed sources can normalize
// with this before computing statistics.
func SortByTimestamp(points []model.TrackPoint) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
}
