package store

import (
	"context"
	"math"
	"time"

	"github.com/uptrace/bun"
)

// Stats computes the aggregate figures served by the statistics
// endpoint. Day boundaries use the server-local calendar day; day 0 is
// always "today" regardless of when the query runs.
type Stats interface {
	SignupCount(ctx context.Context) (int, error)
	TodayActiveCount(ctx context.Context, now time.Time) (int, error)
	Rolling7DayAverage(ctx context.Context, now time.Time) (float64, error)
}

type stats struct {
	db       *bun.DB
	activity Activity
}

var _ Stats = (*stats)(nil)

// NewStatsRepository builds the Stats repository.
func NewStatsRepository(db *bun.DB) Stats {
	return &stats{db: db, activity: NewActivityRepository(db)}
}

// SignupCount is the number of non-deleted accounts.
func (s *stats) SignupCount(ctx context.Context) (int, error) {
	return s.db.NewSelect().
		Model((*Account)(nil)).
		Count(ctx)
}

// TodayActiveCount counts non-deleted accounts whose last-active
// timestamp falls inside the current local calendar day.
func (s *stats) TodayActiveCount(ctx context.Context, now time.Time) (int, error) {
	start, end := dayBounds(now)

	return s.db.NewSelect().
		Model((*Account)(nil)).
		Where("?TableAlias.last_active_at >= ? AND ?TableAlias.last_active_at < ?", start, end).
		Count(ctx)
}

// Rolling7DayAverage averages the activity-record counts of the last 7
// calendar days (today plus the 6 preceding ones), rounded to two
// decimal places.
func (s *stats) Rolling7DayAverage(ctx context.Context, now time.Time) (float64, error) {
	total := 0
	for i := 0; i < 7; i++ {
		start, end := dayBounds(now.AddDate(0, 0, -i))
		count, err := s.activity.CountBetween(ctx, start, end)
		if err != nil {
			return 0, err
		}
		total += count
	}

	avg := float64(total) / 7
	return math.Round(avg*100) / 100, nil
}

func dayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
