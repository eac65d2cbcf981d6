package watchlist

import (
	"fmt"
	"sort"
	"time"
)

const (
	BasePoints = 50

	sameDayBonus       = 50
	withinWeekBonus    = 30
	multipleMovieBonus = 25
	multipleMovieMin   = 3
)

const (
	ReasonSameDay    = "watched_same_day"
	ReasonWithinWeek = "watched_within_week"
)

type Bonus struct {
	Points  int
	Reasons []string
}

// Total is the base award plus the bonus.
func (b Bonus) Total() int {
	return BasePoints + b.Points
}

// CalculateBonus scores a watch. watchedThatDay counts every movie watched on
// the watch date, the current one included.
func CalculateBonus(added, watched time.Time, watchedThatDay int) Bonus {
	b := Bonus{Reasons: []string{}}

	switch {
	case SameDay(added, watched):
		b.Points += sameDayBonus
		b.Reasons = append(b.Reasons, ReasonSameDay)
	case wholeDays(watched.Sub(added)) <= 7:
		b.Points += withinWeekBonus
		b.Reasons = append(b.Reasons, ReasonWithinWeek)
	}

	if watchedThatDay >= multipleMovieMin {
		b.Points += multipleMovieBonus
		b.Reasons = append(b.Reasons, fmt.Sprintf("multiple_movies_day_%d", watchedThatDay))
	}
	return b
}

// Streak counts consecutive calendar days ending at the most recent watch.
func Streak(watches []time.Time) int {
	if len(watches) == 0 {
		return 0
	}

	days := make(map[time.Time]struct{}, len(watches))
	for _, w := range watches {
		days[truncateDay(w)] = struct{}{}
	}
	ordered := make([]time.Time, 0, len(days))
	for d := range days {
		ordered = append(ordered, d)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].After(ordered[j]) })

	streak := 1
	for i := 0; i+1 < len(ordered); i++ {
		if !ordered[i].AddDate(0, 0, -1).Equal(ordered[i+1]) {
			break
		}
		streak++
	}
	return streak
}

// SameDay reports whether both instants fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// wholeDays floors a duration to days.
func wholeDays(d time.Duration) int {
	days := int(d / (24 * time.Hour))
	if d < 0 && d%(24*time.Hour) != 0 {
		days--
	}
	return days
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
