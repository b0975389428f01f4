package calculator

import (
	"sort"
	"time"

	"github.com/badursun/Roqua-sub000/internal/models"
)

// DailyStreakCalculator returns the longest run of consecutive calendar days
// with at least one region started on that day
type DailyStreakCalculator struct {
	Location *time.Location // nil means time.Local
}

// Calculate implements Calculator
func (c *DailyStreakCalculator) Calculate(regions []models.VisitedRegion, _ models.Params) int {
	days := make(map[int64]struct{})
	for i := range regions {
		days[dayNumber(regions[i].FirstVisitAt, c.Location)] = struct{}{}
	}
	return longestRun(days)
}

// WeekendStreakCalculator returns the longest run of consecutive ISO weeks
// with a region started on Saturday or Sunday
type WeekendStreakCalculator struct {
	Location *time.Location
}

// Calculate implements Calculator
func (c *WeekendStreakCalculator) Calculate(regions []models.VisitedRegion, _ models.Params) int {
	weeks := make(map[int64]struct{})
	for i := range regions {
		t := inLocation(regions[i].FirstVisitAt, c.Location)
		wd := t.Weekday()
		if wd != time.Saturday && wd != time.Sunday {
			continue
		}
		weeks[isoWeekNumber(t, c.Location)] = struct{}{}
	}
	return longestRun(weeks)
}

func inLocation(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc)
}

// dayNumber returns the calendar day of t as days since the Unix epoch
func dayNumber(t time.Time, loc *time.Location) int64 {
	t = inLocation(t, loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// isoWeekNumber returns the ISO week of t as weeks since the epoch Monday
func isoWeekNumber(t time.Time, loc *time.Location) int64 {
	day := dayNumber(t, loc)
	// 1970-01-01 was a Thursday; shift so weeks start on Monday
	offset := int64((int(inLocation(t, loc).Weekday()) + 6) % 7)
	monday := day - offset
	return (monday + 3) / 7
}

func longestRun(set map[int64]struct{}) int {
	if len(set) == 0 {
		return 0
	}
	keys := make([]int64, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	best, run := 1, 1
	for i := 1; i < len(keys); i++ {
		if keys[i]-keys[i-1] == 1 {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}
