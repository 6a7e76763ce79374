// Package recurrence generates class instances from repeating classes and
// from the previous month's schedule.
package recurrence

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/pigeonworks-llc/club-billing/pkg/domain"
)

// ErrNoSourceClasses is returned when the month before the target has no
// classes to replicate.
var ErrNoSourceClasses = errors.New("no classes in the previous month to replicate")

// Expand returns the siblings of a weekly or monthly class that fall in the
// same calendar month, 7 or 30 days apart.
func Expand(c domain.Class, now time.Time) []domain.Class {
	var step int
	switch c.Repeating {
	case domain.RepeatWeekly:
		step = 7
	case domain.RepeatMonthly:
		step = 30
	default:
		return nil
	}

	var siblings []domain.Class
	for date := c.Date.AddDate(0, 0, step); sameMonth(date, c.Date); date = date.AddDate(0, 0, step) {
		sib := fresh(c, date, now)
		sib.ID = fmt.Sprintf("%s-%d", c.ID, date.UnixMilli())
		siblings = append(siblings, sib)
	}
	return siblings
}

// Replication is the outcome of ReplicateMonth.
type Replication struct {
	Classes    []domain.Class `json:"classes"`
	Patterns   int            `json:"patterns"`
	Duplicates int            `json:"duplicates"`
}

// ReplicateMonth copies the schedule of the month before (year, month)
// into that month: every distinct class of the previous month is repeated
// on each matching weekday, at the same time, unless an identical class is
// already there.
func ReplicateMonth(existing []domain.Class, year int, month time.Month, loc *time.Location, now time.Time) (Replication, error) {
	if loc == nil {
		loc = time.Local
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	prev := first.AddDate(0, -1, 0)

	var source []domain.Class
	for _, c := range existing {
		d := c.Date.In(loc)
		if d.Year() == prev.Year() && d.Month() == prev.Month() {
			source = append(source, c)
		}
	}
	if len(source) == 0 {
		return Replication{}, ErrNoSourceClasses
	}
	slices.SortStableFunc(source, func(a, b domain.Class) int { return a.Date.Compare(b.Date) })

	var patterns []domain.Class
	seen := make(map[string]bool)
	for _, c := range source {
		key := patternKey(c, loc)
		if !seen[key] {
			seen[key] = true
			patterns = append(patterns, c)
		}
	}

	res := Replication{Patterns: len(patterns)}
	for _, p := range patterns {
		pd := p.Date.In(loc)
		for day := first; day.Month() == month; day = day.AddDate(0, 0, 1) {
			if day.Weekday() != pd.Weekday() {
				continue
			}
			date := time.Date(year, month, day.Day(), pd.Hour(), pd.Minute(), 0, 0, loc)
			if containsSame(existing, p, date) {
				res.Duplicates++
				continue
			}

			replica := fresh(p, date, now)
			replica.ID = fmt.Sprintf("repeat_%s_%d", p.ID, date.UnixMilli())
			replica.Repeating = domain.RepeatNone
			res.Classes = append(res.Classes, replica)
		}
	}
	return res, nil
}

func fresh(c domain.Class, date, now time.Time) domain.Class {
	n := c.Clone()
	n.Date = date
	n.ParentID = c.ID
	n.Attendances = map[string]bool{}
	n.Status = domain.ClassScheduled
	n.CreatedAt = now
	return n
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

func sortedRoster(c domain.Class) string {
	roster := slices.Clone(c.Students)
	slices.Sort(roster)
	return strings.Join(roster, ",")
}

func patternKey(c domain.Class, loc *time.Location) string {
	d := c.Date.In(loc)
	return fmt.Sprintf("%d-%d-%d-%s-%s-%s-%s",
		d.Weekday(), d.Hour(), d.Minute(), c.Type, c.PricePerStudent.String(), sortedRoster(c), c.Observations)
}

func containsSame(classes []domain.Class, p domain.Class, date time.Time) bool {
	roster := sortedRoster(p)
	for _, c := range classes {
		if c.Date.Equal(date) &&
			c.Type == p.Type &&
			sortedRoster(c) == roster &&
			c.PricePerStudent.Equal(p.PricePerStudent) &&
			c.Observations == p.Observations {
			return true
		}
	}
	return false
}
