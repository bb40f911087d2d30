package domain

import (
	"slices"
	"time"
)

// Group labels for recent tasks. Older tasks are labeled by month ("January 2006").
const (
	GroupToday     = "Today"
	GroupYesterday = "Yesterday"
	GroupThisWeek  = "This Week"
	GroupThisMonth = "This Month"
)

// TaskGroup is a date bucket of tasks for display.
type TaskGroup struct {
	Label string
	Tasks []*Task
}

// GroupByCreated buckets tasks by creation date relative to now, in now's location.
// Tasks are ordered newest first, so groups appear from most to least recent.
// Weeks start on Monday.
func GroupByCreated(tasks []*Task, now time.Time) []TaskGroup {
	sorted := slices.Clone(tasks)
	slices.SortStableFunc(sorted, func(a, b *Task) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	var groups []TaskGroup
	index := make(map[string]int)
	for _, t := range sorted {
		label := GroupLabel(t.CreatedAt, now)
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, TaskGroup{Label: label})
		}
		groups[i].Tasks = append(groups[i].Tasks, t)
	}
	return groups
}

// GroupLabel returns the bucket label of created relative to now.
func GroupLabel(created, now time.Time) string {
	loc := now.Location()
	c := created.In(loc)
	today := startOfDay(now)
	day := startOfDay(c)

	switch {
	case day.Equal(today):
		return GroupToday
	case day.Equal(today.AddDate(0, 0, -1)):
		return GroupYesterday
	case startOfWeek(c).Equal(startOfWeek(now)):
		return GroupThisWeek
	case c.Year() == now.Year() && c.Month() == now.Month():
		return GroupThisMonth
	default:
		return c.Format("January 2006")
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// startOfWeek returns the Monday starting t's week.
func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return startOfDay(t).AddDate(0, 0, -offset)
}
