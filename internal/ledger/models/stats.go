package models

import (
	"sort"
	"time"
)

// DefaultUpcomingWindowDays is used when callers do not pass a window.
const DefaultUpcomingWindowDays = 30

// Stats counts records by effective status. Pending excludes overdue
// records so the four buckets partition Total.
type Stats struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	InProgress     int     `json:"in_progress"`
	Pending        int     `json:"pending"`
	Overdue        int     `json:"overdue"`
	CompletionRate float64 `json:"completion_rate"`
}

// Summarize recomputes Stats from scratch.
func Summarize(records []*ComplianceRecord, now time.Time) Stats {
	var s Stats
	for _, r := range records {
		s.Total++
		switch r.EffectiveStatus(now) {
		case StatusCompleted:
			s.Completed++
		case StatusInProgress:
			s.InProgress++
		case StatusPending:
			s.Pending++
		case StatusOverdue:
			s.Overdue++
		}
	}
	if s.Total > 0 {
		s.CompletionRate = float64(s.Completed) * 100 / float64(s.Total)
	}
	return s
}

// SelectUpcoming returns records not completed with a due date inside
// [now, now+windowDays*24h], ascending by due date.
func SelectUpcoming(records []*ComplianceRecord, now time.Time, windowDays int) []*ComplianceRecord {
	end := now.Add(time.Duration(windowDays) * 24 * time.Hour)
	var out []*ComplianceRecord
	for _, r := range records {
		if r.Status == StatusCompleted {
			continue
		}
		if r.DueDate.Before(now) || r.DueDate.After(end) {
			continue
		}
		out = append(out, r)
	}
	SortByDueAsc(out)
	return out
}

// SelectOverdue returns overdue records ascending by due date.
func SelectOverdue(records []*ComplianceRecord, now time.Time) []*ComplianceRecord {
	var out []*ComplianceRecord
	for _, r := range records {
		if r.IsOverdue(now) {
			out = append(out, r)
		}
	}
	SortByDueAsc(out)
	return out
}

// SortByDueAsc orders by due date, then ID, so results are deterministic.
func SortByDueAsc(records []*ComplianceRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].DueDate.Equal(records[j].DueDate) {
			return records[i].DueDate.Before(records[j].DueDate)
		}
		return records[i].ID.String() < records[j].ID.String()
	})
}

// SortByDueDesc orders newest due first, then ID ascending.
func SortByDueDesc(records []*ComplianceRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].DueDate.Equal(records[j].DueDate) {
			return records[i].DueDate.After(records[j].DueDate)
		}
		return records[i].ID.String() < records[j].ID.String()
	})
}
