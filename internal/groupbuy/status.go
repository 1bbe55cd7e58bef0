package groupbuy

import (
	"math"
	"time"

	"communitycart/market/internal/models"
)

// Status is one lifecycle tag of a listing. A listing can carry several tags at once.
type Status string

const (
	StatusOpen        Status = "open"
	StatusClosingSoon Status = "closing-soon"
	StatusAlmostFull  Status = "almost-full"
	StatusNew         Status = "new"
	StatusExpired     Status = "expired"
	StatusCompleted   Status = "completed"
)

const (
	day              = 24 * time.Hour
	closingSoonDays  = 3
	almostFullMin    = 80.0
	completedPercent = 100.0
	newWindow        = 7 * day
)

// FilterStatuses lists the statuses a caller can filter by.
func FilterStatuses() []string {
	return []string{string(StatusOpen), string(StatusClosingSoon), string(StatusAlmostFull), string(StatusNew)}
}

// Classification holds the values derived from a listing at one instant.
type Classification struct {
	// ProgressPercent is current/target*100 and is not clamped.
	ProgressPercent float64 `json:"-"`
	// DaysLeft is nil when the listing has no deadline.
	DaysLeft *int     `json:"days_left"`
	Tags     []Status `json:"statuses"`
}

// Classify derives progress, days left and status tags for l at now.
// A nil listing classifies as zero progress with no deadline.
func Classify(l *models.Listing, now time.Time) Classification {
	var c Classification
	if l == nil {
		c.Tags = []Status{}
		return c
	}

	target := l.TargetQuantity
	if target <= 0 {
		target = 1
	}
	c.ProgressPercent = float64(l.CurrentQuantity) / float64(target) * 100

	if l.Deadline != nil {
		d := daysUntil(*l.Deadline, now)
		c.DaysLeft = &d
	}

	c.Tags = make([]Status, 0, 3)
	if c.hasOpen() {
		c.Tags = append(c.Tags, StatusOpen)
	}
	if c.closingSoon() {
		c.Tags = append(c.Tags, StatusClosingSoon)
	}
	if c.almostFull() {
		c.Tags = append(c.Tags, StatusAlmostFull)
	}
	if isNew(l, now) {
		c.Tags = append(c.Tags, StatusNew)
	}
	if c.Expired() {
		c.Tags = append(c.Tags, StatusExpired)
	}
	if c.Completed() {
		c.Tags = append(c.Tags, StatusCompleted)
	}
	return c
}

// daysUntil rounds the remaining time up to whole days, counting partial days as one.
func daysUntil(deadline, now time.Time) int {
	ms := deadline.UnixMilli() - now.UnixMilli()
	return int(math.Ceil(float64(ms) / float64(day.Milliseconds())))
}

func isNew(l *models.Listing, now time.Time) bool {
	return l.CreatedAt != nil && !l.CreatedAt.Before(now.Add(-newWindow))
}

// hasOpen requires a deadline: listings without one never count as open.
func (c Classification) hasOpen() bool {
	return c.ProgressPercent < completedPercent && c.DaysLeft != nil && *c.DaysLeft > 0
}

func (c Classification) closingSoon() bool {
	return c.DaysLeft != nil && *c.DaysLeft > 0 && *c.DaysLeft <= closingSoonDays
}

func (c Classification) almostFull() bool {
	return c.ProgressPercent >= almostFullMin && c.ProgressPercent < completedPercent
}

// Has reports whether s is among the computed tags.
func (c Classification) Has(s Status) bool {
	for _, t := range c.Tags {
		if t == s {
			return true
		}
	}
	return false
}

// Matches reports membership in a filter bucket. Unrecognised buckets,
// including All, match everything.
func (c Classification) Matches(bucket string) bool {
	switch Status(bucket) {
	case StatusOpen, StatusClosingSoon, StatusAlmostFull, StatusNew:
		return c.Has(Status(bucket))
	default:
		return true
	}
}

// Completed reports progress at or above the target.
func (c Classification) Completed() bool {
	return c.ProgressPercent >= completedPercent
}

// Expired reports a deadline that has been reached.
func (c Classification) Expired() bool {
	return c.DaysLeft != nil && *c.DaysLeft <= 0
}

// Joinable reports whether new orders may still be placed.
func (c Classification) Joinable() bool {
	return c.ProgressPercent < completedPercent && !c.Expired()
}

// DisplayProgress is ProgressPercent clamped to 100.
func (c Classification) DisplayProgress() float64 {
	return math.Min(c.ProgressPercent, completedPercent)
}
