// Package srs computes spaced-repetition review schedules (SM-2 family).
//
// Everything here is a value-in, value-out computation: callers load a Progress,
// hand it to a Scheduler together with a quality grade and persist the result.
package srs

import (
	"math"
	"time"
)

// scheduling constants
const (
	MinEaseFactor     = 1.3
	DefaultEaseFactor = 2.5
	DefaultInterval   = 1

	MinQuality     = 0
	MaxQuality     = 5
	PassQuality    = 3
	DefaultQuality = 3

	secondInterval = 6
)

// Phase growth regime selected by the repetition counter
type Phase int

// review phases
const (
	PhaseLapsed Phase = iota
	PhaseEarly
	PhaseEstablished
)

func (p Phase) String() string {
	switch p {
	case PhaseLapsed:
		return "LAPSED"
	case PhaseEarly:
		return "EARLY"
	case PhaseEstablished:
		return "ESTABLISHED"
	}
	return "UNKNOWN"
}

// Progress scheduling state of one (user, flashcard) pair
type Progress struct {
	Repetitions  int
	EaseFactor   float64
	Interval     int
	LastReviewed *time.Time
	NextReview   *time.Time
}

// NewProgress returns the state of a card that has never been reviewed
func NewProgress() Progress {
	return Progress{
		Repetitions: 0,
		EaseFactor:  DefaultEaseFactor,
		Interval:    DefaultInterval,
	}
}

// Phase reports the growth regime the next successful review will use
func (p Progress) Phase() Phase {
	switch {
	case p.Repetitions <= 0:
		return PhaseLapsed
	case p.Repetitions == 1:
		return PhaseEarly
	default:
		return PhaseEstablished
	}
}

// IsDue reports whether the card should be reviewed at the given instant.
// A card without a next_review has never been scheduled and is always due.
func (p Progress) IsDue(at time.Time) bool {
	if p.NextReview == nil {
		return true
	}
	return !p.NextReview.After(at)
}

// ClampQuality forces q into [MinQuality, MaxQuality]
func ClampQuality(q int) int {
	if q < MinQuality {
		return MinQuality
	}
	if q > MaxQuality {
		return MaxQuality
	}
	return q
}

// Clock returns the current time
type Clock func() time.Time

// Scheduler applies review grades to Progress values
type Scheduler struct {
	now Clock
}

// NewScheduler create a Scheduler reading time from clock, nil means wall clock in UTC
func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Scheduler{now: clock}
}

var defaultScheduler = NewScheduler(nil)

// ScheduleReview applies quality to p using the wall clock
func ScheduleReview(p Progress, quality int) Progress {
	return defaultScheduler.Review(p, quality)
}

// Review returns p updated by one review graded with quality.
//
// Out of range grades are clamped, never rejected. The interval is computed from the
// interval and ease factor as they stood before this review; the ease factor is then
// adjusted in both the lapse and the success branch.
func (s *Scheduler) Review(p Progress, quality int) Progress {
	q := ClampQuality(quality)
	reviewed := s.now()

	next := Progress{
		Repetitions: p.Repetitions,
		EaseFactor:  p.EaseFactor,
		Interval:    p.Interval,
	}
	if next.EaseFactor < MinEaseFactor {
		next.EaseFactor = MinEaseFactor
	}
	if next.Repetitions < 0 {
		next.Repetitions = 0
	}
	if next.Interval < DefaultInterval {
		next.Interval = DefaultInterval
	}

	if q < PassQuality {
		next.Repetitions = 0
		next.Interval = DefaultInterval
	} else {
		next.Repetitions++
		switch next.Repetitions {
		case 1:
			next.Interval = DefaultInterval
		case 2:
			next.Interval = secondInterval
		default:
			next.Interval = int(math.Floor(float64(next.Interval) * next.EaseFactor))
		}
		if next.Interval < DefaultInterval {
			next.Interval = DefaultInterval
		}
	}

	next.EaseFactor = math.Max(MinEaseFactor, next.EaseFactor+easeDelta(q))

	due := reviewed.AddDate(0, 0, next.Interval)
	next.LastReviewed = &reviewed
	next.NextReview = &due
	return next
}

func easeDelta(q int) float64 {
	miss := float64(MaxQuality - q)
	return 0.1 - miss*(0.08+miss*0.02)
}
