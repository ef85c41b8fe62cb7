package generator

import (
	"time"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
)

type segment struct {
	start  time.Time
	finish time.Time
}

func (s segment) duration() time.Duration {
	return s.finish.Sub(s.start)
}

func (s segment) hours() float64 {
	return s.duration().Hours()
}

const (
	minTurn = model.MinTurnHours * time.Hour
	maxTurn = model.MaxTurnHours * time.Hour
)

// splitIntoSegments cuts [from, to) at every day/night boundary, then folds
// any piece shorter than the minimum turn into a neighbour
func splitIntoSegments(from, to time.Time) ([]segment, error) {
	if to.Sub(from) < minTurn {
		verr := &model.ValidationError{Message: "cannot generate roster"}
		verr.Add("etcTime", "line sampling window must be at least one hour")
		return nil, verr
	}

	var segments []segment
	cursor := from
	for cursor.Before(to) {
		next := nextBoundary(cursor)
		if next.After(to) {
			next = to
		}
		segments = append(segments, segment{start: cursor, finish: next})
		cursor = next
	}

	return normalizeShortSegments(segments), nil
}

// nextBoundary returns the first 06:00 or 18:00 strictly after t, in t's location
func nextBoundary(t time.Time) time.Time {
	y, m, d := t.Date()
	loc := t.Location()
	candidates := []time.Time{
		time.Date(y, m, d, dayStartHour, 0, 0, 0, loc),
		time.Date(y, m, d, nightStartHour, 0, 0, 0, loc),
		time.Date(y, m, d+1, dayStartHour, 0, 0, 0, loc),
	}
	for _, c := range candidates {
		if c.After(t) {
			return c
		}
	}
	return candidates[len(candidates)-1]
}

// normalizeShortSegments merges a too-short segment into its neighbour when the
// result still fits in one turn, otherwise moves the shared edge so the short
// segment becomes exactly one hour
func normalizeShortSegments(segments []segment) []segment {
	for i := 0; i < len(segments); i++ {
		if len(segments) < 2 || segments[i].duration() >= minTurn {
			continue
		}

		// Leading and middle pieces pair with the following segment, the last one with its predecessor
		if i < len(segments)-1 {
			next := &segments[i+1]
			if next.finish.Sub(segments[i].start) <= maxTurn {
				next.start = segments[i].start
				segments = append(segments[:i], segments[i+1:]...)
				i--
				continue
			}
			edge := segments[i].start.Add(minTurn)
			segments[i].finish = edge
			next.start = edge
			continue
		}

		prev := &segments[i-1]
		if segments[i].finish.Sub(prev.start) <= maxTurn {
			prev.finish = segments[i].finish
			segments = segments[:i]
			continue
		}
		edge := segments[i].finish.Add(-minTurn)
		prev.finish = edge
		segments[i].start = edge
	}
	return segments
}
