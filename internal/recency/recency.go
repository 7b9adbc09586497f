// Package recency groups dated records into calendar-day buckets relative
// to a reference time: Today, Yesterday, Earlier this Week and Earlier.
package recency

import (
	"errors"
	"fmt"
	"time"
)

// Bucket names a recency group. The string value is the display label.
type Bucket string

const (
	Today           Bucket = "Today"
	Yesterday       Bucket = "Yesterday"
	EarlierThisWeek Bucket = "Earlier this Week"
	Earlier         Bucket = "Earlier"
)

// ErrInvalidTimestamp is returned when a record carries a zero created time.
var ErrInvalidTimestamp = errors.New("invalid created timestamp")

// Order returns every bucket in display order.
func Order() []Bucket {
	return []Bucket{Today, Yesterday, EarlierThisWeek, Earlier}
}

// Dated is anything that knows when it was created.
type Dated interface {
	CreatedTime() time.Time
}

// Group is one non-empty bucket of records, in input order.
type Group[T Dated] struct {
	Bucket Bucket
	Items  []T
}

// Assign returns the bucket for a single created time. Days are compared as
// calendar dates in now's location, not as rolling 24 hour windows. A record
// exactly seven days old lands in Earlier, as does anything dated after now's
// calendar day.
func Assign(created, now time.Time) Bucket {
	diff := dayNumber(now, now.Location()) - dayNumber(created, now.Location())
	switch {
	case diff == 0:
		return Today
	case diff == 1:
		return Yesterday
	case diff > 1 && diff < 7:
		return EarlierThisWeek
	default:
		return Earlier
	}
}

// Classify partitions records into buckets relative to now. Groups come back
// in Order(), empty buckets are omitted, and each group keeps the relative
// order of the input. Records are never modified. A record with a zero
// created time fails the whole call with ErrInvalidTimestamp.
func Classify[T Dated](records []T, now time.Time) ([]Group[T], error) {
	byBucket := make(map[Bucket][]T, 4)
	for i, r := range records {
		created := r.CreatedTime()
		if created.IsZero() {
			return nil, fmt.Errorf("record %d: %w", i, ErrInvalidTimestamp)
		}
		b := Assign(created, now)
		byBucket[b] = append(byBucket[b], r)
	}

	groups := make([]Group[T], 0, len(byBucket))
	for _, b := range Order() {
		if items := byBucket[b]; len(items) > 0 {
			groups = append(groups, Group[T]{Bucket: b, Items: items})
		}
	}
	return groups, nil
}

// dayNumber counts civil days since the Unix epoch for t as seen in loc.
// Going through a UTC midnight keeps DST transitions from skewing the count.
func dayNumber(t time.Time, loc *time.Location) int64 {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}
