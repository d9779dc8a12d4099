// Package system provides the wall clock used outside tests.
package system

import "time"

// Clock satisfies store.Clock and reminder.Clock using time.Now.
type Clock struct {
	loc *time.Location
}

// New returns a Clock reporting UTC.
func New() *Clock {
	return &Clock{loc: time.UTC}
}

// NewIn returns a Clock reporting times in loc.
func NewIn(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{loc: loc}
}

// Now returns the current time.
func (c *Clock) Now() time.Time {
	if c == nil || c.loc == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.loc)
}
