package domain

import (
	"strings"
	"time"
)

// DateRange is a named, inclusive calendar bucket.
type DateRange struct {
	Name  string
	Start time.Time
	End   time.Time
}

func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Key is the URL-safe form of the bucket name.
func (r DateRange) Key() string {
	fields := strings.Fields(strings.ToLower(r.Name))
	return strings.Join(fields, "-")
}
