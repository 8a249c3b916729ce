package sqlstore

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
)

// Clock supplies message timestamps. Tests inject a fixed or stepping clock.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// monotonicClock never returns a time earlier than the last one it
// returned, even if the wall clock steps backwards. Equal timestamps are
// ordered by message id.
type monotonicClock struct {
	mu   sync.Mutex
	src  Clock
	last time.Time
}

func newMonotonicClock(src Clock) *monotonicClock {
	if m, ok := src.(*monotonicClock); ok {
		return m
	}
	return &monotonicClock{src: src}
}

func (c *monotonicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Postgres keeps microseconds; truncate so both drivers round-trip.
	t := c.src.Now().UTC().Truncate(time.Microsecond)
	if t.Before(c.last) {
		t = c.last
	}
	c.last = t
	return t
}

// dbTime scans timestamps from either driver. sqlite returns aggregates
// such as MAX(timestamp) as text, postgres always returns time.Time.
type dbTime struct {
	Time time.Time
}

func (d *dbTime) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		d.Time = time.Time{}
		return nil
	case time.Time:
		d.Time = v.UTC()
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into timestamp", value)
	}
}

func (d *dbTime) parse(s string) error {
	s = strings.TrimSuffix(s, "Z")
	for _, layout := range sqlite3.SQLiteTimestampFormats {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("cannot parse timestamp %q", s)
}
