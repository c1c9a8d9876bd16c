// Package hours holds the business-hours table: fixed opening and closing
// hours in a reference zone, expressed as local wall-clock times per weekday.
package hours

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-sql/civil"
)

// Clock abstracts time.Now so the anchor date can be pinned in tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type Config struct {
	ReferenceZone string
	OpenHour      int
	CloseHour     int
}

func DefaultConfig() Config {
	return Config{ReferenceZone: "America/New_York", OpenHour: 8, CloseHour: 22}
}

func (c Config) Validate() error {
	if c.ReferenceZone == "" {
		return errors.New("reference zone is required")
	}
	if c.OpenHour < 0 || c.CloseHour > 23 || c.OpenHour >= c.CloseHour {
		return fmt.Errorf("invalid business hours %02d:00-%02d:00", c.OpenHour, c.CloseHour)
	}
	return nil
}

// Window is one weekday's opening and closing time on the local clock.
type Window struct {
	Open  civil.Time
	Close civil.Time
}

// Wraps reports whether the local window runs past midnight, which happens
// when the local zone is far enough from the reference zone.
func (w Window) Wraps() bool {
	return secondOfDay(w.Open) > secondOfDay(w.Close)
}

// Contains is inclusive at both ends.
func (w Window) Contains(t civil.Time) bool {
	o, c, x := secondOfDay(w.Open), secondOfDay(w.Close), secondOfDay(t)
	if o <= c {
		return o <= x && x <= c
	}
	return x >= o || x <= c
}

type Calendar struct {
	cfg   Config
	clock Clock
	local *time.Location

	once    sync.Once
	initErr error

	mu      sync.RWMutex
	ready   bool
	anchor  civil.Date
	windows [7]Window
}

func NewCalendar(cfg Config, clock Clock, local *time.Location) *Calendar {
	if clock == nil {
		clock = SystemClock{}
	}
	if local == nil {
		local = time.Local
	}
	return &Calendar{cfg: cfg, clock: clock, local: local}
}

// Initialize builds the table the first time it is called. Later calls
// return the first result without recomputing.
func (c *Calendar) Initialize() error {
	c.once.Do(func() {
		c.initErr = c.Refresh()
	})
	return c.initErr
}

// Refresh recomputes the table against the current date.
func (c *Calendar) Refresh() error {
	if err := c.cfg.Validate(); err != nil {
		return err
	}
	ref, err := time.LoadLocation(c.cfg.ReferenceZone)
	if err != nil {
		return fmt.Errorf("load reference zone: %w", err)
	}

	today := civil.DateOf(c.clock.Now().In(ref))
	var windows [7]Window
	for i := 0; i < 7; i++ {
		d := today.AddDays(i)
		wd := d.In(ref).Weekday()
		windows[wd] = Window{
			Open:  c.wallClock(d, c.cfg.OpenHour, ref),
			Close: c.wallClock(d, c.cfg.CloseHour, ref),
		}
	}

	c.mu.Lock()
	c.windows = windows
	c.anchor = today
	c.ready = true
	c.mu.Unlock()
	return nil
}

func (c *Calendar) wallClock(d civil.Date, hour int, ref *time.Location) civil.Time {
	at := time.Date(d.Year, d.Month, d.Day, hour, 0, 0, 0, ref)
	return civil.TimeOf(at.In(c.local))
}

func (c *Calendar) Location() *time.Location { return c.local }

// Anchor is the date the current table was computed from.
func (c *Calendar) Anchor() civil.Date {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.anchor
}

func (c *Calendar) Window(wd time.Weekday) Window {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.ready {
		panic("hours: calendar used before Initialize")
	}
	return c.windows[wd]
}

func (c *Calendar) OpeningTime(wd time.Weekday) civil.Time { return c.Window(wd).Open }

func (c *Calendar) ClosingTime(wd time.Weekday) civil.Time { return c.Window(wd).Close }

func (c *Calendar) IsWithinHours(t civil.Time, wd time.Weekday) bool {
	return c.Window(wd).Contains(t)
}

// Span returns the opening and closing instants for date d in the local zone.
// A wrapping window closes on the following day.
func (c *Calendar) Span(d civil.Date) (time.Time, time.Time) {
	w := c.Window(d.In(c.local).Weekday())
	start := civil.DateTime{Date: d, Time: w.Open}.In(c.local)
	endDate := d
	if w.Wraps() {
		endDate = d.AddDays(1)
	}
	end := civil.DateTime{Date: endDate, Time: w.Close}.In(c.local)
	return start, end
}

// DayHours is one row of the table as shown to users.
type DayHours struct {
	Weekday time.Weekday
	Open    civil.Time
	Close   civil.Time
}

// Table lists the week Monday first.
func (c *Calendar) Table() []DayHours {
	out := make([]DayHours, 0, 7)
	for i := 1; i <= 7; i++ {
		wd := time.Weekday(i % 7)
		w := c.Window(wd)
		out = append(out, DayHours{Weekday: wd, Open: w.Open, Close: w.Close})
	}
	return out
}

func secondOfDay(t civil.Time) int {
	return t.Hour*3600 + t.Minute*60 + t.Second
}
