// Package policy holds the tunable scheduling rules: business hours,
// display zone, text limits and report windows.
package policy

import (
	"fmt"
	"strings"
	"time"

	"github.com/alvinroe04/scheduler/libs/config"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/hours"
)

type Policy struct {
	ReferenceZone  string        `yaml:"reference_zone"`
	DisplayZone    string        `yaml:"display_zone"`
	OpenHour       int           `yaml:"open_hour"`
	CloseHour      int           `yaml:"close_hour"`
	MaxTextLength  int           `yaml:"max_text_length"`
	UpcomingWindow time.Duration `yaml:"upcoming_window"`
	RefreshCron    string        `yaml:"refresh_cron"`
	SlotLength     time.Duration `yaml:"slot_length"`
	SlotStep       time.Duration `yaml:"slot_step"`
}

// MaxStoredTextLength is the width of the appointment text columns.
const MaxStoredTextLength = 50

func Default() Policy {
	h := hours.DefaultConfig()
	return Policy{
		ReferenceZone:  h.ReferenceZone,
		OpenHour:       h.OpenHour,
		CloseHour:      h.CloseHour,
		MaxTextLength:  40,
		UpcomingWindow: 15 * time.Minute,
		RefreshCron:    hours.DefaultRefreshSpec,
		SlotLength:     30 * time.Minute,
		SlotStep:       15 * time.Minute,
	}
}

// Normalize fills zero values with defaults.
func (p *Policy) Normalize() {
	d := Default()
	p.ReferenceZone = strings.TrimSpace(p.ReferenceZone)
	if p.ReferenceZone == "" {
		p.ReferenceZone = d.ReferenceZone
	}
	p.DisplayZone = strings.TrimSpace(p.DisplayZone)
	if p.OpenHour == 0 && p.CloseHour == 0 {
		p.OpenHour, p.CloseHour = d.OpenHour, d.CloseHour
	}
	if p.MaxTextLength <= 0 {
		p.MaxTextLength = d.MaxTextLength
	}
	if p.MaxTextLength > MaxStoredTextLength {
		p.MaxTextLength = MaxStoredTextLength
	}
	if p.UpcomingWindow <= 0 {
		p.UpcomingWindow = d.UpcomingWindow
	}
	if strings.TrimSpace(p.RefreshCron) == "" {
		p.RefreshCron = d.RefreshCron
	}
	if p.SlotLength <= 0 {
		p.SlotLength = d.SlotLength
	}
	if p.SlotStep <= 0 {
		p.SlotStep = d.SlotStep
	}
}

func (p Policy) Hours() hours.Config {
	return hours.Config{ReferenceZone: p.ReferenceZone, OpenHour: p.OpenHour, CloseHour: p.CloseHour}
}

// DisplayLocation is the zone appointments are entered and shown in.
// Empty means the host's local zone.
func (p Policy) DisplayLocation() (*time.Location, error) {
	if p.DisplayZone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(p.DisplayZone)
	if err != nil {
		return nil, fmt.Errorf("display zone: %w", err)
	}
	return loc, nil
}

// Load reads the optional YAML file at path, applies SCHEDULER_* environment
// overrides and validates the result.
func Load(path string) (Policy, error) {
	p := Default()
	if _, err := config.LoadYAML(path, &p); err != nil {
		return Policy{}, err
	}

	p.ReferenceZone = config.String("SCHEDULER_REFERENCE_ZONE", p.ReferenceZone)
	p.DisplayZone = config.String("SCHEDULER_DISPLAY_ZONE", p.DisplayZone)
	p.RefreshCron = config.String("SCHEDULER_HOURS_REFRESH_CRON", p.RefreshCron)
	var err error
	if p.OpenHour, err = config.Int("SCHEDULER_OPEN_HOUR", p.OpenHour); err != nil {
		return Policy{}, err
	}
	if p.CloseHour, err = config.Int("SCHEDULER_CLOSE_HOUR", p.CloseHour); err != nil {
		return Policy{}, err
	}
	if p.MaxTextLength, err = config.Int("SCHEDULER_MAX_TEXT_LENGTH", p.MaxTextLength); err != nil {
		return Policy{}, err
	}
	if p.UpcomingWindow, err = config.Duration("SCHEDULER_UPCOMING_WINDOW", p.UpcomingWindow); err != nil {
		return Policy{}, err
	}

	p.Normalize()
	if err := p.Hours().Validate(); err != nil {
		return Policy{}, err
	}
	if _, err := p.DisplayLocation(); err != nil {
		return Policy{}, err
	}
	return p, nil
}
