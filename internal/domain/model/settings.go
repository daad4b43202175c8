package model

import "time"

// Attendance defaults, applied wherever the shared record is absent or
// partially filled.
const (
	DefaultSlot1Time     = "09:05"
	DefaultSlot1Points   = 3
	DefaultSlot2Time     = "09:20"
	DefaultSlot2Points   = 2
	DefaultTokenInterval = 30 * time.Second
	DefaultTokenValidity = 5 * time.Minute
)

// AttendanceSettings is the shared, eventually-consistent configuration
// record. It is read-only for this service apart from the admin save
// endpoint; readers tolerate staleness on the order of the cache TTL.
//
// Slot times are "HH:MM" wall-clock strings compared lexicographically, which
// is exact for zero-padded 24h times.
type AttendanceSettings struct {
	Slot1Time        string `json:"slot1_time" yaml:"slot1_time"`
	Slot1Points      int    `json:"slot1_points" yaml:"slot1_points"`
	Slot2Time        string `json:"slot2_time" yaml:"slot2_time"`
	Slot2Points      int    `json:"slot2_points" yaml:"slot2_points"`
	DefaultPoints    int    `json:"default_points" yaml:"default_points"`
	TokenIntervalSec int    `json:"token_interval_sec" yaml:"token_interval_sec"`
	TokenValidityMin int    `json:"token_validity_min" yaml:"token_validity_min"`
}

func DefaultAttendanceSettings() AttendanceSettings {
	return AttendanceSettings{
		Slot1Time:        DefaultSlot1Time,
		Slot1Points:      DefaultSlot1Points,
		Slot2Time:        DefaultSlot2Time,
		Slot2Points:      DefaultSlot2Points,
		DefaultPoints:    0,
		TokenIntervalSec: int(DefaultTokenInterval / time.Second),
		TokenValidityMin: int(DefaultTokenValidity / time.Minute),
	}
}

// WithDefaults fills absent fields. DefaultPoints deliberately stays as-is:
// zero is a valid configured value (attend late, earn nothing).
func (s AttendanceSettings) WithDefaults() AttendanceSettings {
	if s.Slot1Time == "" {
		s.Slot1Time = DefaultSlot1Time
	}
	if s.Slot2Time == "" {
		s.Slot2Time = DefaultSlot2Time
	}
	if s.TokenIntervalSec <= 0 {
		s.TokenIntervalSec = int(DefaultTokenInterval / time.Second)
	}
	if s.TokenValidityMin <= 0 {
		s.TokenValidityMin = int(DefaultTokenValidity / time.Minute)
	}
	return s
}

func (s AttendanceSettings) TokenInterval() time.Duration {
	return time.Duration(s.WithDefaults().TokenIntervalSec) * time.Second
}

func (s AttendanceSettings) TokenValidity() time.Duration {
	return time.Duration(s.WithDefaults().TokenValidityMin) * time.Minute
}
