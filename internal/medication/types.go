package medication

import (
	"database/sql/driver"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultIcon  = "💊"
	DefaultColor = "#81d4fa"

	// DateLayout is the calendar-day format stored in medication_logs.date
	DateLayout = "2006-01-02"
)

// Medication is a user-defined drug entry
type Medication struct {
	ID           uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Name         string    `json:"name" gorm:"not null"`
	Dosage       string    `json:"dosage" gorm:"not null"`
	Schedule     string    `json:"schedule" gorm:"not null"`
	SideEffects  string    `json:"side_effects"`
	Icon         string    `json:"icon"`
	Color        string    `json:"color"`
	SelectedDays Weekdays  `json:"selected_days" gorm:"type:text"`
	StartsOn     string    `json:"starts_on,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Medication) TableName() string { return "medications" }

// ScheduleTime parses the stored schedule into a time of day
func (m Medication) ScheduleTime() (TimeOfDay, error) {
	return ParseTimeOfDay(m.Schedule)
}

// MedicationLog records whether a dose was taken on a calendar date
type MedicationLog struct {
	ID           uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	MedicationID uint      `json:"medication_id" gorm:"not null;index"`
	Date         string    `json:"date" gorm:"not null"`
	Taken        bool      `json:"taken"`
	CreatedAt    time.Time `json:"created_at"`
}

func (MedicationLog) TableName() string { return "medication_logs" }

// NewMedication is the input to AddMedication. Empty optional fields take defaults.
type NewMedication struct {
	Name         string   `json:"name"`
	Dosage       string   `json:"dosage"`
	Schedule     string   `json:"schedule"`
	SideEffects  string   `json:"side_effects,omitempty"`
	Icon         string   `json:"icon,omitempty"`
	Color        string   `json:"color,omitempty"`
	SelectedDays Weekdays `json:"selected_days"`
	StartsOn     string   `json:"starts_on,omitempty"`
}

// HistoryEntry is one log line inside a HistoryDay
type HistoryEntry struct {
	MedicationName string `json:"medication_name" yaml:"medication"`
	Taken          bool   `json:"taken" yaml:"taken"`
}

// HistoryDay groups the logs of one calendar date
type HistoryDay struct {
	Date    string         `json:"date" yaml:"date"`
	Entries []HistoryEntry `json:"entries" yaml:"entries"`
}

// FormatDate truncates t to its calendar day
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate validates a YYYY-MM-DD string
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// Weekdays marks which days a reminder recurs on, Sunday=0 through Saturday=6
type Weekdays [7]bool

var weekdayNames = [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// ParseWeekdays accepts "daily", "weekdays", "weekends", a 7-char bitmask like
// "0100100", or a comma separated list of day names ("mon,wed,fri").
func ParseWeekdays(s string) (Weekdays, error) {
	var days Weekdays
	s = strings.ToLower(strings.TrimSpace(s))

	switch s {
	case "", "none":
		return days, nil
	case "daily", "everyday", "all":
		return Weekdays{true, true, true, true, true, true, true}, nil
	case "weekdays":
		return Weekdays{false, true, true, true, true, true, false}, nil
	case "weekends":
		return Weekdays{true, false, false, false, false, false, true}, nil
	}

	if len(s) == 7 && strings.Trim(s, "01") == "" {
		for i := range days {
			days[i] = s[i] == '1'
		}
		return days, nil
	}

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		found := false
		for i, name := range weekdayNames {
			if len(part) >= 2 && strings.HasPrefix(name, part) {
				days[i] = true
				found = true
				break
			}
		}
		if !found {
			return days, fmt.Errorf("unknown weekday %q", part)
		}
	}
	return days, nil
}

// Any reports whether at least one day is selected
func (w Weekdays) Any() bool {
	for _, d := range w {
		if d {
			return true
		}
	}
	return false
}

func (w Weekdays) String() string {
	var b strings.Builder
	for _, d := range w {
		if d {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// Names returns the short names of the selected days
func (w Weekdays) Names() []string {
	var names []string
	for i, d := range w {
		if d {
			names = append(names, strings.ToUpper(weekdayNames[i][:1])+weekdayNames[i][1:3])
		}
	}
	return names
}

// Value implements driver.Valuer
func (w Weekdays) Value() (driver.Value, error) {
	return w.String(), nil
}

// Scan implements sql.Scanner
func (w *Weekdays) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case nil:
		*w = Weekdays{}
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Weekdays", src)
	}
	days, err := ParseWeekdays(s)
	if err != nil {
		return err
	}
	*w = days
	return nil
}

// TimeOfDay is an hour and minute on the 24-hour clock
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

var timeOfDayRe = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)

// ParseTimeOfDay accepts "08:00", "8:00", "8:00 AM", "8:00PM" and "8 AM"
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	m := timeOfDayRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
	}
	// a bare number is ambiguous without am/pm
	if m[2] == "" && m[3] == "" {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
	}

	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}

	switch ampm := strings.ToLower(m[3]); ampm {
	case "am", "pm":
		if hour < 1 || hour > 12 {
			return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
		}
		if ampm == "pm" && hour != 12 {
			hour += 12
		}
		if ampm == "am" && hour == 12 {
			hour = 0
		}
	}

	if hour > 23 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}
