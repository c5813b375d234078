// Package reminder turns medication schedules into weekly notification
// triggers and dispatches them.
package reminder

import (
	"fmt"
	"sort"
	"time"

	"github.com/gmsas95/medreminder/internal/medication"
)

// Trigger repeats every week on Weekday at Hour:Minute
type Trigger struct {
	Weekday   time.Weekday `json:"weekday"`
	Hour      int          `json:"hour"`
	Minute    int          `json:"minute"`
	Repeats   bool         `json:"repeats"`
	FirstFire time.Time    `json:"first_fire"`
}

// CronSpec renders the trigger as a five-field cron expression
func (t Trigger) CronSpec() string {
	return fmt.Sprintf("%d %d * * %d", t.Minute, t.Hour, int(t.Weekday))
}

func (t Trigger) String() string {
	return fmt.Sprintf("%s %02d:%02d", t.Weekday, t.Hour, t.Minute)
}

// ComputeTriggers returns one weekly trigger per selected day. Each day's
// occurrence is taken from the seven days starting at now's calendar day;
// occurrences strictly before now are dropped. The result is ordered by weekday.
func ComputeTriggers(at medication.TimeOfDay, days medication.Weekdays, now time.Time) []Trigger {
	triggers := []Trigger{}
	if !days.Any() {
		return triggers
	}

	start := time.Date(now.Year(), now.Month(), now.Day(), at.Hour, at.Minute, 0, 0, now.Location())
	for i := 0; i < 7; i++ {
		occurrence := start.AddDate(0, 0, i)
		wd := occurrence.Weekday()
		if !days[wd] || occurrence.Before(now) {
			continue
		}
		triggers = append(triggers, Trigger{
			Weekday:   wd,
			Hour:      at.Hour,
			Minute:    at.Minute,
			Repeats:   true,
			FirstFire: occurrence,
		})
	}

	sort.Slice(triggers, func(i, j int) bool {
		return triggers[i].Weekday < triggers[j].Weekday
	})
	return triggers
}

// TriggersFor computes the triggers of a stored medication. A medication whose
// start date lies after now has no triggers yet.
func TriggersFor(m medication.Medication, now time.Time) ([]Trigger, error) {
	at, err := m.ScheduleTime()
	if err != nil {
		return nil, err
	}
	if m.StartsOn != "" && m.StartsOn > medication.FormatDate(now) {
		return []Trigger{}, nil
	}
	return ComputeTriggers(at, m.SelectedDays, now), nil
}

// Payload is the title and body shown when a trigger fires
type Payload struct {
	MedicationID uint   `json:"medication_id"`
	Title        string `json:"title"`
	Body         string `json:"body"`
}

// PayloadFor builds the notification text for a medication
func PayloadFor(m medication.Medication) Payload {
	icon := m.Icon
	if icon == "" {
		icon = medication.DefaultIcon
	}
	return Payload{
		MedicationID: m.ID,
		Title:        fmt.Sprintf("%s Time for %s", icon, m.Name),
		Body:         fmt.Sprintf("%s at %s", m.Dosage, m.Schedule),
	}
}
