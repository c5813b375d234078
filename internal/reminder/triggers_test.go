package reminder

import (
	"testing"
	"time"

	"github.com/gmsas95/medreminder/internal/medication"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday 6 March 2024, 10:00 UTC
var wednesday = time.Date(2024, time.March, 6, 10, 0, 0, 0, time.UTC)

func only(days ...time.Weekday) medication.Weekdays {
	var w medication.Weekdays
	for _, d := range days {
		w[d] = true
	}
	return w
}

func TestComputeTriggers_NoDays(t *testing.T) {
	triggers := ComputeTriggers(medication.TimeOfDay{Hour: 8}, medication.Weekdays{}, wednesday)
	assert.Empty(t, triggers)
	assert.NotNil(t, triggers)
}

func TestComputeTriggers_SingleFutureDay(t *testing.T) {
	triggers := ComputeTriggers(medication.TimeOfDay{Hour: 8, Minute: 30}, only(time.Friday), wednesday)

	require.Len(t, triggers, 1)
	assert.Equal(t, Trigger{
		Weekday:   time.Friday,
		Hour:      8,
		Minute:    30,
		Repeats:   true,
		FirstFire: time.Date(2024, time.March, 8, 8, 30, 0, 0, time.UTC),
	}, triggers[0])
	assert.Equal(t, "30 8 * * 5", triggers[0].CronSpec())
}

func TestComputeTriggers_Today(t *testing.T) {
	tests := []struct {
		name string
		at   medication.TimeOfDay
		want int
	}{
		{"earlier today is dropped", medication.TimeOfDay{Hour: 8}, 0},
		{"exactly now is kept", medication.TimeOfDay{Hour: 10}, 1},
		{"later today is kept", medication.TimeOfDay{Hour: 21, Minute: 15}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			triggers := ComputeTriggers(tt.at, only(time.Wednesday), wednesday)
			require.Len(t, triggers, tt.want)
			if tt.want == 1 {
				assert.Equal(t, time.Wednesday, triggers[0].Weekday)
				assert.Equal(t, 6, triggers[0].FirstFire.Day())
			}
		})
	}
}

func TestComputeTriggers_DailyOrderedByWeekday(t *testing.T) {
	daily := medication.Weekdays{true, true, true, true, true, true, true}
	triggers := ComputeTriggers(medication.TimeOfDay{Hour: 9}, daily, wednesday)

	require.Len(t, triggers, 6)
	want := []time.Weekday{time.Sunday, time.Monday, time.Tuesday, time.Thursday, time.Friday, time.Saturday}
	for i, tr := range triggers {
		assert.Equal(t, want[i], tr.Weekday)
		assert.Equal(t, 9, tr.Hour)
		assert.True(t, tr.Repeats)
		assert.False(t, tr.FirstFire.Before(wednesday))
		assert.True(t, tr.FirstFire.Before(wednesday.AddDate(0, 0, 7)))
	}
}

func TestTriggersFor(t *testing.T) {
	med := medication.Medication{
		ID:           3,
		Name:         "Aspirin",
		Dosage:       "81mg",
		Schedule:     "6:00 PM",
		SelectedDays: only(time.Monday, time.Thursday),
	}

	triggers, err := TriggersFor(med, wednesday)
	require.NoError(t, err)
	require.Len(t, triggers, 2)
	assert.Equal(t, time.Monday, triggers[0].Weekday)
	assert.Equal(t, 18, triggers[0].Hour)

	med.StartsOn = "2024-04-01"
	triggers, err = TriggersFor(med, wednesday)
	require.NoError(t, err)
	assert.Empty(t, triggers)

	med.Schedule = "whenever"
	_, err = TriggersFor(med, wednesday)
	assert.Error(t, err)
}

func TestPayloadFor(t *testing.T) {
	p := PayloadFor(medication.Medication{ID: 1, Name: "Aspirin", Dosage: "81mg", Schedule: "08:00"})
	assert.Equal(t, "💊 Time for Aspirin", p.Title)
	assert.Equal(t, "81mg at 08:00", p.Body)
	assert.EqualValues(t, 1, p.MedicationID)
}
