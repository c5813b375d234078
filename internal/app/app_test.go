package app

import (
	"context"
	"testing"
	"time"

	"github.com/gmsas95/medreminder/internal/config"
	"github.com/gmsas95/medreminder/internal/medication"
	"github.com/gmsas95/medreminder/internal/store"
	"github.com/gmsas95/medreminder/internal/voice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestApp(t *testing.T) *App {
	st, err := store.NewInMemory()
	require.NoError(t, err)

	cfg := &config.Config{
		LLM:       config.LLMConfig{BaseURL: "http://127.0.0.1:0", Model: "gpt-3.5-turbo", Timeout: 1},
		Voice:     config.VoiceConfig{Theme: "echo", ScratchDir: t.TempDir(), Speaker: "remote", Rate: 0.9},
		Reminders: config.RemindersConfig{Enabled: true, Timezone: "UTC"},
	}

	a, err := New(cfg, st, zap.NewNop(), "test")
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestNew(t *testing.T) {
	a := setupTestApp(t)

	assert.Equal(t, "test", a.Version)
	assert.Equal(t, time.UTC, a.Location)
	assert.Equal(t, "echo", a.Voice.Themes().Current())
	assert.Equal(t, "remote", a.Speaker.Name())
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = LoadLocation("UTC")
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())

	_, err = LoadLocation("Mars/Olympus_Mons")
	assert.Error(t, err)
}

func TestNewSpeaker(t *testing.T) {
	tests := []struct {
		speaker string
		want    string
	}{
		{"piper", "piper"},
		{"command", "command"},
		{"remote", "remote"},
		{"", "remote"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			s := NewSpeaker(config.VoiceConfig{Speaker: tt.speaker, Rate: 1}, nil, nil)
			assert.Equal(t, tt.want, s.Name())
		})
	}
}

func TestStartRemindersAndResync(t *testing.T) {
	a := setupTestApp(t)
	ctx := context.Background()

	// resync before the dispatcher exists is a no-op
	require.NoError(t, a.Resync(ctx))

	_, err := a.Medications.AddMedication(ctx, medication.NewMedication{
		Name:         "Aspirin",
		Dosage:       "81mg",
		Schedule:     "23:59",
		SelectedDays: medication.Weekdays{true, true, true, true, true, true, true},
	})
	require.NoError(t, err)

	require.NoError(t, a.StartReminders(ctx))
	defer a.Dispatcher.Stop(ctx)

	assert.GreaterOrEqual(t, a.Dispatcher.Active(), 6)
	assert.Len(t, a.Notifiers(), 1, "only the log notifier is enabled")
}

func TestApplyConfig(t *testing.T) {
	a := setupTestApp(t)

	next := *a.Config
	next.Voice.Theme = "nova"
	a.ApplyConfig(&next)

	assert.Equal(t, "nova", a.Voice.Themes().Current())

	stored, err := a.Store.GetString(voice.ThemeKey, "")
	require.NoError(t, err)
	assert.Equal(t, "nova", stored)
}
