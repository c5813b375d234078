package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gmsas95/medreminder/internal/medication"
	"github.com/gmsas95/medreminder/internal/metrics"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu   sync.Mutex
	name string
	got  []Payload
	err  error
}

func (r *recordingNotifier) Name() string { return r.name }

func (r *recordingNotifier) Notify(_ context.Context, p Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, p)
	return r.err
}

func newTestDispatcher(notifiers ...Notifier) *Dispatcher {
	d := NewDispatcher(time.UTC, zap.NewNop(), metrics.New(), notifiers...)
	d.now = func() time.Time { return wednesday }
	return d
}

func TestDispatcher_ScheduleAndCancel(t *testing.T) {
	d := newTestDispatcher()

	h, err := d.Schedule(Trigger{Weekday: time.Friday, Hour: 8, Repeats: true}, Payload{Title: "x"})
	require.NoError(t, err)
	assert.Len(t, d.cron.Entries(), 1)

	d.Cancel(h)
	assert.Empty(t, d.cron.Entries())

	_, err = d.Schedule(Trigger{Weekday: time.Friday, Hour: 8}, Payload{})
	assert.Error(t, err, "one-shot triggers are rejected")
}

func TestDispatcher_Sync(t *testing.T) {
	d := newTestDispatcher()
	ctx := context.Background()

	meds := []medication.Medication{
		{ID: 1, Name: "Aspirin", Dosage: "81mg", Schedule: "08:00", SelectedDays: only(time.Monday, time.Friday)},
		{ID: 2, Name: "Statin", Dosage: "20mg", Schedule: "9 PM", SelectedDays: only(time.Sunday)},
		{ID: 3, Name: "Unscheduled", Dosage: "5mg", Schedule: "08:00"},
		{ID: 4, Name: "Broken", Dosage: "5mg", Schedule: "later", SelectedDays: only(time.Monday)},
	}

	require.NoError(t, d.Sync(ctx, meds))
	assert.Equal(t, 3, d.Active())
	assert.Len(t, d.cron.Entries(), 3)

	// a second sync replaces rather than accumulates
	require.NoError(t, d.Sync(ctx, meds[:1]))
	assert.Equal(t, 2, d.Active())
	assert.Len(t, d.cron.Entries(), 2)

	require.NoError(t, d.AddJob("@midnight", func() {}))
	require.NoError(t, d.Sync(ctx, nil))
	assert.Equal(t, 0, d.Active())
	assert.Len(t, d.cron.Entries(), 1, "housekeeping jobs survive a sync")
}

func TestDispatcher_FireFansOut(t *testing.T) {
	ok := &recordingNotifier{name: "ok"}
	failing := &recordingNotifier{name: "failing", err: errors.New("offline")}
	d := newTestDispatcher(failing, ok)

	p := Payload{MedicationID: 7, Title: "💊 Time for Aspirin", Body: "81mg at 08:00"}
	d.fire(context.Background(), p)

	assert.Equal(t, []Payload{p}, ok.got)
	assert.Equal(t, []Payload{p}, failing.got, "a failing notifier does not stop the others")
}

func TestDispatcher_StartStop(t *testing.T) {
	d := newTestDispatcher()

	require.NoError(t, d.Start())
	assert.Error(t, d.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, d.Stop(ctx))
	assert.NoError(t, d.Stop(ctx))
}

type fakeTelegram struct {
	sent []tgbotapi.Chattable
}

func (f *fakeTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

type fakeDiscord struct {
	channel string
	content string
}

func (f *fakeDiscord) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.channel = channelID
	f.content = content
	return &discordgo.Message{}, nil
}

func TestNotifiers(t *testing.T) {
	p := Payload{MedicationID: 1, Title: "💊 Time for Aspirin", Body: "81mg at 08:00"}
	ctx := context.Background()

	tg := &fakeTelegram{}
	require.NoError(t, (&TelegramNotifier{api: tg, chatID: 42}).Notify(ctx, p))
	require.Len(t, tg.sent, 1)
	msg, ok := tg.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.EqualValues(t, 42, msg.ChatID)
	assert.Contains(t, msg.Text, "Aspirin")

	dc := &fakeDiscord{}
	require.NoError(t, (&DiscordNotifier{session: dc, channelID: "c1"}).Notify(ctx, p))
	assert.Equal(t, "c1", dc.channel)
	assert.Equal(t, "**💊 Time for Aspirin**\n81mg at 08:00", dc.content)

	assert.NoError(t, NewLogNotifier(zap.NewNop()).Notify(ctx, p))
}
