package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gmsas95/medreminder/internal/medication"
	"github.com/gmsas95/medreminder/internal/metrics"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Handle identifies a scheduled trigger so it can be cancelled
type Handle cron.EntryID

// Dispatcher registers weekly triggers with a cron scheduler and fans each
// firing out to the configured notifiers
type Dispatcher struct {
	cron      *cron.Cron
	notifiers []Notifier
	logger    *zap.Logger
	metrics   *metrics.Metrics
	location  *time.Location
	now       func() time.Time

	mu      sync.Mutex
	running bool
	synced  map[Handle]uint // handle -> medication id, for Sync-managed entries
}

// NewDispatcher creates a dispatcher evaluating cron specs in loc
func NewDispatcher(loc *time.Location, logger *zap.Logger, m *metrics.Metrics, notifiers ...Notifier) *Dispatcher {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.Default()
	}
	return &Dispatcher{
		cron:      cron.New(cron.WithLocation(loc)),
		notifiers: notifiers,
		logger:    logger,
		metrics:   m,
		location:  loc,
		now:       time.Now,
		synced:    make(map[Handle]uint),
	}
}

// Schedule registers a weekly trigger and returns its handle
func (d *Dispatcher) Schedule(t Trigger, p Payload) (Handle, error) {
	if !t.Repeats {
		return 0, fmt.Errorf("only repeating triggers are supported")
	}

	id, err := d.cron.AddFunc(t.CronSpec(), func() {
		d.fire(context.Background(), p)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to schedule %s: %w", t, err)
	}

	d.logger.Debug("Reminder scheduled",
		zap.Uint("medication_id", p.MedicationID),
		zap.String("trigger", t.String()),
	)
	return Handle(id), nil
}

// Cancel removes a scheduled trigger; unknown handles are ignored
func (d *Dispatcher) Cancel(h Handle) {
	d.cron.Remove(cron.EntryID(h))

	d.mu.Lock()
	delete(d.synced, h)
	d.mu.Unlock()
}

// AddJob registers a plain cron job, used for housekeeping such as a nightly resync
func (d *Dispatcher) AddJob(spec string, fn func()) error {
	if _, err := d.cron.AddFunc(spec, fn); err != nil {
		return fmt.Errorf("failed to add job %q: %w", spec, err)
	}
	return nil
}

// Sync replaces every trigger previously registered by Sync with the
// triggers of meds, computed relative to the current time
func (d *Dispatcher) Sync(ctx context.Context, meds []medication.Medication) error {
	now := d.now().In(d.location)

	d.mu.Lock()
	defer d.mu.Unlock()

	for h := range d.synced {
		d.cron.Remove(cron.EntryID(h))
	}
	d.synced = make(map[Handle]uint)

	for _, m := range meds {
		if err := ctx.Err(); err != nil {
			return err
		}

		triggers, err := TriggersFor(m, now)
		if err != nil {
			d.logger.Warn("Skipping medication with unreadable schedule",
				zap.Uint("medication_id", m.ID),
				zap.String("schedule", m.Schedule),
				zap.Error(err),
			)
			continue
		}

		payload := PayloadFor(m)
		for _, t := range triggers {
			h, err := d.Schedule(t, payload)
			if err != nil {
				return err
			}
			d.synced[h] = m.ID
		}
	}

	d.metrics.SetActiveTriggers(len(d.synced))
	d.logger.Info("Reminders synced",
		zap.Int("medications", len(meds)),
		zap.Int("triggers", len(d.synced)),
	)
	return nil
}

// Active returns the number of triggers registered by Sync
func (d *Dispatcher) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.synced)
}

// Start starts the cron scheduler
func (d *Dispatcher) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return fmt.Errorf("reminder dispatcher already running")
	}
	d.cron.Start()
	d.running = true
	d.logger.Info("Reminder dispatcher started", zap.Int("notifiers", len(d.notifiers)))
	return nil
}

// Stop stops the scheduler and waits for running deliveries or ctx expiry
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	d.mu.Unlock()

	done := d.cron.Stop()
	select {
	case <-done.Done():
		d.logger.Info("Reminder dispatcher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) fire(ctx context.Context, p Payload) {
	for _, n := range d.notifiers {
		err := n.Notify(ctx, p)
		d.metrics.RecordReminderFired(n.Name(), err)
		if err != nil {
			d.logger.Error("Reminder delivery failed",
				zap.String("notifier", n.Name()),
				zap.Uint("medication_id", p.MedicationID),
				zap.Error(err),
			)
		}
	}
}
