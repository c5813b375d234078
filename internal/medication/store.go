package medication

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"time"

	apperrors "github.com/gmsas95/medreminder/internal/errors"
	"github.com/gmsas95/medreminder/internal/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Schema is created by hand because the CHECK, the cascade and the partial
// unique index are not expressible through AutoMigrate tags.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS medications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		dosage TEXT NOT NULL,
		schedule TEXT NOT NULL,
		side_effects TEXT NOT NULL DEFAULT '',
		icon TEXT NOT NULL DEFAULT '💊',
		color TEXT NOT NULL DEFAULT '#81d4fa',
		selected_days TEXT NOT NULL DEFAULT '0000000',
		starts_on TEXT NOT NULL DEFAULT '',
		created_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS medication_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		medication_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		taken INTEGER NOT NULL CHECK (taken IN (0, 1)),
		created_at DATETIME,
		FOREIGN KEY (medication_id) REFERENCES medications(id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_medication_logs_date ON medication_logs(date)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_medication_logs_taken_once
		ON medication_logs(medication_id, date) WHERE taken = 1`,
}

// Store persists medications and their dose logs
type Store struct {
	db      *gorm.DB
	logger  *zap.Logger
	metrics *metrics.Metrics

	// serializes writes so a duplicate check always observes the previous insert
	mu sync.Mutex
}

// NewStore creates the tables if needed and returns a store bound to db
func NewStore(db *gorm.DB, logger *zap.Logger, m *metrics.Metrics) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.Default()
	}

	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			return nil, apperrors.Persistence("failed to migrate medication schema", err)
		}
	}

	return &Store{db: db, logger: logger, metrics: m}, nil
}

// AddMedication validates and inserts a new medication
func (s *Store) AddMedication(ctx context.Context, in NewMedication) (*Medication, error) {
	med, err := in.build()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.WithContext(ctx).Create(med).Error; err != nil {
		return nil, apperrors.Persistence("failed to add medication", err)
	}

	s.metrics.RecordMedicationAdded()
	s.logger.Info("Medication added",
		zap.Uint("medication_id", med.ID),
		zap.String("name", med.Name),
		zap.String("schedule", med.Schedule),
	)
	return med, nil
}

func (in NewMedication) build() (*Medication, error) {
	name := strings.TrimSpace(in.Name)
	dosage := strings.TrimSpace(in.Dosage)
	schedule := strings.TrimSpace(in.Schedule)

	switch {
	case name == "":
		return nil, apperrors.Validation("name is required")
	case dosage == "":
		return nil, apperrors.Validation("dosage is required")
	case schedule == "":
		return nil, apperrors.Validation("schedule is required")
	}
	if _, err := ParseTimeOfDay(schedule); err != nil {
		return nil, apperrors.Validation("schedule must be a time of day such as 08:00 or 8:00 AM")
	}

	startsOn := strings.TrimSpace(in.StartsOn)
	if startsOn != "" {
		day, err := ParseDate(startsOn)
		if err != nil {
			return nil, apperrors.Validation("starts_on must be a date in YYYY-MM-DD form")
		}
		startsOn = FormatDate(day)
	}

	med := &Medication{
		Name:         name,
		Dosage:       dosage,
		Schedule:     schedule,
		SideEffects:  strings.TrimSpace(in.SideEffects),
		Icon:         strings.TrimSpace(in.Icon),
		Color:        strings.TrimSpace(in.Color),
		SelectedDays: in.SelectedDays,
		StartsOn:     startsOn,
		CreatedAt:    time.Now(),
	}
	if med.Icon == "" {
		med.Icon = DefaultIcon
	}
	if med.Color == "" {
		med.Color = DefaultColor
	}
	return med, nil
}

// ListMedications returns all medications in insertion order
func (s *Store) ListMedications(ctx context.Context) ([]Medication, error) {
	var meds []Medication
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&meds).Error; err != nil {
		return nil, apperrors.Persistence("failed to list medications", err)
	}
	return meds, nil
}

// GetMedication returns a single medication or a not-found error
func (s *Store) GetMedication(ctx context.Context, id uint) (*Medication, error) {
	var med Medication
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&med).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("medication %d not found", id)
	}
	if err != nil {
		return nil, apperrors.Persistence("failed to get medication", err)
	}
	return &med, nil
}

// DeleteMedication removes a medication and all of its logs.
// Unknown ids fail with a not-found error.
func (s *Store) DeleteMedication(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removedLogs int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		logs := tx.Where("medication_id = ?", id).Delete(&MedicationLog{})
		if logs.Error != nil {
			return logs.Error
		}
		removedLogs = logs.RowsAffected

		res := tx.Where("id = ?", id).Delete(&Medication{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("medication %d not found", id)
		}
		return nil
	})
	if err != nil {
		return s.mapError("failed to delete medication", err)
	}

	s.metrics.RecordMedicationDeleted()
	s.logger.Info("Medication deleted",
		zap.Uint("medication_id", id),
		zap.Int64("logs_removed", removedLogs),
	)
	return nil
}

// LogDose appends a dose log for the given calendar date (YYYY-MM-DD).
// A second taken log for the same medication and date fails with a duplicate error.
func (s *Store) LogDose(ctx context.Context, medicationID uint, date string, taken bool) (*MedicationLog, error) {
	day, err := ParseDate(date)
	if err != nil {
		return nil, apperrors.Validation("date must be in YYYY-MM-DD form")
	}

	entry := &MedicationLog{
		MedicationID: medicationID,
		Date:         FormatDate(day),
		Taken:        taken,
		CreatedAt:    time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Medication{}).Where("id = ?", medicationID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperrors.NotFound("medication %d not found", medicationID)
		}

		if taken {
			err := tx.Model(&MedicationLog{}).
				Where("medication_id = ? AND date = ? AND taken = 1", medicationID, entry.Date).
				Count(&count).Error
			if err != nil {
				return err
			}
			if count > 0 {
				return apperrors.DuplicateLog("medication %d already taken on %s", medicationID, entry.Date)
			}
		}

		return tx.Create(entry).Error
	})
	if err != nil {
		return nil, s.mapError("failed to log dose", err)
	}

	s.metrics.RecordDoseLogged(taken)
	s.logger.Debug("Dose logged",
		zap.Uint("medication_id", medicationID),
		zap.String("date", entry.Date),
		zap.Bool("taken", taken),
	)
	return entry, nil
}

// TakenOn returns the ids of medications with a taken log on date
func (s *Store) TakenOn(ctx context.Context, date string) (map[uint]struct{}, error) {
	day, err := ParseDate(date)
	if err != nil {
		return nil, apperrors.Validation("date must be in YYYY-MM-DD form")
	}

	var ids []uint
	err = s.db.WithContext(ctx).Model(&MedicationLog{}).
		Where("date = ? AND taken = 1", FormatDate(day)).
		Distinct().
		Pluck("medication_id", &ids).Error
	if err != nil {
		return nil, apperrors.Persistence("failed to read taken set", err)
	}

	taken := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		taken[id] = struct{}{}
	}
	return taken, nil
}

type historyRow struct {
	Date  string
	Name  string
	Taken bool
}

// History returns all logs joined with medication names, grouped by date,
// most recent date first
func (s *Store) History(ctx context.Context) ([]HistoryDay, error) {
	var rows []historyRow
	err := s.db.WithContext(ctx).
		Table("medication_logs AS l").
		Select("l.date AS date, m.name AS name, l.taken AS taken").
		Joins("JOIN medications AS m ON m.id = l.medication_id").
		Order("l.date DESC, l.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Persistence("failed to read history", err)
	}

	days := []HistoryDay{}
	for _, r := range rows {
		if len(days) == 0 || days[len(days)-1].Date != r.Date {
			days = append(days, HistoryDay{Date: r.Date})
		}
		last := &days[len(days)-1]
		last.Entries = append(last.Entries, HistoryEntry{MedicationName: r.Name, Taken: r.Taken})
	}
	return days, nil
}

// mapError turns storage failures into app errors. Duplicates are counted
// whether the pre-check or the unique index caught them.
func (s *Store) mapError(message string, err error) error {
	if apperrors.IsAppError(err) {
		if stderrors.Is(err, apperrors.ErrDuplicateLog) {
			s.metrics.RecordDuplicateLog()
		}
		return err
	}
	if isUniqueViolation(err) {
		s.metrics.RecordDuplicateLog()
		return apperrors.Wrap(err, apperrors.CodeDuplicateLog, "dose already logged for this date")
	}
	s.logger.Error(message, zap.Error(err))
	return apperrors.Persistence(message, err)
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
