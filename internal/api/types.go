package api

import (
	"context"
	"time"

	"github.com/gmsas95/medreminder/internal/config"
	"github.com/gmsas95/medreminder/internal/medication"
	"github.com/gmsas95/medreminder/internal/metrics"
	"github.com/gmsas95/medreminder/internal/voice"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ReminderSyncer re-registers reminder triggers after the medication list changes
type ReminderSyncer interface {
	Resync(ctx context.Context) error
}

// Deps are the services the HTTP API exposes
type Deps struct {
	Config      *config.Config
	Medications *medication.Store
	Tracker     *medication.Tracker
	Voice       *voice.Facade
	Reminders   ReminderSyncer
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
	Location    *time.Location
}

type Server struct {
	app         *fiber.App
	config      *config.Config
	medications *medication.Store
	tracker     *medication.Tracker
	voice       *voice.Facade
	reminders   ReminderSyncer
	metrics     *metrics.Metrics
	logger      *zap.Logger
	location    *time.Location
	now         func() time.Time
}

func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.Default()
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Tracker == nil {
		d.Tracker = medication.NewTracker(d.Medications)
	}

	readTimeout := time.Duration(d.Config.Server.ReadTimeout) * time.Second
	writeTimeout := time.Duration(d.Config.Server.WriteTimeout) * time.Second
	app := fiber.New(fiber.Config{
		ReadTimeout:           readTimeout,
		WriteTimeout:          writeTimeout,
		IdleTimeout:           120 * time.Second,
		DisableStartupMessage: true,
	})

	s := &Server{
		app:         app,
		config:      d.Config,
		medications: d.Medications,
		tracker:     d.Tracker,
		voice:       d.Voice,
		reminders:   d.Reminders,
		metrics:     d.Metrics,
		logger:      d.Logger,
		location:    d.Location,
		now:         time.Now,
	}

	s.setupRoutes()
	return s
}

// App exposes the fiber app, mainly for tests
func (s *Server) App() *fiber.App {
	return s.app
}

type createMedicationRequest struct {
	medication.NewMedication
	// Days accepts the same forms as the CLI ("mon,wed", "daily", "0101010")
	// and overrides selected_days when set
	Days string `json:"days,omitempty"`
}

type logDoseRequest struct {
	Date  string `json:"date"`
	Taken *bool  `json:"taken"`
}

type statusResponse struct {
	Date   string            `json:"date"`
	Total  int               `json:"total"`
	Taken  int               `json:"taken"`
	Status string            `json:"status"`
	Notice medication.Notice `json:"notice"`
}

type askRequest struct {
	Question string `json:"question"`
}

type speechRequest struct {
	Text         string `json:"text"`
	MedicationID uint   `json:"medication_id"`
}

type voiceRequest struct {
	Name string `json:"name"`
}
